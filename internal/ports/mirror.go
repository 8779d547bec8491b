package ports

import (
	"context"

	"apms/internal/types"
)

// MirrorConfigPort loads and persists the mirror configuration.
type MirrorConfigPort interface {
	// Load returns the user list if present, else the system list, else
	// the built-in default. A missing file is not an error; a file that
	// exists but cannot be parsed is a *types.ConfigError.
	Load(ctx context.Context) (types.MirrorList, error)

	// LoadSystem reads only the system scope, falling back to the
	// built-in default. Mirror management mutates this list.
	LoadSystem(ctx context.Context) (types.MirrorList, error)

	// Persist writes the list to the system scope.
	Persist(ctx context.Context, list types.MirrorList) error
}
