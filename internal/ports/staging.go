package ports

import (
	"context"
	"io"

	"apms/internal/types"
)

// StagingPort persists downloaded archives before installation.
type StagingPort interface {
	PathFor(meta types.PackageMetadata) string
	// Save writes body verbatim to PathFor(meta), creating the staging
	// directory if needed. size is the expected length or -1.
	Save(ctx context.Context, meta types.PackageMetadata, body io.Reader, size int64) (string, error)
}
