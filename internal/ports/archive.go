package ports

import "context"

// ArchivePort opens staged archives.
type ArchivePort interface {
	Open(path string) (Archive, error)
}

// Archive is an opened compressed archive.
type Archive interface {
	// ExtractTo unpacks every entry below dest, keeping the archive's
	// relative paths.
	ExtractTo(ctx context.Context, dest string) error
	Close() error
}
