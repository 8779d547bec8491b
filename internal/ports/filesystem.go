package ports

// FilesystemPort is the set of filesystem mutations the install and
// delete pipelines perform.
type FilesystemPort interface {
	MkdirAll(path string) error
	// Remove deletes a file or symlink. A missing path is not an error.
	Remove(path string) error
	// RemoveAll deletes a tree. A missing path is not an error.
	RemoveAll(path string) error
	// Exists reports whether path exists without following symlinks.
	Exists(path string) (bool, error)
	IsSymlink(path string) (bool, error)
	Readlink(path string) (string, error)
	Symlink(target string, link string) error
	Rename(from string, to string) error
}
