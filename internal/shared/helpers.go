// Package shared provides common utility functions used across multiple
// packages in the apms codebase.
package shared

import (
	"os"
	"path/filepath"
	"strings"
)

// JoinURL joins a base URL and a relative path with exactly one slash
// between them.
func JoinURL(base string, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

// WithinRoot reports whether the cleaned path is root itself or lies
// below it.
func WithinRoot(root string, path string) bool {
	root = filepath.Clean(root)
	path = filepath.Clean(path)
	return path == root || strings.HasPrefix(path, root+string(os.PathSeparator))
}
