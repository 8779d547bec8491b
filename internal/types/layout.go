package types

import (
	"fmt"
	"path/filepath"
)

const (
	DefaultInstallRoot = "/usr/local/lib/apms/packages"
	DefaultBinDir      = "/usr/local/bin"
	DefaultStateDir    = "/usr/local/lib/apms"
)

// Layout holds the well-known filesystem locations apms mutates.
type Layout struct {
	InstallRoot string
	BinDir      string
	StagingRoot string
	StateDir    string
}

// InstallDir returns <install-root>/<name>.
func (l Layout) InstallDir(name string) string {
	return filepath.Join(l.InstallRoot, name)
}

// LauncherPath returns <bin-dir>/<name>.
func (l Layout) LauncherPath(name string) string {
	return filepath.Join(l.BinDir, name)
}

// StagingDir returns <staging-root>/<name>.
func (l Layout) StagingDir(name string) string {
	return filepath.Join(l.StagingRoot, name)
}

// StagingPath returns <staging-root>/<name>/<name>-<version>.tar.gz.
func (l Layout) StagingPath(name string, version string) string {
	return filepath.Join(l.StagingDir(name), ArchiveFileName(name, version))
}

// RegistryPath returns the registry file under the state directory.
func (l Layout) RegistryPath() string {
	return filepath.Join(l.StateDir, "registry.yaml")
}

// LockDir returns the directory holding per-package lock files.
func (l Layout) LockDir() string {
	return filepath.Join(l.StateDir, "locks")
}

// ArchiveFileName is the deterministic staging file name of a package.
func ArchiveFileName(name string, version string) string {
	return fmt.Sprintf("%s-%s.tar.gz", name, version)
}
