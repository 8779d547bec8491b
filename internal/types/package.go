package types

import "time"

// PackageMetadata is the descriptor a mirror serves at
// <mirror>/packages/<name>.json.
type PackageMetadata struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	DownloadURL string `json:"download_url"`
	// EntryPoint is the launcher target relative to the install directory.
	// Empty means the installer falls back to well-known locations.
	EntryPoint string `json:"entry_point,omitempty"`
}

// StagedArchive is a downloaded archive that has not been installed yet.
type StagedArchive struct {
	Package string
	Version string
	Path    string
	Mirror  string
}

// InstalledPackage describes a package after a successful install.
type InstalledPackage struct {
	Name        string    `yaml:"name"`
	Version     string    `yaml:"version"`
	InstallDir  string    `yaml:"install_dir"`
	Launcher    string    `yaml:"launcher,omitempty"`
	EntryPoint  string    `yaml:"entry_point,omitempty"`
	Mirror      string    `yaml:"mirror,omitempty"`
	InstalledAt time.Time `yaml:"installed_at"`
}

// RegistryFile is the on-disk form of the installed package registry.
type RegistryFile struct {
	Version  int                `yaml:"version"`
	Packages []InstalledPackage `yaml:"packages"`
}

const RegistryFileVersion = 1
