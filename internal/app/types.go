package app

import "apms/internal/types"

type InstallRequest struct {
	Name string
}

type InstallResult struct {
	Package         types.InstalledPackage
	PreviousVersion string
	Archive         string
}

type DeleteRequest struct {
	Name string
}

type DeleteResult struct {
	Name       string
	InstallDir string
}

type ListResult struct {
	Packages []types.InstalledPackage
}

type MirrorsResult struct {
	Source  types.MirrorScope
	Path    string
	All     []types.Mirror
	Ordered []types.Mirror
}

type MirrorAddRequest struct {
	Name     string
	URL      string
	Priority uint8
	Enabled  bool
}

type MirrorRemoveRequest struct {
	Name string
}

type MirrorToggleRequest struct {
	Name    string
	Enabled bool
}
