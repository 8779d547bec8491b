package core

import (
	"context"

	assert "github.com/ZanzyTHEbar/assert-lib"
	"github.com/rs/zerolog/log"

	"apms/internal/ports"
	"apms/internal/types"
)

// Remover deletes an installed package: launcher first, then the install
// directory. Nothing is restored if a step fails.
type Remover struct {
	Layout     types.Layout
	Filesystem ports.FilesystemPort
}

func NewRemover(layout types.Layout, filesystem ports.FilesystemPort) Remover {
	return Remover{Layout: layout, Filesystem: filesystem}
}

func (r Remover) Delete(ctx context.Context, name string) error {
	assert.NotEmpty(ctx, name, "package name must be set")
	installDir := r.Layout.InstallDir(name)
	installed, err := r.Filesystem.Exists(installDir)
	if err != nil {
		return &types.FilesystemError{Step: types.StepRemoveInstallDir, Path: installDir, Cause: err}
	}
	if !installed {
		return &types.NotInstalledError{Name: name, Path: installDir}
	}

	launcher := r.Layout.LauncherPath(name)
	isLink, err := r.Filesystem.IsSymlink(launcher)
	if err != nil {
		return &types.FilesystemError{Step: types.StepRemoveLauncher, Path: launcher, Cause: err}
	}
	if isLink {
		log.Ctx(ctx).Info().Msgf("Removing symlink: %s", launcher)
		if err := r.Filesystem.Remove(launcher); err != nil {
			return &types.FilesystemError{Step: types.StepRemoveLauncher, Path: launcher, Cause: err}
		}
	} else {
		exists, err := r.Filesystem.Exists(launcher)
		if err != nil {
			return &types.FilesystemError{Step: types.StepRemoveLauncher, Path: launcher, Cause: err}
		}
		if exists {
			log.Ctx(ctx).Warn().Msgf("%s is not a symlink, leaving it in place", launcher)
		}
	}

	log.Ctx(ctx).Info().Msgf("Removing package files from: %s", installDir)
	if err := r.Filesystem.RemoveAll(installDir); err != nil {
		return &types.FilesystemError{Step: types.StepRemoveInstallDir, Path: installDir, Cause: err}
	}
	return nil
}
