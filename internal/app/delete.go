package app

import (
	"context"

	"github.com/rs/zerolog/log"

	"apms/internal/core"
	"apms/internal/policies"
	"apms/internal/types"
)

// Delete removes an installed package. The install directory decides
// whether the package is installed, so packages missing from the registry
// can still be removed. An absent package is reported before any lock
// file is created; the remover checks again under the lock.
func (s Service) Delete(ctx context.Context, req DeleteRequest) (DeleteResult, error) {
	name := req.Name
	if err := policies.ValidatePackageName(name); err != nil {
		return DeleteResult{}, err
	}
	if err := s.Privilege.RequireElevated("package deletion"); err != nil {
		return DeleteResult{}, err
	}
	installDir := s.Layout.InstallDir(name)
	installed, err := s.Filesystem.Exists(installDir)
	if err != nil {
		return DeleteResult{}, &types.FilesystemError{Step: types.StepRemoveInstallDir, Path: installDir, Cause: err}
	}
	if !installed {
		return DeleteResult{}, &types.NotInstalledError{Name: name, Path: installDir}
	}
	lock, err := s.Locks.Acquire(ctx, name)
	if err != nil {
		return DeleteResult{}, err
	}
	defer s.release(ctx, lock)

	logger := log.Ctx(ctx)
	logger.Info().Msgf("Deleting package: %s", name)
	remover := core.NewRemover(s.Layout, s.Filesystem)
	if err := remover.Delete(ctx, name); err != nil {
		return DeleteResult{}, err
	}
	s.forget(ctx, name)
	logger.Info().Msgf("Successfully deleted package: %s", name)
	return DeleteResult{Name: name, InstallDir: installDir}, nil
}

// List returns the packages recorded in the registry, sorted by name.
func (s Service) List(ctx context.Context) (ListResult, error) {
	packages, err := s.Registry.List()
	if err != nil {
		return ListResult{}, err
	}
	log.Ctx(ctx).Debug().Int("packages", len(packages)).Msg("registry listed")
	return ListResult{Packages: packages}, nil
}
