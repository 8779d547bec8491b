package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"apms/internal/core"
	"apms/internal/policies"
	"apms/internal/ports"
)

// Install resolves name on the configured mirrors, stages its archive and
// installs it. A failed install is rolled back before the error is
// returned; rollback problems are only logged.
func (s Service) Install(ctx context.Context, req InstallRequest) (InstallResult, error) {
	name := req.Name
	if err := policies.ValidatePackageName(name); err != nil {
		return InstallResult{}, err
	}
	if err := s.Privilege.RequireElevated("package installation"); err != nil {
		return InstallResult{}, err
	}
	lock, err := s.Locks.Acquire(ctx, name)
	if err != nil {
		return InstallResult{}, err
	}
	defer s.release(ctx, lock)

	logger := log.Ctx(ctx)
	logger.Info().Msgf("Searching for package: %s", name)
	list, err := s.MirrorConfig.Load(ctx)
	if err != nil {
		return InstallResult{}, err
	}
	acquirer := core.NewPackageAcquirer(core.OrderMirrors(list), s.Transport, s.Staging)

	logger.Info().Msg("Fetching package information...")
	meta, err := acquirer.FetchMetadata(ctx, name)
	if err != nil {
		return InstallResult{}, err
	}

	previous := s.previousVersion(ctx, name)
	change := core.ClassifyVersionChange(previous, meta.Version)
	if previous != "" {
		logger.Info().Msgf("%s %s: %s -> %s", change, name, previous, meta.Version)
	}

	logger.Info().Msgf("Downloading %s version %s...", meta.Name, meta.Version)
	archive, err := acquirer.FetchArchive(ctx, meta)
	if err != nil {
		return InstallResult{}, err
	}

	logger.Info().Msgf("Installing %s...", meta.Name)
	installer := core.NewInstaller(s.Layout, s.Filesystem, s.Archives)
	pkg, err := installer.Install(ctx, archive, meta)
	if err != nil {
		for _, warning := range installer.Rollback(ctx, archive) {
			logger.Warn().Msgf("Cleanup failed: %v", warning)
		}
		if previous != "" {
			// the previous install went with the rolled back directory
			s.forget(ctx, name)
		}
		return InstallResult{}, err
	}

	pkg.InstalledAt = s.now()
	record := func(registry ports.RegistryPort) error { return registry.Record(pkg) }
	if err := s.updateRegistry(ctx, record); err != nil {
		logger.Warn().Msgf("Failed to record %s in the package registry: %v", name, err)
	}
	logger.Info().Msgf("Successfully installed %s", meta.Name)
	return InstallResult{
		Package:         pkg,
		PreviousVersion: previous,
		Archive:         archive.Path,
	}, nil
}

func (s Service) previousVersion(ctx context.Context, name string) string {
	recorded, ok, err := s.Registry.Get(name)
	if err != nil {
		log.Ctx(ctx).Warn().Msgf("Failed to read the package registry: %v", err)
		return ""
	}
	if !ok {
		return ""
	}
	return recorded.Version
}

func (s Service) forget(ctx context.Context, name string) {
	forget := func(registry ports.RegistryPort) error { return registry.Forget(name) }
	if err := s.updateRegistry(ctx, forget); err != nil {
		log.Ctx(ctx).Warn().Msgf("Failed to remove %s from the package registry: %v", name, err)
	}
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now()
	}
	return s.Clock()
}

func (s Service) release(ctx context.Context, lock ports.PackageLock) {
	if err := lock.Release(); err != nil {
		log.Ctx(ctx).Warn().Msgf("Failed to release package lock: %v", err)
	}
}
