package core

import (
	"context"
	"fmt"
	"path/filepath"

	assert "github.com/ZanzyTHEbar/assert-lib"
	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"apms/internal/ports"
	"apms/internal/shared"
	"apms/internal/types"
)

// Installer extracts staged archives below the install root and publishes
// a launcher symlink in the bin directory.
type Installer struct {
	Layout     types.Layout
	Filesystem ports.FilesystemPort
	Archives   ports.ArchivePort
}

func NewInstaller(layout types.Layout, filesystem ports.FilesystemPort, archives ports.ArchivePort) Installer {
	return Installer{
		Layout:     layout,
		Filesystem: filesystem,
		Archives:   archives,
	}
}

// Install runs every step in order and stops at the first failure. The
// returned error is a *types.ArchiveError or *types.FilesystemError naming
// the step. Install does not clean up; callers run Rollback on failure.
func (i Installer) Install(ctx context.Context, archive types.StagedArchive, meta types.PackageMetadata) (types.InstalledPackage, error) {
	assert.NotEmpty(ctx, archive.Package, "staged archive must name its package")
	name := archive.Package
	installDir := i.Layout.InstallDir(name)

	if err := i.Filesystem.MkdirAll(installDir); err != nil {
		return types.InstalledPackage{}, &types.FilesystemError{Step: types.StepCreateInstallDir, Path: installDir, Cause: err}
	}
	if err := i.extract(ctx, archive.Path, installDir); err != nil {
		return types.InstalledPackage{}, err
	}
	entryPoint, err := i.resolveEntryPoint(name, meta)
	if err != nil {
		return types.InstalledPackage{}, err
	}
	launcher := i.Layout.LauncherPath(name)
	target := filepath.Join(installDir, entryPoint)
	log.Ctx(ctx).Info().Msgf("Creating symlink: %s -> %s", launcher, target)
	if err := i.publishLauncher(target, launcher); err != nil {
		return types.InstalledPackage{}, err
	}
	return types.InstalledPackage{
		Name:       name,
		Version:    archive.Version,
		InstallDir: installDir,
		Launcher:   launcher,
		EntryPoint: entryPoint,
		Mirror:     archive.Mirror,
	}, nil
}

func (i Installer) extract(ctx context.Context, archivePath string, installDir string) error {
	opened, err := i.Archives.Open(archivePath)
	if err != nil {
		return &types.ArchiveError{Step: types.StepOpenArchive, Path: archivePath, Cause: err}
	}
	defer opened.Close()
	if err := opened.ExtractTo(ctx, installDir); err != nil {
		return &types.ArchiveError{Step: types.StepExtractArchive, Path: archivePath, Cause: err}
	}
	return nil
}

// entryPointCandidates lists where a launcher target is looked for when
// the metadata does not name one.
func entryPointCandidates(name string, version string) []string {
	versioned := fmt.Sprintf("%s-%s", name, version)
	return []string{
		name,
		filepath.Join("bin", name),
		filepath.Join(versioned, name),
		filepath.Join(versioned, "bin", name),
	}
}

// resolveEntryPoint returns the launcher target relative to the install
// directory.
func (i Installer) resolveEntryPoint(name string, meta types.PackageMetadata) (string, error) {
	installDir := i.Layout.InstallDir(name)
	candidates := entryPointCandidates(name, meta.Version)
	if meta.EntryPoint != "" {
		cleaned := filepath.Clean(meta.EntryPoint)
		if !filepath.IsLocal(cleaned) {
			return "", &types.FilesystemError{
				Step: types.StepResolveEntryPoint,
				Path: meta.EntryPoint,
				Cause: errbuilder.New().
					WithCode(errbuilder.CodeInvalidArgument).
					WithMsg("entry point must stay inside the install directory"),
			}
		}
		candidates = []string{cleaned}
	}
	for _, candidate := range candidates {
		exists, err := i.Filesystem.Exists(filepath.Join(installDir, candidate))
		if err != nil {
			return "", &types.FilesystemError{Step: types.StepResolveEntryPoint, Path: filepath.Join(installDir, candidate), Cause: err}
		}
		if exists {
			return candidate, nil
		}
	}
	return "", &types.FilesystemError{
		Step: types.StepResolveEntryPoint,
		Path: installDir,
		Cause: errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("no entry point found, looked for %v", candidates)),
	}
}

func stagingLauncherPath(launcher string) string {
	return filepath.Join(filepath.Dir(launcher), "."+filepath.Base(launcher)+".apms-new")
}

// publishLauncher creates the link next to its final location and renames
// it into place, so an existing launcher is replaced without a window in
// which none exists.
func (i Installer) publishLauncher(target string, launcher string) error {
	dir := filepath.Dir(launcher)
	if err := i.Filesystem.MkdirAll(dir); err != nil {
		return &types.FilesystemError{Step: types.StepCreateLauncherDir, Path: dir, Cause: err}
	}
	pending := stagingLauncherPath(launcher)
	if err := i.Filesystem.Remove(pending); err != nil {
		return &types.FilesystemError{Step: types.StepRemoveStaleLauncher, Path: pending, Cause: err}
	}
	if err := i.Filesystem.Symlink(target, pending); err != nil {
		return &types.FilesystemError{Step: types.StepCreateLauncher, Path: launcher, Cause: err}
	}
	if err := i.Filesystem.Rename(pending, launcher); err != nil {
		_ = i.Filesystem.Remove(pending)
		return &types.FilesystemError{Step: types.StepCreateLauncher, Path: launcher, Cause: err}
	}
	return nil
}

// Rollback removes what a failed install of archive left behind: the
// staged archive, the package install directory, a pending launcher link
// and any launcher still pointing into the removed directory. It never stops early; every failure is returned as a warning.
func (i Installer) Rollback(ctx context.Context, archive types.StagedArchive) []error {
	var warnings []error
	if archive.Path != "" {
		if err := i.Filesystem.Remove(archive.Path); err != nil {
			warnings = append(warnings, &types.FilesystemError{Step: types.StepRemoveStaging, Path: archive.Path, Cause: err})
		}
	}
	if archive.Package == "" {
		return warnings
	}
	installDir := i.Layout.InstallDir(archive.Package)
	exists, err := i.Filesystem.Exists(installDir)
	if err != nil {
		warnings = append(warnings, &types.FilesystemError{Step: types.StepRemoveInstallDir, Path: installDir, Cause: err})
	} else if exists {
		if err := i.Filesystem.RemoveAll(installDir); err != nil {
			warnings = append(warnings, &types.FilesystemError{Step: types.StepRemoveInstallDir, Path: installDir, Cause: err})
		}
	}
	launcher := i.Layout.LauncherPath(archive.Package)
	pending := stagingLauncherPath(launcher)
	if err := i.Filesystem.Remove(pending); err != nil {
		warnings = append(warnings, &types.FilesystemError{Step: types.StepRemoveStaleLauncher, Path: pending, Cause: err})
	}
	if err := i.removeLauncherInto(launcher, installDir); err != nil {
		warnings = append(warnings, &types.FilesystemError{Step: types.StepRemoveLauncher, Path: launcher, Cause: err})
	}
	log.Ctx(ctx).Debug().Str("package", archive.Package).Int("warnings", len(warnings)).Msg("rollback finished")
	return warnings
}

// removeLauncherInto deletes launcher when it is a symlink whose target
// lies below installDir. Anything else at that path is left alone.
func (i Installer) removeLauncherInto(launcher string, installDir string) error {
	isLink, err := i.Filesystem.IsSymlink(launcher)
	if err != nil || !isLink {
		return err
	}
	target, err := i.Filesystem.Readlink(launcher)
	if err != nil {
		return err
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(launcher), target)
	}
	if !shared.WithinRoot(installDir, target) {
		return nil
	}
	return i.Filesystem.Remove(launcher)
}
