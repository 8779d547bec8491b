package integration

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apms/internal/app"
	"apms/internal/types"
	"apms/tests/testutil"
)

func newService(t *testing.T, mirrors ...types.Mirror) (app.Service, types.Layout) {
	t.Helper()
	layout := testutil.TempLayout(t)
	dir := t.TempDir()
	userConfig := filepath.Join(dir, "mirrors.conf")
	testutil.WriteMirrorConfig(t, userConfig, mirrors...)
	service := app.NewService(app.Config{
		Layout:             layout,
		UserMirrorConfig:   userConfig,
		SystemMirrorConfig: filepath.Join(dir, "system.conf"),
		HTTPTimeout:        5 * time.Second,
		UserAgent:          "apms/integration",
	})
	return service, layout
}

func samplePackage(t *testing.T, name string, version string) testutil.MirrorPackage {
	t.Helper()
	return testutil.MirrorPackage{
		Metadata: types.PackageMetadata{
			Name:        name,
			Version:     version,
			DownloadURL: "/archives/" + types.ArchiveFileName(name, version),
		},
		Archive: testutil.TarGz(t,
			testutil.ArchiveEntry{Name: "bin/"},
			testutil.ArchiveEntry{Name: "bin/" + name, Body: "#!/bin/sh\necho " + name + " " + version + "\n"},
			testutil.ArchiveEntry{Name: "lib/data.txt", Body: version, Mode: 0o644},
		),
	}
}

func TestInstallAndDeleteAcrossMirrors(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(down.Close)
	primary := testutil.NewMirrorServer(t, samplePackage(t, "alpha", "1.2.0"))
	secondary := testutil.NewMirrorServer(t, samplePackage(t, "alpha", "0.9.0"), samplePackage(t, "beta", "3.1"))

	service, layout := newService(t,
		types.Mirror{Name: "down", URL: down.URL, Priority: 250, Enabled: true},
		types.Mirror{Name: "primary", URL: primary.URL, Priority: 200, Enabled: true},
		types.Mirror{Name: "secondary", URL: secondary.URL, Priority: 100, Enabled: true},
	)
	ctx := context.Background()

	alpha, err := service.Install(ctx, app.InstallRequest{Name: "alpha"})
	require.NoError(t, err)
	assert.Equal(t, "1.2.0", alpha.Package.Version)
	assert.Equal(t, "primary", alpha.Package.Mirror)
	assert.Empty(t, secondary.Requests(), "secondary must not be contacted once primary answered")

	beta, err := service.Install(ctx, app.InstallRequest{Name: "beta"})
	require.NoError(t, err)
	assert.Equal(t, "secondary", beta.Package.Mirror)

	for _, name := range []string{"alpha", "beta"} {
		target, err := os.Readlink(layout.LauncherPath(name))
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(layout.InstallDir(name), "bin", name), target)
	}

	listed, err := service.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed.Packages, 2)
	assert.Equal(t, "alpha", listed.Packages[0].Name)
	assert.Equal(t, "beta", listed.Packages[1].Name)

	_, err = service.Delete(ctx, app.DeleteRequest{Name: "alpha"})
	require.NoError(t, err)
	assert.NoDirExists(t, layout.InstallDir("alpha"))
	assert.DirExists(t, layout.InstallDir("beta"))

	_, err = service.Delete(ctx, app.DeleteRequest{Name: "alpha"})
	var notInstalled *types.NotInstalledError
	require.ErrorAs(t, err, &notInstalled)
}

func TestInstallFollowsRedirects(t *testing.T) {
	mirror := testutil.NewMirrorServer(t, samplePackage(t, "gamma", "1.0"))
	redirector := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, mirror.URL+r.URL.Path, http.StatusFound)
	}))
	t.Cleanup(redirector.Close)
	service, layout := newService(t, types.Mirror{Name: "redirect", URL: redirector.URL, Priority: 1, Enabled: true})

	result, err := service.Install(context.Background(), app.InstallRequest{Name: "gamma"})
	require.NoError(t, err)
	assert.Equal(t, "redirect", result.Package.Mirror)
	assert.FileExists(t, filepath.Join(layout.InstallDir("gamma"), "lib", "data.txt"))
}

func TestConcurrentInstallsOfSamePackage(t *testing.T) {
	mirror := testutil.NewMirrorServer(t, samplePackage(t, "delta", "1.0"))
	service, layout := newService(t, types.Mirror{Name: "m", URL: mirror.URL, Priority: 1, Enabled: true})

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = service.Install(context.Background(), app.InstallRequest{Name: "delta"})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		var locked *types.LockedError
		assert.ErrorAs(t, err, &locked)
	}
	assert.GreaterOrEqual(t, succeeded, 1)
	target, err := os.Readlink(layout.LauncherPath("delta"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(layout.InstallDir("delta"), "bin", "delta"), target)
}

func TestConcurrentInstallsOfDifferentPackages(t *testing.T) {
	names := []string{"eta", "theta", "iota", "kappa"}
	packages := make([]testutil.MirrorPackage, 0, len(names))
	for _, name := range names {
		packages = append(packages, samplePackage(t, name, "1.0"))
	}
	mirror := testutil.NewMirrorServer(t, packages...)
	service, layout := newService(t, types.Mirror{Name: "m", URL: mirror.URL, Priority: 1, Enabled: true})

	var wg sync.WaitGroup
	errs := make([]error, len(names))
	for i, name := range names {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			_, errs[i] = service.Install(context.Background(), app.InstallRequest{Name: name})
		}(i, name)
	}
	wg.Wait()
	for i, err := range errs {
		require.NoError(t, err, names[i])
	}

	listed, err := service.List(context.Background())
	require.NoError(t, err)
	installed := make([]string, 0, len(listed.Packages))
	for _, pkg := range listed.Packages {
		installed = append(installed, pkg.Name)
	}
	assert.ElementsMatch(t, names, installed)
	assert.NoFileExists(t, filepath.Join(layout.LockDir(), ".registry.lock"))
}
