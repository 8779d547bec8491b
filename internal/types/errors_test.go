package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateFetchErrorReportsLastAttempt(t *testing.T) {
	cause := errors.New("connection refused")
	agg := &AggregateFetchError{Attempts: []*MirrorFetchError{
		{Mirror: "A", URL: "http://a/packages/pkg.json", Cause: cause},
		{Mirror: "B", URL: "http://b/packages/pkg.json", StatusCode: 404},
	}}

	assert.Equal(t, "package not found on mirror B (status=404 url=http://b/packages/pkg.json)", agg.Error())
	require.NotNil(t, agg.Last())
	assert.Equal(t, "B", agg.Last().Mirror)

	var fetch *MirrorFetchError
	require.True(t, errors.As(agg, &fetch))
	assert.Equal(t, "B", fetch.Mirror)
}

func TestAggregateFetchErrorEmpty(t *testing.T) {
	agg := &AggregateFetchError{}
	assert.Equal(t, "all mirrors failed", agg.Error())
	assert.Nil(t, agg.Last())
	assert.NoError(t, agg.Unwrap())
}

func TestMirrorFetchErrorTransportCause(t *testing.T) {
	cause := errors.New("timeout")
	err := &MirrorFetchError{Mirror: "A", URL: "http://a", Cause: cause}
	assert.Equal(t, "mirror A failed: timeout", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestStepErrorsNameTheStep(t *testing.T) {
	cause := errors.New("permission denied")
	fsErr := &FilesystemError{Step: StepCreateLauncher, Path: "/usr/local/bin/pkg", Cause: cause}
	assert.Equal(t, "failed to create launcher /usr/local/bin/pkg: permission denied", fsErr.Error())
	assert.ErrorIs(t, fsErr, cause)

	archiveErr := &ArchiveError{Step: StepExtractArchive, Path: "/tmp/pkg-1.0.tar.gz", Cause: cause}
	assert.Equal(t, "failed to extract archive /tmp/pkg-1.0.tar.gz: permission denied", archiveErr.Error())
}

func TestUserFacingMessages(t *testing.T) {
	assert.Equal(t, "no enabled mirrors found", (&NoMirrorsError{}).Error())
	assert.Equal(t, "package 'pkg' is not installed", (&NotInstalledError{Name: "pkg"}).Error())
	assert.Equal(t,
		"package installation requires root privileges, re-run with sudo",
		(&PermissionError{Op: "package installation"}).Error())
	assert.Contains(t, (&LockedError{Name: "pkg", Path: "/x/pkg.lock"}).Error(), "locked")

	cause := errors.New("toml: bad key")
	cfgErr := &ConfigError{Path: "/etc/apms/mirrors.conf", Cause: cause}
	assert.Contains(t, cfgErr.Error(), "/etc/apms/mirrors.conf")
	assert.ErrorIs(t, cfgErr, cause)
}

func TestLayoutPaths(t *testing.T) {
	layout := Layout{
		InstallRoot: "/opt/apms/packages",
		BinDir:      "/opt/bin",
		StagingRoot: "/home/u/.apms/packages",
		StateDir:    "/opt/apms",
	}
	assert.Equal(t, "/opt/apms/packages/pkg", layout.InstallDir("pkg"))
	assert.Equal(t, "/opt/bin/pkg", layout.LauncherPath("pkg"))
	assert.Equal(t, "/home/u/.apms/packages/pkg", layout.StagingDir("pkg"))
	assert.Equal(t, "/home/u/.apms/packages/pkg/pkg-1.0.tar.gz", layout.StagingPath("pkg", "1.0"))
	assert.Equal(t, "/opt/apms/registry.yaml", layout.RegistryPath())
	assert.Equal(t, "/opt/apms/locks", layout.LockDir())
}
