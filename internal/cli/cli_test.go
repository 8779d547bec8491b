package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apms/internal/types"
)

// ---------- Command tree tests ----------

func TestRootCommandHasSubcommands(t *testing.T) {
	root := newRootCommand()
	names := make([]string, 0, len(root.Commands()))
	for _, cmd := range root.Commands() {
		names = append(names, cmd.Name())
	}
	for _, name := range []string{"install", "delete", "list", "mirrors"} {
		assert.Contains(t, names, name, "missing subcommand: %s", name)
	}
}

func TestRootCommandVersion(t *testing.T) {
	root := newRootCommand()
	assert.Equal(t, "dev", root.Version)
}

func TestMirrorsCommandHasSubcommands(t *testing.T) {
	cmd := newMirrorsCommand()
	names := make([]string, 0, len(cmd.Commands()))
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.ElementsMatch(t, []string{"list", "add", "remove", "enable", "disable"}, names)
}

func TestPackageCommandsTakeNoFlags(t *testing.T) {
	for _, cmd := range []*cobra.Command{newInstallCommand(), newDeleteCommand()} {
		assert.False(t, cmd.Flags().HasFlags(), "%s has flags", cmd.Name())
	}
}

func TestMirrorsAddCommandFlags(t *testing.T) {
	cmd := newMirrorsAddCommand()
	flag := cmd.Flags().Lookup("priority")
	require.NotNil(t, flag)
	assert.Equal(t, "100", flag.DefValue)
	assert.NotNil(t, cmd.Flags().Lookup("disabled"))
}

func TestDeleteCommandAlias(t *testing.T) {
	cmd := newDeleteCommand()
	assert.Contains(t, cmd.Aliases, "remove")
}

// ---------- Argument validation ----------

func TestExactlyOnePackage(t *testing.T) {
	require.NoError(t, exactlyOnePackage(nil, []string{"pkg"}))

	for _, args := range [][]string{nil, {"a", "b"}} {
		err := exactlyOnePackage(nil, args)
		require.Error(t, err)
		assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))
		assert.Equal(t, exitInvalidArgument, exitCodeForError(err))
	}
}

func TestInstallWithoutArgumentFails(t *testing.T) {
	sandboxEnv(t)
	root := newRootCommand()
	root.SetArgs([]string{"install"})
	root.SetOut(&bytes.Buffer{})

	err := root.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Equal(t, exitInvalidArgument, exitCodeForError(err))
}

// ---------- Logging ----------

func TestFormatLevel(t *testing.T) {
	assert.Equal(t, "[INFO]", formatLevel("info"))
	assert.Equal(t, "[WARNING]", formatLevel("warn"))
	assert.Equal(t, "[ERROR]", formatLevel("error"))
	assert.Equal(t, "[DEBUG]", formatLevel("debug"))
	assert.Equal(t, "[INFO]", formatLevel(nil))
}

func TestConsoleWriterOutput(t *testing.T) {
	var buf bytes.Buffer
	writer := newConsoleWriter(&buf)
	_, err := writer.Write([]byte(`{"level":"warn","message":"Cleanup failed: boom"}` + "\n"))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "[WARNING] Cleanup failed: boom")
}

// ---------- Exit code tests ----------

func TestExitCodeForError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{
			name:     "permission",
			err:      &types.PermissionError{Op: "package installation"},
			expected: exitPermission,
		},
		{
			name:     "bad mirror config",
			err:      &types.ConfigError{Path: "/etc/apms/mirrors.conf", Cause: assert.AnError},
			expected: exitInvalidArgument,
		},
		{
			name:     "no mirrors",
			err:      &types.NoMirrorsError{},
			expected: exitMirrors,
		},
		{
			name: "all mirrors failed",
			err: &types.AggregateFetchError{Attempts: []*types.MirrorFetchError{
				{Mirror: "m1", URL: "http://m1/packages/pkg.json", StatusCode: 404},
			}},
			expected: exitMirrors,
		},
		{
			name:     "bad metadata",
			err:      &types.MetadataError{Mirror: "m1", Cause: assert.AnError},
			expected: exitMirrors,
		},
		{
			name:     "archive",
			err:      &types.ArchiveError{Step: types.StepExtractArchive, Path: "/tmp/pkg.tar.gz", Cause: assert.AnError},
			expected: exitInstallFailed,
		},
		{
			name:     "filesystem",
			err:      &types.FilesystemError{Step: types.StepCreateLauncher, Path: "/usr/local/bin/pkg", Cause: assert.AnError},
			expected: exitInstallFailed,
		},
		{
			name:     "filesystem during delete",
			err:      &types.FilesystemError{Step: types.StepRemoveInstallDir, Path: "/usr/local/lib/apms/pkg", Cause: assert.AnError},
			expected: exitGeneric,
		},
		{
			name:     "not installed",
			err:      &types.NotInstalledError{Name: "pkg"},
			expected: exitNotInstalled,
		},
		{
			name:     "locked",
			err:      &types.LockedError{Name: "pkg"},
			expected: exitLocked,
		},
		{
			name: "invalid argument",
			err: errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("bad input"),
			expected: exitInvalidArgument,
		},
		{
			name: "already exists",
			err: errbuilder.New().
				WithCode(errbuilder.CodeAlreadyExists).
				WithMsg("dup"),
			expected: exitInvalidArgument,
		},
		{
			name: "permission denied",
			err: errbuilder.New().
				WithCode(errbuilder.CodePermissionDenied).
				WithMsg("nope"),
			expected: exitPermission,
		},
		{
			name: "mirror not found",
			err: errbuilder.New().
				WithCode(errbuilder.CodeNotFound).
				WithMsg(`mirror "x" not found`),
			expected: exitNotInstalled,
		},
		{
			name: "internal error",
			err: errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("boom"),
			expected: exitGeneric,
		},
		{
			name:     "unknown error",
			err:      assert.AnError,
			expected: exitGeneric,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, exitCodeForError(tt.err))
		})
	}
}

// ---------- Command execution ----------

// sandboxEnv points every configurable path at a temp directory.
func sandboxEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("APMS_INSTALL_ROOT", filepath.Join(dir, "packages"))
	t.Setenv("APMS_BIN_DIR", filepath.Join(dir, "bin"))
	t.Setenv("APMS_STAGING_ROOT", filepath.Join(dir, "staging"))
	t.Setenv("APMS_STATE_DIR", filepath.Join(dir, "state"))
	t.Setenv("APMS_MIRRORS_USER_CONFIG", filepath.Join(dir, "user", "mirrors.conf"))
	t.Setenv("APMS_MIRRORS_SYSTEM_CONFIG", filepath.Join(dir, "system", "mirrors.conf"))
	t.Setenv("APMS_REQUIRE_ROOT", "false")
	t.Cleanup(func() { setupLogging(os.Stdout, "info") })
	return dir
}

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCommand()
	root.SetArgs(args)
	root.SetOut(&out)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestListCommandEmpty(t *testing.T) {
	sandboxEnv(t)
	out, err := runRoot(t, "list")
	require.NoError(t, err)
	assert.Equal(t, "no packages installed\n", out)
}

func TestMirrorsListUsesUserConfig(t *testing.T) {
	dir := sandboxEnv(t)
	userConfig := filepath.Join(dir, "user", "mirrors.conf")
	require.NoError(t, os.MkdirAll(filepath.Dir(userConfig), 0o755))
	require.NoError(t, os.WriteFile(userConfig, []byte(`
[[mirrors]]
name = "A"
url = "http://a"
priority = 50
enabled = true

[[mirrors]]
name = "B"
url = "http://b"
priority = 90
enabled = true

[[mirrors]]
name = "C"
url = "http://c"
priority = 100
enabled = false
`), 0o644))

	out, err := runRoot(t, "mirrors", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "mirrors (user "+userConfig+"):")
	assert.Contains(t, out, "1. B http://b (priority 90)")
	assert.Contains(t, out, "2. A http://a (priority 50)")
	assert.Contains(t, out, "C http://c (priority 100, disabled)")
}

func TestMirrorsAddPersistsSystemConfig(t *testing.T) {
	dir := sandboxEnv(t)
	out, err := runRoot(t, "mirrors", "add", "Primary", "http://primary.example/", "--priority", "200")
	require.NoError(t, err)
	assert.Contains(t, out, "1. Primary http://primary.example (priority 200)")

	data, err := os.ReadFile(filepath.Join(dir, "system", "mirrors.conf"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Primary")
	assert.Contains(t, string(data), types.DefaultMirrorName)
}

func TestMirrorsRemoveUnknownFails(t *testing.T) {
	sandboxEnv(t)
	_, err := runRoot(t, "mirrors", "remove", "missing")
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeNotFound, errbuilder.CodeOf(err))
}

func TestDeleteNotInstalled(t *testing.T) {
	sandboxEnv(t)
	_, err := runRoot(t, "delete", "ghost")
	require.Error(t, err)
	assert.Equal(t, exitNotInstalled, exitCodeForError(err))
}
