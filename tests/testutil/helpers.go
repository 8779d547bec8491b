// Package testutil provides shared test helpers used across integration,
// e2e, and unit test packages.
package testutil

import (
	"archive/tar"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/require"

	"apms/internal/types"
)

// RepoRoot returns the absolute path to the repository root by walking
// up from the current working directory. It fails the test if the
// working directory cannot be determined.
func RepoRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	require.NoError(t, err)
	return filepath.Clean(filepath.Join(dir, "..", ".."))
}

// ArchiveEntry is one member of a test archive. A non-empty Link makes
// it a symlink; a trailing slash in Name makes it a directory.
type ArchiveEntry struct {
	Name string
	Body string
	Mode int64
	Link string
}

// TarGz builds a gzip-compressed tarball from entries.
func TarGz(t *testing.T, entries ...ArchiveEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for _, entry := range entries {
		header := &tar.Header{Name: entry.Name, Mode: entry.Mode}
		switch {
		case entry.Link != "":
			header.Typeflag = tar.TypeSymlink
			header.Linkname = entry.Link
		case strings.HasSuffix(entry.Name, "/"):
			header.Typeflag = tar.TypeDir
		default:
			header.Typeflag = tar.TypeReg
			header.Size = int64(len(entry.Body))
		}
		if header.Mode == 0 {
			header.Mode = 0o755
		}
		require.NoError(t, tw.WriteHeader(header))
		if header.Typeflag == tar.TypeReg {
			_, err := tw.Write([]byte(entry.Body))
			require.NoError(t, err)
		}
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

// WriteTarGz writes a tarball built from entries to path.
func WriteTarGz(t *testing.T, path string, entries ...ArchiveEntry) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, TarGz(t, entries...), 0o644))
	return path
}

// TempLayout returns a layout rooted in a fresh temp directory.
func TempLayout(t *testing.T) types.Layout {
	t.Helper()
	root := t.TempDir()
	return types.Layout{
		InstallRoot: filepath.Join(root, "lib", "packages"),
		BinDir:      filepath.Join(root, "bin"),
		StagingRoot: filepath.Join(root, "staging"),
		StateDir:    filepath.Join(root, "lib"),
	}
}

// MirrorPackage is a package served by a MirrorServer.
type MirrorPackage struct {
	Metadata types.PackageMetadata
	Archive  []byte
}

// MirrorServer is an httptest mirror serving /packages/<name>.json and
// the archives the metadata points at.
type MirrorServer struct {
	*httptest.Server

	mu       sync.Mutex
	requests []string
	agents   []string
}

// NewMirrorServer starts a mirror serving packages. Archives are served
// at the path of each package's relative download URL.
func NewMirrorServer(t *testing.T, packages ...MirrorPackage) *MirrorServer {
	t.Helper()
	routes := map[string][]byte{}
	archives := map[string][]byte{}
	for _, pkg := range packages {
		body, err := json.Marshal(pkg.Metadata)
		require.NoError(t, err)
		routes["/packages/"+pkg.Metadata.Name+".json"] = body
		if pkg.Archive != nil {
			archives["/"+strings.TrimLeft(pkg.Metadata.DownloadURL, "/")] = pkg.Archive
		}
	}
	mirror := &MirrorServer{}
	mirror.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mirror.mu.Lock()
		mirror.requests = append(mirror.requests, r.URL.Path)
		mirror.agents = append(mirror.agents, r.UserAgent())
		mirror.mu.Unlock()
		if body, ok := routes[r.URL.Path]; ok {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write(body)
			return
		}
		if body, ok := archives[r.URL.Path]; ok {
			w.Header().Set("Content-Type", "application/gzip")
			_, _ = w.Write(body)
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(mirror.Close)
	return mirror
}

// Requests returns the request paths seen so far.
func (m *MirrorServer) Requests() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.requests...)
}

// UserAgents returns the User-Agent headers seen so far.
func (m *MirrorServer) UserAgents() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.agents...)
}

// WriteMirrorConfig writes a TOML mirror config listing mirrors.
func WriteMirrorConfig(t *testing.T, path string, mirrors ...types.Mirror) string {
	t.Helper()
	data, err := toml.Marshal(types.MirrorList{Mirrors: mirrors})
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}
