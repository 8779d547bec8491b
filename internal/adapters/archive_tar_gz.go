package adapters

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/klauspost/compress/gzip"

	"apms/internal/ports"
	"apms/internal/shared"
)

// TarGzArchiveAdapter reads gzip-compressed tar archives.
type TarGzArchiveAdapter struct{}

func NewTarGzArchiveAdapter() TarGzArchiveAdapter {
	return TarGzArchiveAdapter{}
}

func (TarGzArchiveAdapter) Open(path string) (ports.Archive, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("failed to open package file").
			WithCause(err)
	}
	gz, err := gzip.NewReader(file)
	if err != nil {
		file.Close()
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("package file is not gzip compressed").
			WithCause(err)
	}
	return &tarGzArchive{file: file, gz: gz}, nil
}

type tarGzArchive struct {
	file *os.File
	gz   *gzip.Reader
}

func (a *tarGzArchive) Close() error {
	gzErr := a.gz.Close()
	fileErr := a.file.Close()
	return errors.Join(gzErr, fileErr)
}

func (a *tarGzArchive) ExtractTo(ctx context.Context, dest string) error {
	root, err := filepath.Abs(dest)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("invalid extraction directory").
			WithCause(err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return extractFailure("create extraction directory", root, err)
	}
	reader := tar.NewReader(a.gz)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		header, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if errors.Is(err, tar.ErrInsecurePath) && header != nil {
			return illegalPath(header.Name)
		}
		if err != nil {
			return extractFailure("read tar header", root, err)
		}
		target, err := entryPath(root, header.Name)
		if err != nil {
			return err
		}
		if err := extractEntry(root, target, header, reader); err != nil {
			return err
		}
	}
}

func extractEntry(root string, target string, header *tar.Header, reader io.Reader) error {
	mode := header.FileInfo().Mode().Perm()
	switch header.Typeflag {
	case tar.TypeDir:
		if err := os.MkdirAll(target, 0o755); err != nil {
			return extractFailure("create directory", target, err)
		}
		if mode != 0 {
			if err := os.Chmod(target, mode|0o700); err != nil {
				return extractFailure("set directory mode", target, err)
			}
		}
	case tar.TypeReg:
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return extractFailure("create parent directory", target, err)
		}
		if err := removeIfLink(target); err != nil {
			return extractFailure("replace file", target, err)
		}
		out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
		if err != nil {
			return extractFailure("create file", target, err)
		}
		if _, err := io.Copy(out, reader); err != nil {
			out.Close()
			return extractFailure("write file", target, err)
		}
		if err := out.Close(); err != nil {
			return extractFailure("write file", target, err)
		}
		if err := os.Chmod(target, mode); err != nil {
			return extractFailure("set file mode", target, err)
		}
	case tar.TypeSymlink:
		if err := checkLinkTarget(root, target, header.Linkname); err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return extractFailure("create parent directory", target, err)
		}
		if err := removeExisting(target); err != nil {
			return extractFailure("replace symlink", target, err)
		}
		if err := os.Symlink(header.Linkname, target); err != nil {
			return extractFailure("create symlink", target, err)
		}
	case tar.TypeLink:
		source, err := entryPath(root, header.Linkname)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return extractFailure("create parent directory", target, err)
		}
		if err := removeExisting(target); err != nil {
			return extractFailure("replace hard link", target, err)
		}
		if err := os.Link(source, target); err != nil {
			return extractFailure("create hard link", target, err)
		}
	default:
		// devices, fifos and pax metadata entries carry nothing to install
	}
	return nil
}

// entryPath joins name below root and rejects entries escaping it.
func entryPath(root string, name string) (string, error) {
	target := filepath.Join(root, name)
	if !shared.WithinRoot(root, target) {
		return "", illegalPath(name)
	}
	return target, nil
}

func illegalPath(name string) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(fmt.Sprintf("illegal file path in archive: %s", name))
}

func checkLinkTarget(root string, link string, linkname string) error {
	if filepath.IsAbs(linkname) {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("absolute symlink in archive: %s -> %s", link, linkname))
	}
	if !shared.WithinRoot(root, filepath.Join(filepath.Dir(link), linkname)) {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("symlink escapes install directory: %s -> %s", link, linkname))
	}
	return nil
}

func removeExisting(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func removeIfLink(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return os.Remove(path)
	}
	return nil
}

func extractFailure(action string, path string, err error) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg(fmt.Sprintf("failed to %s %s", action, path)).
		WithCause(err)
}

var _ ports.ArchivePort = TarGzArchiveAdapter{}
