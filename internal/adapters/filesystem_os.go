package adapters

import (
	"errors"
	"io/fs"
	"os"

	"apms/internal/ports"
)

type OSFilesystemAdapter struct{}

func NewOSFilesystemAdapter() OSFilesystemAdapter {
	return OSFilesystemAdapter{}
}

func (OSFilesystemAdapter) MkdirAll(path string) error {
	return os.MkdirAll(path, 0o755)
}

func (OSFilesystemAdapter) Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (OSFilesystemAdapter) RemoveAll(path string) error {
	return os.RemoveAll(path)
}

func (OSFilesystemAdapter) Exists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func (OSFilesystemAdapter) IsSymlink(path string) (bool, error) {
	info, err := os.Lstat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return info.Mode()&os.ModeSymlink != 0, nil
}

func (OSFilesystemAdapter) Readlink(path string) (string, error) {
	return os.Readlink(path)
}

func (OSFilesystemAdapter) Symlink(target string, link string) error {
	return os.Symlink(target, link)
}

func (OSFilesystemAdapter) Rename(from string, to string) error {
	return os.Rename(from, to)
}

var _ ports.FilesystemPort = OSFilesystemAdapter{}
