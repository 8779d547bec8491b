package adapters

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"

	"apms/internal/ports"
	"apms/internal/types"
)

const (
	DefaultSystemMirrorConfig = "/etc/apms/mirrors.conf"
	mirrorConfigRelPath       = "apms/mirrors.conf"
)

// DefaultUserMirrorConfig returns <user-config>/apms/mirrors.conf, or an
// empty string when the user config directory cannot be determined.
func DefaultUserMirrorConfig() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return ""
	}
	return filepath.Join(dir, mirrorConfigRelPath)
}

type MirrorConfigFileAdapter struct {
	UserPath   string
	SystemPath string
}

func NewMirrorConfigFileAdapter(userPath string, systemPath string) MirrorConfigFileAdapter {
	if systemPath == "" {
		systemPath = DefaultSystemMirrorConfig
	}
	return MirrorConfigFileAdapter{UserPath: userPath, SystemPath: systemPath}
}

func (a MirrorConfigFileAdapter) Load(ctx context.Context) (types.MirrorList, error) {
	if list, found, err := readMirrorConfig(a.UserPath, types.MirrorScopeUser); err != nil || found {
		logLoaded(ctx, list, err)
		return list, err
	}
	return a.LoadSystem(ctx)
}

func (a MirrorConfigFileAdapter) LoadSystem(ctx context.Context) (types.MirrorList, error) {
	list, found, err := readMirrorConfig(a.SystemPath, types.MirrorScopeSystem)
	if err != nil || found {
		logLoaded(ctx, list, err)
		return list, err
	}
	list = types.DefaultMirrorList()
	log.Ctx(ctx).Debug().Msg("no mirror config found, using built-in default")
	return list, nil
}

func (a MirrorConfigFileAdapter) Persist(ctx context.Context, list types.MirrorList) error {
	if a.SystemPath == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("system mirror config path is empty")
	}
	if list.Mirrors == nil {
		list.Mirrors = []types.Mirror{}
	}
	data, err := toml.Marshal(list)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to serialize mirror config").
			WithCause(err)
	}
	if err := writeFileAtomic(a.SystemPath, data, 0o644); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write system mirror config").
			WithCause(err)
	}
	log.Ctx(ctx).Debug().Str("path", a.SystemPath).Int("mirrors", len(list.Mirrors)).Msg("mirror config saved")
	return nil
}

// readMirrorConfig reports found=false for an empty path or a missing
// file. Any other read or parse failure is a *types.ConfigError.
func readMirrorConfig(path string, scope types.MirrorScope) (types.MirrorList, bool, error) {
	if path == "" {
		return types.MirrorList{}, false, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return types.MirrorList{}, false, nil
		}
		return types.MirrorList{}, true, &types.ConfigError{Path: path, Cause: err}
	}
	var list types.MirrorList
	if err := toml.Unmarshal(data, &list); err != nil {
		return types.MirrorList{}, true, &types.ConfigError{Path: path, Cause: err}
	}
	list.Source = scope
	list.Path = path
	return list, true, nil
}

func logLoaded(ctx context.Context, list types.MirrorList, err error) {
	if err != nil {
		return
	}
	log.Ctx(ctx).Debug().
		Str("path", list.Path).
		Str("scope", string(list.Source)).
		Int("mirrors", len(list.Mirrors)).
		Msg("mirror config loaded")
}

// writeFileAtomic writes data next to path and renames it into place.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tmpPath)
		}
	}()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return err
	}
	cleanup = false
	return nil
}

var _ ports.MirrorConfigPort = MirrorConfigFileAdapter{}
