package adapters

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v4/process"

	"apms/internal/ports"
	"apms/internal/types"
)

// StaleLockThreshold is the age after which a lock is replaced even if
// its owner still appears to be running.
const StaleLockThreshold = 10 * time.Minute

// LockFileAdapter implements per-package advisory locks as files created
// with O_EXCL under Dir.
type LockFileAdapter struct {
	Dir        string
	StaleAfter time.Duration
	// PidAlive reports whether the process recorded in a lock still runs.
	PidAlive func(ctx context.Context, pid int32) (bool, error)
	Now      func() time.Time
}

func NewLockFileAdapter(dir string) LockFileAdapter {
	return LockFileAdapter{
		Dir:        dir,
		StaleAfter: StaleLockThreshold,
		PidAlive:   process.PidExistsWithContext,
		Now:        time.Now,
	}
}

func (a LockFileAdapter) Acquire(ctx context.Context, name string) (ports.PackageLock, error) {
	if err := os.MkdirAll(a.Dir, 0o755); err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create lock directory").
			WithCause(err)
	}
	path := filepath.Join(a.Dir, name+".lock")
	token := uuid.NewString()
	lock, err := a.create(path, token)
	if err == nil {
		return lock, nil
	}
	if !errors.Is(err, fs.ErrExist) {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create lock file").
			WithCause(err)
	}
	staleToken, stale := a.staleToken(ctx, path)
	if !stale || !breakStaleLock(path, staleToken) {
		return nil, &types.LockedError{Name: name, Path: path}
	}
	log.Ctx(ctx).Warn().Msgf("Removed stale lock %s", path)
	lock, err = a.create(path, token)
	if err != nil {
		return nil, &types.LockedError{Name: name, Path: path}
	}
	return lock, nil
}

func (a LockFileAdapter) create(path string, token string) (*fileLock, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o600)
	if err != nil {
		return nil, err
	}
	content := fmt.Sprintf("pid=%d\ntimestamp=%s\ntoken=%s\n", os.Getpid(), a.now().UTC().Format(time.RFC3339), token)
	if _, err := file.WriteString(content); err != nil {
		file.Close()
		os.Remove(path)
		return nil, err
	}
	if err := file.Close(); err != nil {
		os.Remove(path)
		return nil, err
	}
	return &fileLock{path: path, token: token}, nil
}

// staleToken reports whether the lock at path may be replaced, together
// with the token it held when it was judged stale.
func (a LockFileAdapter) staleToken(ctx context.Context, path string) (string, bool) {
	info, err := os.Stat(path)
	if err != nil {
		// vanished in between, treat as free
		return "", true
	}
	threshold := a.StaleAfter
	if threshold <= 0 {
		threshold = StaleLockThreshold
	}
	fields, err := readLockFields(path)
	if err != nil {
		return "", false
	}
	token := fields["token"]
	if a.now().Sub(lockTimestamp(fields, info)) > threshold {
		return token, true
	}
	pid, err := strconv.ParseInt(fields["pid"], 10, 32)
	if err != nil || a.PidAlive == nil {
		return "", false
	}
	alive, err := a.PidAlive(ctx, int32(pid))
	if err != nil || alive {
		return "", false
	}
	return token, true
}

// breakStaleLock moves the lock at path aside and deletes it, provided it
// still carries staleToken. A lock another process created in the meantime
// is linked back into place and left to its owner.
func breakStaleLock(path string, staleToken string) bool {
	aside := fmt.Sprintf("%s.%s.stale", path, uuid.NewString())
	if err := os.Rename(path, aside); err != nil {
		return errors.Is(err, fs.ErrNotExist)
	}
	defer os.Remove(aside)
	fields, err := readLockFields(aside)
	if err != nil || fields["token"] != staleToken {
		_ = os.Link(aside, path)
		return false
	}
	return true
}

func (a LockFileAdapter) now() time.Time {
	if a.Now == nil {
		return time.Now()
	}
	return a.Now()
}

type fileLock struct {
	path  string
	token string
}

// Release removes the lock file unless another process has taken it over.
func (l *fileLock) Release() error {
	fields, err := readLockFields(l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	if fields["token"] != l.token {
		return nil
	}
	if err := os.Remove(l.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to remove lock file").
			WithCause(err)
	}
	return nil
}

func readLockFields(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	fields := map[string]string{}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), "=")
		if ok {
			fields[strings.TrimSpace(key)] = strings.TrimSpace(value)
		}
	}
	return fields, scanner.Err()
}

var _ ports.LockPort = LockFileAdapter{}
