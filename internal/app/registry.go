package app

import (
	"context"
	"errors"
	"time"

	"apms/internal/ports"
	"apms/internal/types"
)

// The registry lock name starts with a dot, which no valid package name
// does, so it never collides with a package lock.
const (
	registryLockName = ".registry"
	registryLockWait = 10 * time.Second
	registryLockPoll = 25 * time.Millisecond
)

// updateRegistry runs update while holding the registry-wide lock. Package
// locks only serialize operations on one name, while every install and
// delete rewrites the same registry file.
func (s Service) updateRegistry(ctx context.Context, update func(ports.RegistryPort) error) error {
	lock, err := s.acquireRegistryLock(ctx)
	if err != nil {
		return err
	}
	defer s.release(ctx, lock)
	return update(s.Registry)
}

func (s Service) acquireRegistryLock(ctx context.Context) (ports.PackageLock, error) {
	ctx, cancel := context.WithTimeout(ctx, registryLockWait)
	defer cancel()
	ticker := time.NewTicker(registryLockPoll)
	defer ticker.Stop()
	for {
		lock, err := s.Locks.Acquire(ctx, registryLockName)
		var locked *types.LockedError
		if err == nil || !errors.As(err, &locked) {
			return lock, err
		}
		select {
		case <-ctx.Done():
			return nil, err
		case <-ticker.C:
		}
	}
}
