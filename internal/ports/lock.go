package ports

import "context"

// LockPort serializes operations on the same package across processes.
type LockPort interface {
	// Acquire returns *types.LockedError when another live process holds
	// the lock.
	Acquire(ctx context.Context, name string) (PackageLock, error)
}

type PackageLock interface {
	Release() error
}
