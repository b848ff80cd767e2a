package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// Locker is implemented by backends shared between processes. A store holds
// the lock across its whole read-modify-write of a record.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

// LockRecord takes the record lock when backend supports one and returns a
// no-op unlock otherwise.
func LockRecord(ctx context.Context, backend Backend, key string) (func(), error) {
	locker, ok := backend.(Locker)
	if !ok {
		return func() {}, nil
	}
	return locker.Lock(ctx, key)
}

const lockRetryDelay = 20 * time.Millisecond

// Lock takes an advisory file lock next to the record so that a CLI command
// and the server never interleave their updates.
func (f *FileBackend) Lock(ctx context.Context, key string) (func(), error) {
	if _, err := f.path(key); err != nil {
		return nil, err
	}
	if err := ensureDir(f.Dir); err != nil {
		return nil, err
	}

	return LockFile(ctx, filepath.Join(f.Dir, "."+key+".lock"))
}

// LockFile takes an exclusive advisory lock on path, creating the file if
// needed, and retries until ctx ends. Every call opens its own handle, so
// two callers in the same process exclude each other too.
func LockFile(ctx context.Context, path string) (func(), error) {
	lock := flock.New(path)
	ok, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("failed to lock %s: %w", path, context.Cause(ctx))
	}
	return func() { _ = lock.Unlock() }, nil
}
