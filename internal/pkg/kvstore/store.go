// Package kvstore implements a filesystem key-value store shared by any
// number of goroutines and OS processes pointed at the same root directory.
// Every key maps to one file; writes go through a temp file plus rename, so a
// reader observes either the previous value or the new one, never a mix.
// Read-modify-write cycles are serialized by a per-key lock file, giving
// process-level mutual exclusion on top of the in-process one.
package kvstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"github.com/clipforge/clipforge/internal/log"
)

const (
	defaultLockTimeout = 5 * time.Second
	defaultLockRetry   = 25 * time.Millisecond

	lockSuffix = ".lock"
	tmpPattern = ".tmp-*"
)

// Store is a durable key-value store rooted at a directory.
type Store struct {
	root        string
	lockTimeout time.Duration
	lockRetry   time.Duration
	closed      atomic.Bool
}

// Open prepares a store rooted at dir, creating the directory tree on first
// use. The returned store must be closed when the application shuts down.
func Open(dir string, opts ...Option) (*Store, error) {
	if dir == "" {
		return nil, errors.New("kvstore: root directory is required")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("kvstore: create root directory: %w", err)
	}

	s := &Store{
		root:        dir,
		lockTimeout: defaultLockTimeout,
		lockRetry:   defaultLockRetry,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Root returns the root directory of the store.
func (s *Store) Root() string {
	return s.root
}

// Close marks the store closed. Mutating operations fail afterwards; there
// are no background resources to release, locks are scoped to operations.
func (s *Store) Close() error {
	s.closed.Store(true)
	return nil
}

// Get returns the stored bytes for key. The second return is false when the
// key was never written, was deleted, or its bytes are unreadable; unreadable
// entries are reported as absent rather than as an error, the next Put simply
// overwrites them.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := validateKey(key); err != nil {
		return nil, false, err
	}

	value, ok := s.read(ctx, key)

	return value, ok, nil
}

// Put atomically writes value under key. A concurrent Get observes either the
// previous value or the new one.
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}

	if s.closed.Load() {
		return ErrClosed
	}

	release, err := s.acquireLock(ctx, key)
	if err != nil {
		return err
	}
	defer release()

	return s.write(key, value)
}

// Update runs an atomic read-modify-write for key. fn receives the current
// value (ok is false when absent) and returns the bytes to store. Concurrent
// Update calls on the same key are serialized across goroutines and
// processes, so counters built on Update never lose increments.
func (s *Store) Update(ctx context.Context, key string, fn func(cur []byte, ok bool) ([]byte, error)) error {
	if err := validateKey(key); err != nil {
		return err
	}

	if s.closed.Load() {
		return ErrClosed
	}

	release, err := s.acquireLock(ctx, key)
	if err != nil {
		return err
	}
	defer release()

	cur, ok := s.read(ctx, key)

	next, err := fn(cur, ok)
	if err != nil {
		return err
	}

	return s.write(key, next)
}

// Delete removes the entry for key. Deleting an absent key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	if s.closed.Load() {
		return ErrClosed
	}

	release, err := s.acquireLock(ctx, key)
	if err != nil {
		return err
	}
	defer release()

	err = os.Remove(s.dataPath(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("kvstore: delete key %q: %w", key, err)
	}

	return nil
}

// Keys lists all keys currently present, in directory order. Lock files and
// in-flight temp files are excluded.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("kvstore: list keys: %w", err)
	}

	keys := make([]string, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if strings.HasSuffix(name, lockSuffix) || strings.Contains(name, ".tmp-") {
			continue
		}

		keys = append(keys, name)
	}

	log.Debug(ctx, "listed store keys", log.String("root", s.root), log.Int("count", len(keys)))

	return keys, nil
}

func (s *Store) read(ctx context.Context, key string) ([]byte, bool) {
	value, err := os.ReadFile(s.dataPath(key))
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn(ctx, "unreadable store entry treated as absent",
				log.String("key", key),
				log.Cause(err))
		}

		return nil, false
	}

	return value, true
}

// write lands value at the key's path via temp file plus rename. The caller
// must hold the key's lock.
func (s *Store) write(key string, value []byte) error {
	tmp, err := os.CreateTemp(s.root, key+tmpPattern)
	if err != nil {
		return fmt.Errorf("kvstore: create temp file for key %q: %w", key, err)
	}

	tmpName := tmp.Name()

	_, err = tmp.Write(value)
	if err == nil {
		err = tmp.Sync()
	}

	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("kvstore: write key %q: %w", key, err)
	}

	if err := os.Rename(tmpName, s.dataPath(key)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("kvstore: commit key %q: %w", key, err)
	}

	return nil
}

// acquireLock takes the exclusive cross-process lock for key, polling at the
// configured interval up to the lock timeout or the caller's deadline,
// whichever ends first.
func (s *Store) acquireLock(ctx context.Context, key string) (func(), error) {
	fl := flock.New(s.lockPath(key))

	lockCtx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()

	start := time.Now()

	locked, err := fl.TryLockContext(lockCtx, s.lockRetry)
	if err != nil || !locked {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if err == nil || errors.Is(err, context.DeadlineExceeded) {
			return nil, &LockTimeoutError{Key: key, Timeout: s.lockTimeout}
		}

		return nil, fmt.Errorf("kvstore: acquire lock for key %q: %w", key, err)
	}

	if waited := time.Since(start); waited > s.lockRetry {
		log.Debug(ctx, "waited for store lock",
			log.String("key", key),
			log.Duration("waited", waited))
	}

	return func() {
		if err := fl.Unlock(); err != nil {
			log.Warn(ctx, "failed to release store lock",
				log.String("key", key),
				log.Cause(err))
		}
	}, nil
}

func (s *Store) dataPath(key string) string {
	return filepath.Join(s.root, key)
}

func (s *Store) lockPath(key string) string {
	return filepath.Join(s.root, key+lockSuffix)
}

// validateKey rejects keys that would escape the root directory or collide
// with the store's own lock and temp files. Cache keys are hex digests, so
// legitimate callers never hit these cases.
func validateKey(key string) error {
	switch {
	case key == "" || key == "." || key == "..":
		return fmt.Errorf("kvstore: invalid key %q", key)
	case strings.ContainsAny(key, `/\`):
		return fmt.Errorf("kvstore: key %q must not contain path separators", key)
	case strings.HasSuffix(key, lockSuffix):
		return fmt.Errorf("kvstore: key %q collides with lock files", key)
	case strings.Contains(key, ".tmp-"):
		return fmt.Errorf("kvstore: key %q collides with temp files", key)
	}

	return nil
}
