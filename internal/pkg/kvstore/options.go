package kvstore

import "time"

// Option configures a Store.
type Option func(*Store)

// WithLockTimeout bounds how long a single operation waits for a key's
// exclusive lock before failing with LockTimeoutError.
func WithLockTimeout(timeout time.Duration) Option {
	return func(s *Store) {
		s.lockTimeout = timeout
	}
}

// WithLockRetryInterval sets the polling interval for lock acquisition.
func WithLockRetryInterval(interval time.Duration) Option {
	return func(s *Store) {
		s.lockRetry = interval
	}
}
