package kvstore

import (
	"errors"
	"fmt"
	"time"
)

// ErrClosed is returned by mutating operations after Close.
var ErrClosed = errors.New("kvstore: store is closed")

// LockTimeoutError is returned when the exclusive lock for a key could not be
// acquired within the configured timeout. It is the only failure mode the
// store surfaces to callers; everything else degrades to "absent".
type LockTimeoutError struct {
	Key     string        `json:"key"`
	Timeout time.Duration `json:"timeout"`
}

func (e *LockTimeoutError) Error() string {
	return fmt.Sprintf("kvstore: timed out acquiring lock for key %q after %s", e.Key, e.Timeout)
}

// IsLockTimeout reports whether err is a lock acquisition timeout.
func IsLockTimeout(err error) bool {
	var e *LockTimeoutError
	return errors.As(err, &e)
}
