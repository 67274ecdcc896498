package xtime

import "time"

func UTCNow() time.Time {
	return time.Now().UTC()
}

// NowFunc returns the current UTC time. Components that need deterministic
// time in tests take a func() time.Time field defaulting to UTCNow.
type NowFunc = func() time.Time
