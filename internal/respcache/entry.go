package respcache

import (
	"time"
)

// Entry is the durable envelope stored per cache key. Unknown fields in a
// stored entry are ignored on read so older binaries can read entries
// written by newer ones.
type Entry struct {
	Key        string    `json:"key"`
	Value      []byte    `json:"value"`
	CreatedAt  time.Time `json:"created_at"`
	TTLSeconds int64     `json:"ttl_seconds"`
	Provider   string    `json:"provider,omitempty"`
	Model      string    `json:"model,omitempty"`
}

// ExpiresAt returns the expiry time and whether the entry expires at all.
// A non-positive TTL means the entry never expires.
func (e Entry) ExpiresAt() (time.Time, bool) {
	if e.TTLSeconds <= 0 {
		return time.Time{}, false
	}

	return e.CreatedAt.Add(time.Duration(e.TTLSeconds) * time.Second), true
}

// Expired reports whether the entry is past its expiry at the given time.
func (e Entry) Expired(now time.Time) bool {
	expiresAt, ok := e.ExpiresAt()
	if !ok {
		return false
	}

	return !now.Before(expiresAt)
}
