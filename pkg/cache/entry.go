package cache

import (
	"time"

	"github.com/seafoodai/seafood-terminal/pkg/dataset"
)

// Entry is a persisted copy of a dataset.
type Entry struct {
	// Payload is the cached dataset
	Payload dataset.Dataset

	// StoredAt is when the payload was written
	StoredAt time.Time
}

// Age returns how long ago the entry was stored.
func (e *Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.StoredAt)
}

// IsFresh reports whether now - StoredAt < ttl.
func (e *Entry) IsFresh(now time.Time, ttl time.Duration) bool {
	return e.Age(now) < ttl
}

// TTL returns the time until the entry goes stale.
// Returns 0 if already stale.
func (e *Entry) TTL(now time.Time, ttl time.Duration) time.Duration {
	remaining := ttl - e.Age(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}
