package cache

import (
	"strconv"
	"strings"
	"time"
)

// Key suffixes used for every cached dataset.
const (
	PayloadSuffix = "_cache"
	TimeSuffix    = "_cache_time"
)

// Key identifies a cached dataset by name (e.g. "market_signals").
type Key struct {
	Name string
}

// normalized lower-cases the name and replaces separators so that
// "Market Signals" and "market-signals" share a key.
func (k Key) normalized() string {
	name := strings.ToLower(strings.TrimSpace(k.Name))
	return strings.NewReplacer(" ", "_", "-", "_", "/", "_").Replace(name)
}

// PayloadKey returns the key holding the JSON payload.
//
// Example:
//
//	Key{Name: "market_signals"}.PayloadKey() == "market_signals_cache"
func (k Key) PayloadKey() string {
	return k.normalized() + PayloadSuffix
}

// TimeKey returns the key holding the epoch-millisecond store time.
func (k Key) TimeKey() string {
	return k.normalized() + TimeSuffix
}

// String returns the payload key.
func (k Key) String() string {
	return k.PayloadKey()
}

// formatMillis renders t as epoch milliseconds.
func formatMillis(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

// parseMillis parses an epoch-millisecond string.
func parseMillis(s string) (time.Time, error) {
	ms, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(ms), nil
}
