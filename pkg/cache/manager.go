package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/seafoodai/seafood-terminal/pkg/dataset"
	"github.com/seafoodai/seafood-terminal/pkg/logging"
	"github.com/seafoodai/seafood-terminal/pkg/storage"
)

var (
	// ErrCacheMiss indicates the requested dataset is not cached
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates the cache entry is invalid or corrupted
	ErrInvalidEntry = errors.New("invalid cache entry")
)

// Manager reads and writes cached datasets in a storage.Store.
type Manager struct {
	store  storage.Store
	logger zerolog.Logger
}

// NewManager creates a cache manager over store.
func NewManager(store storage.Store) *Manager {
	if store == nil {
		panic("store cannot be nil")
	}
	return &Manager{
		store:  store,
		logger: logging.NewLogger(logging.ComponentCache),
	}
}

// WithLogger returns a copy of the manager logging to logger.
func (m *Manager) WithLogger(logger zerolog.Logger) *Manager {
	return &Manager{store: m.store, logger: logger}
}

// Get retrieves the cached entry for name regardless of age.
// Returns ErrCacheMiss if either key is absent and ErrInvalidEntry if the
// stored values cannot be decoded.
func (m *Manager) Get(ctx context.Context, name string) (*Entry, error) {
	key := Key{Name: name}

	payload, err := m.store.Get(ctx, key.PayloadKey())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrCacheMiss
		}
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("read payload: %w", err)
	}

	storedAtStr, err := m.store.Get(ctx, key.TimeKey())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrCacheMiss
		}
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("read store time: %w", err)
	}

	storedAt, err := parseMillis(storedAtStr)
	if err != nil {
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("%w: store time: %v", ErrInvalidEntry, err)
	}

	var records []dataset.Record
	if err := json.Unmarshal([]byte(payload), &records); err != nil {
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}
	if records == nil {
		// "null" is not a dataset
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("%w: null payload", ErrInvalidEntry)
	}

	return &Entry{
		Payload:  dataset.New(name, records, storedAt),
		StoredAt: storedAt,
	}, nil
}

// Set writes the entry's payload and store time as one unit.
func (m *Manager) Set(ctx context.Context, name string, entry *Entry) error {
	if entry == nil {
		return fmt.Errorf("cache entry cannot be nil")
	}

	records := entry.Payload.Records
	if records == nil {
		records = []dataset.Record{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("marshal cache payload: %w", err)
	}

	key := Key{Name: name}
	err = m.store.SetMany(ctx, map[string]string{
		key.PayloadKey(): string(data),
		key.TimeKey():    formatMillis(entry.StoredAt),
	})
	if err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("write cache entry: %w", err)
	}

	CacheWrites.WithLabelValues(name).Inc()
	CachePayloadBytes.WithLabelValues(name).Set(float64(len(data)))
	return nil
}

// Delete removes both keys of a cached dataset.
func (m *Manager) Delete(ctx context.Context, name string) error {
	key := Key{Name: name}
	for _, k := range []string{key.PayloadKey(), key.TimeKey()} {
		if err := m.store.Remove(ctx, k); err != nil {
			CacheErrors.WithLabelValues("delete").Inc()
			return fmt.Errorf("remove %s: %w", k, err)
		}
	}
	return nil
}

// Lookup returns the cached entry for name when it is younger than ttl.
// It never fails: storage errors and corrupted entries count as a miss.
func (m *Manager) Lookup(ctx context.Context, name string, ttl time.Duration, now time.Time) (*Entry, bool) {
	entry, err := m.Get(ctx, name)
	if err != nil {
		CacheMisses.WithLabelValues(name).Inc()
		if !errors.Is(err, ErrCacheMiss) {
			m.logger.Warn().Err(err).Str("dataset", name).Msg("Cache read failed, treating as miss")
		} else {
			m.logger.Debug().Str("dataset", name).Bool("cache_hit", false).Msg("Cache miss")
		}
		return nil, false
	}

	if !entry.IsFresh(now, ttl) {
		CacheExpired.WithLabelValues(name).Inc()
		CacheMisses.WithLabelValues(name).Inc()
		m.logger.Debug().
			Str("dataset", name).
			Dur("age", entry.Age(now)).
			Dur("ttl", ttl).
			Msg("Cache entry stale")
		return nil, false
	}

	CacheHits.WithLabelValues(name).Inc()
	m.logger.Debug().
		Str("dataset", name).
		Bool("cache_hit", true).
		Int("records", entry.Payload.Len()).
		Dur("ttl", entry.TTL(now, ttl)).
		Msg("Cache hit")
	return entry, true
}

// Save stores ds as the cached copy of name, stamped with now.
// Failures are logged and reported as false, never returned.
func (m *Manager) Save(ctx context.Context, name string, ds dataset.Dataset, now time.Time) bool {
	if err := m.Set(ctx, name, &Entry{Payload: ds, StoredAt: now}); err != nil {
		m.logger.Warn().Err(err).Str("dataset", name).Msg("Cache write failed")
		return false
	}
	m.logger.Debug().Str("dataset", name).Int("records", ds.Len()).Msg("Cached dataset")
	return true
}
