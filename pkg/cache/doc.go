// Package cache persists whole datasets in a storage.Store with a
// time-to-live, the read-through memo behind every dashboard widget.
//
// Each dataset occupies two keys:
//
//   - <name>_cache: the JSON-serialized records
//   - <name>_cache_time: the epoch-millisecond time the records were stored
//
// Both keys are written together with Store.SetMany after a complete,
// successful fetch, so a reader never sees a payload paired with another
// payload's timestamp.
//
// # Basic Usage
//
//	manager := cache.NewManager(storage.NewMemoryStore())
//
//	entry, ok := manager.Lookup(ctx, "market_signals", 10*time.Minute, time.Now())
//	if !ok {
//		// miss, expired or unreadable - fetch from the API
//	}
//
//	manager.Save(ctx, "market_signals", ds, time.Now())
//
// Lookup and Save never return errors: storage failures and corrupted
// payloads are logged and counted, then treated as a miss. Get and Set
// expose the underlying errors for callers that want them.
//
// # Metrics
//
//   - seafood_cache_hits_total{dataset}
//   - seafood_cache_misses_total{dataset}
//   - seafood_cache_expired_total{dataset}
//   - seafood_cache_writes_total{dataset}
//   - seafood_cache_payload_bytes{dataset}
//   - seafood_cache_errors_total{operation}
package cache
