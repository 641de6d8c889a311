// Package storage provides the key/value storage collaborator used by the
// dashboard data layer to persist cached datasets and auth tokens.
//
// Three backends implement Store:
//
//   - MemoryStore: process-local map, used in tests and by the CLI when no
//     persistence is wanted.
//   - RedisStore: shared Redis instance, so several server replicas reuse
//     each other's cached datasets.
//   - SQLiteStore: single file on disk, the closest analogue of browser
//     localStorage for a desktop CLI.
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	store := storage.NewRedisStore(redisClient, "seafood")
//
//	if err := store.Set(ctx, "token", tok); err != nil {
//		return err
//	}
//
//	value, err := store.Get(ctx, "token")
//	if errors.Is(err, storage.ErrNotFound) {
//		// not stored yet
//	}
//
// SetMany writes several keys as one unit. Every backend applies it
// atomically, which the dataset cache relies on to never expose a payload
// without its timestamp.
//
// # Metrics
//
//   - seafood_store_operations_total{backend,operation}
//   - seafood_store_errors_total{backend,operation}
package storage
