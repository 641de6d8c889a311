package storage

import (
	"context"
	"errors"
)

var (
	// ErrNotFound indicates the requested key is not stored.
	ErrNotFound = errors.New("key not found")

	// ErrClosed is returned by backends used after Close.
	ErrClosed = errors.New("store closed")
)

// Store is string key/value storage.
type Store interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// SetMany stores every pair as a single atomic unit.
	SetMany(ctx context.Context, values map[string]string) error

	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
}
