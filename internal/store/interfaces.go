// Package store provides the key-value persistence used for listings, the
// remembered sheet layout, auth state and sync history.
package store

import (
	"context"
	"time"
)

// Store is a byte-oriented key-value store. Backends are interchangeable so
// the same data can live in memory, Redis, a SQL database or MongoDB.
type Store interface {
	// Get retrieves a value by key. Returns ErrNotFound if absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value. A ttl of zero keeps the value until deleted.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value by key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Exists checks if a key holds a live value.
	Exists(ctx context.Context, key string) (bool, error)

	// Stats returns backend statistics for the admin endpoint.
	Stats(ctx context.Context) (map[string]interface{}, error)

	// Close releases the backend connection.
	Close() error
}

// Purger is implemented by backends that keep expired entries until swept.
type Purger interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// StoreError is a sentinel error of the store package.
type StoreError string

func (e StoreError) Error() string { return string(e) }

const (
	// ErrNotFound indicates the key holds no live value.
	ErrNotFound StoreError = "key not found"
)

// expiryFor converts a ttl into an absolute expiry; zero means none.
func expiryFor(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return time.Now().Add(ttl)
}
