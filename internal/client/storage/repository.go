// Package storage persists small pieces of client state (the session user and
// token pair) in a local SQLite key/value table so a session survives
// restarts.
package storage

import "context"

type Repository interface {
	// Get returns the stored value for key, or nil if the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}
