package session

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Store.Load when no record is bound to the identifier.
var ErrNotFound = errors.New("session not found")

// ErrRedisUnavailable wraps every transport-level failure of the Redis store.
var ErrRedisUnavailable = errors.New("redis unavailable")

// Store is the key-value backing store for session records.
//
// Implementations must give per-identifier read-modify-write atomicity or at least
// last-writer-wins semantics. Touch overwrites an existing record only and returns
// ErrNotFound when the identifier is unbound, so it never re-creates a deleted
// session. Delete must be idempotent. Rotate moves whatever is
// bound to oldID onto newID and removes oldID; a missing oldID is not an error.
type Store interface {
	Load(ctx context.Context, id string) (*Record, error)
	Save(ctx context.Context, id string, r *Record) error
	Touch(ctx context.Context, id string, r *Record) error
	Delete(ctx context.Context, id string) error
	Rotate(ctx context.Context, oldID, newID string) error
}
