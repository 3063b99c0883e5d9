package store

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by Get when the key holds no value. Callers
// decide whether absence is an error; for the booking engine it is not.
var ErrKeyNotFound = errors.New("key not found")

// Store is the durable key-value collaborator. The engine owns exactly one
// logical record (the serialized booking history) and always performs a
// full read-modify-write on it, so implementations only need per-key
// atomicity: a Set must land fully or not at all.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
