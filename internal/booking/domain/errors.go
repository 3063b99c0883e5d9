package domain

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	// ErrNotFound is a soft signal: updating an unknown booking leaves all
	// state untouched and callers are free to ignore it.
	ErrNotFound = errors.New("booking not found")

	ErrInvalidStatus = errors.New("invalid booking status")
)

// StoreReadError means the durable read failed.
type StoreReadError struct {
	Err error
}

func (e *StoreReadError) Error() string {
	return fmt.Sprintf("read booking history: %v", e.Err)
}

func (e *StoreReadError) Unwrap() error { return e.Err }

// StoreWriteError means the durable write failed. The engine rolls its
// in-memory state back before returning it, so memory never runs ahead of
// the store.
type StoreWriteError struct {
	Err error
}

func (e *StoreWriteError) Error() string {
	return fmt.Sprintf("write booking history: %v", e.Err)
}

func (e *StoreWriteError) Unwrap() error { return e.Err }

// CorruptDataError means the stored history could not be deserialized.
// Recovery policy (reset vs. surface) belongs to the caller.
type CorruptDataError struct {
	Err error
}

func (e *CorruptDataError) Error() string {
	return fmt.Sprintf("corrupt booking history: %v", e.Err)
}

func (e *CorruptDataError) Unwrap() error { return e.Err }
