package storage

import "errors"

// Storage errors shared by every backend.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when attempting to insert a record
	// with a key that already exists.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnavailable is returned when the backing store is not connected
	// or cannot be reached.
	ErrUnavailable = errors.New("store unavailable")

	// ErrWriteFailed is returned when a write was rejected by the store.
	ErrWriteFailed = errors.New("write failed")
)
