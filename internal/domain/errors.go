package domain

import "errors"

var (
	// ErrNotFound reports that the target id is absent from the record store.
	ErrNotFound = errors.New("not found")

	// ErrValidation reports malformed input, e.g. an unparseable date.
	ErrValidation = errors.New("validation failed")
)

// StoreError wraps a persistence-layer failure. It is opaque to the cache and
// service layers; they propagate it unchanged.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return "store: " + e.Op + ": " + e.Err.Error() }

func (e *StoreError) Unwrap() error { return e.Err }
