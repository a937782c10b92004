package types

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrCancelled marks a fetch whose result is no longer wanted because a
	// newer call for the same key superseded it.
	ErrCancelled = errors.New("request superseded")

	// ErrEmptyKey is returned when a cache operation receives an empty key.
	ErrEmptyKey = errors.New("cache key is required")

	// ErrNilFetcher is returned when a cache operation receives no fetcher.
	ErrNilFetcher = errors.New("fetcher is required")
)

// CancelledError is returned to the caller whose fetch was superseded.
// It matches both ErrCancelled and context.Canceled.
type CancelledError struct {
	Key string
}

func (e *CancelledError) Error() string {
	return fmt.Sprintf("fetch %q: %v", e.Key, ErrCancelled)
}

// Is lets errors.Is match ErrCancelled and context.Canceled.
func (e *CancelledError) Is(target error) bool {
	return target == ErrCancelled || target == context.Canceled
}

// FetchError wraps a network, HTTP or decode failure reported by a fetcher.
type FetchError struct {
	Key string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %q: %v", e.Key, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// StorageError describes a durable storage failure. The reference cache
// downgrades it to a miss and only ever logs it.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// IsCancelled reports whether err is a supersession outcome.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}
