// Package storage defines the durable key/value contract used by the
// reference cache, and the sentinel errors every backend reports.
package storage

import (
	"context"
	"errors"
)

var (
	// ErrNotFound means no value is stored under the key.
	ErrNotFound = errors.New("not found")

	// ErrUnavailable means the storage cannot be used at all.
	ErrUnavailable = errors.New("storage unavailable")
)

// Storage persists opaque string values across restarts.
// Set replaces the whole value in a single write.
type Storage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

// Unavailable is a Storage that refuses every operation, like a browser
// profile where local storage is disabled.
type Unavailable struct{}

func (Unavailable) Get(context.Context, string) (string, error) { return "", ErrUnavailable }

func (Unavailable) Set(context.Context, string, string) error { return ErrUnavailable }

func (Unavailable) Close() error { return nil }
