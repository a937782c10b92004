package writepolicy

import "context"

/*
This file defines how the reference cache pushes a refreshed entry to durable
storage.

- Write-through: the refresh returns only after the entry is on disk
- Write-back: the refresh returns at once and a worker writes in the background

Either way each entry is one whole-value Set; nothing is ever patched.
*/

// Writer is the durable side of a write. storage.Storage satisfies it.
type Writer interface {
	Set(ctx context.Context, key, value string) error
}

// WritePolicy forwards entry writes to a Writer.
type WritePolicy interface {

	// OnWrite persists value under key, or schedules it.
	OnWrite(ctx context.Context, key, value string) error

	// Close flushes pending writes.
	Close()
}

// Mode names a policy in configuration.
type Mode string

const (
	ModeThrough Mode = "through"
	ModeBack    Mode = "back"
)
