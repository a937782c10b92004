package eviction

import "fmt"

/*
This file defines how a bounded cache picks a victim when a shard is full.

Eviction is optional: a cache without capacity never evicts, and an entry
that is merely stale stays cached so it can back a failed refetch.
*/

/*
Policy tracks key usage for one shard. The shard calls it while holding its
lock, so implementations need no synchronization of their own.
*/
type Policy interface {

	// OnGet records a cache hit for the key.
	OnGet(string)

	// OnPut records that the key now has an entry. Re-putting a tracked key
	// is a no-op for insertion order.
	OnPut(string)

	// Remove forgets the key after an explicit clear.
	Remove(string)

	// Evict picks a victim, forgets it and returns it. Empty means nothing is tracked.
	Evict() string

	// Len returns how many keys are tracked.
	Len() int
}

// PolicyType identifies an eviction strategy in configuration.
type PolicyType string

const (
	// LRU evicts the key that has gone longest without a hit.
	LRU PolicyType = "LRU"

	// LFU evicts the key with the fewest hits, oldest first on ties.
	LFU PolicyType = "LFU"

	// FIFO evicts the key that was cached first, regardless of hits.
	FIFO PolicyType = "FIFO"
)

// NewEvictionPolicy builds a fresh policy instance for one shard.
func NewEvictionPolicy(t PolicyType) (Policy, error) {
	switch t {
	case LRU, "":
		return newLRU(), nil
	case LFU:
		return newLFU(), nil
	case FIFO:
		return newFIFO(), nil
	default:
		return nil, fmt.Errorf("unknown eviction policy %q", t)
	}
}
