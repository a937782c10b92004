package types

import "time"

// CacheEntry is the memoized result of the last successful fetch for a key.
// Entries are owned by the shard that stores them; callers only ever see Value.
type CacheEntry struct {
	Key   string
	Value any

	// FetchedAt is when the fetch that produced Value was started.
	FetchedAt time.Time

	// LastAccessedAt is bumped on every hit. Only sliding freshness reads it.
	LastAccessedAt time.Time

	// Generation is the fence value of the fetch that produced Value.
	Generation uint64
}

// Age reports how old the entry is at now.
func (e *CacheEntry) Age(now time.Time) time.Duration {
	return now.Sub(e.FetchedAt)
}
