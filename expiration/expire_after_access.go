package expiration

import (
	"time"

	"github.com/krisalay/request-cache/types"
)

/*
Sliding implements "expire after access": every hit pushes the freshness
window forward. A list that a view keeps polling stays cached, one nobody
looks at goes stale after ttl.

The window never starts before the fetch itself, so a refetch always resets it.
*/
type Sliding struct{}

func (Sliding) IsFresh(ent *types.CacheEntry, ttl time.Duration, now time.Time) bool {
	from := ent.FetchedAt
	if ent.LastAccessedAt.After(from) {
		from = ent.LastAccessedAt
	}
	return now.Sub(from) < ttl
}

func (Sliding) OnAccess(ent *types.CacheEntry, now time.Time) {
	ent.LastAccessedAt = now
}

// OnWrite resets the access time so the previous value's reads don't leak
// into the new value's window.
func (Sliding) OnWrite(ent *types.CacheEntry, now time.Time) {
	ent.LastAccessedAt = ent.FetchedAt
}
