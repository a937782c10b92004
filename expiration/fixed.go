package expiration

import (
	"time"

	"github.com/krisalay/request-cache/types"
)

// Fixed treats an entry as fresh while now - FetchedAt < ttl.
// Reads never extend its life.
type Fixed struct{}

func (Fixed) IsFresh(ent *types.CacheEntry, ttl time.Duration, now time.Time) bool {
	return ent.Age(now) < ttl
}

func (Fixed) OnAccess(ent *types.CacheEntry, now time.Time) {
	ent.LastAccessedAt = now
}

func (Fixed) OnWrite(ent *types.CacheEntry, now time.Time) {
	ent.LastAccessedAt = now
}
