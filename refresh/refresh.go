// This file defines the refresh-ahead hook.
// On a cache hit the hook may ask for a background refetch, so a list that
// views keep reading is renewed before it goes stale instead of after.

package refresh

import (
	"time"

	"github.com/krisalay/request-cache/types"
)

/*
Hook decides, on every hit, whether the cache should start a background refetch.

The cache serves the hit first and then runs the refetch through the normal
fetch path with ForceFresh, so supersession and the generation fence apply to
it like any other call. ShouldRefresh runs on the hot read path under the
shard lock and must not block.
*/
type Hook interface {
	ShouldRefresh(ent *types.CacheEntry, ttl time.Duration, now time.Time) bool
}

// Ahead refreshes once an entry has used up Ratio of its ttl.
// A Ratio outside (0, 1) disables it.
type Ahead struct {
	Ratio float64
}

func (a Ahead) ShouldRefresh(ent *types.CacheEntry, ttl time.Duration, now time.Time) bool {
	if a.Ratio <= 0 || a.Ratio >= 1 {
		return false
	}
	threshold := time.Duration(float64(ttl) * a.Ratio)
	return ent.Age(now) >= threshold
}
