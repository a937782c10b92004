// This file defines when a cached value stops being fresh.

package expiration

import (
	"time"

	"github.com/krisalay/request-cache/types"
)

/*
Strategy decides whether an entry can be served without refetching.

The TTL is supplied per call, because every view picks its own freshness
window for the same shared cache. An entry that is no longer fresh is NOT
removed: it stays around so a failed refetch can fall back on it.
*/
type Strategy interface {

	// IsFresh reports whether ent can be served at now under ttl.
	IsFresh(ent *types.CacheEntry, ttl time.Duration, now time.Time) bool

	// OnAccess is called on every cache hit.
	OnAccess(ent *types.CacheEntry, now time.Time)

	// OnWrite is called when a fetch result is committed.
	OnWrite(ent *types.CacheEntry, now time.Time)
}

// Kind names a built-in strategy.
type Kind string

const (
	// KindFixed measures freshness from the fetch time only.
	KindFixed Kind = "fixed"

	// KindSliding measures freshness from the last hit.
	KindSliding Kind = "sliding"
)

// New returns the strategy for k, defaulting to Fixed.
func New(k Kind) Strategy {
	switch k {
	case KindSliding:
		return Sliding{}
	default:
		return Fixed{}
	}
}
