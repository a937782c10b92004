package cache

import (
	"context"
	"time"

	"github.com/krisalay/request-cache/types"
)

// Options tunes a single fetch.
type Options struct {

	// ForceFresh skips the freshness check and always calls the fetcher.
	ForceFresh bool

	// TTL is how long a cached value counts as fresh for this call.
	// Zero means the cache default (5 minutes unless configured otherwise).
	TTL time.Duration
}

/*
Cache is the contract every data-bearing view codes against.
Sharding, fencing, cancellation and fallback stay hidden behind it.
*/
type Cache interface {

	/*
		Fetch returns the value for key, calling f only when necessary.

		BEHAVIOR:
		---------
		1. Any fetch already in flight for key is cancelled (not awaited)
		2. Fresh cached value and no ForceFresh → returned, f is NOT called
		3. Otherwise f runs with a context cancelled on supersession:
		   - success → value cached and returned
		   - superseded → *types.CancelledError; a successful result still
		     commits unless a later-started fetch already did
		   - other failure with a cached value → stale value returned, warning logged
		   - other failure with nothing cached → *types.FetchError
	*/
	Fetch(ctx context.Context, key string, f types.Fetcher, opts Options) (any, error)

	/*
		Clear drops the cached value for key. In-flight fetches are not
		cancelled and may still populate the key when they finish.
	*/
	Clear(key string)

	// ClearAll drops every cached value, leaving in-flight fetches alone.
	ClearAll()

	// Invalidate forces the next Fetch for key to miss. Same effect as Clear.
	Invalidate(key string)

	/*
		Prefetch warms key and discards the result.
		Failures are logged, never returned.
	*/
	Prefetch(ctx context.Context, key string, f types.Fetcher, opts Options)

	/*
		Close tears the cache down.

		BEHAVIOR:
		---------
		- Cancels every in-flight fetch
		- Stops and waits for background refreshes
	*/
	Close()
}
