package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	api "github.com/krisalay/request-cache/api"
	"github.com/krisalay/request-cache/cancellation"
	"github.com/krisalay/request-cache/engine"
	evict "github.com/krisalay/request-cache/eviction"
	"github.com/krisalay/request-cache/shard"
	"github.com/krisalay/request-cache/types"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

// Options tunes a single fetch.
type Options = api.Options

var _ api.Cache = (*RequestCache)(nil)

/*
RequestCache is the in-memory request cache shared by every view.
It connects:
- shards (entries, in-flight fetches, generation fences)
- the engine (freshness, refresh-ahead, metrics, logs, clock)
- background refreshes
*/
type RequestCache struct {
	shards   []*shard.Shard
	engine   *engine.CacheEngine
	selector shard.Selector

	// bgMu guards closed and the Add side of bg.
	bgMu     sync.Mutex
	closed   bool
	bg       sync.WaitGroup
	bgCtx    context.Context
	bgCancel context.CancelFunc
}

// Request names one key to warm with PrefetchAll.
type Request struct {
	Key     string
	Fetcher types.Fetcher
	Options Options
}

// NewRequestCache builds a cache with the given number of shards. A capacity
// of zero keeps every key; otherwise capacity is split across shards and the
// eviction policy picks victims.
func NewRequestCache(
	shards int,
	capacity int,
	eviction evict.PolicyType,
	engine *engine.CacheEngine,
) (*RequestCache, error) {
	if shards <= 0 {
		shards = 1
	}

	perShard := 0
	if capacity > 0 {
		perShard = max(1, capacity/shards)
	}

	s := make([]*shard.Shard, shards)
	for i := range s {
		var policy evict.Policy
		if perShard > 0 {
			p, err := evict.NewEvictionPolicy(eviction)
			if err != nil {
				return nil, err
			}
			policy = p
		}
		s[i] = shard.NewShard(policy, perShard)
	}

	bgCtx, bgCancel := context.WithCancel(context.Background())
	return &RequestCache{
		shards:   s,
		engine:   engine,
		selector: shard.HashSelector{},
		bgCtx:    bgCtx,
		bgCancel: bgCancel,
	}, nil
}

/*
Fetch returns the value for key, calling f only when nothing fresh is cached.

At most one fetch per key is in flight: starting a call cancels the previous
one for the same key. Whatever finishes, the cached entry only ever moves
forward to the result of a later-started fetch.
*/
func (c *RequestCache) Fetch(ctx context.Context, key string, f types.Fetcher, opts Options) (any, error) {
	if key == "" {
		return nil, types.ErrEmptyKey
	}
	if f == nil {
		return nil, types.ErrNilFetcher
	}

	e := c.engine
	ttl := e.TTL(opts.TTL)
	now := e.Now()
	sh := c.selector.Select(key, c.shards)

	sh.Mu.Lock()
	if ent, ok := sh.GetLocked(key); ok && !opts.ForceFresh && e.IsFresh(ent, ttl, now) {
		// A running refresh already covers this entry.
		refreshing := sh.RefreshingLocked(key)
		if !refreshing && sh.SupersedeLocked(key) {
			e.Metrics.Superseded()
			e.Logger.Debug("cache superseded in-flight request", "key", key)
		}
		e.OnHit(ent, now)
		sh.TouchLocked(key)
		val := ent.Value

		var (
			rh   *cancellation.Handle
			rgen uint64
		)
		if !refreshing && e.RefreshDue(ent, ttl, now) {
			rh, rgen = c.beginRefreshLocked(sh, key)
		}
		sh.Mu.Unlock()

		e.Logger.Debug("cache hit", "key", key)
		if rh != nil {
			c.refreshInBackground(sh, key, f, rh, rgen, now)
		}
		return val, nil
	}

	if sh.SupersedeLocked(key) {
		e.Metrics.Superseded()
		e.Logger.Debug("cache superseded in-flight request", "key", key)
	}

	h := cancellation.New(ctx)
	gen := sh.BeginLocked(key, h)
	sh.Mu.Unlock()
	defer h.Release()

	e.Metrics.Miss()
	e.Logger.Debug("cache miss, fetching", "key", key, "generation", gen, "force_fresh", opts.ForceFresh)

	return c.await(ctx, sh, key, f, h, gen, now)
}

// await runs the fetcher outside the shard lock and settles the result.
func (c *RequestCache) await(
	ctx context.Context,
	sh *shard.Shard,
	key string,
	f types.Fetcher,
	h *cancellation.Handle,
	gen uint64,
	startedAt time.Time,
) (any, error) {
	e := c.engine

	fctx, span := e.StartFetch(h.Context(), "cache.fetch", key, gen)
	defer span.End()

	start := time.Now()
	val, err := f.Fetch(fctx)
	e.Metrics.Latency(time.Since(start))

	sh.Mu.Lock()
	sh.FinishLocked(key, gen)
	superseded := h.Cancelled()

	if err == nil {
		ent := &types.CacheEntry{Key: key, Value: val, FetchedAt: startedAt, Generation: gen}
		e.OnCommit(ent)
		stored, evicted := sh.CommitLocked(ent)
		sh.Mu.Unlock()

		if evicted != "" {
			e.Metrics.Eviction()
			e.Logger.Debug("cache evicted entry", "key", evicted)
		}
		if !stored {
			e.Logger.Debug("cache discarded result from older request", "key", key, "generation", gen)
		}
		if superseded {
			span.SetStatus(codes.Error, "superseded")
			return nil, &types.CancelledError{Key: key}
		}
		return val, nil
	}

	var (
		staleVal any
		hasStale bool
	)
	if ent, ok := sh.GetLocked(key); ok {
		staleVal, hasStale = ent.Value, true
	}
	sh.Mu.Unlock()

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	switch {
	case superseded:
		e.Logger.Debug("cache request aborted", "key", key, "generation", gen)
		return nil, &types.CancelledError{Key: key}
	case ctx.Err() != nil:
		return nil, fmt.Errorf("fetch %q: %w", key, ctx.Err())
	case hasStale:
		e.Metrics.Stale()
		e.Logger.Warn("cache using stale data after fetch error", "key", key, "err", err)
		return staleVal, nil
	default:
		e.Metrics.Failure()
		return nil, &types.FetchError{Key: key, Err: err}
	}
}

// FetchAs is Fetch for a typed fetch function.
func FetchAs[T any](
	ctx context.Context,
	c *RequestCache,
	key string,
	fn func(context.Context) (T, error),
	opts Options,
) (T, error) {
	var zero T
	v, err := c.Fetch(ctx, key, types.FetcherFunc(func(ctx context.Context) (any, error) {
		return fn(ctx)
	}), opts)
	if err != nil || v == nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("cache %q holds %T, not %T", key, v, zero)
	}
	return t, nil
}

/*
Clear drops the cached value for key.
In-flight fetches are not cancelled.
*/
func (c *RequestCache) Clear(key string) {
	sh := c.selector.Select(key, c.shards)
	sh.Mu.Lock()
	defer sh.Mu.Unlock()
	sh.RemoveLocked(key)
}

// ClearAll drops every cached value.
func (c *RequestCache) ClearAll() {
	for _, sh := range c.shards {
		sh.Mu.Lock()
		sh.ClearLocked()
		sh.Mu.Unlock()
	}
}

// Invalidate makes the next Fetch for key miss.
func (c *RequestCache) Invalidate(key string) {
	c.Clear(key)
}

/*
Prefetch warms key and throws the value away.
Errors are logged and swallowed; supersession only at Debug.
*/
func (c *RequestCache) Prefetch(ctx context.Context, key string, f types.Fetcher, opts Options) {
	if _, err := c.Fetch(ctx, key, f, opts); err != nil {
		c.logPrefetchError(key, err)
	}
}

func (c *RequestCache) logPrefetchError(key string, err error) {
	if errors.Is(err, context.Canceled) {
		c.engine.Logger.Debug("cache prefetch cancelled", "key", key, "superseded", types.IsCancelled(err))
		return
	}
	c.engine.Logger.Warn("cache prefetch failed", "key", key, "err", err)
}

// PrefetchAll warms every request, at most limit at a time (limit <= 0 means
// no limit), and returns once all of them settled.
func (c *RequestCache) PrefetchAll(ctx context.Context, limit int, reqs ...Request) {
	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for _, r := range reqs {
		g.Go(func() error {
			c.Prefetch(ctx, r.Key, r.Fetcher, r.Options)
			return nil
		})
	}
	_ = g.Wait()
}

// Len returns the number of cached entries, stale ones included.
func (c *RequestCache) Len() int {
	n := 0
	for _, sh := range c.shards {
		n += sh.Size()
	}
	return n
}

// beginRefreshLocked registers a background refresh for key. It returns a nil
// handle once the cache is closing. Called with sh.Mu held.
func (c *RequestCache) beginRefreshLocked(sh *shard.Shard, key string) (*cancellation.Handle, uint64) {
	c.bgMu.Lock()
	defer c.bgMu.Unlock()
	if c.closed {
		return nil, 0
	}
	c.bg.Add(1)

	h := cancellation.New(c.bgCtx)
	return h, sh.BeginRefreshLocked(key, h)
}

func (c *RequestCache) refreshInBackground(
	sh *shard.Shard,
	key string,
	f types.Fetcher,
	h *cancellation.Handle,
	gen uint64,
	startedAt time.Time,
) {
	go func() {
		defer c.bg.Done()
		defer h.Release()

		if _, err := c.await(c.bgCtx, sh, key, f, h, gen, startedAt); err != nil {
			c.logPrefetchError(key, err)
		}
	}()
}

/*
Close tears the cache down: background refreshes stop, every in-flight fetch
is cancelled and Close waits for the refresh goroutines to return.
Cached entries stay readable; drop the reference to free them.
*/
func (c *RequestCache) Close() {
	c.bgMu.Lock()
	c.closed = true
	c.bgMu.Unlock()

	c.bgCancel()
	for _, sh := range c.shards {
		sh.Mu.Lock()
		sh.CancelAllLocked()
		sh.Mu.Unlock()
	}
	c.bg.Wait()
}
