// Package persistent caches slow-changing reference datasets, such as the
// municipality list, in durable storage so they survive restarts until they
// expire.
package persistent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/krisalay/request-cache/storage"
	"github.com/krisalay/request-cache/types"
	"github.com/krisalay/request-cache/writepolicy"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

// DefaultTTL is how long a reference dataset is kept before it is refetched.
const DefaultTTL = 7 * 24 * time.Hour

// Entry is the value written under a storage key.
type Entry struct {
	Data      json.RawMessage `json:"data"`
	ExpiresAt int64           `json:"expiresAt"` // unix milliseconds
}

func (e Entry) expiresAt() time.Time {
	return time.UnixMilli(e.ExpiresAt)
}

// ReferenceCache is a load-or-fetch cache over a durable Storage.
type ReferenceCache struct {
	storage storage.Storage
	writes  writepolicy.WritePolicy
	metrics types.Metrics
	logger  *slog.Logger
	now     func() time.Time
	tracer  trace.Tracer

	// sf collapses concurrent loads of one key into a single storage read
	// and at most one fetch.
	sf singleflight.Group
}

// Option configures a ReferenceCache.
type Option func(*ReferenceCache)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *ReferenceCache) { r.logger = l }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m types.Metrics) Option {
	return func(r *ReferenceCache) { r.metrics = m }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *ReferenceCache) { r.now = now }
}

// WithWritePolicy replaces the default write-through policy.
func WithWritePolicy(p writepolicy.WritePolicy) Option {
	return func(r *ReferenceCache) { r.writes = p }
}

// New builds a cache over s. A nil s behaves as storage that is unavailable.
// The cache does not own s; close it separately.
func New(s storage.Storage, opts ...Option) *ReferenceCache {
	if s == nil {
		s = storage.Unavailable{}
	}
	r := &ReferenceCache{
		storage: s,
		metrics: types.NoopMetrics{},
		logger:  slog.Default(),
		now:     time.Now,
		tracer:  otel.Tracer("github.com/krisalay/request-cache/persistent"),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.writes == nil {
		r.writes = writepolicy.NewWriteThroughPolicy(s)
	}
	return r
}

/*
LoadOrFetch returns the dataset stored under key while it has not expired.
Otherwise it calls f, stores the JSON encoding of the result for ttl and
returns it.

Storage problems never surface: unreadable, corrupted or unwritable storage
just means the data is fetched. When f fails, a stored value is returned even
if it expired; only with nothing stored does the *types.FetchError reach the
caller.

Concurrent calls for the same key share one load. The load is detached from
any caller's cancellation; a caller whose ctx ends stops waiting and gets
ctx.Err(), while the others still receive the result.
*/
func (r *ReferenceCache) LoadOrFetch(ctx context.Context, key string, f types.Fetcher, ttl time.Duration) (json.RawMessage, error) {
	if key == "" {
		return nil, types.ErrEmptyKey
	}
	if f == nil {
		return nil, types.ErrNilFetcher
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	shared := context.WithoutCancel(ctx)
	ch := r.sf.DoChan(key, func() (any, error) {
		return r.load(shared, key, f, ttl)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(json.RawMessage), nil
	case <-ctx.Done():
		return nil, fmt.Errorf("load %q: %w", key, ctx.Err())
	}
}

func (r *ReferenceCache) load(ctx context.Context, key string, f types.Fetcher, ttl time.Duration) (json.RawMessage, error) {
	stored, ok := r.read(ctx, key)
	if ok && r.now().Before(stored.expiresAt()) {
		r.metrics.Hit()
		r.logger.Debug("reference cache hit", "key", key)
		return stored.Data, nil
	}
	r.metrics.Miss()
	r.logger.Debug("reference cache miss, fetching", "key", key)

	data, err := r.fetch(ctx, key, f)
	if err != nil {
		if ok {
			r.metrics.Stale()
			r.logger.Warn("reference cache using stored data after fetch error", "key", key, "err", err)
			return stored.Data, nil
		}
		r.metrics.Failure()
		return nil, &types.FetchError{Key: key, Err: err}
	}

	r.write(ctx, key, Entry{Data: data, ExpiresAt: r.now().Add(ttl).UnixMilli()})
	return data, nil
}

func (r *ReferenceCache) fetch(ctx context.Context, key string, f types.Fetcher) (json.RawMessage, error) {
	ctx, span := r.tracer.Start(ctx, "reference.fetch", trace.WithAttributes(attribute.String("cache.key", key)))
	defer span.End()

	start := time.Now()
	val, err := f.Fetch(ctx)
	r.metrics.Latency(time.Since(start))
	if err == nil {
		var data []byte
		data, err = json.Marshal(val)
		if err == nil {
			return data, nil
		}
		err = fmt.Errorf("encode %q: %w", key, err)
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return nil, err
}

// read returns the stored entry, treating every storage or decode problem as absent.
func (r *ReferenceCache) read(ctx context.Context, key string) (Entry, bool) {
	raw, err := r.storage.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			r.logger.Warn("reference cache storage read failed", "key", key,
				"err", &types.StorageError{Op: "get", Key: key, Err: err})
		}
		return Entry{}, false
	}

	var e Entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil || len(e.Data) == 0 || e.ExpiresAt == 0 {
		r.logger.Warn("reference cache ignoring corrupted entry", "key", key)
		return Entry{}, false
	}
	return e, true
}

func (r *ReferenceCache) write(ctx context.Context, key string, e Entry) {
	payload, err := json.Marshal(e)
	if err == nil {
		err = r.writes.OnWrite(ctx, key, string(payload))
	}
	if err != nil {
		r.logger.Warn("reference cache storage write failed", "key", key,
			"err", &types.StorageError{Op: "set", Key: key, Err: err})
	}
}

// Close flushes pending writes. The storage stays open.
func (r *ReferenceCache) Close() {
	r.writes.Close()
}

// LoadOrFetchAs is LoadOrFetch for a typed fetch function. The stored JSON
// is decoded into T, so T must round-trip through encoding/json.
func LoadOrFetchAs[T any](
	ctx context.Context,
	r *ReferenceCache,
	key string,
	fn func(context.Context) (T, error),
	ttl time.Duration,
) (T, error) {
	var out T
	raw, err := r.LoadOrFetch(ctx, key, types.FetcherFunc(func(ctx context.Context) (any, error) {
		return fn(ctx)
	}), ttl)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode %q: %w", key, err)
	}
	return out, nil
}
