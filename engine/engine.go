package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/krisalay/request-cache/expiration"
	"github.com/krisalay/request-cache/refresh"
	"github.com/krisalay/request-cache/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DefaultTTL is how long a fetched value stays fresh when the caller gives no TTL.
const DefaultTTL = 5 * time.Minute

const tracerName = "github.com/krisalay/request-cache"

/*
CacheEngine is the policy layer of the cache.

It decides:
- Whether an entry is still fresh for a caller's TTL
- How hits and commits update entry timestamps
- Whether a hit should trigger a background refresh
- Where metrics, logs and spans go
- What "now" is

It does NOT store entries, track in-flight fetches or take locks; that is the
shard's job.
*/
type CacheEngine struct {

	// Expiration decides freshness. Defaults to expiration.Fixed.
	Expiration expiration.Strategy

	// Refresh is an optional refresh-ahead hook. Nil disables it.
	Refresh refresh.Hook

	// Metrics receives cache events. Never nil.
	Metrics types.Metrics

	// Logger receives debug and warning logs. Never nil.
	Logger *slog.Logger

	// DefaultTTL applies when a call passes no TTL.
	DefaultTTL time.Duration

	// Now is the clock. Tests replace it.
	Now func() time.Time

	// Tracer opens a span per network-bound fetch.
	Tracer trace.Tracer
}

// NewCacheEngine fills in defaults for every nil collaborator.
func NewCacheEngine(
	exp expiration.Strategy,
	hook refresh.Hook,
	metrics types.Metrics,
	logger *slog.Logger,
) *CacheEngine {
	if exp == nil {
		exp = expiration.Fixed{}
	}
	if metrics == nil {
		metrics = types.NoopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CacheEngine{
		Expiration: exp,
		Refresh:    hook,
		Metrics:    metrics,
		Logger:     logger,
		DefaultTTL: DefaultTTL,
		Now:        time.Now,
		Tracer:     otel.Tracer(tracerName),
	}
}

// TTL resolves a caller TTL against the default.
func (e *CacheEngine) TTL(ttl time.Duration) time.Duration {
	if ttl > 0 {
		return ttl
	}
	return e.DefaultTTL
}

// IsFresh reports whether ent can be served under ttl right now.
func (e *CacheEngine) IsFresh(ent *types.CacheEntry, ttl time.Duration, now time.Time) bool {
	return e.Expiration.IsFresh(ent, ttl, now)
}

// OnHit runs after a fresh entry was found and before it is returned.
func (e *CacheEngine) OnHit(ent *types.CacheEntry, now time.Time) {
	e.Metrics.Hit()
	e.Expiration.OnAccess(ent, now)
}

// RefreshDue reports whether a hit on ent should start a background refresh.
func (e *CacheEngine) RefreshDue(ent *types.CacheEntry, ttl time.Duration, now time.Time) bool {
	if e.Refresh != nil && e.Refresh.ShouldRefresh(ent, ttl, now) {
		e.Metrics.Refresh()
		return true
	}
	return false
}

// OnCommit stamps a freshly committed entry.
func (e *CacheEngine) OnCommit(ent *types.CacheEntry) {
	e.Expiration.OnWrite(ent, e.Now())
}

// StartFetch opens the span that covers one call to a fetcher.
func (e *CacheEngine) StartFetch(ctx context.Context, op, key string, gen uint64) (context.Context, trace.Span) {
	return e.Tracer.Start(ctx, op, trace.WithAttributes(
		attribute.String("cache.key", key),
		attribute.Int64("cache.generation", int64(gen)),
	))
}
