package cache

import (
	"log/slog"
	"time"

	"github.com/krisalay/request-cache/engine"
	evict "github.com/krisalay/request-cache/eviction"
	"github.com/krisalay/request-cache/expiration"
	"github.com/krisalay/request-cache/refresh"
	"github.com/krisalay/request-cache/types"
)

// DefaultShards is the shard count New uses unless told otherwise.
const DefaultShards = 8

type settings struct {
	shards    int
	capacity  int
	eviction  evict.PolicyType
	freshness expiration.Strategy
	hook      refresh.Hook
	metrics   types.Metrics
	logger    *slog.Logger
	ttl       time.Duration
	now       func() time.Time
}

// Option configures New.
type Option func(*settings)

// WithShards sets how many shards split the key space.
func WithShards(n int) Option { return func(s *settings) { s.shards = n } }

// WithCapacity bounds the number of cached keys. Zero keeps every key.
func WithCapacity(n int, policy evict.PolicyType) Option {
	return func(s *settings) {
		s.capacity = n
		s.eviction = policy
	}
}

// WithFreshness replaces the fixed-TTL freshness strategy.
func WithFreshness(f expiration.Strategy) Option { return func(s *settings) { s.freshness = f } }

// WithRefreshAhead installs a refresh-ahead hook.
func WithRefreshAhead(h refresh.Hook) Option { return func(s *settings) { s.hook = h } }

func WithMetrics(m types.Metrics) Option { return func(s *settings) { s.metrics = m } }

func WithLogger(l *slog.Logger) Option { return func(s *settings) { s.logger = l } }

// WithDefaultTTL sets the TTL used by calls that pass none.
func WithDefaultTTL(d time.Duration) Option { return func(s *settings) { s.ttl = d } }

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(s *settings) { s.now = now } }

// New builds a RequestCache from options. With none it is an unbounded,
// fixed-TTL cache with a five minute default TTL.
func New(opts ...Option) (*RequestCache, error) {
	s := settings{shards: DefaultShards, eviction: evict.LRU}
	for _, o := range opts {
		o(&s)
	}

	eng := engine.NewCacheEngine(s.freshness, s.hook, s.metrics, s.logger)
	if s.ttl > 0 {
		eng.DefaultTTL = s.ttl
	}
	if s.now != nil {
		eng.Now = s.now
	}
	return NewRequestCache(s.shards, s.capacity, s.eviction, eng)
}
