package metrics_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	cache "github.com/krisalay/request-cache"
	"github.com/krisalay/request-cache/engine"
	"github.com/krisalay/request-cache/eviction"
	"github.com/krisalay/request-cache/metrics"
	"github.com/krisalay/request-cache/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPrometheusCountsCacheEvents(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	m := metrics.NewPrometheus(reg, "portal", "request")

	eng := engine.NewCacheEngine(nil, nil, m, slog.New(slog.NewTextHandler(io.Discard, nil)))
	c, err := cache.NewRequestCache(2, 0, eviction.LRU, eng)
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	defer c.Close()

	ok := types.FetcherFunc(func(context.Context) (any, error) { return "rows", nil })
	fail := types.FetcherFunc(func(context.Context) (any, error) { return nil, errors.New("HTTP 500") })

	c.Fetch(ctx, "roads", ok, cache.Options{})                   // miss
	c.Fetch(ctx, "roads", ok, cache.Options{})                   // hit
	c.Fetch(ctx, "roads", fail, cache.Options{ForceFresh: true}) // miss, stale
	c.Fetch(ctx, "leaders", fail, cache.Options{})               // miss, failure

	checks := []struct {
		name string
		c    prometheus.Counter
		want float64
	}{
		{"hits", m.HitsTotal, 1},
		{"misses", m.MissesTotal, 3},
		{"stale", m.StaleTotal, 1},
		{"failures", m.FailuresTotal, 1},
		{"superseded", m.SupersededTotal, 0},
	}
	for _, tc := range checks {
		if got := testutil.ToFloat64(tc.c); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}

	if n := testutil.CollectAndCount(reg, "portal_request_fetch_duration_seconds"); n != 1 {
		t.Fatalf("expected latency histogram to be registered, got %d", n)
	}
}

func TestSeparateSubsystemsShareARegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics.NewPrometheus(reg, "portal", "request")
	metrics.NewPrometheus(reg, "portal", "reference")

	if n := testutil.CollectAndCount(reg); n != 16 {
		t.Fatalf("expected 16 collectors, got %d", n)
	}
}
