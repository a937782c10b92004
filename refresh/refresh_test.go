package refresh

import (
	"testing"
	"time"

	"github.com/krisalay/request-cache/types"
)

func TestAheadThreshold(t *testing.T) {
	t0 := time.Unix(1_700_000_000, 0)
	ent := &types.CacheEntry{Key: "roads", FetchedAt: t0}
	h := Ahead{Ratio: 0.8}

	if h.ShouldRefresh(ent, 5*time.Minute, t0.Add(3*time.Minute)) {
		t.Fatalf("expected no refresh at 60%% of ttl")
	}
	if !h.ShouldRefresh(ent, 5*time.Minute, t0.Add(4*time.Minute)) {
		t.Fatalf("expected refresh at 80%% of ttl")
	}
}

func TestAheadDisabled(t *testing.T) {
	t0 := time.Unix(1_700_000_000, 0)
	ent := &types.CacheEntry{Key: "roads", FetchedAt: t0}

	for _, ratio := range []float64{0, 1, -0.5} {
		if (Ahead{Ratio: ratio}).ShouldRefresh(ent, time.Minute, t0.Add(time.Hour)) {
			t.Fatalf("ratio %v should disable refresh", ratio)
		}
	}
}
