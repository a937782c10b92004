package expiration

import (
	"testing"
	"time"

	"github.com/krisalay/request-cache/types"
)

func TestFixedIgnoresAccess(t *testing.T) {
	t0 := time.Unix(1_700_000_000, 0)
	ent := &types.CacheEntry{Key: "roads", FetchedAt: t0}
	s := Fixed{}
	s.OnWrite(ent, t0)

	s.OnAccess(ent, t0.Add(2*time.Minute))

	if !s.IsFresh(ent, 3*time.Minute, t0.Add(179*time.Second)) {
		t.Fatalf("expected entry to be fresh just before ttl")
	}
	if s.IsFresh(ent, 3*time.Minute, t0.Add(3*time.Minute)) {
		t.Fatalf("expected entry to be stale at ttl")
	}
}

func TestSlidingExtendsOnAccess(t *testing.T) {
	t0 := time.Unix(1_700_000_000, 0)
	ent := &types.CacheEntry{Key: "roads", FetchedAt: t0}
	s := Sliding{}
	s.OnWrite(ent, t0)

	s.OnAccess(ent, t0.Add(2*time.Minute))

	if !s.IsFresh(ent, 3*time.Minute, t0.Add(4*time.Minute)) {
		t.Fatalf("expected access to extend freshness")
	}
	if s.IsFresh(ent, 3*time.Minute, t0.Add(5*time.Minute)) {
		t.Fatalf("expected entry to be stale 3m after last access")
	}
}

func TestNewDefaultsToFixed(t *testing.T) {
	if _, ok := New("").(Fixed); !ok {
		t.Fatalf("expected fixed strategy by default")
	}
	if _, ok := New(KindSliding).(Sliding); !ok {
		t.Fatalf("expected sliding strategy")
	}
}
