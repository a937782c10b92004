package eviction

import "testing"

func mustPolicy(t *testing.T, pt PolicyType) Policy {
	t.Helper()
	p, err := NewEvictionPolicy(pt)
	if err != nil {
		t.Fatalf("new policy %s: %v", pt, err)
	}
	return p
}

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	p := mustPolicy(t, LRU)
	p.OnPut("roads")
	p.OnPut("leaders")
	p.OnPut("machinery")
	p.OnGet("roads")

	if got := p.Evict(); got != "leaders" {
		t.Fatalf("expected leaders, got %q", got)
	}
	if got := p.Evict(); got != "machinery" {
		t.Fatalf("expected machinery, got %q", got)
	}
	if p.Len() != 1 {
		t.Fatalf("expected 1 tracked key, got %d", p.Len())
	}
}

func TestFIFOIgnoresHits(t *testing.T) {
	p := mustPolicy(t, FIFO)
	p.OnPut("roads")
	p.OnPut("leaders")
	p.OnGet("roads")
	p.OnPut("roads")

	if got := p.Evict(); got != "roads" {
		t.Fatalf("expected roads, got %q", got)
	}
}

func TestLFUEvictsLeastFrequentlyUsed(t *testing.T) {
	p := mustPolicy(t, LFU)
	p.OnPut("roads")
	p.OnPut("leaders")
	p.OnPut("machinery")
	p.OnGet("roads")
	p.OnGet("roads")
	p.OnGet("machinery")

	if got := p.Evict(); got != "leaders" {
		t.Fatalf("expected leaders, got %q", got)
	}
	if got := p.Evict(); got != "machinery" {
		t.Fatalf("expected machinery, got %q", got)
	}
}

func TestLFURecoversAfterRemove(t *testing.T) {
	p := mustPolicy(t, LFU)
	p.OnPut("roads")
	p.OnPut("leaders")
	p.OnGet("leaders")
	p.Remove("roads")

	if got := p.Evict(); got != "leaders" {
		t.Fatalf("expected leaders, got %q", got)
	}
	if got := p.Evict(); got != "" {
		t.Fatalf("expected empty policy, got %q", got)
	}
}

func TestRemoveUntrackedIsSafe(t *testing.T) {
	for _, pt := range []PolicyType{LRU, LFU, FIFO} {
		p := mustPolicy(t, pt)
		p.Remove("missing")
		if got := p.Evict(); got != "" {
			t.Fatalf("%s: expected nothing to evict, got %q", pt, got)
		}
	}
}

func TestUnknownPolicy(t *testing.T) {
	if _, err := NewEvictionPolicy("MRU"); err == nil {
		t.Fatalf("expected error for unknown policy")
	}
}
