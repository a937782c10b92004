package shard

import (
	"sync"

	"github.com/krisalay/request-cache/cancellation"
	"github.com/krisalay/request-cache/eviction"
	"github.com/krisalay/request-cache/types"
)

/*
A Shard owns one slice of the key space: its entries, the fetches in flight
for those keys, and the generation counters that fence late results.

Methods ending in Locked must be called with Mu held. The cache holds Mu only
across synchronous steps, never while a fetcher runs.
*/
type Shard struct {
	Mu sync.Mutex

	store    Store
	keys     map[string]*keyState
	eviction eviction.Policy
	capacity int
}

// keyState is the per-key fence.
//
// issued is the generation handed to the most recently started fetch,
// committed is the generation of the fetch whose value is (or last was) stored.
// Both outlive the entry so a clear cannot reopen the fence to older fetches.
type keyState struct {
	issued    uint64
	committed uint64
	inflight  *InFlight
}

// InFlight is the one outstanding fetch for a key.
type InFlight struct {
	Gen    uint64
	Handle *cancellation.Handle

	// Refresh marks a background refresh started by a hit. Hits leave it
	// running; any other call supersedes it.
	Refresh bool
}

// NewShard creates a shard. A nil policy or a capacity <= 0 means unbounded.
func NewShard(ev eviction.Policy, capacity int) *Shard {
	if capacity <= 0 {
		ev = nil
	}
	return &Shard{
		store:    NewMapStore(),
		keys:     make(map[string]*keyState),
		eviction: ev,
		capacity: capacity,
	}
}

func (s *Shard) state(key string) *keyState {
	st, ok := s.keys[key]
	if !ok {
		st = &keyState{}
		s.keys[key] = st
	}
	return st
}

// GetLocked returns the committed entry for key, fresh or not.
func (s *Shard) GetLocked(key string) (*types.CacheEntry, bool) {
	return s.store.Get(key)
}

// TouchLocked records a hit for eviction bookkeeping.
func (s *Shard) TouchLocked(key string) {
	if s.eviction != nil {
		s.eviction.OnGet(key)
	}
}

// SupersedeLocked cancels the in-flight fetch for key, if any, and forgets it.
// It does not wait for the fetcher to notice.
func (s *Shard) SupersedeLocked(key string) bool {
	st, ok := s.keys[key]
	if !ok || st.inflight == nil {
		return false
	}
	st.inflight.Handle.Cancel()
	st.inflight = nil
	return true
}

// BeginLocked registers h as the in-flight fetch for key and returns its generation.
func (s *Shard) BeginLocked(key string, h *cancellation.Handle) uint64 {
	return s.begin(key, h, false)
}

// BeginRefreshLocked is BeginLocked for a background refresh.
func (s *Shard) BeginRefreshLocked(key string, h *cancellation.Handle) uint64 {
	return s.begin(key, h, true)
}

func (s *Shard) begin(key string, h *cancellation.Handle, refresh bool) uint64 {
	st := s.state(key)
	st.issued++
	st.inflight = &InFlight{Gen: st.issued, Handle: h, Refresh: refresh}
	return st.issued
}

// RefreshingLocked reports whether a background refresh for key is in flight.
func (s *Shard) RefreshingLocked(key string) bool {
	st, ok := s.keys[key]
	return ok && st.inflight != nil && st.inflight.Refresh
}

// FinishLocked clears the in-flight record for key if it still belongs to gen.
func (s *Shard) FinishLocked(key string, gen uint64) {
	if st, ok := s.keys[key]; ok && st.inflight != nil && st.inflight.Gen == gen {
		st.inflight = nil
	}
}

// CommitLocked stores ent unless a fetch started after it has already
// committed. It reports whether ent was stored and which key, if any, was
// evicted to make room.
func (s *Shard) CommitLocked(ent *types.CacheEntry) (stored bool, evicted string) {
	st := s.state(ent.Key)
	if ent.Generation <= st.committed {
		return false, ""
	}
	st.committed = ent.Generation

	if _, exists := s.store.Get(ent.Key); !exists && s.eviction != nil && s.store.Size() >= s.capacity {
		evicted = s.eviction.Evict()
		if evicted != "" {
			s.store.Delete(evicted)
		}
	}

	s.store.Put(ent.Key, ent)
	if s.eviction != nil {
		s.eviction.OnPut(ent.Key)
	}
	return true, evicted
}

// RemoveLocked drops the entry for key. In-flight fetches keep running.
func (s *Shard) RemoveLocked(key string) {
	s.store.Delete(key)
	if s.eviction != nil {
		s.eviction.Remove(key)
	}
}

// ClearLocked drops every entry. In-flight fetches keep running.
func (s *Shard) ClearLocked() {
	if s.eviction != nil {
		for {
			if s.eviction.Evict() == "" {
				break
			}
		}
	}
	s.store.Clear()
}

// CancelAllLocked supersedes every in-flight fetch in the shard.
func (s *Shard) CancelAllLocked() int {
	n := 0
	for key := range s.keys {
		if s.SupersedeLocked(key) {
			n++
		}
	}
	return n
}

// Size returns the number of committed entries.
func (s *Shard) Size() int {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	return s.store.Size()
}
