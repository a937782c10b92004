package shard

import "github.com/krisalay/request-cache/types"

/*
This file defines how entries are held inside a shard.

Every access happens under the shard lock, together with the in-flight table
and the fence counters, so the store itself is a plain map.
*/

// Store holds the committed entries of one shard.
type Store interface {

	// Get retrieves an entry by key.
	Get(string) (*types.CacheEntry, bool)

	// Put inserts or replaces an entry.
	Put(string, *types.CacheEntry)

	// Delete removes an entry.
	Delete(string)

	// Clear removes every entry.
	Clear()

	// Size returns how many entries are stored.
	Size() int
}

type mapStore struct {
	data map[string]*types.CacheEntry
}

func NewMapStore() Store {
	return &mapStore{data: make(map[string]*types.CacheEntry)}
}

func (s *mapStore) Get(key string) (*types.CacheEntry, bool) {
	ent, ok := s.data[key]
	return ent, ok
}

func (s *mapStore) Put(key string, ent *types.CacheEntry) {
	s.data[key] = ent
}

func (s *mapStore) Delete(key string) {
	delete(s.data, key)
}

func (s *mapStore) Clear() {
	clear(s.data)
}

func (s *mapStore) Size() int {
	return len(s.data)
}
