package shard

import "github.com/cespare/xxhash/v2"

/*
This file decides which shard owns a key.

All operations on one key must land on the same shard, because that shard's
lock is what serializes the key's in-flight table and fence.
*/

// Selector maps a key to one of the shards.
type Selector interface {
	Select(string, []*Shard) *Shard
}

// HashSelector spreads keys with xxhash.
type HashSelector struct{}

func (HashSelector) Select(key string, shards []*Shard) *Shard {
	return shards[xxhash.Sum64String(key)%uint64(len(shards))]
}
