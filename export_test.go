package cache

// Peek reads the committed value for key without touching freshness,
// eviction or the in-flight table.
func Peek(c *RequestCache, key string) (any, bool) {
	sh := c.selector.Select(key, c.shards)
	sh.Mu.Lock()
	defer sh.Mu.Unlock()
	ent, ok := sh.GetLocked(key)
	if !ok {
		return nil, false
	}
	return ent.Value, true
}
