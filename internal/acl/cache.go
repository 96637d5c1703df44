package acl

import (
	"strings"
	"sync"
	"sync/atomic"
)

// DefaultCacheThreshold is the rule count above which verdict caching
// is enabled. Below it a full scan is cheap enough that caching would
// only grow memory for trivial rule sets.
const DefaultCacheThreshold = 10

// verdictCache memoizes (resource, operation, principal) verdicts for
// named-user lookups. A fresh cache is built on every snapshot swap;
// entries are never invalidated individually.
//
// Inserts happen under the authorizer's read lock, concurrently with
// other readers, so the map must synchronize its own mutations. The
// swap itself happens under the write lock.
type verdictCache struct {
	entries sync.Map // cache key -> bool verdict

	hits   atomic.Uint64
	misses atomic.Uint64
}

func newVerdictCache() *verdictCache {
	return &verdictCache{}
}

// get returns the cached verdict for the key, if any.
func (c *verdictCache) get(key string) (verdict, ok bool) {
	v, ok := c.entries.Load(key)
	if !ok {
		c.misses.Add(1)
		return false, false
	}
	c.hits.Add(1)
	return v.(bool), true
}

// set stores a verdict. Later writers for the same key store the same
// value, so last-write-wins is harmless.
func (c *verdictCache) set(key string, verdict bool) {
	c.entries.Store(key, verdict)
}

// CacheStats reports verdict cache activity. Exposed for tests and the
// admin API; counters reset when the cache is rebuilt on reload.
type CacheStats struct {
	// Enabled reports whether caching is active for the current
	// snapshot.
	Enabled bool

	// Hits is the number of lookups served from the cache.
	Hits uint64

	// Misses is the number of lookups that fell through to a scan.
	Misses uint64
}

// cacheKey builds the composite verdict cache key.
func cacheKey(resource, operation, principalName, principalType string) string {
	var b strings.Builder
	b.Grow(len(resource) + len(operation) + len(principalName) + len(principalType) + 3)
	b.WriteString(resource)
	b.WriteByte('|')
	b.WriteString(operation)
	b.WriteByte('|')
	b.WriteString(principalName)
	b.WriteByte('|')
	b.WriteString(principalType)
	return b.String()
}
