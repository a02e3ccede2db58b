package catalog

import (
	"sort"
	"sync"
)

// versionedEntry is one historical value of a cached entity: def is the
// JSON-encoded definition visible from version Version onward, until the
// next higher versionedEntry (or forever, if it's the last one). A nil def
// records that the entity was deleted as of Version.
type versionedEntry struct {
	Version uint64
	Def     []byte
}

// entityCache holds every cached version of one entity's definition,
// ordered ascending by Version, standing in for spec.md §4.F's
// `SkipMap<Version, Option<Def>>` per entity: a Go slice kept sorted by
// insertion is a reasonable substitute for a skip list here, since catalog
// entities are mutated rarely (DDL-rate, not row-rate) and the slice is
// never more than a few entries long in practice.
type entityCache struct {
	mu      sync.RWMutex
	history []versionedEntry
}

func (c *entityCache) put(version uint64, def []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := sort.Search(len(c.history), func(i int) bool { return c.history[i].Version >= version })
	if i < len(c.history) && c.history[i].Version == version {
		c.history[i].Def = def
		return
	}
	c.history = append(c.history, versionedEntry{})
	copy(c.history[i+1:], c.history[i:])
	c.history[i] = versionedEntry{Version: version, Def: def}
}

// at returns the definition visible at version v: the highest recorded
// entry with Version <= v, or (nil, false) if no such entry is cached yet
// (the caller falls back to storage).
func (c *entityCache) at(v uint64) (def []byte, found bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i := sort.Search(len(c.history), func(i int) bool { return c.history[i].Version > v }) - 1
	if i < 0 {
		return nil, false
	}
	return c.history[i].Def, true
}

// cache is the materialized catalog cache (spec.md §4.F step 2): one
// entityCache per logical key, looked up and mutated under a per-entity
// lock so concurrent writers to different entities never contend.
type cache struct {
	mu       sync.Mutex
	entities map[string]*entityCache
}

func newCache() *cache {
	return &cache{entities: make(map[string]*entityCache)}
}

func (c *cache) entityFor(key string) *entityCache {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entities[key]
	if !ok {
		e = &entityCache{}
		c.entities[key] = e
	}
	return e
}

// put records that key's definition is def as of version (nil def for a
// delete), making it visible to any future read at that version or above.
func (c *cache) put(key string, version uint64, def []byte) {
	c.entityFor(key).put(version, def)
}

// get returns the cached definition for key visible at version, or
// found=false if the cache has no entry at or below version yet.
func (c *cache) get(key string, version uint64) (def []byte, found bool) {
	c.mu.Lock()
	e, ok := c.entities[key]
	c.mu.Unlock()
	if !ok {
		return nil, false
	}
	return e.at(version)
}
