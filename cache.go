package deepzoom

import (
	lru "github.com/hashicorp/golang-lru"
)

// orbitCacheSize bounds the number of glitch-resolution reference orbits
// kept resident at once. Each entry is tens of megabytes at high
// max_iterations, so the cap trades a rare recompute for a hard memory
// ceiling during glitch resolution.
const orbitCacheSize = 64

// OrbitCache is a bounded store of reference orbits keyed by orbit_id, used
// during glitch resolution where each subdivided cell gets its own
// reference point and orbit. Least-recently-used orbits are
// evicted once the cache is full; a caller that needs an evicted orbit
// recomputes it the same way it was computed the first time.
type OrbitCache struct {
	lru *lru.Cache
}

// NewOrbitCache builds an OrbitCache with room for orbitCacheSize entries.
func NewOrbitCache() *OrbitCache {
	c, err := lru.New(orbitCacheSize)
	if err != nil {
		// Only returns an error for a non-positive size, which
		// orbitCacheSize never is.
		panic(err)
	}
	return &OrbitCache{lru: c}
}

// Get returns the orbit stored for id, if still resident.
func (c *OrbitCache) Get(id uint64) (*ReferenceOrbit, bool) {
	v, ok := c.lru.Get(id)
	if !ok {
		return nil, false
	}
	return v.(*ReferenceOrbit), true
}

// Put stores orbit under id, possibly evicting the least recently used
// entry.
func (c *OrbitCache) Put(id uint64, orbit *ReferenceOrbit) {
	c.lru.Add(id, orbit)
}

// Remove evicts id, if present.
func (c *OrbitCache) Remove(id uint64) {
	c.lru.Remove(id)
}

// Len reports how many orbits are currently resident.
func (c *OrbitCache) Len() int {
	return c.lru.Len()
}
