// Package cache stores OCR and description results keyed by screen region,
// optionally partitioned by an application context.
//
// The cache is bounded. When it grows past its maximum size, the least-hit
// fifth of the entries is removed from the global store, the hit table and
// every context partition in one step.
package cache

import (
	"sort"
	"sync"
)

// DefaultMaxSize is the global entry limit used when none is configured.
const DefaultMaxSize = 200

// evictFraction is the share of MaxSize removed by one cleanup pass.
const evictFraction = 0.2

type entry struct {
	value string
	seq   uint64
}

// ContextCache is a bounded key/value store with hit-count-biased eviction.
//
// ContextCache is safe for concurrent use, though the engine only touches it
// from the polling loop.
type ContextCache struct {
	mu       sync.RWMutex
	maxSize  int
	global   map[string]entry
	contexts map[string]map[string]string
	hits     map[string]int
	seq      uint64
}

// New creates an empty cache holding at most maxSize global entries.
// A non-positive maxSize selects DefaultMaxSize.
func New(maxSize int) *ContextCache {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &ContextCache{
		maxSize:  maxSize,
		global:   make(map[string]entry),
		contexts: make(map[string]map[string]string),
		hits:     make(map[string]int),
	}
}

// Get looks up key, preferring the context partition when ctx is non-empty.
// A successful lookup increments the hit counter for key.
func (c *ContextCache) Get(key, ctx string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ctx != "" {
		if part, ok := c.contexts[ctx]; ok {
			if v, ok := part[key]; ok {
				c.hits[key]++
				return v, true
			}
		}
	}
	if e, ok := c.global[key]; ok {
		c.hits[key]++
		return e.value, true
	}
	return "", false
}

// Set stores value globally and, when ctx is non-empty, in that context's
// partition, then enforces the size bound.
func (c *ContextCache) Set(key, value, ctx string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.global[key]; ok {
		e.value = value
		c.global[key] = e
	} else {
		c.seq++
		c.global[key] = entry{value: value, seq: c.seq}
	}
	if _, ok := c.hits[key]; !ok {
		c.hits[key] = 0
	}
	if ctx != "" {
		part, ok := c.contexts[ctx]
		if !ok {
			part = make(map[string]string)
			c.contexts[ctx] = part
		}
		part[key] = value
	}
	c.cleanup()
}

// cleanup removes the lowest-hit entries once the global store is over the
// limit. Ties are broken by insertion order, oldest first. Callers hold mu.
func (c *ContextCache) cleanup() {
	if len(c.global) <= c.maxSize {
		return
	}

	type ranked struct {
		key  string
		hits int
		seq  uint64
	}
	all := make([]ranked, 0, len(c.global))
	for k, e := range c.global {
		all = append(all, ranked{key: k, hits: c.hits[k], seq: e.seq})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].hits != all[j].hits {
			return all[i].hits < all[j].hits
		}
		return all[i].seq < all[j].seq
	})

	n := max(int(float64(c.maxSize)*evictFraction), 1)
	// always get back under the bound even if many keys arrived at once
	n = max(n, len(c.global)-c.maxSize)
	for _, r := range all[:min(n, len(all))] {
		delete(c.global, r.key)
		delete(c.hits, r.key)
		for name, part := range c.contexts {
			delete(part, r.key)
			if len(part) == 0 {
				delete(c.contexts, name)
			}
		}
	}
}

// Len returns the number of global entries.
func (c *ContextCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.global)
}

// MaxSize returns the configured global bound.
func (c *ContextCache) MaxSize() int {
	return c.maxSize
}

// Hits returns the hit count recorded for key.
func (c *ContextCache) Hits(key string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits[key]
}

// Contains reports whether key is present in the global store without
// counting as a hit.
func (c *ContextCache) Contains(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.global[key]
	return ok
}

// Reset drops every entry, partition and hit count.
func (c *ContextCache) Reset() {
	c.mu.Lock()
	c.global = make(map[string]entry)
	c.contexts = make(map[string]map[string]string)
	c.hits = make(map[string]int)
	c.mu.Unlock()
}

// Stats summarizes cache occupancy.
type Stats struct {
	Entries  int `json:"entries"`
	Contexts int `json:"contexts"`
	MaxSize  int `json:"max_size"`
}

// Stats returns current occupancy figures.
func (c *ContextCache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{Entries: len(c.global), Contexts: len(c.contexts), MaxSize: c.maxSize}
}
