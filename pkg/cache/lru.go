// ABOUTME: Byte-budgeted least-recently-used cache
// ABOUTME: Evicts the entry with the oldest access time until a new entry fits
package cache

import (
	"log"
	"sort"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// Entry is one cached value with its accounted size
type Entry[T any] struct {
	Value        T
	Size         int64
	LastAccessed time.Time

	seq uint64 // access order, breaks LastAccessed ties
}

// LRUStats reports cache occupancy
type LRUStats struct {
	Size        int64
	MaxSize     int64
	ItemCount   int
	Utilization float64
	Hits        int64
	Misses      int64
	Evictions   int64
}

// LRU is a size-bounded cache keyed by string. It is safe for concurrent use.
type LRU[T any] struct {
	mu          sync.Mutex
	entries     map[string]*Entry[T]
	maxSize     int64
	currentSize int64
	seq         uint64
	now         func() time.Time

	hits      int64
	misses    int64
	evictions int64
}

// NewLRU creates a cache holding at most maxBytes of accounted size
func NewLRU[T any](maxBytes int64) *LRU[T] {
	return NewLRUWithClock[T](maxBytes, time.Now)
}

// NewLRUWithClock creates a cache that stamps accesses with now
func NewLRUWithClock[T any](maxBytes int64, now func() time.Time) *LRU[T] {
	if maxBytes < 0 {
		maxBytes = 0
	}
	return &LRU[T]{
		entries: make(map[string]*Entry[T]),
		maxSize: maxBytes,
		now:     now,
	}
}

// Get returns the value for key and marks it as recently used
func (c *LRU[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		c.misses++
		var zero T
		return zero, false
	}

	c.hits++
	c.touch(entry)
	return entry.Value, true
}

// Set stores value under key, evicting least recently used entries until it
// fits. A value larger than the whole budget is not stored and Set returns false.
func (c *LRU[T]) Set(key string, value T, size int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.entries[key]; ok {
		c.currentSize -= existing.Size
		delete(c.entries, key)
	}

	if size < 0 || size > c.maxSize {
		log.Printf("Cache: rejected %s (%s exceeds %s budget)",
			key, humanize.IBytes(uint64(max(size, 0))), humanize.IBytes(uint64(c.maxSize)))
		return false
	}

	for c.currentSize+size > c.maxSize && len(c.entries) > 0 {
		c.evictOldest()
	}

	entry := &Entry[T]{Value: value, Size: size}
	c.touch(entry)
	c.entries[key] = entry
	c.currentSize += size
	return true
}

// Has reports whether key is cached without touching it
func (c *LRU[T]) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}

// Delete removes key, reporting whether it was present
func (c *LRU[T]) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return false
	}
	c.currentSize -= entry.Size
	delete(c.entries, key)
	return true
}

// Clear drops every entry
func (c *LRU[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
	c.currentSize = 0
}

// Keys returns the cached keys, least recently used first
func (c *LRU[T]) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return c.older(keys[i], keys[j])
	})
	return keys
}

// Stats returns current occupancy and counters
func (c *LRU[T]) Stats() LRUStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := LRUStats{
		Size:      c.currentSize,
		MaxSize:   c.maxSize,
		ItemCount: len(c.entries),
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
	if c.maxSize > 0 {
		stats.Utilization = float64(c.currentSize) / float64(c.maxSize)
	}
	return stats
}

func (c *LRU[T]) touch(entry *Entry[T]) {
	c.seq++
	entry.seq = c.seq
	entry.LastAccessed = c.now()
}

func (c *LRU[T]) older(a, b string) bool {
	ea, eb := c.entries[a], c.entries[b]
	if ea.LastAccessed.Equal(eb.LastAccessed) {
		return ea.seq < eb.seq
	}
	return ea.LastAccessed.Before(eb.LastAccessed)
}

// evictOldest removes the least recently used entry; caller holds mu
func (c *LRU[T]) evictOldest() {
	var oldest string
	found := false
	for key := range c.entries {
		if !found || c.older(key, oldest) {
			oldest = key
			found = true
		}
	}
	if !found {
		return
	}

	log.Printf("Cache: evicting %s", oldest)
	c.currentSize -= c.entries[oldest].Size
	delete(c.entries, oldest)
	c.evictions++
}
