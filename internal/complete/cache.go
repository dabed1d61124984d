package complete

import "github.com/cespare/xxhash/v2"

// CacheKey identifies a context string.
type CacheKey uint64

// KeyFor digests a context string. Identical contexts always share a key.
func KeyFor(contextText string) CacheKey {
	return CacheKey(xxhash.Sum64String(contextText))
}

// SuggestionRecord is a sanitized suggestion kept for reuse.
type SuggestionRecord struct {
	Text string
	Seq  uint64 // insertion order
}

// DefaultCacheCapacity is used when a non-positive capacity is requested.
const DefaultCacheCapacity = 50

// Cache is a fixed-capacity FIFO of suggestions. Lookups never change the
// eviction order. Not safe for concurrent use; it belongs to the event loop.
type Cache struct {
	capacity int
	entries  map[CacheKey]SuggestionRecord
	order    []CacheKey // oldest first
	seq      uint64
}

// NewCache creates an empty cache.
func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	return &Cache{
		capacity: capacity,
		entries:  make(map[CacheKey]SuggestionRecord, capacity),
	}
}

// Get returns the record for key.
func (c *Cache) Get(key CacheKey) (SuggestionRecord, bool) {
	rec, ok := c.entries[key]
	return rec, ok
}

// Put stores text under key. Replacing an existing key keeps its position;
// a new key evicts the oldest entry once the cache is full.
func (c *Cache) Put(key CacheKey, text string) {
	if rec, ok := c.entries[key]; ok {
		rec.Text = text
		c.entries[key] = rec
		return
	}
	for len(c.order) >= c.capacity {
		delete(c.entries, c.order[0])
		c.order = c.order[1:]
	}
	c.seq++
	c.entries[key] = SuggestionRecord{Text: text, Seq: c.seq}
	c.order = append(c.order, key)
}

// Clear drops every entry.
func (c *Cache) Clear() {
	clear(c.entries)
	c.order = c.order[:0]
}

// Len returns the number of entries.
func (c *Cache) Len() int {
	return len(c.order)
}

// Capacity returns the maximum number of entries.
func (c *Cache) Capacity() int {
	return c.capacity
}
