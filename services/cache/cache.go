// Package cache implements QueryCache: an LRU cache with TTL expiration,
// keyed by a normalized fingerprint of the user's query, storing the final
// response and its sources so an identical question asked twice doesn't
// repeat retrieval or an LLM call.
package cache

import (
	"container/list"
	"crypto/md5"
	"encoding/hex"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cortexguard/secure-rag/services/retrieval"
)

// Entry is the cached payload for one query fingerprint.
type Entry struct {
	Response string
	Sources  []retrieval.SourceReference
}

type cacheEntry struct {
	key       string
	value     Entry
	expiresAt time.Time
}

// QueryCache is a thread-safe LRU+TTL cache. The zero value is not usable;
// construct with New.
type QueryCache struct {
	mu      sync.RWMutex
	entries map[string]*list.Element
	lru     *list.List
	ttl     time.Duration
	maxSize int

	hits   atomic.Int64
	misses atomic.Int64
}

// New creates a cache with the given TTL and maximum entry count. Both
// must be positive.
func New(ttl time.Duration, maxSize int) *QueryCache {
	return &QueryCache{
		entries: make(map[string]*list.Element),
		lru:     list.New(),
		ttl:     ttl,
		maxSize: maxSize,
	}
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// Fingerprint normalizes query (lowercase, whitespace-collapsed) and
// returns its MD5 hex digest, the cache key used by Get and Set.
func Fingerprint(query string) string {
	normalized := strings.TrimSpace(whitespaceRun.ReplaceAllString(strings.ToLower(query), " "))
	sum := md5.Sum([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// Get looks up query's fingerprint. A miss is returned for an absent or
// expired entry; an expired entry is evicted lazily on the same call.
func (c *QueryCache) Get(query string) (Entry, bool) {
	key := Fingerprint(query)

	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		c.misses.Add(1)
		return Entry{}, false
	}

	entry := elem.Value.(*cacheEntry)
	if time.Now().After(entry.expiresAt) {
		c.removeElement(elem)
		c.misses.Add(1)
		return Entry{}, false
	}

	c.lru.MoveToFront(elem)
	c.hits.Add(1)
	return entry.value, true
}

// Set stores value under query's fingerprint, evicting the least recently
// used entry first if the cache is at capacity.
func (c *QueryCache) Set(query string, value Entry) {
	key := Fingerprint(query)

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		entry := elem.Value.(*cacheEntry)
		entry.value = value
		entry.expiresAt = time.Now().Add(c.ttl)
		c.lru.MoveToFront(elem)
		return
	}

	for c.lru.Len() >= c.maxSize {
		c.evictOldest()
	}

	entry := &cacheEntry{key: key, value: value, expiresAt: time.Now().Add(c.ttl)}
	elem := c.lru.PushFront(entry)
	c.entries[key] = elem
}

// Size returns the current number of entries.
func (c *QueryCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lru.Len()
}

// HitRate returns hits / (hits + misses), or 0 if there have been no
// lookups yet.
func (c *QueryCache) HitRate() float64 {
	hits := c.hits.Load()
	misses := c.misses.Load()
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// Hits returns the total number of cache hits.
func (c *QueryCache) Hits() int64 { return c.hits.Load() }

// Misses returns the total number of cache misses.
func (c *QueryCache) Misses() int64 { return c.misses.Load() }

func (c *QueryCache) evictOldest() {
	elem := c.lru.Back()
	if elem != nil {
		c.removeElement(elem)
	}
}

func (c *QueryCache) removeElement(elem *list.Element) {
	entry := elem.Value.(*cacheEntry)
	delete(c.entries, entry.key)
	c.lru.Remove(elem)
}
