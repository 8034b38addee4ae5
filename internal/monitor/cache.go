package monitor

import (
	"sync"
	"time"
)

// brightnessTTL bounds how long a brightness reading stays valid.
// Brightness drifts (other software, monitor buttons), so reads are only
// amortised across the bursts of calls a single logical operation makes.
const brightnessTTL = 500 * time.Millisecond

// cacheKey addresses one cached value. Keys are typed tuples rather than
// concatenated strings so distinct operations can never collide.
type cacheKey struct {
	op      string
	channel Channel
	index   int
}

func enumerationKey(ch Channel) cacheKey {
	return cacheKey{op: "enumerate", channel: ch}
}

func brightnessKey(ch Channel, index int) cacheKey {
	return cacheKey{op: "brightness", channel: ch, index: index}
}

// cacheEntry is one stored value with its optional expiry.
type cacheEntry struct {
	value     any
	expiresAt time.Time // zero means the entry never expires
}

// Cache memoises enumeration results and short-lived brightness readings.
//
// Device enumeration is expensive (hardware round trips measured in
// hundreds of milliseconds to seconds) and is repeated by every resolve,
// so enumeration entries live for the process lifetime: the system does
// not watch for hot-plug events, a restart re-enumerates. Brightness
// readings expire after brightnessTTL.
//
// A miss (absent or expired) is not an error; callers compute and store.
// All methods are safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[cacheKey]cacheEntry
	now     func() time.Time // injectable clock for tests
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{
		entries: make(map[cacheKey]cacheEntry),
		now:     time.Now,
	}
}

// get returns the value stored under key, or ok=false on a miss.
func (c *Cache) get(key cacheKey) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !e.expiresAt.IsZero() && c.now().After(e.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

// store saves value under key. A ttl of zero means no expiry.
func (c *Cache) store(key cacheKey, value any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := cacheEntry{value: value}
	if ttl > 0 {
		e.expiresAt = c.now().Add(ttl)
	}
	c.entries[key] = e
}

// invalidate drops the entry under key, if any.
func (c *Cache) invalidate(key cacheKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Flush empties the cache. The next resolve re-enumerates every channel.
func (c *Cache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[cacheKey]cacheEntry)
}
