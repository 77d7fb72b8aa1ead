// Package cache holds normalized provider results for a short, fixed window.
package cache

import (
	"sync"
	"time"

	"github.com/baptistax/mediapicker/internal/models"
)

// DefaultTTL is how long a stored result is served without refetching.
const DefaultTTL = 90 * time.Second

// Clock abstracts time.Now so freshness can be tested deterministically.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Real returns the wall clock.
func Real() Clock { return realClock{} }

// Key builds the composite cache key for a kind and resolved query.
func Key(kind models.Kind, query string) string {
	return string(kind) + ":" + query
}

type entry struct {
	items    []models.MediaItem
	storedAt time.Time
}

// TTL is a key-unbounded cache whose entries expire lazily: an expired entry
// reads as a miss and stays in place until the next Put for its key. The
// key space is bounded by the fixed category table.
type TTL struct {
	mu      sync.Mutex
	ttl     time.Duration
	clock   Clock
	entries map[string]entry
}

func NewTTL(ttl time.Duration, clock Clock) *TTL {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if clock == nil {
		clock = Real()
	}
	return &TTL{
		ttl:     ttl,
		clock:   clock,
		entries: map[string]entry{},
	}
}

// Get returns the items stored under key while now-storedAt < TTL. Expired
// and absent entries both return (nil, false).
func (c *TTL) Get(key string) ([]models.MediaItem, bool) {
	c.mu.Lock()
	e, ok := c.entries[key]
	c.mu.Unlock()
	if !ok {
		return nil, false
	}
	if c.clock.Now().Sub(e.storedAt) >= c.ttl {
		return nil, false
	}
	return cloneItems(e.items), true
}

// Put overwrites any existing entry for key.
func (c *TTL) Put(key string, items []models.MediaItem) {
	e := entry{items: cloneItems(items), storedAt: c.clock.Now()}
	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
}

// Len counts stored entries, expired ones included.
func (c *TTL) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *TTL) TTL() time.Duration { return c.ttl }

func cloneItems(in []models.MediaItem) []models.MediaItem {
	if in == nil {
		return []models.MediaItem{}
	}
	out := make([]models.MediaItem, len(in))
	copy(out, in)
	for i := range out {
		if out[i].Tags != nil {
			out[i].Tags = append([]string(nil), out[i].Tags...)
		}
	}
	return out
}
