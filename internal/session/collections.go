package session

import (
	"sync"

	"github.com/baptistax/mediapicker/internal/models"
)

// DefaultRecentCap bounds the recent list.
const DefaultRecentCap = 50

// Collections tracks the user's recent and pinned items for one session.
// Both lists keep the newest entry first and hold each id at most once.
type Collections struct {
	mu        sync.Mutex
	recentCap int
	recent    []models.MediaItem
	pinned    []models.MediaItem
}

func NewCollections(recentCap int) *Collections {
	if recentCap <= 0 {
		recentCap = DefaultRecentCap
	}
	return &Collections{recentCap: recentCap}
}

// AddRecent moves item to the front of the recent list, dropping the oldest
// entries beyond the cap.
func (c *Collections) AddRecent(item models.MediaItem) {
	if item.ID == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	next := make([]models.MediaItem, 0, min(len(c.recent)+1, c.recentCap))
	next = append(next, item)
	for _, it := range c.recent {
		if len(next) == c.recentCap {
			break
		}
		if it.ID == item.ID {
			continue
		}
		next = append(next, it)
	}
	c.recent = next
}

// TogglePinned removes item if pinned, otherwise pins it at the front. It
// reports whether the item is pinned after the call.
func (c *Collections) TogglePinned(item models.MediaItem) bool {
	if item.ID == "" {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, it := range c.pinned {
		if it.ID == item.ID {
			c.pinned = append(c.pinned[:i:i], c.pinned[i+1:]...)
			return false
		}
	}
	next := make([]models.MediaItem, 0, len(c.pinned)+1)
	next = append(next, item)
	c.pinned = append(next, c.pinned...)
	return true
}

func (c *Collections) IsPinned(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, it := range c.pinned {
		if it.ID == id {
			return true
		}
	}
	return false
}

// Recent returns a snapshot; later mutations do not affect it.
func (c *Collections) Recent() []models.MediaItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return snapshot(c.recent)
}

// Pinned returns a snapshot; later mutations do not affect it.
func (c *Collections) Pinned() []models.MediaItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return snapshot(c.pinned)
}

func snapshot(in []models.MediaItem) []models.MediaItem {
	out := make([]models.MediaItem, len(in))
	copy(out, in)
	return out
}
