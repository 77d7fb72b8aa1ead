// Package session owns the per-picker state: the TTL cache, the recent and
// pinned collections, and the opaque customer id sent to the provider.
// A Session is created when the picker opens and dropped when it closes;
// nothing is persisted.
package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/baptistax/mediapicker/internal/cache"
)

type Options struct {
	CacheTTL  time.Duration
	RecentCap int
	Clock     cache.Clock
	// CustomerID overrides the generated id.
	CustomerID string
}

type Session struct {
	CustomerID  string
	Cache       *cache.TTL
	Collections *Collections
}

func New(opts Options) *Session {
	id := opts.CustomerID
	if id == "" {
		id = uuid.NewString()
	}
	return &Session{
		CustomerID:  id,
		Cache:       cache.NewTTL(opts.CacheTTL, opts.Clock),
		Collections: NewCollections(opts.RecentCap),
	}
}
