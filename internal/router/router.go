// Package router turns category selections into ready-to-render item lists.
//
// A selection resolves either to a session collection (recent, pinned),
// which is answered immediately from a snapshot, or to a provider search,
// which is answered from the TTL cache when fresh and otherwise fetched,
// normalized and cached. Every state transition is published to
// subscribers as a View.
//
// Each selection takes a token from a monotonically increasing counter.
// Only results carrying the latest token are published, so a slow response
// for an abandoned category never replaces a newer one. Concurrent misses
// for the same cache key share one provider call.
package router

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/baptistax/mediapicker/internal/cache"
	"github.com/baptistax/mediapicker/internal/metrics"
	"github.com/baptistax/mediapicker/internal/models"
	"github.com/baptistax/mediapicker/internal/normalize"
	"github.com/baptistax/mediapicker/internal/provider"
	"github.com/baptistax/mediapicker/internal/session"
)

var (
	ErrUnknownCategory = errors.New("unknown category")
	ErrNothingToRetry  = errors.New("nothing to retry")
	// ErrSuperseded is returned to a caller whose selection was overtaken by
	// a newer one before its result arrived. The result was not published.
	ErrSuperseded = errors.New("selection superseded")
)

type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusError   Status = "error"
)

// View is the view model handed to the grid on every transition.
type View struct {
	Category CategoryID         `json:"category"`
	Status   Status             `json:"status"`
	Items    []models.MediaItem `json:"items"`
	Err      error              `json:"-"`
	token    uint64
}

// Searcher is the provider surface the router depends on.
type Searcher interface {
	Search(ctx context.Context, q provider.Query) ([]provider.Record, error)
}

type Options struct {
	Searcher   Searcher
	Normalizer *normalize.Normalizer
	Session    *session.Session
	PerPage    int
	Logger     logrus.FieldLogger
}

type Router struct {
	searcher   Searcher
	normalizer *normalize.Normalizer
	sess       *session.Session
	perPage    int
	log        logrus.FieldLogger

	flight singleflight.Group

	// deliverMu orders publication: a view is stored and handed to every
	// subscriber before the next one is considered.
	deliverMu sync.Mutex

	mu        sync.Mutex
	token     uint64
	current   View
	nextSubID int
	subs      map[int]func(View)
}

func New(opts Options) (*Router, error) {
	if opts.Searcher == nil {
		return nil, errors.New("router: searcher is required")
	}
	if opts.Session == nil {
		return nil, errors.New("router: session is required")
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.Normalizer == nil {
		opts.Normalizer = normalize.New(normalize.Options{Logger: opts.Logger})
	}
	if opts.PerPage <= 0 {
		opts.PerPage = 24
	}
	return &Router{
		searcher:   opts.Searcher,
		normalizer: opts.Normalizer,
		sess:       opts.Session,
		perPage:    opts.PerPage,
		log:        opts.Logger,
		current:    View{Status: StatusIdle},
		subs:       map[int]func(View){},
	}, nil
}

// Subscribe registers fn for every published View. Views reach fn in token
// order, one at a time; fn must not call Select or Retry. The returned func
// removes the subscription.
func (r *Router) Subscribe(fn func(View)) func() {
	r.mu.Lock()
	id := r.nextSubID
	r.nextSubID++
	r.subs[id] = fn
	r.mu.Unlock()
	return func() {
		r.mu.Lock()
		delete(r.subs, id)
		r.mu.Unlock()
	}
}

// Current returns the last published view.
func (r *Router) Current() View {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Select resolves the category and returns its final view (ready or error).
// A fetch failure returns the error view together with the error.
func (r *Router) Select(ctx context.Context, id CategoryID) (View, error) {
	cat, ok := Lookup(id)
	if !ok {
		return View{}, fmt.Errorf("%w: %q", ErrUnknownCategory, id)
	}
	tok := r.nextToken()

	if cat.IsCollection() {
		return r.finish(View{Category: cat.ID, Status: StatusReady, Items: r.collectionItems(cat), token: tok})
	}
	return r.load(ctx, cat, tok)
}

// Retry re-runs the cache check and fetch for the category currently in
// the error state.
func (r *Router) Retry(ctx context.Context) (View, error) {
	r.mu.Lock()
	cur := r.current
	r.mu.Unlock()
	if cur.Status != StatusError {
		return View{}, ErrNothingToRetry
	}
	cat, ok := Lookup(cur.Category)
	if !ok {
		return View{}, ErrNothingToRetry
	}
	return r.load(ctx, cat, r.nextToken())
}

// SelectItem records a tap on item.
func (r *Router) SelectItem(item models.MediaItem) {
	r.sess.Collections.AddRecent(item)
}

// LongPressItem toggles item's pinned state and reports the new state.
func (r *Router) LongPressItem(item models.MediaItem) bool {
	return r.sess.Collections.TogglePinned(item)
}

func (r *Router) load(ctx context.Context, cat Category, tok uint64) (View, error) {
	key := cache.Key(cat.Kind, cat.Query)

	if items, ok := r.sess.Cache.Get(key); ok {
		metrics.RecordCacheLookup(string(cat.Kind), true)
		return r.finish(View{Category: cat.ID, Status: StatusReady, Items: items, token: tok})
	}
	metrics.RecordCacheLookup(string(cat.Kind), false)

	r.publish(View{Category: cat.ID, Status: StatusLoading, Items: []models.MediaItem{}, token: tok})

	items, err := r.fetch(ctx, cat, key)
	if err != nil {
		r.log.WithError(err).WithField("category", cat.ID).Warn("category fetch failed")
		v, ferr := r.finish(View{Category: cat.ID, Status: StatusError, Items: []models.MediaItem{}, Err: err, token: tok})
		if ferr != nil {
			return v, ferr
		}
		return v, err
	}
	return r.finish(View{Category: cat.ID, Status: StatusReady, Items: items, token: tok})
}

// fetch runs search, normalize and cache write as one shared call per key.
func (r *Router) fetch(ctx context.Context, cat Category, key string) ([]models.MediaItem, error) {
	v, err, shared := r.flight.Do(key, func() (any, error) {
		recs, err := r.searcher.Search(ctx, provider.Query{
			Kind:       cat.Kind,
			Query:      cat.Query,
			Page:       1,
			PerPage:    r.perPage,
			CustomerID: r.sess.CustomerID,
		})
		if err != nil {
			return nil, err
		}
		items := r.normalizer.Batch(recs)
		r.sess.Cache.Put(key, items)
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		r.log.WithField("key", key).Debug("joined in-flight fetch")
	}
	items := v.([]models.MediaItem)
	out := make([]models.MediaItem, len(items))
	copy(out, items)
	return out, nil
}

func (r *Router) collectionItems(cat Category) []models.MediaItem {
	switch cat.collection {
	case recentCollection:
		return r.sess.Collections.Recent()
	case pinnedCollection:
		return r.sess.Collections.Pinned()
	}
	return []models.MediaItem{}
}

func (r *Router) nextToken() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.token++
	return r.token
}

// finish publishes a terminal view, or reports ErrSuperseded when a newer
// selection has been issued since v's token.
func (r *Router) finish(v View) (View, error) {
	if !r.publish(v) {
		return View{}, ErrSuperseded
	}
	return v, nil
}

func (r *Router) publish(v View) bool {
	r.deliverMu.Lock()
	defer r.deliverMu.Unlock()

	r.mu.Lock()
	if v.token != r.token {
		r.mu.Unlock()
		metrics.RecordStale()
		r.log.WithFields(logrus.Fields{"category": v.Category, "status": v.Status, "token": v.token}).Debug("stale result dropped")
		return false
	}
	r.current = v
	subs := make([]func(View), 0, len(r.subs))
	for _, fn := range r.subs {
		subs = append(subs, fn)
	}
	r.mu.Unlock()

	r.log.WithFields(logrus.Fields{"category": v.Category, "status": v.Status, "token": v.token}).Debug("view published")
	for _, fn := range subs {
		fn(v)
	}
	return true
}
