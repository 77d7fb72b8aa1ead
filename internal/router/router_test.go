package router

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baptistax/mediapicker/internal/models"
	"github.com/baptistax/mediapicker/internal/normalize"
	"github.com/baptistax/mediapicker/internal/provider"
	"github.com/baptistax/mediapicker/internal/session"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

type fakeSearcher struct {
	mu      sync.Mutex
	calls   []provider.Query
	respond func(q provider.Query, call int) ([]provider.Record, error)
}

func (f *fakeSearcher) Search(ctx context.Context, q provider.Query) ([]provider.Record, error) {
	f.mu.Lock()
	f.calls = append(f.calls, q)
	n := len(f.calls)
	f.mu.Unlock()
	return f.respond(q, n)
}

func (f *fakeSearcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func clipRecord(id string) *provider.ClipRecord {
	r := &provider.ClipRecord{ID: id, Title: "clip " + id}
	r.Images.Downsized = provider.ClipImage{URL: "https://cdn.example/" + id + ".gif"}
	return r
}

func stickerRecord(id string, withAsset bool) *provider.StickerRecord {
	r := &provider.StickerRecord{ID: id}
	if withAsset {
		r.MediaFormats.TinyGIF = provider.StickerFormat{URL: "https://cdn.example/" + id + ".gif", Dims: []provider.FlexInt{220, 220}}
	}
	return r
}

type harness struct {
	router   *Router
	searcher *fakeSearcher
	session  *session.Session
	clock    *fakeClock
}

func newHarness(t *testing.T, respond func(q provider.Query, call int) ([]provider.Record, error)) *harness {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	clk := &fakeClock{now: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)}
	sess := session.New(session.Options{CacheTTL: 90 * time.Second, Clock: clk, CustomerID: "cust-42"})
	s := &fakeSearcher{respond: respond}
	r, err := New(Options{
		Searcher:   s,
		Normalizer: normalize.New(normalize.Options{TileCeiling: 512, Logger: log}),
		Session:    sess,
		PerPage:    24,
		Logger:     log,
	})
	require.NoError(t, err)
	return &harness{router: r, searcher: s, session: sess, clock: clk}
}

func threeClips(q provider.Query, call int) ([]provider.Record, error) {
	return []provider.Record{clipRecord("a"), clipRecord("b"), clipRecord("c")}, nil
}

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := New(Options{Session: session.New(session.Options{})})
	assert.Error(t, err)
	_, err = New(Options{Searcher: &fakeSearcher{}})
	assert.Error(t, err)
}

func TestSelect_UnknownCategory(t *testing.T) {
	h := newHarness(t, threeClips)
	_, err := h.router.Select(context.Background(), "gifs")
	assert.ErrorIs(t, err, ErrUnknownCategory)
	assert.Equal(t, StatusIdle, h.router.Current().Status)
}

func TestSelect_PopularFetchesAndCaches(t *testing.T) {
	h := newHarness(t, threeClips)

	var seen []Status
	h.router.Subscribe(func(v View) { seen = append(seen, v.Status) })

	v, err := h.router.Select(context.Background(), CategoryPopular)
	require.NoError(t, err)
	assert.Equal(t, StatusReady, v.Status)
	require.Len(t, v.Items, 3)
	assert.Equal(t, "clp_a", v.Items[0].ID)
	assert.Equal(t, []Status{StatusLoading, StatusReady}, seen)

	require.Equal(t, 1, h.searcher.Calls())
	q := h.searcher.calls[0]
	assert.Equal(t, models.KindClip, q.Kind)
	assert.Equal(t, "trending", q.Query)
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, 24, q.PerPage)
	assert.Equal(t, "cust-42", q.CustomerID)

	cached, ok := h.session.Cache.Get("clip:trending")
	require.True(t, ok)
	assert.Len(t, cached, 3)
}

func TestSelect_CacheHitWithinTTL(t *testing.T) {
	h := newHarness(t, threeClips)
	first, err := h.router.Select(context.Background(), CategoryPopular)
	require.NoError(t, err)

	h.clock.Advance(60 * time.Second)
	var seen []Status
	h.router.Subscribe(func(v View) { seen = append(seen, v.Status) })

	second, err := h.router.Select(context.Background(), CategoryPopular)
	require.NoError(t, err)
	assert.Equal(t, 1, h.searcher.Calls())
	assert.Equal(t, first.Items, second.Items)
	assert.Equal(t, []Status{StatusReady}, seen)
}

func TestSelect_RefetchAfterTTL(t *testing.T) {
	h := newHarness(t, threeClips)
	_, err := h.router.Select(context.Background(), CategoryPopular)
	require.NoError(t, err)

	h.clock.Advance(91 * time.Second)
	_, err = h.router.Select(context.Background(), CategoryPopular)
	require.NoError(t, err)
	assert.Equal(t, 2, h.searcher.Calls())
}

func TestSelect_StickersDropsRecordsWithoutAssets(t *testing.T) {
	h := newHarness(t, func(q provider.Query, call int) ([]provider.Record, error) {
		return []provider.Record{
			stickerRecord("ok1", true),
			stickerRecord("broken", false),
			stickerRecord("ok2", true),
		}, nil
	})

	v, err := h.router.Select(context.Background(), CategoryStickers)
	require.NoError(t, err)
	require.Len(t, v.Items, 2)
	assert.Equal(t, "stk_ok1", v.Items[0].ID)
	assert.Equal(t, "stk_ok2", v.Items[1].ID)
	for _, it := range v.Items {
		assert.True(t, it.Renderable())
	}
}

func TestSelect_EmptyProviderResultIsReady(t *testing.T) {
	h := newHarness(t, func(q provider.Query, call int) ([]provider.Record, error) {
		return []provider.Record{}, nil
	})
	v, err := h.router.Select(context.Background(), CategoryFunny)
	require.NoError(t, err)
	assert.Equal(t, StatusReady, v.Status)
	assert.Empty(t, v.Items)
}

func TestLongPress_PinnedRoundTrip(t *testing.T) {
	h := newHarness(t, threeClips)
	v, err := h.router.Select(context.Background(), CategoryPopular)
	require.NoError(t, err)
	target := v.Items[1]

	assert.True(t, h.router.LongPressItem(target))
	pinned, err := h.router.Select(context.Background(), CategoryPinned)
	require.NoError(t, err)
	require.Len(t, pinned.Items, 1)
	assert.Equal(t, target.ID, pinned.Items[0].ID)

	assert.False(t, h.router.LongPressItem(target))
	pinned, err = h.router.Select(context.Background(), CategoryPinned)
	require.NoError(t, err)
	assert.Empty(t, pinned.Items)
	assert.Equal(t, 1, h.searcher.Calls())
}

func TestCollectionViewIsASnapshot(t *testing.T) {
	h := newHarness(t, threeClips)
	v, _ := h.router.Select(context.Background(), CategoryPopular)
	h.router.SelectItem(v.Items[0])

	recent, err := h.router.Select(context.Background(), CategoryRecent)
	require.NoError(t, err)
	require.Len(t, recent.Items, 1)

	h.router.SelectItem(v.Items[1])
	h.router.SelectItem(v.Items[2])
	assert.Len(t, recent.Items, 1)
	assert.Len(t, h.router.Current().Items, 1)

	recent, err = h.router.Select(context.Background(), CategoryRecent)
	require.NoError(t, err)
	require.Len(t, recent.Items, 3)
	assert.Equal(t, v.Items[2].ID, recent.Items[0].ID)
}

func TestSelect_ErrorThenRetry(t *testing.T) {
	boom := fmt.Errorf("%w: dial tcp: connection refused", provider.ErrNoResponse)
	h := newHarness(t, func(q provider.Query, call int) ([]provider.Record, error) {
		if call == 1 {
			return nil, boom
		}
		return []provider.Record{clipRecord("a")}, nil
	})

	_, err := h.router.Retry(context.Background())
	assert.ErrorIs(t, err, ErrNothingToRetry)

	v, err := h.router.Select(context.Background(), CategoryReactions)
	require.Error(t, err)
	assert.ErrorIs(t, err, provider.ErrNoResponse)
	assert.Equal(t, StatusError, v.Status)
	assert.Equal(t, StatusError, h.router.Current().Status)
	assert.Equal(t, 0, h.session.Cache.Len())

	v, err = h.router.Retry(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusReady, v.Status)
	assert.Equal(t, CategoryReactions, v.Category)
	require.Len(t, v.Items, 1)
	assert.Equal(t, 2, h.searcher.Calls())
	assert.Equal(t, "reactions", h.searcher.calls[1].Query)

	_, err = h.router.Retry(context.Background())
	assert.ErrorIs(t, err, ErrNothingToRetry)
}

func TestSelect_StaleResponseIsDiscarded(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{}, 1)
	h := newHarness(t, func(q provider.Query, call int) ([]provider.Record, error) {
		if q.Kind == models.KindVideoClip {
			entered <- struct{}{}
			<-release
			return []provider.Record{&provider.VideoRecord{Image: "https://cdn.example/slow.jpg"}}, nil
		}
		return []provider.Record{clipRecord("fast")}, nil
	})

	type result struct {
		v   View
		err error
	}
	slow := make(chan result, 1)
	go func() {
		v, err := h.router.Select(context.Background(), CategoryClips)
		slow <- result{v, err}
	}()
	<-entered

	fast, err := h.router.Select(context.Background(), CategoryPopular)
	require.NoError(t, err)
	assert.Equal(t, CategoryPopular, fast.Category)

	close(release)
	res := <-slow
	assert.ErrorIs(t, res.err, ErrSuperseded)

	cur := h.router.Current()
	assert.Equal(t, CategoryPopular, cur.Category)
	assert.Equal(t, "clp_fast", cur.Items[0].ID)

	// The slow result still lands in the cache for the next selection.
	_, ok := h.session.Cache.Get("video-clip:trending")
	assert.True(t, ok)
}

func TestSelect_ConcurrentMissesShareOneFetch(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{}, 4)
	h := newHarness(t, func(q provider.Query, call int) ([]provider.Record, error) {
		entered <- struct{}{}
		<-release
		return []provider.Record{clipRecord("a"), clipRecord("b")}, nil
	})

	loading := make(chan struct{}, 4)
	h.router.Subscribe(func(v View) {
		if v.Status == StatusLoading {
			loading <- struct{}{}
		}
	})

	var wg sync.WaitGroup
	errs := make([]error, 2)
	views := make([]View, 2)
	wg.Add(1)
	go func() {
		defer wg.Done()
		views[0], errs[0] = h.router.Select(context.Background(), CategoryPopular)
	}()
	<-entered
	<-loading

	wg.Add(1)
	go func() {
		defer wg.Done()
		views[1], errs[1] = h.router.Select(context.Background(), CategoryPopular)
	}()
	<-loading
	// Give the second selection time to join the in-flight call.
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, 1, h.searcher.Calls())
	assert.ErrorIs(t, errs[0], ErrSuperseded)
	require.NoError(t, errs[1])
	assert.Len(t, views[1].Items, 2)
}

func TestSubscribe_DeliversInTokenOrder(t *testing.T) {
	h := newHarness(t, threeClips)

	var mu sync.Mutex
	var delivered []uint64
	h.router.Subscribe(func(v View) {
		mu.Lock()
		delivered = append(delivered, v.token)
		mu.Unlock()
		// Widen the window between storing a view and delivering it.
		time.Sleep(time.Millisecond)
	})

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		id := CategoryPinned
		if i%2 == 1 {
			id = CategoryRecent
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = h.router.Select(context.Background(), id)
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, delivered)
	for i := 1; i < len(delivered); i++ {
		assert.Less(t, delivered[i-1], delivered[i], "delivery %d out of order", i)
	}
	assert.Equal(t, h.router.Current().token, delivered[len(delivered)-1])
}

func TestSubscribe_Unsubscribe(t *testing.T) {
	h := newHarness(t, threeClips)
	count := 0
	unsubscribe := h.router.Subscribe(func(View) { count++ })
	_, _ = h.router.Select(context.Background(), CategoryPinned)
	unsubscribe()
	_, _ = h.router.Select(context.Background(), CategoryRecent)
	assert.Equal(t, 1, count)
}

func TestCategories_Table(t *testing.T) {
	cats := Categories()
	require.Len(t, cats, 8)
	assert.True(t, cats[0].IsCollection())
	assert.True(t, cats[1].IsCollection())

	popular, ok := Lookup(CategoryPopular)
	require.True(t, ok)
	assert.Equal(t, models.KindClip, popular.Kind)
	assert.Equal(t, "trending", popular.Query)
	assert.False(t, popular.IsCollection())

	for _, c := range cats {
		if !c.IsCollection() {
			assert.True(t, c.Kind.Valid(), c.ID)
			assert.NotEmpty(t, c.Query, c.ID)
		}
	}
	_, ok = Lookup("nope")
	assert.False(t, ok)
}

func TestSelect_ContextCancelledSearchIsError(t *testing.T) {
	h := newHarness(t, func(q provider.Query, call int) ([]provider.Record, error) {
		return nil, fmt.Errorf("%w: %v", provider.ErrNoResponse, context.Canceled)
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	v, err := h.router.Select(ctx, CategoryCelebrate)
	require.Error(t, err)
	assert.True(t, errors.Is(err, provider.ErrNoResponse))
	assert.Equal(t, StatusError, v.Status)
}
