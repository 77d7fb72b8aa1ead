package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baptistax/mediapicker/internal/models"
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

func items(ids ...string) []models.MediaItem {
	out := make([]models.MediaItem, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.MediaItem{ID: id, DisplayURL: "https://cdn/" + id, Kind: models.KindClip})
	}
	return out
}

func TestKey(t *testing.T) {
	assert.Equal(t, "clip:trending", Key(models.KindClip, "trending"))
	assert.Equal(t, "video-clip:funny", Key(models.KindVideoClip, "funny"))
}

func TestTTL_FreshnessBoundary(t *testing.T) {
	clk := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewTTL(90*time.Second, clk)
	c.Put("clip:trending", items("a", "b", "c"))

	clk.Advance(90*time.Second - time.Millisecond)
	got, ok := c.Get("clip:trending")
	require.True(t, ok)
	assert.Len(t, got, 3)

	clk.Advance(2 * time.Millisecond)
	got, ok = c.Get("clip:trending")
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestTTL_ExactlyTTLIsExpired(t *testing.T) {
	clk := &fakeClock{now: time.Unix(0, 0)}
	c := NewTTL(time.Minute, clk)
	c.Put("k", items("a"))
	clk.Advance(time.Minute)
	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestTTL_MissingKey(t *testing.T) {
	c := NewTTL(0, nil)
	assert.Equal(t, DefaultTTL, c.TTL())
	_, ok := c.Get("sticker:trending")
	assert.False(t, ok)
}

func TestTTL_PutOverwritesAndRestartsWindow(t *testing.T) {
	clk := &fakeClock{now: time.Unix(0, 0)}
	c := NewTTL(90*time.Second, clk)
	c.Put("k", items("old"))
	clk.Advance(80 * time.Second)
	c.Put("k", items("new1", "new2"))
	clk.Advance(80 * time.Second)

	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "new1", got[0].ID)
	assert.Equal(t, 1, c.Len())
}

func TestTTL_ExpiredEntriesAreNotSwept(t *testing.T) {
	clk := &fakeClock{now: time.Unix(0, 0)}
	c := NewTTL(time.Second, clk)
	c.Put("a", items("1"))
	c.Put("b", items("2"))
	clk.Advance(time.Hour)
	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 2, c.Len())
}

func TestTTL_EmptyResultIsAHit(t *testing.T) {
	c := NewTTL(time.Minute, &fakeClock{now: time.Unix(0, 0)})
	c.Put("clip:nothing", nil)
	got, ok := c.Get("clip:nothing")
	assert.True(t, ok)
	assert.Empty(t, got)
}

func TestTTL_ReturnedSliceIsACopy(t *testing.T) {
	c := NewTTL(time.Minute, &fakeClock{now: time.Unix(0, 0)})
	src := items("a")
	c.Put("k", src)
	src[0].ID = "mutated"

	got, _ := c.Get("k")
	got[0].ID = "also-mutated"
	again, _ := c.Get("k")
	assert.Equal(t, "a", again[0].ID)
}

func TestTTL_TagsAreNotShared(t *testing.T) {
	c := NewTTL(time.Minute, &fakeClock{now: time.Unix(0, 0)})
	src := []models.MediaItem{{ID: "a", Tags: []string{"cat", "wave"}}}
	c.Put("k", src)
	src[0].Tags[0] = "dog"

	got, ok := c.Get("k")
	require.True(t, ok)
	got[0].Tags[1] = "jump"

	again, _ := c.Get("k")
	assert.Equal(t, []string{"cat", "wave"}, again[0].Tags)
}
