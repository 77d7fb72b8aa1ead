package router

import (
	"github.com/baptistax/mediapicker/internal/models"
)

// CategoryID is the user-facing category key.
type CategoryID string

const (
	CategoryRecent    CategoryID = "recent"
	CategoryPinned    CategoryID = "pinned"
	CategoryPopular   CategoryID = "popular"
	CategoryReactions CategoryID = "reactions"
	CategoryStickers  CategoryID = "stickers"
	CategoryCelebrate CategoryID = "celebrate"
	CategoryClips     CategoryID = "clips"
	CategoryFunny     CategoryID = "funny"
)

type collection int

const (
	noCollection collection = iota
	recentCollection
	pinnedCollection
)

// Category resolves to either a session collection or a provider search.
type Category struct {
	ID    CategoryID
	Label string
	Kind  models.Kind
	Query string

	collection collection
}

// IsCollection reports whether the category bypasses the provider and cache.
func (c Category) IsCollection() bool { return c.collection != noCollection }

var categories = []Category{
	{ID: CategoryRecent, Label: "Recent", collection: recentCollection},
	{ID: CategoryPinned, Label: "Pinned", collection: pinnedCollection},
	{ID: CategoryPopular, Label: "Popular", Kind: models.KindClip, Query: "trending"},
	{ID: CategoryReactions, Label: "Reactions", Kind: models.KindClip, Query: "reactions"},
	{ID: CategoryStickers, Label: "Stickers", Kind: models.KindSticker, Query: "trending"},
	{ID: CategoryCelebrate, Label: "Celebrate", Kind: models.KindSticker, Query: "celebrate"},
	{ID: CategoryClips, Label: "Clips", Kind: models.KindVideoClip, Query: "trending"},
	{ID: CategoryFunny, Label: "Funny", Kind: models.KindVideoClip, Query: "funny"},
}

// Categories returns the fixed category table in display order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

func Lookup(id CategoryID) (Category, bool) {
	for _, c := range categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}
