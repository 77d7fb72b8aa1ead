package models

// Kind is one of the provider's media families. Each kind has its own
// response shape and its own rendering path in the picker grid.
type Kind string

const (
	KindClip      Kind = "clip"
	KindSticker   Kind = "sticker"
	KindVideoClip Kind = "video-clip"
)

// Source is the provider tag carried on every item for UI badges.
const Source = "mediahub"

func (k Kind) Valid() bool {
	switch k {
	case KindClip, KindSticker, KindVideoClip:
		return true
	}
	return false
}

// Prefix is the id prefix used for items of this kind.
func (k Kind) Prefix() string {
	switch k {
	case KindClip:
		return "clp"
	case KindSticker:
		return "stk"
	case KindVideoClip:
		return "vid"
	}
	return "med"
}

// Label is the human readable name of the kind.
func (k Kind) Label() string {
	switch k {
	case KindClip:
		return "Clip"
	case KindSticker:
		return "Sticker"
	case KindVideoClip:
		return "Video clip"
	}
	return "Media"
}

// MediaItem is the canonical, provider-independent picker item. Items are
// never mutated after the normalizer builds them.
type MediaItem struct {
	ID         string   `json:"id"`
	DisplayURL string   `json:"display_url,omitempty"`
	PreviewURL string   `json:"preview_url,omitempty"`
	Width      int      `json:"width"`
	Height     int      `json:"height"`
	Title      string   `json:"title"`
	Tags       []string `json:"tags,omitempty"`
	Kind       Kind     `json:"kind"`
	Source     string   `json:"source"`
}

// Renderable reports whether the item can be shown in the grid.
func (m MediaItem) Renderable() bool {
	return m.ID != "" && (m.DisplayURL != "" || m.PreviewURL != "")
}
