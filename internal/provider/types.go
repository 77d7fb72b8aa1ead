package provider

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/baptistax/mediapicker/internal/models"
)

// Query scopes one provider search.
type Query struct {
	Kind       models.Kind
	Query      string
	Page       int
	PerPage    int
	CustomerID string
}

// Record is one raw, provider-shaped result. The concrete type is one of
// *ClipRecord, *StickerRecord or *VideoRecord.
type Record interface {
	Kind() models.Kind
}

// Rendition is a single asset variant with its declared dimensions.
type Rendition struct {
	URL    string
	Width  int
	Height int
}

// FlexInt accepts JSON numbers (integral or not) and numeric strings. The
// clip endpoint reports dimensions as strings, the sticker endpoint
// sometimes as floats. Fractions are truncated.
type FlexInt int

func (f *FlexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = FlexInt(n)
	return nil
}

type ClipImage struct {
	URL    string  `json:"url"`
	Width  FlexInt `json:"width"`
	Height FlexInt `json:"height"`
}

func (i ClipImage) Rendition() Rendition {
	return Rendition{URL: strings.TrimSpace(i.URL), Width: int(i.Width), Height: int(i.Height)}
}

type ClipImages struct {
	Original        ClipImage `json:"original"`
	Downsized       ClipImage `json:"downsized"`
	FixedWidth      ClipImage `json:"fixed_width"`
	FixedWidthSmall ClipImage `json:"fixed_width_small"`
	Preview         ClipImage `json:"preview"`
}

// ClipRecord is an animated clip as returned under "data".
type ClipRecord struct {
	ID     string     `json:"id"`
	Title  string     `json:"title"`
	Tags   []string   `json:"tags"`
	Images ClipImages `json:"images"`
}

func (*ClipRecord) Kind() models.Kind { return models.KindClip }

// Ladder returns the renditions ordered high, medium, small, extra-small.
func (r *ClipRecord) Ladder() []Rendition {
	return []Rendition{
		r.Images.Original.Rendition(),
		r.Images.Downsized.Rendition(),
		r.Images.FixedWidth.Rendition(),
		r.Images.FixedWidthSmall.Rendition(),
	}
}

type StickerFormat struct {
	URL  string    `json:"url"`
	Dims []FlexInt `json:"dims"`
}

func (f StickerFormat) Rendition() Rendition {
	r := Rendition{URL: strings.TrimSpace(f.URL)}
	if len(f.Dims) >= 2 {
		r.Width, r.Height = int(f.Dims[0]), int(f.Dims[1])
	}
	return r
}

type StickerFormats struct {
	GIF        StickerFormat `json:"gif"`
	MediumGIF  StickerFormat `json:"mediumgif"`
	TinyGIF    StickerFormat `json:"tinygif"`
	NanoGIF    StickerFormat `json:"nanogif"`
	GIFPreview StickerFormat `json:"gifpreview"`
}

// StickerRecord is a sticker as returned under "results".
type StickerRecord struct {
	ID                 string         `json:"id"`
	ContentDescription string         `json:"content_description"`
	Tags               []string       `json:"tags"`
	MediaFormats       StickerFormats `json:"media_formats"`
}

func (*StickerRecord) Kind() models.Kind { return models.KindSticker }

func (r *StickerRecord) Ladder() []Rendition {
	return []Rendition{
		r.MediaFormats.GIF.Rendition(),
		r.MediaFormats.MediumGIF.Rendition(),
		r.MediaFormats.TinyGIF.Rendition(),
		r.MediaFormats.NanoGIF.Rendition(),
	}
}

// FlexID accepts an id sent as a JSON string or number. Anything else
// decodes to the empty id, which the normalizer replaces with a fallback.
type FlexID string

func (id *FlexID) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*id = FlexID(strings.TrimSpace(s))
		return nil
	}
	if _, err := strconv.ParseFloat(raw, 64); err == nil {
		*id = FlexID(raw)
		return nil
	}
	*id = ""
	return nil
}

type VideoFile struct {
	Quality string `json:"quality"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Link    string `json:"link"`
}

type VideoUser struct {
	Name string `json:"name"`
}

// VideoRecord is a short video clip as returned under "videos". Its id is
// usually numeric on the wire.
type VideoRecord struct {
	ID         FlexID      `json:"id"`
	URL        string      `json:"url"`
	User       VideoUser   `json:"user"`
	Tags       []string    `json:"tags"`
	VideoFiles []VideoFile `json:"video_files"`
	Image      string      `json:"image"`
}

func (*VideoRecord) Kind() models.Kind { return models.KindVideoClip }

var videoQualities = []string{"hd", "sd", "small", "tiny"}

// Ladder picks the first file of each quality tier. Tiers the provider did
// not return come back as empty renditions.
func (r *VideoRecord) Ladder() []Rendition {
	out := make([]Rendition, 0, len(videoQualities))
	for _, q := range videoQualities {
		rend := Rendition{}
		for _, f := range r.VideoFiles {
			if strings.EqualFold(strings.TrimSpace(f.Quality), q) && strings.TrimSpace(f.Link) != "" {
				rend = Rendition{URL: strings.TrimSpace(f.Link), Width: f.Width, Height: f.Height}
				break
			}
		}
		out = append(out, rend)
	}
	return out
}
