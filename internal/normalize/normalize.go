// Package normalize maps raw provider records onto models.MediaItem.
package normalize

import (
	"fmt"
	"io"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"github.com/baptistax/mediapicker/internal/metrics"
	"github.com/baptistax/mediapicker/internal/models"
	"github.com/baptistax/mediapicker/internal/provider"
)

// Reject reasons.
const (
	ReasonNoAsset   = "no_asset"
	ReasonDuplicate = "duplicate_id"
	ReasonUnknown   = "unknown_record"
)

type Options struct {
	// TileCeiling caps rendition selection and item dimensions.
	TileCeiling int
	Logger      logrus.FieldLogger
	Now         func() time.Time
	Entropy     io.Reader
}

// Normalizer is safe for concurrent use.
type Normalizer struct {
	ceiling int
	log     logrus.FieldLogger
	now     func() time.Time

	mu      sync.Mutex
	entropy io.Reader
}

func New(opts Options) *Normalizer {
	if opts.TileCeiling <= 0 {
		opts.TileCeiling = 512
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Entropy == nil {
		opts.Entropy = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
	}
	return &Normalizer{
		ceiling: opts.TileCeiling,
		log:     opts.Logger,
		now:     opts.Now,
		entropy: opts.Entropy,
	}
}

// fields is the kind-independent view of a raw record.
type fields struct {
	providerID string
	title      string
	tags       []string
	ladder     []provider.Rendition
	preview    provider.Rendition
}

func extract(rec provider.Record) (fields, bool) {
	switch r := rec.(type) {
	case *provider.ClipRecord:
		return fields{
			providerID: r.ID,
			title:      r.Title,
			tags:       r.Tags,
			ladder:     r.Ladder(),
			preview:    r.Images.Preview.Rendition(),
		}, true
	case *provider.StickerRecord:
		return fields{
			providerID: r.ID,
			title:      r.ContentDescription,
			tags:       r.Tags,
			ladder:     r.Ladder(),
			preview:    r.MediaFormats.GIFPreview.Rendition(),
		}, true
	case *provider.VideoRecord:
		title := ""
		if name := strings.TrimSpace(r.User.Name); name != "" {
			title = "Video by " + name
		}
		return fields{
			providerID: string(r.ID),
			title:      title,
			tags:       r.Tags,
			ladder:     r.Ladder(),
			preview:    provider.Rendition{URL: strings.TrimSpace(r.Image)},
		}, true
	}
	return fields{}, false
}

// Item converts one record, index being its position in the batch. The
// second return is false when the record has no usable asset.
func (n *Normalizer) Item(rec provider.Record, index int) (models.MediaItem, bool) {
	if rec == nil {
		return models.MediaItem{}, false
	}
	f, ok := extract(rec)
	if !ok {
		metrics.RecordReject("unknown", ReasonUnknown)
		return models.MediaItem{}, false
	}
	kind := rec.Kind()

	display, hasDisplay := provider.BestRendition(f.ladder, n.ceiling)
	preview := f.preview
	if strings.TrimSpace(preview.URL) == "" {
		preview, _ = provider.SmallestRendition(f.ladder)
	}
	if !hasDisplay && preview.URL == "" {
		metrics.RecordReject(string(kind), ReasonNoAsset)
		n.log.WithFields(logrus.Fields{"kind": kind, "provider_id": f.providerID}).Debug("record has no asset, dropped")
		return models.MediaItem{}, false
	}

	dims := display
	if !hasDisplay {
		dims = preview
	}

	id := n.itemID(kind, f.providerID, index)
	title := strings.TrimSpace(f.title)
	if title == "" {
		title = fmt.Sprintf("%s %s", kind.Label(), id)
	}

	return models.MediaItem{
		ID:         id,
		DisplayURL: display.URL,
		PreviewURL: preview.URL,
		Width:      provider.ClampDimension(dims.Width, n.ceiling),
		Height:     provider.ClampDimension(dims.Height, n.ceiling),
		Title:      title,
		Tags:       cleanTags(f.tags),
		Kind:       kind,
		Source:     models.Source,
	}, true
}

// Batch normalizes records in order, dropping rejects and any later record
// whose id repeats one already emitted in this batch.
func (n *Normalizer) Batch(records []provider.Record) []models.MediaItem {
	out := make([]models.MediaItem, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for i, rec := range records {
		item, ok := n.Item(rec, i)
		if !ok {
			continue
		}
		if _, dup := seen[item.ID]; dup {
			metrics.RecordReject(string(item.Kind), ReasonDuplicate)
			n.log.WithField("id", item.ID).Debug("duplicate id in batch, dropped")
			continue
		}
		seen[item.ID] = struct{}{}
		out = append(out, item)
	}
	return out
}

func (n *Normalizer) itemID(kind models.Kind, providerID string, index int) string {
	if pid := strings.TrimSpace(providerID); pid != "" {
		return kind.Prefix() + "_" + pid
	}
	return fmt.Sprintf("%s_%s_%d", kind.Prefix(), n.fallbackToken(), index)
}

// fallbackToken is a ULID: millisecond timestamp plus random bits.
func (n *Normalizer) fallbackToken() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	id, err := ulid.New(ulid.Timestamp(n.now()), n.entropy)
	if err != nil {
		// Monotonic entropy overflow within one millisecond; fall back to a
		// fresh non-monotonic token.
		id = ulid.Make()
	}
	return strings.ToLower(id.String())
}

func cleanTags(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, t := range in {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
