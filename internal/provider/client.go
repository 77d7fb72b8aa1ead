package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/baptistax/mediapicker/internal/metrics"
	"github.com/baptistax/mediapicker/internal/models"
)

// ErrNoResponse is returned when a search never produced an HTTP response:
// transport failure, timeout or cancellation. Every other failure degrades
// to an empty result.
var ErrNoResponse = errors.New("provider: no response")

const (
	maxPerPage   = 50
	maxBodyBytes = 8 << 20
)

type endpoint struct {
	path    string
	records string
}

var endpoints = map[models.Kind]endpoint{
	models.KindClip:      {path: "clips", records: "data"},
	models.KindSticker:   {path: "stickers", records: "results"},
	models.KindVideoClip: {path: "videos", records: "videos"},
}

type Options struct {
	BaseURL   string
	APIKey    string
	UserAgent string
	Timeout   time.Duration
	Pacer     *Pacer
	Logger    logrus.FieldLogger
	// HTTPClient overrides the client built from Timeout.
	HTTPClient *http.Client
}

// Client searches the media provider for one content kind at a time. It
// holds no state besides its configuration and is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	userAgent  string
	pacer      *Pacer
	log        logrus.FieldLogger
}

func NewClient(opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, errors.New("provider base URL is empty")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("provider base URL: %w", err)
	}
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("provider API key is empty")
	}
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}

	return &Client{
		httpClient: hc,
		baseURL:    base,
		apiKey:     opts.APIKey,
		userAgent:  opts.UserAgent,
		pacer:      opts.Pacer,
		log:        opts.Logger,
	}, nil
}

// Search returns the raw records for q in provider order. Non-2xx statuses,
// unreadable bodies and unexpected shapes are logged and yield an empty,
// non-error result. Only a request that never got a response returns an
// error, wrapping ErrNoResponse.
func (c *Client) Search(ctx context.Context, q Query) ([]Record, error) {
	ep, ok := endpoints[q.Kind]
	if !ok {
		return nil, fmt.Errorf("provider: unsupported kind %q", q.Kind)
	}
	q = normalizeQuery(q)
	log := c.log.WithFields(logrus.Fields{
		"kind":  q.Kind,
		"query": q.Query,
		"page":  q.Page,
	})

	if err := c.pacer.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoResponse, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.searchURL(ep, q), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrNoResponse, err)
	}
	c.applyCommonHeaders(req)

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordProviderRequest(string(q.Kind), metrics.OutcomeNoResponse, time.Since(started))
		log.WithError(err).Warn("provider request failed")
		return nil, fmt.Errorf("%w: %v", ErrNoResponse, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.RecordProviderRequest(string(q.Kind), metrics.OutcomeBadStatus, time.Since(started))
		log.WithField("status", resp.StatusCode).Warn("provider returned non-2xx status")
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return []Record{}, nil
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		metrics.RecordProviderRequest(string(q.Kind), metrics.OutcomeBadBody, time.Since(started))
		log.WithError(err).Warn("provider body read failed")
		return []Record{}, nil
	}

	records, err := decodeRecords(log, q.Kind, ep.records, b)
	if err != nil {
		metrics.RecordProviderRequest(string(q.Kind), metrics.OutcomeBadBody, time.Since(started))
		log.WithError(err).Warn("unexpected provider response")
		return []Record{}, nil
	}

	outcome := metrics.OutcomeOK
	if len(records) == 0 {
		outcome = metrics.OutcomeEmpty
	}
	metrics.RecordProviderRequest(string(q.Kind), outcome, time.Since(started))
	log.WithField("records", len(records)).Debug("provider search done")
	return records, nil
}

func (c *Client) searchURL(ep endpoint, q Query) string {
	v := url.Values{}
	v.Set("api_key", c.apiKey)
	v.Set("q", q.Query)
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("per_page", strconv.Itoa(q.PerPage))
	if q.CustomerID != "" {
		v.Set("customer_id", q.CustomerID)
	}
	return c.baseURL + "/" + ep.path + "/search?" + v.Encode()
}

func (c *Client) applyCommonHeaders(req *http.Request) {
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "application/json")
}

func normalizeQuery(q Query) Query {
	q.Query = strings.TrimSpace(q.Query)
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage < 1 {
		q.PerPage = 1
	}
	if q.PerPage > maxPerPage {
		q.PerPage = maxPerPage
	}
	return q
}

// decodeRecords locates the kind's records array and decodes each element
// into its typed record. Elements that fail to decode are skipped; a body
// without the array is an unexpected shape.
func decodeRecords(log logrus.FieldLogger, kind models.Kind, path string, body []byte) ([]Record, error) {
	if !gjson.ValidBytes(body) {
		return nil, errors.New("body is not valid JSON")
	}
	arr := gjson.GetBytes(body, path)
	if !arr.IsArray() {
		return nil, fmt.Errorf("missing %q array", path)
	}

	elems := arr.Array()
	out := make([]Record, 0, len(elems))
	for i, e := range elems {
		if !e.IsObject() {
			log.WithField("index", i).Debug("skipping non-object record")
			continue
		}
		rec := newRecord(kind)
		if rec == nil {
			return nil, fmt.Errorf("unsupported kind %q", kind)
		}
		if err := json.Unmarshal([]byte(e.Raw), rec); err != nil {
			log.WithError(err).WithField("index", i).Debug("skipping undecodable record")
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func newRecord(kind models.Kind) Record {
	switch kind {
	case models.KindClip:
		return &ClipRecord{}
	case models.KindSticker:
		return &StickerRecord{}
	case models.KindVideoClip:
		return &VideoRecord{}
	}
	return nil
}
