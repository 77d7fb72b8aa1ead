// Package probe reads the header of a remote image asset to report its real
// dimensions, for checking provider-declared sizes against the asset.
package probe

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"time"

	_ "golang.org/x/image/webp"
)

// headerBytes bounds how much of the asset is read; image headers sit at
// the start of the file.
const headerBytes = 1 << 20

type Options struct {
	Timeout   time.Duration
	UserAgent string
}

type Prober struct {
	httpClient *http.Client
	userAgent  string
}

type Result struct {
	Format string `json:"format"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

func New(opts Options) *Prober {
	if opts.Timeout == 0 {
		opts.Timeout = 15 * time.Second
	}
	return &Prober{
		httpClient: &http.Client{Timeout: opts.Timeout},
		userAgent:  opts.UserAgent,
	}
}

// Dimensions fetches url and decodes only the image config.
func (p *Prober) Dimensions(ctx context.Context, url string) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Result{}, err
	}
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}
	req.Header.Set("Accept", "image/*")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{}, fmt.Errorf("unexpected status: %s", resp.Status)
	}

	return Decode(io.LimitReader(resp.Body, headerBytes))
}

// Decode reads an image config from r. GIF, JPEG, PNG and WebP are supported.
func Decode(r io.Reader) (Result, error) {
	cfg, format, err := image.DecodeConfig(r)
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return Result{}, fmt.Errorf("unsupported image format: %w", err)
		}
		return Result{}, err
	}
	return Result{Format: format, Width: cfg.Width, Height: cfg.Height}, nil
}
