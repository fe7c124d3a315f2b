// Package thumbnail downloads a source's best cover art and normalizes it to
// a small opaque JPEG suitable for audio tags and upload thumbnails.
package thumbnail

import (
	"context"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/png"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"clipper/internal/logging"
	"clipper/internal/media"
	"clipper/internal/services"
)

// FileName is the normalized cover written into the job directory.
const FileName = "cover.jpg"

const (
	defaultMaxSide   = 320
	defaultTimeout   = 30 * time.Second
	maxDownloadBytes = 20 << 20
	jpegQuality      = 90
)

// Fetcher downloads and normalizes cover art.
type Fetcher struct {
	client  *http.Client
	maxSide int
	logger  *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient overrides the HTTP client (used in tests).
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// NewFetcher constructs a Fetcher bounded by timeout and scaling covers so the
// longest side is at most maxSide pixels.
func NewFetcher(timeout time.Duration, maxSide int, logger *slog.Logger, opts ...Option) *Fetcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if maxSide <= 0 {
		maxSide = defaultMaxSide
	}
	f := &Fetcher{
		client:  &http.Client{Timeout: timeout},
		maxSide: maxSide,
		logger:  logging.NewComponentLogger(logger, "thumbnail"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch writes the normalized cover for desc into dir and returns its path.
// Every failure is wrapped with services.ErrThumbnail.
func (f *Fetcher) Fetch(ctx context.Context, desc media.Descriptor, dir string) (string, error) {
	candidate, ok := desc.BestThumbnail()
	if !ok {
		return "", services.Wrap(services.ErrThumbnail, "acquiring", "select thumbnail", "source offers no thumbnails", nil)
	}

	img, err := f.download(ctx, candidate.URL)
	if err != nil {
		return "", services.Wrap(services.ErrThumbnail, "acquiring", "download thumbnail", candidate.URL, err)
	}

	normalized := Normalize(img, f.maxSide)
	target := filepath.Join(dir, FileName)
	if err := imaging.Save(normalized, target, imaging.JPEGQuality(jpegQuality)); err != nil {
		return "", services.Wrap(services.ErrThumbnail, "acquiring", "encode thumbnail", target, err)
	}

	bounds := normalized.Bounds()
	f.logger.Debug("cover art normalized",
		logging.String("url", candidate.URL),
		logging.Int("width", bounds.Dx()),
		logging.Int("height", bounds.Dy()),
	)
	return target, nil
}

func (f *Fetcher) download(ctx context.Context, url string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	img, err := imaging.Decode(io.LimitReader(resp.Body, maxDownloadBytes), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return img, nil
}

// Normalize flattens img onto an opaque white background and scales it down so
// the longest side is at most maxSide. Smaller images are not enlarged.
func Normalize(img image.Image, maxSide int) *image.NRGBA {
	bounds := img.Bounds()
	flat := imaging.New(bounds.Dx(), bounds.Dy(), color.White)
	flat = imaging.Overlay(flat, img, image.Pt(0, 0), 1.0)
	return imaging.Fit(flat, maxSide, maxSide, imaging.Lanczos)
}
