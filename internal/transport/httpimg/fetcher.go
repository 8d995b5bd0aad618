// Package httpimg downloads product images over HTTP for embedding.
package httpimg

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shoplens/shoplens/internal/domain"
)

// DefaultMaxBytes caps a single image download.
const DefaultMaxBytes = 20 << 20

// Fetcher retrieves image bytes by URL. Failures are reported per image so
// the ingestion flow can skip bad URLs instead of aborting.
type Fetcher struct {
	client   *http.Client
	maxBytes int64
}

// Config holds fetcher settings.
type Config struct {
	Timeout  time.Duration
	MaxBytes int64
}

// New creates an image fetcher.
func New(cfg Config) *Fetcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Fetcher{
		client:   &http.Client{Timeout: timeout},
		maxBytes: maxBytes,
	}
}

// Fetch downloads one image.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request %s: %w", url, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrImageFetch, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s: unexpected status %d", domain.ErrImageFetch, url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", domain.ErrImageFetch, url, err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, fmt.Errorf("%w: %s: image exceeds %d bytes", domain.ErrImageFetch, url, f.maxBytes)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: %s: empty body", domain.ErrImageFetch, url)
	}

	return body, nil
}
