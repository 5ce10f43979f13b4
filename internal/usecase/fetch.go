package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jczaplew/gl-js-offline/pkg/config"
	"github.com/jczaplew/gl-js-offline/pkg/logger"
	"github.com/jczaplew/gl-js-offline/pkg/metrics"
)

// TileResponse carries one fetched tile payload plus the HTTP cache
// directives the rendering layer uses to decide on refresh.
type TileResponse struct {
	Data         []byte
	CacheControl string
	Expires      string
}

// Fetcher is the upstream HTTP capability the engine consumes. In-flight
// requests are cancelled through the context.
type Fetcher interface {
	// FetchTile returns (nil, nil) when the origin has no data for the URL
	// (404/204/empty body). Missing tiles are common and must not fail a
	// multi-thousand-tile download.
	FetchTile(ctx context.Context, url string) (*TileResponse, error)
	FetchJSON(ctx context.Context, url string, v any) error
}

type HTTPFetcher struct {
	client    *http.Client
	userAgent string
	logger    logger.Logger
}

var _ Fetcher = (*HTTPFetcher)(nil)

func NewHTTPFetcher(cfg config.Downloader, l logger.Logger) *HTTPFetcher {
	return &HTTPFetcher{
		client: &http.Client{
			Timeout: cfg.FetchTimeout,
		},
		userAgent: cfg.UserAgent,
		logger:    l,
	}
}

func (f *HTTPFetcher) FetchTile(ctx context.Context, url string) (*TileResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tile: %w", err)
	}
	defer resp.Body.Close()
	metrics.UpstreamLatency.Observe(time.Since(start).Seconds())

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound, http.StatusNoContent:
		// Soft skip: the origin has nothing for this tile.
		return nil, nil
	default:
		return nil, fmt.Errorf("upstream returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read tile data: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	return &TileResponse{
		Data:         data,
		CacheControl: resp.Header.Get("Cache-Control"),
		Expires:      resp.Header.Get("Expires"),
	}, nil
}

func (f *HTTPFetcher) FetchJSON(ctx context.Context, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch json: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("upstream returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode json: %w", err)
	}

	return nil
}
