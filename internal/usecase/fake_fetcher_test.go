package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// fakeFetcher stands in for the HTTP stack in engine tests. The default
// payload is returned for every tile URL unless a per-URL override or a
// global error is configured; a nil payload soft-skips everything.
type fakeFetcher struct {
	payload   []byte
	payloads  map[string][]byte
	err       error
	tilesJSON map[string][]string
	delay     time.Duration

	mu          sync.Mutex
	requested   []string
	inflight    int
	maxInflight int
}

var _ Fetcher = (*fakeFetcher)(nil)

func (f *fakeFetcher) FetchTile(ctx context.Context, url string) (*TileResponse, error) {
	f.mu.Lock()
	f.requested = append(f.requested, url)
	f.inflight++
	if f.inflight > f.maxInflight {
		f.maxInflight = f.inflight
	}
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inflight--
		f.mu.Unlock()
	}()

	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.delay):
		}
	}

	if f.err != nil {
		return nil, f.err
	}

	data := f.payload
	if override, ok := f.payloads[url]; ok {
		data = override
	}
	if data == nil {
		return nil, nil
	}

	return &TileResponse{
		Data:         data,
		CacheControl: "max-age=3600",
		Expires:      "Thu, 01 Jan 2026 00:00:00 GMT",
	}, nil
}

func (f *fakeFetcher) FetchJSON(ctx context.Context, url string, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	templates, ok := f.tilesJSON[url]
	if !ok {
		return fmt.Errorf("no tilejson at %s", url)
	}

	tj, ok := v.(*tileJSON)
	if !ok {
		return fmt.Errorf("unexpected decode target %T", v)
	}
	tj.Tiles = templates

	return nil
}

func (f *fakeFetcher) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requested)
}

func (f *fakeFetcher) requestedURLs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	urls := make([]string, len(f.requested))
	copy(urls, f.requested)
	return urls
}

func (f *fakeFetcher) peakInflight() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxInflight
}
