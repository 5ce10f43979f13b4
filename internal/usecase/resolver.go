package usecase

import (
	"context"
	"sync"

	"github.com/jczaplew/gl-js-offline/internal/repository/store"
)

// defaultTileSize is assumed when a source does not declare one.
const defaultTileSize = 512

// SourceSpec is the pack-creation input for one data layer. Either Tiles
// holds explicit URL templates or URL points at a TileJSON document whose
// "tiles" field supplies them.
type SourceSpec struct {
	Type     string   `json:"type"`
	URL      string   `json:"url,omitempty"`
	Tiles    []string `json:"tiles,omitempty"`
	TileSize int      `json:"tileSize,omitempty"`
}

type tileJSON struct {
	Tiles []string `json:"tiles"`
}

// resolveSources turns every source spec into a concrete list of URL
// templates. All TileJSON indirections are fetched concurrently; the first
// failure fails the whole resolution, before any tile download starts.
func resolveSources(ctx context.Context, fetcher Fetcher, specs map[string]SourceSpec) (map[string]store.PackSource, error) {
	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		firstErr error
	)

	// A source that provides neither form fails resolution outright, before
	// any TileJSON fetch is launched.
	for name, spec := range specs {
		if len(spec.Tiles) == 0 && spec.URL == "" {
			return nil, &ResolutionError{Source: name}
		}
	}

	resolved := make(map[string]store.PackSource, len(specs))

	// Inline template lists resolve synchronously, before any goroutine can
	// touch the map.
	for name, spec := range specs {
		if len(spec.Tiles) == 0 {
			continue
		}
		resolved[name] = store.PackSource{
			Type:             spec.Type,
			TileURLTemplates: spec.Tiles,
			TileSize:         sourceTileSize(spec),
		}
	}

	for name, spec := range specs {
		if len(spec.Tiles) > 0 {
			continue
		}

		wg.Add(1)
		go func(name, url, typ string, tileSize int) {
			defer wg.Done()

			var tj tileJSON
			err := fetcher.FetchJSON(ctx, url, &tj)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = &ResolutionError{Source: name, Err: err}
				}
				return
			}
			if len(tj.Tiles) == 0 {
				if firstErr == nil {
					firstErr = &ResolutionError{Source: name}
				}
				return
			}
			resolved[name] = store.PackSource{
				Type:             typ,
				TileURLTemplates: tj.Tiles,
				TileSize:         tileSize,
			}
		}(name, spec.URL, spec.Type, sourceTileSize(spec))
	}

	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	return resolved, nil
}

func sourceTileSize(spec SourceSpec) int {
	if spec.TileSize == 0 {
		return defaultTileSize
	}
	return spec.TileSize
}
