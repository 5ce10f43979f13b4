package usecase

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	"github.com/jczaplew/gl-js-offline/internal/repository/store"
	"github.com/jczaplew/gl-js-offline/internal/tilecover"
	"github.com/jczaplew/gl-js-offline/pkg/logger"
	"github.com/jczaplew/gl-js-offline/pkg/metrics"
)

// Progress reports per-source download advancement. It is emitted exactly
// once per enumerated tile.
type Progress struct {
	Fetched int    `json:"fetched"`
	Total   int    `json:"total"`
	Source  string `json:"source"`
}

// tileDownloader drives the full download of one source's tile list. Tiles
// are processed one at a time to bound memory and connection usage per
// source; concurrency comes from each source running its own downloader.
type tileDownloader struct {
	store      store.Store
	fetcher    Fetcher
	logger     logger.Logger
	pack       store.PackRecord
	sourceName string
	source     store.PackSource
	onProgress func(Progress)
	onError    func(error)
}

// effectiveMaxZoom bumps the zoom range by one level for sources with tiles
// finer than 512px, to keep equivalent ground resolution.
func effectiveMaxZoom(maxZoom, tileSize int) int {
	if tileSize < defaultTileSize {
		return maxZoom + 1
	}
	return maxZoom
}

// run downloads every tile the pack bounds cover for this source. It returns
// the total bytes written and whether the download was aborted. Individual
// tile failures are reported through the error callback and skipped; only
// cancellation stops the loop.
func (d *tileDownloader) run(ctx context.Context) (int64, bool) {
	tiles, err := tilecover.Cover(d.pack.Bounds, d.pack.MinZoom, effectiveMaxZoom(d.pack.MaxZoom, d.source.TileSize))
	if err != nil {
		d.onError(fmt.Errorf("source %q: %w", d.sourceName, err))
		return 0, false
	}

	var bytes int64
	for i, tile := range tiles {
		if ctx.Err() != nil {
			d.cleanup(ctx)
			return bytes, true
		}

		n, err := d.downloadTile(ctx, tile)
		if err != nil {
			if ctx.Err() != nil {
				d.cleanup(ctx)
				return bytes, true
			}
			d.onError(fmt.Errorf("source %q tile %s: %w", d.sourceName, tile, err))
		}
		bytes += n

		d.onProgress(Progress{
			Fetched: i + 1,
			Total:   len(tiles),
			Source:  d.sourceName,
		})
	}

	d.logger.Debug("source download complete",
		"pack", d.pack.Name, "source", d.sourceName, "tiles", len(tiles), "bytes", bytes)

	return bytes, false
}

// downloadTile fetches one tile and persists it. A nil response is a soft
// skip: zero bytes, no record written.
func (d *tileDownloader) downloadTile(ctx context.Context, tile tilecover.Tile) (int64, error) {
	resp, err := d.fetcher.FetchTile(ctx, d.tileURL(tile))
	if err != nil {
		return 0, err
	}
	if resp == nil {
		metrics.TilesSkipped.WithLabelValues(d.sourceName).Inc()
		return 0, nil
	}

	rec := store.TileRecord{
		Key: store.TileKey{
			Z:      tile.Z,
			X:      tile.X,
			Y:      tile.Y,
			Source: d.sourceName,
		},
		OwningPack:   d.pack.Name,
		CacheControl: resp.CacheControl,
		Expires:      resp.Expires,
		Data:         resp.Data,
	}
	if err := d.store.PutTile(ctx, rec); err != nil {
		metrics.StoreErrors.WithLabelValues("put_tile").Inc()
		return 0, fmt.Errorf("store tile: %w", err)
	}

	metrics.TilesDownloaded.WithLabelValues(d.sourceName).Inc()
	metrics.DownloadBytes.WithLabelValues(d.sourceName).Add(float64(len(resp.Data)))

	return int64(len(resp.Data)), nil
}

// tileURL picks one template at random to distribute load across CDN domains
// and substitutes the tile coordinates.
func (d *tileDownloader) tileURL(tile tilecover.Tile) string {
	templates := d.source.TileURLTemplates
	url := templates[rand.Intn(len(templates))]

	return strings.NewReplacer(
		"{z}", strconv.Itoa(tile.Z),
		"{x}", strconv.Itoa(tile.X),
		"{y}", strconv.Itoa(tile.Y),
	).Replace(url)
}

// cleanup cascades the abort: every tile written so far for this pack and
// the pack record itself are removed. Each source's downloader runs this
// independently, so it has to be idempotent.
func (d *tileDownloader) cleanup(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)

	if err := d.store.DeleteTilesByPack(ctx, d.pack.Name); err != nil {
		metrics.StoreErrors.WithLabelValues("delete_tiles").Inc()
		d.logger.Error("abort cleanup: failed to delete tiles", "pack", d.pack.Name, "error", err)
	}
	if err := d.store.DeletePack(ctx, d.pack.Name); err != nil {
		metrics.StoreErrors.WithLabelValues("delete_pack").Inc()
		d.logger.Error("abort cleanup: failed to delete pack record", "pack", d.pack.Name, "error", err)
	}
}
