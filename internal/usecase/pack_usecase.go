package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jczaplew/gl-js-offline/internal/repository/store"
	"github.com/jczaplew/gl-js-offline/internal/tilecover"
	"github.com/jczaplew/gl-js-offline/pkg/logger"
	"github.com/jczaplew/gl-js-offline/pkg/metrics"
)

// Heuristic average tile sizes in bytes, keyed by source type.
var estimatedTileBytes = map[string]int64{
	"vector":             60,
	"offline-vector":     60,
	"raster-dem":         100,
	"offline-raster-dem": 100,
	"raster":             25,
	"offline-raster":     25,
}

// CreateParams are the pack-creation inputs. MinZoom is a pointer so that an
// explicit zoom 0 is distinguishable from an absent one.
type CreateParams struct {
	Name    string                `json:"name"`
	Sources map[string]SourceSpec `json:"sources"`
	Bounds  []float64             `json:"bounds"`
	MinZoom *int                  `json:"minZoom"`
	MaxZoom int                   `json:"maxZoom"`
}

type EstimateParams struct {
	Sources map[string]SourceSpec `json:"sources"`
	Bounds  []float64             `json:"bounds"`
	MinZoom int                   `json:"minZoom"`
	MaxZoom int                   `json:"maxZoom"`
}

// PackUseCase manages the lifecycle of named offline packs: create, list,
// estimate, delete, and the tile-lookup path the rendering layer consults
// before falling back to network.
type PackUseCase struct {
	store   store.Store
	fetcher Fetcher
	logger  logger.Logger
	now     func() time.Time

	mu     sync.Mutex
	active map[string]*Download
}

func NewPackUseCase(s store.Store, f Fetcher, l logger.Logger) *PackUseCase {
	return &PackUseCase{
		store:   s,
		fetcher: f,
		logger:  l,
		now:     time.Now,
		active:  make(map[string]*Download),
	}
}

// Estimate predicts the size of a pack in bytes: tile count per source times
// a per-type average. A heuristic, not a measured size.
func (uc *PackUseCase) Estimate(params EstimateParams) (int64, error) {
	var total int64
	for name, spec := range params.Sources {
		tileSize := spec.TileSize
		if tileSize == 0 {
			tileSize = defaultTileSize
		}

		count, err := tilecover.Count(params.Bounds, params.MinZoom, effectiveMaxZoom(params.MaxZoom, tileSize))
		if err != nil {
			return 0, err
		}

		perTile, ok := estimatedTileBytes[spec.Type]
		if !ok {
			uc.logger.Warn("no size estimate for source type", "source", name, "type", spec.Type)
			continue
		}

		total += int64(count) * perTile
	}

	return total, nil
}

// Create validates params, writes a provisional zero-size pack record so the
// pack is listable immediately, and starts the download. The returned
// Download is the abort handle; completion and progress arrive through cb.
func (uc *PackUseCase) Create(ctx context.Context, params CreateParams, cb Callbacks) (*Download, error) {
	if err := validateCreateParams(params); err != nil {
		return nil, err
	}

	name := params.Name
	if name == "" {
		name = uc.now().UTC().Format("2006-01-02T15:04:05")
	}

	specs := normalizeSourceTypes(params.Sources)

	rec := store.PackRecord{
		Name:      name,
		Sources:   provisionalSources(specs),
		Bounds:    params.Bounds,
		MinZoom:   *params.MinZoom,
		MaxZoom:   params.MaxZoom,
		SizeBytes: 0,
		CreatedAt: uc.now().UTC(),
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	if _, busy := uc.active[name]; busy {
		return nil, ErrDownloadInProgress
	}
	if _, exists, err := uc.store.GetPack(ctx, name); err != nil {
		return nil, err
	} else if exists {
		return nil, ErrPackExists
	}

	if err := uc.store.PutPack(ctx, rec); err != nil {
		metrics.StoreErrors.WithLabelValues("put_pack").Inc()
		return nil, err
	}

	// The download outlives the request context that triggered it.
	downloadCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	dl := &Download{
		pack:   name,
		cancel: cancel,
		doneCh: make(chan struct{}),
	}
	uc.active[name] = dl

	o := &orchestrator{
		store:     uc.store,
		fetcher:   uc.fetcher,
		logger:    uc.logger,
		rec:       rec,
		callbacks: cb,
	}

	go func() {
		defer cancel()
		o.run(downloadCtx, specs)

		uc.mu.Lock()
		delete(uc.active, name)
		uc.mu.Unlock()

		close(dl.doneCh)
	}()

	uc.logger.Info("pack download started", "pack", name, "sources", len(specs))

	return dl, nil
}

func validateCreateParams(params CreateParams) error {
	if len(params.Sources) == 0 {
		return &ValidationError{Reason: "please provide one or more sources to cache"}
	}
	if len(params.Bounds) != 4 {
		return &ValidationError{Reason: "please provide a valid bbox ( [minLng, minLat, maxLng, maxLat] )"}
	}
	if params.MinZoom == nil {
		return &ValidationError{Reason: "a minZoom is required"}
	}
	if params.MaxZoom == 0 {
		return &ValidationError{Reason: "a maxZoom is required"}
	}
	return nil
}

// normalizeSourceTypes prefixes every source type with "offline-" so the
// rendering layer knows to consult the local store first.
func normalizeSourceTypes(specs map[string]SourceSpec) map[string]SourceSpec {
	normalized := make(map[string]SourceSpec, len(specs))
	for name, spec := range specs {
		if !strings.Contains(spec.Type, "offline") {
			spec.Type = "offline-" + spec.Type
		}
		normalized[name] = spec
	}
	return normalized
}

// provisionalSources builds the source mapping stored with the zero-size
// record, before TileJSON indirections have resolved.
func provisionalSources(specs map[string]SourceSpec) map[string]store.PackSource {
	sources := make(map[string]store.PackSource, len(specs))
	for name, spec := range specs {
		tileSize := spec.TileSize
		if tileSize == 0 {
			tileSize = defaultTileSize
		}
		sources[name] = store.PackSource{
			Type:             spec.Type,
			TileURLTemplates: spec.Tiles,
			TileSize:         tileSize,
		}
	}
	return sources
}

func (uc *PackUseCase) Get(ctx context.Context, name string) (store.PackRecord, error) {
	rec, ok, err := uc.store.GetPack(ctx, name)
	if err != nil {
		return store.PackRecord{}, err
	}
	if !ok {
		return store.PackRecord{}, ErrPackNotFound
	}
	return rec, nil
}

func (uc *PackUseCase) List(ctx context.Context) ([]store.PackRecord, error) {
	return uc.store.ListPacks(ctx)
}

// Abort cancels the named pack's in-flight download. The downloaders remove
// everything written so far before the Done channel closes.
func (uc *PackUseCase) Abort(name string) error {
	uc.mu.Lock()
	dl, ok := uc.active[name]
	uc.mu.Unlock()

	if !ok {
		return ErrPackNotFound
	}

	dl.Abort()
	return nil
}

// DeletePack cascades: every tile owned by the pack goes first, then the
// pack record. A pack that is still downloading is refused; abort it first.
func (uc *PackUseCase) DeletePack(ctx context.Context, name string) error {
	uc.mu.Lock()
	_, busy := uc.active[name]
	uc.mu.Unlock()
	if busy {
		return ErrDownloadInProgress
	}

	_, ok, err := uc.store.GetPack(ctx, name)
	if err != nil {
		return err
	}
	if !ok {
		return ErrPackNotFound
	}

	tiles, err := uc.store.CountTilesByPack(ctx, name)
	if err != nil {
		metrics.StoreErrors.WithLabelValues("count_tiles").Inc()
		return err
	}

	if err := uc.store.DeleteTilesByPack(ctx, name); err != nil {
		metrics.StoreErrors.WithLabelValues("delete_tiles").Inc()
		return err
	}
	if err := uc.store.DeletePack(ctx, name); err != nil {
		metrics.StoreErrors.WithLabelValues("delete_pack").Inc()
		return err
	}

	metrics.PacksDeleted.Inc()
	uc.logger.Info("pack deleted", "pack", name, "tiles", tiles)

	return nil
}

// DeleteAll empties both collections. Safe on an empty store; refused while
// any download is in progress.
func (uc *PackUseCase) DeleteAll(ctx context.Context) error {
	uc.mu.Lock()
	busy := len(uc.active) > 0
	uc.mu.Unlock()
	if busy {
		return ErrDownloadInProgress
	}

	if err := uc.store.DeleteAllTiles(ctx); err != nil {
		metrics.StoreErrors.WithLabelValues("delete_tiles").Inc()
		return err
	}
	if err := uc.store.DeleteAllPacks(ctx); err != nil {
		metrics.StoreErrors.WithLabelValues("delete_pack").Inc()
		return err
	}

	uc.logger.Info("all packs deleted")

	return nil
}

// Tile is the lookup path the rendering layer calls before falling back to
// a network fetch.
func (uc *PackUseCase) Tile(ctx context.Context, z, x, y int, source string) (store.TileRecord, error) {
	key := store.TileKey{Z: z, X: x, Y: y, Source: source}

	rec, ok, err := uc.store.GetTile(ctx, key)
	if err != nil {
		metrics.StoreErrors.WithLabelValues("get_tile").Inc()
		return store.TileRecord{}, err
	}
	if !ok {
		metrics.TileCacheMisses.Inc()
		return store.TileRecord{}, ErrTileNotFound
	}

	metrics.TileCacheHits.Inc()
	return rec, nil
}
