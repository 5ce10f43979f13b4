package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TilesDownloaded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "offline_tiles_downloaded_total",
		Help: "Total number of tiles downloaded and stored",
	}, []string{"source"})

	TilesSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "offline_tiles_skipped_total",
		Help: "Total number of tiles skipped because the origin returned no data",
	}, []string{"source"})

	DownloadBytes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "offline_download_bytes_total",
		Help: "Total bytes of tile data downloaded",
	}, []string{"source"})

	UpstreamLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "offline_upstream_latency_seconds",
		Help:    "Latency of upstream tile fetches in seconds",
		Buckets: prometheus.DefBuckets,
	})

	StoreErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "offline_store_errors_total",
		Help: "Total number of keyed store operation failures",
	}, []string{"operation"})

	PacksCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "offline_packs_created_total",
		Help: "Total number of offline packs whose download completed",
	})

	PacksDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "offline_packs_deleted_total",
		Help: "Total number of offline packs deleted",
	})

	PacksAborted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "offline_packs_aborted_total",
		Help: "Total number of offline pack downloads aborted",
	})

	TileCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "offline_tile_lookup_hits_total",
		Help: "Total number of tile lookups served from the store",
	})

	TileCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "offline_tile_lookup_misses_total",
		Help: "Total number of tile lookups not present in the store",
	})
)
