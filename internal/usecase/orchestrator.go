package usecase

import (
	"context"
	"sync"

	"github.com/jczaplew/gl-js-offline/internal/repository/store"
	"github.com/jczaplew/gl-js-offline/pkg/logger"
	"github.com/jczaplew/gl-js-offline/pkg/metrics"
)

// Callbacks receive asynchronous notifications for one pack download. Any of
// the fields may be nil.
type Callbacks struct {
	OnProgress func(Progress)
	OnError    func(error)
	OnDone     func(store.PackRecord)
}

func (c Callbacks) progress(p Progress) {
	if c.OnProgress != nil {
		c.OnProgress(p)
	}
}

func (c Callbacks) error(err error) {
	if c.OnError != nil {
		c.OnError(err)
	}
}

func (c Callbacks) done(rec store.PackRecord) {
	if c.OnDone != nil {
		c.OnDone(rec)
	}
}

// Download is the abort handle returned by Create. Abort is cooperative:
// each source stops after its in-flight tile fetch resolves, then cleans up
// everything written for the pack.
type Download struct {
	pack   string
	cancel context.CancelFunc
	doneCh chan struct{}
}

func (d *Download) Pack() string {
	return d.pack
}

func (d *Download) Abort() {
	d.cancel()
}

// Done is closed once every source downloader has finished, whether the
// download completed or was aborted.
func (d *Download) Done() <-chan struct{} {
	return d.doneCh
}

// orchestrator owns one pack's download lifecycle: source resolution, one
// downloader per source, byte aggregation and the final pack record write.
type orchestrator struct {
	store     store.Store
	fetcher   Fetcher
	logger    logger.Logger
	rec       store.PackRecord
	callbacks Callbacks
}

// run executes the download to completion or abort and reports whether the
// pack record transitioned to complete.
func (o *orchestrator) run(ctx context.Context, specs map[string]SourceSpec) bool {
	resolved, err := resolveSources(ctx, o.fetcher, specs)
	if err != nil {
		// A failed resolution must not leave the provisional zero-size
		// record behind.
		cleanupCtx := context.WithoutCancel(ctx)
		if derr := o.store.DeletePack(cleanupCtx, o.rec.Name); derr != nil {
			o.logger.Error("failed to remove provisional pack record", "pack", o.rec.Name, "error", derr)
		}
		o.callbacks.error(err)
		return false
	}

	o.rec.Sources = resolved

	var (
		mu         sync.Mutex
		wg         sync.WaitGroup
		totalBytes int64
		aborted    bool
	)

	for name, src := range resolved {
		dl := &tileDownloader{
			store:      o.store,
			fetcher:    o.fetcher,
			logger:     o.logger,
			pack:       o.rec,
			sourceName: name,
			source:     src,
			onProgress: o.callbacks.progress,
			onError:    o.callbacks.error,
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			bytes, wasAborted := dl.run(ctx)

			mu.Lock()
			totalBytes += bytes
			aborted = aborted || wasAborted
			mu.Unlock()
		}()
	}

	wg.Wait()

	if aborted {
		metrics.PacksAborted.Inc()
		o.logger.Info("pack download aborted", "pack", o.rec.Name)
		return false
	}

	o.rec.SizeBytes = totalBytes
	if err := o.store.PutPack(ctx, o.rec); err != nil {
		metrics.StoreErrors.WithLabelValues("put_pack").Inc()
		o.callbacks.error(err)
		return false
	}

	metrics.PacksCreated.Inc()
	o.logger.Info("pack download complete", "pack", o.rec.Name, "bytes", totalBytes)
	o.callbacks.done(o.rec)

	return true
}
