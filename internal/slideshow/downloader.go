package slideshow

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"photoframe/internal/cache"
	"photoframe/internal/logging"
	"photoframe/internal/metadata"
	"photoframe/internal/metrics"
	"photoframe/internal/provider"
)

const (
	// originalDownloadTimeout bounds one full-resolution download.
	originalDownloadTimeout = 90 * time.Second

	downloaderPageSize = 100
)

// DownloaderConfig configures the background original-file sweep.
type DownloaderConfig struct {
	// Interval between sweeps.
	Interval time.Duration

	// ItemDelay is the pause between consecutive downloads within one
	// sweep, so the provider never sees a burst.
	ItemDelay time.Duration

	// Filter narrows the swept collection.
	Filter provider.Filter
}

// Downloader periodically walks the full remote collection and
// downloads every original that is not yet cached. Originals carry
// richer EXIF than thumbnails, so each fresh download immediately
// feeds metadata extraction.
type Downloader struct {
	client provider.Client
	cache  *cache.Store
	meta   *metadata.Store
	cfg    DownloaderConfig
	log    *logging.Logger

	mu       sync.Mutex
	sweeping bool

	stop chan struct{}
	done chan struct{}
}

// NewDownloader wires the background sweep. meta may be nil.
func NewDownloader(client provider.Client, store *cache.Store, meta *metadata.Store, cfg DownloaderConfig) *Downloader {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	return &Downloader{
		client: client,
		cache:  store,
		meta:   meta,
		cfg:    cfg,
		log:    logging.New("downloader"),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start launches the sweep loop: one sweep immediately, then one per
// interval.
func (d *Downloader) Start() {
	go d.run()
}

// StopAndWait signals the loop to exit and blocks until the current
// sweep has wound down.
func (d *Downloader) StopAndWait() {
	close(d.stop)
	<-d.done
}

func (d *Downloader) run() {
	defer close(d.done)

	d.trySweep()

	ticker := time.NewTicker(d.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-d.stop:
			return
		case <-ticker.C:
			d.trySweep()
		}
	}
}

// trySweep runs a sweep unless one is already in flight. Sweeps are
// never cancelled mid-item; the flag just prevents overlap.
func (d *Downloader) trySweep() {
	d.mu.Lock()
	if d.sweeping {
		d.mu.Unlock()
		d.log.Debug("Sweep already in flight, skipping tick")
		return
	}
	d.sweeping = true
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		d.sweeping = false
		d.mu.Unlock()
	}()
	d.sweep()
}

func (d *Downloader) sweep() {
	ctx := context.Background()
	start := time.Now()
	downloaded, failed := 0, 0

	for offset := 0; ; {
		page, err := d.client.ListPhotos(ctx, d.cfg.Filter, offset, downloaderPageSize)
		if err != nil {
			d.log.Warn("Sweep listing at offset %d failed: %v", offset, err)
			return
		}
		if len(page) == 0 {
			break
		}

		for _, p := range page {
			select {
			case <-d.stop:
				return
			default:
			}

			key := cache.OriginalKey(p.ID, p.Space)
			if _, ok := d.cache.Get(key, p.ID, p.Space); ok {
				metrics.BackgroundDownloadsTotal.WithLabelValues("skipped").Inc()
				continue
			}

			if err := d.fetchOriginal(ctx, p); err != nil {
				// Permission-restricted originals land here; other
				// items continue.
				d.log.Warn("Original %s failed: %v", p.Identity(), err)
				metrics.BackgroundDownloadsTotal.WithLabelValues("error").Inc()
				failed++
				continue
			}
			metrics.BackgroundDownloadsTotal.WithLabelValues("success").Inc()
			downloaded++

			if d.cfg.ItemDelay > 0 {
				select {
				case <-time.After(d.cfg.ItemDelay):
				case <-d.stop:
					return
				}
			}
		}
		offset += len(page)
	}

	d.log.Info("Background sweep done in %s: %d downloaded, %d failed",
		time.Since(start).Round(time.Second), downloaded, failed)
}

// fetchOriginal downloads one original, caches it under the original
// key, and feeds the fresh file to metadata extraction.
func (d *Downloader) fetchOriginal(ctx context.Context, p provider.Photo) error {
	ctx, cancel := context.WithTimeout(ctx, originalDownloadTimeout)
	defer cancel()

	data, err := d.client.DownloadOriginal(ctx, p.ID, p.Space)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return fmt.Errorf("empty original for %s", p.Identity())
	}

	ext := strings.TrimPrefix(filepath.Ext(p.FilePath), ".")
	path, err := d.cache.Set(cache.OriginalKey(p.ID, p.Space), data, ext, p.ID, p.Space)
	if err != nil {
		return err
	}

	if d.meta != nil {
		ex, err := d.meta.Extract(ctx, d.client, p, path)
		if err == nil {
			if err := d.meta.SavePhotoMetadata(p.ID, p.Space, ex); err != nil {
				d.log.Warn("Saving metadata for %s failed: %v", p.Identity(), err)
			}
		}
	}
	return nil
}
