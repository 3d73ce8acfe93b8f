package slideshow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"photoframe/internal/cache"
	"photoframe/internal/imgproc"
	"photoframe/internal/logging"
	"photoframe/internal/metadata"
	"photoframe/internal/metrics"
	"photoframe/internal/playlist"
	"photoframe/internal/provider"
)

const (
	// lowWaterMark is the remaining-item threshold that triggers the
	// background fetch of the next batch.
	lowWaterMark = 2

	// emptyRetryDelay is the single deferred retry after the provider
	// came back empty. The serve loop never busy-polls an empty
	// provider.
	emptyRetryDelay = 10 * time.Minute

	// maxServeAttempts bounds how many consecutive failing photos one
	// advance skips before giving up.
	maxServeAttempts = 3

	// autoAdvanceTimeout bounds the work done by one timer tick.
	autoAdvanceTimeout = 2 * time.Minute

	metadataTimeout = 30 * time.Second
)

// ErrNoPhotos means the provider had nothing to serve even after a
// fetch. A deferred retry is armed; the slideshow idles until then.
var ErrNoPhotos = errors.New("no photos available from provider")

// Config configures an Orchestrator.
type Config struct {
	// BatchSize is the provider page size.
	BatchSize int

	// Interval is the display timer period. Zero disables automatic
	// advancing (manual next/previous only).
	Interval time.Duration

	// Filter narrows the listing to a folder or person.
	Filter provider.Filter

	// Policy controls batch ordering and the show-all-before-repeat
	// behavior.
	Policy playlist.Policy

	// DisplayWidth and DisplayHeight bound cached display copies.
	// Zero values use the imgproc defaults.
	DisplayWidth  int
	DisplayHeight int
}

// Served is one display-ready photo handed to the display boundary.
type Served struct {
	Photo provider.Photo

	// Key is the cache key the display layer uses to fetch the bytes.
	Key string

	// Path is the cache file holding the bytes.
	Path string

	// Index is the 1-based position within the batch; Total the batch
	// size.
	Index int
	Total int

	// Meta is the enrichment record, nil when none exists yet.
	Meta *metadata.Record
}

// Orchestrator owns the serve loop. Next and Previous serialize on an
// internal mutex, so the HTTP handlers and the display timer can share
// one instance.
type Orchestrator struct {
	client provider.Client
	cache  *cache.Store
	list   *playlist.Manager
	meta   *metadata.Store
	cfg    Config
	log    *logging.Logger

	serveMu sync.Mutex

	mu           sync.Mutex
	offset       int
	known        map[string]bool
	retryArmed   bool
	retryTimer   *time.Timer
	fetchingNext bool
	displayTimer *time.Timer
	current      *Served
	stopped      bool
}

// NewOrchestrator wires the serve loop. meta may be nil to disable
// enrichment.
func NewOrchestrator(client provider.Client, store *cache.Store, list *playlist.Manager, meta *metadata.Store, cfg Config) *Orchestrator {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.DisplayWidth <= 0 {
		cfg.DisplayWidth = imgproc.DefaultMaxWidth
	}
	if cfg.DisplayHeight <= 0 {
		cfg.DisplayHeight = imgproc.DefaultMaxHeight
	}
	return &Orchestrator{
		client: client,
		cache:  store,
		list:   list,
		meta:   meta,
		cfg:    cfg,
		log:    logging.New("slideshow"),
		known:  make(map[string]bool),
	}
}

// Start serves the first photo and arms the display timer. Call once
// after construction; failures leave the deferred retry armed.
func (o *Orchestrator) Start(ctx context.Context) {
	if _, err := o.Next(ctx); err != nil {
		o.log.Warn("Initial photo fetch failed: %v", err)
	}
}

// Stop halts the display timer and any armed retry.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stopped = true
	if o.displayTimer != nil {
		o.displayTimer.Stop()
	}
	if o.retryTimer != nil {
		o.retryTimer.Stop()
	}
}

// Current returns the most recently served photo, nil before the first
// serve.
func (o *Orchestrator) Current() *Served {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.current
}

// Next advances the slideshow one photo and restarts the display
// timer.
func (o *Orchestrator) Next(ctx context.Context) (*Served, error) {
	o.serveMu.Lock()
	defer o.serveMu.Unlock()

	served, err := o.advance(ctx)
	if err != nil {
		return nil, err
	}
	o.finishServe(served)
	return served, nil
}

// Previous steps the slideshow back one photo, clamped at the start of
// the batch.
func (o *Orchestrator) Previous(ctx context.Context) (*Served, error) {
	o.serveMu.Lock()
	defer o.serveMu.Unlock()

	photo := o.list.Previous()
	if photo == nil {
		served, err := o.advance(ctx)
		if err != nil {
			return nil, err
		}
		o.finishServe(served)
		return served, nil
	}

	served, err := o.serve(ctx, *photo)
	if err != nil {
		return nil, err
	}
	o.finishServe(served)
	return served, nil
}

// advance runs the serve-loop steps: roll the batch over when
// exhausted, then serve the next photo, skipping over individual
// failures.
func (o *Orchestrator) advance(ctx context.Context) (*Served, error) {
	for attempt := 0; ; attempt++ {
		photo, err := o.nextPhoto(ctx)
		if err != nil {
			return nil, err
		}

		served, err := o.serve(ctx, *photo)
		if err == nil {
			return served, nil
		}
		o.log.Warn("Serving %s failed: %v", photo.Identity(), err)
		if attempt >= maxServeAttempts-1 {
			return nil, fmt.Errorf("serve: %w", err)
		}
	}
}

// nextPhoto pops the cursor, rolling over to the preloaded batch or a
// synchronous fetch when the current batch is exhausted (this also
// covers the initial empty state).
func (o *Orchestrator) nextPhoto(ctx context.Context) (*provider.Photo, error) {
	if p := o.list.Next(); p != nil {
		return p, nil
	}

	if o.list.SwitchToPreloaded() {
		metrics.BatchSwitchesTotal.WithLabelValues("preloaded").Inc()
	} else {
		restarted, err := o.fetchNextBatch(ctx, false)
		if err != nil {
			return nil, err
		}
		if restarted {
			metrics.BatchSwitchesTotal.WithLabelValues("restart").Inc()
		} else {
			metrics.BatchSwitchesTotal.WithLabelValues("synchronous").Inc()
		}
	}

	if p := o.list.Next(); p != nil {
		return p, nil
	}
	o.armEmptyRetry()
	return nil, ErrNoPhotos
}

// fetchNextBatch pulls the next page and installs it. Brand-new photos
// surface at offset 0 (the provider lists newest first), so a forward
// fetch re-checks there first. When the provider has nothing further,
// the shown tracker is reset and listing restarts from offset 0;
// restarted reports that case. Preload fetches stash the result and
// never reset anything.
func (o *Orchestrator) fetchNextBatch(ctx context.Context, isPreload bool) (restarted bool, err error) {
	o.mu.Lock()
	offset := o.offset
	o.mu.Unlock()

	if offset > 0 {
		page, err := o.client.ListPhotos(ctx, o.cfg.Filter, 0, o.cfg.BatchSize)
		if err != nil {
			return false, fmt.Errorf("list photos: %w", err)
		}
		if fresh := o.filterUnknown(page); len(fresh) > 0 {
			o.log.Info("Found %d new photos at the head of the collection", len(fresh))
			o.install(fresh, isPreload)
			return false, nil
		}
	}

	page, err := o.client.ListPhotos(ctx, o.cfg.Filter, offset, o.cfg.BatchSize)
	if err != nil {
		return false, fmt.Errorf("list photos: %w", err)
	}
	if len(page) > 0 {
		o.mu.Lock()
		o.offset = offset + len(page)
		o.mu.Unlock()
		o.install(page, isPreload)
		return false, nil
	}

	if isPreload {
		return false, nil
	}

	// Upstream exhausted: start the collection over.
	o.log.Info("Provider exhausted at offset %d, restarting from the top", offset)
	if err := o.list.ResetShown(); err != nil {
		o.log.Warn("Shown tracker reset failed: %v", err)
	}
	o.mu.Lock()
	o.offset = 0
	o.known = make(map[string]bool)
	o.mu.Unlock()

	page, err = o.client.ListPhotos(ctx, o.cfg.Filter, 0, o.cfg.BatchSize)
	if err != nil {
		return true, fmt.Errorf("list photos: %w", err)
	}
	o.mu.Lock()
	o.offset = len(page)
	o.mu.Unlock()
	o.install(page, isPreload)
	return true, nil
}

// install prepares a fetched page and warms the cache for it.
func (o *Orchestrator) install(page []provider.Photo, isPreload bool) {
	o.mu.Lock()
	for _, p := range page {
		o.known[p.Identity()] = true
	}
	o.mu.Unlock()

	o.list.Prepare(page, o.cfg.Policy, isPreload)

	warm := page
	if !isPreload {
		warm = o.list.Upcoming()
	}
	go o.cache.PreloadImages(context.Background(), warm, o.downloadForCache)
}

func (o *Orchestrator) filterUnknown(page []provider.Photo) []provider.Photo {
	o.mu.Lock()
	defer o.mu.Unlock()
	var fresh []provider.Photo
	for _, p := range page {
		if !o.known[p.Identity()] {
			fresh = append(fresh, p)
		}
	}
	return fresh
}

// serve resolves a photo to cached display bytes, downloading on a
// miss.
func (o *Orchestrator) serve(ctx context.Context, photo provider.Photo) (*Served, error) {
	path, ok := o.cache.Get(photo.URL, photo.ID, photo.Space)
	if ok {
		metrics.PhotosServedTotal.WithLabelValues("cache").Inc()
	} else {
		data, ext, err := o.downloadForCache(ctx, photo)
		if err != nil {
			return nil, err
		}
		path, err = o.cache.Set(photo.URL, data, ext, photo.ID, photo.Space)
		if err != nil {
			return nil, err
		}
		metrics.PhotosServedTotal.WithLabelValues("network").Inc()
	}

	index, total := o.list.Progress()
	served := &Served{
		Photo: photo,
		Key:   o.cache.Key(photo.URL, photo.ID, photo.Space),
		Path:  path,
		Index: index,
		Total: total,
	}
	if o.meta != nil {
		if rec, ok := o.meta.Get(photo.ID, photo.Space); ok {
			served.Meta = &rec
		}
	}
	return served, nil
}

// finishServe records the serve: shown tracking, the display timer,
// the low-water preload check, and asynchronous metadata enrichment.
func (o *Orchestrator) finishServe(served *Served) {
	if o.cfg.Policy.ShowAllBeforeRestart {
		o.list.MarkShown(served.Photo)
	}

	o.mu.Lock()
	o.current = served
	o.mu.Unlock()

	o.restartDisplayTimer()

	if o.list.Remaining() <= lowWaterMark && !o.list.HasPreloaded() {
		o.tryStartPreloadFetch()
	}

	if o.meta != nil {
		go o.ensureMetadata(served.Photo, served.Path)
	}
}

// tryStartPreloadFetch launches the background next-batch fetch unless
// one is already in flight.
func (o *Orchestrator) tryStartPreloadFetch() {
	o.mu.Lock()
	if o.fetchingNext || o.stopped {
		o.mu.Unlock()
		return
	}
	o.fetchingNext = true
	o.mu.Unlock()

	go func() {
		defer func() {
			o.mu.Lock()
			o.fetchingNext = false
			o.mu.Unlock()
		}()
		if _, err := o.fetchNextBatch(context.Background(), true); err != nil {
			o.log.Warn("Background batch fetch failed: %v", err)
		}
	}()
}

// ensureMetadata extracts and stores enrichment for a served photo.
// Existing records only get their pending geocode re-enqueued.
func (o *Orchestrator) ensureMetadata(photo provider.Photo, path string) {
	ctx, cancel := context.WithTimeout(context.Background(), metadataTimeout)
	defer cancel()

	if _, ok := o.meta.Get(photo.ID, photo.Space); ok {
		if err := o.meta.SavePhotoMetadata(photo.ID, photo.Space, nil); err != nil {
			o.log.Warn("Metadata refresh for %s failed: %v", photo.Identity(), err)
		}
		return
	}

	ex, err := o.meta.Extract(ctx, o.client, photo, path)
	if err != nil {
		o.log.Debug("Metadata extraction for %s failed: %v", photo.Identity(), err)
		return
	}
	if err := o.meta.SavePhotoMetadata(photo.ID, photo.Space, ex); err != nil {
		o.log.Warn("Saving metadata for %s failed: %v", photo.Identity(), err)
	}
}

// armEmptyRetry schedules exactly one deferred advance after the
// provider came back empty.
func (o *Orchestrator) armEmptyRetry() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.retryArmed || o.stopped {
		return
	}
	o.retryArmed = true
	o.log.Info("Provider empty, retrying in %s", emptyRetryDelay)
	o.retryTimer = time.AfterFunc(emptyRetryDelay, func() {
		o.mu.Lock()
		o.retryArmed = false
		o.mu.Unlock()
		o.autoAdvance()
	})
}

// restartDisplayTimer (re)arms the single display timer.
func (o *Orchestrator) restartDisplayTimer() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stopped || o.cfg.Interval <= 0 {
		return
	}
	if o.displayTimer != nil {
		o.displayTimer.Stop()
	}
	o.displayTimer = time.AfterFunc(o.cfg.Interval, o.autoAdvance)
}

func (o *Orchestrator) autoAdvance() {
	ctx, cancel := context.WithTimeout(context.Background(), autoAdvanceTimeout)
	defer cancel()
	if _, err := o.Next(ctx); err != nil {
		o.log.Warn("Automatic advance failed: %v", err)
	}
}

// downloadForCache fetches a photo's display bytes and downscales them
// to the display bounds. Processing failures fall back to caching the
// provider bytes untouched.
func (o *Orchestrator) downloadForCache(ctx context.Context, photo provider.Photo) ([]byte, string, error) {
	data, err := o.client.DownloadBytes(ctx, photo.URL)
	if err != nil {
		return nil, "", fmt.Errorf("download %s: %w", photo.Identity(), err)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("download %s: empty response", photo.Identity())
	}

	processed, err := imgproc.FitForDisplay(data, o.cfg.DisplayWidth, o.cfg.DisplayHeight)
	if err != nil {
		o.log.Debug("Display fit for %s failed, caching as-is: %v", photo.Identity(), err)
		return data, "jpg", nil
	}
	return processed, "jpg", nil
}
