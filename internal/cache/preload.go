package cache

import (
	"context"
	"time"

	"photoframe/internal/metrics"
	"photoframe/internal/provider"
)

// preloadItemTimeout bounds each individual preload download.
const preloadItemTimeout = 30 * time.Second

// DownloadFunc fetches the bytes for one photo and reports the file
// extension to store them under.
type DownloadFunc func(ctx context.Context, photo provider.Photo) (data []byte, ext string, err error)

// PreloadImages serially downloads the not-yet-cached prefix of the
// given batch (bounded by the configured preload count), waiting the
// configured delay between items. Only one sweep runs at a time; a
// sweep requested while another is in flight is dropped.
func (s *Store) PreloadImages(ctx context.Context, photos []provider.Photo, download DownloadFunc) {
	s.mu.Lock()
	if s.preloading {
		s.mu.Unlock()
		s.log.Debug("Preload already in flight, skipping")
		metrics.CachePreloadRunsTotal.WithLabelValues("skipped").Inc()
		return
	}
	s.preloading = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.preloading = false
		s.mu.Unlock()
	}()

	count := s.preloadCount
	if count <= 0 || count > len(photos) {
		count = len(photos)
	}

	fetched := 0
	for i := 0; i < count; i++ {
		if ctx.Err() != nil {
			return
		}
		photo := photos[i]

		if _, ok := s.Get(photo.URL, photo.ID, photo.Space); ok {
			continue
		}

		itemCtx, cancel := context.WithTimeout(ctx, preloadItemTimeout)
		data, ext, err := download(itemCtx, photo)
		cancel()
		if err != nil {
			// Non-fatal: skip this item this round.
			s.log.Warn("Preload %s failed: %v", photo.Identity(), err)
			continue
		}
		if len(data) == 0 {
			continue
		}

		if _, err := s.Set(photo.URL, data, ext, photo.ID, photo.Space); err != nil {
			s.log.Warn("Preload store %s failed: %v", photo.Identity(), err)
			continue
		}
		fetched++

		if s.preloadDelay > 0 && i < count-1 {
			select {
			case <-time.After(s.preloadDelay):
			case <-ctx.Done():
				return
			}
		}
	}

	s.log.Debug("Preload sweep done: %d/%d fetched", fetched, count)
	metrics.CachePreloadRunsTotal.WithLabelValues("completed").Inc()
}
