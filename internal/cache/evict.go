package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"photoframe/internal/metrics"
)

type fileInfo struct {
	name    string
	path    string
	size    int64
	modTime time.Time
}

// EvictOldFiles deletes the oldest cache files (by modification time)
// until total on-disk size drops to 90% of the configured maximum.
// Protected files are never touched. Stat failures are logged and the
// file is treated as size 0 rather than aborting the sweep.
func (s *Store) EvictOldFiles() error {
	if s.maxBytes <= 0 {
		return nil
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("read cache dir: %w", err)
	}

	files := make([]fileInfo, 0, len(entries))
	var total int64
	for _, de := range entries {
		if de.IsDir() {
			continue
		}
		path := filepath.Join(s.dir, de.Name())
		if s.protected[path] {
			continue
		}
		info, err := de.Info()
		if err != nil {
			s.log.Warn("Eviction: stat %s: %v", de.Name(), err)
			files = append(files, fileInfo{name: de.Name(), path: path})
			continue
		}
		files = append(files, fileInfo{name: de.Name(), path: path, size: info.Size(), modTime: info.ModTime()})
		total += info.Size()
	}

	target := int64(float64(s.maxBytes) * evictTargetRatio)
	if total <= target {
		return nil
	}

	sort.Slice(files, func(i, j int) bool { return files[i].modTime.Before(files[j].modTime) })

	var removed int
	var freed int64
	for _, f := range files {
		if total <= target {
			break
		}
		if err := os.Remove(f.path); err != nil {
			s.log.Warn("Eviction: remove %s: %v", f.name, err)
			continue
		}
		total -= f.size
		freed += f.size
		removed++
		metrics.CacheEvictionsTotal.Inc()

		key := strings.TrimSuffix(f.name, filepath.Ext(f.name))
		s.mu.Lock()
		if e, ok := s.index[key]; ok {
			delete(s.index, key)
			s.totalBytes -= e.size
			if s.totalBytes < 0 {
				s.totalBytes = 0
			}
		}
		s.publishGauges()
		s.mu.Unlock()
	}

	// Disk truth wins over the running total after a sweep.
	s.mu.Lock()
	s.totalBytes = total
	s.publishGauges()
	s.mu.Unlock()

	s.log.Info("Evicted %d files (%s freed), cache now %s of %s",
		removed, formatBytes(freed), formatBytes(total), formatBytes(s.maxBytes))
	return nil
}
