package cache

import (
	"crypto/md5"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"photoframe/internal/logging"
	"photoframe/internal/metrics"
)

const (
	// evictTargetRatio is how far below the maximum eviction shrinks
	// the cache, leaving headroom before the next sweep is needed.
	evictTargetRatio = 0.9

	// maxIndexEntries bounds the in-memory index; when reached, a
	// batch of the oldest entries is dropped from the map (files stay
	// on disk and are re-adopted on the next Get).
	maxIndexEntries = 5000
	indexEvictBatch = 100
)

// knownExtensions are probed, in order, when looking up a key on disk.
var knownExtensions = []string{"jpg", "jpeg", "png", "gif", "webp", "bmp", "heic"}

// cacheKeyPattern matches identifiers that are already derived keys.
var cacheKeyPattern = regexp.MustCompile(`^(original|thumbnail)_\d+_\d+$`)

type entry struct {
	path    string
	size    int64
	modTime time.Time
}

// Config configures a Store.
type Config struct {
	// Dir is the cache directory; created if missing.
	Dir string

	// MaxBytes is the size budget. Zero disables eviction.
	MaxBytes int64

	// PreloadCount bounds how many upcoming photos one preload sweep
	// touches.
	PreloadCount int

	// PreloadDelay is the pause between preload downloads.
	PreloadDelay time.Duration

	// ProtectedFiles are absolute paths that eviction and Clear must
	// never delete, even when found inside the cache directory (the
	// metadata database and its siblings).
	ProtectedFiles []string
}

// Store is the content-addressed-by-identity disk cache.
type Store struct {
	dir          string
	maxBytes     int64
	preloadCount int
	preloadDelay time.Duration
	protected    map[string]bool
	log          *logging.Logger

	mu         sync.Mutex
	index      map[string]entry
	totalBytes int64
	preloading bool
	evicting   bool
}

// NewStore creates the cache directory if needed and adopts any files
// already present so restarts keep their cache.
func NewStore(cfg Config) (*Store, error) {
	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	s := &Store{
		dir:          cfg.Dir,
		maxBytes:     cfg.MaxBytes,
		preloadCount: cfg.PreloadCount,
		preloadDelay: cfg.PreloadDelay,
		protected:    make(map[string]bool, len(cfg.ProtectedFiles)),
		log:          logging.New("cache"),
		index:        make(map[string]entry),
	}
	for _, p := range cfg.ProtectedFiles {
		s.protected[filepath.Clean(p)] = true
	}

	s.adoptExisting()
	s.log.Info("Cache ready: %d entries, %s of %s budget",
		len(s.index), formatBytes(s.totalBytes), formatBytes(s.maxBytes))
	return s, nil
}

// adoptExisting scans the cache directory into the index. Errors are
// logged and the affected file is skipped (assume size 0).
func (s *Store) adoptExisting() {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.log.Warn("Cache scan failed: %v", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
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
			s.log.Warn("Cache scan: stat %s: %v", de.Name(), err)
			continue
		}
		key := strings.TrimSuffix(de.Name(), filepath.Ext(de.Name()))
		s.index[key] = entry{path: path, size: info.Size(), modTime: info.ModTime()}
		s.totalBytes += info.Size()
	}
	s.publishGauges()
}

// Key derives the deterministic cache key for an identifier. Already
// derived keys pass through unchanged. With a provider identity the
// identifier is classified as an original or a thumbnail variant, so
// the same logical photo maps to the same file regardless of which URL
// form triggered the fetch. Without an identity the raw identifier is
// content-hashed.
func (s *Store) Key(identifier string, id, space int) string {
	if cacheKeyPattern.MatchString(identifier) {
		return identifier
	}
	if id > 0 {
		if isOriginalIdentifier(identifier) {
			return fmt.Sprintf("original_%d_%d", id, space)
		}
		return fmt.Sprintf("thumbnail_%d_%d", id, space)
	}
	return fmt.Sprintf("%x", md5.Sum([]byte(identifier)))
}

// isOriginalIdentifier reports whether the identifier refers to a
// full-resolution download rather than a thumbnail.
func isOriginalIdentifier(identifier string) bool {
	lower := strings.ToLower(identifier)
	return strings.Contains(lower, "download") || strings.Contains(lower, "original")
}

// OriginalKey returns the derived key for a photo's full-resolution
// original.
func OriginalKey(id, space int) string {
	return fmt.Sprintf("original_%d_%d", id, space)
}

// ThumbnailKey returns the derived key for a photo's thumbnail.
func ThumbnailKey(id, space int) string {
	return fmt.Sprintf("thumbnail_%d_%d", id, space)
}

// Get returns the readable file path for an identifier, or "" and
// false on a miss. An index entry pointing at a vanished file is
// self-healed into a miss.
func (s *Store) Get(identifier string, id, space int) (string, bool) {
	key := s.Key(identifier, id, space)

	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.index[key]; ok {
		if _, err := os.Stat(e.path); err == nil {
			metrics.CacheHitsTotal.Inc()
			return e.path, true
		}
		// Index pointed at a missing file; drop the stale entry.
		s.log.Debug("Self-healing stale index entry for %s", key)
		delete(s.index, key)
		s.totalBytes -= e.size
		if s.totalBytes < 0 {
			s.totalBytes = 0
		}
		s.publishGauges()
	}

	// Not indexed: probe known extensions so files from a previous run
	// (or dropped by bounded-index eviction) are re-adopted.
	for _, ext := range knownExtensions {
		path := filepath.Join(s.dir, key+"."+ext)
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		s.index[key] = entry{path: path, size: info.Size(), modTime: info.ModTime()}
		s.totalBytes += info.Size()
		s.publishGauges()
		metrics.CacheHitsTotal.Inc()
		return path, true
	}

	metrics.CacheMissesTotal.Inc()
	return "", false
}

// Set writes bytes under the derived key and returns the file path.
// When the running size total exceeds the budget an asynchronous disk
// eviction is triggered.
func (s *Store) Set(identifier string, data []byte, ext string, id, space int) (string, error) {
	key := s.Key(identifier, id, space)
	ext = normalizeExt(ext)
	path := filepath.Join(s.dir, key+"."+ext)

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.index) >= maxIndexEntries {
		s.evictIndexBatch()
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write cache file %s: %w", key, err)
	}

	if old, ok := s.index[key]; ok {
		s.totalBytes -= old.size
		if old.path != path {
			// Same key re-fetched with a different extension.
			if err := os.Remove(old.path); err != nil && !os.IsNotExist(err) {
				s.log.Warn("Remove superseded cache file %s: %v", old.path, err)
			}
		}
	}

	s.index[key] = entry{path: path, size: int64(len(data)), modTime: time.Now()}
	s.totalBytes += int64(len(data))
	s.publishGauges()

	if s.maxBytes > 0 && s.totalBytes > s.maxBytes && !s.evicting {
		s.evicting = true
		go func() {
			defer func() {
				s.mu.Lock()
				s.evicting = false
				s.mu.Unlock()
			}()
			if err := s.EvictOldFiles(); err != nil {
				s.log.Warn("Eviction failed: %v", err)
			}
		}()
	}

	return path, nil
}

// evictIndexBatch drops the oldest indexEvictBatch entries from the
// in-memory index only. Caller holds s.mu.
func (s *Store) evictIndexBatch() {
	type keyed struct {
		key string
		mod time.Time
	}
	all := make([]keyed, 0, len(s.index))
	for k, e := range s.index {
		all = append(all, keyed{k, e.modTime})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].mod.Before(all[j].mod) })

	n := indexEvictBatch
	if n > len(all) {
		n = len(all)
	}
	for _, ke := range all[:n] {
		s.totalBytes -= s.index[ke.key].size
		delete(s.index, ke.key)
	}
	if s.totalBytes < 0 {
		s.totalBytes = 0
	}
	s.log.Debug("Dropped %d oldest index entries (bounded map)", n)
	s.publishGauges()
}

// Clear empties the index and deletes every cache file except the
// protected ones.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("read cache dir: %w", err)
	}

	for _, de := range entries {
		if de.IsDir() {
			continue
		}
		path := filepath.Join(s.dir, de.Name())
		if s.protected[path] {
			continue
		}
		if err := os.Remove(path); err != nil {
			s.log.Warn("Clear: remove %s: %v", de.Name(), err)
		}
	}

	s.index = make(map[string]entry)
	s.totalBytes = 0
	s.publishGauges()
	s.log.Info("Cache cleared")
	return nil
}

// Stats reports current cache occupancy.
type Stats struct {
	Entries    int   `json:"entries"`
	TotalBytes int64 `json:"totalBytes"`
	MaxBytes   int64 `json:"maxBytes"`
}

// GetStats returns a snapshot of cache occupancy.
func (s *Store) GetStats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{Entries: len(s.index), TotalBytes: s.totalBytes, MaxBytes: s.maxBytes}
}

// publishGauges updates the occupancy gauges. Caller holds s.mu.
func (s *Store) publishGauges() {
	metrics.CacheSizeBytes.Set(float64(s.totalBytes))
	metrics.CacheEntries.Set(float64(len(s.index)))
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if ext == "" {
		return "jpg"
	}
	return ext
}

func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
