package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"photoframe/internal/geocache"
	"photoframe/internal/logging"
	"photoframe/internal/metrics"
	"photoframe/internal/provider"
)

const geocodeQueueSize = 64

type geocodeTask struct {
	key string
	lat float64
	lon float64
}

// Store is the centralized photo metadata database plus the geocoding
// enrichment queue. The database file lives outside the cache
// directory so cache clearing can never touch it.
type Store struct {
	path     string
	geocoder *Geocoder
	geoCache *geocache.DB
	log      *logging.Logger

	mu      sync.Mutex
	records map[string]Record

	tasks chan geocodeTask
	stop  chan struct{}
	done  chan struct{}
}

// NewStore loads (or recovers) the database at path and, when a
// geocoder is supplied, starts the single queue drainer. geoCache may
// be nil.
func NewStore(path string, geocoder *Geocoder, geoCache *geocache.DB) *Store {
	s := &Store{
		path:     path,
		geocoder: geocoder,
		geoCache: geoCache,
		log:      logging.New("metadata"),
		tasks:    make(chan geocodeTask, geocodeQueueSize),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	s.records = s.load()
	s.log.Info("Metadata database loaded: %d records", len(s.records))

	if geocoder != nil {
		go s.drainGeocodeQueue()
	} else {
		close(s.done)
	}
	return s
}

// Close stops the geocode drainer and waits for the in-flight task.
func (s *Store) Close() {
	close(s.stop)
	<-s.done
}

// load reads the database file. An empty or unparsable file falls back
// to the sibling backup; if that also fails, an empty database is
// returned. A corrupted database must never take the slideshow down.
func (s *Store) load() map[string]Record {
	if records, err := readRecords(s.path); err == nil {
		return records
	} else if !os.IsNotExist(err) {
		s.log.Warn("Metadata database unreadable: %v, trying backup", err)
	}

	if records, err := readRecords(s.path + ".backup"); err == nil {
		s.log.Info("Recovered metadata database from backup")
		return records
	}

	return make(map[string]Record)
}

func readRecords(path string) (map[string]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%s is empty", path)
	}
	var records map[string]Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if records == nil {
		records = make(map[string]Record)
	}
	return records, nil
}

// save persists the database atomically: best-effort copy of the
// current file to the backup path, write the new content to a
// temporary path, then rename over the real path. A reader never
// observes a half-written file. Caller holds s.mu.
func (s *Store) save() error {
	if current, err := os.ReadFile(s.path); err == nil {
		if err := os.WriteFile(s.path+".backup", current, 0644); err != nil {
			s.log.Warn("Writing metadata backup failed: %v", err)
		}
	}

	data, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata database: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write metadata temp file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("rename metadata temp file: %w", err)
	}
	return nil
}

// Get returns the record for a provider identity.
func (s *Store) Get(id, space int) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[recordKey(id, space)]
	return rec, ok
}

// Count returns the number of records in the database.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// SavePhotoMetadata inserts a record for a photo if none exists yet
// (location and capture date only) and enqueues geocoding when a
// location is present without an address. Existing records are left
// untouched apart from the geocoding enqueue.
func (s *Store) SavePhotoMetadata(id, space int, ex *provider.Exif) error {
	key := recordKey(id, space)

	s.mu.Lock()
	if rec, ok := s.records[key]; ok {
		s.mu.Unlock()
		if rec.NeedsAddress() {
			s.enqueueGeocode(key, rec.Location)
		}
		return nil
	}

	if ex == nil {
		s.mu.Unlock()
		return nil
	}

	rec := Record{}
	if ex.HasTaken {
		rec.TakenAt = ex.TakenAt.UTC().Format("2006-01-02T15:04:05Z")
	}
	if ex.HasGPS {
		rec.Location = formatLocation(ex.Latitude, ex.Longitude)
	}

	s.records[key] = rec
	err := s.save()
	s.mu.Unlock()
	if err != nil {
		return err
	}

	if rec.HasLocation() {
		s.enqueueGeocode(key, rec.Location)
	}
	return nil
}

// enqueueGeocode hands a record to the serial geocoding queue. A full
// queue drops the task; the photo's next display retries.
func (s *Store) enqueueGeocode(key, location string) {
	if s.geocoder == nil {
		return
	}
	lat, lon, ok := parseLocation(location)
	if !ok {
		s.log.Warn("Record %s has malformed location %q", key, location)
		return
	}

	select {
	case s.tasks <- geocodeTask{key: key, lat: lat, lon: lon}:
		metrics.GeocodeQueueDepth.Set(float64(len(s.tasks)))
	default:
		s.log.Debug("Geocode queue full, dropping task for %s", key)
	}
}

// drainGeocodeQueue is the single-flight drain loop: one task at a
// time, no matter how many callers enqueue concurrently, so the
// external rate limit is respected exactly once globally.
func (s *Store) drainGeocodeQueue() {
	defer close(s.done)
	for {
		select {
		case <-s.stop:
			return
		case task := <-s.tasks:
			metrics.GeocodeQueueDepth.Set(float64(len(s.tasks)))
			s.resolveTask(task)
		}
	}
}

func (s *Store) resolveTask(task geocodeTask) {
	// Skip tasks whose record gained an address while queued.
	s.mu.Lock()
	rec, ok := s.records[task.key]
	s.mu.Unlock()
	if !ok || !rec.NeedsAddress() {
		return
	}

	ctx := context.Background()

	if s.geoCache != nil {
		address, short, hit, err := s.geoCache.Get(ctx, task.lat, task.lon)
		if err != nil {
			s.log.Warn("Geocode cache lookup failed: %v", err)
		} else if hit {
			metrics.GeocodeRequestsTotal.WithLabelValues("cached").Inc()
			s.applyAddress(task.key, address, short)
			return
		}
	}

	addr, err := s.geocoder.Reverse(ctx, task.lat, task.lon)
	if err != nil {
		// Leave the record address-less; a later display retries.
		s.log.Warn("Reverse geocoding %s failed: %v", task.key, err)
		return
	}

	s.applyAddress(task.key, addr.Full, addr.Short)

	if s.geoCache != nil {
		if err := s.geoCache.Put(ctx, task.lat, task.lon, addr.Full, addr.Short); err != nil {
			s.log.Warn("Geocode cache store failed: %v", err)
		}
	}
}

// applyAddress updates a record in place and persists the database.
func (s *Store) applyAddress(key, address, short string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[key]
	if !ok {
		return
	}
	rec.Address = address
	rec.ShortAddress = short
	s.records[key] = rec

	if err := s.save(); err != nil {
		s.log.Warn("Persisting address for %s failed: %v", key, err)
	}
}
