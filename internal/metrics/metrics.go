package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photoframe_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photoframe_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photoframe_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Slideshow metrics
var (
	PhotosServedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photoframe_photos_served_total",
			Help: "Total number of photos handed to the display layer",
		},
		[]string{"source"}, // cache, network
	)

	BatchSwitchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photoframe_batch_switches_total",
			Help: "Total number of batch rollovers",
		},
		[]string{"mode"}, // preloaded, synchronous, restart
	)

	BackgroundDownloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photoframe_background_downloads_total",
			Help: "Total number of background original downloads",
		},
		[]string{"status"}, // success, error, skipped
	)
)

// Cache metrics
var (
	CacheSizeBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photoframe_cache_size_bytes",
			Help: "Current total size of the image cache on disk",
		},
	)

	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photoframe_cache_entries",
			Help: "Number of entries in the in-memory cache index",
		},
	)

	CacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photoframe_cache_hits_total",
			Help: "Total number of cache hits",
		},
	)

	CacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photoframe_cache_misses_total",
			Help: "Total number of cache misses",
		},
	)

	CacheEvictionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photoframe_cache_evictions_total",
			Help: "Total number of files removed by cache eviction",
		},
	)

	CachePreloadRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photoframe_cache_preload_runs_total",
			Help: "Total number of preload sweeps",
		},
		[]string{"status"}, // completed, skipped
	)
)

// Provider API metrics
var (
	ProviderRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photoframe_provider_requests_total",
			Help: "Total number of photo provider API requests",
		},
		[]string{"api", "status"},
	)

	ProviderRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photoframe_provider_request_duration_seconds",
			Help:    "Photo provider API request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"api"},
	)
)

// Metadata and geocoding metrics
var (
	MetadataExtractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photoframe_metadata_extractions_total",
			Help: "Total number of metadata extraction attempts",
		},
		[]string{"source", "status"}, // source: api, file; status: success, empty, error
	)

	GeocodeRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photoframe_geocode_requests_total",
			Help: "Total number of reverse geocoding requests",
		},
		[]string{"status"}, // success, error, cached
	)

	GeocodeQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photoframe_geocode_queue_depth",
			Help: "Number of reverse geocoding tasks waiting in the queue",
		},
	)
)
