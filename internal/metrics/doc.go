// Package metrics defines the Prometheus metrics exported by the
// photoframe daemon: slideshow serving, cache occupancy and eviction,
// provider API traffic, metadata extraction and geocoding activity,
// and HTTP middleware instrumentation.
package metrics
