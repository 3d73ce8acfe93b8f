// Package metadata maintains enriched per-photo facts: capture time
// and GPS extracted from the provider API or from cached image files,
// a centralized crash-safe JSON database keyed by provider identity,
// and a serialized reverse-geocoding queue that respects the geocoding
// service's rate limit no matter how many callers enqueue work.
package metadata
