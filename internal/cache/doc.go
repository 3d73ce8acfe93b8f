// Package cache implements the on-disk photo byte cache: deterministic
// key derivation from provider URLs, an in-memory index with size
// accounting, oldest-first disk eviction against a configured size
// budget, and serial background preloading of upcoming photos.
//
// Disk failures are never fatal here; the cache degrades (worst case to
// an unbounded state) rather than taking the slideshow down with it.
package cache
