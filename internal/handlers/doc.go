// Package handlers implements the HTTP API the display frontend
// consumes: slideshow navigation, cached image delivery, cache
// administration, health probes and version info.
package handlers
