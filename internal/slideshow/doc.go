// Package slideshow drives the photo pipeline: the orchestrator owns
// the serve loop (batch fetch, preload at the low-water mark, batch
// rollover, the display timer) and the downloader sweeps the full
// remote collection for not-yet-cached originals in the background.
package slideshow
