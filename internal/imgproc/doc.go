// Package imgproc prepares downloaded photos for display. Images are
// decoded, auto-oriented, and downscaled to the display bounds before
// they are written to the cache, using libvips when it is available
// and a pure-Go pipeline otherwise.
package imgproc
