// Package playlist manages the current display batch: shuffle and
// sort ordering, the cursor, the persisted already-shown tracker, and
// the preloaded next-batch buffer that makes batch rollover
// instantaneous.
package playlist
