//go:build !cgo

package imgproc

import "errors"

// Without cgo the govips bindings cannot be linked, so the package
// always reports vips as unavailable and FitForDisplay takes the
// pure-Go path.

// InitVips initializes libvips. Call once at startup; safe to call
// again afterwards.
func InitVips() error {
	return errors.New("built without cgo; libvips unavailable")
}

// ShutdownVips releases libvips resources.
func ShutdownVips() {}

// IsVipsAvailable reports whether libvips is initialized.
func IsVipsAvailable() bool { return false }

// fitWithVips downscales image bytes to fit within the target bounds
// using decode-time shrinking, which keeps memory flat even for very
// large originals.
func fitWithVips(data []byte, maxWidth, maxHeight int) ([]byte, error) {
	return nil, errors.New("built without cgo; libvips unavailable")
}
