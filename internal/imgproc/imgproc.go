package imgproc

import (
	"bytes"
	"fmt"
	"image"

	_ "image/gif"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"photoframe/internal/logging"
)

const (
	// DefaultMaxWidth and DefaultMaxHeight bound cached display copies.
	// 4K is the largest panel the frame targets.
	DefaultMaxWidth  = 3840
	DefaultMaxHeight = 2160

	jpegQuality = 92
)

var log = logging.New("imgproc")

// FitForDisplay decodes image bytes, applies EXIF orientation, and
// downscales to fit within the given bounds, returning JPEG bytes.
// Images already within bounds are returned unchanged so the cache
// keeps the provider's original encoding.
func FitForDisplay(data []byte, maxWidth, maxHeight int) ([]byte, error) {
	if maxWidth <= 0 || maxHeight <= 0 {
		return nil, fmt.Errorf("invalid display bounds %dx%d", maxWidth, maxHeight)
	}

	if IsVipsAvailable() {
		out, err := fitWithVips(data, maxWidth, maxHeight)
		if err == nil {
			return out, nil
		}
		log.Warn("vips processing failed, falling back: %v", err)
	}
	return fitWithImaging(data, maxWidth, maxHeight)
}

// fitWithImaging is the pure-Go path. Decodes the full image, so it is
// slower and hungrier than vips, but has no native dependency.
func fitWithImaging(data []byte, maxWidth, maxHeight int) ([]byte, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err == nil && cfg.Width <= maxWidth && cfg.Height <= maxHeight {
		return data, nil
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > maxWidth || bounds.Dy() > maxHeight {
		img = imaging.Fit(img, maxWidth, maxHeight, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// Dimensions reads image dimensions from the header without decoding
// pixel data.
func Dimensions(data []byte) (width, height int, err error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}
