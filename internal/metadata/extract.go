package metadata

import (
	"context"
	"os"

	"github.com/rwcarlsen/goexif/exif"

	"photoframe/internal/metrics"
	"photoframe/internal/provider"
)

// Extract collects capture-time/GPS metadata for a photo. The provider
// API is preferred (no download needed); when it yields nothing and a
// cached file path is available, the file's EXIF block is decoded
// instead. Returns (nil, nil) when no useful field was found anywhere:
// "no data" is a normal outcome, not an error.
func (s *Store) Extract(ctx context.Context, client provider.Client, photo provider.Photo, localPath string) (*provider.Exif, error) {
	if client != nil {
		ex, err := client.GetExifMetadata(ctx, photo.ID, photo.Space)
		if err != nil {
			metrics.MetadataExtractionsTotal.WithLabelValues("api", "error").Inc()
			s.log.Debug("Provider EXIF for %s failed: %v", photo.Identity(), err)
		} else if ex != nil {
			metrics.MetadataExtractionsTotal.WithLabelValues("api", "success").Inc()
			return ex, nil
		} else {
			metrics.MetadataExtractionsTotal.WithLabelValues("api", "empty").Inc()
		}
	}

	if localPath == "" {
		return nil, nil
	}

	ex, err := extractFromFile(localPath)
	if err != nil {
		metrics.MetadataExtractionsTotal.WithLabelValues("file", "error").Inc()
		s.log.Debug("File EXIF for %s failed: %v", localPath, err)
		return nil, nil
	}
	if ex == nil {
		metrics.MetadataExtractionsTotal.WithLabelValues("file", "empty").Inc()
		return nil, nil
	}
	metrics.MetadataExtractionsTotal.WithLabelValues("file", "success").Inc()
	return ex, nil
}

// extractFromFile decodes the EXIF block of a local image file.
// Returns (nil, nil) when the file has EXIF but no capture date or
// GPS coordinates.
func extractFromFile(path string) (*provider.Exif, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return nil, err
	}

	var out provider.Exif

	if taken, err := x.DateTime(); err == nil {
		out.TakenAt = taken.UTC()
		out.HasTaken = true
	}

	if lat, lon, err := x.LatLong(); err == nil {
		out.Latitude = lat
		out.Longitude = lon
		out.HasGPS = true
	}

	if model, err := x.Get(exif.Model); err == nil {
		if name, err := model.StringVal(); err == nil {
			out.Camera = name
		}
	}

	if !out.HasTaken && !out.HasGPS {
		return nil, nil
	}
	return &out, nil
}
