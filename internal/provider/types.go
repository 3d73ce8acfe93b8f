package provider

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrAuthFailed indicates the provider rejected the configured
// credentials or the session could not be established. This is the one
// error class the pipeline propagates instead of degrading.
var ErrAuthFailed = errors.New("provider authentication failed")

// Photo is one photo as known to the pipeline. Immutable once built.
type Photo struct {
	Name     string
	URL      string // thumbnail fetch URL, may be empty
	Created  time.Time
	Modified time.Time
	ID       int
	Space    int // 0 = personal space, >0 = shared space
	FilePath string
	OwnerID  int
}

// Identity returns the composite provider identity used as the stable
// key for cache entries, metadata records and the shown tracker.
func (p Photo) Identity() string {
	return fmt.Sprintf("%d_%d", p.ID, p.Space)
}

// Filter narrows a photo listing to a folder or person.
// Zero values mean "no restriction".
type Filter struct {
	FolderID int
	PersonID int
}

// Exif carries the provider-reported technical metadata for a photo.
// Has* flags distinguish "absent" from zero values.
type Exif struct {
	TakenAt   time.Time
	Latitude  float64
	Longitude float64
	Camera    string
	HasTaken  bool
	HasGPS    bool
}

// Client is the boundary contract to the remote photo service.
// Every call may come back empty; callers must degrade gracefully.
type Client interface {
	// Authenticate establishes a session. Must be called before any
	// other method; may be called again to refresh an expired session.
	Authenticate(ctx context.Context) error

	// ListPhotos returns one page of the collection. An empty slice
	// with a nil error means the provider has nothing (more) to offer.
	ListPhotos(ctx context.Context, filter Filter, offset, limit int) ([]Photo, error)

	// DownloadBytes fetches an arbitrary URL previously handed out by
	// the provider (typically a Photo.URL thumbnail link).
	DownloadBytes(ctx context.Context, url string) ([]byte, error)

	// DownloadOriginal fetches the full-resolution original, which
	// carries richer EXIF than any thumbnail. Optional hints are
	// provider-specific download parameters.
	DownloadOriginal(ctx context.Context, id, space int, hints ...string) ([]byte, error)

	// GetExifMetadata asks the provider for capture-time/GPS fields
	// without downloading the file. Returns (nil, nil) when the
	// provider has no technical metadata for the photo.
	GetExifMetadata(ctx context.Context, id, space int) (*Exif, error)
}
