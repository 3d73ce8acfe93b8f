package provider

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// The provider populates item fields inconsistently across API
// versions and spaces: names arrive as "filename" or "name", capture
// time as seconds or milliseconds, GPS coordinates as numbers or
// strings. The payload structs below make every probed field optional,
// and normalization happens exactly once, here, instead of being
// scattered through extraction logic.

type itemPayload struct {
	ID         int64              `json:"id"`
	FileName   *string            `json:"filename"`
	Name       *string            `json:"name"`
	Time       *int64             `json:"time"`         // capture time, unix seconds
	CreateTime *int64             `json:"create_time"`  // unix seconds
	IndexedAt  *int64             `json:"indexed_time"` // unix milliseconds
	Folder     *string            `json:"folder_name"`
	OwnerID    *int               `json:"owner_user_id"`
	Additional *additionalPayload `json:"additional"`
}

type additionalPayload struct {
	Thumbnail *thumbnailPayload `json:"thumbnail"`
	Exif      *exifPayload      `json:"exif"`
	GPS       *gpsPayload       `json:"gps"`
}

type thumbnailPayload struct {
	CacheKey *string `json:"cache_key"`
	UnitID   *int64  `json:"unit_id"`
}

type exifPayload struct {
	Camera   *string `json:"camera"`
	Lens     *string `json:"lens"`
	Aperture *string `json:"aperture"`
}

type gpsPayload struct {
	Latitude  flexFloat `json:"latitude"`
	Longitude flexFloat `json:"longitude"`
}

// flexFloat decodes a JSON number that some API versions send as a
// quoted string ("59.3293") and others as a bare number.
type flexFloat struct {
	Value float64
	Valid bool
}

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == `""` {
		return nil
	}
	s = strings.Trim(s, `"`)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// Malformed coordinate: treat as absent rather than failing
		// the whole item.
		return nil
	}
	f.Value = v
	f.Valid = true
	return nil
}

// normalizePhoto converts one raw item payload into the pipeline's
// Photo model. thumbURL builds the thumbnail fetch URL from the item
// id and its cache key; it may be nil when no URL is wanted.
func normalizePhoto(raw itemPayload, space int, thumbURL func(id int64, cacheKey string) string) Photo {
	p := Photo{
		ID:    int(raw.ID),
		Space: space,
	}

	switch {
	case raw.FileName != nil && *raw.FileName != "":
		p.Name = *raw.FileName
	case raw.Name != nil:
		p.Name = *raw.Name
	}

	switch {
	case raw.Time != nil:
		p.Created = time.Unix(*raw.Time, 0).UTC()
	case raw.CreateTime != nil:
		p.Created = time.Unix(*raw.CreateTime, 0).UTC()
	}

	if raw.IndexedAt != nil {
		p.Modified = time.UnixMilli(*raw.IndexedAt).UTC()
	} else {
		p.Modified = p.Created
	}

	if raw.Folder != nil {
		p.FilePath = *raw.Folder
	}
	if raw.OwnerID != nil {
		p.OwnerID = *raw.OwnerID
	}

	if thumbURL != nil && raw.Additional != nil && raw.Additional.Thumbnail != nil {
		cacheKey := ""
		if raw.Additional.Thumbnail.CacheKey != nil {
			cacheKey = *raw.Additional.Thumbnail.CacheKey
		}
		p.URL = thumbURL(raw.ID, cacheKey)
	}

	return p
}

// normalizeExif converts raw capture-time and GPS fields into an Exif.
// Returns nil when neither a capture date nor a coordinate pair was
// present, the "no data" case the metadata store expects.
func normalizeExif(raw itemPayload) *Exif {
	var out Exif

	if raw.Time != nil {
		out.TakenAt = time.Unix(*raw.Time, 0).UTC()
		out.HasTaken = true
	}

	if raw.Additional != nil {
		if gps := raw.Additional.GPS; gps != nil && gps.Latitude.Valid && gps.Longitude.Valid {
			out.Latitude = gps.Latitude.Value
			out.Longitude = gps.Longitude.Value
			out.HasGPS = true
		}
		if ex := raw.Additional.Exif; ex != nil && ex.Camera != nil {
			out.Camera = *ex.Camera
		}
	}

	if !out.HasTaken && !out.HasGPS {
		return nil
	}
	return &out
}

// apiResponse is the provider's uniform envelope.
type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *apiError       `json:"error"`
}

type apiError struct {
	Code int `json:"code"`
}
