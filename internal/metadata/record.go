package metadata

import "fmt"

// Record holds the enriched facts for one photo. Persisted as one
// entry of the shared JSON database, keyed by "{providerId}_{spaceId}".
type Record struct {
	// Location is "lat, lon" with 6-decimal precision, empty when the
	// photo carries no GPS data.
	Location string `json:"location,omitempty"`

	// TakenAt is the capture timestamp in ISO-8601 UTC.
	TakenAt string `json:"takenAt,omitempty"`

	// Address is the verbatim provider-formatted address, filled in by
	// the geocoding queue.
	Address string `json:"address,omitempty"`

	// ShortAddress is a display-friendly "locality, country" form.
	ShortAddress string `json:"shortAddress,omitempty"`
}

// HasLocation reports whether the record carries GPS coordinates.
func (r Record) HasLocation() bool { return r.Location != "" }

// NeedsAddress reports whether the record awaits geocoding.
func (r Record) NeedsAddress() bool { return r.Location != "" && r.Address == "" }

// recordKey builds the database key from a provider identity.
func recordKey(id, space int) string {
	return fmt.Sprintf("%d_%d", id, space)
}

// formatLocation renders coordinates in the stored "lat, lon" form.
func formatLocation(lat, lon float64) string {
	return fmt.Sprintf("%.6f, %.6f", lat, lon)
}

// parseLocation splits a stored "lat, lon" string. ok is false for
// malformed values.
func parseLocation(location string) (lat, lon float64, ok bool) {
	n, err := fmt.Sscanf(location, "%f, %f", &lat, &lon)
	return lat, lon, err == nil && n == 2
}
