// Package geocache stores resolved reverse-geocoding results in a
// small SQLite database keyed by rounded coordinates, so re-displayed
// photos and co-located shots never cost a second rate-limited call to
// the geocoding service.
package geocache
