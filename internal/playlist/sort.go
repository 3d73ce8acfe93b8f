package playlist

import (
	"sort"
	"strings"

	"photoframe/internal/provider"
)

// SortPhotos orders photos by the given field, ascending by default.
// Sorting is stable: equal keys keep their original relative order,
// and the descending pass preserves that same relative order.
func SortPhotos(photos []provider.Photo, field SortField, descending bool) {
	less := lessFunc(field)
	sort.SliceStable(photos, func(i, j int) bool {
		if descending {
			return less(photos[j], photos[i])
		}
		return less(photos[i], photos[j])
	})
}

func lessFunc(field SortField) func(a, b provider.Photo) bool {
	switch field {
	case SortByCreated:
		return func(a, b provider.Photo) bool { return a.Created.Before(b.Created) }
	case SortByModified:
		return func(a, b provider.Photo) bool { return a.Modified.Before(b.Modified) }
	default:
		return func(a, b provider.Photo) bool {
			return strings.ToLower(a.Name) < strings.ToLower(b.Name)
		}
	}
}
