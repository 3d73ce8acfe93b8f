package playlist

import (
	"testing"
	"time"

	"photoframe/internal/provider"
)

func namesOf(photos []provider.Photo) []string {
	names := make([]string, len(photos))
	for i, p := range photos {
		names[i] = p.Name
	}
	return names
}

func TestSortPhotosByName(t *testing.T) {
	photos := []provider.Photo{
		{Name: "b"},
		{Name: "a"},
		{Name: "a2"},
	}

	asc := append([]provider.Photo(nil), photos...)
	SortPhotos(asc, SortByName, false)
	if got := namesOf(asc); got[0] != "a" || got[1] != "a2" || got[2] != "b" {
		t.Errorf("ascending = %v, want [a a2 b]", got)
	}

	desc := append([]provider.Photo(nil), photos...)
	SortPhotos(desc, SortByName, true)
	if got := namesOf(desc); got[0] != "b" || got[1] != "a2" || got[2] != "a" {
		t.Errorf("descending = %v, want [b a2 a]", got)
	}
}

func TestSortPhotosNameCaseInsensitive(t *testing.T) {
	photos := []provider.Photo{
		{Name: "Banana.jpg"},
		{Name: "apple.jpg"},
	}
	SortPhotos(photos, SortByName, false)
	if photos[0].Name != "apple.jpg" {
		t.Errorf("order = %v, want apple.jpg first", namesOf(photos))
	}
}

func TestSortPhotosStability(t *testing.T) {
	// Same name, distinguishable by ID: equal keys must keep their
	// original relative order in both directions.
	photos := []provider.Photo{
		{Name: "same", ID: 1},
		{Name: "same", ID: 2},
		{Name: "zz", ID: 3},
	}

	asc := append([]provider.Photo(nil), photos...)
	SortPhotos(asc, SortByName, false)
	if asc[0].ID != 1 || asc[1].ID != 2 {
		t.Errorf("ascending broke stability: %+v", asc)
	}

	desc := append([]provider.Photo(nil), photos...)
	SortPhotos(desc, SortByName, true)
	if desc[0].ID != 3 || desc[1].ID != 1 || desc[2].ID != 2 {
		t.Errorf("descending broke equal-key order: %+v", desc)
	}
}

func TestSortPhotosByCreated(t *testing.T) {
	t0 := time.Unix(1000, 0)
	photos := []provider.Photo{
		{Name: "new", Created: t0.Add(time.Hour)},
		{Name: "old", Created: t0},
	}
	SortPhotos(photos, SortByCreated, false)
	if photos[0].Name != "old" {
		t.Errorf("order = %v, want old first", namesOf(photos))
	}

	SortPhotos(photos, SortByCreated, true)
	if photos[0].Name != "new" {
		t.Errorf("descending order = %v, want new first", namesOf(photos))
	}
}

func TestSortPhotosByModified(t *testing.T) {
	t0 := time.Unix(1000, 0)
	photos := []provider.Photo{
		{Name: "touched", Modified: t0.Add(time.Minute)},
		{Name: "stale", Modified: t0},
	}
	SortPhotos(photos, SortByModified, false)
	if photos[0].Name != "stale" {
		t.Errorf("order = %v, want stale first", namesOf(photos))
	}
}
