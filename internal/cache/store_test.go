package cache

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSetGetRoundtrip(t *testing.T) {
	s := newTestStore(t, 0)

	path, err := s.Set("thumbnail_1_0", []byte("photo-bytes"), "jpg", 1, 0)
	if err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, ok := s.Get("thumbnail_1_0", 1, 0)
	if !ok {
		t.Fatal("Get() miss after Set()")
	}
	if got != path {
		t.Errorf("Get() = %q, want %q", got, path)
	}

	data, err := os.ReadFile(got)
	if err != nil {
		t.Fatalf("read cached file: %v", err)
	}
	if string(data) != "photo-bytes" {
		t.Errorf("cached content = %q", data)
	}
}

func TestGetMiss(t *testing.T) {
	s := newTestStore(t, 0)
	if _, ok := s.Get("thumbnail_99_0", 99, 0); ok {
		t.Error("Get() hit on an empty cache")
	}
}

func TestGetSelfHealsStaleIndexEntry(t *testing.T) {
	s := newTestStore(t, 0)

	path, err := s.Set("thumbnail_5_0", []byte("data"), "jpg", 5, 0)
	if err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	// Delete the file behind the index's back.
	if err := os.Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}

	if _, ok := s.Get("thumbnail_5_0", 5, 0); ok {
		t.Error("Get() hit for a vanished file")
	}

	stats := s.GetStats()
	if stats.Entries != 0 {
		t.Errorf("index still holds %d entries after self-heal", stats.Entries)
	}
	if stats.TotalBytes != 0 {
		t.Errorf("size accounting = %d after self-heal, want 0", stats.TotalBytes)
	}
}

func TestAdoptExistingFilesOnStartup(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "thumbnail_3_0.jpg"), []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := NewStore(Config{Dir: dir})
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	if _, ok := s.Get("thumbnail_3_0", 3, 0); !ok {
		t.Error("file from a previous run was not adopted")
	}
	if stats := s.GetStats(); stats.TotalBytes != 3 {
		t.Errorf("TotalBytes = %d, want 3", stats.TotalBytes)
	}
}

func TestSetReplacesExistingEntry(t *testing.T) {
	s := newTestStore(t, 0)

	if _, err := s.Set("thumbnail_1_0", []byte("first"), "jpg", 1, 0); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Set("thumbnail_1_0", []byte("second-longer"), "jpg", 1, 0); err != nil {
		t.Fatal(err)
	}

	stats := s.GetStats()
	if stats.Entries != 1 {
		t.Errorf("Entries = %d, want 1", stats.Entries)
	}
	if stats.TotalBytes != int64(len("second-longer")) {
		t.Errorf("TotalBytes = %d, want %d", stats.TotalBytes, len("second-longer"))
	}
}

func TestClearKeepsProtectedFile(t *testing.T) {
	dir := t.TempDir()
	protected := filepath.Join(dir, "photo-metadata.json")
	if err := os.WriteFile(protected, []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := NewStore(Config{Dir: dir, ProtectedFiles: []string{protected}})
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	if _, err := s.Set("thumbnail_1_0", []byte("data"), "jpg", 1, 0); err != nil {
		t.Fatal(err)
	}

	if err := s.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}

	if _, err := os.Stat(protected); err != nil {
		t.Errorf("protected file deleted by Clear(): %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "thumbnail_1_0.jpg")); !os.IsNotExist(err) {
		t.Error("cache file survived Clear()")
	}
	if stats := s.GetStats(); stats.Entries != 0 || stats.TotalBytes != 0 {
		t.Errorf("stats after Clear() = %+v", stats)
	}
}
