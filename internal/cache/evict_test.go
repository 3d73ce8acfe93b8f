package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestEvictOldFilesConverges(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(Config{Dir: dir, MaxBytes: 10 * 1024})
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	// Five 3KiB entries against a 10KiB budget, oldest first.
	payload := make([]byte, 3*1024)
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		key := ThumbnailKey(i+1, 0)
		path, err := s.Set(key, payload, "jpg", i+1, 0)
		if err != nil {
			t.Fatalf("Set(%s) error = %v", key, err)
		}
		mtime := base.Add(time.Duration(i) * time.Minute)
		if err := os.Chtimes(path, mtime, mtime); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
	}

	if err := s.EvictOldFiles(); err != nil {
		t.Fatalf("EvictOldFiles() error = %v", err)
	}

	// Target is 90% of 10KiB; the two oldest entries must be gone and
	// the three newest must survive.
	var total int64
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, de := range entries {
		info, err := de.Info()
		if err != nil {
			t.Fatal(err)
		}
		total += info.Size()
	}
	if target := int64(float64(10*1024) * evictTargetRatio); total > target {
		t.Errorf("on-disk size %d exceeds eviction target %d", total, target)
	}

	for i, wantGone := range []bool{true, true, false, false, false} {
		path := filepath.Join(dir, ThumbnailKey(i+1, 0)+".jpg")
		_, err := os.Stat(path)
		if wantGone && !os.IsNotExist(err) {
			t.Errorf("entry %d survived eviction, want removed", i+1)
		}
		if !wantGone && err != nil {
			t.Errorf("entry %d removed, want kept: %v", i+1, err)
		}
	}
}

func TestEvictOldFilesSkipsProtectedFile(t *testing.T) {
	dir := t.TempDir()
	protected := filepath.Join(dir, "photo-metadata.json")
	if err := os.WriteFile(protected, make([]byte, 8*1024), 0644); err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(-24 * time.Hour)
	if err := os.Chtimes(protected, old, old); err != nil {
		t.Fatal(err)
	}

	s, err := NewStore(Config{Dir: dir, MaxBytes: 4 * 1024, ProtectedFiles: []string{protected}})
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	if _, err := s.Set("thumbnail_1_0", make([]byte, 6*1024), "jpg", 1, 0); err != nil {
		t.Fatal(err)
	}

	if err := s.EvictOldFiles(); err != nil {
		t.Fatalf("EvictOldFiles() error = %v", err)
	}

	if _, err := os.Stat(protected); err != nil {
		t.Errorf("protected metadata file was evicted: %v", err)
	}
}

func TestEvictNoopUnderTarget(t *testing.T) {
	s := newTestStore(t, 1024*1024)
	path, err := s.Set("thumbnail_1_0", []byte("tiny"), "jpg", 1, 0)
	if err != nil {
		t.Fatal(err)
	}

	if err := s.EvictOldFiles(); err != nil {
		t.Fatalf("EvictOldFiles() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("entry evicted below target: %v", err)
	}
}
