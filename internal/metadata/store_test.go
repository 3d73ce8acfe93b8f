package metadata

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"photoframe/internal/provider"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "photo-metadata.json")
	s := NewStore(path, nil, nil)
	t.Cleanup(s.Close)
	return s, path
}

func gpsExif(lat, lon float64) *provider.Exif {
	return &provider.Exif{Latitude: lat, Longitude: lon, HasGPS: true}
}

func TestSavePhotoMetadataInsertsRecord(t *testing.T) {
	s, path := newTestStore(t)

	ex := &provider.Exif{
		TakenAt:   time.Date(2023, 6, 1, 12, 30, 0, 0, time.UTC),
		HasTaken:  true,
		Latitude:  59.3293,
		Longitude: 18.0686,
		HasGPS:    true,
	}
	if err := s.SavePhotoMetadata(42, 0, ex); err != nil {
		t.Fatalf("SavePhotoMetadata() error = %v", err)
	}

	rec, ok := s.Get(42, 0)
	if !ok {
		t.Fatal("record missing after save")
	}
	if rec.TakenAt != "2023-06-01T12:30:00Z" {
		t.Errorf("TakenAt = %q", rec.TakenAt)
	}
	if rec.Location != "59.329300, 18.068600" {
		t.Errorf("Location = %q", rec.Location)
	}

	// Persisted and parsable on disk.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var onDisk map[string]Record
	if err := json.Unmarshal(data, &onDisk); err != nil {
		t.Fatalf("database on disk not parsable: %v", err)
	}
	if _, ok := onDisk["42_0"]; !ok {
		t.Error("record 42_0 missing on disk")
	}
}

func TestSavePhotoMetadataDoesNotOverwrite(t *testing.T) {
	s, _ := newTestStore(t)

	if err := s.SavePhotoMetadata(1, 0, gpsExif(10, 20)); err != nil {
		t.Fatal(err)
	}
	if err := s.SavePhotoMetadata(1, 0, gpsExif(99, 99)); err != nil {
		t.Fatal(err)
	}

	rec, _ := s.Get(1, 0)
	if rec.Location != formatLocation(10, 20) {
		t.Errorf("existing record overwritten: %q", rec.Location)
	}
}

func TestSavePhotoMetadataNilExifIsNoop(t *testing.T) {
	s, _ := newTestStore(t)
	if err := s.SavePhotoMetadata(5, 0, nil); err != nil {
		t.Fatalf("SavePhotoMetadata(nil) error = %v", err)
	}
	if _, ok := s.Get(5, 0); ok {
		t.Error("record created from nil extraction")
	}
}

func TestLoadFallsBackToBackup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo-metadata.json")

	// Truncated main file, valid backup.
	if err := os.WriteFile(path, []byte(`{"42_0": {"loc`), 0644); err != nil {
		t.Fatal(err)
	}
	backup := `{"42_0": {"location": "1.000000, 2.000000"}}`
	if err := os.WriteFile(path+".backup", []byte(backup), 0644); err != nil {
		t.Fatal(err)
	}

	s := NewStore(path, nil, nil)
	defer s.Close()

	rec, ok := s.Get(42, 0)
	if !ok {
		t.Fatal("record not recovered from backup")
	}
	if rec.Location != "1.000000, 2.000000" {
		t.Errorf("Location = %q", rec.Location)
	}
}

func TestLoadCorruptedWithoutBackupStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo-metadata.json")
	if err := os.WriteFile(path, []byte("not json at all"), 0644); err != nil {
		t.Fatal(err)
	}

	s := NewStore(path, nil, nil)
	defer s.Close()

	if s.Count() != 0 {
		t.Errorf("Count() = %d, want 0 for unrecoverable database", s.Count())
	}
}

func TestSaveIsAtomic(t *testing.T) {
	s, path := newTestStore(t)

	if err := s.SavePhotoMetadata(1, 0, gpsExif(1, 2)); err != nil {
		t.Fatal(err)
	}

	// No temp file left behind, and a backup of the pre-write state
	// exists after a second save.
	if err := s.SavePhotoMetadata(2, 0, gpsExif(3, 4)); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind after save")
	}

	backup, err := os.ReadFile(path + ".backup")
	if err != nil {
		t.Fatalf("backup missing: %v", err)
	}
	var backupRecords map[string]Record
	if err := json.Unmarshal(backup, &backupRecords); err != nil {
		t.Fatalf("backup not parsable: %v", err)
	}
	if _, ok := backupRecords["1_0"]; !ok {
		t.Error("backup does not hold the pre-write state")
	}
}

func TestSaveFailureLeavesDatabaseUntouched(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo-metadata.json")

	s := NewStore(path, nil, nil)
	defer s.Close()
	if err := s.SavePhotoMetadata(1, 0, gpsExif(1, 2)); err != nil {
		t.Fatal(err)
	}
	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	// Make the directory read-only so the temp write fails mid-save.
	if err := os.Chmod(dir, 0555); err != nil {
		t.Fatal(err)
	}
	defer os.Chmod(dir, 0755)

	if err := s.SavePhotoMetadata(2, 0, gpsExif(3, 4)); err == nil {
		t.Skip("running as root, write not denied")
	}

	if err := os.Chmod(dir, 0755); err != nil {
		t.Fatal(err)
	}
	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(before) != string(after) {
		t.Error("database mutated by a failed save")
	}
	var records map[string]Record
	if err := json.Unmarshal(after, &records); err != nil {
		t.Errorf("database not parsable after failed save: %v", err)
	}
}

func TestParseLocation(t *testing.T) {
	lat, lon, ok := parseLocation("59.329300, 18.068600")
	if !ok || lat != 59.3293 || lon != 18.0686 {
		t.Errorf("parseLocation() = %v, %v, %v", lat, lon, ok)
	}
	if _, _, ok := parseLocation("garbage"); ok {
		t.Error("parseLocation() accepted garbage")
	}
}
