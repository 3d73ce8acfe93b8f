package playlist

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestShownTrackerPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shown.txt")

	tr := NewShownTracker(path)
	if err := tr.Add("42_0"); err != nil {
		t.Fatal(err)
	}
	if err := tr.Add("7_3"); err != nil {
		t.Fatal(err)
	}

	reopened := NewShownTracker(path)
	if !reopened.Contains("42_0") || !reopened.Contains("7_3") {
		t.Error("identities lost across reopen")
	}
	if reopened.Count() != 2 {
		t.Errorf("Count() = %d, want 2", reopened.Count())
	}
}

func TestShownTrackerAddIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shown.txt")
	tr := NewShownTracker(path)

	for i := 0; i < 3; i++ {
		if err := tr.Add("1_0"); err != nil {
			t.Fatal(err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Count(string(data), "1_0"); got != 1 {
		t.Errorf("identity written %d times, want 1", got)
	}
}

func TestShownTrackerReset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shown.txt")
	tr := NewShownTracker(path)
	if err := tr.Add("1_0"); err != nil {
		t.Fatal(err)
	}

	if err := tr.Reset(); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}

	if tr.Contains("1_0") {
		t.Error("identity survived Reset() in memory")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 0 {
		t.Errorf("file not truncated: %q", data)
	}
}

func TestShownTrackerMissingFileStartsEmpty(t *testing.T) {
	tr := NewShownTracker(filepath.Join(t.TempDir(), "nope.txt"))
	if tr.Count() != 0 {
		t.Errorf("Count() = %d, want 0", tr.Count())
	}
}
