package memory

import (
	"runtime/debug"
	"testing"
)

func restoreMemLimit(t *testing.T) {
	t.Helper()
	prev := debug.SetMemoryLimit(-1)
	t.Cleanup(func() { debug.SetMemoryLimit(prev) })
}

func TestConfigureFromEnvUnset(t *testing.T) {
	restoreMemLimit(t)
	t.Setenv("GOMEMLIMIT", "")
	t.Setenv("MEMORY_LIMIT", "")

	result := ConfigureFromEnv()
	if result.Configured {
		t.Error("Configured = true with no limits set")
	}
	if result.Source != "none" {
		t.Errorf("Source = %q, want none", result.Source)
	}
}

func TestConfigureFromEnvMemoryLimit(t *testing.T) {
	restoreMemLimit(t)
	t.Setenv("GOMEMLIMIT", "")
	t.Setenv("MEMORY_LIMIT", "1073741824")
	t.Setenv("MEMORY_RATIO", "0.5")

	result := ConfigureFromEnv()
	if !result.Configured {
		t.Fatal("Configured = false")
	}
	if result.Source != "MEMORY_LIMIT" {
		t.Errorf("Source = %q", result.Source)
	}
	if result.GoMemLimit != 536870912 {
		t.Errorf("GoMemLimit = %d, want 536870912", result.GoMemLimit)
	}
}

func TestConfigureFromEnvBadValues(t *testing.T) {
	restoreMemLimit(t)
	t.Setenv("GOMEMLIMIT", "")
	t.Setenv("MEMORY_LIMIT", "lots")

	if result := ConfigureFromEnv(); result.Configured {
		t.Error("Configured = true with unparsable MEMORY_LIMIT")
	}

	t.Setenv("MEMORY_LIMIT", "1048576")
	t.Setenv("MEMORY_RATIO", "7.5")
	result := ConfigureFromEnv()
	if result.Ratio != DefaultMemoryRatio {
		t.Errorf("Ratio = %v, want default %v for out-of-range MEMORY_RATIO", result.Ratio, DefaultMemoryRatio)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{512, "512 B"},
		{2048, "2.0 KiB"},
		{1073741824, "1.0 GiB"},
	}
	for _, tc := range tests {
		if got := formatBytes(tc.in); got != tc.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
