package startup

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) (cacheDir, dataDir string) {
	t.Helper()
	cacheDir = t.TempDir()
	dataDir = t.TempDir()
	t.Setenv("PROVIDER_URL", "https://photos.example")
	t.Setenv("CACHE_DIR", cacheDir)
	t.Setenv("DATA_DIR", dataDir)
	return cacheDir, dataDir
}

func TestLoadConfigDefaults(t *testing.T) {
	_, dataDir := setRequiredEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.BatchSize != 50 {
		t.Errorf("BatchSize = %d, want 50", cfg.BatchSize)
	}
	if cfg.SlideshowInterval != 30*time.Second {
		t.Errorf("SlideshowInterval = %s, want 30s", cfg.SlideshowInterval)
	}
	if cfg.CacheMaxBytes != 1024*1024*1024 {
		t.Errorf("CacheMaxBytes = %d, want 1 GiB", cfg.CacheMaxBytes)
	}
	if !cfg.CacheEnabled {
		t.Error("CacheEnabled = false with a writable cache dir")
	}
	if cfg.MetadataPath != filepath.Join(dataDir, "photo-metadata.json") {
		t.Errorf("MetadataPath = %q", cfg.MetadataPath)
	}
	if !strings.HasPrefix(cfg.ShownPath, dataDir) {
		t.Errorf("ShownPath %q not under data dir", cfg.ShownPath)
	}
}

func TestLoadConfigRequiresProviderURL(t *testing.T) {
	t.Setenv("PROVIDER_URL", "")
	t.Setenv("CACHE_DIR", t.TempDir())
	t.Setenv("DATA_DIR", t.TempDir())

	if _, err := LoadConfig(); err == nil {
		t.Fatal("LoadConfig() accepted empty PROVIDER_URL")
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("BATCH_SIZE", "10")
	t.Setenv("IMAGE_CACHE_MAX_SIZE", "100")
	t.Setenv("SLIDESHOW_INTERVAL", "1m")
	t.Setenv("RANDOMIZE_IMAGE_ORDER", "false")
	t.Setenv("SORT_IMAGES_BY", "name")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.BatchSize != 10 {
		t.Errorf("BatchSize = %d, want 10", cfg.BatchSize)
	}
	if cfg.CacheMaxBytes != 100*1024*1024 {
		t.Errorf("CacheMaxBytes = %d, want 100 MiB", cfg.CacheMaxBytes)
	}
	if cfg.SlideshowInterval != time.Minute {
		t.Errorf("SlideshowInterval = %s, want 1m", cfg.SlideshowInterval)
	}
	if cfg.Randomize {
		t.Error("Randomize = true after override")
	}
	if cfg.SortBy != "name" {
		t.Errorf("SortBy = %q, want name", cfg.SortBy)
	}
}

func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{"duration string", "45s", 45 * time.Second},
		{"bare milliseconds", "1500", 1500 * time.Millisecond},
		{"invalid uses default", "soon", 5 * time.Second},
		{"empty uses default", "", 5 * time.Second},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("TEST_DURATION", tc.value)
			if got := getEnvDuration("TEST_DURATION", 5*time.Second); got != tc.want {
				t.Errorf("getEnvDuration(%q) = %s, want %s", tc.value, got, tc.want)
			}
		})
	}
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("TEST_STR", "value")
	if got := getEnv("TEST_STR", "fallback"); got != "value" {
		t.Errorf("getEnv() = %q", got)
	}
	if got := getEnv("TEST_STR_MISSING", "fallback"); got != "fallback" {
		t.Errorf("getEnv() default = %q", got)
	}

	t.Setenv("TEST_BOOL", "yes-please")
	if got := getEnvBool("TEST_BOOL", true); got != true {
		t.Error("getEnvBool() invalid value did not fall back to default")
	}

	t.Setenv("TEST_INT", "42")
	if got := getEnvInt("TEST_INT", 7); got != 42 {
		t.Errorf("getEnvInt() = %d", got)
	}
	t.Setenv("TEST_INT", "forty-two")
	if got := getEnvInt("TEST_INT", 7); got != 7 {
		t.Errorf("getEnvInt() invalid = %d, want default 7", got)
	}
}
