package startup

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"photoframe/internal/logging"

	"github.com/gorilla/mux"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// Config holds all application configuration
type Config struct {
	// Provider connection
	ProviderURL      string
	ProviderAccount  string
	ProviderPassword string
	ProviderSpace    int
	FolderID         int
	PersonID         int

	// Cache
	CacheEnabled  bool
	CacheDir      string
	CacheMaxBytes int64
	PreloadCount  int
	PreloadDelay  time.Duration

	// Slideshow behavior
	BatchSize            int
	ShowAllBeforeRestart bool
	SortBy               string
	SortDescending       bool
	Randomize            bool
	SlideshowInterval    time.Duration

	// Background download sweep
	BackgroundDownloadEnabled  bool
	BackgroundDownloadInterval time.Duration
	BackgroundDownloadDelay    time.Duration

	// Geocoding
	GeocodeEnabled bool
	GeocodeURL     string

	// Server
	DataDir         string
	Port            string
	MetricsEnabled  bool
	LogHealthChecks bool

	// Derived paths
	MetadataPath   string
	ShownPath      string
	GeocacheDBPath string
}

// LoadConfig loads and validates configuration from environment variables
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	config := &Config{
		ProviderURL:      getEnv("PROVIDER_URL", ""),
		ProviderAccount:  getEnv("PROVIDER_ACCOUNT", ""),
		ProviderPassword: getEnv("PROVIDER_PASSWORD", ""),
		ProviderSpace:    getEnvInt("PROVIDER_SPACE", 0),
		FolderID:         getEnvInt("FOLDER_ID", 0),
		PersonID:         getEnvInt("PERSON_ID", 0),

		CacheEnabled:  getEnvBool("ENABLE_IMAGE_CACHE", true),
		CacheDir:      getEnv("CACHE_DIR", "/cache"),
		CacheMaxBytes: int64(getEnvInt("IMAGE_CACHE_MAX_SIZE", 1024)) * 1024 * 1024,
		PreloadCount:  getEnvInt("IMAGE_CACHE_PRELOAD_COUNT", 5),
		PreloadDelay:  getEnvDuration("IMAGE_CACHE_PRELOAD_DELAY", time.Second),

		BatchSize:            getEnvInt("BATCH_SIZE", 50),
		ShowAllBeforeRestart: getEnvBool("SHOW_ALL_IMAGES_BEFORE_RESTART", true),
		SortBy:               getEnv("SORT_IMAGES_BY", "created"),
		SortDescending:       getEnvBool("SORT_IMAGES_DESCENDING", true),
		Randomize:            getEnvBool("RANDOMIZE_IMAGE_ORDER", true),
		SlideshowInterval:    getEnvDuration("SLIDESHOW_INTERVAL", 30*time.Second),

		BackgroundDownloadEnabled:  getEnvBool("BACKGROUND_DOWNLOAD_ENABLED", true),
		BackgroundDownloadInterval: getEnvDuration("BACKGROUND_DOWNLOAD_INTERVAL", 6*time.Hour),
		BackgroundDownloadDelay:    getEnvDuration("BACKGROUND_DOWNLOAD_DELAY", 2*time.Second),

		GeocodeEnabled: getEnvBool("GEOCODE_ENABLED", true),
		GeocodeURL:     getEnv("GEOCODE_URL", "https://nominatim.openstreetmap.org"),

		DataDir:         getEnv("DATA_DIR", "/data"),
		Port:            getEnv("PORT", "8080"),
		MetricsEnabled:  getEnvBool("METRICS_ENABLED", true),
		LogHealthChecks: getEnvBool("LOG_HEALTH_CHECKS", false),
	}

	logging.Info("  PROVIDER_URL:                   %s", config.ProviderURL)
	logging.Info("  PROVIDER_ACCOUNT:               %s", config.ProviderAccount)
	logging.Info("  PROVIDER_SPACE:                 %d", config.ProviderSpace)
	logging.Info("  ENABLE_IMAGE_CACHE:             %v", config.CacheEnabled)
	logging.Info("  CACHE_DIR:                      %s", config.CacheDir)
	logging.Info("  IMAGE_CACHE_MAX_SIZE:           %d MB", config.CacheMaxBytes/(1024*1024))
	logging.Info("  IMAGE_CACHE_PRELOAD_COUNT:      %d", config.PreloadCount)
	logging.Info("  IMAGE_CACHE_PRELOAD_DELAY:      %s", config.PreloadDelay)
	logging.Info("  BATCH_SIZE:                     %d", config.BatchSize)
	logging.Info("  SHOW_ALL_IMAGES_BEFORE_RESTART: %v", config.ShowAllBeforeRestart)
	logging.Info("  SORT_IMAGES_BY:                 %s", config.SortBy)
	logging.Info("  SORT_IMAGES_DESCENDING:         %v", config.SortDescending)
	logging.Info("  RANDOMIZE_IMAGE_ORDER:          %v", config.Randomize)
	logging.Info("  SLIDESHOW_INTERVAL:             %s", config.SlideshowInterval)
	logging.Info("  BACKGROUND_DOWNLOAD_ENABLED:    %v", config.BackgroundDownloadEnabled)
	logging.Info("  BACKGROUND_DOWNLOAD_INTERVAL:   %s", config.BackgroundDownloadInterval)
	logging.Info("  GEOCODE_ENABLED:                %v", config.GeocodeEnabled)
	logging.Info("  GEOCODE_URL:                    %s", config.GeocodeURL)
	logging.Info("  DATA_DIR:                       %s", config.DataDir)
	logging.Info("  PORT:                           %s", config.Port)
	logging.Info("  METRICS_ENABLED:                %v", config.MetricsEnabled)
	logging.Info("  LOG_LEVEL:                      %s", logging.GetLevel())

	if config.ProviderURL == "" {
		return nil, fmt.Errorf("PROVIDER_URL is required")
	}

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	var err error
	config.CacheDir, err = filepath.Abs(config.CacheDir)
	if err != nil {
		return nil, fmt.Errorf("resolve cache directory path: %w", err)
	}
	logging.Info("  Cache directory (absolute): %s", config.CacheDir)

	config.DataDir, err = filepath.Abs(config.DataDir)
	if err != nil {
		return nil, fmt.Errorf("resolve data directory path: %w", err)
	}
	logging.Info("  Data directory (absolute):  %s", config.DataDir)

	// The metadata database and the shown tracker live under DATA_DIR,
	// outside the cache directory, so cache clearing cannot touch them.
	config.MetadataPath = filepath.Join(config.DataDir, "photo-metadata.json")
	config.ShownPath = filepath.Join(config.DataDir, "shown-photos.txt")
	config.GeocacheDBPath = filepath.Join(config.DataDir, "geocode-cache.db")

	if err := ensureDirectory(config.DataDir, "data"); err != nil {
		return nil, fmt.Errorf("data directory error: %w", err)
	}
	logging.Debug("  Testing data directory write access...")
	if err := testWriteAccess(config.DataDir); err != nil {
		return nil, fmt.Errorf("data directory is not writable: %w", err)
	}
	logging.Info("  [OK] Data directory is writable")

	if config.CacheEnabled {
		if err := ensureDirectory(config.CacheDir, "cache"); err != nil {
			logging.Warn("  Cache directory issue: %v", err)
			logging.Warn("  Image caching will be disabled")
			config.CacheEnabled = false
		} else if err := testWriteAccess(config.CacheDir); err != nil {
			logging.Warn("  Cache directory is not writable: %v", err)
			logging.Warn("  Image caching will be disabled")
			config.CacheEnabled = false
		}
	}

	logging.Info("")
	logging.Info("  Feature availability:")
	logging.Info("    Image cache:         %s", enabledString(config.CacheEnabled))
	logging.Info("    Background download: %s", enabledString(config.BackgroundDownloadEnabled))
	logging.Info("    Geocoding:           %s", enabledString(config.GeocodeEnabled))
	logging.Info("    Metrics:             %s", enabledString(config.MetricsEnabled))

	return config, nil
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   route.GetName(),
			})
		}
		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs all registered HTTP routes dynamically
func LogHTTPRoutes(router *mux.Router) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	if logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("error walking routes: %v", err)
		}

		sort.Slice(routes, func(i, j int) bool { return routes[i].Path < routes[j].Path })
		logging.Debug("  Registered routes (%d total):", len(routes))
		for _, route := range routes {
			logging.Debug("    %-6s %s", route.Method, route.Path)
		}
	}

	logging.Info("  HTTP logging enabled")
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with endpoint information
func LogServerStarted(config ServerConfig) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:  %v", config.StartupDuration)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    Slideshow:   http://localhost:%s/api/slideshow/current", config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:     http://localhost:%s/metrics", config.Port)
	} else {
		logging.Info("    Metrics:     DISABLED")
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
	logging.Info("")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

// Helper functions

func printBanner() {
	banner := `
------------------------------------------------------------
    ____  __          __        ______
   / __ \/ /_  ____  / /_____  / ____/________ _____ ___  ___
  / /_/ / __ \/ __ \/ __/ __ \/ /_  / ___/ __ '/ __ '__ \/ _ \
 / ____/ / / / /_/ / /_/ /_/ / __/ / /  / /_/ / / / / / /  __/
/_/   /_/ /_/\____/\__/\____/_/   /_/   \__,_/_/ /_/ /_/\___/

------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}

	if logging.IsDebugEnabled() {
		logging.Debug("  Goroutines:      %d", runtime.NumGoroutine())
		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}
		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}

	logging.Info("")
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		logging.Warn("Invalid integer value for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	// Bare numbers are accepted as milliseconds.
	if ms, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		logging.Warn("Invalid duration value for %s: %q, using default: %s", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
