package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"photoframe/internal/cache"
	"photoframe/internal/geocache"
	"photoframe/internal/handlers"
	"photoframe/internal/imgproc"
	"photoframe/internal/logging"
	"photoframe/internal/memory"
	"photoframe/internal/metadata"
	"photoframe/internal/metrics"
	"photoframe/internal/middleware"
	"photoframe/internal/playlist"
	"photoframe/internal/provider"
	"photoframe/internal/slideshow"
	"photoframe/internal/startup"
)

func main() {
	startTime := time.Now()

	memory.ConfigureFromEnv()

	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	if config.MetricsEnabled {
		metrics.InitializeMetrics()
	}

	if err := imgproc.InitVips(); err != nil {
		logging.Warn("libvips unavailable, using pure-Go image pipeline: %v", err)
	}
	defer imgproc.ShutdownVips()

	// Geocoding stack: result cache in SQLite, rate-limited resolver.
	var geocoder *metadata.Geocoder
	var geoCache *geocache.DB
	if config.GeocodeEnabled {
		geocoder = metadata.NewGeocoder(config.GeocodeURL)
		geoCache, err = geocache.New(context.Background(), config.GeocacheDBPath)
		if err != nil {
			logging.Warn("Geocode result cache unavailable: %v", err)
			geoCache = nil
		} else {
			defer geoCache.Close()
		}
	}

	metaStore := metadata.NewStore(config.MetadataPath, geocoder, geoCache)
	defer metaStore.Close()

	store, err := cache.NewStore(cache.Config{
		Dir:          config.CacheDir,
		MaxBytes:     cacheBudget(config),
		PreloadCount: config.PreloadCount,
		PreloadDelay: config.PreloadDelay,
		ProtectedFiles: []string{
			config.MetadataPath,
			config.MetadataPath + ".backup",
			config.MetadataPath + ".tmp",
			config.ShownPath,
			config.GeocacheDBPath,
		},
	})
	if err != nil {
		startup.LogFatal("Failed to initialize image cache: %v", err)
	}

	client := provider.NewSynoClient(config.ProviderURL, config.ProviderAccount, config.ProviderPassword, config.ProviderSpace)

	authCtx, cancelAuth := context.WithTimeout(context.Background(), 30*time.Second)
	if err := client.Authenticate(authCtx); err != nil {
		cancelAuth()
		startup.LogFatal("Provider authentication failed: %v", err)
	}
	cancelAuth()
	logging.Info("Authenticated with photo provider at %s", config.ProviderURL)

	shown := playlist.NewShownTracker(config.ShownPath)
	list := playlist.NewManager(shown)

	filter := provider.Filter{FolderID: config.FolderID, PersonID: config.PersonID}
	orchestrator := slideshow.NewOrchestrator(client, store, list, metaStore, slideshow.Config{
		BatchSize: config.BatchSize,
		Interval:  config.SlideshowInterval,
		Filter:    filter,
		Policy: playlist.Policy{
			ShowAllBeforeRestart: config.ShowAllBeforeRestart,
			Randomize:            config.Randomize,
			SortBy:               playlist.SortField(config.SortBy),
			Descending:           config.SortDescending,
		},
	})

	var downloader *slideshow.Downloader
	if config.BackgroundDownloadEnabled {
		downloader = slideshow.NewDownloader(client, store, metaStore, slideshow.DownloaderConfig{
			Interval:  config.BackgroundDownloadInterval,
			ItemDelay: config.BackgroundDownloadDelay,
			Filter:    filter,
		})
		downloader.Start()
	}

	h := handlers.New(orchestrator, store)
	router := mux.NewRouter()
	h.RegisterRoutes(router)
	if config.MetricsEnabled {
		router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	}
	startup.LogHTTPRoutes(router)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	handler := middleware.Logger(loggingConfig)(
		middleware.Metrics(middleware.DefaultMetricsConfig())(router))

	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	go handleShutdown(srv, orchestrator, downloader)

	// Serve the first photo in the background so the HTTP server comes
	// up immediately even when the provider is slow.
	go orchestrator.Start(context.Background())

	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		startup.LogFatal("Server error: %v", err)
	}
}

// cacheBudget returns the eviction budget, zero when caching is
// disabled so the store never evicts what it never grows.
func cacheBudget(config *startup.Config) int64 {
	if !config.CacheEnabled {
		return 0
	}
	return config.CacheMaxBytes
}

func handleShutdown(srv *http.Server, orchestrator *slideshow.Orchestrator, downloader *slideshow.Downloader) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	startup.LogShutdownStep("Stopping slideshow")
	orchestrator.Stop()
	startup.LogShutdownStepComplete("Slideshow stopped")

	if downloader != nil {
		startup.LogShutdownStep("Stopping background downloader")
		downloader.StopAndWait()
		startup.LogShutdownStepComplete("Background downloader stopped")
	}

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownComplete()
}
