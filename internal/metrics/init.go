package metrics

// InitializeMetrics pre-populates all expected label combinations so
// that every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, source := range []string{"cache", "network"} {
		PhotosServedTotal.WithLabelValues(source)
	}

	for _, mode := range []string{"preloaded", "synchronous", "restart"} {
		BatchSwitchesTotal.WithLabelValues(mode)
	}

	for _, status := range []string{"success", "error", "skipped"} {
		BackgroundDownloadsTotal.WithLabelValues(status)
	}

	for _, status := range []string{"completed", "skipped"} {
		CachePreloadRunsTotal.WithLabelValues(status)
	}

	for _, api := range []string{"auth", "list", "thumbnail", "download", "exif"} {
		ProviderRequestDuration.WithLabelValues(api)
		ProviderRequestsTotal.WithLabelValues(api, "success")
		ProviderRequestsTotal.WithLabelValues(api, "error")
	}

	for _, source := range []string{"api", "file"} {
		for _, status := range []string{"success", "empty", "error"} {
			MetadataExtractionsTotal.WithLabelValues(source, status)
		}
	}

	for _, status := range []string{"success", "error", "cached"} {
		GeocodeRequestsTotal.WithLabelValues(status)
	}
}
