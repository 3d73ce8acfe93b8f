package handlers

import "net/http"

// CacheStats reports cache occupancy.
func (h *Handlers) CacheStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, h.cache.GetStats())
}

// CacheClear deletes every cached image. Protected files (the metadata
// database siblings) survive.
func (h *Handlers) CacheClear(w http.ResponseWriter, _ *http.Request) {
	if err := h.cache.Clear(); err != nil {
		h.log.Warn("Cache clear failed: %v", err)
		writeError(w, http.StatusInternalServerError, "cache clear failed")
		return
	}
	writeJSON(w, map[string]string{"status": "cleared"})
}
