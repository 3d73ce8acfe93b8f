package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterRoutes attaches every API route to the router.
func (h *Handlers) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/healthz", h.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/livez", h.LivenessCheck).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods(http.MethodGet)
	r.HandleFunc("/version", h.Version).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/slideshow/current", h.CurrentPhoto).Methods(http.MethodGet)
	api.HandleFunc("/slideshow/next", h.NextPhoto).Methods(http.MethodGet, http.MethodPost)
	api.HandleFunc("/slideshow/previous", h.PreviousPhoto).Methods(http.MethodGet, http.MethodPost)
	api.HandleFunc("/slideshow/image/{key}", h.ServeImage).Methods(http.MethodGet)
	api.HandleFunc("/cache/stats", h.CacheStats).Methods(http.MethodGet)
	api.HandleFunc("/cache/clear", h.CacheClear).Methods(http.MethodPost)
}
