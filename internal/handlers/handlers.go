package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"photoframe/internal/cache"
	"photoframe/internal/logging"
	"photoframe/internal/slideshow"
)

// Slideshow is the slice of the orchestrator the HTTP layer needs.
type Slideshow interface {
	Current() *slideshow.Served
	Next(ctx context.Context) (*slideshow.Served, error)
	Previous(ctx context.Context) (*slideshow.Served, error)
}

// Handlers holds the dependencies for all HTTP handlers.
type Handlers struct {
	show  Slideshow
	cache *cache.Store
	log   *logging.Logger
}

// New creates the handler set.
func New(show Slideshow, store *cache.Store) *Handlers {
	return &Handlers{
		show:  show,
		cache: store,
		log:   logging.New("http"),
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn("Failed to encode JSON response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": message}); err != nil {
		logging.Warn("Failed to encode error response: %v", err)
	}
}
