package handlers

import (
	"net/http"
	"regexp"

	"github.com/gorilla/mux"
)

// imageKeyPattern restricts served keys to derived cache keys, so the
// endpoint can never be used to probe arbitrary hashed identifiers.
var imageKeyPattern = regexp.MustCompile(`^(original|thumbnail)_\d+_\d+$`)

// ServeImage streams a cached image by its cache key.
func (h *Handlers) ServeImage(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	if !imageKeyPattern.MatchString(key) {
		writeError(w, http.StatusBadRequest, "invalid image key")
		return
	}

	path, ok := h.cache.Get(key, 0, 0)
	if !ok {
		writeError(w, http.StatusNotFound, "image not cached")
		return
	}

	w.Header().Set("Cache-Control", "private, max-age=86400")
	http.ServeFile(w, r, path)
}
