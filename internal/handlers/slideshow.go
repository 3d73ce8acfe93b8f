package handlers

import (
	"errors"
	"net/http"

	"photoframe/internal/slideshow"
)

// PhotoResponse is the display-boundary payload for one served photo.
type PhotoResponse struct {
	Identity string `json:"identity"`
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl"`
	Index    int    `json:"index"`
	Total    int    `json:"total"`

	TakenAt      string `json:"takenAt,omitempty"`
	Location     string `json:"location,omitempty"`
	Address      string `json:"address,omitempty"`
	ShortAddress string `json:"shortAddress,omitempty"`
}

func toPhotoResponse(s *slideshow.Served) PhotoResponse {
	resp := PhotoResponse{
		Identity: s.Photo.Identity(),
		Name:     s.Photo.Name,
		ImageURL: "/api/slideshow/image/" + s.Key,
		Index:    s.Index,
		Total:    s.Total,
	}
	if s.Meta != nil {
		resp.TakenAt = s.Meta.TakenAt
		resp.Location = s.Meta.Location
		resp.Address = s.Meta.Address
		resp.ShortAddress = s.Meta.ShortAddress
	}
	return resp
}

// CurrentPhoto returns the photo currently on display.
func (h *Handlers) CurrentPhoto(w http.ResponseWriter, _ *http.Request) {
	current := h.show.Current()
	if current == nil {
		writeError(w, http.StatusServiceUnavailable, "no photo served yet")
		return
	}
	writeJSON(w, toPhotoResponse(current))
}

// NextPhoto advances the slideshow and returns the new photo.
func (h *Handlers) NextPhoto(w http.ResponseWriter, r *http.Request) {
	served, err := h.show.Next(r.Context())
	if err != nil {
		h.serveError(w, err)
		return
	}
	writeJSON(w, toPhotoResponse(served))
}

// PreviousPhoto steps the slideshow back and returns the photo.
func (h *Handlers) PreviousPhoto(w http.ResponseWriter, r *http.Request) {
	served, err := h.show.Previous(r.Context())
	if err != nil {
		h.serveError(w, err)
		return
	}
	writeJSON(w, toPhotoResponse(served))
}

func (h *Handlers) serveError(w http.ResponseWriter, err error) {
	if errors.Is(err, slideshow.ErrNoPhotos) {
		writeError(w, http.StatusServiceUnavailable, "no photos available")
		return
	}
	h.log.Warn("Slideshow advance failed: %v", err)
	writeError(w, http.StatusBadGateway, "photo could not be served")
}
