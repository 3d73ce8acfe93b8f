package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"photoframe/internal/logging"
	"photoframe/internal/metrics"
)

const (
	// minGeocodeInterval is the contract-mandated spacing between
	// consecutive calls to the geocoding service, process-wide.
	minGeocodeInterval = 5 * time.Second

	geocodeTimeout = 10 * time.Second

	// geocodeUserAgent identifies this client to the service, as its
	// usage policy requires.
	geocodeUserAgent = "photoframe/1.0 (slideshow metadata enrichment)"
)

// Address is a resolved reverse-geocoding result.
type Address struct {
	// Full is the verbatim provider-formatted address string.
	Full string

	// Short is a "locality, country" form for display.
	Short string
}

// Geocoder calls a Nominatim-style reverse-geocoding endpoint with a
// strict minimum interval between calls. The interval lock is held
// across the request, so concurrent callers serialize here even
// without the store's queue in front.
type Geocoder struct {
	baseURL string
	client  *http.Client
	log     *logging.Logger

	mu          sync.Mutex
	last        time.Time
	minInterval time.Duration
}

// NewGeocoder returns a Geocoder for the given service base URL
// (e.g. "https://nominatim.openstreetmap.org").
func NewGeocoder(baseURL string) *Geocoder {
	return &Geocoder{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		client:      &http.Client{Timeout: geocodeTimeout},
		log:         logging.New("geocode"),
		minInterval: minGeocodeInterval,
	}
}

// reversePayload is the subset of the service response the pipeline
// reads. Structured address fields are all optional.
type reversePayload struct {
	DisplayName string `json:"display_name"`
	Address     struct {
		City         string `json:"city"`
		Town         string `json:"town"`
		Village      string `json:"village"`
		Municipality string `json:"municipality"`
		County       string `json:"county"`
		Country      string `json:"country"`
	} `json:"address"`
}

// Reverse resolves coordinates to an address, waiting out the minimum
// interval since the previous call first.
func (g *Geocoder) Reverse(ctx context.Context, lat, lon float64) (*Address, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if wait := g.minInterval - time.Since(g.last); wait > 0 {
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	g.last = time.Now()

	params := url.Values{}
	params.Set("format", "jsonv2")
	params.Set("lat", fmt.Sprintf("%.6f", lat))
	params.Set("lon", fmt.Sprintf("%.6f", lon))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/reverse?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", geocodeUserAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		metrics.GeocodeRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("reverse geocode: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.GeocodeRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("reverse geocode: unexpected status %d", resp.StatusCode)
	}

	var payload reversePayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		metrics.GeocodeRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("reverse geocode: decode: %w", err)
	}
	if payload.DisplayName == "" {
		metrics.GeocodeRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("reverse geocode: empty result for %.4f,%.4f", lat, lon)
	}

	metrics.GeocodeRequestsTotal.WithLabelValues("success").Inc()
	return &Address{
		Full:  payload.DisplayName,
		Short: shortAddress(payload),
	}, nil
}

// shortAddress builds the display form: the first available of
// city/town/village/municipality/county combined with the country,
// degrading to a truncated form of the full address.
func shortAddress(p reversePayload) string {
	locality := firstNonEmpty(
		p.Address.City,
		p.Address.Town,
		p.Address.Village,
		p.Address.Municipality,
		p.Address.County,
	)
	if locality != "" && p.Address.Country != "" {
		return locality + ", " + p.Address.Country
	}
	if p.Address.Country != "" {
		return p.Address.Country
	}
	return truncateAddress(p.DisplayName)
}

// truncateAddress keeps the first two comma-separated components of a
// full address string.
func truncateAddress(full string) string {
	parts := strings.SplitN(full, ",", 3)
	if len(parts) <= 2 {
		return strings.TrimSpace(full)
	}
	return strings.TrimSpace(parts[0]) + ", " + strings.TrimSpace(parts[1])
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
