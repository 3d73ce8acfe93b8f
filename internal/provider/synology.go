package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"photoframe/internal/logging"
	"photoframe/internal/metrics"
)

const (
	apiTimeout      = 10 * time.Second
	downloadTimeout = 60 * time.Second

	authPath  = "/webapi/auth.cgi"
	entryPath = "/webapi/entry.cgi"
)

// SynoClient talks to a Synology Photos instance. Personal-space
// photos go through the SYNO.Foto.* APIs, shared-space photos through
// SYNO.FotoTeam.*.
type SynoClient struct {
	baseURL  string
	account  string
	password string
	space    int

	api *http.Client
	dl  *http.Client
	log *logging.Logger

	mu  sync.Mutex
	sid string
}

// NewSynoClient returns an unauthenticated client for the given
// Synology Photos base URL (scheme + host, no trailing slash).
// space selects the shared space; 0 means the personal space.
func NewSynoClient(baseURL, account, password string, space int) *SynoClient {
	return &SynoClient{
		baseURL:  baseURL,
		account:  account,
		password: password,
		space:    space,
		api:      &http.Client{Timeout: apiTimeout},
		dl:       &http.Client{Timeout: downloadTimeout},
		log:      logging.New("provider"),
	}
}

// browseAPI returns the item-browsing API name for the configured space.
func (c *SynoClient) browseAPI() string {
	if c.space > 0 {
		return "SYNO.FotoTeam.Browse.Item"
	}
	return "SYNO.Foto.Browse.Item"
}

func (c *SynoClient) downloadAPI() string {
	if c.space > 0 {
		return "SYNO.FotoTeam.Download"
	}
	return "SYNO.Foto.Download"
}

func (c *SynoClient) thumbnailAPI() string {
	if c.space > 0 {
		return "SYNO.FotoTeam.Thumbnail"
	}
	return "SYNO.Foto.Thumbnail"
}

func (c *SynoClient) sessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sid
}

// Authenticate logs in and stores the session id for later calls.
func (c *SynoClient) Authenticate(ctx context.Context) error {
	params := url.Values{}
	params.Set("api", "SYNO.API.Auth")
	params.Set("method", "login")
	params.Set("version", "3")
	params.Set("account", c.account)
	params.Set("passwd", c.password)
	params.Set("session", "FotoStation")
	params.Set("format", "sid")

	var data struct {
		SID string `json:"sid"`
	}
	if err := c.callAPI(ctx, "auth", authPath, params, &data); err != nil {
		return fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	if data.SID == "" {
		return fmt.Errorf("%w: empty session id", ErrAuthFailed)
	}

	c.mu.Lock()
	c.sid = data.SID
	c.mu.Unlock()

	c.log.Info("Authenticated as %s (space %d)", c.account, c.space)
	return nil
}

// ListPhotos fetches one page of the collection, newest first.
func (c *SynoClient) ListPhotos(ctx context.Context, filter Filter, offset, limit int) ([]Photo, error) {
	params := url.Values{}
	params.Set("api", c.browseAPI())
	params.Set("method", "list")
	params.Set("version", "1")
	params.Set("offset", strconv.Itoa(offset))
	params.Set("limit", strconv.Itoa(limit))
	params.Set("sort_by", "takentime")
	params.Set("sort_direction", "desc")
	params.Set("additional", `["thumbnail","resolution","provider_user_id"]`)
	if filter.FolderID > 0 {
		params.Set("folder_id", strconv.Itoa(filter.FolderID))
	}
	if filter.PersonID > 0 {
		params.Set("person_id", strconv.Itoa(filter.PersonID))
	}
	params.Set("_sid", c.sessionID())

	var data struct {
		List []itemPayload `json:"list"`
	}
	if err := c.callAPI(ctx, "list", entryPath, params, &data); err != nil {
		return nil, fmt.Errorf("list photos at offset %d: %w", offset, err)
	}

	photos := make([]Photo, 0, len(data.List))
	for _, raw := range data.List {
		photos = append(photos, normalizePhoto(raw, c.space, c.thumbnailURL))
	}
	c.log.Debug("Listed %d photos at offset %d", len(photos), offset)
	return photos, nil
}

// thumbnailURL builds the fetch URL for an item's XL thumbnail.
func (c *SynoClient) thumbnailURL(id int64, cacheKey string) string {
	params := url.Values{}
	params.Set("api", c.thumbnailAPI())
	params.Set("method", "get")
	params.Set("version", "2")
	params.Set("id", strconv.FormatInt(id, 10))
	params.Set("type", "unit")
	params.Set("size", "xl")
	if cacheKey != "" {
		params.Set("cache_key", cacheKey)
	}
	params.Set("_sid", c.sessionID())
	return c.baseURL + entryPath + "?" + params.Encode()
}

// DownloadBytes fetches raw bytes from a provider URL.
func (c *SynoClient) DownloadBytes(ctx context.Context, fetchURL string) ([]byte, error) {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.dl.Do(req)
	if err != nil {
		metrics.ProviderRequestsTotal.WithLabelValues("thumbnail", "error").Inc()
		return nil, fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.ProviderRequestsTotal.WithLabelValues("thumbnail", "error").Inc()
		return nil, fmt.Errorf("download: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.ProviderRequestsTotal.WithLabelValues("thumbnail", "error").Inc()
		return nil, fmt.Errorf("download: read body: %w", err)
	}

	metrics.ProviderRequestsTotal.WithLabelValues("thumbnail", "success").Inc()
	metrics.ProviderRequestDuration.WithLabelValues("thumbnail").Observe(time.Since(start).Seconds())
	return body, nil
}

// DownloadOriginal fetches the full-resolution original file.
func (c *SynoClient) DownloadOriginal(ctx context.Context, id, space int, hints ...string) ([]byte, error) {
	params := url.Values{}
	params.Set("api", c.downloadAPI())
	params.Set("method", "download")
	params.Set("version", "1")
	params.Set("unit_id", "["+strconv.Itoa(id)+"]")
	for _, hint := range hints {
		if k, v, ok := splitHint(hint); ok {
			params.Set(k, v)
		}
	}
	params.Set("_sid", c.sessionID())

	return c.DownloadBytes(ctx, c.baseURL+entryPath+"?"+params.Encode())
}

// splitHint parses a "key=value" download hint.
func splitHint(hint string) (key, value string, ok bool) {
	for i := 0; i < len(hint); i++ {
		if hint[i] == '=' {
			return hint[:i], hint[i+1:], true
		}
	}
	return "", "", false
}

// GetExifMetadata asks the provider for an item's capture time and GPS
// coordinates without downloading the file.
func (c *SynoClient) GetExifMetadata(ctx context.Context, id, space int) (*Exif, error) {
	params := url.Values{}
	params.Set("api", c.browseAPI())
	params.Set("method", "get")
	params.Set("version", "1")
	params.Set("id", "["+strconv.Itoa(id)+"]")
	params.Set("additional", `["exif","gps"]`)
	params.Set("_sid", c.sessionID())

	var data struct {
		List []itemPayload `json:"list"`
	}
	if err := c.callAPI(ctx, "exif", entryPath, params, &data); err != nil {
		return nil, fmt.Errorf("get exif for %d: %w", id, err)
	}
	if len(data.List) == 0 {
		return nil, nil
	}
	return normalizeExif(data.List[0]), nil
}

// callAPI performs one envelope-wrapped API request and decodes the
// data field into out.
func (c *SynoClient) callAPI(ctx context.Context, apiLabel, path string, params url.Values, out interface{}) error {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}

	resp, err := c.api.Do(req)
	if err != nil {
		metrics.ProviderRequestsTotal.WithLabelValues(apiLabel, "error").Inc()
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.ProviderRequestsTotal.WithLabelValues(apiLabel, "error").Inc()
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var envelope apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		metrics.ProviderRequestsTotal.WithLabelValues(apiLabel, "error").Inc()
		return fmt.Errorf("decode response: %w", err)
	}

	if !envelope.Success {
		metrics.ProviderRequestsTotal.WithLabelValues(apiLabel, "error").Inc()
		code := 0
		if envelope.Error != nil {
			code = envelope.Error.Code
		}
		return fmt.Errorf("api error code %d", code)
	}

	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			metrics.ProviderRequestsTotal.WithLabelValues(apiLabel, "error").Inc()
			return fmt.Errorf("decode data: %w", err)
		}
	}

	metrics.ProviderRequestsTotal.WithLabelValues(apiLabel, "success").Inc()
	metrics.ProviderRequestDuration.WithLabelValues(apiLabel).Observe(time.Since(start).Seconds())
	return nil
}
