// package catalog implements search against the backend's two catalogs:
// the local library (tracks the backend has already acquired) and the
// external Spotify catalog it proxies.
//
// The two result sets are never merged: only library tracks are immediately
// playable, external results first need acquisition.
package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/mree-music/mree/internal/api"
	"github.com/mree-music/mree/internal/models"
	"github.com/mree-music/mree/internal/repositories"
	"github.com/mree-music/mree/internal/shared"
)

const (
	// DefaultLimit is applied when the caller passes a non-positive limit.
	DefaultLimit = 10
	// MaxLimit is the backend's hard cap on result counts.
	MaxLimit = 50
	// maxQueryLength matches the backend's query validator.
	maxQueryLength = 200
)

// Client performs catalog searches and library listings.
type Client struct {
	api    *api.Client
	cache  *repositories.LibraryRepository
	logger *log.Logger
}

// NewClient creates a catalog client. The cache is optional; when present,
// successful library listings refresh it.
func NewClient(apiClient *api.Client, cache *repositories.LibraryRepository, logger *log.Logger) *Client {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Client{api: apiClient, cache: cache, logger: logger}
}

// SearchResponse is the external-search envelope: a page of results plus
// the provider's total hit count.
type SearchResponse struct {
	Results []models.ExternalTrack `json:"results"`
	Total   int                    `json:"total"`
}

// Results holds one search across both catalogs as two labeled sequences.
type Results struct {
	Library  []models.Track
	External []models.ExternalTrack
	Total    int // external total as reported by the provider
}

// searchBody is the request record for the POST search endpoints.
type searchBody struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

// SearchExternal searches the proxied Spotify catalog.
func (c *Client) SearchExternal(ctx context.Context, query string, limit int) (*SearchResponse, error) {
	query, err := normalizeQuery(query)
	if err != nil {
		return nil, err
	}

	var resp SearchResponse
	body := searchBody{Query: query, Limit: clampLimit(limit)}
	if _, err := c.api.Do(ctx, http.MethodPost, "/search/spotify", body, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

// SearchLocal searches tracks the backend has already downloaded.
func (c *Client) SearchLocal(ctx context.Context, query string, limit int) ([]models.Track, error) {
	query, err := normalizeQuery(query)
	if err != nil {
		return nil, err
	}

	var tracks []models.Track
	body := searchBody{Query: query, Limit: clampLimit(limit)}
	if _, err := c.api.Do(ctx, http.MethodPost, "/search/local", body, &tracks); err != nil {
		return nil, err
	}

	return tracks, nil
}

// Search runs both catalogs for one query and returns the labeled pair.
// Result order within each list is the backend's; the client does not re-sort.
func (c *Client) Search(ctx context.Context, query string, limit int) (*Results, error) {
	local, err := c.SearchLocal(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	external, err := c.SearchExternal(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	return &Results{
		Library:  local,
		External: external.Results,
		Total:    external.Total,
	}, nil
}

// Library fetches the authoritative library listing. A successful fetch
// refreshes the local snapshot cache; cache failures are logged, not fatal.
func (c *Client) Library(ctx context.Context) ([]models.Track, error) {
	var tracks []models.Track
	if _, err := c.api.Do(ctx, http.MethodGet, "/search/library", nil, &tracks); err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.Replace(tracks); err != nil {
			c.logger.Warn("failed to refresh library cache", "err", err)
		}
	}

	return tracks, nil
}

// CachedLibrary returns the last library snapshot without a network call.
func (c *Client) CachedLibrary() ([]models.Track, error) {
	if c.cache == nil {
		return nil, fmt.Errorf("%w: no library cache configured", shared.ErrMissingConfig)
	}
	return c.cache.List()
}

// Popular lists the most-downloaded tracks.
func (c *Client) Popular(ctx context.Context, limit int) ([]models.Track, error) {
	var tracks []models.Track
	path := fmt.Sprintf("/search/popular?limit=%d", clampLimit(limit))
	if _, err := c.api.Do(ctx, http.MethodGet, path, nil, &tracks); err != nil {
		return nil, err
	}
	return tracks, nil
}

// ByArtist lists downloaded tracks by artist name.
func (c *Client) ByArtist(ctx context.Context, artist string, limit int) ([]models.Track, error) {
	artist = strings.TrimSpace(artist)
	if artist == "" {
		return nil, fmt.Errorf("%w: artist name is required", shared.ErrInvalidInput)
	}

	var tracks []models.Track
	path := fmt.Sprintf("/search/local/by-artist/%s?limit=%d", url.PathEscape(artist), clampLimit(limit))
	if _, err := c.api.Do(ctx, http.MethodGet, path, nil, &tracks); err != nil {
		return nil, err
	}
	return tracks, nil
}

// normalizeQuery trims and bounds a search query, rejecting it before any
// network call when invalid.
func normalizeQuery(query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", fmt.Errorf("%w: search query cannot be empty", shared.ErrInvalidInput)
	}
	if len(query) > maxQueryLength {
		return "", fmt.Errorf("%w: search query too long (max %d characters)", shared.ErrInvalidInput, maxQueryLength)
	}
	return query, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}
