package mdblist

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/glefebvre/shufflarr/internal/circuitbreaker"
	apperrors "github.com/glefebvre/shufflarr/internal/errors"
	"github.com/glefebvre/shufflarr/internal/logger"
	"github.com/glefebvre/shufflarr/internal/models"
	"github.com/glefebvre/shufflarr/internal/retry"
)

const (
	providerName   = "mdblist"
	baseURL        = "https://api.mdblist.com"
	defaultTimeout = 10 * time.Second
)

// Client handles MDBList API interactions
type Client struct {
	apiKey     string
	httpClient *http.Client
	logger     *logger.Logger
	circuitBrk *circuitbreaker.CircuitBreaker
}

// Config holds MDBList client configuration
type Config struct {
	APIKey  string
	Timeout time.Duration
}

// listItem represents one entry of an MDBList items response
type listItem struct {
	ID        int    `json:"id"`
	Rank      int    `json:"rank"`
	Title     string `json:"title"`
	IMDBID    string `json:"imdb_id"`
	MediaType string `json:"mediatype"` // movie or show
	Poster    string `json:"poster"`
	Year      int    `json:"release_year"`
}

// NewClient creates a new MDBList API client
func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}

	return &Client{
		apiKey: cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger:     logger.AppLogger(),
		circuitBrk: circuitbreaker.New(circuitbreaker.DefaultConfig()),
	}
}

// FetchTopList retrieves a curated/trending MDBList top list by slug
func (c *Client) FetchTopList(ctx context.Context, slug string, contentType models.ContentType, limit int) ([]models.Item, error) {
	if slug == "" {
		return nil, apperrors.FetchError(providerName, apperrors.CodeMissingConfig, "list slug is not configured", nil)
	}
	endpoint := fmt.Sprintf("/lists/%s/items", url.PathEscape(slug))
	return c.fetchItems(ctx, endpoint, contentType, limit)
}

// FetchUserList retrieves a user-owned named list
func (c *Client) FetchUserList(ctx context.Context, username, listName string, contentType models.ContentType, limit int) ([]models.Item, error) {
	if username == "" || listName == "" {
		return nil, apperrors.FetchError(providerName, apperrors.CodeMissingConfig, "username and list name are required", nil)
	}
	endpoint := fmt.Sprintf("/lists/%s/%s/items", url.PathEscape(username), url.PathEscape(listName))
	return c.fetchItems(ctx, endpoint, contentType, limit)
}

func (c *Client) fetchItems(ctx context.Context, endpoint string, contentType models.ContentType, limit int) ([]models.Item, error) {
	if c.apiKey == "" {
		return nil, apperrors.FetchError(providerName, apperrors.CodeMissingConfig, "MDBList API key is not configured", nil)
	}

	params := url.Values{}
	params.Set("apikey", c.apiKey)
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var raw []listItem
	if err := c.makeRequest(ctx, endpoint, params, &raw); err != nil {
		return nil, err
	}

	items := make([]models.Item, 0, len(raw))
	for _, entry := range raw {
		items = append(items, normalizeItem(entry, contentType))
	}
	return items, nil
}

// normalizeItem maps an MDBList entry onto the common item shape. Entries
// without an IMDB id keep the provider-native key, prefixed so it cannot
// collide with canonical ids.
func normalizeItem(entry listItem, contentType models.ContentType) models.Item {
	id := entry.IMDBID
	if id == "" {
		id = fmt.Sprintf("mdblist:%d", entry.ID)
	}

	description := ""
	if entry.Year > 0 {
		description = fmt.Sprintf("%s (%d)", entry.Title, entry.Year)
	}

	return models.Item{
		ID:          id,
		Type:        contentType,
		Name:        entry.Title,
		Poster:      entry.Poster,
		Description: description,
	}
}

// makeRequest performs an HTTP request to the MDBList API with circuit
// breaker and retry, translating failures into categorized fetch errors
func (c *Client) makeRequest(ctx context.Context, endpoint string, params url.Values, result interface{}) error {
	requestURL := fmt.Sprintf("%s%s?%s", baseURL, endpoint, params.Encode())

	operation := func() (struct{}, error) {
		return struct{}{}, c.circuitBrk.Execute(func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
			if err != nil {
				return apperrors.FetchError(providerName, apperrors.CodeUnreachable, "failed to build request", err)
			}
			req.Header.Set("Accept", "application/json")

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return apperrors.FetchError(providerName, apperrors.CodeUnreachable, "request failed", err)
			}
			defer resp.Body.Close()

			if err := classifyStatus(resp.StatusCode); err != nil {
				return err
			}

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return apperrors.FetchError(providerName, apperrors.CodeUnreachable, "failed to read response", err)
			}

			if err := json.Unmarshal(body, result); err != nil {
				return apperrors.FetchError(providerName, apperrors.CodeUnreachable, "failed to unmarshal response", err)
			}

			return nil
		})
	}

	_, err := retry.Do(ctx, retry.DefaultConfig(), operation, apperrors.IsRetryable)
	if err != nil {
		c.logger.WithFields(map[string]interface{}{
			"endpoint": endpoint,
			"error":    err.Error(),
		}).Warn("MDBList request failed after retries")
		return err
	}

	return nil
}

// classifyStatus maps HTTP status codes onto structured fetch-failure kinds
func classifyStatus(status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusNotFound:
		return apperrors.FetchError(providerName, apperrors.CodeSourceNotFound, "list not found (404)", nil)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return apperrors.FetchError(providerName, apperrors.CodeUnauthorized, fmt.Sprintf("access denied (%d)", status), nil)
	case status == http.StatusTooManyRequests:
		return apperrors.FetchError(providerName, apperrors.CodeRateLimited, "rate limit exceeded (429)", nil)
	default:
		return apperrors.FetchError(providerName, apperrors.CodeUnreachable, fmt.Sprintf("unexpected status %d", status), nil)
	}
}
