package trakt

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
	providerName   = "trakt"
	baseURL        = "https://api.trakt.tv"
	apiVersion     = "2"
	defaultTimeout = 10 * time.Second
)

// Client handles Trakt API interactions
type Client struct {
	clientID   string
	httpClient *http.Client
	logger     *logger.Logger
	circuitBrk *circuitbreaker.CircuitBreaker
}

// Config holds Trakt client configuration
type Config struct {
	ClientID string
	Timeout  time.Duration
}

// ids carries the external identifiers Trakt knows for an entry
type ids struct {
	Trakt int    `json:"trakt"`
	Slug  string `json:"slug"`
	IMDB  string `json:"imdb"`
}

// media is the movie/show payload embedded in a list entry
type media struct {
	Title string `json:"title"`
	Year  int    `json:"year"`
	IDs   ids    `json:"ids"`
}

// listEntry represents one entry of a Trakt list items response
type listEntry struct {
	Type  string `json:"type"` // movie or show
	Movie *media `json:"movie,omitempty"`
	Show  *media `json:"show,omitempty"`
}

// NewClient creates a new Trakt API client
func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}

	return &Client{
		clientID: cfg.ClientID,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger:     logger.AppLogger(),
		circuitBrk: circuitbreaker.New(circuitbreaker.DefaultConfig()),
	}
}

// FetchUserList retrieves the items of a user list or collection
func (c *Client) FetchUserList(ctx context.Context, username, slug string, contentType models.ContentType, limit int) ([]models.Item, error) {
	if c.clientID == "" {
		return nil, apperrors.FetchError(providerName, apperrors.CodeMissingConfig, "Trakt client id is not configured", nil)
	}
	if username == "" || slug == "" {
		return nil, apperrors.FetchError(providerName, apperrors.CodeMissingConfig, "username and list slug are required", nil)
	}

	kind := "movies"
	if contentType == models.ContentTypeSeries {
		kind = "shows"
	}

	endpoint := fmt.Sprintf("/users/%s/lists/%s/items/%s", url.PathEscape(username), url.PathEscape(slug), kind)

	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
		params.Set("page", "1")
	}

	var raw []listEntry
	if err := c.makeRequest(ctx, endpoint, params, &raw); err != nil {
		return nil, err
	}

	items := make([]models.Item, 0, len(raw))
	for _, entry := range raw {
		item, ok := normalizeEntry(entry, contentType)
		if !ok {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// normalizeEntry maps a Trakt list entry onto the common item shape.
// Entries without an IMDB id keep the provider-native slug, prefixed so it
// cannot collide with canonical ids.
func normalizeEntry(entry listEntry, contentType models.ContentType) (models.Item, bool) {
	var m *media
	switch entry.Type {
	case "movie":
		m = entry.Movie
	case "show":
		m = entry.Show
	}
	if m == nil {
		return models.Item{}, false
	}

	id := m.IDs.IMDB
	if id == "" {
		if m.IDs.Slug == "" {
			return models.Item{}, false
		}
		id = "trakt:" + m.IDs.Slug
	}

	description := ""
	if m.Year > 0 {
		description = fmt.Sprintf("%s (%d)", m.Title, m.Year)
	}

	return models.Item{
		ID:          id,
		Type:        contentType,
		Name:        m.Title,
		Description: description,
	}, true
}

// makeRequest performs an HTTP request to the Trakt API with circuit breaker
// and retry, translating failures into categorized fetch errors
func (c *Client) makeRequest(ctx context.Context, endpoint string, params url.Values, result interface{}) error {
	requestURL := fmt.Sprintf("%s%s", baseURL, endpoint)
	if encoded := params.Encode(); encoded != "" {
		requestURL += "?" + encoded
	}

	operation := func() (struct{}, error) {
		return struct{}{}, c.circuitBrk.Execute(func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
			if err != nil {
				return apperrors.FetchError(providerName, apperrors.CodeUnreachable, "failed to build request", err)
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("trakt-api-version", apiVersion)
			req.Header.Set("trakt-api-key", c.clientID)

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
		}).Warn("Trakt request failed after retries")
		return err
	}

	return nil
}

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
