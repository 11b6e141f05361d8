package cinemeta

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/glefebvre/shufflarr/internal/circuitbreaker"
	apperrors "github.com/glefebvre/shufflarr/internal/errors"
	"github.com/glefebvre/shufflarr/internal/logger"
	"github.com/glefebvre/shufflarr/internal/models"
	"github.com/glefebvre/shufflarr/internal/retry"
)

const (
	providerName   = "cinemeta"
	baseURL        = "https://v3-cinemeta.strem.io"
	defaultTimeout = 10 * time.Second

	// chartSize is the fixed size of the top chart; requests beyond it are clamped
	chartSize = 100
)

// Client handles the fixed top-chart source. It supports exactly two
// sub-kinds, keyed by media kind: the movie chart and the series chart.
type Client struct {
	httpClient *http.Client
	logger     *logger.Logger
	circuitBrk *circuitbreaker.CircuitBreaker
}

// Config holds chart client configuration
type Config struct {
	Timeout time.Duration
}

// meta represents one catalog entry of a Cinemeta response
type meta struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Name        string `json:"name"`
	Poster      string `json:"poster"`
	Description string `json:"description"`
}

// catalogResponse represents the Cinemeta catalog payload
type catalogResponse struct {
	Metas []meta `json:"metas"`
}

// NewClient creates a new chart client
func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger:     logger.AppLogger(),
		circuitBrk: circuitbreaker.New(circuitbreaker.DefaultConfig()),
	}
}

// FetchTop retrieves the top chart for the given media kind, clamped to limit
func (c *Client) FetchTop(ctx context.Context, kind models.ContentType, limit int) ([]models.Item, error) {
	if !kind.IsValid() {
		return nil, apperrors.FetchError(providerName, apperrors.CodeMissingConfig, "chart kind must be movie or series", nil)
	}

	endpoint := fmt.Sprintf("/catalog/%s/top.json", kind)

	var response catalogResponse
	if err := c.makeRequest(ctx, endpoint, &response); err != nil {
		return nil, err
	}

	max := chartSize
	if limit > 0 && limit < max {
		max = limit
	}
	if len(response.Metas) < max {
		max = len(response.Metas)
	}

	items := make([]models.Item, 0, max)
	for _, m := range response.Metas[:max] {
		// Cinemeta is IMDB-keyed throughout; entries without an id are
		// unusable and dropped
		if m.ID == "" {
			continue
		}
		items = append(items, models.Item{
			ID:          m.ID,
			Type:        kind,
			Name:        m.Name,
			Poster:      m.Poster,
			Description: m.Description,
		})
	}
	return items, nil
}

// makeRequest performs an HTTP request to Cinemeta with circuit breaker and
// retry, translating failures into categorized fetch errors
func (c *Client) makeRequest(ctx context.Context, endpoint string, result interface{}) error {
	requestURL := baseURL + endpoint

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

			switch {
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
			case resp.StatusCode == http.StatusNotFound:
				return apperrors.FetchError(providerName, apperrors.CodeSourceNotFound, "chart not found (404)", nil)
			case resp.StatusCode == http.StatusTooManyRequests:
				return apperrors.FetchError(providerName, apperrors.CodeRateLimited, "rate limit exceeded (429)", nil)
			default:
				return apperrors.FetchError(providerName, apperrors.CodeUnreachable, fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
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
		}).Warn("chart request failed after retries")
		return err
	}

	return nil
}
