// Package projections is a thin client for an external projection provider
// speaking a flat JSON lookup API. It backs the projection fallback chain;
// a missing projection is reported as usecase.ErrNotFound, never as zero.
package projections

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"

	"github.com/choppedhq/chopped-league/internal/platform/logging"
	"github.com/choppedhq/chopped-league/internal/platform/resilience"
	"github.com/choppedhq/chopped-league/internal/usecase"
)

var errProjectionsTransient = crerr.New("projections transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	APIKey         string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

type Client struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	maxRetries     int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight
}

var _ usecase.ProjectionSource = (*Client)(nil)

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 10 * time.Second
	}

	return &Client{
		httpClient:     httpClient,
		baseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		apiKey:         strings.TrimSpace(cfg.APIKey),
		maxRetries:     cfg.MaxRetries,
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(cfg.CircuitBreaker),
		circuitEnabled: cfg.CircuitBreaker.Enabled,
	}
}

type projectionResponse struct {
	PlayerID   string  `json:"player_id"`
	Week       int     `json:"week"`
	Season     int     `json:"season"`
	Projection float64 `json:"projection"`
}

func (c *Client) PlayerProjection(ctx context.Context, playerID string, week, season int, scoringFormat string) (float64, error) {
	if c.baseURL == "" {
		return 0, fmt.Errorf("%w: no projection provider configured", usecase.ErrNotFound)
	}

	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "projections circuit breaker rejected request", "state", c.breaker.State())
			return 0, fmt.Errorf("%w: projection provider is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	query := url.Values{}
	query.Set("week", strconv.Itoa(week))
	query.Set("season", strconv.Itoa(season))
	if scoringFormat != "" {
		query.Set("format", scoringFormat)
	}
	fullURL := fmt.Sprintf("%s/v1/projections/%s?%s", c.baseURL, url.PathEscape(playerID), query.Encode())

	out, err, _ := c.flight.Do(fullURL, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL)
		if c.circuitEnabled {
			if reqErr != nil && crerr.Is(reqErr, errProjectionsTransient) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	})
	if err != nil {
		return 0, err
	}

	raw, ok := out.([]byte)
	if !ok {
		return 0, fmt.Errorf("unexpected response payload type %T", out)
	}

	var resp projectionResponse
	if err := sonic.Unmarshal(raw, &resp); err != nil {
		return 0, fmt.Errorf("decode projection payload: %w", err)
	}
	if resp.Projection <= 0 {
		return 0, fmt.Errorf("%w: no projection for player %s week %d", usecase.ErrNotFound, playerID, week)
	}
	return resp.Projection, nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("accept", "application/json")
		if c.apiKey != "" {
			req.Header.Set("authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %v", errProjectionsTransient, err)
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = fmt.Errorf("%w: read response body: %v", errProjectionsTransient, readErr)
			case resp.StatusCode == http.StatusNotFound:
				return nil, fmt.Errorf("%w: projection not found", usecase.ErrNotFound)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return raw, nil
			case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
				lastErr = fmt.Errorf("%w: provider status=%d", errProjectionsTransient, resp.StatusCode)
			default:
				return nil, fmt.Errorf("provider status=%d", resp.StatusCode)
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * 500 * time.Millisecond
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("projection request failed")
	}
	c.logger.WarnContext(ctx, "projection request failed", "url", fullURL, "error", lastErr)
	return nil, lastErr
}
