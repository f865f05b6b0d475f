package sleeper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/sourcegraph/conc"

	"github.com/choppedhq/chopped-league/internal/platform/logging"
	"github.com/choppedhq/chopped-league/internal/platform/resilience"
	"github.com/choppedhq/chopped-league/internal/usecase"
)

const (
	defaultBaseURL         = "https://api.sleeper.app/v1"
	playerDirectoryTTL     = 24 * time.Hour
	defaultResponseLimitMB = 12
	playerDirectoryLimitMB = 64
)

var errSleeperTransient = crerr.New("sleeper transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

type Client struct {
	httpClient     *http.Client
	baseURL        string
	maxRetries     int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight

	// The player directory is one very large payload that changes rarely;
	// it is cached in-process for a day.
	playersMu        sync.Mutex
	players          map[string]playerInfo
	playersFetchedAt time.Time
	now              func() time.Time
}

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
		httpClient.Timeout = 30 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		maxRetries:     maxInt(cfg.MaxRetries, 0),
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(cfg.CircuitBreaker),
		circuitEnabled: cfg.CircuitBreaker.Enabled,
		now:            time.Now,
	}
}

// FetchWeekBundle pulls the league detail, matchups, rosters, users, and
// raw weekly stats concurrently. The player directory is refreshed
// separately because of its size.
func (c *Client) FetchWeekBundle(ctx context.Context, leagueID string, week, season int) (weekBundle, error) {
	var bundle weekBundle
	var leagueErr, matchupsErr, rostersErr, usersErr, statsErr error

	var wg conc.WaitGroup
	wg.Go(func() {
		leagueErr = c.getJSON(ctx, fmt.Sprintf("/league/%s", url.PathEscape(leagueID)), defaultResponseLimitMB, &bundle.league)
	})
	wg.Go(func() {
		matchupsErr = c.getJSON(ctx, fmt.Sprintf("/league/%s/matchups/%d", url.PathEscape(leagueID), week), defaultResponseLimitMB, &bundle.matchups)
	})
	wg.Go(func() {
		rostersErr = c.getJSON(ctx, fmt.Sprintf("/league/%s/rosters", url.PathEscape(leagueID)), defaultResponseLimitMB, &bundle.rosters)
	})
	wg.Go(func() {
		usersErr = c.getJSON(ctx, fmt.Sprintf("/league/%s/users", url.PathEscape(leagueID)), defaultResponseLimitMB, &bundle.users)
	})
	wg.Go(func() {
		statsErr = c.getJSON(ctx, fmt.Sprintf("/stats/nfl/regular/%d/%d", season, week), playerDirectoryLimitMB, &bundle.stats)
		if statsErr != nil {
			// Raw stats are a rescoring fallback, not a hard dependency.
			c.logger.WarnContext(ctx, "sleeper week stats unavailable", "week", week, "error", statsErr)
			statsErr = nil
		}
	})
	wg.Wait()

	for _, err := range []error{leagueErr, matchupsErr, rostersErr, usersErr, statsErr} {
		if err != nil {
			return weekBundle{}, err
		}
	}
	return bundle, nil
}

// PlayerDirectory returns the NFL player directory, serving the in-process
// copy while it is fresh.
func (c *Client) PlayerDirectory(ctx context.Context) (map[string]playerInfo, error) {
	c.playersMu.Lock()
	defer c.playersMu.Unlock()

	if c.players != nil && c.now().Sub(c.playersFetchedAt) < playerDirectoryTTL {
		return c.players, nil
	}

	var directory map[string]playerInfo
	if err := c.getJSON(ctx, "/players/nfl", playerDirectoryLimitMB, &directory); err != nil {
		if c.players != nil {
			// Serve the stale copy rather than failing the whole refresh.
			c.logger.WarnContext(ctx, "sleeper player directory refresh failed, serving stale copy", "error", err)
			return c.players, nil
		}
		return nil, err
	}

	c.players = directory
	c.playersFetchedAt = c.now()
	return directory, nil
}

func (c *Client) getJSON(ctx context.Context, path string, limitMB int64, target any) error {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "sleeper circuit breaker rejected request", "state", c.breaker.State())
			return fmt.Errorf("%w: sleeper is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	fullURL := c.baseURL + path
	out, err, _ := c.flight.Do(fullURL, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL, limitMB)
		if c.circuitEnabled {
			if reqErr != nil && crerr.Is(reqErr, errSleeperTransient) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	})
	if err != nil {
		return err
	}

	raw, ok := out.([]byte)
	if !ok {
		return fmt.Errorf("unexpected response payload type %T", out)
	}
	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode sleeper payload: %w", err)
	}
	return nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string, limitMB int64) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %v", errSleeperTransient, err)
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, limitMB<<20))
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = fmt.Errorf("%w: read response body: %v", errSleeperTransient, readErr)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return raw, nil
			case isRetryableStatus(resp.StatusCode):
				lastErr = fmt.Errorf("%w: sleeper status=%d body=%s", errSleeperTransient, resp.StatusCode, abbreviateBody(raw))
			default:
				return nil, fmt.Errorf("sleeper status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("sleeper request failed")
	}
	c.logger.WarnContext(ctx, "sleeper request failed", "url", fullURL, "error", lastErr)
	return nil, lastErr
}

func isRetryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

func abbreviateBody(raw []byte) string {
	const limit = 300
	body := strings.TrimSpace(string(raw))
	if len(body) > limit {
		return body[:limit] + "..."
	}
	return body
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
