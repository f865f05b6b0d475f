package espn

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"

	"github.com/choppedhq/chopped-league/internal/platform/logging"
	"github.com/choppedhq/chopped-league/internal/platform/resilience"
	"github.com/choppedhq/chopped-league/internal/usecase"
)

const defaultBaseURL = "https://lm-api-reads.fantasy.espn.com/apis/v3/games/ffl"

var errESPNTransient = crerr.New("espn transient failure")

type ClientConfig struct {
	HTTPClient *http.Client
	BaseURL    string
	// ESPNS2 and SWID are the auth cookies for private leagues. Empty is
	// fine for public leagues.
	ESPNS2         string
	SWID           string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

type Client struct {
	httpClient     *http.Client
	baseURL        string
	espnS2         string
	swid           string
	maxRetries     int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight
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
		httpClient.Timeout = 20 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		espnS2:         strings.TrimSpace(cfg.ESPNS2),
		swid:           strings.TrimSpace(cfg.SWID),
		maxRetries:     maxInt(cfg.MaxRetries, 0),
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(cfg.CircuitBreaker),
		circuitEnabled: cfg.CircuitBreaker.Enabled,
	}
}

// FetchLeagueWeek pulls one league's teams, rosters, and schedule scoped to
// a single matchup period.
func (c *Client) FetchLeagueWeek(ctx context.Context, leagueID string, week, season int) (leagueResponse, error) {
	path := fmt.Sprintf("/seasons/%d/segments/0/leagues/%s", season, url.PathEscape(leagueID))
	query := url.Values{}
	for _, view := range []string{"mTeam", "mRoster", "mScoreboard"} {
		query.Add("view", view)
	}
	query.Set("scoringPeriodId", fmt.Sprintf("%d", week))

	headers := map[string]string{
		"x-fantasy-filter": buildWeekFilter(week),
	}

	var out leagueResponse
	if err := c.getJSON(ctx, path, query, headers, &out); err != nil {
		return leagueResponse{}, err
	}
	return out, nil
}

// buildWeekFilter assembles the x-fantasy-filter header that narrows the
// schedule to one matchup period.
func buildWeekFilter(week int) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	_, _ = buf.WriteString(`{"schedule":{"filterMatchupPeriodIds":{"value":[`)
	_, _ = fmt.Fprintf(buf, "%d", week)
	_, _ = buf.WriteString(`]}}}`)
	return buf.String()
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, headers map[string]string, target any) error {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "espn circuit breaker rejected request", "state", c.breaker.State())
			return fmt.Errorf("%w: espn is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	fullURL := c.baseURL + path
	if encoded := query.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	key := fullURL + "|" + headers["x-fantasy-filter"]
	out, err, _ := c.flight.Do(key, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL, headers)
		if c.circuitEnabled {
			if reqErr != nil && crerr.Is(reqErr, errESPNTransient) {
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
		return fmt.Errorf("decode espn payload: %w", err)
	}
	return nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string, headers map[string]string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("accept", "application/json")
		for name, value := range headers {
			req.Header.Set(name, value)
		}
		if c.espnS2 != "" {
			req.AddCookie(&http.Cookie{Name: "espn_s2", Value: c.espnS2})
		}
		if c.swid != "" {
			req.AddCookie(&http.Cookie{Name: "SWID", Value: c.swid})
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %v", errESPNTransient, err)
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 12<<20))
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = fmt.Errorf("%w: read response body: %v", errESPNTransient, readErr)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return raw, nil
			case isRetryableStatus(resp.StatusCode):
				lastErr = fmt.Errorf("%w: espn status=%d body=%s", errESPNTransient, resp.StatusCode, abbreviateBody(raw))
			default:
				return nil, fmt.Errorf("espn status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
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
		lastErr = fmt.Errorf("espn request failed")
	}
	c.logger.WarnContext(ctx, "espn request failed", "url", fullURL, "error", lastErr)
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
