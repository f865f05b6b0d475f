// Package scoreboard polls the public NFL scoreboard feed and serves game
// snapshots for status resolution. The snapshot is refreshed lazily with a
// short TTL; a failed refresh serves the previous snapshot rather than
// flipping every team to bye.
package scoreboard

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"

	"github.com/choppedhq/chopped-league/internal/domain/nfl"
	"github.com/choppedhq/chopped-league/internal/platform/logging"
	"github.com/choppedhq/chopped-league/internal/platform/resilience"
)

const (
	defaultBaseURL    = "https://site.api.espn.com/apis/site/v2/sports/football/nfl"
	defaultRefreshTTL = 45 * time.Second
)

var errScoreboardTransient = crerr.New("scoreboard transient failure")

type scoreboardResponse struct {
	Events []event `json:"events"`
}

type event struct {
	Date         string        `json:"date"`
	Status       eventStatus   `json:"status"`
	Competitions []competition `json:"competitions"`
}

type eventStatus struct {
	Type eventStatusType `json:"type"`
}

type eventStatusType struct {
	State     string `json:"state"`
	Completed bool   `json:"completed"`
}

type competition struct {
	Competitors []competitor `json:"competitors"`
}

type competitor struct {
	HomeAway string          `json:"homeAway"`
	Score    string          `json:"score"`
	Team     competitorsTeam `json:"team"`
}

type competitorsTeam struct {
	Abbreviation string `json:"abbreviation"`
}

type ClientConfig struct {
	HTTPClient *http.Client
	BaseURL    string
	RefreshTTL time.Duration
	Logger     *logging.Logger
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	refreshTTL time.Duration
	logger     *logging.Logger
	flight     resilience.SingleFlight

	mu          sync.RWMutex
	snapshot    nfl.Snapshot
	refreshedAt time.Time
	now         func() time.Time
}

var _ nfl.SnapshotProvider = (*Client)(nil)

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	refreshTTL := cfg.RefreshTTL
	if refreshTTL <= 0 {
		refreshTTL = defaultRefreshTTL
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		refreshTTL: refreshTTL,
		logger:     logger,
		now:        time.Now,
	}
}

// Current returns the freshest snapshot available, refreshing it when the
// TTL has lapsed. Concurrent callers share one refresh.
func (c *Client) Current() nfl.Snapshot {
	c.mu.RLock()
	snapshot := c.snapshot
	fresh := c.snapshot != nil && c.now().Sub(c.refreshedAt) < c.refreshTTL
	c.mu.RUnlock()
	if fresh {
		return snapshot
	}

	out, err, _ := c.flight.Do("scoreboard", func() (any, error) {
		return c.fetch(context.Background())
	})
	if err != nil {
		c.logger.Warn("scoreboard refresh failed, serving previous snapshot", "error", err)
		return snapshot
	}

	refreshed, ok := out.(nfl.Snapshot)
	if !ok {
		return snapshot
	}

	c.mu.Lock()
	c.snapshot = refreshed
	c.refreshedAt = c.now()
	c.mu.Unlock()
	return refreshed
}

func (c *Client) fetch(ctx context.Context) (nfl.Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/scoreboard", nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: send request: %v", errScoreboardTransient, err)
	}
	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, fmt.Errorf("%w: read response body: %v", errScoreboardTransient, readErr)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: scoreboard status=%d", errScoreboardTransient, resp.StatusCode)
	}

	var payload scoreboardResponse
	if err := sonic.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("decode scoreboard payload: %w", err)
	}
	return buildSnapshot(payload), nil
}

func buildSnapshot(payload scoreboardResponse) nfl.Snapshot {
	snapshot := make(nfl.Snapshot)
	for _, ev := range payload.Events {
		if len(ev.Competitions) == 0 {
			continue
		}
		competitors := ev.Competitions[0].Competitors
		if len(competitors) != 2 {
			continue
		}

		var startsAt *time.Time
		if parsed, err := time.Parse(time.RFC3339, ev.Date); err == nil {
			startsAt = &parsed
		} else if parsed, err := time.Parse("2006-01-02T15:04Z", ev.Date); err == nil {
			startsAt = &parsed
		}

		live := ev.Status.Type.State == "in"
		completed := ev.Status.Type.Completed || ev.Status.Type.State == "post"

		for i, side := range competitors {
			code := nfl.Canonicalize(side.Team.Abbreviation)
			if code == "" {
				continue
			}
			opponent := nfl.Canonicalize(competitors[1-i].Team.Abbreviation)
			score, _ := strconv.Atoi(side.Score)
			snapshot[code] = nfl.Game{
				TeamCode:     code,
				OpponentCode: opponent,
				IsLive:       live,
				IsCompleted:  completed,
				Score:        score,
				StartsAt:     startsAt,
			}
		}
	}
	return snapshot
}
