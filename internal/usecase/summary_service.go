package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/choppedhq/chopped-league/internal/domain/elimination"
	"github.com/choppedhq/chopped-league/internal/domain/league"
	"github.com/choppedhq/chopped-league/internal/platform/cache"
	"github.com/choppedhq/chopped-league/internal/platform/logging"
)

const (
	refreshStatusSuccess = "success"
	refreshStatusFailed  = "failed"

	defaultRefreshWorkers = 4
	maxRefreshWorkers     = 16
)

// SummaryService is the top of the pipeline: it resolves a league to its
// provider adapter, fetches and normalizes the week, fills in projections,
// and hands the pool to the ranking engine.
type SummaryService struct {
	leagues     map[string]LeagueRef
	order       []string
	adapters    map[SourceType]ProviderAdapter
	projections *ProjectionService
	elimination *EliminationService
	fetchCache  *cache.Store
	logger      *logging.Logger
}

func NewSummaryService(
	refs []LeagueRef,
	adapters map[SourceType]ProviderAdapter,
	projections *ProjectionService,
	eliminationSvc *EliminationService,
	fetchCache *cache.Store,
	logger *logging.Logger,
) *SummaryService {
	if logger == nil {
		logger = logging.Default()
	}
	leagues := make(map[string]LeagueRef, len(refs))
	order := make([]string, 0, len(refs))
	for _, ref := range refs {
		if _, dup := leagues[ref.ID]; dup {
			continue
		}
		leagues[ref.ID] = ref
		order = append(order, ref.ID)
	}
	return &SummaryService{
		leagues:     leagues,
		order:       order,
		adapters:    adapters,
		projections: projections,
		elimination: eliminationSvc,
		fetchCache:  fetchCache,
		logger:      logger,
	}
}

// Leagues lists the registered leagues in registration order.
func (s *SummaryService) Leagues() []LeagueRef {
	out := make([]LeagueRef, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.leagues[id])
	}
	return out
}

// WeekSummary builds the ranked summary for one league and week.
func (s *SummaryService) WeekSummary(ctx context.Context, leagueID string, week, season int) (elimination.WeekSummary, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SummaryService.WeekSummary")
	defer span.End()

	ref, result, err := s.fetchWeek(ctx, leagueID, week, season)
	if err != nil {
		return elimination.WeekSummary{}, err
	}

	pool := result.Teams()
	for i := range pool {
		pool[i].ProjectedScore = s.projections.TeamProjection(ctx, pool[i], week, season, ref.ScoringFormat)
	}

	summary, err := s.elimination.BuildWeekSummary(ctx, ref.ID, week, season, pool)
	if err != nil {
		return elimination.WeekSummary{}, err
	}

	if len(result.Problems) > 0 {
		s.logger.WarnContext(ctx, "provider adaptation reported problems",
			"league_id", ref.ID,
			"week", week,
			"problems", result.Problems,
		)
	}
	return summary, nil
}

// Matchups passes the normalized head-to-head pairings through for roster
// display, with projected totals filled in.
func (s *SummaryService) Matchups(ctx context.Context, leagueID string, week, season int) ([]league.Matchup, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SummaryService.Matchups")
	defer span.End()

	ref, result, err := s.fetchWeek(ctx, leagueID, week, season)
	if err != nil {
		return nil, err
	}

	matchups := make([]league.Matchup, len(result.Matchups))
	copy(matchups, result.Matchups)
	for i := range matchups {
		if rec, ok := result.Records[matchups[i].Home.ID]; ok {
			matchups[i].Home.Record = rec
		}
		if rec, ok := result.Records[matchups[i].Away.ID]; ok {
			matchups[i].Away.Record = rec
		}
		matchups[i].Home.ProjectedScore = s.projections.TeamProjection(ctx, matchups[i].Home, week, season, ref.ScoringFormat)
		matchups[i].Away.ProjectedScore = s.projections.TeamProjection(ctx, matchups[i].Away, week, season, ref.ScoringFormat)
	}
	return matchups, nil
}

// History returns a league's accumulated elimination events.
func (s *SummaryService) History(ctx context.Context, leagueID string) ([]elimination.Event, error) {
	if _, err := s.leagueRef(leagueID); err != nil {
		return nil, err
	}
	return s.elimination.History(ctx, leagueID)
}

func (s *SummaryService) leagueRef(leagueID string) (LeagueRef, error) {
	if leagueID == "" {
		return LeagueRef{}, fmt.Errorf("%w: league id is required", ErrInvalidInput)
	}
	ref, ok := s.leagues[leagueID]
	if !ok {
		return LeagueRef{}, fmt.Errorf("%w: league %q is not registered", ErrNotFound, leagueID)
	}
	return ref, nil
}

// fetchWeek resolves the adapter and fetches one league-week, deduplicating
// concurrent fetches and reusing recent results through the cache.
func (s *SummaryService) fetchWeek(ctx context.Context, leagueID string, week, season int) (LeagueRef, AdaptResult, error) {
	ref, err := s.leagueRef(leagueID)
	if err != nil {
		return LeagueRef{}, AdaptResult{}, err
	}
	if week < 1 {
		return LeagueRef{}, AdaptResult{}, fmt.Errorf("%w: week must be >= 1, got %d", ErrInvalidInput, week)
	}

	adapter, ok := s.adapters[ref.Source]
	if !ok {
		return LeagueRef{}, AdaptResult{}, fmt.Errorf("%w: no adapter for source %q", ErrDependencyUnavailable, ref.Source)
	}

	s.projections.SetActiveWeek(ctx, week)

	key := fmt.Sprintf("week:%s:%d:%d", ref.ID, season, week)
	value, err := s.fetchCache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		result, fetchErr := adapter.FetchWeek(ctx, ref.ProviderLeagueID, week, season)
		if fetchErr != nil {
			return nil, fmt.Errorf("%w: fetching %s league %s week %d: %v",
				ErrDependencyUnavailable, ref.Source, ref.ProviderLeagueID, week, fetchErr)
		}
		return result, nil
	})
	if err != nil {
		return LeagueRef{}, AdaptResult{}, err
	}

	result, ok := value.(AdaptResult)
	if !ok {
		return LeagueRef{}, AdaptResult{}, fmt.Errorf("%w: unexpected cache entry for %s", ErrDependencyUnavailable, key)
	}
	return ref, result, nil
}

type RefreshInput struct {
	Week       int
	Season     int
	MaxWorkers int
	// Finalize appends the week's chopped teams to permanent history. Only
	// set this once the week's games are complete.
	Finalize bool
}

type RefreshResult struct {
	LeagueCount  int                 `json:"league_count"`
	SuccessCount int                 `json:"success_count"`
	FailedCount  int                 `json:"failed_count"`
	WorkerCount  int                 `json:"worker_count"`
	Tasks        []RefreshTaskResult `json:"tasks"`
}

type RefreshTaskResult struct {
	LeagueID   string `json:"league_id"`
	Status     string `json:"status"`
	Teams      int    `json:"teams"`
	DurationMs int64  `json:"duration_ms"`
	Message    string `json:"message,omitempty"`
}

// RefreshAll rebuilds every registered league's summary on a bounded worker
// pool. One league's failure never blocks the others.
func (s *SummaryService) RefreshAll(ctx context.Context, input RefreshInput) (RefreshResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SummaryService.RefreshAll")
	defer span.End()

	if input.Week < 1 {
		return RefreshResult{}, fmt.Errorf("%w: week must be >= 1, got %d", ErrInvalidInput, input.Week)
	}

	leagueIDs := append([]string(nil), s.order...)
	workerCount := normalizeRefreshWorkerCount(input.MaxWorkers, len(leagueIDs))
	result := RefreshResult{
		LeagueCount: len(leagueIDs),
		WorkerCount: workerCount,
		Tasks:       make([]RefreshTaskResult, 0, len(leagueIDs)),
	}
	if len(leagueIDs) == 0 {
		return result, nil
	}

	results := make(chan RefreshTaskResult, len(leagueIDs))

	var successCount atomic.Int32
	var failedCount atomic.Int32

	pool, err := ants.NewPool(workerCount)
	if err != nil {
		return RefreshResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var workers sync.WaitGroup
	for _, leagueID := range leagueIDs {
		leagueID := leagueID
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			start := time.Now()
			row := RefreshTaskResult{LeagueID: leagueID}

			summary, refreshErr := s.WeekSummary(ctx, leagueID, input.Week, input.Season)
			if refreshErr == nil && input.Finalize {
				refreshErr = s.elimination.FinalizeWeek(ctx, summary)
			}
			if refreshErr != nil {
				row.Status = refreshStatusFailed
				row.Message = refreshErr.Error()
				failedCount.Add(1)
			} else {
				row.Status = refreshStatusSuccess
				row.Teams = len(summary.Rankings)
				successCount.Add(1)
			}
			row.DurationMs = time.Since(start).Milliseconds()

			results <- row
		}); err != nil {
			workers.Done()
			return RefreshResult{}, fmt.Errorf("submit task to worker pool: %w", err)
		}
	}

	workers.Wait()
	close(results)

	for row := range results {
		result.Tasks = append(result.Tasks, row)
	}
	sort.SliceStable(result.Tasks, func(i, j int) bool {
		return result.Tasks[i].LeagueID < result.Tasks[j].LeagueID
	})

	result.SuccessCount = int(successCount.Load())
	result.FailedCount = int(failedCount.Load())
	return result, nil
}

func normalizeRefreshWorkerCount(requested, taskCount int) int {
	count := requested
	if count <= 0 {
		count = defaultRefreshWorkers
	}
	if count > maxRefreshWorkers {
		count = maxRefreshWorkers
	}
	if taskCount > 0 && count > taskCount {
		count = taskCount
	}
	if count < 1 {
		count = 1
	}
	return count
}
