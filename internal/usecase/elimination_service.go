package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/choppedhq/chopped-league/internal/domain/elimination"
	"github.com/choppedhq/chopped-league/internal/domain/league"
	"github.com/choppedhq/chopped-league/internal/platform/logging"
)

// largePoolThreshold is the pool size at which two teams are chopped per
// week instead of one.
const largePoolThreshold = 18

// EliminationService ranks a flat pool of teams for one week and maintains
// the league's elimination history. Rankings are recomputed from scratch on
// every refresh; only elimination events persist.
type EliminationService struct {
	history elimination.HistoryRepository
	logger  *logging.Logger
	now     func() time.Time
}

func NewEliminationService(history elimination.HistoryRepository, logger *logging.Logger) *EliminationService {
	if logger == nil {
		logger = logging.Default()
	}
	return &EliminationService{
		history: history,
		logger:  logger,
		now:     time.Now,
	}
}

// EliminationCountFor reports how many teams get chopped for a pool of the
// given size.
func EliminationCountFor(poolSize int) int {
	if poolSize >= largePoolThreshold {
		return 2
	}
	return 1
}

// BuildWeekSummary ranks the pool and assembles the week's summary. Teams
// with an event already in the elimination history stay out of the active
// pool permanently; providers keep serving their rosters regardless. Teams
// without a fieldable lineup never enter the active pool either; they are
// recorded as forfeits dated to the prior week, ranked after everyone who
// played.
func (s *EliminationService) BuildWeekSummary(ctx context.Context, leagueID string, week, season int, pool []league.Team) (elimination.WeekSummary, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.EliminationService.BuildWeekSummary")
	defer span.End()

	if leagueID == "" {
		return elimination.WeekSummary{}, fmt.Errorf("%w: league id is required", ErrInvalidInput)
	}
	if week < 1 {
		return elimination.WeekSummary{}, fmt.Errorf("%w: week must be >= 1, got %d", ErrInvalidInput, week)
	}

	history, err := s.history.ListByLeague(ctx, leagueID)
	if err != nil {
		return elimination.WeekSummary{}, fmt.Errorf("%w: listing elimination history: %v", ErrDependencyUnavailable, err)
	}
	chopped := make(map[string]struct{}, len(history))
	for _, e := range history {
		chopped[e.TeamID] = struct{}{}
	}

	active := make([]league.Team, 0, len(pool))
	var forfeits []league.Team
	for _, t := range pool {
		if _, gone := chopped[t.ID]; gone {
			continue
		}
		if t.HasFieldableLineup() {
			active = append(active, t)
		} else {
			forfeits = append(forfeits, t)
		}
	}

	// Stable sort: tied scores keep provider order.
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].Score > active[j].Score
	})

	rankings := s.rankPool(active, week)

	graveyard, err := s.recordForfeits(ctx, leagueID, week, active, forfeits, history, len(rankings))
	if err != nil {
		return elimination.WeekSummary{}, err
	}

	summary := elimination.WeekSummary{
		LeagueID:         leagueID,
		Week:             week,
		Season:           season,
		Rankings:         rankings,
		EliminationCount: EliminationCountFor(len(rankings)),
		Graveyard:        graveyard,
		GeneratedAt:      s.now(),
	}

	if n := len(rankings); n > 0 {
		zone := summary.EliminationCount
		summary.EliminatedThisWeek = append([]elimination.TeamRanking(nil), rankings[n-zone:]...)
		summary.CutoffScore = rankings[n-1].WeekScore
		summary.HighScore = rankings[0].WeekScore
		summary.LowScore = rankings[n-1].WeekScore
		total := 0.0
		for _, r := range rankings {
			total += r.WeekScore
		}
		summary.AverageScore = total / float64(n)
	}

	return summary, nil
}

// rankPool assigns rank, status, margin, and survival to an already-sorted
// pool.
func (s *EliminationService) rankPool(sorted []league.Team, week int) []elimination.TeamRanking {
	n := len(sorted)
	if n == 0 {
		return nil
	}

	zone := EliminationCountFor(n)
	// cutoff is the lowest score inside the elimination zone; out-of-zone
	// margins measure the buffer above it.
	cutoff := sorted[n-1].Score

	rankings := make([]elimination.TeamRanking, 0, n)
	for i, t := range sorted {
		rank := i + 1
		inZone := rank > n-zone

		r := elimination.TeamRanking{
			TeamID:    t.ID,
			TeamName:  t.Name,
			OwnerName: t.OwnerName,
			Rank:      rank,
			WeekScore: t.Score,
			Status:    zoneStatus(rank, n, zone),
			// Every team enters at week 1 and leaves the pool the moment it
			// gains an elimination event, so a team still being ranked has
			// survived exactly this many weeks.
			WeeksAlive: week,
		}

		if inZone {
			// Distance to escape: own score minus the team one spot above.
			// Non-positive by construction of the sort.
			if i > 0 {
				r.SafetyMargin = t.Score - sorted[i-1].Score
			}
			r.SurvivalProbability = 0
		} else {
			r.SafetyMargin = t.Score - cutoff
			r.SurvivalProbability = clamp01(float64(n-rank) / float64(n))
		}

		rankings = append(rankings, r)
	}
	return rankings
}

func zoneStatus(rank, total, zone int) elimination.Status {
	switch {
	case rank == 1:
		return elimination.StatusChampion
	case rank > total-zone:
		return elimination.StatusCritical
	case float64(rank) > 0.75*float64(total):
		return elimination.StatusDanger
	case float64(rank) > 0.50*float64(total):
		return elimination.StatusWarning
	default:
		return elimination.StatusSafe
	}
}

// recordForfeits wraps unfieldable teams into elimination events dated to
// the prior week and merges them with the accumulated league history. The
// caller has already excluded teams with an existing event, and the append
// is idempotent, so repeated refreshes do not duplicate events.
func (s *EliminationService) recordForfeits(ctx context.Context, leagueID string, week int, active, forfeits []league.Team, history []elimination.Event, poolSize int) ([]elimination.Event, error) {
	if len(forfeits) == 0 {
		return history, nil
	}

	poolScores := make([]float64, 0, len(active))
	for _, t := range active {
		poolScores = append(poolScores, t.Score)
	}
	cutoff := 0.0
	if len(poolScores) > 0 {
		cutoff = poolScores[len(poolScores)-1]
	}

	var fresh []elimination.Event
	nextRank := poolSize + 1
	for _, t := range forfeits {
		fresh = append(fresh, elimination.Event{
			LeagueID:   leagueID,
			TeamID:     t.ID,
			TeamName:   t.Name,
			Week:       week - 1,
			FinalRank:  nextRank,
			FinalScore: t.Score,
			Margin:     t.Score - cutoff,
			PoolScores: poolScores,
			Narrative:  fmt.Sprintf("%s forfeited with no fieldable lineup and left the pool after week %d.", t.Name, week-1),
			CreatedAt:  s.now(),
		})
		nextRank++
	}

	if len(fresh) > 0 {
		if err := s.history.AppendEvents(ctx, fresh); err != nil {
			return nil, fmt.Errorf("%w: appending elimination events: %v", ErrDependencyUnavailable, err)
		}
		s.logger.InfoContext(ctx, "recorded forfeit eliminations",
			"league_id", leagueID,
			"week", week,
			"count", len(fresh),
		)
	}

	return append(history, fresh...), nil
}

// FinalizeWeek chops the bottom teams of a completed week into permanent
// history. Safe to call more than once for the same week.
func (s *EliminationService) FinalizeWeek(ctx context.Context, summary elimination.WeekSummary) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.EliminationService.FinalizeWeek")
	defer span.End()

	if len(summary.EliminatedThisWeek) == 0 {
		return nil
	}

	history, err := s.history.ListByLeague(ctx, summary.LeagueID)
	if err != nil {
		return fmt.Errorf("%w: listing elimination history: %v", ErrDependencyUnavailable, err)
	}
	known := make(map[string]struct{}, len(history))
	for _, e := range history {
		known[e.TeamID] = struct{}{}
	}

	poolScores := make([]float64, 0, len(summary.Rankings))
	for _, r := range summary.Rankings {
		poolScores = append(poolScores, r.WeekScore)
	}

	var events []elimination.Event
	for _, r := range summary.EliminatedThisWeek {
		if _, seen := known[r.TeamID]; seen {
			continue
		}
		events = append(events, elimination.Event{
			LeagueID:   summary.LeagueID,
			TeamID:     r.TeamID,
			TeamName:   r.TeamName,
			Week:       summary.Week,
			FinalRank:  r.Rank,
			FinalScore: r.WeekScore,
			Margin:     r.SafetyMargin,
			PoolScores: poolScores,
			Narrative:  choppedNarrative(r, summary.Week),
			CreatedAt:  s.now(),
		})
	}
	if len(events) == 0 {
		return nil
	}

	if err := s.history.AppendEvents(ctx, events); err != nil {
		return fmt.Errorf("%w: appending elimination events: %v", ErrDependencyUnavailable, err)
	}
	s.logger.InfoContext(ctx, "finalized week eliminations",
		"league_id", summary.LeagueID,
		"week", summary.Week,
		"count", len(events),
	)
	return nil
}

// History returns the accumulated elimination events for a league, oldest
// week first.
func (s *EliminationService) History(ctx context.Context, leagueID string) ([]elimination.Event, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.EliminationService.History")
	defer span.End()

	if leagueID == "" {
		return nil, fmt.Errorf("%w: league id is required", ErrInvalidInput)
	}

	events, err := s.history.ListByLeague(ctx, leagueID)
	if err != nil {
		return nil, fmt.Errorf("%w: listing elimination history: %v", ErrDependencyUnavailable, err)
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].Week < events[j].Week })
	return events, nil
}

func choppedNarrative(r elimination.TeamRanking, week int) string {
	gap := -r.SafetyMargin
	if gap <= 0 {
		return fmt.Sprintf("%s was chopped in week %d with %.1f points after a tiebreak at the bottom of the pool.", r.TeamName, week, r.WeekScore)
	}
	return fmt.Sprintf("%s was chopped in week %d with %.1f points, %.1f short of escaping the zone.", r.TeamName, week, r.WeekScore, gap)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
