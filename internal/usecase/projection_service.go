package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/choppedhq/chopped-league/internal/domain/league"
	"github.com/choppedhq/chopped-league/internal/domain/nfl"
	"github.com/choppedhq/chopped-league/internal/platform/cache"
	"github.com/choppedhq/chopped-league/internal/platform/logging"
)

// defenseDefaultProjection is the only position-based fallback: D/ST units
// get a flat 5.0 when every other source comes up empty. Other positions
// have no default and resolve to absence.
const defenseDefaultProjection = 5.0

// ProjectionService resolves projected points through an ordered fallback
// chain: cache, remote source, the player's own projection attribute, then
// a position default. Absence is reported explicitly; callers must not
// treat a missing projection as zero.
type ProjectionService struct {
	store  *cache.Store
	source ProjectionSource
	logger *logging.Logger

	mu         sync.Mutex
	activeWeek int
}

func NewProjectionService(store *cache.Store, source ProjectionSource, logger *logging.Logger) *ProjectionService {
	if logger == nil {
		logger = logging.Default()
	}
	return &ProjectionService{
		store:  store,
		source: source,
		logger: logger,
	}
}

// SetActiveWeek flushes the whole cache when the week rolls over. The flush
// is atomic with respect to readers; entries are never invalidated
// one-by-one.
func (s *ProjectionService) SetActiveWeek(ctx context.Context, week int) {
	s.mu.Lock()
	changed := s.activeWeek != week
	s.activeWeek = week
	s.mu.Unlock()

	if changed {
		s.store.Flush(ctx)
		s.logger.InfoContext(ctx, "projection cache flushed for new week", "week", week)
	}
}

// PlayerProjection walks the fallback chain and reports (value, true) on
// the first hit, or (0, false) when no source can supply a projection.
func (s *ProjectionService) PlayerProjection(ctx context.Context, p league.Player, week, season int, scoringFormat string) (float64, bool) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ProjectionService.PlayerProjection")
	defer span.End()

	key := projectionKey(p.ID)
	if cached, ok := s.store.Get(ctx, key); ok {
		if value, isFloat := cached.(float64); isFloat {
			return value, true
		}
	}

	if s.source != nil {
		value, err := s.source.PlayerProjection(ctx, p.ID, week, season, scoringFormat)
		switch {
		case err == nil && value > 0:
			s.store.Set(ctx, key, value)
			return value, true
		case err != nil && !errors.Is(err, ErrNotFound):
			s.logger.WarnContext(ctx, "projection source lookup failed, continuing down fallback chain",
				"player_id", p.ID,
				"week", week,
				"error", err,
			)
		}
	}

	if p.ProjectedPoints > 0 {
		s.store.Set(ctx, key, p.ProjectedPoints)
		return p.ProjectedPoints, true
	}

	if p.Position == league.PositionDefense {
		return defenseDefaultProjection, true
	}

	return 0, false
}

// TeamProjection sums the starters' projected totals. A starter who has
// already scored contributes their actual points; projections only stand in
// for players still at zero.
func (s *ProjectionService) TeamProjection(ctx context.Context, team league.Team, week, season int, scoringFormat string) float64 {
	ctx, span := startUsecaseSpan(ctx, "usecase.ProjectionService.TeamProjection")
	defer span.End()

	total := 0.0
	for _, p := range team.Starters() {
		if p.Points > 0 {
			total += p.Points
			continue
		}
		if p.GameStatus == nfl.StatusBye {
			continue
		}
		if projected, ok := s.PlayerProjection(ctx, p, week, season, scoringFormat); ok {
			total += projected
		}
	}
	return total
}

func projectionKey(playerID string) string {
	return fmt.Sprintf("projection:%s", playerID)
}
