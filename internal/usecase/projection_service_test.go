package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/choppedhq/chopped-league/internal/domain/league"
	"github.com/choppedhq/chopped-league/internal/domain/nfl"
	"github.com/choppedhq/chopped-league/internal/platform/cache"
	"github.com/choppedhq/chopped-league/internal/platform/logging"
)

type stubProjectionSource struct {
	values map[string]float64
	err    error
	calls  int
}

func (s *stubProjectionSource) PlayerProjection(_ context.Context, playerID string, _, _ int, _ string) (float64, error) {
	s.calls++
	if s.err != nil {
		return 0, s.err
	}
	value, ok := s.values[playerID]
	if !ok {
		return 0, fmt.Errorf("%w: no projection for %s", ErrNotFound, playerID)
	}
	return value, nil
}

func newProjectionFixture(source ProjectionSource) (*ProjectionService, *cache.Store) {
	store := cache.NewStore(time.Hour)
	return NewProjectionService(store, source, logging.NewNop()), store
}

func TestProjectionService_RemoteSourceWinsAndIsCached(t *testing.T) {
	t.Parallel()

	source := &stubProjectionSource{values: map[string]float64{"p1": 14.2}}
	svc, _ := newProjectionFixture(source)

	p := league.Player{ID: "p1", Position: league.PositionWideReceiver, ProjectedPoints: 9.0}

	got, ok := svc.PlayerProjection(context.Background(), p, 5, 2025, "ppr")
	if !ok || got != 14.2 {
		t.Fatalf("got=(%v,%v) want=(14.2,true)", got, ok)
	}

	// Second lookup must come from cache, not the source.
	got, ok = svc.PlayerProjection(context.Background(), p, 5, 2025, "ppr")
	if !ok || got != 14.2 {
		t.Fatalf("cached lookup got=(%v,%v) want=(14.2,true)", got, ok)
	}
	if source.calls != 1 {
		t.Fatalf("source calls got=%d want=1", source.calls)
	}
}

func TestProjectionService_FallsBackToPlayerAttribute(t *testing.T) {
	t.Parallel()

	source := &stubProjectionSource{values: map[string]float64{}}
	svc, _ := newProjectionFixture(source)

	p := league.Player{ID: "p2", Position: league.PositionRunningBack, ProjectedPoints: 11.3}

	got, ok := svc.PlayerProjection(context.Background(), p, 5, 2025, "ppr")
	if !ok || got != 11.3 {
		t.Fatalf("got=(%v,%v) want=(11.3,true)", got, ok)
	}
}

func TestProjectionService_SourceErrorDoesNotBreakChain(t *testing.T) {
	t.Parallel()

	source := &stubProjectionSource{err: fmt.Errorf("upstream timeout")}
	svc, _ := newProjectionFixture(source)

	p := league.Player{ID: "p3", Position: league.PositionTightEnd, ProjectedPoints: 7.8}

	got, ok := svc.PlayerProjection(context.Background(), p, 5, 2025, "ppr")
	if !ok || got != 7.8 {
		t.Fatalf("got=(%v,%v) want=(7.8,true)", got, ok)
	}
}

func TestProjectionService_DefenseDefault(t *testing.T) {
	t.Parallel()

	svc, _ := newProjectionFixture(&stubProjectionSource{values: map[string]float64{}})

	dst := league.Player{ID: "dst1", Position: league.PositionDefense}
	got, ok := svc.PlayerProjection(context.Background(), dst, 5, 2025, "ppr")
	if !ok || got != 5.0 {
		t.Fatalf("defense got=(%v,%v) want=(5.0,true)", got, ok)
	}

	// A skill player with no source anywhere resolves to absence, never a
	// silent zero-as-value.
	wr := league.Player{ID: "wr1", Position: league.PositionWideReceiver}
	got, ok = svc.PlayerProjection(context.Background(), wr, 5, 2025, "ppr")
	if ok || got != 0 {
		t.Fatalf("skill player got=(%v,%v) want=(0,false)", got, ok)
	}
}

func TestProjectionService_WeekChangeFlushesCache(t *testing.T) {
	t.Parallel()

	source := &stubProjectionSource{values: map[string]float64{"p1": 14.2}}
	svc, store := newProjectionFixture(source)
	ctx := context.Background()

	svc.SetActiveWeek(ctx, 5)
	p := league.Player{ID: "p1", Position: league.PositionWideReceiver}
	if _, ok := svc.PlayerProjection(ctx, p, 5, 2025, "ppr"); !ok {
		t.Fatal("expected projection hit")
	}
	if store.Len() != 1 {
		t.Fatalf("cache len got=%d want=1", store.Len())
	}

	svc.SetActiveWeek(ctx, 6)
	if store.Len() != 0 {
		t.Fatalf("cache len after week change got=%d want=0", store.Len())
	}

	// Same week again is a no-op, not a second flush.
	svc.PlayerProjection(ctx, p, 6, 2025, "ppr")
	svc.SetActiveWeek(ctx, 6)
	if store.Len() != 1 {
		t.Fatalf("cache len after same-week set got=%d want=1", store.Len())
	}
}

func TestProjectionService_TeamProjectionActualSupersedes(t *testing.T) {
	t.Parallel()

	source := &stubProjectionSource{values: map[string]float64{
		"rb1": 9.0,
		"wr1": 8.5,
	}}
	svc, _ := newProjectionFixture(source)

	team := league.Team{
		ID:        "t1",
		Name:      "The Underdogs",
		OwnerName: "Sam",
		Players: []league.Player{
			// Already played: 12.4 actual must count, not the 9.0 projection.
			{ID: "rb1", Position: league.PositionRunningBack, IsStarter: true, Points: 12.4, GameStatus: nfl.StatusComplete},
			// Yet to play: projection stands in.
			{ID: "wr1", Position: league.PositionWideReceiver, IsStarter: true, GameStatus: nfl.StatusPregame},
			// Bye starters contribute nothing.
			{ID: "te1", Position: league.PositionTightEnd, IsStarter: true, GameStatus: nfl.StatusBye, ProjectedPoints: 6.0},
			// Bench players never count.
			{ID: "qb2", Position: league.PositionQuarterback, IsStarter: false, Points: 30.0},
		},
	}

	got := svc.TeamProjection(context.Background(), team, 5, 2025, "ppr")
	want := 12.4 + 8.5
	if got != want {
		t.Fatalf("team projection got=%v want=%v", got, want)
	}
}
