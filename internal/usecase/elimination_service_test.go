package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/choppedhq/chopped-league/internal/domain/elimination"
	"github.com/choppedhq/chopped-league/internal/domain/league"
	"github.com/choppedhq/chopped-league/internal/platform/logging"
)

type stubHistoryRepository struct {
	events []elimination.Event
	err    error
}

func (s *stubHistoryRepository) AppendEvents(_ context.Context, events []elimination.Event) error {
	if s.err != nil {
		return s.err
	}
	for _, e := range events {
		duplicate := false
		for _, existing := range s.events {
			if existing.LeagueID == e.LeagueID && existing.TeamID == e.TeamID {
				duplicate = true
				break
			}
		}
		if !duplicate {
			s.events = append(s.events, e)
		}
	}
	return nil
}

func (s *stubHistoryRepository) ListByLeague(_ context.Context, leagueID string) ([]elimination.Event, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []elimination.Event
	for _, e := range s.events {
		if e.LeagueID == leagueID {
			out = append(out, e)
		}
	}
	return out, nil
}

func starter(id string) []league.Player {
	return []league.Player{{ID: id, Position: league.PositionQuarterback, IsStarter: true}}
}

func poolOf(scores []float64) []league.Team {
	teams := make([]league.Team, 0, len(scores))
	for i, score := range scores {
		id := fmt.Sprintf("t%02d", i+1)
		teams = append(teams, league.Team{
			ID:        id,
			Name:      fmt.Sprintf("Team %02d", i+1),
			OwnerName: fmt.Sprintf("Owner %02d", i+1),
			Score:     score,
			Players:   starter("qb-" + id),
		})
	}
	return teams
}

func twentyTeamScores() []float64 {
	return []float64{
		142.8, 138.2, 135.6, 131.4, 128.9, 125.3, 122.7, 118.1, 114.5, 98.2,
		97.1, 95.0, 93.4, 91.8, 90.2, 88.6, 85.1, 82.3, 79.9, 71.4,
	}
}

func TestEliminationService_TwentyTeamScenario(t *testing.T) {
	t.Parallel()

	svc := NewEliminationService(&stubHistoryRepository{}, logging.NewNop())
	svc.now = func() time.Time { return time.Date(2025, 10, 7, 9, 0, 0, 0, time.UTC) }

	summary, err := svc.BuildWeekSummary(context.Background(), "lg1", 5, 2025, poolOf(twentyTeamScores()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.EliminationCount != 2 {
		t.Fatalf("elimination count got=%d want=2", summary.EliminationCount)
	}
	if len(summary.Rankings) != 20 {
		t.Fatalf("rankings got=%d want=20", len(summary.Rankings))
	}
	for i, r := range summary.Rankings {
		if r.Rank != i+1 {
			t.Fatalf("rank at index %d got=%d want=%d", i, r.Rank, i+1)
		}
	}

	if got := summary.Rankings[0].Status; got != elimination.StatusChampion {
		t.Fatalf("rank 1 status got=%s want=%s", got, elimination.StatusChampion)
	}
	for _, rank := range []int{19, 20} {
		if got := summary.Rankings[rank-1].Status; got != elimination.StatusCritical {
			t.Fatalf("rank %d status got=%s want=%s", rank, got, elimination.StatusCritical)
		}
	}
	for _, rank := range []int{16, 17, 18} {
		if got := summary.Rankings[rank-1].Status; got != elimination.StatusDanger {
			t.Fatalf("rank %d status got=%s want=%s", rank, got, elimination.StatusDanger)
		}
	}
	for _, rank := range []int{11, 15} {
		if got := summary.Rankings[rank-1].Status; got != elimination.StatusWarning {
			t.Fatalf("rank %d status got=%s want=%s", rank, got, elimination.StatusWarning)
		}
	}
	for _, rank := range []int{2, 10} {
		if got := summary.Rankings[rank-1].Status; got != elimination.StatusSafe {
			t.Fatalf("rank %d status got=%s want=%s", rank, got, elimination.StatusSafe)
		}
	}

	if len(summary.EliminatedThisWeek) != 2 {
		t.Fatalf("eliminated this week got=%d want=2", len(summary.EliminatedThisWeek))
	}
	if summary.EliminatedThisWeek[0].Rank != 19 || summary.EliminatedThisWeek[1].Rank != 20 {
		t.Fatalf("eliminated ranks got=%d,%d want=19,20",
			summary.EliminatedThisWeek[0].Rank, summary.EliminatedThisWeek[1].Rank)
	}

	if summary.HighScore != 142.8 || summary.LowScore != 71.4 || summary.CutoffScore != 71.4 {
		t.Fatalf("stats got high=%v low=%v cutoff=%v", summary.HighScore, summary.LowScore, summary.CutoffScore)
	}
}

func TestEliminationService_MarginsAndSurvival(t *testing.T) {
	t.Parallel()

	svc := NewEliminationService(&stubHistoryRepository{}, logging.NewNop())

	summary, err := svc.BuildWeekSummary(context.Background(), "lg1", 3, 2025,
		poolOf([]float64{120.0, 110.0, 100.0, 95.0}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.EliminationCount != 1 {
		t.Fatalf("elimination count got=%d want=1", summary.EliminationCount)
	}

	// Last place: distance to escape is negative, survival zero.
	last := summary.Rankings[3]
	if last.SafetyMargin != 95.0-100.0 {
		t.Fatalf("in-zone margin got=%v want=%v", last.SafetyMargin, 95.0-100.0)
	}
	if last.SurvivalProbability != 0 {
		t.Fatalf("in-zone survival got=%v want=0", last.SurvivalProbability)
	}

	// Out-of-zone margins are buffers above the cutoff.
	for i, want := range []float64{120.0 - 95.0, 110.0 - 95.0, 100.0 - 95.0} {
		if got := summary.Rankings[i].SafetyMargin; got != want {
			t.Fatalf("rank %d margin got=%v want=%v", i+1, got, want)
		}
	}

	// In-zone margin never exceeds any out-of-zone margin.
	for _, r := range summary.Rankings[:3] {
		if last.SafetyMargin > r.SafetyMargin {
			t.Fatalf("zone boundary monotonicity violated: %v > %v", last.SafetyMargin, r.SafetyMargin)
		}
	}

	// Linear survival heuristic for the survivors.
	for i, want := range []float64{3.0 / 4.0, 2.0 / 4.0, 1.0 / 4.0} {
		if got := summary.Rankings[i].SurvivalProbability; got != want {
			t.Fatalf("rank %d survival got=%v want=%v", i+1, got, want)
		}
	}
}

func TestEliminationService_StableSortKeepsTiedOrder(t *testing.T) {
	t.Parallel()

	svc := NewEliminationService(&stubHistoryRepository{}, logging.NewNop())

	pool := poolOf([]float64{90.0, 100.0, 100.0, 80.0})
	summary, err := svc.BuildWeekSummary(context.Background(), "lg1", 2, 2025, pool)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// t02 arrived before t03; the tie keeps that order.
	if summary.Rankings[0].TeamID != "t02" || summary.Rankings[1].TeamID != "t03" {
		t.Fatalf("tied order got=%s,%s want=t02,t03",
			summary.Rankings[0].TeamID, summary.Rankings[1].TeamID)
	}
}

func TestEliminationService_ForfeitsGoToGraveyard(t *testing.T) {
	t.Parallel()

	repo := &stubHistoryRepository{}
	svc := NewEliminationService(repo, logging.NewNop())
	svc.now = func() time.Time { return time.Date(2025, 10, 7, 9, 0, 0, 0, time.UTC) }

	pool := poolOf([]float64{110.0, 100.0, 90.0})
	pool = append(pool, league.Team{
		ID:   "ghost",
		Name: "Abandoned Squad",
		// No owner and no starters: never enters the active pool.
	})

	summary, err := svc.BuildWeekSummary(context.Background(), "lg1", 6, 2025, pool)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(summary.Rankings) != 3 {
		t.Fatalf("active rankings got=%d want=3", len(summary.Rankings))
	}
	if len(summary.Graveyard) != 1 {
		t.Fatalf("graveyard got=%d want=1", len(summary.Graveyard))
	}

	event := summary.Graveyard[0]
	if event.TeamID != "ghost" {
		t.Fatalf("graveyard team got=%s want=ghost", event.TeamID)
	}
	if event.Week != 5 {
		t.Fatalf("forfeit event week got=%d want=5", event.Week)
	}
	if event.FinalRank != 4 {
		t.Fatalf("forfeit rank got=%d want=4", event.FinalRank)
	}

	// A second refresh must not duplicate the event.
	summary, err = svc.BuildWeekSummary(context.Background(), "lg1", 6, 2025, pool)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(summary.Graveyard) != 1 {
		t.Fatalf("graveyard after refresh got=%d want=1", len(summary.Graveyard))
	}
	if len(repo.events) != 1 {
		t.Fatalf("persisted events got=%d want=1", len(repo.events))
	}
}

func TestEliminationService_ChoppedTeamsStayOutOfThePool(t *testing.T) {
	t.Parallel()

	repo := &stubHistoryRepository{events: []elimination.Event{
		{LeagueID: "lg1", TeamID: "t01", TeamName: "Team 01", Week: 4, FinalRank: 4},
	}}
	svc := NewEliminationService(repo, logging.NewNop())

	// The provider still serves t01's roster after its week 4 chop.
	summary, err := svc.BuildWeekSummary(context.Background(), "lg1", 5, 2025,
		poolOf([]float64{120.0, 110.0, 100.0, 95.0}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(summary.Rankings) != 3 {
		t.Fatalf("active rankings got=%d want=3", len(summary.Rankings))
	}
	for _, r := range summary.Rankings {
		if r.TeamID == "t01" {
			t.Fatalf("chopped team t01 re-entered the active pool at rank %d", r.Rank)
		}
	}
	if len(summary.Graveyard) != 1 || summary.Graveyard[0].TeamID != "t01" {
		t.Fatalf("graveyard got=%v want the t01 event only", summary.Graveyard)
	}

	// Ranks, cutoff, and zone reflect the surviving pool alone.
	if summary.Rankings[0].Rank != 1 || summary.Rankings[0].TeamID != "t02" {
		t.Fatalf("rank 1 got=%s want=t02", summary.Rankings[0].TeamID)
	}
	if summary.CutoffScore != 95.0 {
		t.Fatalf("cutoff got=%v want=95", summary.CutoffScore)
	}
	if len(repo.events) != 1 {
		t.Fatalf("persisted events got=%d want=1", len(repo.events))
	}
}

func TestEliminationService_FinalizeWeekIsIdempotent(t *testing.T) {
	t.Parallel()

	repo := &stubHistoryRepository{}
	svc := NewEliminationService(repo, logging.NewNop())

	summary, err := svc.BuildWeekSummary(context.Background(), "lg1", 4, 2025,
		poolOf([]float64{120.0, 110.0, 95.0}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := svc.FinalizeWeek(context.Background(), summary); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if err := svc.FinalizeWeek(context.Background(), summary); err != nil {
		t.Fatalf("second finalize: %v", err)
	}

	if len(repo.events) != 1 {
		t.Fatalf("persisted events got=%d want=1", len(repo.events))
	}
	if repo.events[0].Week != 4 || repo.events[0].FinalRank != 3 {
		t.Fatalf("event got week=%d rank=%d want week=4 rank=3", repo.events[0].Week, repo.events[0].FinalRank)
	}
}

func TestEliminationService_InvalidInput(t *testing.T) {
	t.Parallel()

	svc := NewEliminationService(&stubHistoryRepository{}, logging.NewNop())

	if _, err := svc.BuildWeekSummary(context.Background(), "", 1, 2025, nil); err == nil {
		t.Fatal("expected error for missing league id")
	}
	if _, err := svc.BuildWeekSummary(context.Background(), "lg1", 0, 2025, nil); err == nil {
		t.Fatal("expected error for week zero")
	}
}
