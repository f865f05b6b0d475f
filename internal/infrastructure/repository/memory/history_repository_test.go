package memory

import (
	"context"
	"testing"

	"github.com/choppedhq/chopped-league/internal/domain/elimination"
)

func TestEliminationHistoryRepository_AppendIsIdempotent(t *testing.T) {
	t.Parallel()

	repo := NewEliminationHistoryRepository()
	ctx := context.Background()

	event := elimination.Event{LeagueID: "office", TeamID: "7", TeamName: "Cutting Board", Week: 4, FinalRank: 10}
	if err := repo.AppendEvents(ctx, []elimination.Event{event}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := repo.AppendEvents(ctx, []elimination.Event{event}); err != nil {
		t.Fatalf("append again: %v", err)
	}

	events, err := repo.ListByLeague(ctx, "office")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("events got=%d want=1", len(events))
	}
}

func TestEliminationHistoryRepository_ListFiltersAndSorts(t *testing.T) {
	t.Parallel()

	repo := NewEliminationHistoryRepository()
	ctx := context.Background()

	err := repo.AppendEvents(ctx, []elimination.Event{
		{LeagueID: "office", TeamID: "2", Week: 6, FinalRank: 12},
		{LeagueID: "office", TeamID: "1", Week: 3, FinalRank: 12},
		{LeagueID: "sunday", TeamID: "9", Week: 1, FinalRank: 8},
		{LeagueID: "office", TeamID: "3", Week: 6, FinalRank: 11},
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	events, err := repo.ListByLeague(ctx, "office")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("events got=%d want=3", len(events))
	}
	if events[0].TeamID != "1" || events[1].TeamID != "3" || events[2].TeamID != "2" {
		t.Fatalf("order got=%s,%s,%s want=1,3,2", events[0].TeamID, events[1].TeamID, events[2].TeamID)
	}
}

func TestEliminationHistoryRepository_CopiesPoolScores(t *testing.T) {
	t.Parallel()

	repo := NewEliminationHistoryRepository()
	ctx := context.Background()

	scores := []float64{101.2, 88.8}
	if err := repo.AppendEvents(ctx, []elimination.Event{{LeagueID: "office", TeamID: "5", PoolScores: scores}}); err != nil {
		t.Fatalf("append: %v", err)
	}
	scores[0] = 0

	events, _ := repo.ListByLeague(ctx, "office")
	if events[0].PoolScores[0] != 101.2 {
		t.Fatalf("pool scores aliased caller slice: %v", events[0].PoolScores)
	}
}
