// Package memory holds the storage used when the service runs without a
// database. History does not survive a restart; everything else in the
// pipeline is recomputed per refresh anyway.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/choppedhq/chopped-league/internal/domain/elimination"
)

type eventKey struct {
	leagueID string
	teamID   string
}

// EliminationHistoryRepository is the in-memory elimination.HistoryRepository.
// Appends are idempotent per (league, team), matching the database unique
// constraint.
type EliminationHistoryRepository struct {
	mu     sync.RWMutex
	events []elimination.Event
	seen   map[eventKey]struct{}
}

var _ elimination.HistoryRepository = (*EliminationHistoryRepository)(nil)

func NewEliminationHistoryRepository() *EliminationHistoryRepository {
	return &EliminationHistoryRepository{
		seen: make(map[eventKey]struct{}),
	}
}

func (r *EliminationHistoryRepository) AppendEvents(_ context.Context, events []elimination.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, event := range events {
		key := eventKey{leagueID: event.LeagueID, teamID: event.TeamID}
		if _, dup := r.seen[key]; dup {
			continue
		}
		r.seen[key] = struct{}{}
		event.PoolScores = append([]float64(nil), event.PoolScores...)
		r.events = append(r.events, event)
	}
	return nil
}

func (r *EliminationHistoryRepository) ListByLeague(_ context.Context, leagueID string) ([]elimination.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]elimination.Event, 0, len(r.events))
	for _, event := range r.events {
		if event.LeagueID == leagueID {
			out = append(out, event)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Week != out[j].Week {
			return out[i].Week < out[j].Week
		}
		return out[i].FinalRank < out[j].FinalRank
	})
	return out, nil
}
