package elimination

import "context"

// HistoryRepository persists elimination events across weeks. Appending an
// event that already exists for (league, team) is a no-op so refreshes stay
// idempotent.
type HistoryRepository interface {
	AppendEvents(ctx context.Context, events []Event) error
	ListByLeague(ctx context.Context, leagueID string) ([]Event, error)
}
