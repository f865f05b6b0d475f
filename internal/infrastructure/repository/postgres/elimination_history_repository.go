package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/choppedhq/chopped-league/internal/domain/elimination"
	qb "github.com/choppedhq/chopped-league/internal/platform/querybuilder"
)

// EliminationHistoryRepository persists elimination events. The unique
// (league_id, team_id) constraint makes appends idempotent across refreshes.
type EliminationHistoryRepository struct {
	db *sqlx.DB
}

var _ elimination.HistoryRepository = (*EliminationHistoryRepository)(nil)

func NewEliminationHistoryRepository(db *sqlx.DB) *EliminationHistoryRepository {
	return &EliminationHistoryRepository{db: db}
}

func (r *EliminationHistoryRepository) AppendEvents(ctx context.Context, events []elimination.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx append elimination events: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, event := range events {
		createdAt := event.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}

		query, args, err := qb.InsertModel("elimination_events", eliminationEventInsertModel{
			LeagueID:   event.LeagueID,
			TeamID:     event.TeamID,
			TeamName:   event.TeamName,
			Week:       event.Week,
			FinalRank:  event.FinalRank,
			FinalScore: event.FinalScore,
			Margin:     event.Margin,
			PoolScores: pq.Float64Array(event.PoolScores),
			Narrative:  event.Narrative,
			CreatedAt:  createdAt,
		}, "ON CONFLICT (league_id, team_id) DO NOTHING")
		if err != nil {
			return fmt.Errorf("build insert elimination event query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert elimination event: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit append elimination events: %w", err)
	}
	return nil
}

func (r *EliminationHistoryRepository) ListByLeague(ctx context.Context, leagueID string) ([]elimination.Event, error) {
	query, args, err := eventBaseSelectBuilder().
		Where(qb.Eq("league_id", leagueID)).
		OrderBy("week", "final_rank", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list elimination events query: %w", err)
	}

	var rows []eliminationEventTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		if isBindParameterMismatch(err) || isUnnamedPreparedStatementMissing(err) {
			return r.listByLeagueLiteral(ctx, leagueID)
		}
		return nil, fmt.Errorf("list elimination events: %w", err)
	}

	return eventsFromRows(rows), nil
}

func (r *EliminationHistoryRepository) listByLeagueLiteral(ctx context.Context, leagueID string) ([]elimination.Event, error) {
	query, args, err := eventBaseSelectBuilder().
		Where(qb.EqLiteral("league_id", leagueID)).
		OrderBy("week", "final_rank", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list elimination events literal query: %w", err)
	}

	var rows []eliminationEventTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list elimination events fallback: %w", err)
	}

	return eventsFromRows(rows), nil
}

func eventBaseSelectBuilder() *qb.SelectBuilder {
	return qb.Select("*").From("elimination_events")
}

func eventsFromRows(rows []eliminationEventTableModel) []elimination.Event {
	out := make([]elimination.Event, 0, len(rows))
	for _, row := range rows {
		out = append(out, elimination.Event{
			LeagueID:   row.LeagueID,
			TeamID:     row.TeamID,
			TeamName:   row.TeamName,
			Week:       row.Week,
			FinalRank:  row.FinalRank,
			FinalScore: row.FinalScore,
			Margin:     row.Margin,
			PoolScores: append([]float64(nil), row.PoolScores...),
			Narrative:  row.Narrative,
			CreatedAt:  row.CreatedAt,
		})
	}
	return out
}
