package postgres

import (
	"time"

	"github.com/lib/pq"
)

type eliminationEventTableModel struct {
	ID         int64           `db:"id"`
	LeagueID   string          `db:"league_id"`
	TeamID     string          `db:"team_id"`
	TeamName   string          `db:"team_name"`
	Week       int             `db:"week"`
	FinalRank  int             `db:"final_rank"`
	FinalScore float64         `db:"final_score"`
	Margin     float64         `db:"margin"`
	PoolScores pq.Float64Array `db:"pool_scores"`
	Narrative  string          `db:"narrative"`
	CreatedAt  time.Time       `db:"created_at"`
}

type eliminationEventInsertModel struct {
	LeagueID   string          `db:"league_id"`
	TeamID     string          `db:"team_id"`
	TeamName   string          `db:"team_name"`
	Week       int             `db:"week"`
	FinalRank  int             `db:"final_rank"`
	FinalScore float64         `db:"final_score"`
	Margin     float64         `db:"margin"`
	PoolScores pq.Float64Array `db:"pool_scores"`
	Narrative  string          `db:"narrative"`
	CreatedAt  time.Time       `db:"created_at"`
}
