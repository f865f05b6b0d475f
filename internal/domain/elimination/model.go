package elimination

import "time"

// Status is a team's competitive zone for the current week.
type Status string

const (
	StatusChampion   Status = "CHAMPION"
	StatusSafe       Status = "SAFE"
	StatusWarning    Status = "WARNING"
	StatusDanger     Status = "DANGER"
	StatusCritical   Status = "CRITICAL"
	StatusEliminated Status = "ELIMINATED"
)

// TeamRanking is one row of a week's ranking table. Recomputed on every
// refresh; only EliminationEvents survive across weeks.
type TeamRanking struct {
	TeamID    string
	TeamName  string
	OwnerName string
	Rank      int
	WeekScore float64
	Status    Status
	// SurvivalProbability is the linear (totalTeams-rank)/totalTeams
	// heuristic, clamped to [0,1]. It is a display aid, not a statistical
	// model, and is kept as-is for behavioral parity.
	SurvivalProbability float64
	// SafetyMargin is the signed point distance to the relevant elimination
	// boundary: distance to escape for in-zone teams, buffer above the
	// cutoff for everyone else.
	SafetyMargin float64
	WeeksAlive   int
}

// Event is the immutable record of one team's elimination. Appended to the
// league history once and never mutated.
type Event struct {
	LeagueID   string
	TeamID     string
	TeamName   string
	Week       int
	FinalRank  int
	FinalScore float64
	Margin     float64
	// PoolScores captures the full sorted score pool at elimination time.
	PoolScores []float64
	Narrative  string
	CreatedAt  time.Time
}

// WeekSummary aggregates one week's rankings and is the only object the
// presentation layer consumes.
type WeekSummary struct {
	LeagueID           string
	Week               int
	Season             int
	Rankings           []TeamRanking
	EliminatedThisWeek []TeamRanking
	Graveyard          []Event
	EliminationCount   int
	CutoffScore        float64
	AverageScore       float64
	HighScore          float64
	LowScore           float64
	GeneratedAt        time.Time
}
