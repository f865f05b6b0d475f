package sleeper

// Raw payload shapes for the Sleeper v1 API. Sleeper returns snake_case
// JSON with no envelope.

type leagueDetail struct {
	LeagueID        string             `json:"league_id"`
	Name            string             `json:"name"`
	Season          string             `json:"season"`
	Status          string             `json:"status"`
	TotalRosters    int                `json:"total_rosters"`
	ScoringSettings map[string]float64 `json:"scoring_settings"`
	RosterPositions []string           `json:"roster_positions"`
}

type matchup struct {
	RosterID  int  `json:"roster_id"`
	MatchupID *int `json:"matchup_id"`
	// Points is the pre-applied team total. PlayersPoints carries the
	// per-player applied totals; players missing from it are rescored from
	// raw stats.
	Points        float64            `json:"points"`
	Starters      []string           `json:"starters"`
	Players       []string           `json:"players"`
	PlayersPoints map[string]float64 `json:"players_points"`
}

type rosterInfo struct {
	RosterID int            `json:"roster_id"`
	OwnerID  string         `json:"owner_id"`
	Settings rosterSettings `json:"settings"`
}

type rosterSettings struct {
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
	Ties   int `json:"ties"`
}

type leagueUser struct {
	UserID      string       `json:"user_id"`
	DisplayName string       `json:"display_name"`
	Metadata    userMetadata `json:"metadata"`
}

type userMetadata struct {
	TeamName string `json:"team_name"`
}

type playerInfo struct {
	PlayerID     string `json:"player_id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Position     string `json:"position"`
	Team         string `json:"team"`
	InjuryStatus string `json:"injury_status"`
}

// weekBundle is everything one league-week needs, fetched in parallel.
type weekBundle struct {
	league   leagueDetail
	matchups []matchup
	rosters  []rosterInfo
	users    []leagueUser
	// stats holds raw per-player stat counts for the week, keyed by player
	// id; used to rescore players without applied totals.
	stats map[string]map[string]float64
}
