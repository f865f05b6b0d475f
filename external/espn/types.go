package espn

// Raw payload shapes for the ESPN fantasy v3 league endpoint. Only the
// fields the adapter reads are declared; everything else is dropped at
// decode time.

type leagueResponse struct {
	ID              int            `json:"id"`
	ScoringPeriodID int            `json:"scoringPeriodId"`
	SeasonID        int            `json:"seasonId"`
	Status          leagueStatus   `json:"status"`
	Settings        leagueSettings `json:"settings"`
	Members         []member       `json:"members"`
	Teams           []team         `json:"teams"`
	Schedule        []scheduleItem `json:"schedule"`
}

type leagueStatus struct {
	CurrentMatchupPeriod int  `json:"currentMatchupPeriod"`
	FirstScoringPeriod   int  `json:"firstScoringPeriod"`
	FinalScoringPeriod   int  `json:"finalScoringPeriod"`
	IsActive             bool `json:"isActive"`
}

type leagueSettings struct {
	Name string `json:"name"`
	Size int    `json:"size"`
}

type member struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
}

type team struct {
	ID       int      `json:"id"`
	Abbrev   string   `json:"abbrev"`
	Name     string   `json:"name"`
	Location string   `json:"location"`
	Nickname string   `json:"nickname"`
	Owners   []string `json:"owners"`
	Record   record   `json:"record"`
	Roster   roster   `json:"roster"`
}

type record struct {
	Overall recordOverall `json:"overall"`
}

// hasData distinguishes a genuinely absent record block from an all-zero
// season start. ESPN has been observed to omit the block entirely on some
// views; absence is permanent, not retryable.
func (r record) hasData() bool {
	o := r.Overall
	return o.Wins != 0 || o.Losses != 0 || o.Ties != 0 || o.PointsFor != 0 || o.PointsAgainst != 0
}

type recordOverall struct {
	Wins          int     `json:"wins"`
	Losses        int     `json:"losses"`
	Ties          int     `json:"ties"`
	PointsFor     float64 `json:"pointsFor"`
	PointsAgainst float64 `json:"pointsAgainst"`
}

type roster struct {
	Entries []rosterEntry `json:"entries"`
}

type rosterEntry struct {
	LineupSlotID    int             `json:"lineupSlotId"`
	PlayerPoolEntry playerPoolEntry `json:"playerPoolEntry"`
}

type playerPoolEntry struct {
	ID               int          `json:"id"`
	Player           playerDetail `json:"player"`
	AppliedStatTotal float64      `json:"appliedStatTotal"`
}

type playerDetail struct {
	ID                int        `json:"id"`
	FirstName         string     `json:"firstName"`
	LastName          string     `json:"lastName"`
	FullName          string     `json:"fullName"`
	DefaultPositionID int        `json:"defaultPositionId"`
	ProTeamID         int        `json:"proTeamId"`
	InjuryStatus      string     `json:"injuryStatus"`
	Stats             []statLine `json:"stats"`
}

type statLine struct {
	StatSourceID    int                `json:"statSourceId"`
	ScoringPeriodID int                `json:"scoringPeriodId"`
	AppliedTotal    float64            `json:"appliedTotal"`
	AppliedStats    map[string]float64 `json:"appliedStats"`
}

type scheduleItem struct {
	ID              int          `json:"id"`
	MatchupPeriodID int          `json:"matchupPeriodId"`
	Winner          string       `json:"winner"`
	Home            scheduleSide `json:"home"`
	Away            scheduleSide `json:"away"`
}

type scheduleSide struct {
	TeamID                        int     `json:"teamId"`
	TotalPoints                   float64 `json:"totalPoints"`
	RosterForCurrentScoringPeriod roster  `json:"rosterForCurrentScoringPeriod"`
}

func (s scheduleSide) present() bool { return s.TeamID > 0 }
