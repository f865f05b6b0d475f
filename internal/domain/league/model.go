package league

import (
	"fmt"
	"strings"

	"github.com/choppedhq/chopped-league/internal/domain/nfl"
)

// Position is the common lineup vocabulary both providers map into.
type Position string

const (
	PositionQuarterback  Position = "QB"
	PositionRunningBack  Position = "RB"
	PositionWideReceiver Position = "WR"
	PositionTightEnd     Position = "TE"
	PositionKicker       Position = "K"
	PositionDefense      Position = "D/ST"
	PositionFlex         Position = "FLEX"
	PositionBench        Position = "BENCH"
	PositionIR           Position = "IR"
)

// Record is a team's win/loss/tie line. A nil *Record downstream means the
// provider did not expose standings; that is an expected permanent state,
// not an error.
type Record struct {
	Wins   int
	Losses int
	Ties   int
}

func (r Record) String() string {
	if r.Ties > 0 {
		return fmt.Sprintf("%d-%d-%d", r.Wins, r.Losses, r.Ties)
	}
	return fmt.Sprintf("%d-%d", r.Wins, r.Losses)
}

// Player is one roster entry for a single week snapshot. Immutable once
// built by an adapter.
type Player struct {
	ID              string
	CrossID         string
	FirstName       string
	LastName        string
	Position        Position
	TeamCode        string
	Points          float64
	ProjectedPoints float64
	IsStarter       bool
	InjuryStatus    string
	GameStatus      nfl.GameStatus
}

func (p Player) Name() string {
	name := strings.TrimSpace(p.FirstName + " " + p.LastName)
	if name == "" {
		return p.ID
	}
	return name
}

// Team is a league roster for one week. Rebuilt on every refresh, never
// mutated in place.
type Team struct {
	ID             string
	Name           string
	OwnerName      string
	Score          float64
	ProjectedScore float64
	Players        []Player
	Record         *Record
}

func (t Team) Starters() []Player {
	out := make([]Player, 0, len(t.Players))
	for _, p := range t.Players {
		if p.IsStarter {
			out = append(out, p)
		}
	}
	return out
}

// HasFieldableLineup reports whether the team can compete this week. Teams
// with no owner, no players, or no starters are routed to the elimination
// graveyard instead of the active pool.
func (t Team) HasFieldableLineup() bool {
	if strings.TrimSpace(t.OwnerName) == "" {
		return false
	}
	for _, p := range t.Players {
		if p.IsStarter {
			return true
		}
	}
	return false
}

// MatchupStatus is derived from the constituent players' game statuses.
type MatchupStatus string

const (
	MatchupUpcoming MatchupStatus = "UPCOMING"
	MatchupLive     MatchupStatus = "LIVE"
	MatchupComplete MatchupStatus = "COMPLETE"
)

// Matchup pairs two teams for one week. Elimination-mode leagues rank a
// flat pool instead, but providers still report head-to-head pairings.
type Matchup struct {
	Week   int
	Season int
	Home   Team
	Away   Team
}

// Status derives the matchup state from starters on both sides: live if any
// starter's game is live, complete when every starter is complete or on
// bye, upcoming otherwise.
func (m Matchup) Status() MatchupStatus {
	starters := append(m.Home.Starters(), m.Away.Starters()...)
	if len(starters) == 0 {
		return MatchupUpcoming
	}

	allDone := true
	for _, p := range starters {
		switch p.GameStatus {
		case nfl.StatusLive:
			return MatchupLive
		case nfl.StatusComplete, nfl.StatusBye:
		default:
			allDone = false
		}
	}
	if allDone {
		return MatchupComplete
	}
	return MatchupUpcoming
}
