package nfl

import "time"

// GameStatus classifies a team's game for one week.
type GameStatus string

const (
	StatusBye      GameStatus = "BYE"
	StatusPregame  GameStatus = "PREGAME"
	StatusLive     GameStatus = "LIVE"
	StatusComplete GameStatus = "COMPLETE"
)

// Game is one team's entry in a scoreboard snapshot.
type Game struct {
	TeamCode     string
	OpponentCode string
	IsLive       bool
	IsCompleted  bool
	Score        int
	StartsAt     *time.Time
}

// Snapshot is the current scoreboard keyed by canonical team code. It is
// produced by an external poller and treated as read-only here.
type Snapshot map[string]Game

// SnapshotProvider supplies the latest scoreboard snapshot.
type SnapshotProvider interface {
	Current() Snapshot
}

// StatusOf classifies a team's game from the snapshot. A team with no entry
// is on bye.
func StatusOf(teamCode string, snapshot Snapshot) GameStatus {
	game, ok := snapshot[Canonicalize(teamCode)]
	if !ok {
		return StatusBye
	}
	switch {
	case game.IsCompleted:
		return StatusComplete
	case game.IsLive:
		return StatusLive
	default:
		return StatusPregame
	}
}

// YetToPlay reports whether a player on the given team still has scoring
// upside this week. The decision table is fixed: bye is always false, a game
// dated strictly before today is false, otherwise true iff the player has
// zero points and the game is not complete. Callers use this both for
// roster display and to decide actual-vs-projected scoring.
func YetToPlay(teamCode string, currentPoints float64, snapshot Snapshot, gameDate *time.Time, now time.Time) bool {
	status := StatusOf(teamCode, snapshot)
	if status == StatusBye {
		return false
	}
	if gameDate != nil && beforeDay(*gameDate, now) {
		return false
	}
	return currentPoints == 0 && status != StatusComplete
}

func beforeDay(t, now time.Time) bool {
	ty, tm, td := t.UTC().Date()
	ny, nm, nd := now.UTC().Date()
	if ty != ny {
		return ty < ny
	}
	if tm != nm {
		return tm < nm
	}
	return td < nd
}
