package espn

import (
	"testing"

	"github.com/choppedhq/chopped-league/internal/domain/league"
	"github.com/choppedhq/chopped-league/internal/domain/nfl"
	"github.com/choppedhq/chopped-league/internal/platform/logging"
)

type fixedSnapshot nfl.Snapshot

func (s fixedSnapshot) Current() nfl.Snapshot { return nfl.Snapshot(s) }

func rosterEntryFixture(playerID int, name string, slotID, positionID, proTeamID int, actual, projected float64, week int) rosterEntry {
	return rosterEntry{
		LineupSlotID: slotID,
		PlayerPoolEntry: playerPoolEntry{
			ID: playerID,
			Player: playerDetail{
				ID:                playerID,
				FullName:          name,
				DefaultPositionID: positionID,
				ProTeamID:         proTeamID,
				Stats: []statLine{
					{StatSourceID: statSourceActual, ScoringPeriodID: week, AppliedTotal: actual},
					{StatSourceID: statSourceProjected, ScoringPeriodID: week, AppliedTotal: projected},
					// Stale line from another week must be ignored.
					{StatSourceID: statSourceActual, ScoringPeriodID: week - 1, AppliedTotal: 99.9},
				},
			},
		},
	}
}

func leagueFixture(week int) leagueResponse {
	return leagueResponse{
		ID:              998877,
		ScoringPeriodID: week,
		Members: []member{
			{ID: "{guid-1}", FirstName: "Dana", LastName: "Ortiz", DisplayName: "dortiz"},
			{ID: "{guid-2}", DisplayName: "chopmaster"},
		},
		Teams: []team{
			{
				ID:     1,
				Name:   "Gridiron Gremlins",
				Owners: []string{"{guid-1}"},
				Record: record{Overall: recordOverall{Wins: 3, Losses: 1}},
				Roster: roster{Entries: []rosterEntry{
					rosterEntryFixture(101, "QB One", 0, 1, 12, 18.4, 17.0, week),
					rosterEntryFixture(102, "RB Bench", slotBench, 2, 7, 9.1, 8.0, week),
				}},
			},
			{
				ID:     2,
				Abbrev: "MMM",
				Owners: []string{"{guid-2}"},
				Roster: roster{Entries: []rosterEntry{
					rosterEntryFixture(201, "WR Two", 4, 3, 28, 7.7, 11.2, week),
				}},
			},
			{
				ID:     3,
				Name:   "Odd Team Out",
				Owners: []string{"{guid-1}"},
				Roster: roster{Entries: []rosterEntry{
					rosterEntryFixture(301, "TE Three", 6, 4, 9, 4.2, 6.5, week),
				}},
			},
			// Never appears in this week's schedule at all.
			{
				ID:     4,
				Name:   "Scheduleless Wonders",
				Owners: []string{"{guid-2}"},
				Roster: roster{Entries: []rosterEntry{
					rosterEntryFixture(401, "RB Four", 2, 2, 12, 13.6, 12.0, week),
					rosterEntryFixture(402, "WR Bench Four", slotBench, 3, 12, 6.2, 5.5, week),
				}},
			},
		},
		Schedule: []scheduleItem{
			{
				ID:              10,
				MatchupPeriodID: week,
				Home:            scheduleSide{TeamID: 1, TotalPoints: 88.5},
				Away:            scheduleSide{TeamID: 2},
			},
			{
				ID:              11,
				MatchupPeriodID: week,
				Home:            scheduleSide{TeamID: 3},
			},
			// A different week's pairing must be skipped entirely.
			{
				ID:              12,
				MatchupPeriodID: week + 1,
				Home:            scheduleSide{TeamID: 1},
				Away:            scheduleSide{TeamID: 3},
			},
		},
	}
}

func TestAdapter_AdaptWeek(t *testing.T) {
	t.Parallel()

	a := NewAdapter(nil, fixedSnapshot{
		"KC": {TeamCode: "KC", IsLive: true},
	}, logging.NewNop())

	result := a.adapt(leagueFixture(5), 5, 2025)

	if len(result.Matchups) != 1 {
		t.Fatalf("matchups got=%d want=1", len(result.Matchups))
	}
	m := result.Matchups[0]
	if m.Home.ID != "1" || m.Away.ID != "2" {
		t.Fatalf("pairing got=%s/%s want=1/2", m.Home.ID, m.Away.ID)
	}

	// Schedule total wins over summed starters when present.
	if m.Home.Score != 88.5 {
		t.Fatalf("home score got=%v want=88.5", m.Home.Score)
	}
	// Absent total falls back to the starters' points.
	if m.Away.Score != 7.7 {
		t.Fatalf("away score got=%v want=7.7", m.Away.Score)
	}

	if len(result.ByeTeams) != 2 || result.ByeTeams[0].ID != "3" || result.ByeTeams[1].ID != "4" {
		t.Fatalf("bye teams got=%v want=[3 4]", result.ByeTeams)
	}
	// Schedule-bye side with no total: starters' points.
	if result.ByeTeams[0].Score != 4.2 {
		t.Fatalf("schedule-bye score got=%v want=4.2", result.ByeTeams[0].Score)
	}
	// Unscheduled team: starters' points, bench excluded.
	if result.ByeTeams[1].Score != 13.6 {
		t.Fatalf("unscheduled team score got=%v want=13.6", result.ByeTeams[1].Score)
	}
}

func TestAdapter_PlayerMapping(t *testing.T) {
	t.Parallel()

	a := NewAdapter(nil, fixedSnapshot{
		"KC": {TeamCode: "KC", IsLive: true},
	}, logging.NewNop())

	result := a.adapt(leagueFixture(5), 5, 2025)
	home := result.Matchups[0].Home

	if len(home.Players) != 2 {
		t.Fatalf("players got=%d want=2", len(home.Players))
	}

	qb := home.Players[0]
	if qb.Position != league.PositionQuarterback || !qb.IsStarter {
		t.Fatalf("qb got position=%s starter=%v", qb.Position, qb.IsStarter)
	}
	if qb.Points != 18.4 || qb.ProjectedPoints != 17.0 {
		t.Fatalf("qb stats got=%v/%v want=18.4/17.0", qb.Points, qb.ProjectedPoints)
	}
	if qb.TeamCode != "KC" {
		t.Fatalf("qb team code got=%s want=KC", qb.TeamCode)
	}
	if qb.GameStatus != nfl.StatusLive {
		t.Fatalf("qb game status got=%s want=%s", qb.GameStatus, nfl.StatusLive)
	}

	bench := home.Players[1]
	if bench.IsStarter {
		t.Fatal("bench player must not be a starter")
	}
	if bench.Position != league.PositionRunningBack {
		t.Fatalf("bench position got=%s want=%s", bench.Position, league.PositionRunningBack)
	}
	// Denver has no snapshot entry: bye.
	if bench.GameStatus != nfl.StatusBye {
		t.Fatalf("bench game status got=%s want=%s", bench.GameStatus, nfl.StatusBye)
	}
}

func TestAdapter_OwnerAndRecordResolution(t *testing.T) {
	t.Parallel()

	a := NewAdapter(nil, fixedSnapshot{}, logging.NewNop())
	result := a.adapt(leagueFixture(5), 5, 2025)

	home := result.Matchups[0].Home
	if home.OwnerName != "Dana Ortiz" {
		t.Fatalf("owner got=%q want=%q", home.OwnerName, "Dana Ortiz")
	}
	// No first/last name: display name is the fallback.
	if away := result.Matchups[0].Away; away.OwnerName != "chopmaster" {
		t.Fatalf("away owner got=%q want=%q", away.OwnerName, "chopmaster")
	}

	// Record present for team 1, absent for team 2.
	if rec := result.Records["1"]; rec == nil || rec.Wins != 3 || rec.Losses != 1 {
		t.Fatalf("team 1 record got=%v want=3-1", rec)
	}
	if rec, ok := result.Records["2"]; ok {
		t.Fatalf("team 2 record should be absent, got=%v", rec)
	}

	// Nameless team falls back to its abbreviation.
	if away := result.Matchups[0].Away; away.Name != "MMM" {
		t.Fatalf("away name got=%q want=MMM", away.Name)
	}
}
