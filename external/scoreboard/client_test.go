package scoreboard

import (
	"testing"

	"github.com/choppedhq/chopped-league/internal/domain/nfl"
)

func eventFixture(home, away, state string, completed bool, homeScore, awayScore string) event {
	return event{
		Date:   "2025-10-05T17:00Z",
		Status: eventStatus{Type: eventStatusType{State: state, Completed: completed}},
		Competitions: []competition{{
			Competitors: []competitor{
				{HomeAway: "home", Score: homeScore, Team: competitorsTeam{Abbreviation: home}},
				{HomeAway: "away", Score: awayScore, Team: competitorsTeam{Abbreviation: away}},
			},
		}},
	}
}

func TestBuildSnapshot(t *testing.T) {
	t.Parallel()

	snapshot := buildSnapshot(scoreboardResponse{Events: []event{
		eventFixture("KC", "DEN", "in", false, "14", "7"),
		eventFixture("WSH", "NYG", "post", true, "24", "10"),
		eventFixture("GB", "CHI", "pre", false, "0", "0"),
	}})

	kc, ok := snapshot["KC"]
	if !ok || !kc.IsLive || kc.IsCompleted {
		t.Fatalf("KC got=%+v want live", kc)
	}
	if kc.OpponentCode != "DEN" || kc.Score != 14 {
		t.Fatalf("KC opponent/score got=%s/%d want=DEN/14", kc.OpponentCode, kc.Score)
	}
	if kc.StartsAt == nil {
		t.Fatal("KC starts_at missing")
	}

	// The feed's WSH is stored under the canonical code.
	was, ok := snapshot["WAS"]
	if !ok || !was.IsCompleted {
		t.Fatalf("WAS got=%+v want completed", was)
	}
	if nfl.StatusOf("WSH", snapshot) != nfl.StatusComplete {
		t.Fatalf("status via alias got=%s want=%s", nfl.StatusOf("WSH", snapshot), nfl.StatusComplete)
	}

	if nfl.StatusOf("GB", snapshot) != nfl.StatusPregame {
		t.Fatalf("GB status got=%s want=%s", nfl.StatusOf("GB", snapshot), nfl.StatusPregame)
	}
	// No entry at all: bye.
	if nfl.StatusOf("MIA", snapshot) != nfl.StatusBye {
		t.Fatalf("MIA status got=%s want=%s", nfl.StatusOf("MIA", snapshot), nfl.StatusBye)
	}
}
