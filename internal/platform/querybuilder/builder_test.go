package querybuilder

import "testing"

func TestSelectBuilder(t *testing.T) {
	query, args, err := Select("id", "league_id", "week").
		From("elimination_events").
		Where(Eq("league_id", "office")).
		OrderBy("week", "final_rank").
		Limit(5).
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT id, league_id, week FROM elimination_events WHERE league_id = $1 ORDER BY week, final_rank LIMIT 5"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 1 || args[0] != "office" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestSelectBuilder_LiteralCondition(t *testing.T) {
	query, args, err := Select("*").
		From("elimination_events").
		Where(EqLiteral("league_id", "o'brien")).
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT * FROM elimination_events WHERE league_id = 'o''brien'"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 0 {
		t.Fatalf("literal condition must not bind args, got: %+v", args)
	}
}

func TestInsertBuilder(t *testing.T) {
	query, args, err := InsertInto("elimination_events").
		Columns("league_id", "team_id").
		Values("office", "7").
		Suffix("ON CONFLICT (league_id, team_id) DO NOTHING").
		ToSQL()
	if err != nil {
		t.Fatalf("build insert query: %v", err)
	}

	wantQuery := "INSERT INTO elimination_events (league_id, team_id) VALUES ($1, $2) ON CONFLICT (league_id, team_id) DO NOTHING"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 || args[0] != "office" || args[1] != "7" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestInsertModel(t *testing.T) {
	type row struct {
		LeagueID string `db:"league_id"`
		TeamID   string `db:"team_id"`
		Week     int    `db:"week"`
		Ignored  string `db:"-"`
	}

	query, args, err := InsertModel("elimination_events", row{
		LeagueID: "office",
		TeamID:   "7",
		Week:     4,
		Ignored:  "never bound",
	}, "")
	if err != nil {
		t.Fatalf("build insert query: %v", err)
	}

	wantQuery := "INSERT INTO elimination_events (league_id, team_id, week) VALUES ($1, $2, $3)"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 3 || args[2] != 4 {
		t.Fatalf("unexpected args: %+v", args)
	}
}
