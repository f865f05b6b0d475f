package espn

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/choppedhq/chopped-league/internal/domain/league"
	"github.com/choppedhq/chopped-league/internal/domain/nfl"
	"github.com/choppedhq/chopped-league/internal/platform/logging"
	"github.com/choppedhq/chopped-league/internal/usecase"
)

const (
	slotBench = 20
	slotIR    = 21
)

// lineupSlotPositions maps ESPN lineup slot ids to the common vocabulary.
var lineupSlotPositions = map[int]league.Position{
	0:         league.PositionQuarterback,
	2:         league.PositionRunningBack,
	4:         league.PositionWideReceiver,
	6:         league.PositionTightEnd,
	16:        league.PositionDefense,
	17:        league.PositionKicker,
	23:        league.PositionFlex,
	slotBench: league.PositionBench,
	slotIR:    league.PositionIR,
}

// defaultPositions maps ESPN defaultPositionId to a player's natural
// position, used when the lineup slot is positionless (bench, IR, flex).
var defaultPositions = map[int]league.Position{
	1:  league.PositionQuarterback,
	2:  league.PositionRunningBack,
	3:  league.PositionWideReceiver,
	4:  league.PositionTightEnd,
	5:  league.PositionKicker,
	16: league.PositionDefense,
}

// proTeamCodes maps ESPN proTeamId to the raw team abbreviation; the
// normalizer canonicalizes from there.
var proTeamCodes = map[int]string{
	1: "ATL", 2: "BUF", 3: "CHI", 4: "CIN", 5: "CLE", 6: "DAL", 7: "DEN",
	8: "DET", 9: "GB", 10: "TEN", 11: "IND", 12: "KC", 13: "LV", 14: "LAR",
	15: "MIA", 16: "MIN", 17: "NE", 18: "NO", 19: "NYG", 20: "NYJ",
	21: "PHI", 22: "ARI", 23: "PIT", 24: "LAC", 25: "SF", 26: "SEA",
	27: "TB", 28: "WSH", 29: "CAR", 30: "JAX", 33: "BAL", 34: "HOU",
}

const (
	statSourceActual    = 0
	statSourceProjected = 1
)

// Adapter turns raw ESPN league payloads into the common model.
type Adapter struct {
	client   *Client
	snapshot nfl.SnapshotProvider
	logger   *logging.Logger
}

func NewAdapter(client *Client, snapshot nfl.SnapshotProvider, logger *logging.Logger) *Adapter {
	if logger == nil {
		logger = logging.Default()
	}
	return &Adapter{
		client:   client,
		snapshot: snapshot,
		logger:   logger,
	}
}

func (a *Adapter) Source() usecase.SourceType { return usecase.SourceESPN }

func (a *Adapter) FetchWeek(ctx context.Context, providerLeagueID string, week, season int) (usecase.AdaptResult, error) {
	raw, err := a.client.FetchLeagueWeek(ctx, providerLeagueID, week, season)
	if err != nil {
		return usecase.AdaptResult{}, err
	}
	return a.adapt(raw, week, season), nil
}

func (a *Adapter) adapt(raw leagueResponse, week, season int) usecase.AdaptResult {
	var snap nfl.Snapshot
	if a.snapshot != nil {
		snap = a.snapshot.Current()
	}

	ownerNames := memberNames(raw.Members)

	var result usecase.AdaptResult
	result.Records = make(map[string]*league.Record, len(raw.Teams))

	teams := make(map[int]league.Team, len(raw.Teams))
	for _, t := range raw.Teams {
		built, problems := a.buildTeam(t, ownerNames, week, snap)
		teams[t.ID] = built
		result.Problems = append(result.Problems, problems...)
		if t.Record.hasData() {
			result.Records[built.ID] = &league.Record{
				Wins:   t.Record.Overall.Wins,
				Losses: t.Record.Overall.Losses,
				Ties:   t.Record.Overall.Ties,
			}
		}
	}

	paired := make(map[int]bool, len(teams))
	for _, item := range raw.Schedule {
		if item.MatchupPeriodID != week {
			continue
		}
		home, homeOK := teams[item.Home.TeamID]
		away, awayOK := teams[item.Away.TeamID]

		switch {
		case homeOK && awayOK:
			home.Score = sideScore(item.Home, home)
			away.Score = sideScore(item.Away, away)
			paired[item.Home.TeamID] = true
			paired[item.Away.TeamID] = true
			result.Matchups = append(result.Matchups, league.Matchup{
				Week:   week,
				Season: season,
				Home:   home,
				Away:   away,
			})
		case homeOK && !item.Away.present():
			// Playoff-style bye: a schedule entry with no opponent.
			home.Score = sideScore(item.Home, home)
			paired[item.Home.TeamID] = true
			result.ByeTeams = append(result.ByeTeams, home)
		default:
			result.Problems = append(result.Problems,
				fmt.Sprintf("schedule entry %d references unknown team ids home=%d away=%d",
					item.ID, item.Home.TeamID, item.Away.TeamID))
		}
	}

	// Teams the filtered schedule never mentioned still belong to the pool,
	// scored from their starters since no schedule side carries a total.
	for _, t := range raw.Teams {
		if !paired[t.ID] {
			bye := teams[t.ID]
			bye.Score = startersTotal(bye)
			result.ByeTeams = append(result.ByeTeams, bye)
		}
	}

	return result
}

func (a *Adapter) buildTeam(t team, ownerNames map[string]string, week int, snap nfl.Snapshot) (league.Team, []string) {
	var problems []string

	players := make([]league.Player, 0, len(t.Roster.Entries))
	for _, entry := range t.Roster.Entries {
		detail := entry.PlayerPoolEntry.Player
		if detail.ID == 0 {
			problems = append(problems, fmt.Sprintf("team %d has a roster entry with no player detail", t.ID))
			continue
		}

		code := nfl.Canonicalize(proTeamCodes[detail.ProTeamID])
		actual, projected := statTotals(detail.Stats, week)

		players = append(players, league.Player{
			ID:              strconv.Itoa(detail.ID),
			CrossID:         detail.FullName,
			FirstName:       detail.FirstName,
			LastName:        detail.LastName,
			Position:        entryPosition(entry.LineupSlotID, detail.DefaultPositionID),
			TeamCode:        code,
			Points:          actual,
			ProjectedPoints: projected,
			IsStarter:       entry.LineupSlotID != slotBench && entry.LineupSlotID != slotIR,
			InjuryStatus:    detail.InjuryStatus,
			GameStatus:      nfl.StatusOf(code, snap),
		})
	}

	return league.Team{
		ID:        strconv.Itoa(t.ID),
		Name:      teamDisplayName(t),
		OwnerName: ownerDisplayName(t.Owners, ownerNames),
		Players:   players,
	}, problems
}

// statTotals picks the actual and projected totals for one scoring period.
func statTotals(stats []statLine, week int) (actual, projected float64) {
	for _, s := range stats {
		if s.ScoringPeriodID != week {
			continue
		}
		switch s.StatSourceID {
		case statSourceActual:
			actual = s.AppliedTotal
		case statSourceProjected:
			projected = s.AppliedTotal
		}
	}
	return actual, projected
}

// sideScore prefers the schedule's own total and falls back to summing the
// starters when the scoreboard total has not materialized yet.
func sideScore(side scheduleSide, t league.Team) float64 {
	if side.TotalPoints > 0 {
		return side.TotalPoints
	}
	return startersTotal(t)
}

func startersTotal(t league.Team) float64 {
	total := 0.0
	for _, p := range t.Starters() {
		total += p.Points
	}
	return total
}

// entryPosition reports the player's natural position; the lineup slot only
// decides it for dedicated slots when the default position is unknown.
// Starter-vs-bench is carried separately on the Player.
func entryPosition(lineupSlotID, defaultPositionID int) league.Position {
	if natural, ok := defaultPositions[defaultPositionID]; ok {
		return natural
	}
	if pos, ok := lineupSlotPositions[lineupSlotID]; ok {
		return pos
	}
	return league.Position(fmt.Sprintf("SLOT_%d", lineupSlotID))
}

// teamDisplayName resolves the first non-empty candidate: full name,
// location+nickname, abbreviation, then a synthetic fallback.
func teamDisplayName(t team) string {
	if name := strings.TrimSpace(t.Name); name != "" {
		return name
	}
	if combined := strings.TrimSpace(strings.TrimSpace(t.Location) + " " + strings.TrimSpace(t.Nickname)); combined != "" {
		return combined
	}
	if abbrev := strings.TrimSpace(t.Abbrev); abbrev != "" {
		return abbrev
	}
	return fmt.Sprintf("Team %d", t.ID)
}

func ownerDisplayName(owners []string, names map[string]string) string {
	for _, guid := range owners {
		if name, ok := names[guid]; ok && name != "" {
			return name
		}
	}
	return ""
}

func memberNames(members []member) map[string]string {
	out := make(map[string]string, len(members))
	for _, m := range members {
		full := strings.TrimSpace(strings.TrimSpace(m.FirstName) + " " + strings.TrimSpace(m.LastName))
		if full == "" {
			full = strings.TrimSpace(m.DisplayName)
		}
		out[m.ID] = full
	}
	return out
}
