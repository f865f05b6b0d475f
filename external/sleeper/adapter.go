package sleeper

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/choppedhq/chopped-league/internal/domain/league"
	"github.com/choppedhq/chopped-league/internal/domain/nfl"
	"github.com/choppedhq/chopped-league/internal/domain/scoring"
	"github.com/choppedhq/chopped-league/internal/platform/logging"
	"github.com/choppedhq/chopped-league/internal/usecase"
)

// Adapter turns raw Sleeper payloads into the common model. Matchups are
// paired by matchup id; a roster with no counterpart is a bye.
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

func (a *Adapter) Source() usecase.SourceType { return usecase.SourceSleeper }

func (a *Adapter) FetchWeek(ctx context.Context, providerLeagueID string, week, season int) (usecase.AdaptResult, error) {
	bundle, err := a.client.FetchWeekBundle(ctx, providerLeagueID, week, season)
	if err != nil {
		return usecase.AdaptResult{}, err
	}
	directory, err := a.client.PlayerDirectory(ctx)
	if err != nil {
		return usecase.AdaptResult{}, err
	}
	return a.adapt(bundle, directory, week, season), nil
}

func (a *Adapter) adapt(bundle weekBundle, directory map[string]playerInfo, week, season int) usecase.AdaptResult {
	var snap nfl.Snapshot
	if a.snapshot != nil {
		snap = a.snapshot.Current()
	}

	rules := scoringRules(bundle.league.ScoringSettings)
	usersByID := make(map[string]leagueUser, len(bundle.users))
	for _, u := range bundle.users {
		usersByID[u.UserID] = u
	}
	rostersByID := make(map[int]rosterInfo, len(bundle.rosters))
	for _, r := range bundle.rosters {
		rostersByID[r.RosterID] = r
	}

	var result usecase.AdaptResult
	result.Records = make(map[string]*league.Record, len(bundle.rosters))

	// Group matchup entries by matchup id; nil ids are unpaired byes.
	groups := make(map[int][]matchup)
	groupOrder := make([]int, 0, len(bundle.matchups))
	var byes []matchup
	for _, m := range bundle.matchups {
		if m.MatchupID == nil {
			byes = append(byes, m)
			continue
		}
		id := *m.MatchupID
		if _, seen := groups[id]; !seen {
			groupOrder = append(groupOrder, id)
		}
		groups[id] = append(groups[id], m)
	}
	sort.Ints(groupOrder)

	for _, id := range groupOrder {
		entries := groups[id]
		switch len(entries) {
		case 2:
			home := a.buildTeam(entries[0], rostersByID, usersByID, directory, rules, bundle.stats, snap, &result)
			away := a.buildTeam(entries[1], rostersByID, usersByID, directory, rules, bundle.stats, snap, &result)
			result.Matchups = append(result.Matchups, league.Matchup{
				Week:   week,
				Season: season,
				Home:   home,
				Away:   away,
			})
		case 1:
			result.ByeTeams = append(result.ByeTeams,
				a.buildTeam(entries[0], rostersByID, usersByID, directory, rules, bundle.stats, snap, &result))
		default:
			result.Problems = append(result.Problems,
				fmt.Sprintf("matchup %d has %d rosters, expected 1 or 2", id, len(entries)))
		}
	}
	for _, m := range byes {
		result.ByeTeams = append(result.ByeTeams,
			a.buildTeam(m, rostersByID, usersByID, directory, rules, bundle.stats, snap, &result))
	}

	return result
}

func (a *Adapter) buildTeam(
	m matchup,
	rostersByID map[int]rosterInfo,
	usersByID map[string]leagueUser,
	directory map[string]playerInfo,
	rules scoring.RuleSet,
	stats map[string]map[string]float64,
	snap nfl.Snapshot,
	result *usecase.AdaptResult,
) league.Team {
	teamID := strconv.Itoa(m.RosterID)

	roster, hasRoster := rostersByID[m.RosterID]
	var user leagueUser
	if hasRoster {
		user = usersByID[roster.OwnerID]
		result.Records[teamID] = &league.Record{
			Wins:   roster.Settings.Wins,
			Losses: roster.Settings.Losses,
			Ties:   roster.Settings.Ties,
		}
	}

	starters := make(map[string]struct{}, len(m.Starters))
	for _, id := range m.Starters {
		starters[id] = struct{}{}
	}

	players := make([]league.Player, 0, len(m.Players))
	for _, playerID := range m.Players {
		info, known := directory[playerID]
		if !known {
			// Unresolvable ids (dropped players, inactive slots) are
			// tolerated and skipped, not an error.
			result.Problems = append(result.Problems,
				fmt.Sprintf("roster %d references unknown player %s", m.RosterID, playerID))
			continue
		}

		code := nfl.Canonicalize(info.Team)
		points, scored := m.PlayersPoints[playerID]
		if !scored {
			// No applied total from the provider: rescore from raw stat
			// counts with the league's own rule set.
			points = scoring.Score(stats[playerID], rules)
		}

		_, isStarter := starters[playerID]
		players = append(players, league.Player{
			ID:           playerID,
			CrossID:      strings.TrimSpace(info.FirstName + " " + info.LastName),
			FirstName:    info.FirstName,
			LastName:     info.LastName,
			Position:     mapPosition(info.Position),
			TeamCode:     code,
			Points:       points,
			IsStarter:    isStarter,
			InjuryStatus: info.InjuryStatus,
			GameStatus:   nfl.StatusOf(code, snap),
		})
	}

	score := m.Points
	if score == 0 {
		for _, p := range players {
			if p.IsStarter {
				score += p.Points
			}
		}
	}

	return league.Team{
		ID:        teamID,
		Name:      teamDisplayName(user, m.RosterID),
		OwnerName: strings.TrimSpace(user.DisplayName),
		Score:     score,
		Players:   players,
	}
}

// scoringRules converts the league's scoring settings into a rule set. A
// league without settings falls back to the default NFL rules.
func scoringRules(settings map[string]float64) scoring.RuleSet {
	if len(settings) == 0 {
		return scoring.DefaultNFLRules()
	}
	return scoring.RuleSet(settings)
}

var positionByName = map[string]league.Position{
	"QB":  league.PositionQuarterback,
	"RB":  league.PositionRunningBack,
	"WR":  league.PositionWideReceiver,
	"TE":  league.PositionTightEnd,
	"K":   league.PositionKicker,
	"DEF": league.PositionDefense,
}

func mapPosition(raw string) league.Position {
	if pos, ok := positionByName[strings.ToUpper(strings.TrimSpace(raw))]; ok {
		return pos
	}
	return league.Position(strings.ToUpper(strings.TrimSpace(raw)))
}

// teamDisplayName resolves the first non-empty candidate: custom team name,
// owner display name, then a synthetic fallback.
func teamDisplayName(user leagueUser, rosterID int) string {
	if name := strings.TrimSpace(user.Metadata.TeamName); name != "" {
		return name
	}
	if name := strings.TrimSpace(user.DisplayName); name != "" {
		return name
	}
	return fmt.Sprintf("Team %d", rosterID)
}
