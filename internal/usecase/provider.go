package usecase

import (
	"context"

	"github.com/choppedhq/chopped-league/internal/domain/league"
)

// SourceType tags which provider backs a league. Adapter selection is by
// tag only, never by structural inspection of a payload.
type SourceType string

const (
	SourceESPN    SourceType = "espn"
	SourceSleeper SourceType = "sleeper"
)

// LeagueRef is one registered league: the internal id plus everything a
// provider adapter needs to fetch it.
type LeagueRef struct {
	ID               string
	Name             string
	Source           SourceType
	ProviderLeagueID string
	ScoringFormat    string
}

// AdaptResult is the normalized output of one provider fetch for one week.
// Records may be nil per team when the provider exposes no standings; that
// absence is permanent and expected, not a retryable failure.
type AdaptResult struct {
	Matchups []league.Matchup
	ByeTeams []league.Team
	Records  map[string]*league.Record
	// Problems lists entities that were tolerated-and-dropped during
	// adaptation (e.g. unresolvable player ids). Informational only.
	Problems []string
}

// Teams flattens the result into the ranking pool: both sides of every
// matchup plus the bye teams, in provider order, with resolved records
// attached.
func (r AdaptResult) Teams() []league.Team {
	out := make([]league.Team, 0, len(r.Matchups)*2+len(r.ByeTeams))
	for _, m := range r.Matchups {
		out = append(out, m.Home, m.Away)
	}
	out = append(out, r.ByeTeams...)
	for i := range out {
		if rec, ok := r.Records[out[i].ID]; ok {
			out[i].Record = rec
		}
	}
	return out
}

// ProviderAdapter fetches and normalizes one provider's league data. The
// HTTP transport behind FetchWeek is the adapter's concern; everything
// downstream of AdaptResult is provider-agnostic.
type ProviderAdapter interface {
	Source() SourceType
	FetchWeek(ctx context.Context, providerLeagueID string, week, season int) (AdaptResult, error)
}

// ProjectionSource is the remote projection lookup behind the projection
// fallback chain. Implementations return ErrNotFound when the provider has
// no projection for the player.
type ProjectionSource interface {
	PlayerProjection(ctx context.Context, playerID string, week, season int, scoringFormat string) (float64, error)
}
