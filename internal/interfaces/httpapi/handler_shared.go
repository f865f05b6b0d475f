package httpapi

import (
	"context"
	"time"

	"github.com/choppedhq/chopped-league/internal/domain/elimination"
	"github.com/choppedhq/chopped-league/internal/domain/league"
	"github.com/choppedhq/chopped-league/internal/usecase"
)

type weekQuery struct {
	Week   int `validate:"required,gte=1,lte=23"`
	Season int `validate:"required,gte=2000"`
}

type refreshJobRequest struct {
	Week       int  `json:"week" validate:"required,gte=1,lte=23"`
	Season     int  `json:"season" validate:"required,gte=2000"`
	MaxWorkers int  `json:"max_workers" validate:"omitempty,gte=1,lte=16"`
	Finalize   bool `json:"finalize"`
}

type leagueDTO struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Source        string `json:"source"`
	ScoringFormat string `json:"scoringFormat,omitempty"`
}

type teamRankingDTO struct {
	TeamID              string  `json:"teamId"`
	TeamName            string  `json:"teamName"`
	OwnerName           string  `json:"ownerName,omitempty"`
	Rank                int     `json:"rank"`
	WeekScore           float64 `json:"weekScore"`
	Status              string  `json:"status"`
	SurvivalProbability float64 `json:"survivalProbability"`
	SafetyMargin        float64 `json:"safetyMargin"`
	WeeksAlive          int     `json:"weeksAlive"`
}

type eliminationEventDTO struct {
	LeagueID     string    `json:"leagueId"`
	TeamID       string    `json:"teamId"`
	TeamName     string    `json:"teamName"`
	Week         int       `json:"week"`
	FinalRank    int       `json:"finalRank"`
	FinalScore   float64   `json:"finalScore"`
	Margin       float64   `json:"margin"`
	PoolScores   []float64 `json:"poolScores,omitempty"`
	Narrative    string    `json:"narrative,omitempty"`
	CreatedAtUTC string    `json:"createdAtUtc,omitempty"`
}

type weekSummaryDTO struct {
	LeagueID           string                `json:"leagueId"`
	Week               int                   `json:"week"`
	Season             int                   `json:"season"`
	EliminationCount   int                   `json:"eliminationCount"`
	CutoffScore        float64               `json:"cutoffScore"`
	AverageScore       float64               `json:"averageScore"`
	HighScore          float64               `json:"highScore"`
	LowScore           float64               `json:"lowScore"`
	GeneratedAtUTC     string                `json:"generatedAtUtc"`
	Rankings           []teamRankingDTO      `json:"rankings"`
	EliminatedThisWeek []teamRankingDTO      `json:"eliminatedThisWeek"`
	Graveyard          []eliminationEventDTO `json:"graveyard,omitempty"`
}

type rosterPlayerDTO struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Position        string  `json:"position"`
	TeamCode        string  `json:"teamCode,omitempty"`
	Points          float64 `json:"points"`
	ProjectedPoints float64 `json:"projectedPoints"`
	IsStarter       bool    `json:"isStarter"`
	InjuryStatus    string  `json:"injuryStatus,omitempty"`
	GameStatus      string  `json:"gameStatus"`
}

type rosterTeamDTO struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	OwnerName      string            `json:"ownerName,omitempty"`
	Score          float64           `json:"score"`
	ProjectedScore float64           `json:"projectedScore"`
	Record         string            `json:"record,omitempty"`
	Players        []rosterPlayerDTO `json:"players"`
}

type matchupDTO struct {
	Week   int           `json:"week"`
	Season int           `json:"season"`
	Status string        `json:"status"`
	Home   rosterTeamDTO `json:"home"`
	Away   rosterTeamDTO `json:"away"`
}

func leagueRefToDTO(ref usecase.LeagueRef) leagueDTO {
	return leagueDTO{
		ID:            ref.ID,
		Name:          ref.Name,
		Source:        string(ref.Source),
		ScoringFormat: ref.ScoringFormat,
	}
}

func weekSummaryToDTO(ctx context.Context, summary elimination.WeekSummary) weekSummaryDTO {
	ctx, span := startSpan(ctx, "httpapi.weekSummaryToDTO")
	defer span.End()

	rankings := make([]teamRankingDTO, 0, len(summary.Rankings))
	for _, row := range summary.Rankings {
		rankings = append(rankings, teamRankingToDTO(row))
	}
	eliminated := make([]teamRankingDTO, 0, len(summary.EliminatedThisWeek))
	for _, row := range summary.EliminatedThisWeek {
		eliminated = append(eliminated, teamRankingToDTO(row))
	}
	graveyard := make([]eliminationEventDTO, 0, len(summary.Graveyard))
	for _, ev := range summary.Graveyard {
		graveyard = append(graveyard, eliminationEventToDTO(ev))
	}

	return weekSummaryDTO{
		LeagueID:           summary.LeagueID,
		Week:               summary.Week,
		Season:             summary.Season,
		EliminationCount:   summary.EliminationCount,
		CutoffScore:        summary.CutoffScore,
		AverageScore:       summary.AverageScore,
		HighScore:          summary.HighScore,
		LowScore:           summary.LowScore,
		GeneratedAtUTC:     summary.GeneratedAt.UTC().Format(time.RFC3339),
		Rankings:           rankings,
		EliminatedThisWeek: eliminated,
		Graveyard:          graveyard,
	}
}

func teamRankingToDTO(row elimination.TeamRanking) teamRankingDTO {
	return teamRankingDTO{
		TeamID:              row.TeamID,
		TeamName:            row.TeamName,
		OwnerName:           row.OwnerName,
		Rank:                row.Rank,
		WeekScore:           row.WeekScore,
		Status:              string(row.Status),
		SurvivalProbability: row.SurvivalProbability,
		SafetyMargin:        row.SafetyMargin,
		WeeksAlive:          row.WeeksAlive,
	}
}

func eliminationEventToDTO(ev elimination.Event) eliminationEventDTO {
	createdAt := ""
	if !ev.CreatedAt.IsZero() {
		createdAt = ev.CreatedAt.UTC().Format(time.RFC3339)
	}

	return eliminationEventDTO{
		LeagueID:     ev.LeagueID,
		TeamID:       ev.TeamID,
		TeamName:     ev.TeamName,
		Week:         ev.Week,
		FinalRank:    ev.FinalRank,
		FinalScore:   ev.FinalScore,
		Margin:       ev.Margin,
		PoolScores:   append([]float64(nil), ev.PoolScores...),
		Narrative:    ev.Narrative,
		CreatedAtUTC: createdAt,
	}
}

func matchupToDTO(ctx context.Context, m league.Matchup) matchupDTO {
	ctx, span := startSpan(ctx, "httpapi.matchupToDTO")
	defer span.End()

	return matchupDTO{
		Week:   m.Week,
		Season: m.Season,
		Status: string(m.Status()),
		Home:   rosterTeamToDTO(m.Home),
		Away:   rosterTeamToDTO(m.Away),
	}
}

func rosterTeamToDTO(t league.Team) rosterTeamDTO {
	players := make([]rosterPlayerDTO, 0, len(t.Players))
	for _, p := range t.Players {
		players = append(players, rosterPlayerDTO{
			ID:              p.ID,
			Name:            p.Name(),
			Position:        string(p.Position),
			TeamCode:        p.TeamCode,
			Points:          p.Points,
			ProjectedPoints: p.ProjectedPoints,
			IsStarter:       p.IsStarter,
			InjuryStatus:    p.InjuryStatus,
			GameStatus:      string(p.GameStatus),
		})
	}

	record := ""
	if t.Record != nil {
		record = t.Record.String()
	}

	return rosterTeamDTO{
		ID:             t.ID,
		Name:           t.Name,
		OwnerName:      t.OwnerName,
		Score:          t.Score,
		ProjectedScore: t.ProjectedScore,
		Record:         record,
		Players:        players,
	}
}
