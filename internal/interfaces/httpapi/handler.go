package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"

	"github.com/choppedhq/chopped-league/internal/platform/logging"
	"github.com/choppedhq/chopped-league/internal/usecase"
)

type Handler struct {
	summaries     *usecase.SummaryService
	defaultSeason int
	logger        *logging.Logger
	validator     *validator.Validate
}

func NewHandler(summaries *usecase.SummaryService, defaultSeason int, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		summaries:     summaries,
		defaultSeason: defaultSeason,
		logger:        logger,
		validator:     validator.New(),
	}
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) ListLeagues(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListLeagues")
	defer span.End()

	refs := h.summaries.Leagues()
	items := make([]leagueDTO, 0, len(refs))
	for _, ref := range refs {
		items = append(items, leagueRefToDTO(ref))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetWeekSummary(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetWeekSummary")
	defer span.End()

	leagueID := r.PathValue("leagueID")
	query, err := h.parseWeekQuery(ctx, r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	summary, err := h.summaries.WeekSummary(ctx, leagueID, query.Week, query.Season)
	if err != nil {
		h.logger.WarnContext(ctx, "week summary failed",
			"league_id", leagueID, "week", query.Week, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, weekSummaryToDTO(ctx, summary))
}

func (h *Handler) ListMatchups(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMatchups")
	defer span.End()

	leagueID := r.PathValue("leagueID")
	query, err := h.parseWeekQuery(ctx, r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	matchups, err := h.summaries.Matchups(ctx, leagueID, query.Week, query.Season)
	if err != nil {
		h.logger.WarnContext(ctx, "list matchups failed",
			"league_id", leagueID, "week", query.Week, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]matchupDTO, 0, len(matchups))
	for _, m := range matchups {
		items = append(items, matchupToDTO(ctx, m))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetHistory")
	defer span.End()

	leagueID := r.PathValue("leagueID")
	events, err := h.summaries.History(ctx, leagueID)
	if err != nil {
		h.logger.WarnContext(ctx, "get history failed", "league_id", leagueID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]eliminationEventDTO, 0, len(events))
	for _, ev := range events {
		items = append(items, eliminationEventToDTO(ev))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) RunRefreshJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunRefreshJob")
	defer span.End()

	var req refreshJobRequest
	if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: decode request body: %v", usecase.ErrInvalidInput, err))
		return
	}
	if req.Season == 0 {
		req.Season = h.defaultSeason
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.summaries.RefreshAll(ctx, usecase.RefreshInput{
		Week:       req.Week,
		Season:     req.Season,
		MaxWorkers: req.MaxWorkers,
		Finalize:   req.Finalize,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "refresh job failed", "week", req.Week, "error", err)
		writeError(ctx, w, err)
		return
	}

	h.logger.InfoContext(ctx, "refresh job finished",
		"week", req.Week,
		"season", req.Season,
		"success_count", result.SuccessCount,
		"failed_count", result.FailedCount,
	)
	writeSuccess(ctx, w, http.StatusOK, result)
}

func (h *Handler) parseWeekQuery(ctx context.Context, r *http.Request) (weekQuery, error) {
	ctx, span := startSpan(ctx, "httpapi.Handler.parseWeekQuery")
	defer span.End()

	query := weekQuery{Season: h.defaultSeason}

	rawWeek := strings.TrimSpace(r.URL.Query().Get("week"))
	if rawWeek == "" {
		return weekQuery{}, fmt.Errorf("%w: week query parameter is required", usecase.ErrInvalidInput)
	}
	week, err := strconv.Atoi(rawWeek)
	if err != nil {
		return weekQuery{}, fmt.Errorf("%w: week must be a number, got %q", usecase.ErrInvalidInput, rawWeek)
	}
	query.Week = week

	if rawSeason := strings.TrimSpace(r.URL.Query().Get("season")); rawSeason != "" {
		season, err := strconv.Atoi(rawSeason)
		if err != nil {
			return weekQuery{}, fmt.Errorf("%w: season must be a number, got %q", usecase.ErrInvalidInput, rawSeason)
		}
		query.Season = season
	}

	if err := h.validateRequest(ctx, query); err != nil {
		return weekQuery{}, err
	}
	return query, nil
}
