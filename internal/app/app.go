// Package app assembles the service: provider clients, projection and
// elimination services, storage, and the HTTP router.
package app

import (
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"

	"github.com/choppedhq/chopped-league/external/espn"
	"github.com/choppedhq/chopped-league/external/projections"
	"github.com/choppedhq/chopped-league/external/scoreboard"
	"github.com/choppedhq/chopped-league/external/sleeper"
	"github.com/choppedhq/chopped-league/internal/config"
	"github.com/choppedhq/chopped-league/internal/domain/elimination"
	"github.com/choppedhq/chopped-league/internal/infrastructure/repository/memory"
	"github.com/choppedhq/chopped-league/internal/infrastructure/repository/postgres"
	"github.com/choppedhq/chopped-league/internal/interfaces/httpapi"
	"github.com/choppedhq/chopped-league/internal/platform/cache"
	"github.com/choppedhq/chopped-league/internal/platform/logging"
	"github.com/choppedhq/chopped-league/internal/usecase"
)

func NewHTTPServer(cfg config.Config, logger *logging.Logger) (*http.Server, error) {
	if logger == nil {
		logger = logging.Default()
	}

	history, err := newHistoryRepository(cfg, logger)
	if err != nil {
		return nil, err
	}

	snapshot := scoreboard.NewClient(scoreboard.ClientConfig{
		BaseURL:    cfg.ScoreboardBaseURL,
		RefreshTTL: cfg.ScoreboardRefreshTTL,
		Logger:     logger,
	})

	espnAdapter := espn.NewAdapter(espn.NewClient(espn.ClientConfig{
		BaseURL:        cfg.ESPNBaseURL,
		ESPNS2:         cfg.ESPNS2,
		SWID:           cfg.ESPNSWID,
		Timeout:        cfg.ESPNTimeout,
		MaxRetries:     cfg.ESPNMaxRetries,
		Logger:         logger,
		CircuitBreaker: cfg.ESPNCircuit,
	}), snapshot, logger)

	sleeperAdapter := sleeper.NewAdapter(sleeper.NewClient(sleeper.ClientConfig{
		BaseURL:        cfg.SleeperBaseURL,
		Timeout:        cfg.SleeperTimeout,
		MaxRetries:     cfg.SleeperMaxRetries,
		Logger:         logger,
		CircuitBreaker: cfg.SleeperCircuit,
	}), snapshot, logger)

	adapters := map[usecase.SourceType]usecase.ProviderAdapter{
		espnAdapter.Source():    espnAdapter,
		sleeperAdapter.Source(): sleeperAdapter,
	}

	var projectionSource usecase.ProjectionSource
	if cfg.ProjectionsEnabled {
		projectionSource = projections.NewClient(projections.ClientConfig{
			BaseURL:        cfg.ProjectionsBaseURL,
			APIKey:         cfg.ProjectionsAPIKey,
			Timeout:        cfg.ProjectionsTimeout,
			MaxRetries:     cfg.ProjectionsMaxRetries,
			Logger:         logger,
			CircuitBreaker: cfg.ProjectionsCircuit,
		})
	}

	projectionSvc := usecase.NewProjectionService(cache.NewStore(cfg.ProjectionCacheTTL), projectionSource, logger)
	eliminationSvc := usecase.NewEliminationService(history, logger)

	refs := make([]usecase.LeagueRef, 0, len(cfg.Leagues))
	for _, entry := range cfg.Leagues {
		refs = append(refs, usecase.LeagueRef{
			ID:               entry.ID,
			Name:             entry.Name,
			Source:           usecase.SourceType(entry.Source),
			ProviderLeagueID: entry.ProviderLeagueID,
			ScoringFormat:    entry.ScoringFormat,
		})
	}

	summarySvc := usecase.NewSummaryService(
		refs,
		adapters,
		projectionSvc,
		eliminationSvc,
		cache.NewStore(cfg.FetchCacheTTL),
		logger,
	)

	handler := httpapi.NewHandler(summarySvc, cfg.CurrentSeason, logger)
	router := httpapi.NewRouter(handler, logger, cfg.CORSAllowedOrigins, cfg.InternalJobToken)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	if server.Addr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	return server, nil
}

func newHistoryRepository(cfg config.Config, logger *logging.Logger) (elimination.HistoryRepository, error) {
	if !cfg.DBEnabled {
		logger.Info("database disabled, elimination history is in-memory only")
		return memory.NewEliminationHistoryRepository(), nil
	}

	db, err := openDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return postgres.NewEliminationHistoryRepository(db), nil
}

func openDB(cfg config.Config) (*sqlx.DB, error) {
	dsn := normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary)

	db, err := otelsqlx.Connect("postgres", dsn,
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithDBName(dbNameFromURL(dsn)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	return db, nil
}
