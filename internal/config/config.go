package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/choppedhq/chopped-league/internal/platform/logging"
	"github.com/choppedhq/chopped-league/internal/platform/resilience"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

// LeagueEntry is one registered league parsed from the LEAGUES env var.
type LeagueEntry struct {
	ID               string
	Name             string
	Source           string
	ProviderLeagueID string
	ScoringFormat    string
}

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv         string
	ServiceName    string
	ServiceVersion string
	HTTPAddr       string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	LogLevel       logging.Level

	CORSAllowedOrigins []string
	InternalJobToken   string

	DBEnabled               bool
	DBURL                   string
	DBDisablePreparedBinary bool

	ProjectionCacheTTL time.Duration
	FetchCacheTTL      time.Duration

	Leagues           []LeagueEntry
	CurrentSeason     int
	RefreshMaxWorkers int

	ESPNBaseURL    string
	ESPNS2         string
	ESPNSWID       string
	ESPNTimeout    time.Duration
	ESPNMaxRetries int
	ESPNCircuit    resilience.CircuitBreakerConfig

	SleeperBaseURL    string
	SleeperTimeout    time.Duration
	SleeperMaxRetries int
	SleeperCircuit    resilience.CircuitBreakerConfig

	ProjectionsEnabled    bool
	ProjectionsBaseURL    string
	ProjectionsAPIKey     string
	ProjectionsTimeout    time.Duration
	ProjectionsMaxRetries int
	ProjectionsCircuit    resilience.CircuitBreakerConfig

	ScoreboardBaseURL    string
	ScoreboardRefreshTTL time.Duration

	PprofEnabled bool
	PprofAddr    string

	UptraceEnabled bool
	UptraceDSN     string

	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	dbEnabled, err := strconv.ParseBool(getEnv("DB_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse DB_ENABLED: %w", err)
	}
	dbURL := strings.TrimSpace(getEnv("DB_URL", ""))
	if dbEnabled && dbURL == "" {
		return Config{}, fmt.Errorf("DB_URL is required when DB_ENABLED=true")
	}
	dbDisablePreparedBinary, err := strconv.ParseBool(getEnv("DB_DISABLE_PREPARED_BINARY_RESULT", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse DB_DISABLE_PREPARED_BINARY_RESULT: %w", err)
	}

	projectionCacheTTL, err := time.ParseDuration(getEnv("PROJECTION_CACHE_TTL", "1h"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PROJECTION_CACHE_TTL: %w", err)
	}
	if projectionCacheTTL <= 0 {
		return Config{}, fmt.Errorf("PROJECTION_CACHE_TTL must be > 0")
	}
	fetchCacheTTL, err := time.ParseDuration(getEnv("FETCH_CACHE_TTL", "60s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse FETCH_CACHE_TTL: %w", err)
	}
	if fetchCacheTTL <= 0 {
		return Config{}, fmt.Errorf("FETCH_CACHE_TTL must be > 0")
	}

	leagues, err := parseLeagues(getEnv("LEAGUES", ""))
	if err != nil {
		return Config{}, fmt.Errorf("parse LEAGUES: %w", err)
	}

	currentSeason, err := getEnvAsInt("CURRENT_SEASON", time.Now().Year())
	if err != nil {
		return Config{}, fmt.Errorf("parse CURRENT_SEASON: %w", err)
	}
	if currentSeason < 2000 {
		return Config{}, fmt.Errorf("CURRENT_SEASON must be a four digit year")
	}
	refreshMaxWorkers, err := getEnvAsInt("REFRESH_MAX_WORKERS", 4)
	if err != nil {
		return Config{}, fmt.Errorf("parse REFRESH_MAX_WORKERS: %w", err)
	}
	if refreshMaxWorkers < 1 {
		return Config{}, fmt.Errorf("REFRESH_MAX_WORKERS must be >= 1")
	}

	espnTimeout, err := time.ParseDuration(getEnv("ESPN_TIMEOUT", "20s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse ESPN_TIMEOUT: %w", err)
	}
	espnMaxRetries, err := getEnvAsInt("ESPN_MAX_RETRIES", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse ESPN_MAX_RETRIES: %w", err)
	}
	espnCircuit, err := parseCircuit("ESPN")
	if err != nil {
		return Config{}, err
	}

	sleeperTimeout, err := time.ParseDuration(getEnv("SLEEPER_TIMEOUT", "30s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SLEEPER_TIMEOUT: %w", err)
	}
	sleeperMaxRetries, err := getEnvAsInt("SLEEPER_MAX_RETRIES", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse SLEEPER_MAX_RETRIES: %w", err)
	}
	sleeperCircuit, err := parseCircuit("SLEEPER")
	if err != nil {
		return Config{}, err
	}

	projectionsEnabled, err := strconv.ParseBool(getEnv("PROJECTIONS_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PROJECTIONS_ENABLED: %w", err)
	}
	projectionsBaseURL := strings.TrimSpace(getEnv("PROJECTIONS_BASE_URL", ""))
	if projectionsEnabled && projectionsBaseURL == "" {
		return Config{}, fmt.Errorf("PROJECTIONS_BASE_URL is required when PROJECTIONS_ENABLED=true")
	}
	projectionsTimeout, err := time.ParseDuration(getEnv("PROJECTIONS_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PROJECTIONS_TIMEOUT: %w", err)
	}
	projectionsMaxRetries, err := getEnvAsInt("PROJECTIONS_MAX_RETRIES", 1)
	if err != nil {
		return Config{}, fmt.Errorf("parse PROJECTIONS_MAX_RETRIES: %w", err)
	}
	projectionsCircuit, err := parseCircuit("PROJECTIONS")
	if err != nil {
		return Config{}, err
	}

	scoreboardRefreshTTL, err := time.ParseDuration(getEnv("SCOREBOARD_REFRESH_TTL", "45s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SCOREBOARD_REFRESH_TTL: %w", err)
	}
	if scoreboardRefreshTTL <= 0 {
		return Config{}, fmt.Errorf("SCOREBOARD_REFRESH_TTL must be > 0")
	}

	pprofEnabled, err := strconv.ParseBool(getEnv("PPROF_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}
	pprofAddr := strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))
	if pprofEnabled && pprofAddr == "" {
		return Config{}, fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceDSN == "" {
		uptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}
	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := time.ParseDuration(getEnv("PYROSCOPE_UPLOAD_RATE", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_UPLOAD_RATE: %w", err)
	}
	if pyroscopeUploadRate <= 0 {
		return Config{}, fmt.Errorf("PYROSCOPE_UPLOAD_RATE must be > 0")
	}

	readTimeout, err := time.ParseDuration(getEnv("APP_READ_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_READ_TIMEOUT: %w", err)
	}
	writeTimeout, err := time.ParseDuration(getEnv("APP_WRITE_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_WRITE_TIMEOUT: %w", err)
	}

	cfg := Config{
		AppEnv:         appEnv,
		ServiceName:    getEnv("APP_SERVICE_NAME", "chopped-league-api"),
		ServiceVersion: getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:       getEnv("APP_HTTP_ADDR", ":8080"),
		ReadTimeout:    readTimeout,
		WriteTimeout:   writeTimeout,
		LogLevel:       parseLogLevel(getEnv("APP_LOG_LEVEL", "info")),

		CORSAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		InternalJobToken:   strings.TrimSpace(getEnv("INTERNAL_JOB_TOKEN", "")),

		DBEnabled:               dbEnabled,
		DBURL:                   dbURL,
		DBDisablePreparedBinary: dbDisablePreparedBinary,

		ProjectionCacheTTL: projectionCacheTTL,
		FetchCacheTTL:      fetchCacheTTL,

		Leagues:           leagues,
		CurrentSeason:     currentSeason,
		RefreshMaxWorkers: refreshMaxWorkers,

		ESPNBaseURL:    strings.TrimSpace(getEnv("ESPN_BASE_URL", "")),
		ESPNS2:         strings.TrimSpace(getEnv("ESPN_S2", "")),
		ESPNSWID:       strings.TrimSpace(getEnv("ESPN_SWID", "")),
		ESPNTimeout:    espnTimeout,
		ESPNMaxRetries: espnMaxRetries,
		ESPNCircuit:    espnCircuit,

		SleeperBaseURL:    strings.TrimSpace(getEnv("SLEEPER_BASE_URL", "")),
		SleeperTimeout:    sleeperTimeout,
		SleeperMaxRetries: sleeperMaxRetries,
		SleeperCircuit:    sleeperCircuit,

		ProjectionsEnabled:    projectionsEnabled,
		ProjectionsBaseURL:    projectionsBaseURL,
		ProjectionsAPIKey:     strings.TrimSpace(getEnv("PROJECTIONS_API_KEY", "")),
		ProjectionsTimeout:    projectionsTimeout,
		ProjectionsMaxRetries: projectionsMaxRetries,
		ProjectionsCircuit:    projectionsCircuit,

		ScoreboardBaseURL:    strings.TrimSpace(getEnv("SCOREBOARD_BASE_URL", "")),
		ScoreboardRefreshTTL: scoreboardRefreshTTL,

		PprofEnabled: pprofEnabled,
		PprofAddr:    pprofAddr,

		UptraceEnabled: uptraceEnabled,
		UptraceDSN:     uptraceDSN,

		PyroscopeEnabled:           pyroscopeEnabled,
		PyroscopeServerAddress:     pyroscopeServerAddress,
		PyroscopeAuthToken:         strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser:     strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		PyroscopeBasicAuthPassword: strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")),
		PyroscopeUploadRate:        pyroscopeUploadRate,
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	if cfg.PyroscopeEnabled && cfg.PyroscopeAppName == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_APP_NAME cannot be empty when PYROSCOPE_ENABLED=true")
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}

	return cfg, nil
}

// parseCircuit reads <PREFIX>_CIRCUIT_* env vars into a breaker config.
func parseCircuit(prefix string) (resilience.CircuitBreakerConfig, error) {
	enabled, err := strconv.ParseBool(getEnv(prefix+"_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("parse %s_CIRCUIT_ENABLED: %w", prefix, err)
	}
	failureCount, err := getEnvAsInt(prefix+"_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("parse %s_CIRCUIT_FAILURE_COUNT: %w", prefix, err)
	}
	if failureCount < 1 {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("%s_CIRCUIT_FAILURE_COUNT must be >= 1", prefix)
	}
	openTimeout, err := time.ParseDuration(getEnv(prefix+"_CIRCUIT_OPEN_TIMEOUT", "15s"))
	if err != nil {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("parse %s_CIRCUIT_OPEN_TIMEOUT: %w", prefix, err)
	}
	if openTimeout <= 0 {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("%s_CIRCUIT_OPEN_TIMEOUT must be > 0", prefix)
	}
	halfOpenMaxReq, err := getEnvAsInt(prefix+"_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("parse %s_CIRCUIT_HALF_OPEN_MAX_REQ: %w", prefix, err)
	}
	if halfOpenMaxReq < 1 {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("%s_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1", prefix)
	}

	return resilience.CircuitBreakerConfig{
		Enabled:          enabled,
		FailureThreshold: failureCount,
		OpenTimeout:      openTimeout,
		HalfOpenMaxReq:   halfOpenMaxReq,
	}, nil
}

// parseLeagues reads the league registry. Each item is
// league_id:source:provider_league_id[:scoring_format], items separated by
// commas. A display name can be set per league via LEAGUE_NAME_<id>.
func parseLeagues(raw string) ([]LeagueEntry, error) {
	items := splitCSV(raw)
	out := make([]LeagueEntry, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		segments := strings.Split(item, ":")
		if len(segments) < 3 || len(segments) > 4 {
			return nil, fmt.Errorf("invalid league item %q, expected league_id:source:provider_league_id[:scoring_format]", item)
		}

		entry := LeagueEntry{
			ID:               strings.TrimSpace(segments[0]),
			Source:           strings.ToLower(strings.TrimSpace(segments[1])),
			ProviderLeagueID: strings.TrimSpace(segments[2]),
		}
		if len(segments) == 4 {
			entry.ScoringFormat = strings.ToLower(strings.TrimSpace(segments[3]))
		}

		if entry.ID == "" {
			return nil, fmt.Errorf("empty league id in item %q", item)
		}
		if entry.Source != "espn" && entry.Source != "sleeper" {
			return nil, fmt.Errorf("invalid source %q in item %q: valid values are espn, sleeper", entry.Source, item)
		}
		if entry.ProviderLeagueID == "" {
			return nil, fmt.Errorf("empty provider league id in item %q", item)
		}
		if _, dup := seen[entry.ID]; dup {
			return nil, fmt.Errorf("duplicate league id %q", entry.ID)
		}
		seen[entry.ID] = struct{}{}

		entry.Name = strings.TrimSpace(getEnv("LEAGUE_NAME_"+entry.ID, entry.ID))
		out = append(out, entry)
	}
	return out, nil
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	items := strings.Split(raw, ",")
	for _, item := range items {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			value := strings.TrimSpace(parts[1])
			return strings.Trim(value, "\"'")
		}
	}

	return ""
}

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
