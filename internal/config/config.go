package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/algoclub/arena/internal/platform/logging"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv                  string
	ServiceName             string
	ServiceVersion          string
	HTTPAddr                string
	DBURL                   string
	DBDisablePreparedBinary bool
	CORSAllowedOrigins      []string
	ReadTimeout             time.Duration
	WriteTimeout            time.Duration
	ShutdownTimeout         time.Duration
	LogLevel                logging.Level

	SnapshotCacheTTL time.Duration
	FetchConcurrency int

	TeamSize        int
	MinChoices      int
	MaxChoices      int
	WindowScoreSpan float64
	WindowMinSize   int

	JudgeBaseURL               string
	JudgeSessionToken          string
	JudgeTimeout               time.Duration
	JudgeMaxRetries            int
	JudgeCircuitEnabled        bool
	JudgeCircuitFailureCount   int
	JudgeCircuitOpenTimeout    time.Duration
	JudgeCircuitHalfOpenMaxReq int

	PassportBaseURL        string
	PassportIntrospectPath string
	PassportServiceKey     string
	PassportTimeout        time.Duration

	PprofEnabled bool
	PprofAddr    string

	UptraceEnabled     bool
	UptraceDSN         string
	UptraceLogsEnabled bool

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

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}

	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}
	uptraceLogsEnabled, err := strconv.ParseBool(getEnv("UPTRACE_LOGS_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_LOGS_ENABLED: %w", err)
	}

	pprofEnabled, err := strconv.ParseBool(getEnv("PPROF_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}
	pprofAddr := strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))
	if pprofEnabled && pprofAddr == "" {
		return Config{}, fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
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

	snapshotCacheTTL, err := time.ParseDuration(getEnv("SNAPSHOT_CACHE_TTL", "60s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SNAPSHOT_CACHE_TTL: %w", err)
	}
	if snapshotCacheTTL <= 0 {
		return Config{}, fmt.Errorf("SNAPSHOT_CACHE_TTL must be > 0")
	}

	fetchConcurrency, err := getEnvAsInt("FETCH_CONCURRENCY", 4)
	if err != nil {
		return Config{}, fmt.Errorf("parse FETCH_CONCURRENCY: %w", err)
	}
	if fetchConcurrency < 1 {
		return Config{}, fmt.Errorf("FETCH_CONCURRENCY must be >= 1")
	}

	teamSize, err := getEnvAsInt("FORMATION_TEAM_SIZE", 3)
	if err != nil {
		return Config{}, fmt.Errorf("parse FORMATION_TEAM_SIZE: %w", err)
	}
	if teamSize < 2 {
		return Config{}, fmt.Errorf("FORMATION_TEAM_SIZE must be >= 2")
	}
	minChoices, err := getEnvAsInt("FORMATION_MIN_CHOICES", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse FORMATION_MIN_CHOICES: %w", err)
	}
	if minChoices < 1 {
		return Config{}, fmt.Errorf("FORMATION_MIN_CHOICES must be >= 1")
	}
	maxChoices, err := getEnvAsInt("FORMATION_MAX_CHOICES", 8)
	if err != nil {
		return Config{}, fmt.Errorf("parse FORMATION_MAX_CHOICES: %w", err)
	}
	if maxChoices < minChoices {
		return Config{}, fmt.Errorf("FORMATION_MAX_CHOICES must be >= FORMATION_MIN_CHOICES")
	}
	windowScoreSpan, err := getEnvAsFloat("FORMATION_WINDOW_SCORE_SPAN", 5.0)
	if err != nil {
		return Config{}, fmt.Errorf("parse FORMATION_WINDOW_SCORE_SPAN: %w", err)
	}
	if windowScoreSpan <= 0 {
		return Config{}, fmt.Errorf("FORMATION_WINDOW_SCORE_SPAN must be > 0")
	}
	windowMinSize, err := getEnvAsInt("FORMATION_WINDOW_MIN_SIZE", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse FORMATION_WINDOW_MIN_SIZE: %w", err)
	}
	if windowMinSize < 1 {
		return Config{}, fmt.Errorf("FORMATION_WINDOW_MIN_SIZE must be >= 1")
	}

	judgeTimeout, err := time.ParseDuration(getEnv("JUDGE_TIMEOUT", "20s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse JUDGE_TIMEOUT: %w", err)
	}
	if judgeTimeout <= 0 {
		return Config{}, fmt.Errorf("JUDGE_TIMEOUT must be > 0")
	}
	judgeMaxRetries, err := getEnvAsInt("JUDGE_MAX_RETRIES", 1)
	if err != nil {
		return Config{}, fmt.Errorf("parse JUDGE_MAX_RETRIES: %w", err)
	}
	if judgeMaxRetries < 0 {
		return Config{}, fmt.Errorf("JUDGE_MAX_RETRIES must be >= 0")
	}
	judgeCircuitEnabled, err := strconv.ParseBool(getEnv("JUDGE_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse JUDGE_CIRCUIT_ENABLED: %w", err)
	}
	judgeCircuitFailureCount, err := getEnvAsInt("JUDGE_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse JUDGE_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if judgeCircuitFailureCount < 1 {
		return Config{}, fmt.Errorf("JUDGE_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	judgeCircuitOpenTimeout, err := time.ParseDuration(getEnv("JUDGE_CIRCUIT_OPEN_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse JUDGE_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if judgeCircuitOpenTimeout <= 0 {
		return Config{}, fmt.Errorf("JUDGE_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}
	judgeCircuitHalfOpenMaxReq, err := getEnvAsInt("JUDGE_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse JUDGE_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if judgeCircuitHalfOpenMaxReq < 1 {
		return Config{}, fmt.Errorf("JUDGE_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}

	passportTimeout, err := time.ParseDuration(getEnv("PASSPORT_TIMEOUT", "3s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PASSPORT_TIMEOUT: %w", err)
	}
	if passportTimeout <= 0 {
		return Config{}, fmt.Errorf("PASSPORT_TIMEOUT must be > 0")
	}

	readTimeout, err := time.ParseDuration(getEnv("APP_READ_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_READ_TIMEOUT: %w", err)
	}
	writeTimeout, err := time.ParseDuration(getEnv("APP_WRITE_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_WRITE_TIMEOUT: %w", err)
	}
	shutdownTimeout, err := time.ParseDuration(getEnv("APP_SHUTDOWN_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_SHUTDOWN_TIMEOUT: %w", err)
	}
	if shutdownTimeout <= 0 {
		return Config{}, fmt.Errorf("APP_SHUTDOWN_TIMEOUT must be > 0")
	}

	dbDisablePreparedBinary, err := strconv.ParseBool(getEnv("DB_DISABLE_PREPARED_BINARY_RESULT", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse DB_DISABLE_PREPARED_BINARY_RESULT: %w", err)
	}

	cfg := Config{
		AppEnv:                  appEnv,
		ServiceName:             getEnv("APP_SERVICE_NAME", "arena-api"),
		ServiceVersion:          getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:                getEnv("APP_HTTP_ADDR", ":8080"),
		DBURL:                   strings.TrimSpace(getEnv("DB_URL", "")),
		DBDisablePreparedBinary: dbDisablePreparedBinary,
		CORSAllowedOrigins:      splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		ReadTimeout:             readTimeout,
		WriteTimeout:            writeTimeout,
		ShutdownTimeout:         shutdownTimeout,
		LogLevel:                parseLogLevel(getEnv("APP_LOG_LEVEL", "info")),

		SnapshotCacheTTL: snapshotCacheTTL,
		FetchConcurrency: fetchConcurrency,

		TeamSize:        teamSize,
		MinChoices:      minChoices,
		MaxChoices:      maxChoices,
		WindowScoreSpan: windowScoreSpan,
		WindowMinSize:   windowMinSize,

		JudgeBaseURL:               strings.TrimSpace(getEnv("JUDGE_BASE_URL", "http://localhost:8082")),
		JudgeSessionToken:          strings.TrimSpace(getEnv("JUDGE_SESSION_TOKEN", "")),
		JudgeTimeout:               judgeTimeout,
		JudgeMaxRetries:            judgeMaxRetries,
		JudgeCircuitEnabled:        judgeCircuitEnabled,
		JudgeCircuitFailureCount:   judgeCircuitFailureCount,
		JudgeCircuitOpenTimeout:    judgeCircuitOpenTimeout,
		JudgeCircuitHalfOpenMaxReq: judgeCircuitHalfOpenMaxReq,

		PassportBaseURL:        strings.TrimSpace(getEnv("PASSPORT_BASE_URL", "http://localhost:8081")),
		PassportIntrospectPath: strings.TrimSpace(getEnv("PASSPORT_INTROSPECT_PATH", "/v1/sessions/introspect")),
		PassportServiceKey:     strings.TrimSpace(getEnv("PASSPORT_SERVICE_KEY", "")),
		PassportTimeout:        passportTimeout,

		PprofEnabled: pprofEnabled,
		PprofAddr:    pprofAddr,

		UptraceEnabled:     uptraceEnabled,
		UptraceDSN:         uptraceDSN,
		UptraceLogsEnabled: uptraceLogsEnabled,

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

func getEnvAsFloat(key string, fallback float64) (float64, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.ParseFloat(value, 64)
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

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
