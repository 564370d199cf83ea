package app

import (
	"fmt"
	"net/http"

	"github.com/algoclub/arena/external/judge"
	"github.com/algoclub/arena/internal/config"
	"github.com/algoclub/arena/internal/domain/formation"
	"github.com/algoclub/arena/internal/domain/report"
	"github.com/algoclub/arena/internal/infrastructure/account/passport"
	"github.com/algoclub/arena/internal/infrastructure/repository/memory"
	"github.com/algoclub/arena/internal/infrastructure/repository/postgres"
	"github.com/algoclub/arena/internal/interfaces/httpapi"
	"github.com/algoclub/arena/internal/platform/cache"
	idgen "github.com/algoclub/arena/internal/platform/id"
	"github.com/algoclub/arena/internal/platform/logging"
	"github.com/algoclub/arena/internal/platform/resilience"
	"github.com/algoclub/arena/internal/usecase"
)

// NewHTTPServer assembles the full service. The returned cleanup
// releases infrastructure handles (currently the DB pool) and must be
// called after the server stops.
func NewHTTPServer(cfg config.Config, logger *logging.Logger) (*http.Server, func() error, error) {
	if logger == nil {
		logger = logging.Default()
	}

	var (
		formationRepo formation.Repository
		reportRepo    report.Repository
		cleanup       = func() error { return nil }
	)

	if cfg.DBURL != "" {
		db, err := openDB(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("open database: %w", err)
		}
		formationRepo = postgres.NewFormationRepository(db)
		reportRepo = postgres.NewReportRepository(db)
		cleanup = db.Close
		logger.Info("storage configured", "backend", "postgres", "db", dbNameFromURL(cfg.DBURL))
	} else {
		formationRepo = memory.NewFormationRepository()
		reportRepo = memory.NewReportRepository()
		logger.Info("storage configured", "backend", "memory")
	}

	judgeClient := judge.NewClient(judge.ClientConfig{
		HTTPClient:   &http.Client{Timeout: cfg.JudgeTimeout},
		BaseURL:      cfg.JudgeBaseURL,
		SessionToken: cfg.JudgeSessionToken,
		Timeout:      cfg.JudgeTimeout,
		MaxRetries:   cfg.JudgeMaxRetries,
		Logger:       logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.JudgeCircuitEnabled,
			FailureThreshold: cfg.JudgeCircuitFailureCount,
			OpenTimeout:      cfg.JudgeCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.JudgeCircuitHalfOpenMaxReq,
		},
	})

	snapshots := cache.NewStore(cfg.SnapshotCacheTTL)
	locks := resilience.NewKeyedMutex()
	idGen := idgen.NewRandomGenerator()
	rules := formation.Rules{
		TeamSize:        cfg.TeamSize,
		MinChoices:      cfg.MinChoices,
		MaxChoices:      cfg.MaxChoices,
		WindowScoreSpan: cfg.WindowScoreSpan,
		WindowMinSize:   cfg.WindowMinSize,
	}

	standingsSvc := usecase.NewStandingsService(judgeClient, snapshots)
	leaderboardSvc := usecase.NewLeaderboardService(judgeClient, snapshots, reportRepo, idGen, logger, cfg.FetchConcurrency)
	formationSvc := usecase.NewFormationService(formationRepo, locks, idGen, rules)
	adminSvc := usecase.NewAdminService(formationRepo, reportRepo, locks, idGen, rules)
	refreshSvc := usecase.NewRefreshService(judgeClient, snapshots, logger)

	passportClient := passport.NewClient(
		&http.Client{Timeout: cfg.PassportTimeout},
		cfg.PassportBaseURL,
		cfg.PassportIntrospectPath,
		cfg.PassportServiceKey,
		logger,
	)

	handler := httpapi.NewHandler(standingsSvc, leaderboardSvc, formationSvc, adminSvc, refreshSvc, logger)
	router := httpapi.NewRouter(handler, passportClient, logger, cfg.CORSAllowedOrigins)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	if server.Addr == "" {
		return nil, nil, fmt.Errorf("http server addr cannot be empty")
	}

	return server, cleanup, nil
}
