package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/algoclub/arena/internal/domain/contest"
	"github.com/algoclub/arena/internal/domain/leaderboard"
	"github.com/algoclub/arena/internal/domain/report"
	"github.com/algoclub/arena/internal/platform/cache"
	"github.com/algoclub/arena/internal/platform/id"
	"github.com/algoclub/arena/internal/platform/logging"
)

const defaultMergeFetchConcurrency = 4

type LeaderboardService struct {
	provider   SnapshotProvider
	snapshots  *cache.Store
	reportRepo report.Repository
	idGen      id.Generator
	logger     *logging.Logger
	fetchLimit int
	now        func() time.Time
}

func NewLeaderboardService(
	provider SnapshotProvider,
	snapshots *cache.Store,
	reportRepo report.Repository,
	idGen id.Generator,
	logger *logging.Logger,
	fetchConcurrency int,
) *LeaderboardService {
	if logger == nil {
		logger = logging.Default()
	}
	if fetchConcurrency <= 0 {
		fetchConcurrency = defaultMergeFetchConcurrency
	}

	return &LeaderboardService{
		provider:   provider,
		snapshots:  snapshots,
		reportRepo: reportRepo,
		idGen:      idGen,
		logger:     logger,
		fetchLimit: fetchConcurrency,
		now:        time.Now,
	}
}

type GenerateReportInput struct {
	Title string
	// ContestIDs are merged in the given order.
	ContestIDs []string
	// Weights multiplies each contest's scores; missing ids weigh 1.
	Weights map[string]float64
	// ProblemWeights is an optional per-contest problem weight vector.
	ProblemWeights map[string][]float64
	// Demerits are per-contest deductions applied during merge.
	Demerits map[string][]leaderboard.Demerit
}

type GenerateReportResult struct {
	Report report.Report
	// Skipped lists contests dropped from the merge because their
	// snapshot could not be fetched or normalized.
	Skipped []string
}

// GenerateReport fetches the requested contests concurrently,
// normalizes each, merges them into a leaderboard and stores the
// outcome as a shareable report. A contest whose fetch or
// normalization fails is skipped; the merge proceeds with the rest.
func (s *LeaderboardService) GenerateReport(ctx context.Context, input GenerateReportInput) (GenerateReportResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeaderboardService.GenerateReport")
	defer span.End()

	contestIDs, err := normalizeContestIDs(input.ContestIDs)
	if err != nil {
		return GenerateReportResult{}, err
	}
	for contestID, weight := range input.Weights {
		if weight < 0 {
			return GenerateReportResult{}, fmt.Errorf("%w: contest weight for %s must not be negative", ErrInvalidInput, contestID)
		}
	}

	results := make([]contest.Result, len(contestIDs))
	fetched := make([]bool, len(contestIDs))

	workers := pool.New().WithMaxGoroutines(s.fetchLimit)
	for i, contestID := range contestIDs {
		i, contestID := i, contestID
		workers.Go(func() {
			snapshot, err := loadContestSnapshot(ctx, s.provider, s.snapshots, contestID)
			if err != nil {
				s.logger.WarnContext(ctx, "skip contest in merge: snapshot fetch failed",
					"contest_id", contestID, "error", err)
				return
			}

			result, err := contest.Normalize(snapshot, input.ProblemWeights[contestID])
			if err != nil {
				s.logger.WarnContext(ctx, "skip contest in merge: snapshot malformed",
					"contest_id", contestID, "error", err)
				return
			}

			results[i] = result
			fetched[i] = true
		})
	}
	workers.Wait()

	merged := make([]contest.Result, 0, len(contestIDs))
	skipped := make([]string, 0)
	for i, contestID := range contestIDs {
		if !fetched[i] {
			skipped = append(skipped, contestID)
			continue
		}
		merged = append(merged, results[i])
	}
	if len(merged) == 0 {
		return GenerateReportResult{}, fmt.Errorf("%w: no contest snapshot could be fetched", ErrUpstreamUnavailable)
	}

	reportID, err := s.idGen.NewID()
	if err != nil {
		return GenerateReportResult{}, fmt.Errorf("generate report id: %w", err)
	}

	generated := report.Report{
		ID:          reportID,
		Title:       strings.TrimSpace(input.Title),
		ContestIDs:  contestIDs,
		Weights:     input.Weights,
		Demerits:    input.Demerits,
		Leaderboard: leaderboard.Merge(merged, input.Weights, input.Demerits),
		GeneratedAt: s.now().UTC(),
	}
	if generated.Title == "" {
		generated.Title = fmt.Sprintf("Leaderboard %s", generated.GeneratedAt.Format("2006-01-02"))
	}

	if err := s.reportRepo.Save(ctx, generated); err != nil {
		return GenerateReportResult{}, fmt.Errorf("save report: %w", err)
	}

	return GenerateReportResult{
		Report:  generated,
		Skipped: skipped,
	}, nil
}

func (s *LeaderboardService) GetReport(ctx context.Context, reportID string) (report.Report, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeaderboardService.GetReport")
	defer span.End()

	reportID = strings.TrimSpace(reportID)
	if reportID == "" {
		return report.Report{}, fmt.Errorf("%w: report id is required", ErrInvalidInput)
	}

	item, exists, err := s.reportRepo.Get(ctx, reportID)
	if err != nil {
		return report.Report{}, fmt.Errorf("get report: %w", err)
	}
	if !exists {
		return report.Report{}, fmt.Errorf("%w: report=%s", ErrNotFound, reportID)
	}

	return item, nil
}

func (s *LeaderboardService) ListReports(ctx context.Context, limit int) ([]report.Report, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeaderboardService.ListReports")
	defer span.End()

	if limit <= 0 || limit > 100 {
		limit = 20
	}

	items, err := s.reportRepo.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}

	return items, nil
}

func normalizeContestIDs(raw []string) ([]string, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: contest ids are required", ErrInvalidInput)
	}

	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		contestID := strings.TrimSpace(item)
		if contestID == "" {
			return nil, fmt.Errorf("%w: contest id is required", ErrInvalidInput)
		}
		if _, exists := seen[contestID]; exists {
			return nil, fmt.Errorf("%w: duplicate contest id %s", ErrInvalidInput, contestID)
		}
		seen[contestID] = struct{}{}
		out = append(out, contestID)
	}

	return out, nil
}
