package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/algoclub/arena/internal/domain/contest"
	"github.com/algoclub/arena/internal/platform/cache"
)

type StandingsService struct {
	provider  SnapshotProvider
	snapshots *cache.Store
}

func NewStandingsService(provider SnapshotProvider, snapshots *cache.Store) *StandingsService {
	return &StandingsService{
		provider:  provider,
		snapshots: snapshots,
	}
}

// GetStandings fetches one contest snapshot and normalizes it into
// ranked per-team standings. weights is an optional per-problem score
// vector; missing indexes weigh 1.
func (s *StandingsService) GetStandings(ctx context.Context, contestID string, weights []float64) (contest.Result, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StandingsService.GetStandings")
	defer span.End()

	contestID = strings.TrimSpace(contestID)
	if contestID == "" {
		return contest.Result{}, fmt.Errorf("%w: contest id is required", ErrInvalidInput)
	}
	for i, weight := range weights {
		if weight < 0 {
			return contest.Result{}, fmt.Errorf("%w: problem weight %d must not be negative", ErrInvalidInput, i)
		}
	}

	snapshot, err := loadContestSnapshot(ctx, s.provider, s.snapshots, contestID)
	if err != nil {
		return contest.Result{}, fmt.Errorf("load contest snapshot: %w", err)
	}

	result, err := contest.Normalize(snapshot, weights)
	if err != nil {
		return contest.Result{}, fmt.Errorf("normalize contest %s: %w", contestID, err)
	}

	return result, nil
}
