package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/panjf2000/ants/v2"

	"github.com/algoclub/arena/internal/platform/cache"
	"github.com/algoclub/arena/internal/platform/logging"
)

const maxRefreshWorkers = 4

type RefreshService struct {
	provider  SnapshotProvider
	snapshots *cache.Store
	logger    *logging.Logger
}

func NewRefreshService(provider SnapshotProvider, snapshots *cache.Store, logger *logging.Logger) *RefreshService {
	if logger == nil {
		logger = logging.Default()
	}

	return &RefreshService{
		provider:  provider,
		snapshots: snapshots,
		logger:    logger,
	}
}

type RefreshResult struct {
	Requested   int      `json:"requested"`
	Succeeded   int      `json:"succeeded"`
	Failed      int      `json:"failed"`
	WorkerCount int      `json:"worker_count"`
	FailedIDs   []string `json:"failed_ids,omitempty"`
}

// RefreshContests re-fetches the given contests from the judge and
// rewarms the snapshot cache so subsequent standings and merge calls
// serve fresh data. Failures are counted, not fatal.
func (s *RefreshService) RefreshContests(ctx context.Context, contestIDs []string, maxWorkers int) (RefreshResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RefreshService.RefreshContests")
	defer span.End()

	ids, err := normalizeContestIDs(contestIDs)
	if err != nil {
		return RefreshResult{}, err
	}

	workerCount := maxWorkers
	if workerCount <= 0 || workerCount > maxRefreshWorkers {
		workerCount = maxRefreshWorkers
	}
	if workerCount > len(ids) {
		workerCount = len(ids)
	}

	result := RefreshResult{
		Requested:   len(ids),
		WorkerCount: workerCount,
	}

	var succeeded atomic.Int32
	var failedMu sync.Mutex
	failedIDs := make([]string, 0)

	workers, err := ants.NewPool(workerCount)
	if err != nil {
		return RefreshResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer workers.Release()

	var wg sync.WaitGroup
	for _, contestID := range ids {
		contestID := contestID
		wg.Add(1)
		if err := workers.Submit(func() {
			defer wg.Done()

			if s.snapshots != nil {
				s.snapshots.Delete(ctx, snapshotCacheKey(contestID))
			}
			if _, err := loadContestSnapshot(ctx, s.provider, s.snapshots, contestID); err != nil {
				s.logger.WarnContext(ctx, "contest refresh failed", "contest_id", contestID, "error", err)
				failedMu.Lock()
				failedIDs = append(failedIDs, contestID)
				failedMu.Unlock()
				return
			}
			succeeded.Add(1)
		}); err != nil {
			wg.Done()
			return RefreshResult{}, fmt.Errorf("submit refresh task: %w", err)
		}
	}
	wg.Wait()

	sort.Strings(failedIDs)
	result.Succeeded = int(succeeded.Load())
	result.Failed = len(failedIDs)
	result.FailedIDs = failedIDs
	return result, nil
}
