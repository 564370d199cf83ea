package usecase

import (
	"context"
	"fmt"

	"github.com/algoclub/arena/internal/domain/contest"
	"github.com/algoclub/arena/internal/platform/cache"
)

// SnapshotProvider fetches raw contest state from the judge platform.
type SnapshotProvider interface {
	FetchSnapshot(ctx context.Context, contestID string) (contest.Snapshot, error)
}

func snapshotCacheKey(contestID string) string {
	return "contest:" + contestID
}

// loadContestSnapshot reads a snapshot through the shared TTL cache so
// concurrent standing and merge requests hit the judge once per
// contest.
func loadContestSnapshot(ctx context.Context, provider SnapshotProvider, snapshots *cache.Store, contestID string) (contest.Snapshot, error) {
	if provider == nil {
		return contest.Snapshot{}, fmt.Errorf("%w: judge provider is not configured", ErrUpstreamUnavailable)
	}
	if snapshots == nil {
		return provider.FetchSnapshot(ctx, contestID)
	}

	value, err := snapshots.GetOrLoad(ctx, snapshotCacheKey(contestID), func(ctx context.Context) (any, error) {
		return provider.FetchSnapshot(ctx, contestID)
	})
	if err != nil {
		return contest.Snapshot{}, err
	}

	snapshot, ok := value.(contest.Snapshot)
	if !ok {
		return contest.Snapshot{}, fmt.Errorf("unexpected cached snapshot type %T", value)
	}

	return snapshot, nil
}
