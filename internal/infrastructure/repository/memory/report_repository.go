package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/algoclub/arena/internal/domain/report"
)

type ReportRepository struct {
	mu    sync.RWMutex
	items map[string]report.Report
}

func NewReportRepository() *ReportRepository {
	return &ReportRepository{
		items: make(map[string]report.Report),
	}
}

func (r *ReportRepository) Save(_ context.Context, item report.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[item.ID] = item
	return nil
}

func (r *ReportRepository) Get(_ context.Context, id string) (report.Report, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	if !ok {
		return report.Report{}, false, nil
	}

	return item, true, nil
}

func (r *ReportRepository) List(_ context.Context, limit int) ([]report.Report, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]report.Report, 0, len(r.items))
	for _, item := range r.items {
		out = append(out, item)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].GeneratedAt.Equal(out[j].GeneratedAt) {
			return out[i].GeneratedAt.After(out[j].GeneratedAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}

	return out, nil
}
