package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/algoclub/arena/internal/domain/contest"
	"github.com/algoclub/arena/internal/infrastructure/repository/memory"
	"github.com/algoclub/arena/internal/platform/cache"
	"github.com/algoclub/arena/internal/platform/id"
)

type stubSnapshotProvider struct {
	mu        sync.Mutex
	snapshots map[string]contest.Snapshot
	errs      map[string]error
	calls     map[string]int
}

func newStubProvider() *stubSnapshotProvider {
	return &stubSnapshotProvider{
		snapshots: make(map[string]contest.Snapshot),
		errs:      make(map[string]error),
		calls:     make(map[string]int),
	}
}

func (p *stubSnapshotProvider) FetchSnapshot(_ context.Context, contestID string) (contest.Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls[contestID]++
	if err, ok := p.errs[contestID]; ok {
		return contest.Snapshot{}, err
	}
	snapshot, ok := p.snapshots[contestID]
	if !ok {
		return contest.Snapshot{}, ErrNotFound
	}
	return snapshot, nil
}

func (p *stubSnapshotProvider) callCount(contestID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[contestID]
}

func soloSnapshot(contestID, username string, solved int) contest.Snapshot {
	submissions := make([]contest.Submission, 0, solved)
	for i := 0; i < solved; i++ {
		submissions = append(submissions, contest.Submission{
			TeamID:         "t-" + username,
			ProblemIndex:   i,
			Verdict:        contest.VerdictAccepted,
			ElapsedSeconds: int64(300 * (i + 1)),
		})
	}

	return contest.Snapshot{
		ID:         contestID,
		Title:      "Weekly " + contestID,
		BeginAt:    time.Date(2025, 3, 1, 19, 0, 0, 0, time.UTC),
		DurationMs: 2 * 60 * 60 * 1000,
		Roster: map[string]contest.RosterEntry{
			"t-" + username: {Username: username, DisplayName: username},
		},
		Submissions: submissions,
	}
}

func newLeaderboardService(provider SnapshotProvider) (*LeaderboardService, *memory.ReportRepository) {
	reports := memory.NewReportRepository()
	svc := NewLeaderboardService(provider, cache.NewStore(time.Minute), reports, id.NewRandomGenerator(), nil, 2)
	return svc, reports
}

func TestLeaderboardService_GenerateReport(t *testing.T) {
	provider := newStubProvider()
	provider.snapshots["c1"] = soloSnapshot("c1", "alice", 2)
	provider.snapshots["c2"] = soloSnapshot("c2", "alice", 3)
	svc, _ := newLeaderboardService(provider)

	result, err := svc.GenerateReport(context.Background(), GenerateReportInput{
		Title:      "Spring Season",
		ContestIDs: []string{"c1", "c2"},
	})
	if err != nil {
		t.Fatalf("generate report failed: %v", err)
	}
	if len(result.Skipped) != 0 {
		t.Fatalf("expected no skipped contests, got %v", result.Skipped)
	}
	if result.Report.ID == "" {
		t.Fatalf("expected generated report id")
	}
	if len(result.Report.Leaderboard.Users) != 1 {
		t.Fatalf("expected one participant, got %d", len(result.Report.Leaderboard.Users))
	}
	alice := result.Report.Leaderboard.Users[0]
	if alice.TotalSolved != 5 {
		t.Fatalf("expected 5 solved across contests, got %v", alice.TotalSolved)
	}
	if alice.AttendedCount != 2 {
		t.Fatalf("expected attendance 2, got %d", alice.AttendedCount)
	}

	// persisted under the same id
	stored, err := svc.GetReport(context.Background(), result.Report.ID)
	if err != nil {
		t.Fatalf("get report failed: %v", err)
	}
	if stored.Title != "Spring Season" {
		t.Fatalf("unexpected stored title: %q", stored.Title)
	}
}

func TestLeaderboardService_GenerateReport_TitleFallback(t *testing.T) {
	provider := newStubProvider()
	provider.snapshots["c1"] = soloSnapshot("c1", "alice", 1)
	svc, _ := newLeaderboardService(provider)

	result, err := svc.GenerateReport(context.Background(), GenerateReportInput{ContestIDs: []string{"c1"}})
	if err != nil {
		t.Fatalf("generate report failed: %v", err)
	}
	if result.Report.Title == "" {
		t.Fatalf("expected a generated fallback title")
	}
}

func TestLeaderboardService_GenerateReport_SkipsFailedContest(t *testing.T) {
	provider := newStubProvider()
	provider.snapshots["c1"] = soloSnapshot("c1", "alice", 2)
	provider.errs["c2"] = errors.New("judge timeout")
	svc, _ := newLeaderboardService(provider)

	result, err := svc.GenerateReport(context.Background(), GenerateReportInput{
		ContestIDs: []string{"c1", "c2"},
	})
	if err != nil {
		t.Fatalf("generate report failed: %v", err)
	}
	if len(result.Skipped) != 1 || result.Skipped[0] != "c2" {
		t.Fatalf("expected c2 skipped, got %v", result.Skipped)
	}
	// the skipped contest is dropped entirely, not treated as absence
	alice := result.Report.Leaderboard.Users[0]
	if alice.AttendedCount != 1 {
		t.Fatalf("expected attendance 1, got %d", alice.AttendedCount)
	}
}

func TestLeaderboardService_GenerateReport_AllFailed(t *testing.T) {
	provider := newStubProvider()
	provider.errs["c1"] = errors.New("judge down")
	svc, _ := newLeaderboardService(provider)

	_, err := svc.GenerateReport(context.Background(), GenerateReportInput{ContestIDs: []string{"c1"}})
	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestLeaderboardService_GenerateReport_BadInput(t *testing.T) {
	svc, _ := newLeaderboardService(newStubProvider())

	cases := []struct {
		name  string
		input GenerateReportInput
	}{
		{name: "no contests", input: GenerateReportInput{}},
		{name: "blank contest id", input: GenerateReportInput{ContestIDs: []string{" "}}},
		{name: "duplicate contest id", input: GenerateReportInput{ContestIDs: []string{"c1", "c1"}}},
		{name: "negative weight", input: GenerateReportInput{
			ContestIDs: []string{"c1"},
			Weights:    map[string]float64{"c1": -1},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.GenerateReport(context.Background(), tc.input); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestLeaderboardService_GetReport_NotFound(t *testing.T) {
	svc, _ := newLeaderboardService(newStubProvider())

	_, err := svc.GetReport(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLeaderboardService_ListReports(t *testing.T) {
	provider := newStubProvider()
	provider.snapshots["c1"] = soloSnapshot("c1", "alice", 1)
	svc, _ := newLeaderboardService(provider)

	for i := 0; i < 3; i++ {
		if _, err := svc.GenerateReport(context.Background(), GenerateReportInput{ContestIDs: []string{"c1"}}); err != nil {
			t.Fatalf("generate report failed: %v", err)
		}
	}

	items, err := svc.ListReports(context.Background(), 2)
	if err != nil {
		t.Fatalf("list reports failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected limit to apply, got %d reports", len(items))
	}
}
