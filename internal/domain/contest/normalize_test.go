package contest

import (
	"errors"
	"math"
	"reflect"
	"testing"
	"time"
)

func sampleSnapshot() Snapshot {
	return Snapshot{
		ID:         "1001",
		Title:      "Weekly Round 12",
		BeginAt:    time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
		DurationMs: 2 * 60 * 60 * 1000,
		Roster: map[string]RosterEntry{
			"t1": {Username: "alice", DisplayName: "Alice"},
			"t2": {Username: "bob", DisplayName: "Bob"},
			"t3": {Username: "carol", DisplayName: "Carol"},
		},
		Submissions: []Submission{
			{TeamID: "t1", ProblemIndex: 0, Verdict: "WA", ElapsedSeconds: 300},
			{TeamID: "t1", ProblemIndex: 0, Verdict: "AC", ElapsedSeconds: 600},
			{TeamID: "t1", ProblemIndex: 1, Verdict: "AC", ElapsedSeconds: 1800},
			{TeamID: "t2", ProblemIndex: 0, Verdict: "AC", ElapsedSeconds: 300},
			{TeamID: "t2", ProblemIndex: 1, Verdict: "WA", ElapsedSeconds: 2000},
		},
	}
}

func findTeam(t *testing.T, result Result, teamID string) Standing {
	t.Helper()
	for _, team := range result.Teams {
		if team.TeamID == teamID {
			return team
		}
	}
	t.Fatalf("team %s not found in result", teamID)
	return Standing{}
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	result, err := Normalize(sampleSnapshot(), nil)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	if result.TotalTeams != 3 {
		t.Fatalf("expected 3 teams, got %d", result.TotalTeams)
	}
	if result.TotalProblems != 2 {
		t.Fatalf("expected 2 problems, got %d", result.TotalProblems)
	}

	alice := findTeam(t, result, "t1")
	if alice.SolvedCount != 2 {
		t.Fatalf("expected alice to solve 2, got %d", alice.SolvedCount)
	}
	if alice.FinalScore != 2 {
		t.Fatalf("expected alice score 2, got %v", alice.FinalScore)
	}
	// problem 0: one wrong attempt then AC at 600s = 20 + 10 = 30
	// problem 1: AC at 1800s = 30
	if alice.PenaltyMinutes != 60 {
		t.Fatalf("expected alice penalty 60, got %v", alice.PenaltyMinutes)
	}

	bob := findTeam(t, result, "t2")
	if bob.SolvedCount != 1 || bob.FinalScore != 1 {
		t.Fatalf("expected bob solved=1 score=1, got solved=%d score=%v", bob.SolvedCount, bob.FinalScore)
	}
	if bob.PenaltyMinutes != 5 {
		t.Fatalf("expected bob penalty 5, got %v", bob.PenaltyMinutes)
	}

	carol := findTeam(t, result, "t3")
	if carol.SolvedCount != 0 || carol.FinalScore != 0 || carol.PenaltyMinutes != 0 {
		t.Fatalf("expected zeroed standing for team without submissions, got %+v", carol)
	}

	// ranked: alice (2) before bob (1) before carol (0)
	if result.Teams[0].Username != "alice" || result.Teams[1].Username != "bob" || result.Teams[2].Username != "carol" {
		t.Fatalf("unexpected team order: %s, %s, %s", result.Teams[0].Username, result.Teams[1].Username, result.Teams[2].Username)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	t.Parallel()

	snapshot := sampleSnapshot()
	first, err := Normalize(snapshot, []float64{1, 2})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	second, err := Normalize(snapshot, []float64{1, 2})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical results across runs")
	}
}

func TestNormalizeWeights(t *testing.T) {
	t.Parallel()

	result, err := Normalize(sampleSnapshot(), []float64{1, 2})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	alice := findTeam(t, result, "t1")
	if alice.FinalScore != 3 {
		t.Fatalf("expected weighted score 3, got %v", alice.FinalScore)
	}

	bob := findTeam(t, result, "t2")
	if bob.FinalScore != 1 {
		t.Fatalf("expected weighted score 1, got %v", bob.FinalScore)
	}
}

func TestNormalizeShortWeightVector(t *testing.T) {
	t.Parallel()

	// problem 1 has no configured weight and defaults to 1
	result, err := Normalize(sampleSnapshot(), []float64{3})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	alice := findTeam(t, result, "t1")
	if alice.FinalScore != 4 {
		t.Fatalf("expected score 4, got %v", alice.FinalScore)
	}
	if !reflect.DeepEqual(result.ProblemWeights, []float64{3, 1}) {
		t.Fatalf("unexpected resolved weights: %v", result.ProblemWeights)
	}
}

func TestNormalizeDiscardsPostDurationSubmissions(t *testing.T) {
	t.Parallel()

	snapshot := sampleSnapshot()
	snapshot.Submissions = append(snapshot.Submissions,
		Submission{TeamID: "t3", ProblemIndex: 0, Verdict: "AC", ElapsedSeconds: 7201},
		Submission{TeamID: "t1", ProblemIndex: 2, Verdict: "AC", ElapsedSeconds: 8000},
	)

	result, err := Normalize(snapshot, nil)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	if result.TotalProblems != 2 {
		t.Fatalf("post-duration submission widened problem range: %d", result.TotalProblems)
	}

	carol := findTeam(t, result, "t3")
	if carol.SolvedCount != 0 || carol.FinalScore != 0 || carol.PenaltyMinutes != 0 {
		t.Fatalf("post-duration submission affected scoring: %+v", carol)
	}

	alice := findTeam(t, result, "t1")
	if alice.SolvedCount != 2 {
		t.Fatalf("post-duration submission counted as solve: %d", alice.SolvedCount)
	}
}

func TestNormalizePenaltyRounding(t *testing.T) {
	t.Parallel()

	snapshot := sampleSnapshot()
	snapshot.Submissions = []Submission{
		{TeamID: "t1", ProblemIndex: 0, Verdict: "AC", ElapsedSeconds: 100},
	}

	result, err := Normalize(snapshot, nil)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	alice := findTeam(t, result, "t1")
	// 100s / 60 = 1.666..., rounded to 1.67
	if alice.PenaltyMinutes != 1.67 {
		t.Fatalf("expected penalty 1.67, got %v", alice.PenaltyMinutes)
	}
}

func TestNormalizePenaltyNonNegative(t *testing.T) {
	t.Parallel()

	result, err := Normalize(sampleSnapshot(), nil)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	for _, team := range result.Teams {
		if team.PenaltyMinutes < 0 || math.IsNaN(team.PenaltyMinutes) {
			t.Fatalf("invalid penalty for %s: %v", team.Username, team.PenaltyMinutes)
		}
	}
}

func TestNormalizeInvalidSnapshot(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Snapshot)
	}{
		{
			name:   "missing id",
			mutate: func(s *Snapshot) { s.ID = "" },
		},
		{
			name:   "zero duration",
			mutate: func(s *Snapshot) { s.DurationMs = 0 },
		},
		{
			name:   "missing roster",
			mutate: func(s *Snapshot) { s.Roster = nil },
		},
		{
			name:   "missing submissions",
			mutate: func(s *Snapshot) { s.Submissions = nil },
		},
		{
			name: "negative problem index",
			mutate: func(s *Snapshot) {
				s.Submissions[0].ProblemIndex = -1
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snapshot := sampleSnapshot()
			tt.mutate(&snapshot)

			_, err := Normalize(snapshot, nil)
			if !errors.Is(err, ErrInvalidSnapshot) {
				t.Fatalf("expected ErrInvalidSnapshot, got %v", err)
			}
		})
	}
}
