package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/algoclub/arena/internal/domain/formation"
	"github.com/algoclub/arena/internal/domain/leaderboard"
	"github.com/algoclub/arena/internal/domain/report"
	"github.com/algoclub/arena/internal/infrastructure/repository/memory"
	"github.com/algoclub/arena/internal/platform/id"
	"github.com/algoclub/arena/internal/platform/resilience"
)

func newFormationService(repo formation.Repository) *FormationService {
	return NewFormationService(repo, resilience.NewKeyedMutex(), id.NewRandomGenerator(), formation.DefaultRules())
}

func seedSelectionCollection(t *testing.T, repo *memory.FormationRepository, participants ...string) formation.Collection {
	t.Helper()

	performance := make(map[string]formation.PerformanceEntry, len(participants))
	for i, username := range participants {
		performance[username] = formation.PerformanceEntry{
			Username:        username,
			EffectiveSolved: float64(30 - i),
		}
	}

	collection := formation.Collection{
		ID:          "col-1",
		RoomID:      "room-1",
		Title:       "Season Teams",
		Phase:       formation.PhaseSelection,
		IsOpen:      true,
		ReportID:    "rep-1",
		RankOrder:   participants,
		Performance: performance,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	if err := repo.CreateCollection(context.Background(), collection); err != nil {
		t.Fatalf("seed collection: %v", err)
	}

	for _, username := range participants {
		if err := repo.UpsertParticipation(context.Background(), formation.ParticipationRecord{
			CollectionID:    collection.ID,
			Username:        username,
			WillParticipate: true,
		}); err != nil {
			t.Fatalf("seed participation: %v", err)
		}
	}

	return collection
}

func seedParticipationCollection(t *testing.T, repo *memory.FormationRepository, deadline *time.Time) formation.Collection {
	t.Helper()

	collection := formation.Collection{
		ID:             "col-1",
		RoomID:         "room-1",
		Title:          "Season Teams",
		Phase:          formation.PhaseParticipation,
		Phase1Deadline: deadline,
		CreatedAt:      time.Now().UTC(),
		UpdatedAt:      time.Now().UTC(),
	}
	if err := repo.CreateCollection(context.Background(), collection); err != nil {
		t.Fatalf("seed collection: %v", err)
	}

	return collection
}

func seedLeaderboardReport(t *testing.T, repo report.Repository, usernames ...string) report.Report {
	t.Helper()

	users := make([]leaderboard.ParticipantAggregate, 0, len(usernames))
	for i, username := range usernames {
		users = append(users, leaderboard.ParticipantAggregate{
			Username:        username,
			EffectiveSolved: float64(30 - i),
			AttendedCount:   2,
		})
	}

	item := report.Report{
		ID:          "rep-1",
		Title:       "Season Report",
		ContestIDs:  []string{"c1", "c2"},
		Leaderboard: leaderboard.Merged{Users: users, ContestIDs: []string{"c1", "c2"}},
		GeneratedAt: time.Now().UTC(),
	}
	if err := repo.Save(context.Background(), item); err != nil {
		t.Fatalf("seed report: %v", err)
	}

	return item
}

func TestFormationService_SetParticipation(t *testing.T) {
	repo := memory.NewFormationRepository()
	seedParticipationCollection(t, repo, nil)
	svc := newFormationService(repo)

	if err := svc.SetParticipation(context.Background(), "col-1", "alice", true); err != nil {
		t.Fatalf("set participation failed: %v", err)
	}

	record, exists, err := repo.GetParticipation(context.Background(), "col-1", "alice")
	if err != nil || !exists {
		t.Fatalf("expected stored record, exists=%v err=%v", exists, err)
	}
	if !record.WillParticipate {
		t.Fatalf("expected willParticipate=true")
	}

	// toggle off
	if err := svc.SetParticipation(context.Background(), "col-1", "alice", false); err != nil {
		t.Fatalf("toggle off failed: %v", err)
	}
	record, _, _ = repo.GetParticipation(context.Background(), "col-1", "alice")
	if record.WillParticipate {
		t.Fatalf("expected willParticipate=false after toggle")
	}
}

func TestFormationService_SetParticipation_AfterDeadline(t *testing.T) {
	repo := memory.NewFormationRepository()
	deadline := time.Now().Add(-time.Hour)
	seedParticipationCollection(t, repo, &deadline)
	svc := newFormationService(repo)

	err := svc.SetParticipation(context.Background(), "col-1", "alice", true)
	if !errors.Is(err, ErrPhaseMismatch) {
		t.Fatalf("expected ErrPhaseMismatch, got %v", err)
	}
}

func TestFormationService_SetParticipation_WrongPhase(t *testing.T) {
	repo := memory.NewFormationRepository()
	seedSelectionCollection(t, repo, "alice", "bob")
	svc := newFormationService(repo)

	err := svc.SetParticipation(context.Background(), "col-1", "alice", true)
	if !errors.Is(err, ErrPhaseMismatch) {
		t.Fatalf("expected ErrPhaseMismatch, got %v", err)
	}
}

func TestFormationService_SubmitChoice(t *testing.T) {
	repo := memory.NewFormationRepository()
	seedSelectionCollection(t, repo, "alice", "bob", "carol", "dave")
	svc := newFormationService(repo)

	choice, err := svc.SubmitChoice(context.Background(), "col-1", "alice", "Alphas", []string{"bob", "carol"})
	if err != nil {
		t.Fatalf("submit choice failed: %v", err)
	}
	if choice.TeamTitle != "Alphas" {
		t.Fatalf("unexpected team title: %s", choice.TeamTitle)
	}

	// resubmission overwrites the whole tuple
	if _, err := svc.SubmitChoice(context.Background(), "col-1", "alice", "Betas", []string{"carol", "dave"}); err != nil {
		t.Fatalf("resubmit failed: %v", err)
	}
	stored, exists, err := repo.GetChoice(context.Background(), "col-1", "alice")
	if err != nil || !exists {
		t.Fatalf("expected stored choice, exists=%v err=%v", exists, err)
	}
	if stored.TeamTitle != "Betas" || len(stored.OrderedChoices) != 2 || stored.OrderedChoices[0] != "carol" {
		t.Fatalf("unexpected stored choice: %+v", stored)
	}
}

func TestFormationService_SubmitChoice_Paused(t *testing.T) {
	repo := memory.NewFormationRepository()
	collection := seedSelectionCollection(t, repo, "alice", "bob", "carol")
	collection.IsOpen = false
	if err := repo.UpdateCollection(context.Background(), collection); err != nil {
		t.Fatalf("update collection: %v", err)
	}
	svc := newFormationService(repo)

	_, err := svc.SubmitChoice(context.Background(), "col-1", "alice", "Alphas", []string{"bob", "carol"})
	if !errors.Is(err, ErrPhaseMismatch) {
		t.Fatalf("expected ErrPhaseMismatch, got %v", err)
	}
}

func TestFormationService_SubmitChoice_NotOptedIn(t *testing.T) {
	repo := memory.NewFormationRepository()
	seedSelectionCollection(t, repo, "alice", "bob", "carol")
	if err := repo.UpsertParticipation(context.Background(), formation.ParticipationRecord{
		CollectionID:    "col-1",
		Username:        "alice",
		WillParticipate: false,
	}); err != nil {
		t.Fatalf("update participation: %v", err)
	}
	svc := newFormationService(repo)

	_, err := svc.SubmitChoice(context.Background(), "col-1", "alice", "Alphas", []string{"bob", "carol"})
	if !errors.Is(err, ErrNotEligible) {
		t.Fatalf("expected ErrNotEligible, got %v", err)
	}
}

func TestFormationService_SubmitChoice_UnrankedUser(t *testing.T) {
	repo := memory.NewFormationRepository()
	seedSelectionCollection(t, repo, "alice", "bob", "carol")
	if err := repo.UpsertParticipation(context.Background(), formation.ParticipationRecord{
		CollectionID:    "col-1",
		Username:        "stranger",
		WillParticipate: true,
	}); err != nil {
		t.Fatalf("seed participation: %v", err)
	}
	svc := newFormationService(repo)

	_, err := svc.SubmitChoice(context.Background(), "col-1", "stranger", "Alphas", []string{"bob", "carol"})
	if !errors.Is(err, ErrNotEligible) {
		t.Fatalf("expected ErrNotEligible, got %v", err)
	}
}

func TestFormationService_SubmitChoice_OutsideWindow(t *testing.T) {
	repo := memory.NewFormationRepository()
	seedSelectionCollection(t, repo, "alice", "bob", "carol")
	svc := newFormationService(repo)

	// alice ranks above bob, so she never appears in bob's window
	_, err := svc.SubmitChoice(context.Background(), "col-1", "bob", "Alphas", []string{"carol", "alice"})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestFormationService_SubmitChoice_CountOutOfBounds(t *testing.T) {
	repo := memory.NewFormationRepository()
	seedSelectionCollection(t, repo, "alice", "bob", "carol")
	svc := newFormationService(repo)

	_, err := svc.SubmitChoice(context.Background(), "col-1", "alice", "Alphas", []string{"bob"})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestFormationService_Eligibility(t *testing.T) {
	repo := memory.NewFormationRepository()
	seedSelectionCollection(t, repo, "alice", "bob", "carol", "dave")
	svc := newFormationService(repo)

	eligible, err := svc.Eligibility(context.Background(), "col-1", "alice")
	if err != nil {
		t.Fatalf("eligibility failed: %v", err)
	}
	if len(eligible) != 3 {
		t.Fatalf("expected 3 candidates, got %v", eligible)
	}
}

func TestFormationService_Eligibility_WrongPhase(t *testing.T) {
	repo := memory.NewFormationRepository()
	seedParticipationCollection(t, repo, nil)
	svc := newFormationService(repo)

	_, err := svc.Eligibility(context.Background(), "col-1", "alice")
	if !errors.Is(err, ErrPhaseMismatch) {
		t.Fatalf("expected ErrPhaseMismatch, got %v", err)
	}
}

func TestFormationService_SubmitManualRequest(t *testing.T) {
	repo := memory.NewFormationRepository()
	seedSelectionCollection(t, repo, "alice", "bob", "carol")
	svc := newFormationService(repo)

	request, err := svc.SubmitManualRequest(context.Background(), "col-1", "erin", "Outsiders", []string{"erin", "frank", "grace"}, "we train together")
	if err != nil {
		t.Fatalf("submit manual request failed: %v", err)
	}
	if request.Status != formation.ManualRequestPending {
		t.Fatalf("expected pending request, got %s", request.Status)
	}
	if request.ID == "" {
		t.Fatalf("expected generated request id")
	}
}

func TestFormationService_SubmitManualRequest_WrongSize(t *testing.T) {
	repo := memory.NewFormationRepository()
	seedSelectionCollection(t, repo, "alice", "bob", "carol")
	svc := newFormationService(repo)

	_, err := svc.SubmitManualRequest(context.Background(), "col-1", "erin", "Outsiders", []string{"erin", "frank"}, "")
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestFormationService_GetCollection_NotFound(t *testing.T) {
	repo := memory.NewFormationRepository()
	svc := newFormationService(repo)

	_, err := svc.GetCollection(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
