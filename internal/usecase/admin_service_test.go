package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/algoclub/arena/internal/domain/formation"
	"github.com/algoclub/arena/internal/domain/report"
	"github.com/algoclub/arena/internal/infrastructure/repository/memory"
	"github.com/algoclub/arena/internal/platform/id"
	"github.com/algoclub/arena/internal/platform/resilience"
)

func newAdminService(repo formation.Repository, reports report.Repository) *AdminService {
	return NewAdminService(repo, reports, resilience.NewKeyedMutex(), id.NewRandomGenerator(), formation.DefaultRules())
}

func TestAdminService_CreateCollection(t *testing.T) {
	repo := memory.NewFormationRepository()
	svc := newAdminService(repo, memory.NewReportRepository())

	deadline := time.Now().Add(48 * time.Hour)
	collection, err := svc.CreateCollection(context.Background(), CreateCollectionInput{
		RoomID:         "room-1",
		Title:          "Season Teams",
		Phase1Deadline: &deadline,
	})
	if err != nil {
		t.Fatalf("create collection failed: %v", err)
	}
	if collection.Phase != formation.PhaseParticipation {
		t.Fatalf("expected phase %s, got %s", formation.PhaseParticipation, collection.Phase)
	}
	if collection.IsOpen {
		t.Fatalf("new collection must start closed for choices")
	}
	if collection.ID == "" {
		t.Fatalf("expected generated collection id")
	}
}

func TestAdminService_CreateCollection_MissingTitle(t *testing.T) {
	svc := newAdminService(memory.NewFormationRepository(), memory.NewReportRepository())

	_, err := svc.CreateCollection(context.Background(), CreateCollectionInput{RoomID: "room-1"})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestAdminService_StartSelection(t *testing.T) {
	repo := memory.NewFormationRepository()
	reports := memory.NewReportRepository()
	seedParticipationCollection(t, repo, nil)
	seedLeaderboardReport(t, reports, "alice", "bob", "carol")
	svc := newAdminService(repo, reports)

	collection, err := svc.StartSelection(context.Background(), "col-1", "rep-1")
	if err != nil {
		t.Fatalf("start selection failed: %v", err)
	}
	if collection.Phase != formation.PhaseSelection || !collection.IsOpen {
		t.Fatalf("expected open selection phase, got phase=%s open=%v", collection.Phase, collection.IsOpen)
	}
	if len(collection.RankOrder) != 3 || collection.RankOrder[0] != "alice" {
		t.Fatalf("unexpected rank order: %v", collection.RankOrder)
	}
	if _, ok := collection.Performance["carol"]; !ok {
		t.Fatalf("expected frozen performance for carol")
	}

	// the frozen order belongs to the collection now; starting again is
	// a phase violation, not a refresh
	if _, err := svc.StartSelection(context.Background(), "col-1", "rep-1"); !errors.Is(err, ErrPhaseMismatch) {
		t.Fatalf("expected ErrPhaseMismatch on second start, got %v", err)
	}
}

func TestAdminService_StartSelection_MissingReport(t *testing.T) {
	repo := memory.NewFormationRepository()
	seedParticipationCollection(t, repo, nil)
	svc := newAdminService(repo, memory.NewReportRepository())

	_, err := svc.StartSelection(context.Background(), "col-1", "rep-missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAdminService_SetSelectionOpen(t *testing.T) {
	repo := memory.NewFormationRepository()
	seedSelectionCollection(t, repo, "alice", "bob", "carol")
	svc := newAdminService(repo, memory.NewReportRepository())
	formationSvc := newFormationService(repo)

	if _, err := svc.SetSelectionOpen(context.Background(), "col-1", false); err != nil {
		t.Fatalf("pause failed: %v", err)
	}
	if _, err := formationSvc.SubmitChoice(context.Background(), "col-1", "alice", "Alphas", []string{"bob", "carol"}); !errors.Is(err, ErrPhaseMismatch) {
		t.Fatalf("expected ErrPhaseMismatch while paused, got %v", err)
	}

	if _, err := svc.SetSelectionOpen(context.Background(), "col-1", true); err != nil {
		t.Fatalf("resume failed: %v", err)
	}
	if _, err := formationSvc.SubmitChoice(context.Background(), "col-1", "alice", "Alphas", []string{"bob", "carol"}); err != nil {
		t.Fatalf("submit after resume failed: %v", err)
	}
}

func TestAdminService_FinalizeAndUnfinalize(t *testing.T) {
	repo := memory.NewFormationRepository()
	seedSelectionCollection(t, repo, "alice", "bob", "carol", "dave", "erin", "frank")
	svc := newAdminService(repo, memory.NewReportRepository())
	formationSvc := newFormationService(repo)

	if _, err := formationSvc.SubmitChoice(context.Background(), "col-1", "alice", "Alphas", []string{"bob", "carol"}); err != nil {
		t.Fatalf("alice submit failed: %v", err)
	}
	if _, err := formationSvc.SubmitChoice(context.Background(), "col-1", "dave", "Deltas", []string{"erin", "frank"}); err != nil {
		t.Fatalf("dave submit failed: %v", err)
	}

	teams, err := svc.Finalize(context.Background(), "col-1")
	if err != nil {
		t.Fatalf("finalize failed: %v", err)
	}
	if len(teams) != 2 {
		t.Fatalf("expected 2 teams, got %d", len(teams))
	}
	for _, team := range teams {
		if team.ID == "" {
			t.Fatalf("expected generated team id")
		}
		if team.Source != formation.TeamSourceResolved {
			t.Fatalf("expected resolved source, got %s", team.Source)
		}
	}

	collection, err := formationSvc.GetCollection(context.Background(), "col-1")
	if err != nil {
		t.Fatalf("get collection: %v", err)
	}
	if collection.Phase != formation.PhaseFinalized || !collection.Finalized || collection.IsOpen {
		t.Fatalf("unexpected collection state after finalize: %+v", collection)
	}

	if _, err := svc.Finalize(context.Background(), "col-1"); !errors.Is(err, ErrPhaseMismatch) {
		t.Fatalf("expected ErrPhaseMismatch on double finalize, got %v", err)
	}

	// manual team approved after finalize must survive the unfinalize
	manual, err := svc.ApproveManualTeam(context.Background(), "col-1", "Outsiders", []string{"x1", "x2", "x3"})
	if err != nil {
		t.Fatalf("approve manual team failed: %v", err)
	}

	if _, err := svc.Unfinalize(context.Background(), "col-1"); err != nil {
		t.Fatalf("unfinalize failed: %v", err)
	}

	remaining, err := formationSvc.ListFinalizedTeams(context.Background(), "col-1")
	if err != nil {
		t.Fatalf("list teams: %v", err)
	}
	if len(remaining) != 1 || remaining[0].ID != manual.ID {
		t.Fatalf("expected only the manual team to remain, got %+v", remaining)
	}

	collection, _ = formationSvc.GetCollection(context.Background(), "col-1")
	if collection.Phase != formation.PhaseSelection || !collection.IsOpen {
		t.Fatalf("expected reopened selection, got phase=%s open=%v", collection.Phase, collection.IsOpen)
	}
}

func TestAdminService_ApproveManualRequest(t *testing.T) {
	repo := memory.NewFormationRepository()
	seedSelectionCollection(t, repo, "alice", "bob", "carol")
	svc := newAdminService(repo, memory.NewReportRepository())
	formationSvc := newFormationService(repo)

	request, err := formationSvc.SubmitManualRequest(context.Background(), "col-1", "erin", "", []string{"erin", "frank", "grace"}, "")
	if err != nil {
		t.Fatalf("submit manual request failed: %v", err)
	}

	team, err := svc.ApproveManualRequest(context.Background(), request.ID)
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if team.Source != formation.TeamSourceManual {
		t.Fatalf("expected manual source, got %s", team.Source)
	}
	if team.TeamTitle != "Team erin" {
		t.Fatalf("expected fallback title, got %q", team.TeamTitle)
	}

	requests, err := svc.ListManualRequests(context.Background(), "col-1")
	if err != nil {
		t.Fatalf("list requests: %v", err)
	}
	if len(requests) != 1 || requests[0].Status != formation.ManualRequestApproved {
		t.Fatalf("expected approved request, got %+v", requests)
	}

	if _, err := svc.ApproveManualRequest(context.Background(), request.ID); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput on double approve, got %v", err)
	}
}

func TestAdminService_RejectManualRequest(t *testing.T) {
	repo := memory.NewFormationRepository()
	seedSelectionCollection(t, repo, "alice", "bob", "carol")
	svc := newAdminService(repo, memory.NewReportRepository())
	formationSvc := newFormationService(repo)

	request, err := formationSvc.SubmitManualRequest(context.Background(), "col-1", "erin", "Outsiders", []string{"erin", "frank", "grace"}, "")
	if err != nil {
		t.Fatalf("submit manual request failed: %v", err)
	}

	if err := svc.RejectManualRequest(context.Background(), request.ID); err != nil {
		t.Fatalf("reject failed: %v", err)
	}

	teams, err := formationSvc.ListFinalizedTeams(context.Background(), "col-1")
	if err != nil {
		t.Fatalf("list teams: %v", err)
	}
	if len(teams) != 0 {
		t.Fatalf("rejected request must not create a team, got %+v", teams)
	}
}

func TestAdminService_TeamAdjustments(t *testing.T) {
	repo := memory.NewFormationRepository()
	seedSelectionCollection(t, repo, "alice", "bob", "carol")
	svc := newAdminService(repo, memory.NewReportRepository())

	team, err := svc.ApproveManualTeam(context.Background(), "col-1", "Alphas", []string{"alice", "bob", "carol"})
	if err != nil {
		t.Fatalf("approve manual team failed: %v", err)
	}
	// alice 30, bob 29, carol 28 per seeded performance
	if team.CombinedScore != 87 {
		t.Fatalf("expected combined score 87, got %v", team.CombinedScore)
	}

	renamed, err := svc.RenameTeam(context.Background(), team.ID, "The Alphas")
	if err != nil {
		t.Fatalf("rename failed: %v", err)
	}
	if renamed.TeamTitle != "The Alphas" {
		t.Fatalf("unexpected title: %q", renamed.TeamTitle)
	}

	coached, err := svc.AssignCoach(context.Background(), team.ID, "mentor")
	if err != nil {
		t.Fatalf("assign coach failed: %v", err)
	}
	if coached.CoachUsername != "mentor" {
		t.Fatalf("unexpected coach: %q", coached.CoachUsername)
	}

	trimmed, err := svc.RemoveMember(context.Background(), team.ID, "carol")
	if err != nil {
		t.Fatalf("remove member failed: %v", err)
	}
	if len(trimmed.Members) != 2 {
		t.Fatalf("expected 2 members, got %v", trimmed.Members)
	}
	if trimmed.CombinedScore != 59 {
		t.Fatalf("expected recomputed score 59, got %v", trimmed.CombinedScore)
	}

	if _, err := svc.RemoveMember(context.Background(), team.ID, "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing member, got %v", err)
	}

	if _, err := svc.RemoveMember(context.Background(), team.ID, "alice"); err != nil {
		t.Fatalf("remove second member failed: %v", err)
	}
	if _, err := svc.RemoveMember(context.Background(), team.ID, "bob"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput when removing last member, got %v", err)
	}

	if err := svc.DeleteTeam(context.Background(), team.ID); err != nil {
		t.Fatalf("delete team failed: %v", err)
	}
	if _, err := svc.RenameTeam(context.Background(), team.ID, "Gone"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestAdminService_DeleteCollection(t *testing.T) {
	repo := memory.NewFormationRepository()
	seedSelectionCollection(t, repo, "alice", "bob", "carol")
	svc := newAdminService(repo, memory.NewReportRepository())
	formationSvc := newFormationService(repo)

	if _, err := formationSvc.SubmitChoice(context.Background(), "col-1", "alice", "Alphas", []string{"bob", "carol"}); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if _, err := svc.ApproveManualTeam(context.Background(), "col-1", "Alphas", []string{"alice", "bob", "carol"}); err != nil {
		t.Fatalf("approve manual team failed: %v", err)
	}

	if err := svc.DeleteCollection(context.Background(), "col-1"); err != nil {
		t.Fatalf("delete collection failed: %v", err)
	}

	if _, err := formationSvc.GetCollection(context.Background(), "col-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	teams, err := repo.ListFinalizedTeams(context.Background(), "col-1")
	if err != nil {
		t.Fatalf("list teams: %v", err)
	}
	if len(teams) != 0 {
		t.Fatalf("expected cascade delete of teams, got %+v", teams)
	}
}
