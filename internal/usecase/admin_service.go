package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/algoclub/arena/internal/domain/formation"
	"github.com/algoclub/arena/internal/domain/report"
	"github.com/algoclub/arena/internal/platform/id"
	"github.com/algoclub/arena/internal/platform/resilience"
)

// AdminService drives the admin side of team formation: collection
// lifecycle, phase transitions and direct team adjustments. Phase
// transitions share the same per-collection mutex as participant
// writes, so a finalize holds the collection exclusively.
type AdminService struct {
	repo       formation.Repository
	reportRepo report.Repository
	locks      *resilience.KeyedMutex
	idGen      id.Generator
	rules      formation.Rules
	now        func() time.Time
}

func NewAdminService(
	repo formation.Repository,
	reportRepo report.Repository,
	locks *resilience.KeyedMutex,
	idGen id.Generator,
	rules formation.Rules,
) *AdminService {
	return &AdminService{
		repo:       repo,
		reportRepo: reportRepo,
		locks:      locks,
		idGen:      idGen,
		rules:      rules,
		now:        time.Now,
	}
}

type CreateCollectionInput struct {
	RoomID         string
	Title          string
	Phase1Deadline *time.Time
}

func (s *AdminService) CreateCollection(ctx context.Context, input CreateCollectionInput) (formation.Collection, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AdminService.CreateCollection")
	defer span.End()

	collectionID, err := s.idGen.NewID()
	if err != nil {
		return formation.Collection{}, fmt.Errorf("generate collection id: %w", err)
	}

	now := s.now().UTC()
	collection := formation.Collection{
		ID:             collectionID,
		RoomID:         strings.TrimSpace(input.RoomID),
		Title:          strings.TrimSpace(input.Title),
		Phase:          formation.PhaseParticipation,
		IsOpen:         false,
		Phase1Deadline: input.Phase1Deadline,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := collection.ValidateBasic(); err != nil {
		return formation.Collection{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if err := s.repo.CreateCollection(ctx, collection); err != nil {
		return formation.Collection{}, fmt.Errorf("create collection: %w", err)
	}

	return collection, nil
}

type UpdateCollectionInput struct {
	CollectionID   string
	Title          *string
	Phase1Deadline *time.Time
	ClearDeadline  bool
}

func (s *AdminService) UpdateCollection(ctx context.Context, input UpdateCollectionInput) (formation.Collection, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AdminService.UpdateCollection")
	defer span.End()

	unlock := s.locks.Lock(strings.TrimSpace(input.CollectionID))
	defer unlock()

	collection, err := s.getCollection(ctx, input.CollectionID)
	if err != nil {
		return formation.Collection{}, err
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return formation.Collection{}, fmt.Errorf("%w: collection title is required", ErrInvalidInput)
		}
		collection.Title = title
	}
	if input.ClearDeadline {
		collection.Phase1Deadline = nil
	} else if input.Phase1Deadline != nil {
		collection.Phase1Deadline = input.Phase1Deadline
	}
	collection.UpdatedAt = s.now().UTC()

	if err := s.repo.UpdateCollection(ctx, collection); err != nil {
		return formation.Collection{}, fmt.Errorf("update collection: %w", err)
	}

	return collection, nil
}

// StartSelection moves a collection from participation to selection,
// freezing the rank order and per-participant performance from the
// given report. Eligibility for the whole phase is computed against
// this frozen snapshot.
func (s *AdminService) StartSelection(ctx context.Context, collectionID, reportID string) (formation.Collection, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AdminService.StartSelection")
	defer span.End()

	reportID = strings.TrimSpace(reportID)
	if reportID == "" {
		return formation.Collection{}, fmt.Errorf("%w: report id is required", ErrInvalidInput)
	}

	unlock := s.locks.Lock(strings.TrimSpace(collectionID))
	defer unlock()

	collection, err := s.getCollection(ctx, collectionID)
	if err != nil {
		return formation.Collection{}, err
	}
	if collection.Phase != formation.PhaseParticipation {
		return formation.Collection{}, fmt.Errorf("%w: selection can only start from phase %s, collection is in %s",
			ErrPhaseMismatch, formation.PhaseParticipation, collection.Phase)
	}

	stored, exists, err := s.reportRepo.Get(ctx, reportID)
	if err != nil {
		return formation.Collection{}, fmt.Errorf("get report: %w", err)
	}
	if !exists {
		return formation.Collection{}, fmt.Errorf("%w: report=%s", ErrNotFound, reportID)
	}

	rankOrder := make([]string, 0, len(stored.Leaderboard.Users))
	performance := make(map[string]formation.PerformanceEntry, len(stored.Leaderboard.Users))
	for _, user := range stored.Leaderboard.Users {
		rankOrder = append(rankOrder, user.Username)
		performance[user.Username] = formation.PerformanceEntry{
			Username:         user.Username,
			EffectiveSolved:  user.EffectiveSolved,
			EffectivePenalty: user.EffectivePenalty,
			TotalScore:       user.TotalScore,
			TotalPenalty:     user.TotalPenalty,
			AttendedCount:    user.AttendedCount,
		}
	}
	if len(rankOrder) == 0 {
		return formation.Collection{}, fmt.Errorf("%w: report %s has no participants", ErrInvalidInput, reportID)
	}

	collection.Phase = formation.PhaseSelection
	collection.IsOpen = true
	collection.ReportID = reportID
	collection.RankOrder = rankOrder
	collection.Performance = performance
	collection.UpdatedAt = s.now().UTC()

	if err := s.repo.UpdateCollection(ctx, collection); err != nil {
		return formation.Collection{}, fmt.Errorf("update collection: %w", err)
	}

	return collection, nil
}

// SetSelectionOpen pauses or resumes choice submission without leaving
// the selection phase.
func (s *AdminService) SetSelectionOpen(ctx context.Context, collectionID string, open bool) (formation.Collection, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AdminService.SetSelectionOpen")
	defer span.End()

	unlock := s.locks.Lock(strings.TrimSpace(collectionID))
	defer unlock()

	collection, err := s.getCollection(ctx, collectionID)
	if err != nil {
		return formation.Collection{}, err
	}
	if collection.Phase != formation.PhaseSelection {
		return formation.Collection{}, fmt.Errorf("%w: selection toggle requires phase %s, collection is in %s",
			ErrPhaseMismatch, formation.PhaseSelection, collection.Phase)
	}

	collection.IsOpen = open
	collection.UpdatedAt = s.now().UTC()

	if err := s.repo.UpdateCollection(ctx, collection); err != nil {
		return formation.Collection{}, fmt.Errorf("update collection: %w", err)
	}

	return collection, nil
}

// Finalize resolves submitted choices into teams and closes the
// collection. The per-collection lock is held for the whole resolution
// so no choice write can land mid-finalize.
func (s *AdminService) Finalize(ctx context.Context, collectionID string) ([]formation.FinalizedTeam, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AdminService.Finalize")
	defer span.End()

	unlock := s.locks.Lock(strings.TrimSpace(collectionID))
	defer unlock()

	collection, err := s.getCollection(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	if collection.Phase != formation.PhaseSelection || collection.Finalized {
		return nil, fmt.Errorf("%w: finalize requires phase %s, collection is in %s",
			ErrPhaseMismatch, formation.PhaseSelection, collection.Phase)
	}

	choices, err := s.repo.ListChoices(ctx, collection.ID)
	if err != nil {
		return nil, fmt.Errorf("list choices: %w", err)
	}

	teams := formation.ResolveTeams(collection, choices, s.rules)
	now := s.now().UTC()
	for i := range teams {
		teamID, err := s.idGen.NewID()
		if err != nil {
			return nil, fmt.Errorf("generate team id: %w", err)
		}
		teams[i].ID = teamID
		teams[i].CreatedAt = now
		teams[i].UpdatedAt = now
	}

	if err := s.repo.CreateFinalizedTeams(ctx, teams); err != nil {
		return nil, fmt.Errorf("create finalized teams: %w", err)
	}

	collection.Phase = formation.PhaseFinalized
	collection.Finalized = true
	collection.IsOpen = false
	collection.UpdatedAt = now
	if err := s.repo.UpdateCollection(ctx, collection); err != nil {
		return nil, fmt.Errorf("update collection: %w", err)
	}

	return teams, nil
}

// Unfinalize reopens selection. Teams created by choice resolution are
// removed; manually approved teams survive unless deleted explicitly.
func (s *AdminService) Unfinalize(ctx context.Context, collectionID string) (formation.Collection, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AdminService.Unfinalize")
	defer span.End()

	unlock := s.locks.Lock(strings.TrimSpace(collectionID))
	defer unlock()

	collection, err := s.getCollection(ctx, collectionID)
	if err != nil {
		return formation.Collection{}, err
	}
	if collection.Phase != formation.PhaseFinalized {
		return formation.Collection{}, fmt.Errorf("%w: unfinalize requires phase %s, collection is in %s",
			ErrPhaseMismatch, formation.PhaseFinalized, collection.Phase)
	}

	if err := s.repo.DeleteFinalizedTeamsBySource(ctx, collection.ID, formation.TeamSourceResolved); err != nil {
		return formation.Collection{}, fmt.Errorf("delete resolved teams: %w", err)
	}

	collection.Phase = formation.PhaseSelection
	collection.Finalized = false
	collection.IsOpen = true
	collection.UpdatedAt = s.now().UTC()
	if err := s.repo.UpdateCollection(ctx, collection); err != nil {
		return formation.Collection{}, fmt.Errorf("update collection: %w", err)
	}

	return collection, nil
}

// ApproveManualRequest reviews a pending manual team request and, on
// approval, creates the proposed team directly.
func (s *AdminService) ApproveManualRequest(ctx context.Context, requestID string) (formation.FinalizedTeam, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AdminService.ApproveManualRequest")
	defer span.End()

	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return formation.FinalizedTeam{}, fmt.Errorf("%w: request id is required", ErrInvalidInput)
	}

	request, exists, err := s.repo.GetManualRequest(ctx, requestID)
	if err != nil {
		return formation.FinalizedTeam{}, fmt.Errorf("get manual request: %w", err)
	}
	if !exists {
		return formation.FinalizedTeam{}, fmt.Errorf("%w: manual request=%s", ErrNotFound, requestID)
	}
	if request.Status != formation.ManualRequestPending {
		return formation.FinalizedTeam{}, fmt.Errorf("%w: manual request is already %s", ErrInvalidInput, request.Status)
	}

	unlock := s.locks.Lock(request.CollectionID)
	defer unlock()

	title := request.ProposedTitle
	if title == "" {
		title = fmt.Sprintf("Team %s", request.Username)
	}

	team, err := s.createManualTeam(ctx, request.CollectionID, title, request.DesiredMembers)
	if err != nil {
		return formation.FinalizedTeam{}, err
	}

	request.Status = formation.ManualRequestApproved
	request.UpdatedAt = s.now().UTC()
	if err := s.repo.UpdateManualRequest(ctx, request); err != nil {
		return formation.FinalizedTeam{}, fmt.Errorf("update manual request: %w", err)
	}

	return team, nil
}

func (s *AdminService) RejectManualRequest(ctx context.Context, requestID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.AdminService.RejectManualRequest")
	defer span.End()

	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return fmt.Errorf("%w: request id is required", ErrInvalidInput)
	}

	request, exists, err := s.repo.GetManualRequest(ctx, requestID)
	if err != nil {
		return fmt.Errorf("get manual request: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: manual request=%s", ErrNotFound, requestID)
	}
	if request.Status != formation.ManualRequestPending {
		return fmt.Errorf("%w: manual request is already %s", ErrInvalidInput, request.Status)
	}

	request.Status = formation.ManualRequestRejected
	request.UpdatedAt = s.now().UTC()
	if err := s.repo.UpdateManualRequest(ctx, request); err != nil {
		return fmt.Errorf("update manual request: %w", err)
	}

	return nil
}

func (s *AdminService) ListManualRequests(ctx context.Context, collectionID string) ([]formation.ManualRequest, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AdminService.ListManualRequests")
	defer span.End()

	if _, err := s.getCollection(ctx, collectionID); err != nil {
		return nil, err
	}

	items, err := s.repo.ListManualRequests(ctx, strings.TrimSpace(collectionID))
	if err != nil {
		return nil, fmt.Errorf("list manual requests: %w", err)
	}

	return items, nil
}

// ApproveManualTeam creates a team directly from an admin-supplied
// member list, bypassing both ranked resolution and the request queue.
func (s *AdminService) ApproveManualTeam(ctx context.Context, collectionID, teamTitle string, members []string) (formation.FinalizedTeam, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AdminService.ApproveManualTeam")
	defer span.End()

	unlock := s.locks.Lock(strings.TrimSpace(collectionID))
	defer unlock()

	return s.createManualTeam(ctx, collectionID, teamTitle, members)
}

func (s *AdminService) createManualTeam(ctx context.Context, collectionID, teamTitle string, members []string) (formation.FinalizedTeam, error) {
	collection, err := s.getCollection(ctx, collectionID)
	if err != nil {
		return formation.FinalizedTeam{}, err
	}

	teamTitle = strings.TrimSpace(teamTitle)
	if teamTitle == "" {
		return formation.FinalizedTeam{}, fmt.Errorf("%w: team title is required", ErrInvalidInput)
	}
	if err := formation.ValidateManualMembers(members, s.rules); err != nil {
		return formation.FinalizedTeam{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	teamID, err := s.idGen.NewID()
	if err != nil {
		return formation.FinalizedTeam{}, fmt.Errorf("generate team id: %w", err)
	}

	var combined float64
	for _, member := range members {
		combined += collection.Performance[member].EffectiveSolved
	}

	now := s.now().UTC()
	team := formation.FinalizedTeam{
		ID:            teamID,
		CollectionID:  collection.ID,
		TeamTitle:     teamTitle,
		Members:       members,
		CombinedScore: combined,
		Source:        formation.TeamSourceManual,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.CreateFinalizedTeams(ctx, []formation.FinalizedTeam{team}); err != nil {
		return formation.FinalizedTeam{}, fmt.Errorf("create manual team: %w", err)
	}

	return team, nil
}

func (s *AdminService) RenameTeam(ctx context.Context, teamID, title string) (formation.FinalizedTeam, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AdminService.RenameTeam")
	defer span.End()

	title = strings.TrimSpace(title)
	if title == "" {
		return formation.FinalizedTeam{}, fmt.Errorf("%w: team title is required", ErrInvalidInput)
	}

	return s.updateTeam(ctx, teamID, func(team *formation.FinalizedTeam) error {
		team.TeamTitle = title
		return nil
	})
}

func (s *AdminService) AssignCoach(ctx context.Context, teamID, coachUsername string) (formation.FinalizedTeam, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AdminService.AssignCoach")
	defer span.End()

	return s.updateTeam(ctx, teamID, func(team *formation.FinalizedTeam) error {
		team.CoachUsername = strings.TrimSpace(coachUsername)
		return nil
	})
}

// RemoveMember drops one member from a team and recomputes its
// combined score from the collection's frozen performance figures.
func (s *AdminService) RemoveMember(ctx context.Context, teamID, username string) (formation.FinalizedTeam, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AdminService.RemoveMember")
	defer span.End()

	username = strings.TrimSpace(username)
	if username == "" {
		return formation.FinalizedTeam{}, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}

	return s.updateTeam(ctx, teamID, func(team *formation.FinalizedTeam) error {
		remaining := make([]string, 0, len(team.Members))
		for _, member := range team.Members {
			if member == username {
				continue
			}
			remaining = append(remaining, member)
		}
		if len(remaining) == len(team.Members) {
			return fmt.Errorf("%w: %s is not a member of team %s", ErrNotFound, username, team.ID)
		}
		if len(remaining) == 0 {
			return fmt.Errorf("%w: cannot remove the last member, delete the team instead", ErrInvalidInput)
		}
		team.Members = remaining
		return nil
	})
}

func (s *AdminService) DeleteTeam(ctx context.Context, teamID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.AdminService.DeleteTeam")
	defer span.End()

	teamID = strings.TrimSpace(teamID)
	if teamID == "" {
		return fmt.Errorf("%w: team id is required", ErrInvalidInput)
	}

	team, exists, err := s.repo.GetFinalizedTeam(ctx, teamID)
	if err != nil {
		return fmt.Errorf("get finalized team: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: team=%s", ErrNotFound, teamID)
	}

	unlock := s.locks.Lock(team.CollectionID)
	defer unlock()

	if err := s.repo.DeleteFinalizedTeam(ctx, teamID); err != nil {
		return fmt.Errorf("delete finalized team: %w", err)
	}

	return nil
}

// DeleteCollection removes a collection and everything it owns:
// participation records, choices, manual requests and teams.
func (s *AdminService) DeleteCollection(ctx context.Context, collectionID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.AdminService.DeleteCollection")
	defer span.End()

	unlock := s.locks.Lock(strings.TrimSpace(collectionID))
	defer unlock()

	collection, err := s.getCollection(ctx, collectionID)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteCollection(ctx, collection.ID); err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}

	return nil
}

func (s *AdminService) updateTeam(ctx context.Context, teamID string, mutate func(*formation.FinalizedTeam) error) (formation.FinalizedTeam, error) {
	teamID = strings.TrimSpace(teamID)
	if teamID == "" {
		return formation.FinalizedTeam{}, fmt.Errorf("%w: team id is required", ErrInvalidInput)
	}

	team, exists, err := s.repo.GetFinalizedTeam(ctx, teamID)
	if err != nil {
		return formation.FinalizedTeam{}, fmt.Errorf("get finalized team: %w", err)
	}
	if !exists {
		return formation.FinalizedTeam{}, fmt.Errorf("%w: team=%s", ErrNotFound, teamID)
	}

	unlock := s.locks.Lock(team.CollectionID)
	defer unlock()

	if err := mutate(&team); err != nil {
		return formation.FinalizedTeam{}, err
	}

	collection, err := s.getCollection(ctx, team.CollectionID)
	if err != nil {
		return formation.FinalizedTeam{}, err
	}
	var combined float64
	for _, member := range team.Members {
		combined += collection.Performance[member].EffectiveSolved
	}
	team.CombinedScore = combined
	team.UpdatedAt = s.now().UTC()

	if err := s.repo.UpdateFinalizedTeam(ctx, team); err != nil {
		return formation.FinalizedTeam{}, fmt.Errorf("update finalized team: %w", err)
	}

	return team, nil
}

func (s *AdminService) getCollection(ctx context.Context, collectionID string) (formation.Collection, error) {
	collectionID = strings.TrimSpace(collectionID)
	if collectionID == "" {
		return formation.Collection{}, fmt.Errorf("%w: collection id is required", ErrInvalidInput)
	}

	collection, exists, err := s.repo.GetCollection(ctx, collectionID)
	if err != nil {
		return formation.Collection{}, fmt.Errorf("get collection: %w", err)
	}
	if !exists {
		return formation.Collection{}, fmt.Errorf("%w: collection=%s", ErrNotFound, collectionID)
	}

	return collection, nil
}
