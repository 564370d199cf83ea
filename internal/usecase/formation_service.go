package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/algoclub/arena/internal/domain/formation"
	"github.com/algoclub/arena/internal/platform/id"
	"github.com/algoclub/arena/internal/platform/resilience"
)

// FormationService runs the participant side of the team formation
// workflow. All state-changing calls serialize on a per-collection
// mutex so choice writes never interleave with each other or with a
// running finalize.
type FormationService struct {
	repo  formation.Repository
	locks *resilience.KeyedMutex
	idGen id.Generator
	rules formation.Rules
	now   func() time.Time
}

func NewFormationService(repo formation.Repository, locks *resilience.KeyedMutex, idGen id.Generator, rules formation.Rules) *FormationService {
	return &FormationService{
		repo:  repo,
		locks: locks,
		idGen: idGen,
		rules: rules,
		now:   time.Now,
	}
}

func (s *FormationService) ListCollections(ctx context.Context, roomID string) ([]formation.Collection, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FormationService.ListCollections")
	defer span.End()

	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		return nil, fmt.Errorf("%w: room id is required", ErrInvalidInput)
	}

	items, err := s.repo.ListCollectionsByRoom(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}

	return items, nil
}

func (s *FormationService) GetCollection(ctx context.Context, collectionID string) (formation.Collection, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FormationService.GetCollection")
	defer span.End()

	return s.getCollection(ctx, collectionID)
}

// SetParticipation records the participant's opt-in toggle. It is only
// writable during the participation phase and before the deadline.
func (s *FormationService) SetParticipation(ctx context.Context, collectionID, username string, willParticipate bool) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.FormationService.SetParticipation")
	defer span.End()

	collectionID = strings.TrimSpace(collectionID)
	username = strings.TrimSpace(username)
	if collectionID == "" {
		return fmt.Errorf("%w: collection id is required", ErrInvalidInput)
	}
	if username == "" {
		return fmt.Errorf("%w: username is required", ErrInvalidInput)
	}

	unlock := s.locks.Lock(collectionID)
	defer unlock()

	collection, err := s.getCollection(ctx, collectionID)
	if err != nil {
		return err
	}
	if collection.Phase != formation.PhaseParticipation {
		return fmt.Errorf("%w: participation toggles are only accepted in phase %s, collection is in %s",
			ErrPhaseMismatch, formation.PhaseParticipation, collection.Phase)
	}
	if collection.ParticipationDeadlinePassed(s.now()) {
		return fmt.Errorf("%w: participation deadline has passed", ErrPhaseMismatch)
	}

	record := formation.ParticipationRecord{
		CollectionID:    collectionID,
		Username:        username,
		WillParticipate: willParticipate,
		UpdatedAt:       s.now().UTC(),
	}
	if err := s.repo.UpsertParticipation(ctx, record); err != nil {
		return fmt.Errorf("upsert participation: %w", err)
	}

	return nil
}

// Eligibility returns the teammate candidates the participant may rank,
// computed against the collection's frozen rank order.
func (s *FormationService) Eligibility(ctx context.Context, collectionID, username string) ([]string, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FormationService.Eligibility")
	defer span.End()

	collectionID = strings.TrimSpace(collectionID)
	username = strings.TrimSpace(username)
	if collectionID == "" {
		return nil, fmt.Errorf("%w: collection id is required", ErrInvalidInput)
	}
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}

	collection, err := s.getCollection(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	if collection.Phase != formation.PhaseSelection {
		return nil, fmt.Errorf("%w: eligibility is only defined in phase %s, collection is in %s",
			ErrPhaseMismatch, formation.PhaseSelection, collection.Phase)
	}

	if err := s.requireRankedParticipant(ctx, collection, username); err != nil {
		return nil, err
	}

	return formation.Eligible(collection, username, s.rules), nil
}

// SubmitChoice stores the participant's ranked teammate preference.
// Resubmission replaces the previous choice as a whole.
func (s *FormationService) SubmitChoice(ctx context.Context, collectionID, username, teamTitle string, orderedChoices []string) (formation.Choice, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FormationService.SubmitChoice")
	defer span.End()

	collectionID = strings.TrimSpace(collectionID)
	username = strings.TrimSpace(username)
	if collectionID == "" {
		return formation.Choice{}, fmt.Errorf("%w: collection id is required", ErrInvalidInput)
	}
	if username == "" {
		return formation.Choice{}, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}

	unlock := s.locks.Lock(collectionID)
	defer unlock()

	collection, err := s.getCollection(ctx, collectionID)
	if err != nil {
		return formation.Choice{}, err
	}
	if collection.Phase != formation.PhaseSelection || collection.Finalized {
		return formation.Choice{}, fmt.Errorf("%w: choices are only accepted in phase %s, collection is in %s",
			ErrPhaseMismatch, formation.PhaseSelection, collection.Phase)
	}
	if !collection.IsOpen {
		return formation.Choice{}, fmt.Errorf("%w: selection is paused", ErrPhaseMismatch)
	}

	if err := s.requireRankedParticipant(ctx, collection, username); err != nil {
		return formation.Choice{}, err
	}

	if err := formation.ValidateChoices(username, orderedChoices, s.rules); err != nil {
		return formation.Choice{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	eligible := formation.Eligible(collection, username, s.rules)
	allowed := make(map[string]struct{}, len(eligible))
	for _, candidate := range eligible {
		allowed[candidate] = struct{}{}
	}
	for _, wanted := range orderedChoices {
		if _, ok := allowed[wanted]; !ok {
			return formation.Choice{}, fmt.Errorf("%w: %s is outside the eligibility window", ErrInvalidInput, wanted)
		}
	}

	choice := formation.Choice{
		CollectionID:   collectionID,
		Username:       username,
		TeamTitle:      strings.TrimSpace(teamTitle),
		OrderedChoices: orderedChoices,
		UpdatedAt:      s.now().UTC(),
	}
	if err := s.repo.UpsertChoice(ctx, choice); err != nil {
		return formation.Choice{}, fmt.Errorf("upsert choice: %w", err)
	}

	return choice, nil
}

// SubmitManualRequest files a fixed-team proposal for admin review.
// This path is open to any room member, eligible or not; approval is
// what actually creates the team.
func (s *FormationService) SubmitManualRequest(ctx context.Context, collectionID, username, proposedTitle string, desiredMembers []string, note string) (formation.ManualRequest, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FormationService.SubmitManualRequest")
	defer span.End()

	collectionID = strings.TrimSpace(collectionID)
	username = strings.TrimSpace(username)
	if collectionID == "" {
		return formation.ManualRequest{}, fmt.Errorf("%w: collection id is required", ErrInvalidInput)
	}
	if username == "" {
		return formation.ManualRequest{}, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}

	collection, err := s.getCollection(ctx, collectionID)
	if err != nil {
		return formation.ManualRequest{}, err
	}
	if collection.Finalized {
		return formation.ManualRequest{}, fmt.Errorf("%w: collection is finalized", ErrPhaseMismatch)
	}

	if err := formation.ValidateManualMembers(desiredMembers, s.rules); err != nil {
		return formation.ManualRequest{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	requestID, err := s.idGen.NewID()
	if err != nil {
		return formation.ManualRequest{}, fmt.Errorf("generate request id: %w", err)
	}

	request := formation.ManualRequest{
		ID:             requestID,
		CollectionID:   collectionID,
		Username:       username,
		ProposedTitle:  strings.TrimSpace(proposedTitle),
		DesiredMembers: desiredMembers,
		Note:           strings.TrimSpace(note),
		Status:         formation.ManualRequestPending,
		CreatedAt:      s.now().UTC(),
		UpdatedAt:      s.now().UTC(),
	}
	if err := s.repo.CreateManualRequest(ctx, request); err != nil {
		return formation.ManualRequest{}, fmt.Errorf("create manual request: %w", err)
	}

	return request, nil
}

func (s *FormationService) ListFinalizedTeams(ctx context.Context, collectionID string) ([]formation.FinalizedTeam, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FormationService.ListFinalizedTeams")
	defer span.End()

	collectionID = strings.TrimSpace(collectionID)
	if collectionID == "" {
		return nil, fmt.Errorf("%w: collection id is required", ErrInvalidInput)
	}
	if _, err := s.getCollection(ctx, collectionID); err != nil {
		return nil, err
	}

	teams, err := s.repo.ListFinalizedTeams(ctx, collectionID)
	if err != nil {
		return nil, fmt.Errorf("list finalized teams: %w", err)
	}

	return teams, nil
}

func (s *FormationService) getCollection(ctx context.Context, collectionID string) (formation.Collection, error) {
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

// requireRankedParticipant gates ranked selection: the caller must
// have opted in and be present in the frozen rank order. Everyone else
// is routed to the manual request path.
func (s *FormationService) requireRankedParticipant(ctx context.Context, collection formation.Collection, username string) error {
	record, exists, err := s.repo.GetParticipation(ctx, collection.ID, username)
	if err != nil {
		return fmt.Errorf("get participation: %w", err)
	}
	if !exists || !record.WillParticipate {
		return fmt.Errorf("%w: %s has not opted into this collection", ErrNotEligible, username)
	}

	for _, ranked := range collection.RankOrder {
		if ranked == username {
			return nil
		}
	}

	return fmt.Errorf("%w: %s is not in the collection ranking", ErrNotEligible, username)
}
