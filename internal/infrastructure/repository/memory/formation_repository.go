package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/algoclub/arena/internal/domain/formation"
)

// FormationRepository keeps the whole formation graph in process
// memory. It backs tests and local development.
type FormationRepository struct {
	mu             sync.RWMutex
	collections    map[string]formation.Collection
	participation  map[string]map[string]formation.ParticipationRecord
	choices        map[string]map[string]formation.Choice
	manualRequests map[string]formation.ManualRequest
	teams          map[string]formation.FinalizedTeam
}

func NewFormationRepository() *FormationRepository {
	return &FormationRepository{
		collections:    make(map[string]formation.Collection),
		participation:  make(map[string]map[string]formation.ParticipationRecord),
		choices:        make(map[string]map[string]formation.Choice),
		manualRequests: make(map[string]formation.ManualRequest),
		teams:          make(map[string]formation.FinalizedTeam),
	}
}

func (r *FormationRepository) CreateCollection(_ context.Context, collection formation.Collection) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.collections[collection.ID] = cloneCollection(collection)
	return nil
}

func (r *FormationRepository) GetCollection(_ context.Context, id string) (formation.Collection, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	collection, ok := r.collections[id]
	if !ok {
		return formation.Collection{}, false, nil
	}

	return cloneCollection(collection), true, nil
}

func (r *FormationRepository) ListCollectionsByRoom(_ context.Context, roomID string) ([]formation.Collection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]formation.Collection, 0)
	for _, collection := range r.collections {
		if collection.RoomID != roomID {
			continue
		}
		out = append(out, cloneCollection(collection))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})

	return out, nil
}

func (r *FormationRepository) UpdateCollection(_ context.Context, collection formation.Collection) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.collections[collection.ID] = cloneCollection(collection)
	return nil
}

// DeleteCollection removes the collection and all records it owns.
func (r *FormationRepository) DeleteCollection(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.collections, id)
	delete(r.participation, id)
	delete(r.choices, id)
	for requestID, request := range r.manualRequests {
		if request.CollectionID == id {
			delete(r.manualRequests, requestID)
		}
	}
	for teamID, team := range r.teams {
		if team.CollectionID == id {
			delete(r.teams, teamID)
		}
	}

	return nil
}

func (r *FormationRepository) UpsertParticipation(_ context.Context, record formation.ParticipationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	byUser, ok := r.participation[record.CollectionID]
	if !ok {
		byUser = make(map[string]formation.ParticipationRecord)
		r.participation[record.CollectionID] = byUser
	}
	byUser[record.Username] = record

	return nil
}

func (r *FormationRepository) GetParticipation(_ context.Context, collectionID, username string) (formation.ParticipationRecord, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.participation[collectionID][username]
	if !ok {
		return formation.ParticipationRecord{}, false, nil
	}

	return record, true, nil
}

func (r *FormationRepository) ListParticipation(_ context.Context, collectionID string) ([]formation.ParticipationRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]formation.ParticipationRecord, 0, len(r.participation[collectionID]))
	for _, record := range r.participation[collectionID] {
		out = append(out, record)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Username < out[j].Username
	})

	return out, nil
}

func (r *FormationRepository) UpsertChoice(_ context.Context, choice formation.Choice) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	byUser, ok := r.choices[choice.CollectionID]
	if !ok {
		byUser = make(map[string]formation.Choice)
		r.choices[choice.CollectionID] = byUser
	}
	byUser[choice.Username] = cloneChoice(choice)

	return nil
}

func (r *FormationRepository) GetChoice(_ context.Context, collectionID, username string) (formation.Choice, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	choice, ok := r.choices[collectionID][username]
	if !ok {
		return formation.Choice{}, false, nil
	}

	return cloneChoice(choice), true, nil
}

func (r *FormationRepository) ListChoices(_ context.Context, collectionID string) ([]formation.Choice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]formation.Choice, 0, len(r.choices[collectionID]))
	for _, choice := range r.choices[collectionID] {
		out = append(out, cloneChoice(choice))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Username < out[j].Username
	})

	return out, nil
}

func (r *FormationRepository) CreateManualRequest(_ context.Context, request formation.ManualRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.manualRequests[request.ID] = cloneManualRequest(request)
	return nil
}

func (r *FormationRepository) GetManualRequest(_ context.Context, id string) (formation.ManualRequest, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	request, ok := r.manualRequests[id]
	if !ok {
		return formation.ManualRequest{}, false, nil
	}

	return cloneManualRequest(request), true, nil
}

func (r *FormationRepository) ListManualRequests(_ context.Context, collectionID string) ([]formation.ManualRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]formation.ManualRequest, 0)
	for _, request := range r.manualRequests {
		if request.CollectionID != collectionID {
			continue
		}
		out = append(out, cloneManualRequest(request))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})

	return out, nil
}

func (r *FormationRepository) UpdateManualRequest(_ context.Context, request formation.ManualRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.manualRequests[request.ID] = cloneManualRequest(request)
	return nil
}

func (r *FormationRepository) CreateFinalizedTeams(_ context.Context, teams []formation.FinalizedTeam) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, team := range teams {
		r.teams[team.ID] = cloneTeam(team)
	}

	return nil
}

func (r *FormationRepository) GetFinalizedTeam(_ context.Context, id string) (formation.FinalizedTeam, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	team, ok := r.teams[id]
	if !ok {
		return formation.FinalizedTeam{}, false, nil
	}

	return cloneTeam(team), true, nil
}

func (r *FormationRepository) ListFinalizedTeams(_ context.Context, collectionID string) ([]formation.FinalizedTeam, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]formation.FinalizedTeam, 0)
	for _, team := range r.teams {
		if team.CollectionID != collectionID {
			continue
		}
		out = append(out, cloneTeam(team))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})

	return out, nil
}

func (r *FormationRepository) UpdateFinalizedTeam(_ context.Context, team formation.FinalizedTeam) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.teams[team.ID] = cloneTeam(team)
	return nil
}

func (r *FormationRepository) DeleteFinalizedTeam(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.teams, id)
	return nil
}

func (r *FormationRepository) DeleteFinalizedTeamsBySource(_ context.Context, collectionID string, source formation.TeamSource) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for teamID, team := range r.teams {
		if team.CollectionID == collectionID && team.Source == source {
			delete(r.teams, teamID)
		}
	}

	return nil
}

func cloneCollection(collection formation.Collection) formation.Collection {
	out := collection
	out.RankOrder = append([]string(nil), collection.RankOrder...)
	if collection.Performance != nil {
		out.Performance = make(map[string]formation.PerformanceEntry, len(collection.Performance))
		for username, entry := range collection.Performance {
			out.Performance[username] = entry
		}
	}
	if collection.Phase1Deadline != nil {
		deadline := *collection.Phase1Deadline
		out.Phase1Deadline = &deadline
	}
	return out
}

func cloneChoice(choice formation.Choice) formation.Choice {
	out := choice
	out.OrderedChoices = append([]string(nil), choice.OrderedChoices...)
	return out
}

func cloneManualRequest(request formation.ManualRequest) formation.ManualRequest {
	out := request
	out.DesiredMembers = append([]string(nil), request.DesiredMembers...)
	return out
}

func cloneTeam(team formation.FinalizedTeam) formation.FinalizedTeam {
	out := team
	out.Members = append([]string(nil), team.Members...)
	return out
}
