package formation

import "context"

type Repository interface {
	CreateCollection(ctx context.Context, collection Collection) error
	GetCollection(ctx context.Context, id string) (Collection, bool, error)
	ListCollectionsByRoom(ctx context.Context, roomID string) ([]Collection, error)
	UpdateCollection(ctx context.Context, collection Collection) error
	DeleteCollection(ctx context.Context, id string) error

	UpsertParticipation(ctx context.Context, record ParticipationRecord) error
	GetParticipation(ctx context.Context, collectionID, username string) (ParticipationRecord, bool, error)
	ListParticipation(ctx context.Context, collectionID string) ([]ParticipationRecord, error)

	UpsertChoice(ctx context.Context, choice Choice) error
	GetChoice(ctx context.Context, collectionID, username string) (Choice, bool, error)
	ListChoices(ctx context.Context, collectionID string) ([]Choice, error)

	CreateManualRequest(ctx context.Context, request ManualRequest) error
	GetManualRequest(ctx context.Context, id string) (ManualRequest, bool, error)
	ListManualRequests(ctx context.Context, collectionID string) ([]ManualRequest, error)
	UpdateManualRequest(ctx context.Context, request ManualRequest) error

	CreateFinalizedTeams(ctx context.Context, teams []FinalizedTeam) error
	GetFinalizedTeam(ctx context.Context, id string) (FinalizedTeam, bool, error)
	ListFinalizedTeams(ctx context.Context, collectionID string) ([]FinalizedTeam, error)
	UpdateFinalizedTeam(ctx context.Context, team FinalizedTeam) error
	DeleteFinalizedTeam(ctx context.Context, id string) error
	DeleteFinalizedTeamsBySource(ctx context.Context, collectionID string, source TeamSource) error
}
