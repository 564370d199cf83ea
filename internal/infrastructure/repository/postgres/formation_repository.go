package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/algoclub/arena/internal/domain/formation"
	qb "github.com/algoclub/arena/internal/platform/querybuilder"
)

type FormationRepository struct {
	db *sqlx.DB
}

func NewFormationRepository(db *sqlx.DB) *FormationRepository {
	return &FormationRepository{db: db}
}

// performanceEntryJSON is the jsonb shape of one frozen participant
// statistic inside a collection row.
type performanceEntryJSON struct {
	Username         string  `json:"username"`
	EffectiveSolved  float64 `json:"effective_solved"`
	EffectivePenalty float64 `json:"effective_penalty"`
	TotalScore       float64 `json:"total_score"`
	TotalPenalty     float64 `json:"total_penalty"`
	AttendedCount    int     `json:"attended_count"`
}

func encodePerformance(performance map[string]formation.PerformanceEntry) (string, error) {
	out := make(map[string]performanceEntryJSON, len(performance))
	for username, entry := range performance {
		out[username] = performanceEntryJSON{
			Username:         entry.Username,
			EffectiveSolved:  entry.EffectiveSolved,
			EffectivePenalty: entry.EffectivePenalty,
			TotalScore:       entry.TotalScore,
			TotalPenalty:     entry.TotalPenalty,
			AttendedCount:    entry.AttendedCount,
		}
	}
	return encodeJSON(out)
}

func decodePerformance(raw string) (map[string]formation.PerformanceEntry, error) {
	decoded := make(map[string]performanceEntryJSON)
	if err := decodeJSON(raw, &decoded); err != nil {
		return nil, err
	}
	out := make(map[string]formation.PerformanceEntry, len(decoded))
	for username, entry := range decoded {
		out[username] = formation.PerformanceEntry{
			Username:         entry.Username,
			EffectiveSolved:  entry.EffectiveSolved,
			EffectivePenalty: entry.EffectivePenalty,
			TotalScore:       entry.TotalScore,
			TotalPenalty:     entry.TotalPenalty,
			AttendedCount:    entry.AttendedCount,
		}
	}
	return out, nil
}

func collectionFromRow(row collectionTableModel) (formation.Collection, error) {
	performance, err := decodePerformance(row.Performance)
	if err != nil {
		return formation.Collection{}, fmt.Errorf("collection %s: %w", row.PublicID, err)
	}

	return formation.Collection{
		ID:             row.PublicID,
		RoomID:         row.RoomID,
		Title:          row.Title,
		Phase:          formation.Phase(row.Phase),
		IsOpen:         row.IsOpen,
		Finalized:      row.Finalized,
		Phase1Deadline: row.Phase1Deadline,
		ReportID:       row.ReportID,
		RankOrder:      []string(row.RankOrder),
		Performance:    performance,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}, nil
}

func (r *FormationRepository) CreateCollection(ctx context.Context, collection formation.Collection) error {
	performance, err := encodePerformance(collection.Performance)
	if err != nil {
		return fmt.Errorf("encode collection performance: %w", err)
	}
	insertModel := collectionInsertModel{
		PublicID:       collection.ID,
		RoomID:         collection.RoomID,
		Title:          collection.Title,
		Phase:          int(collection.Phase),
		IsOpen:         collection.IsOpen,
		Finalized:      collection.Finalized,
		Phase1Deadline: collection.Phase1Deadline,
		ReportID:       collection.ReportID,
		RankOrder:      pq.StringArray(collection.RankOrder),
		Performance:    performance,
	}
	query, args, err := qb.InsertModel("team_collections", insertModel, "")
	if err != nil {
		return fmt.Errorf("build create collection query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("create collection: %w", err)
	}

	return nil
}

func (r *FormationRepository) GetCollection(ctx context.Context, id string) (formation.Collection, bool, error) {
	query, args, err := qb.Select("*").From("team_collections").
		Where(
			qb.Eq("public_id", id),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return formation.Collection{}, false, fmt.Errorf("build get collection query: %w", err)
	}

	var row collectionTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return formation.Collection{}, false, nil
		}
		return formation.Collection{}, false, fmt.Errorf("get collection: %w", err)
	}

	collection, err := collectionFromRow(row)
	if err != nil {
		return formation.Collection{}, false, err
	}
	return collection, true, nil
}

func (r *FormationRepository) ListCollectionsByRoom(ctx context.Context, roomID string) ([]formation.Collection, error) {
	query, args, err := qb.Select("*").From("team_collections").
		Where(
			qb.Eq("room_id", roomID),
			qb.IsNull("deleted_at"),
		).
		OrderBy("created_at DESC", "id DESC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list collections query: %w", err)
	}

	var rows []collectionTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list collections by room: %w", err)
	}

	out := make([]formation.Collection, 0, len(rows))
	for _, row := range rows {
		collection, err := collectionFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, collection)
	}
	return out, nil
}

func (r *FormationRepository) UpdateCollection(ctx context.Context, collection formation.Collection) error {
	performance, err := encodePerformance(collection.Performance)
	if err != nil {
		return fmt.Errorf("encode collection performance: %w", err)
	}

	query, args, err := qb.Update("team_collections").
		Set("title", collection.Title).
		Set("phase", int(collection.Phase)).
		Set("is_open", collection.IsOpen).
		Set("finalized", collection.Finalized).
		Set("phase1_deadline", collection.Phase1Deadline).
		Set("report_public_id", collection.ReportID).
		Set("rank_order", pq.StringArray(collection.RankOrder)).
		Set("performance", performance).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("public_id", collection.ID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update collection query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update collection: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected update collection: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update collection: not found")
	}

	return nil
}

func (r *FormationRepository) DeleteCollection(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx delete collection: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	deleteCollectionQuery, deleteCollectionArgs, err := qb.Update("team_collections").
		SetExpr("deleted_at", "NOW()").
		Where(
			qb.Eq("public_id", id),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build delete collection query: %w", err)
	}
	deleteResult, err := tx.ExecContext(ctx, deleteCollectionQuery, deleteCollectionArgs...)
	if err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	affected, err := deleteResult.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected delete collection: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("delete collection: not found")
	}

	for _, table := range []string{"team_participation", "team_choices", "manual_team_requests", "finalized_teams"} {
		query, args, err := qb.Update(table).
			SetExpr("deleted_at", "NOW()").
			Where(
				qb.Eq("collection_public_id", id),
				qb.IsNull("deleted_at"),
			).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build cascade delete %s query: %w", table, err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("cascade delete %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete collection tx: %w", err)
	}

	return nil
}

func (r *FormationRepository) UpsertParticipation(ctx context.Context, record formation.ParticipationRecord) error {
	insertModel := participationInsertModel{
		CollectionID:    record.CollectionID,
		Username:        record.Username,
		WillParticipate: record.WillParticipate,
	}
	query, args, err := qb.InsertModel("team_participation", insertModel, `ON CONFLICT (collection_public_id, username) WHERE deleted_at IS NULL
DO UPDATE SET
    will_participate = EXCLUDED.will_participate,
    updated_at = NOW()`)
	if err != nil {
		return fmt.Errorf("build upsert participation query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert participation: %w", err)
	}

	return nil
}

func (r *FormationRepository) GetParticipation(ctx context.Context, collectionID, username string) (formation.ParticipationRecord, bool, error) {
	query, args, err := qb.Select("*").From("team_participation").
		Where(
			qb.Eq("collection_public_id", collectionID),
			qb.Eq("username", username),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return formation.ParticipationRecord{}, false, fmt.Errorf("build get participation query: %w", err)
	}

	var row participationTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return formation.ParticipationRecord{}, false, nil
		}
		return formation.ParticipationRecord{}, false, fmt.Errorf("get participation: %w", err)
	}

	return formation.ParticipationRecord{
		CollectionID:    row.CollectionID,
		Username:        row.Username,
		WillParticipate: row.WillParticipate,
		UpdatedAt:       row.UpdatedAt,
	}, true, nil
}

func (r *FormationRepository) ListParticipation(ctx context.Context, collectionID string) ([]formation.ParticipationRecord, error) {
	query, args, err := qb.Select("*").From("team_participation").
		Where(
			qb.Eq("collection_public_id", collectionID),
			qb.IsNull("deleted_at"),
		).
		OrderBy("username ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list participation query: %w", err)
	}

	var rows []participationTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list participation: %w", err)
	}

	out := make([]formation.ParticipationRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, formation.ParticipationRecord{
			CollectionID:    row.CollectionID,
			Username:        row.Username,
			WillParticipate: row.WillParticipate,
			UpdatedAt:       row.UpdatedAt,
		})
	}
	return out, nil
}

func (r *FormationRepository) UpsertChoice(ctx context.Context, choice formation.Choice) error {
	insertModel := choiceInsertModel{
		CollectionID:   choice.CollectionID,
		Username:       choice.Username,
		TeamTitle:      choice.TeamTitle,
		OrderedChoices: pq.StringArray(choice.OrderedChoices),
	}
	query, args, err := qb.InsertModel("team_choices", insertModel, `ON CONFLICT (collection_public_id, username) WHERE deleted_at IS NULL
DO UPDATE SET
    team_title = EXCLUDED.team_title,
    ordered_choices = EXCLUDED.ordered_choices,
    updated_at = NOW()`)
	if err != nil {
		return fmt.Errorf("build upsert choice query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert choice: %w", err)
	}

	return nil
}

func (r *FormationRepository) GetChoice(ctx context.Context, collectionID, username string) (formation.Choice, bool, error) {
	query, args, err := qb.Select("*").From("team_choices").
		Where(
			qb.Eq("collection_public_id", collectionID),
			qb.Eq("username", username),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return formation.Choice{}, false, fmt.Errorf("build get choice query: %w", err)
	}

	var row choiceTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return formation.Choice{}, false, nil
		}
		return formation.Choice{}, false, fmt.Errorf("get choice: %w", err)
	}

	return choiceFromRow(row), true, nil
}

func (r *FormationRepository) ListChoices(ctx context.Context, collectionID string) ([]formation.Choice, error) {
	query, args, err := qb.Select("*").From("team_choices").
		Where(
			qb.Eq("collection_public_id", collectionID),
			qb.IsNull("deleted_at"),
		).
		OrderBy("username ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list choices query: %w", err)
	}

	var rows []choiceTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list choices: %w", err)
	}

	out := make([]formation.Choice, 0, len(rows))
	for _, row := range rows {
		out = append(out, choiceFromRow(row))
	}
	return out, nil
}

func choiceFromRow(row choiceTableModel) formation.Choice {
	return formation.Choice{
		CollectionID:   row.CollectionID,
		Username:       row.Username,
		TeamTitle:      row.TeamTitle,
		OrderedChoices: []string(row.OrderedChoices),
		UpdatedAt:      row.UpdatedAt,
	}
}

func (r *FormationRepository) CreateManualRequest(ctx context.Context, request formation.ManualRequest) error {
	insertModel := manualRequestInsertModel{
		PublicID:       request.ID,
		CollectionID:   request.CollectionID,
		Username:       request.Username,
		ProposedTitle:  request.ProposedTitle,
		DesiredMembers: pq.StringArray(request.DesiredMembers),
		Note:           request.Note,
		Status:         string(request.Status),
	}
	query, args, err := qb.InsertModel("manual_team_requests", insertModel, "")
	if err != nil {
		return fmt.Errorf("build create manual request query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("create manual request: %w", err)
	}

	return nil
}

func (r *FormationRepository) GetManualRequest(ctx context.Context, id string) (formation.ManualRequest, bool, error) {
	query, args, err := qb.Select("*").From("manual_team_requests").
		Where(
			qb.Eq("public_id", id),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return formation.ManualRequest{}, false, fmt.Errorf("build get manual request query: %w", err)
	}

	var row manualRequestTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return formation.ManualRequest{}, false, nil
		}
		return formation.ManualRequest{}, false, fmt.Errorf("get manual request: %w", err)
	}

	return manualRequestFromRow(row), true, nil
}

func (r *FormationRepository) ListManualRequests(ctx context.Context, collectionID string) ([]formation.ManualRequest, error) {
	query, args, err := qb.Select("*").From("manual_team_requests").
		Where(
			qb.Eq("collection_public_id", collectionID),
			qb.IsNull("deleted_at"),
		).
		OrderBy("created_at ASC", "id ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list manual requests query: %w", err)
	}

	var rows []manualRequestTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list manual requests: %w", err)
	}

	out := make([]formation.ManualRequest, 0, len(rows))
	for _, row := range rows {
		out = append(out, manualRequestFromRow(row))
	}
	return out, nil
}

func (r *FormationRepository) UpdateManualRequest(ctx context.Context, request formation.ManualRequest) error {
	query, args, err := qb.Update("manual_team_requests").
		Set("proposed_title", request.ProposedTitle).
		Set("desired_members", pq.StringArray(request.DesiredMembers)).
		Set("note", request.Note).
		Set("status", string(request.Status)).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("public_id", request.ID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update manual request query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update manual request: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected update manual request: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update manual request: not found")
	}

	return nil
}

func manualRequestFromRow(row manualRequestTableModel) formation.ManualRequest {
	return formation.ManualRequest{
		ID:             row.PublicID,
		CollectionID:   row.CollectionID,
		Username:       row.Username,
		ProposedTitle:  row.ProposedTitle,
		DesiredMembers: []string(row.DesiredMembers),
		Note:           row.Note,
		Status:         formation.ManualRequestStatus(row.Status),
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
}

func (r *FormationRepository) CreateFinalizedTeams(ctx context.Context, teams []formation.FinalizedTeam) error {
	if len(teams) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx create finalized teams: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, team := range teams {
		insertModel := finalizedTeamInsertModel{
			PublicID:      team.ID,
			CollectionID:  team.CollectionID,
			TeamTitle:     team.TeamTitle,
			Members:       pq.StringArray(team.Members),
			CoachUsername: team.CoachUsername,
			CombinedScore: team.CombinedScore,
			Source:        string(team.Source),
		}
		query, args, err := qb.InsertModel("finalized_teams", insertModel, "")
		if err != nil {
			return fmt.Errorf("build create finalized team query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("create finalized team %s: %w", team.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create finalized teams tx: %w", err)
	}

	return nil
}

func (r *FormationRepository) GetFinalizedTeam(ctx context.Context, id string) (formation.FinalizedTeam, bool, error) {
	query, args, err := qb.Select("*").From("finalized_teams").
		Where(
			qb.Eq("public_id", id),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return formation.FinalizedTeam{}, false, fmt.Errorf("build get finalized team query: %w", err)
	}

	var row finalizedTeamTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return formation.FinalizedTeam{}, false, nil
		}
		return formation.FinalizedTeam{}, false, fmt.Errorf("get finalized team: %w", err)
	}

	return finalizedTeamFromRow(row), true, nil
}

func (r *FormationRepository) ListFinalizedTeams(ctx context.Context, collectionID string) ([]formation.FinalizedTeam, error) {
	query, args, err := qb.Select("*").From("finalized_teams").
		Where(
			qb.Eq("collection_public_id", collectionID),
			qb.IsNull("deleted_at"),
		).
		OrderBy("combined_score DESC", "team_title ASC", "id ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list finalized teams query: %w", err)
	}

	var rows []finalizedTeamTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list finalized teams: %w", err)
	}

	out := make([]formation.FinalizedTeam, 0, len(rows))
	for _, row := range rows {
		out = append(out, finalizedTeamFromRow(row))
	}
	return out, nil
}

func (r *FormationRepository) UpdateFinalizedTeam(ctx context.Context, team formation.FinalizedTeam) error {
	query, args, err := qb.Update("finalized_teams").
		Set("team_title", team.TeamTitle).
		Set("members", pq.StringArray(team.Members)).
		Set("coach_username", team.CoachUsername).
		Set("combined_score", team.CombinedScore).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("public_id", team.ID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update finalized team query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update finalized team: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected update finalized team: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update finalized team: not found")
	}

	return nil
}

func (r *FormationRepository) DeleteFinalizedTeam(ctx context.Context, id string) error {
	query, args, err := qb.Update("finalized_teams").
		SetExpr("deleted_at", "NOW()").
		Where(
			qb.Eq("public_id", id),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build delete finalized team query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete finalized team: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected delete finalized team: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("delete finalized team: not found")
	}

	return nil
}

func (r *FormationRepository) DeleteFinalizedTeamsBySource(ctx context.Context, collectionID string, source formation.TeamSource) error {
	query, args, err := qb.Update("finalized_teams").
		SetExpr("deleted_at", "NOW()").
		Where(
			qb.Eq("collection_public_id", collectionID),
			qb.Eq("source", string(source)),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build delete finalized teams by source query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete finalized teams by source: %w", err)
	}

	return nil
}

func finalizedTeamFromRow(row finalizedTeamTableModel) formation.FinalizedTeam {
	return formation.FinalizedTeam{
		ID:            row.PublicID,
		CollectionID:  row.CollectionID,
		TeamTitle:     row.TeamTitle,
		Members:       []string(row.Members),
		CoachUsername: row.CoachUsername,
		CombinedScore: row.CombinedScore,
		Source:        formation.TeamSource(row.Source),
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
}
