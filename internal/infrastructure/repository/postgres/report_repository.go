package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/algoclub/arena/internal/domain/leaderboard"
	"github.com/algoclub/arena/internal/domain/report"
	qb "github.com/algoclub/arena/internal/platform/querybuilder"
)

type ReportRepository struct {
	db *sqlx.DB
}

func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// reportPayload is the jsonb body of a stored report: everything that
// is not worth its own column.
type reportPayload struct {
	Weights     map[string]float64               `json:"weights,omitempty"`
	Demerits    map[string][]leaderboard.Demerit `json:"demerits,omitempty"`
	Leaderboard leaderboard.Merged               `json:"leaderboard"`
}

func (r *ReportRepository) Save(ctx context.Context, item report.Report) error {
	payload, err := encodeJSON(reportPayload{
		Weights:     item.Weights,
		Demerits:    item.Demerits,
		Leaderboard: item.Leaderboard,
	})
	if err != nil {
		return fmt.Errorf("encode report payload: %w", err)
	}

	insertModel := reportInsertModel{
		PublicID:    item.ID,
		Title:       item.Title,
		ContestIDs:  pq.StringArray(item.ContestIDs),
		Payload:     payload,
		GeneratedAt: item.GeneratedAt,
	}
	query, args, err := qb.InsertModel("leaderboard_reports", insertModel, "")
	if err != nil {
		return fmt.Errorf("build save report query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save report: %w", err)
	}

	return nil
}

func (r *ReportRepository) Get(ctx context.Context, id string) (report.Report, bool, error) {
	query, args, err := qb.Select("*").From("leaderboard_reports").
		Where(
			qb.Eq("public_id", id),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return report.Report{}, false, fmt.Errorf("build get report query: %w", err)
	}

	var row reportTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return report.Report{}, false, nil
		}
		return report.Report{}, false, fmt.Errorf("get report: %w", err)
	}

	item, err := reportFromRow(row)
	if err != nil {
		return report.Report{}, false, err
	}
	return item, true, nil
}

func (r *ReportRepository) List(ctx context.Context, limit int) ([]report.Report, error) {
	query, args, err := qb.Select("*").From("leaderboard_reports").
		Where(qb.IsNull("deleted_at")).
		OrderBy("generated_at DESC", "id DESC").
		Limit(limit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list reports query: %w", err)
	}

	var rows []reportTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}

	out := make([]report.Report, 0, len(rows))
	for _, row := range rows {
		item, err := reportFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

func reportFromRow(row reportTableModel) (report.Report, error) {
	var payload reportPayload
	if err := decodeJSON(row.Payload, &payload); err != nil {
		return report.Report{}, fmt.Errorf("report %s: %w", row.PublicID, err)
	}

	return report.Report{
		ID:          row.PublicID,
		Title:       row.Title,
		ContestIDs:  []string(row.ContestIDs),
		Weights:     payload.Weights,
		Demerits:    payload.Demerits,
		Leaderboard: payload.Leaderboard,
		GeneratedAt: row.GeneratedAt,
	}, nil
}
