package postgres

import (
	"time"

	"github.com/lib/pq"
)

type reportTableModel struct {
	ID          int64          `db:"id"`
	PublicID    string         `db:"public_id"`
	Title       string         `db:"title"`
	ContestIDs  pq.StringArray `db:"contest_ids"`
	Payload     string         `db:"payload"`
	GeneratedAt time.Time      `db:"generated_at"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
	DeletedAt   *time.Time     `db:"deleted_at"`
}

type reportInsertModel struct {
	PublicID    string         `db:"public_id"`
	Title       string         `db:"title"`
	ContestIDs  pq.StringArray `db:"contest_ids"`
	Payload     string         `db:"payload"`
	GeneratedAt time.Time      `db:"generated_at"`
}
