package postgres

import (
	"time"

	"github.com/lib/pq"
)

type collectionTableModel struct {
	ID             int64          `db:"id"`
	PublicID       string         `db:"public_id"`
	RoomID         string         `db:"room_id"`
	Title          string         `db:"title"`
	Phase          int            `db:"phase"`
	IsOpen         bool           `db:"is_open"`
	Finalized      bool           `db:"finalized"`
	Phase1Deadline *time.Time     `db:"phase1_deadline"`
	ReportID       string         `db:"report_public_id"`
	RankOrder      pq.StringArray `db:"rank_order"`
	Performance    string         `db:"performance"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
	DeletedAt      *time.Time     `db:"deleted_at"`
}

type collectionInsertModel struct {
	PublicID       string         `db:"public_id"`
	RoomID         string         `db:"room_id"`
	Title          string         `db:"title"`
	Phase          int            `db:"phase"`
	IsOpen         bool           `db:"is_open"`
	Finalized      bool           `db:"finalized"`
	Phase1Deadline *time.Time     `db:"phase1_deadline"`
	ReportID       string         `db:"report_public_id"`
	RankOrder      pq.StringArray `db:"rank_order"`
	Performance    string         `db:"performance"`
}

type participationTableModel struct {
	ID              int64      `db:"id"`
	CollectionID    string     `db:"collection_public_id"`
	Username        string     `db:"username"`
	WillParticipate bool       `db:"will_participate"`
	CreatedAt       time.Time  `db:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at"`
	DeletedAt       *time.Time `db:"deleted_at"`
}

type participationInsertModel struct {
	CollectionID    string `db:"collection_public_id"`
	Username        string `db:"username"`
	WillParticipate bool   `db:"will_participate"`
}

type choiceTableModel struct {
	ID             int64          `db:"id"`
	CollectionID   string         `db:"collection_public_id"`
	Username       string         `db:"username"`
	TeamTitle      string         `db:"team_title"`
	OrderedChoices pq.StringArray `db:"ordered_choices"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
	DeletedAt      *time.Time     `db:"deleted_at"`
}

type choiceInsertModel struct {
	CollectionID   string         `db:"collection_public_id"`
	Username       string         `db:"username"`
	TeamTitle      string         `db:"team_title"`
	OrderedChoices pq.StringArray `db:"ordered_choices"`
}

type manualRequestTableModel struct {
	ID             int64          `db:"id"`
	PublicID       string         `db:"public_id"`
	CollectionID   string         `db:"collection_public_id"`
	Username       string         `db:"username"`
	ProposedTitle  string         `db:"proposed_title"`
	DesiredMembers pq.StringArray `db:"desired_members"`
	Note           string         `db:"note"`
	Status         string         `db:"status"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
	DeletedAt      *time.Time     `db:"deleted_at"`
}

type manualRequestInsertModel struct {
	PublicID       string         `db:"public_id"`
	CollectionID   string         `db:"collection_public_id"`
	Username       string         `db:"username"`
	ProposedTitle  string         `db:"proposed_title"`
	DesiredMembers pq.StringArray `db:"desired_members"`
	Note           string         `db:"note"`
	Status         string         `db:"status"`
}

type finalizedTeamTableModel struct {
	ID            int64          `db:"id"`
	PublicID      string         `db:"public_id"`
	CollectionID  string         `db:"collection_public_id"`
	TeamTitle     string         `db:"team_title"`
	Members       pq.StringArray `db:"members"`
	CoachUsername string         `db:"coach_username"`
	CombinedScore float64        `db:"combined_score"`
	Source        string         `db:"source"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
	DeletedAt     *time.Time     `db:"deleted_at"`
}

type finalizedTeamInsertModel struct {
	PublicID      string         `db:"public_id"`
	CollectionID  string         `db:"collection_public_id"`
	TeamTitle     string         `db:"team_title"`
	Members       pq.StringArray `db:"members"`
	CoachUsername string         `db:"coach_username"`
	CombinedScore float64        `db:"combined_score"`
	Source        string         `db:"source"`
}
