package formation

import (
	"fmt"
	"time"
)

// Phase is a workflow stage of a team collection.
type Phase int

const (
	PhaseParticipation Phase = 1
	PhaseSelection     Phase = 2
	PhaseFinalized     Phase = 3
)

func (p Phase) String() string {
	switch p {
	case PhaseParticipation:
		return "participation"
	case PhaseSelection:
		return "selection"
	case PhaseFinalized:
		return "finalized"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// PerformanceEntry is the frozen per-participant statistics captured
// when selection starts. Eligibility stays deterministic for the whole
// selection phase because these values are never recomputed live.
type PerformanceEntry struct {
	Username         string
	EffectiveSolved  float64
	EffectivePenalty float64
	TotalScore       float64
	TotalPenalty     float64
	AttendedCount    int
}

// Collection is one team formation workflow instance scoped to a room.
type Collection struct {
	ID             string
	RoomID         string
	Title          string
	Phase          Phase
	IsOpen         bool
	Finalized      bool
	Phase1Deadline *time.Time
	ReportID       string
	RankOrder      []string
	Performance    map[string]PerformanceEntry
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (c Collection) ValidateBasic() error {
	if c.ID == "" {
		return fmt.Errorf("collection id is required")
	}
	if c.RoomID == "" {
		return fmt.Errorf("room id is required")
	}
	if c.Title == "" {
		return fmt.Errorf("collection title is required")
	}

	return nil
}

// ParticipationDeadlinePassed reports whether the phase-1 opt-in
// toggle is closed. A collection without a deadline never closes on
// its own.
func (c Collection) ParticipationDeadlinePassed(now time.Time) bool {
	return c.Phase1Deadline != nil && now.After(*c.Phase1Deadline)
}

// ParticipationRecord is a participant's explicit opt-in toggle.
type ParticipationRecord struct {
	CollectionID    string
	Username        string
	WillParticipate bool
	UpdatedAt       time.Time
}

// Choice is a participant's submitted ranked teammate preference.
// Resubmission overwrites the previous tuple as a whole.
type Choice struct {
	CollectionID   string
	Username       string
	TeamTitle      string
	OrderedChoices []string
	UpdatedAt      time.Time
}

// ManualRequestStatus tracks admin review of a manual team request.
type ManualRequestStatus string

const (
	ManualRequestPending  ManualRequestStatus = "pending"
	ManualRequestApproved ManualRequestStatus = "approved"
	ManualRequestRejected ManualRequestStatus = "rejected"
)

// ManualRequest is a fixed-team proposal submitted for admin review,
// independent of the ranked-preference mechanism.
type ManualRequest struct {
	ID             string
	CollectionID   string
	Username       string
	ProposedTitle  string
	DesiredMembers []string
	Note           string
	Status         ManualRequestStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TeamSource records how a finalized team came to exist.
type TeamSource string

const (
	// TeamSourceResolved marks teams produced by finalize-time choice
	// resolution. Unfinalize removes only these.
	TeamSourceResolved TeamSource = "resolved"
	// TeamSourceManual marks teams created through admin approval of a
	// manual request.
	TeamSourceManual TeamSource = "manual"
)

// FinalizedTeam is a settled team within a collection.
type FinalizedTeam struct {
	ID            string
	CollectionID  string
	TeamTitle     string
	Members       []string
	CoachUsername string
	CombinedScore float64
	Source        TeamSource
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
