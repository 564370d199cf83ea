package contest

import "time"

// VerdictAccepted is the judge verdict for a correct solution.
const VerdictAccepted = "AC"

// RosterEntry identifies one registered team in a contest.
type RosterEntry struct {
	Username    string
	DisplayName string
	AvatarURL   string
}

// Submission is a single judge run within a contest.
type Submission struct {
	TeamID          string
	ProblemIndex    int
	Verdict         string
	ElapsedSeconds  int64
	CumulativeScore float64
}

func (s Submission) Accepted() bool {
	return s.Verdict == VerdictAccepted
}

// Snapshot is one contest's raw state as fetched from the judge.
// It is immutable once fetched.
type Snapshot struct {
	ID          string
	Title       string
	BeginAt     time.Time
	DurationMs  int64
	Roster      map[string]RosterEntry
	Submissions []Submission
}

// Standing is the derived result for one team in one contest.
type Standing struct {
	TeamID         string
	Username       string
	DisplayName    string
	AvatarURL      string
	SolvedCount    int
	PenaltyMinutes float64
	FinalScore     float64
	Submissions    []Submission
}

// Result is a fully normalized contest standing.
type Result struct {
	ContestID      string
	ContestTitle   string
	BeginAt        time.Time
	DurationMs     int64
	TotalTeams     int
	TotalProblems  int
	ProblemWeights []float64
	Teams          []Standing
}
