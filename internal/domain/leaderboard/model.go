package leaderboard

// Demerit is an admin-recorded deduction for one participant in one
// contest, applied during merge.
type Demerit struct {
	Username      string
	DemeritPoints float64
}

// ContestEntry is one participant's outcome for one merged contest.
// Absences are synthesized as zero-participation entries so the
// variance terms cover every merged contest.
type ContestEntry struct {
	ContestID     string
	Attended      bool
	Solved        int
	Penalty       float64
	FinalScore    float64
	DemeritPoints float64
}

// ParticipantAggregate is one leaderboard row, rebuilt on every merge.
type ParticipantAggregate struct {
	Username           string
	DisplayName        string
	AvatarURL          string
	Contests           map[string]ContestEntry
	TotalSolved        int
	TotalPenalty       float64
	TotalScore         float64
	TotalDemeritPoints float64
	AttendedCount      int
	EffectiveSolved    float64
	EffectivePenalty   float64
}

// Merged is the cross-contest leaderboard.
type Merged struct {
	Users            []ParticipantAggregate
	ContestIDs       []string
	ContestIDToTitle map[string]string
}
