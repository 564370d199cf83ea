package contest

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var ErrInvalidSnapshot = errors.New("invalid contest snapshot")

const wrongAttemptPenaltyMinutes = 20

// Normalize turns a raw contest snapshot into per-team standings.
//
// Submissions recorded after the contest duration are discarded before
// any scoring. A problem counts as solved when at least one in-duration
// submission for it is accepted. The penalty for a solved problem is
// 20 minutes per wrong attempt before the first accepted one, plus the
// elapsed minutes of that accepted submission, rounded to two decimals.
//
// weights maps problem index to score weight; missing indexes weigh 1,
// so a nil vector gives plain solved-count scoring.
func Normalize(snapshot Snapshot, weights []float64) (Result, error) {
	if err := validateSnapshot(snapshot); err != nil {
		return Result{}, err
	}

	durationSeconds := snapshot.DurationMs / 1000
	inWindow := make([]Submission, 0, len(snapshot.Submissions))
	maxProblemIndex := -1
	for _, sub := range snapshot.Submissions {
		if sub.ElapsedSeconds > durationSeconds {
			continue
		}
		inWindow = append(inWindow, sub)
		if sub.ProblemIndex > maxProblemIndex {
			maxProblemIndex = sub.ProblemIndex
		}
	}

	sort.SliceStable(inWindow, func(i, j int) bool {
		return inWindow[i].ElapsedSeconds < inWindow[j].ElapsedSeconds
	})

	totalProblems := maxProblemIndex + 1
	resolved := make([]float64, totalProblems)
	for i := range resolved {
		resolved[i] = problemWeight(weights, i)
	}

	byTeam := make(map[string][]Submission)
	for _, sub := range inWindow {
		byTeam[sub.TeamID] = append(byTeam[sub.TeamID], sub)
	}

	teams := make([]Standing, 0, len(snapshot.Roster))
	for teamID, entry := range snapshot.Roster {
		standing := Standing{
			TeamID:      teamID,
			Username:    entry.Username,
			DisplayName: entry.DisplayName,
			AvatarURL:   entry.AvatarURL,
			Submissions: byTeam[teamID],
		}
		scoreTeam(&standing, resolved)
		teams = append(teams, standing)
	}

	sort.SliceStable(teams, func(i, j int) bool {
		a, b := teams[i], teams[j]
		if a.FinalScore != b.FinalScore {
			return a.FinalScore > b.FinalScore
		}
		if a.PenaltyMinutes != b.PenaltyMinutes {
			return a.PenaltyMinutes < b.PenaltyMinutes
		}
		return a.Username < b.Username
	})

	return Result{
		ContestID:      snapshot.ID,
		ContestTitle:   snapshot.Title,
		BeginAt:        snapshot.BeginAt,
		DurationMs:     snapshot.DurationMs,
		TotalTeams:     len(teams),
		TotalProblems:  totalProblems,
		ProblemWeights: resolved,
		Teams:          teams,
	}, nil
}

func validateSnapshot(snapshot Snapshot) error {
	if snapshot.ID == "" {
		return fmt.Errorf("%w: contest id is required", ErrInvalidSnapshot)
	}
	if snapshot.DurationMs <= 0 {
		return fmt.Errorf("%w: duration must be greater than zero", ErrInvalidSnapshot)
	}
	if snapshot.Roster == nil {
		return fmt.Errorf("%w: roster is missing", ErrInvalidSnapshot)
	}
	if snapshot.Submissions == nil {
		return fmt.Errorf("%w: submission log is missing", ErrInvalidSnapshot)
	}
	for _, sub := range snapshot.Submissions {
		if sub.ProblemIndex < 0 {
			return fmt.Errorf("%w: negative problem index", ErrInvalidSnapshot)
		}
		if sub.ElapsedSeconds < 0 {
			return fmt.Errorf("%w: negative elapsed seconds", ErrInvalidSnapshot)
		}
	}

	return nil
}

// scoreTeam fills SolvedCount, PenaltyMinutes and FinalScore from the
// team's in-duration submissions, which must already be ordered by
// elapsed time.
func scoreTeam(standing *Standing, weights []float64) {
	type problemState struct {
		wrongBeforeAccept int
		acceptedAt        int64
		accepted          bool
	}

	problems := make(map[int]*problemState)
	for _, sub := range standing.Submissions {
		state, ok := problems[sub.ProblemIndex]
		if !ok {
			state = &problemState{}
			problems[sub.ProblemIndex] = state
		}
		if state.accepted {
			continue
		}
		if sub.Accepted() {
			state.accepted = true
			state.acceptedAt = sub.ElapsedSeconds
			continue
		}
		state.wrongBeforeAccept++
	}

	for index, state := range problems {
		if !state.accepted {
			continue
		}
		standing.SolvedCount++
		standing.FinalScore += problemWeight(weights, index)
		penalty := float64(state.wrongBeforeAccept)*wrongAttemptPenaltyMinutes + float64(state.acceptedAt)/60
		standing.PenaltyMinutes += round2(penalty)
	}
	standing.PenaltyMinutes = round2(standing.PenaltyMinutes)
}

func problemWeight(weights []float64, index int) float64 {
	if index < len(weights) {
		return weights[index]
	}
	return 1
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
