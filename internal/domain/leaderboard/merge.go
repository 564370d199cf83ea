package leaderboard

import (
	"math"
	"sort"

	"github.com/algoclub/arena/internal/domain/contest"
)

const absenteePenaltyPerDemeritPoint = 100

// Merge combines normalized contest results into one leaderboard.
//
// weights maps contest id to a score multiplier (missing ids weigh 1).
// demerits maps contest id to deductions recorded for that contest; a
// participant absent from a contest with demerits on record still gets
// a synthesized penalized entry for it.
//
// Effective figures are variance-adjusted: the population standard
// deviation of per-contest scores is subtracted from the score total
// and the deviation of per-contest penalties is added to the penalty
// total, so consistent performance outranks an equal but spiky total.
func Merge(results []contest.Result, weights map[string]float64, demerits map[string][]Demerit) Merged {
	contestIDs := make([]string, 0, len(results))
	titles := make(map[string]string, len(results))
	users := make(map[string]*ParticipantAggregate)

	for _, result := range results {
		contestIDs = append(contestIDs, result.ContestID)
		titles[result.ContestID] = result.ContestTitle

		weight := contestWeight(weights, result.ContestID)
		for _, team := range result.Teams {
			if team.Username == "" {
				continue
			}

			aggregate, ok := users[team.Username]
			if !ok {
				aggregate = &ParticipantAggregate{
					Username: team.Username,
					Contests: make(map[string]ContestEntry),
				}
				users[team.Username] = aggregate
			}
			if team.DisplayName != "" {
				aggregate.DisplayName = team.DisplayName
			}
			if team.AvatarURL != "" {
				aggregate.AvatarURL = team.AvatarURL
			}

			entry := ContestEntry{
				ContestID:     result.ContestID,
				Attended:      true,
				Solved:        team.SolvedCount,
				Penalty:       team.PenaltyMinutes,
				FinalScore:    team.FinalScore * weight,
				DemeritPoints: demeritPoints(demerits, result.ContestID, team.Username),
			}
			aggregate.Contests[result.ContestID] = entry
			aggregate.TotalSolved += entry.Solved
			aggregate.TotalPenalty += entry.Penalty
			aggregate.TotalScore += entry.FinalScore
			aggregate.TotalDemeritPoints += entry.DemeritPoints
			aggregate.AttendedCount++
		}
	}

	for _, aggregate := range users {
		for _, contestID := range contestIDs {
			if _, ok := aggregate.Contests[contestID]; ok {
				continue
			}

			points := demeritPoints(demerits, contestID, aggregate.Username)
			entry := ContestEntry{
				ContestID:     contestID,
				Penalty:       points * absenteePenaltyPerDemeritPoint,
				FinalScore:    math.Max(0, -points),
				DemeritPoints: points,
			}
			aggregate.Contests[contestID] = entry
			aggregate.TotalPenalty += entry.Penalty
			aggregate.TotalScore += entry.FinalScore
			aggregate.TotalDemeritPoints += entry.DemeritPoints
		}

		scores := make([]float64, 0, len(contestIDs))
		penalties := make([]float64, 0, len(contestIDs))
		for _, contestID := range contestIDs {
			entry := aggregate.Contests[contestID]
			scores = append(scores, entry.FinalScore)
			penalties = append(penalties, entry.Penalty)
		}
		aggregate.EffectiveSolved = aggregate.TotalScore - populationStddev(scores)
		aggregate.EffectivePenalty = aggregate.TotalPenalty + populationStddev(penalties)
	}

	sorted := make([]ParticipantAggregate, 0, len(users))
	for _, aggregate := range users {
		sorted = append(sorted, *aggregate)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.EffectiveSolved != b.EffectiveSolved {
			return a.EffectiveSolved > b.EffectiveSolved
		}
		if a.EffectivePenalty != b.EffectivePenalty {
			return a.EffectivePenalty < b.EffectivePenalty
		}
		if a.AttendedCount != b.AttendedCount {
			return a.AttendedCount > b.AttendedCount
		}
		return a.Username < b.Username
	})

	return Merged{
		Users:            sorted,
		ContestIDs:       contestIDs,
		ContestIDToTitle: titles,
	}
}

func contestWeight(weights map[string]float64, contestID string) float64 {
	if weight, ok := weights[contestID]; ok {
		return weight
	}
	return 1
}

func demeritPoints(demerits map[string][]Demerit, contestID, username string) float64 {
	var points float64
	for _, demerit := range demerits[contestID] {
		if demerit.Username == username {
			points += demerit.DemeritPoints
		}
	}
	return points
}

func populationStddev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var variance float64
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	variance /= float64(len(values))

	return math.Sqrt(variance)
}
