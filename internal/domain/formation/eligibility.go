package formation

import "math"

// Eligible returns the usernames the given participant may rank as
// teammates, in rank order.
//
// Candidates are the participants ranked strictly below the caller
// whose frozen effective score lies within the configured span of the
// caller's own. When fewer than the minimum window size qualify, the
// window extends down the ranking with the next closest remaining
// candidates until the minimum is met or the ranking is exhausted.
//
// A username absent from the collection's rank order has no window and
// gets nil.
func Eligible(c Collection, username string, rules Rules) []string {
	myIdx := -1
	for i, ranked := range c.RankOrder {
		if ranked == username {
			myIdx = i
			break
		}
	}
	if myIdx < 0 {
		return nil
	}

	lower := c.RankOrder[myIdx+1:]
	if len(lower) == 0 {
		return []string{}
	}

	myScore := c.Performance[username].EffectiveSolved
	inWindow := make(map[string]struct{}, len(lower))
	count := 0
	for _, candidate := range lower {
		score := c.Performance[candidate].EffectiveSolved
		if math.Abs(score-myScore) <= rules.WindowScoreSpan {
			inWindow[candidate] = struct{}{}
			count++
		}
	}

	for _, candidate := range lower {
		if count >= rules.WindowMinSize {
			break
		}
		if _, ok := inWindow[candidate]; ok {
			continue
		}
		inWindow[candidate] = struct{}{}
		count++
	}

	eligible := make([]string, 0, count)
	for _, candidate := range lower {
		if _, ok := inWindow[candidate]; ok {
			eligible = append(eligible, candidate)
		}
	}

	return eligible
}
