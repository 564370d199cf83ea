package formation

import "fmt"

// ResolveTeams deterministically turns submitted choices into teams.
//
// It walks the frozen rank order from the top. Each unassigned
// participant who submitted a choice becomes a team leader and claims
// their still-unassigned preferred teammates in order, up to the team
// size. Higher-ranked leaders therefore win conflicting claims. A
// leader short on available choices still forms a team with whoever
// remains; admins adjust afterwards.
//
// The returned teams carry no IDs and are not persisted here.
func ResolveTeams(c Collection, choices []Choice, rules Rules) []FinalizedTeam {
	byUsername := make(map[string]Choice, len(choices))
	for _, choice := range choices {
		byUsername[choice.Username] = choice
	}

	assigned := make(map[string]struct{})
	teams := make([]FinalizedTeam, 0, len(choices))

	for _, leader := range c.RankOrder {
		if _, taken := assigned[leader]; taken {
			continue
		}
		choice, ok := byUsername[leader]
		if !ok {
			continue
		}

		members := []string{leader}
		assigned[leader] = struct{}{}
		for _, wanted := range choice.OrderedChoices {
			if len(members) >= rules.TeamSize {
				break
			}
			if _, taken := assigned[wanted]; taken {
				continue
			}
			if !inRankOrder(c.RankOrder, wanted) {
				continue
			}
			members = append(members, wanted)
			assigned[wanted] = struct{}{}
		}

		title := choice.TeamTitle
		if title == "" {
			title = fmt.Sprintf("Team %s", leader)
		}

		teams = append(teams, FinalizedTeam{
			CollectionID:  c.ID,
			TeamTitle:     title,
			Members:       members,
			CombinedScore: combinedScore(c, members),
			Source:        TeamSourceResolved,
		})
	}

	return teams
}

func combinedScore(c Collection, members []string) float64 {
	var total float64
	for _, member := range members {
		total += c.Performance[member].EffectiveSolved
	}
	return total
}

func inRankOrder(rankOrder []string, username string) bool {
	for _, ranked := range rankOrder {
		if ranked == username {
			return true
		}
	}
	return false
}
