package formation

import (
	"errors"
	"fmt"
)

var (
	ErrChoiceCountOutOfBounds = errors.New("choice count out of bounds")
	ErrDuplicateChoice        = errors.New("duplicate teammate choice")
	ErrSelfChoice             = errors.New("participant cannot choose themselves")
	ErrInvalidTeamSize        = errors.New("invalid team member count")
	ErrDuplicateMember        = errors.New("duplicate team member")
)

// Rules stores team formation validation parameters.
type Rules struct {
	TeamSize        int
	MinChoices      int
	MaxChoices      int
	WindowScoreSpan float64
	WindowMinSize   int
}

func DefaultRules() Rules {
	return Rules{
		TeamSize:        3,
		MinChoices:      2,
		MaxChoices:      8,
		WindowScoreSpan: 5.0,
		WindowMinSize:   5,
	}
}

// ValidateChoices checks a ranked preference list against the server
// bounds. Out-of-bounds lists are rejected, never clamped.
func ValidateChoices(username string, orderedChoices []string, rules Rules) error {
	if len(orderedChoices) < rules.MinChoices || len(orderedChoices) > rules.MaxChoices {
		return fmt.Errorf("%w: expected %d..%d, got %d",
			ErrChoiceCountOutOfBounds, rules.MinChoices, rules.MaxChoices, len(orderedChoices))
	}

	seen := make(map[string]struct{}, len(orderedChoices))
	for _, choice := range orderedChoices {
		if choice == "" {
			return fmt.Errorf("choice username is required")
		}
		if choice == username {
			return fmt.Errorf("%w: %s", ErrSelfChoice, username)
		}
		if _, exists := seen[choice]; exists {
			return fmt.Errorf("%w: %s", ErrDuplicateChoice, choice)
		}
		seen[choice] = struct{}{}
	}

	return nil
}

// ValidateManualMembers checks a fixed manual team proposal: exactly
// the required member count, all distinct and named.
func ValidateManualMembers(members []string, rules Rules) error {
	if len(members) != rules.TeamSize {
		return fmt.Errorf("%w: expected %d, got %d", ErrInvalidTeamSize, rules.TeamSize, len(members))
	}

	seen := make(map[string]struct{}, len(members))
	for _, member := range members {
		if member == "" {
			return fmt.Errorf("member username is required")
		}
		if _, exists := seen[member]; exists {
			return fmt.Errorf("%w: %s", ErrDuplicateMember, member)
		}
		seen[member] = struct{}{}
	}

	return nil
}
