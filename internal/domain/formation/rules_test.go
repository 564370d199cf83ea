package formation

import (
	"errors"
	"testing"
)

func TestValidateChoices(t *testing.T) {
	rules := DefaultRules()

	tests := []struct {
		name      string
		choices   []string
		targetErr error
	}{
		{
			name:      "valid choices",
			choices:   []string{"bob", "carol", "dave"},
			targetErr: nil,
		},
		{
			name:      "minimum length",
			choices:   []string{"bob", "carol"},
			targetErr: nil,
		},
		{
			name:      "too few",
			choices:   []string{"bob"},
			targetErr: ErrChoiceCountOutOfBounds,
		},
		{
			name:      "too many",
			choices:   []string{"a1", "a2", "a3", "a4", "a5", "a6", "a7", "a8", "a9"},
			targetErr: ErrChoiceCountOutOfBounds,
		},
		{
			name:      "duplicate",
			choices:   []string{"bob", "carol", "bob"},
			targetErr: ErrDuplicateChoice,
		},
		{
			name:      "self pick",
			choices:   []string{"bob", "alice"},
			targetErr: ErrSelfChoice,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateChoices("alice", tt.choices, rules)
			if tt.targetErr == nil {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}

			if !errors.Is(err, tt.targetErr) {
				t.Fatalf("expected error %v, got %v", tt.targetErr, err)
			}
		})
	}
}

func TestValidateManualMembers(t *testing.T) {
	rules := DefaultRules()

	if err := ValidateManualMembers([]string{"alice", "bob", "carol"}, rules); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if err := ValidateManualMembers([]string{"alice", "bob"}, rules); !errors.Is(err, ErrInvalidTeamSize) {
		t.Fatalf("expected ErrInvalidTeamSize, got %v", err)
	}

	if err := ValidateManualMembers([]string{"alice", "bob", "alice"}, rules); !errors.Is(err, ErrDuplicateMember) {
		t.Fatalf("expected ErrDuplicateMember, got %v", err)
	}
}
