package id

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRandomGenerator_NewID(t *testing.T) {
	gen := NewRandomGenerator()

	id, err := gen.NewID()
	require.NoError(t, err)
	require.Len(t, id, 32)
}

func TestRandomGenerator_Uniqueness(t *testing.T) {
	gen := NewRandomGenerator()

	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		id, err := gen.NewID()
		require.NoError(t, err)
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %q", id)
		seen[id] = struct{}{}
	}
}
