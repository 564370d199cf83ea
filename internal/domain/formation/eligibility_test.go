package formation

import (
	"reflect"
	"testing"
)

func rankedCollection(scores map[string]float64, order ...string) Collection {
	performance := make(map[string]PerformanceEntry, len(order))
	for username, score := range scores {
		performance[username] = PerformanceEntry{Username: username, EffectiveSolved: score}
	}
	return Collection{
		ID:          "col-1",
		RoomID:      "room-1",
		Title:       "Season Teams",
		Phase:       PhaseSelection,
		IsOpen:      true,
		RankOrder:   order,
		Performance: performance,
	}
}

func TestEligibleWithinWindow(t *testing.T) {
	t.Parallel()

	collection := rankedCollection(map[string]float64{
		"a": 30, "b": 28, "c": 27, "d": 26, "e": 25.5, "f": 25, "g": 10,
	}, "a", "b", "c", "d", "e", "f", "g")

	got := Eligible(collection, "b", DefaultRules())
	want := []string{"c", "d", "e", "f", "g"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestEligibleExcludesHigherRanked(t *testing.T) {
	t.Parallel()

	collection := rankedCollection(map[string]float64{
		"a": 30, "b": 29, "c": 28, "d": 27, "e": 26, "f": 25, "g": 24,
	}, "a", "b", "c", "d", "e", "f", "g")

	got := Eligible(collection, "c", DefaultRules())
	for _, candidate := range got {
		if candidate == "a" || candidate == "b" || candidate == "c" {
			t.Fatalf("higher-ranked or self candidate leaked into window: %v", got)
		}
	}
}

func TestEligibleExtendsToMinimumSize(t *testing.T) {
	t.Parallel()

	// only d is inside the +-5 span of a; the window extends with the
	// next closest ranked candidates until five are present.
	collection := rankedCollection(map[string]float64{
		"a": 100, "b": 50, "c": 49, "d": 96, "e": 48, "f": 47, "g": 46, "h": 45,
	}, "a", "b", "c", "d", "e", "f", "g", "h")

	got := Eligible(collection, "a", DefaultRules())
	if len(got) != 5 {
		t.Fatalf("expected window of 5, got %v", got)
	}
	want := []string{"b", "c", "d", "e", "f"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestEligibleExhaustedRanking(t *testing.T) {
	t.Parallel()

	collection := rankedCollection(map[string]float64{
		"a": 100, "b": 10, "c": 9,
	}, "a", "b", "c")

	got := Eligible(collection, "a", DefaultRules())
	want := []string{"b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected exhausted ranking to return all lower, got %v", got)
	}
}

func TestEligibleBottomRanked(t *testing.T) {
	t.Parallel()

	collection := rankedCollection(map[string]float64{
		"a": 10, "b": 9,
	}, "a", "b")

	got := Eligible(collection, "b", DefaultRules())
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty window for bottom rank, got %v", got)
	}
}

func TestEligibleUnknownUsername(t *testing.T) {
	t.Parallel()

	collection := rankedCollection(map[string]float64{"a": 10}, "a")

	if got := Eligible(collection, "stranger", DefaultRules()); got != nil {
		t.Fatalf("expected nil for username outside rank order, got %v", got)
	}
}
