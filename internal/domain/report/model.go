package report

import (
	"fmt"
	"time"

	"github.com/algoclub/arena/internal/domain/leaderboard"
)

// Report is a stored merged-leaderboard snapshot addressable by an
// opaque shareable id. It is read-only once generated; a fresh merge
// produces a fresh report.
type Report struct {
	ID          string
	Title       string
	ContestIDs  []string
	Weights     map[string]float64
	Demerits    map[string][]leaderboard.Demerit
	Leaderboard leaderboard.Merged
	GeneratedAt time.Time
}

func (r Report) ValidateBasic() error {
	if r.ID == "" {
		return fmt.Errorf("report id is required")
	}
	if len(r.ContestIDs) == 0 {
		return fmt.Errorf("report contest ids are required")
	}

	return nil
}
