package httpapi

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/algoclub/arena/internal/domain/contest"
	"github.com/algoclub/arena/internal/domain/formation"
	"github.com/algoclub/arena/internal/domain/leaderboard"
	"github.com/algoclub/arena/internal/domain/report"
	"github.com/algoclub/arena/internal/usecase"
)

// parseWeightsQuery parses an optional comma-separated per-problem
// weight vector, e.g. ?weights=1,2,0.5.
func parseWeightsQuery(raw string) ([]float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	parts := strings.Split(raw, ",")
	weights := make([]float64, 0, len(parts))
	for i, part := range parts {
		weight, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: weight %d is not a number", usecase.ErrInvalidInput, i)
		}
		weights = append(weights, weight)
	}
	return weights, nil
}

type demeritRequest struct {
	Username      string  `json:"username" validate:"required"`
	DemeritPoints float64 `json:"demerit_points" validate:"gte=0"`
}

type generateReportRequest struct {
	Title          string                      `json:"title" validate:"omitempty,max=200"`
	ContestIDs     []string                    `json:"contest_ids" validate:"required,min=1,dive,required"`
	Weights        map[string]float64          `json:"weights" validate:"omitempty"`
	ProblemWeights map[string][]float64        `json:"problem_weights" validate:"omitempty"`
	Demerits       map[string][]demeritRequest `json:"demerits" validate:"omitempty,dive,dive"`
}

type refreshContestsRequest struct {
	ContestIDs []string `json:"contest_ids" validate:"required,min=1,dive,required"`
	MaxWorkers int      `json:"max_workers" validate:"omitempty,gte=0"`
}

type createCollectionRequest struct {
	RoomID         string     `json:"room_id" validate:"required"`
	Title          string     `json:"title" validate:"required,max=200"`
	Phase1Deadline *time.Time `json:"phase1_deadline" validate:"omitempty"`
}

type updateCollectionRequest struct {
	Title          *string    `json:"title" validate:"omitempty,max=200"`
	Phase1Deadline *time.Time `json:"phase1_deadline" validate:"omitempty"`
	ClearDeadline  bool       `json:"clear_deadline"`
}

type startSelectionRequest struct {
	ReportID string `json:"report_id" validate:"required"`
}

type participationRequest struct {
	WillParticipate bool `json:"will_participate"`
}

type submitChoiceRequest struct {
	TeamTitle      string   `json:"team_title" validate:"omitempty,max=200"`
	OrderedChoices []string `json:"ordered_choices" validate:"required,min=1,dive,required"`
}

type manualTeamRequestBody struct {
	ProposedTitle  string   `json:"proposed_title" validate:"omitempty,max=200"`
	DesiredMembers []string `json:"desired_members" validate:"required,min=1,dive,required"`
	Note           string   `json:"note" validate:"omitempty,max=500"`
}

type approveManualTeamRequest struct {
	CollectionID string   `json:"collection_id" validate:"required"`
	TeamTitle    string   `json:"team_title" validate:"required,max=200"`
	Members      []string `json:"members" validate:"required,min=1,dive,required"`
}

type updateTeamRequest struct {
	Title         *string `json:"title" validate:"omitempty,max=200"`
	CoachUsername *string `json:"coach_username" validate:"omitempty,max=100"`
}

type standingDTO struct {
	TeamID         string  `json:"team_id"`
	Username       string  `json:"username"`
	DisplayName    string  `json:"display_name,omitempty"`
	AvatarURL      string  `json:"avatar_url,omitempty"`
	SolvedCount    int     `json:"solved_count"`
	PenaltyMinutes float64 `json:"penalty_minutes"`
	FinalScore     float64 `json:"final_score"`
}

type contestResultDTO struct {
	ContestID      string        `json:"contest_id"`
	ContestTitle   string        `json:"contest_title,omitempty"`
	BeginAt        time.Time     `json:"begin_at"`
	DurationMs     int64         `json:"duration_ms"`
	TotalTeams     int           `json:"total_teams"`
	TotalProblems  int           `json:"total_problems"`
	ProblemWeights []float64     `json:"problem_weights,omitempty"`
	Teams          []standingDTO `json:"teams"`
}

func contestResultToDTO(result contest.Result) contestResultDTO {
	teams := make([]standingDTO, 0, len(result.Teams))
	for _, team := range result.Teams {
		teams = append(teams, standingDTO{
			TeamID:         team.TeamID,
			Username:       team.Username,
			DisplayName:    team.DisplayName,
			AvatarURL:      team.AvatarURL,
			SolvedCount:    team.SolvedCount,
			PenaltyMinutes: team.PenaltyMinutes,
			FinalScore:     team.FinalScore,
		})
	}

	return contestResultDTO{
		ContestID:      result.ContestID,
		ContestTitle:   result.ContestTitle,
		BeginAt:        result.BeginAt,
		DurationMs:     result.DurationMs,
		TotalTeams:     result.TotalTeams,
		TotalProblems:  result.TotalProblems,
		ProblemWeights: result.ProblemWeights,
		Teams:          teams,
	}
}

type contestEntryDTO struct {
	ContestID     string  `json:"contest_id"`
	Attended      bool    `json:"attended"`
	Solved        int     `json:"solved"`
	Penalty       float64 `json:"penalty"`
	FinalScore    float64 `json:"final_score"`
	DemeritPoints float64 `json:"demerit_points,omitempty"`
}

type participantDTO struct {
	Rank               int                        `json:"rank"`
	Username           string                     `json:"username"`
	DisplayName        string                     `json:"display_name,omitempty"`
	AvatarURL          string                     `json:"avatar_url,omitempty"`
	Contests           map[string]contestEntryDTO `json:"contests"`
	TotalSolved        int                        `json:"total_solved"`
	TotalPenalty       float64                    `json:"total_penalty"`
	TotalScore         float64                    `json:"total_score"`
	TotalDemeritPoints float64                    `json:"total_demerit_points"`
	AttendedCount      int                        `json:"attended_count"`
	EffectiveSolved    float64                    `json:"effective_solved"`
	EffectivePenalty   float64                    `json:"effective_penalty"`
}

type mergedLeaderboardDTO struct {
	ContestIDs    []string          `json:"contest_ids"`
	ContestTitles map[string]string `json:"contest_titles,omitempty"`
	Users         []participantDTO  `json:"users"`
}

func mergedToDTO(merged leaderboard.Merged) mergedLeaderboardDTO {
	users := make([]participantDTO, 0, len(merged.Users))
	for i, aggregate := range merged.Users {
		contests := make(map[string]contestEntryDTO, len(aggregate.Contests))
		for contestID, entry := range aggregate.Contests {
			contests[contestID] = contestEntryDTO{
				ContestID:     entry.ContestID,
				Attended:      entry.Attended,
				Solved:        entry.Solved,
				Penalty:       entry.Penalty,
				FinalScore:    entry.FinalScore,
				DemeritPoints: entry.DemeritPoints,
			}
		}
		users = append(users, participantDTO{
			Rank:               i + 1,
			Username:           aggregate.Username,
			DisplayName:        aggregate.DisplayName,
			AvatarURL:          aggregate.AvatarURL,
			Contests:           contests,
			TotalSolved:        aggregate.TotalSolved,
			TotalPenalty:       aggregate.TotalPenalty,
			TotalScore:         aggregate.TotalScore,
			TotalDemeritPoints: aggregate.TotalDemeritPoints,
			AttendedCount:      aggregate.AttendedCount,
			EffectiveSolved:    aggregate.EffectiveSolved,
			EffectivePenalty:   aggregate.EffectivePenalty,
		})
	}

	return mergedLeaderboardDTO{
		ContestIDs:    merged.ContestIDs,
		ContestTitles: merged.ContestIDToTitle,
		Users:         users,
	}
}

type reportDTO struct {
	ID          string               `json:"id"`
	Title       string               `json:"title"`
	ContestIDs  []string             `json:"contest_ids"`
	GeneratedAt time.Time            `json:"generated_at"`
	Leaderboard mergedLeaderboardDTO `json:"leaderboard"`
}

type reportSummaryDTO struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	ContestIDs  []string  `json:"contest_ids"`
	GeneratedAt time.Time `json:"generated_at"`
}

func reportToDTO(item report.Report) reportDTO {
	return reportDTO{
		ID:          item.ID,
		Title:       item.Title,
		ContestIDs:  item.ContestIDs,
		GeneratedAt: item.GeneratedAt,
		Leaderboard: mergedToDTO(item.Leaderboard),
	}
}

func reportToSummaryDTO(item report.Report) reportSummaryDTO {
	return reportSummaryDTO{
		ID:          item.ID,
		Title:       item.Title,
		ContestIDs:  item.ContestIDs,
		GeneratedAt: item.GeneratedAt,
	}
}

type generatedReportDTO struct {
	Report  reportDTO `json:"report"`
	Skipped []string  `json:"skipped_contest_ids,omitempty"`
}

type collectionDTO struct {
	ID             string     `json:"id"`
	RoomID         string     `json:"room_id"`
	Title          string     `json:"title"`
	Phase          string     `json:"phase"`
	IsOpen         bool       `json:"is_open"`
	Finalized      bool       `json:"finalized"`
	Phase1Deadline *time.Time `json:"phase1_deadline,omitempty"`
	ReportID       string     `json:"report_id,omitempty"`
	RankOrder      []string   `json:"rank_order,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func collectionToDTO(collection formation.Collection) collectionDTO {
	return collectionDTO{
		ID:             collection.ID,
		RoomID:         collection.RoomID,
		Title:          collection.Title,
		Phase:          collection.Phase.String(),
		IsOpen:         collection.IsOpen,
		Finalized:      collection.Finalized,
		Phase1Deadline: collection.Phase1Deadline,
		ReportID:       collection.ReportID,
		RankOrder:      collection.RankOrder,
		CreatedAt:      collection.CreatedAt,
		UpdatedAt:      collection.UpdatedAt,
	}
}

type choiceDTO struct {
	CollectionID   string    `json:"collection_id"`
	Username       string    `json:"username"`
	TeamTitle      string    `json:"team_title,omitempty"`
	OrderedChoices []string  `json:"ordered_choices"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func choiceToDTO(choice formation.Choice) choiceDTO {
	return choiceDTO{
		CollectionID:   choice.CollectionID,
		Username:       choice.Username,
		TeamTitle:      choice.TeamTitle,
		OrderedChoices: choice.OrderedChoices,
		UpdatedAt:      choice.UpdatedAt,
	}
}

type manualRequestDTO struct {
	ID             string    `json:"id"`
	CollectionID   string    `json:"collection_id"`
	Username       string    `json:"username"`
	ProposedTitle  string    `json:"proposed_title,omitempty"`
	DesiredMembers []string  `json:"desired_members"`
	Note           string    `json:"note,omitempty"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func manualRequestToDTO(request formation.ManualRequest) manualRequestDTO {
	return manualRequestDTO{
		ID:             request.ID,
		CollectionID:   request.CollectionID,
		Username:       request.Username,
		ProposedTitle:  request.ProposedTitle,
		DesiredMembers: request.DesiredMembers,
		Note:           request.Note,
		Status:         string(request.Status),
		CreatedAt:      request.CreatedAt,
		UpdatedAt:      request.UpdatedAt,
	}
}

type finalizedTeamDTO struct {
	ID            string    `json:"id"`
	CollectionID  string    `json:"collection_id"`
	TeamTitle     string    `json:"team_title"`
	Members       []string  `json:"members"`
	CoachUsername string    `json:"coach_username,omitempty"`
	CombinedScore float64   `json:"combined_score"`
	Source        string    `json:"source"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func finalizedTeamToDTO(team formation.FinalizedTeam) finalizedTeamDTO {
	return finalizedTeamDTO{
		ID:            team.ID,
		CollectionID:  team.CollectionID,
		TeamTitle:     team.TeamTitle,
		Members:       team.Members,
		CoachUsername: team.CoachUsername,
		CombinedScore: team.CombinedScore,
		Source:        string(team.Source),
		CreatedAt:     team.CreatedAt,
		UpdatedAt:     team.UpdatedAt,
	}
}

type eligibilityDTO struct {
	CollectionID string   `json:"collection_id"`
	Username     string   `json:"username"`
	Eligible     []string `json:"eligible"`
}

func demeritsFromRequest(raw map[string][]demeritRequest) map[string][]leaderboard.Demerit {
	if len(raw) == 0 {
		return nil
	}
	out := make(map[string][]leaderboard.Demerit, len(raw))
	for contestID, items := range raw {
		demerits := make([]leaderboard.Demerit, 0, len(items))
		for _, item := range items {
			demerits = append(demerits, leaderboard.Demerit{
				Username:      item.Username,
				DemeritPoints: item.DemeritPoints,
			})
		}
		out[contestID] = demerits
	}
	return out
}
