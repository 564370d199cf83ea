package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	sonic "github.com/bytedance/sonic"

	"github.com/algoclub/arena/internal/domain/formation"
	"github.com/algoclub/arena/internal/usecase"
)

func (h *Handler) CreateCollection(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateCollection")
	defer span.End()

	var req createCollectionRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	collection, err := h.adminService.CreateCollection(ctx, usecase.CreateCollectionInput{
		RoomID:         req.RoomID,
		Title:          req.Title,
		Phase1Deadline: req.Phase1Deadline,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "create collection failed", "room_id", req.RoomID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, collectionToDTO(collection))
}

func (h *Handler) UpdateCollection(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpdateCollection")
	defer span.End()

	collectionID := strings.TrimSpace(r.PathValue("collectionID"))
	if collectionID == "" {
		writeError(ctx, w, fmt.Errorf("%w: collection id is required", usecase.ErrInvalidInput))
		return
	}

	var req updateCollectionRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	collection, err := h.adminService.UpdateCollection(ctx, usecase.UpdateCollectionInput{
		CollectionID:   collectionID,
		Title:          req.Title,
		Phase1Deadline: req.Phase1Deadline,
		ClearDeadline:  req.ClearDeadline,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "update collection failed", "collection_id", collectionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, collectionToDTO(collection))
}

func (h *Handler) DeleteCollection(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DeleteCollection")
	defer span.End()

	collectionID := strings.TrimSpace(r.PathValue("collectionID"))
	if collectionID == "" {
		writeError(ctx, w, fmt.Errorf("%w: collection id is required", usecase.ErrInvalidInput))
		return
	}

	if err := h.adminService.DeleteCollection(ctx, collectionID); err != nil {
		h.logger.WarnContext(ctx, "delete collection failed", "collection_id", collectionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) StartSelection(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.StartSelection")
	defer span.End()

	collectionID := strings.TrimSpace(r.PathValue("collectionID"))
	if collectionID == "" {
		writeError(ctx, w, fmt.Errorf("%w: collection id is required", usecase.ErrInvalidInput))
		return
	}

	var req startSelectionRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	collection, err := h.adminService.StartSelection(ctx, collectionID, req.ReportID)
	if err != nil {
		h.logger.WarnContext(ctx, "start selection failed", "collection_id", collectionID, "report_id", req.ReportID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, collectionToDTO(collection))
}

func (h *Handler) PauseSelection(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.PauseSelection")
	defer span.End()

	h.setSelectionOpen(ctx, w, r, false)
}

func (h *Handler) ResumeSelection(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ResumeSelection")
	defer span.End()

	h.setSelectionOpen(ctx, w, r, true)
}

func (h *Handler) setSelectionOpen(ctx context.Context, w http.ResponseWriter, r *http.Request, open bool) {
	collectionID := strings.TrimSpace(r.PathValue("collectionID"))
	if collectionID == "" {
		writeError(ctx, w, fmt.Errorf("%w: collection id is required", usecase.ErrInvalidInput))
		return
	}

	collection, err := h.adminService.SetSelectionOpen(ctx, collectionID, open)
	if err != nil {
		h.logger.WarnContext(ctx, "set selection open failed", "collection_id", collectionID, "open", open, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, collectionToDTO(collection))
}

func (h *Handler) FinalizeCollection(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.FinalizeCollection")
	defer span.End()

	collectionID := strings.TrimSpace(r.PathValue("collectionID"))
	if collectionID == "" {
		writeError(ctx, w, fmt.Errorf("%w: collection id is required", usecase.ErrInvalidInput))
		return
	}

	teams, err := h.adminService.Finalize(ctx, collectionID)
	if err != nil {
		h.logger.WarnContext(ctx, "finalize collection failed", "collection_id", collectionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	dtos := make([]finalizedTeamDTO, 0, len(teams))
	for _, team := range teams {
		dtos = append(dtos, finalizedTeamToDTO(team))
	}

	writeSuccess(ctx, w, http.StatusOK, dtos)
}

func (h *Handler) UnfinalizeCollection(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UnfinalizeCollection")
	defer span.End()

	collectionID := strings.TrimSpace(r.PathValue("collectionID"))
	if collectionID == "" {
		writeError(ctx, w, fmt.Errorf("%w: collection id is required", usecase.ErrInvalidInput))
		return
	}

	collection, err := h.adminService.Unfinalize(ctx, collectionID)
	if err != nil {
		h.logger.WarnContext(ctx, "unfinalize collection failed", "collection_id", collectionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, collectionToDTO(collection))
}

func (h *Handler) ListManualRequests(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListManualRequests")
	defer span.End()

	collectionID := strings.TrimSpace(r.PathValue("collectionID"))
	if collectionID == "" {
		writeError(ctx, w, fmt.Errorf("%w: collection id is required", usecase.ErrInvalidInput))
		return
	}

	requests, err := h.adminService.ListManualRequests(ctx, collectionID)
	if err != nil {
		h.logger.WarnContext(ctx, "list manual requests failed", "collection_id", collectionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	dtos := make([]manualRequestDTO, 0, len(requests))
	for _, request := range requests {
		dtos = append(dtos, manualRequestToDTO(request))
	}

	writeSuccess(ctx, w, http.StatusOK, dtos)
}

func (h *Handler) ApproveManualRequest(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ApproveManualRequest")
	defer span.End()

	requestID := strings.TrimSpace(r.PathValue("requestID"))
	if requestID == "" {
		writeError(ctx, w, fmt.Errorf("%w: request id is required", usecase.ErrInvalidInput))
		return
	}

	team, err := h.adminService.ApproveManualRequest(ctx, requestID)
	if err != nil {
		h.logger.WarnContext(ctx, "approve manual request failed", "request_id", requestID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, finalizedTeamToDTO(team))
}

func (h *Handler) RejectManualRequest(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RejectManualRequest")
	defer span.End()

	requestID := strings.TrimSpace(r.PathValue("requestID"))
	if requestID == "" {
		writeError(ctx, w, fmt.Errorf("%w: request id is required", usecase.ErrInvalidInput))
		return
	}

	if err := h.adminService.RejectManualRequest(ctx, requestID); err != nil {
		h.logger.WarnContext(ctx, "reject manual request failed", "request_id", requestID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "rejected"})
}

func (h *Handler) ApproveManualTeam(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ApproveManualTeam")
	defer span.End()

	var req approveManualTeamRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	team, err := h.adminService.ApproveManualTeam(ctx, req.CollectionID, req.TeamTitle, req.Members)
	if err != nil {
		h.logger.WarnContext(ctx, "approve manual team failed", "collection_id", req.CollectionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, finalizedTeamToDTO(team))
}

func (h *Handler) UpdateTeam(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpdateTeam")
	defer span.End()

	teamID := strings.TrimSpace(r.PathValue("teamID"))
	if teamID == "" {
		writeError(ctx, w, fmt.Errorf("%w: team id is required", usecase.ErrInvalidInput))
		return
	}

	var req updateTeamRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if req.Title == nil && req.CoachUsername == nil {
		writeError(ctx, w, fmt.Errorf("%w: nothing to update", usecase.ErrInvalidInput))
		return
	}

	var (
		team formation.FinalizedTeam
		err  error
	)
	if req.Title != nil {
		team, err = h.adminService.RenameTeam(ctx, teamID, *req.Title)
		if err != nil {
			h.logger.WarnContext(ctx, "rename team failed", "team_id", teamID, "error", err)
			writeError(ctx, w, err)
			return
		}
	}
	if req.CoachUsername != nil {
		team, err = h.adminService.AssignCoach(ctx, teamID, *req.CoachUsername)
		if err != nil {
			h.logger.WarnContext(ctx, "assign coach failed", "team_id", teamID, "error", err)
			writeError(ctx, w, err)
			return
		}
	}

	writeSuccess(ctx, w, http.StatusOK, finalizedTeamToDTO(team))
}

func (h *Handler) RemoveTeamMember(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RemoveTeamMember")
	defer span.End()

	teamID := strings.TrimSpace(r.PathValue("teamID"))
	username := strings.TrimSpace(r.PathValue("username"))
	if teamID == "" || username == "" {
		writeError(ctx, w, fmt.Errorf("%w: team id and username are required", usecase.ErrInvalidInput))
		return
	}

	team, err := h.adminService.RemoveMember(ctx, teamID, username)
	if err != nil {
		h.logger.WarnContext(ctx, "remove team member failed", "team_id", teamID, "username", username, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, finalizedTeamToDTO(team))
}

func (h *Handler) DeleteTeam(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DeleteTeam")
	defer span.End()

	teamID := strings.TrimSpace(r.PathValue("teamID"))
	if teamID == "" {
		writeError(ctx, w, fmt.Errorf("%w: team id is required", usecase.ErrInvalidInput))
		return
	}

	if err := h.adminService.DeleteTeam(ctx, teamID); err != nil {
		h.logger.WarnContext(ctx, "delete team failed", "team_id", teamID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "deleted"})
}
