package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	sonic "github.com/bytedance/sonic"

	"github.com/algoclub/arena/internal/usecase"
)

func (h *Handler) ListCollections(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListCollections")
	defer span.End()

	roomID := strings.TrimSpace(r.PathValue("roomID"))
	if roomID == "" {
		roomID = strings.TrimSpace(r.URL.Query().Get("roomId"))
	}
	if roomID == "" {
		writeError(ctx, w, fmt.Errorf("%w: room id is required", usecase.ErrInvalidInput))
		return
	}

	collections, err := h.formationService.ListCollections(ctx, roomID)
	if err != nil {
		h.logger.WarnContext(ctx, "list collections failed", "room_id", roomID, "error", err)
		writeError(ctx, w, err)
		return
	}

	dtos := make([]collectionDTO, 0, len(collections))
	for _, collection := range collections {
		dtos = append(dtos, collectionToDTO(collection))
	}

	writeSuccess(ctx, w, http.StatusOK, dtos)
}

func (h *Handler) GetCollection(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetCollection")
	defer span.End()

	collectionID := strings.TrimSpace(r.PathValue("collectionID"))
	if collectionID == "" {
		writeError(ctx, w, fmt.Errorf("%w: collection id is required", usecase.ErrInvalidInput))
		return
	}

	collection, err := h.formationService.GetCollection(ctx, collectionID)
	if err != nil {
		h.logger.WarnContext(ctx, "get collection failed", "collection_id", collectionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, collectionToDTO(collection))
}

func (h *Handler) SetParticipation(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SetParticipation")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	collectionID := strings.TrimSpace(r.PathValue("collectionID"))
	if collectionID == "" {
		writeError(ctx, w, fmt.Errorf("%w: collection id is required", usecase.ErrInvalidInput))
		return
	}

	var req participationRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}

	if err := h.formationService.SetParticipation(ctx, collectionID, principal.Username, req.WillParticipate); err != nil {
		h.logger.WarnContext(ctx, "set participation failed", "collection_id", collectionID, "username", principal.Username, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]bool{"will_participate": req.WillParticipate})
}

func (h *Handler) GetEligibility(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetEligibility")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	collectionID := strings.TrimSpace(r.PathValue("collectionID"))
	if collectionID == "" {
		writeError(ctx, w, fmt.Errorf("%w: collection id is required", usecase.ErrInvalidInput))
		return
	}

	eligible, err := h.formationService.Eligibility(ctx, collectionID, principal.Username)
	if err != nil {
		h.logger.WarnContext(ctx, "get eligibility failed", "collection_id", collectionID, "username", principal.Username, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, eligibilityDTO{
		CollectionID: collectionID,
		Username:     principal.Username,
		Eligible:     eligible,
	})
}

func (h *Handler) SubmitChoice(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SubmitChoice")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	collectionID := strings.TrimSpace(r.PathValue("collectionID"))
	if collectionID == "" {
		writeError(ctx, w, fmt.Errorf("%w: collection id is required", usecase.ErrInvalidInput))
		return
	}

	var req submitChoiceRequest
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

	choice, err := h.formationService.SubmitChoice(ctx, collectionID, principal.Username, req.TeamTitle, req.OrderedChoices)
	if err != nil {
		h.logger.WarnContext(ctx, "submit choice failed", "collection_id", collectionID, "username", principal.Username, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, choiceToDTO(choice))
}

func (h *Handler) SubmitManualRequest(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SubmitManualRequest")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	collectionID := strings.TrimSpace(r.PathValue("collectionID"))
	if collectionID == "" {
		writeError(ctx, w, fmt.Errorf("%w: collection id is required", usecase.ErrInvalidInput))
		return
	}

	var req manualTeamRequestBody
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

	request, err := h.formationService.SubmitManualRequest(ctx, collectionID, principal.Username, req.ProposedTitle, req.DesiredMembers, req.Note)
	if err != nil {
		h.logger.WarnContext(ctx, "submit manual request failed", "collection_id", collectionID, "username", principal.Username, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, manualRequestToDTO(request))
}

func (h *Handler) ListFinalizedTeams(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListFinalizedTeams")
	defer span.End()

	collectionID := strings.TrimSpace(r.PathValue("collectionID"))
	if collectionID == "" {
		writeError(ctx, w, fmt.Errorf("%w: collection id is required", usecase.ErrInvalidInput))
		return
	}

	teams, err := h.formationService.ListFinalizedTeams(ctx, collectionID)
	if err != nil {
		h.logger.WarnContext(ctx, "list finalized teams failed", "collection_id", collectionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	dtos := make([]finalizedTeamDTO, 0, len(teams))
	for _, team := range teams {
		dtos = append(dtos, finalizedTeamToDTO(team))
	}

	writeSuccess(ctx, w, http.StatusOK, dtos)
}
