package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	sonic "github.com/bytedance/sonic"

	"github.com/algoclub/arena/internal/usecase"
)

func (h *Handler) GetStandings(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetStandings")
	defer span.End()

	contestID := strings.TrimSpace(r.PathValue("contestID"))
	if contestID == "" {
		writeError(ctx, w, fmt.Errorf("%w: contest id is required", usecase.ErrInvalidInput))
		return
	}

	weights, err := parseWeightsQuery(r.URL.Query().Get("weights"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.standingsService.GetStandings(ctx, contestID, weights)
	if err != nil {
		h.logger.WarnContext(ctx, "get standings failed", "contest_id", contestID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, contestResultToDTO(result))
}

func (h *Handler) RefreshContests(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RefreshContests")
	defer span.End()

	var req refreshContestsRequest
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

	result, err := h.refreshService.RefreshContests(ctx, req.ContestIDs, req.MaxWorkers)
	if err != nil {
		h.logger.WarnContext(ctx, "refresh contests failed", "requested", len(req.ContestIDs), "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}
