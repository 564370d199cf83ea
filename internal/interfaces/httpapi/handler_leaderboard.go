package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	sonic "github.com/bytedance/sonic"

	"github.com/algoclub/arena/internal/usecase"
)

func (h *Handler) GenerateReport(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GenerateReport")
	defer span.End()

	var req generateReportRequest
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

	result, err := h.leaderboardService.GenerateReport(ctx, usecase.GenerateReportInput{
		Title:          req.Title,
		ContestIDs:     req.ContestIDs,
		Weights:        req.Weights,
		ProblemWeights: req.ProblemWeights,
		Demerits:       demeritsFromRequest(req.Demerits),
	})
	if err != nil {
		h.logger.WarnContext(ctx, "generate report failed", "contest_ids", req.ContestIDs, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, generatedReportDTO{
		Report:  reportToDTO(result.Report),
		Skipped: result.Skipped,
	})
}

func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetReport")
	defer span.End()

	reportID := strings.TrimSpace(r.PathValue("reportID"))
	if reportID == "" {
		writeError(ctx, w, fmt.Errorf("%w: report id is required", usecase.ErrInvalidInput))
		return
	}

	item, err := h.leaderboardService.GetReport(ctx, reportID)
	if err != nil {
		h.logger.WarnContext(ctx, "get report failed", "report_id", reportID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, reportToDTO(item))
}

func (h *Handler) ListReports(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListReports")
	defer span.End()

	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(ctx, w, fmt.Errorf("%w: limit must be a non-negative integer", usecase.ErrInvalidInput))
			return
		}
		limit = parsed
	}

	items, err := h.leaderboardService.ListReports(ctx, limit)
	if err != nil {
		h.logger.WarnContext(ctx, "list reports failed", "limit", limit, "error", err)
		writeError(ctx, w, err)
		return
	}

	summaries := make([]reportSummaryDTO, 0, len(items))
	for _, item := range items {
		summaries = append(summaries, reportToSummaryDTO(item))
	}

	writeSuccess(ctx, w, http.StatusOK, summaries)
}
