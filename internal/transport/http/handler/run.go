package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/aibekov/webcron/internal/domain"
	"github.com/aibekov/webcron/internal/usecase"
	"github.com/gin-gonic/gin"
)

type RunHandler struct {
	uc     *usecase.RunUsecase
	logger *slog.Logger
}

func NewRunHandler(uc *usecase.RunUsecase, logger *slog.Logger) *RunHandler {
	return &RunHandler{uc: uc, logger: logger.With("component", "run_handler")}
}

type runResponse struct {
	ID             string            `json:"id"`
	ScheduleID     string            `json:"schedule_id"`
	ExecutedAt     time.Time         `json:"executed_at"`
	Status         domain.RunStatus  `json:"status"`
	StatusCode     int               `json:"status_code"`
	LatencyMS      int64             `json:"latency_ms"`
	SizeBytes      int64             `json:"size_bytes"`
	ErrorKind      *domain.ErrorKind `json:"error_kind,omitempty"`
	ResponseBody   string            `json:"response_body"`
	RequestHeaders map[string]string `json:"request_headers"`
}

func toRunResponse(r *domain.Run) runResponse {
	return runResponse{
		ID:             r.ID,
		ScheduleID:     r.ScheduleID,
		ExecutedAt:     r.ExecutedAt,
		Status:         r.Status,
		StatusCode:     r.StatusCode,
		LatencyMS:      r.LatencyMS,
		SizeBytes:      r.SizeBytes,
		ErrorKind:      r.ErrorKind,
		ResponseBody:   r.ResponseBody,
		RequestHeaders: r.RequestHeaders,
	}
}

func (h *RunHandler) List(ctx *gin.Context) {
	limit, _ := strconv.Atoi(ctx.Query("limit"))

	result, err := h.uc.ListRuns(ctx.Request.Context(), usecase.ListRunsInput{
		ScheduleID: ctx.Query("schedule_id"),
		Cursor:     ctx.Query("cursor"),
		Limit:      limit,
	})
	if err != nil {
		if errors.Is(err, usecase.ErrBadCursor) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": errBadCursor})
			return
		}
		h.logger.Error("list runs", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	items := make([]runResponse, len(result.Runs))
	for i, r := range result.Runs {
		items[i] = toRunResponse(r)
	}
	ctx.JSON(http.StatusOK, gin.H{
		"runs":        items,
		"next_cursor": result.NextCursor,
	})
}

func (h *RunHandler) GetByID(ctx *gin.Context) {
	id := ctx.Param("id")

	r, err := h.uc.GetRun(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrRunNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": errRunNotFound})
			return
		}
		h.logger.Error("get run", "run_id", id, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	ctx.JSON(http.StatusOK, toRunResponse(r))
}

func (h *RunHandler) Stats(ctx *gin.Context) {
	stats, err := h.uc.Stats(ctx.Request.Context())
	if err != nil {
		h.logger.Error("run stats", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"total_runs":     stats.TotalRuns,
		"success_runs":   stats.SuccessRuns,
		"failed_runs":    stats.FailedRuns,
		"avg_latency_ms": stats.AvgLatencyMS,
	})
}
