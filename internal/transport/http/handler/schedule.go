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

type ScheduleHandler struct {
	uc     *usecase.ScheduleUsecase
	runs   *usecase.RunUsecase
	logger *slog.Logger
}

func NewScheduleHandler(uc *usecase.ScheduleUsecase, runs *usecase.RunUsecase, logger *slog.Logger) *ScheduleHandler {
	return &ScheduleHandler{uc: uc, runs: runs, logger: logger.With("component", "schedule_handler")}
}

type createScheduleRequest struct {
	TargetID string                `json:"target_id" binding:"required"`
	Type     domain.ScheduleType   `json:"type"      binding:"required,oneof=INTERVAL WINDOW CRON"`
	Config   domain.ScheduleConfig `json:"config"`
}

type scheduleResponse struct {
	ID        string                `json:"id"`
	TargetID  string                `json:"target_id"`
	Type      domain.ScheduleType   `json:"type"`
	Config    domain.ScheduleConfig `json:"config"`
	Status    domain.ScheduleStatus `json:"status"`
	NextRunAt time.Time             `json:"next_run_at"`
	CreatedAt time.Time             `json:"created_at"`
}

func toScheduleResponse(s *domain.Schedule) scheduleResponse {
	return scheduleResponse{
		ID:        s.ID,
		TargetID:  s.TargetID,
		Type:      s.Type,
		Config:    s.Config,
		Status:    s.Status,
		NextRunAt: s.NextRunAt,
		CreatedAt: s.CreatedAt,
	}
}

func (h *ScheduleHandler) Create(ctx *gin.Context) {
	var req createScheduleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s, err := h.uc.CreateSchedule(ctx.Request.Context(), usecase.CreateScheduleInput{
		TargetID: req.TargetID,
		Type:     req.Type,
		Config:   req.Config,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidScheduleType), errors.Is(err, domain.ErrInvalidScheduleConfig):
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, domain.ErrTargetNotFound):
			ctx.JSON(http.StatusNotFound, gin.H{"error": errTargetNotFound})
		default:
			h.logger.Error("create schedule", "error", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		}
		return
	}

	ctx.JSON(http.StatusCreated, toScheduleResponse(s))
}

func (h *ScheduleHandler) List(ctx *gin.Context) {
	limit, _ := strconv.Atoi(ctx.Query("limit"))

	result, err := h.uc.ListSchedules(ctx.Request.Context(), usecase.ListSchedulesInput{
		Status: domain.ScheduleStatus(ctx.Query("status")),
		Cursor: ctx.Query("cursor"),
		Limit:  limit,
	})
	if err != nil {
		if errors.Is(err, usecase.ErrBadCursor) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": errBadCursor})
			return
		}
		h.logger.Error("list schedules", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	items := make([]scheduleResponse, len(result.Schedules))
	for i, s := range result.Schedules {
		items[i] = toScheduleResponse(s)
	}
	ctx.JSON(http.StatusOK, gin.H{
		"schedules":   items,
		"next_cursor": result.NextCursor,
	})
}

func (h *ScheduleHandler) GetByID(ctx *gin.Context) {
	id := ctx.Param("id")

	s, err := h.uc.GetSchedule(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrScheduleNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": errScheduleNotFound})
			return
		}
		h.logger.Error("get schedule", "schedule_id", id, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	ctx.JSON(http.StatusOK, toScheduleResponse(s))
}

func (h *ScheduleHandler) Pause(ctx *gin.Context) {
	id := ctx.Param("id")

	err := h.uc.PauseSchedule(ctx.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrScheduleNotFound):
			ctx.JSON(http.StatusNotFound, gin.H{"error": errScheduleNotFound})
		case errors.Is(err, domain.ErrScheduleCompleted):
			ctx.JSON(http.StatusConflict, gin.H{"error": errScheduleCompleted})
		case errors.Is(err, domain.ErrScheduleAlreadyPaused):
			ctx.JSON(http.StatusConflict, gin.H{"error": errAlreadyPaused})
		default:
			h.logger.Error("pause schedule", "schedule_id", id, "error", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		}
		return
	}

	ctx.Status(http.StatusNoContent)
}

func (h *ScheduleHandler) Resume(ctx *gin.Context) {
	id := ctx.Param("id")

	err := h.uc.ResumeSchedule(ctx.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrScheduleNotFound):
			ctx.JSON(http.StatusNotFound, gin.H{"error": errScheduleNotFound})
		case errors.Is(err, domain.ErrScheduleCompleted):
			ctx.JSON(http.StatusConflict, gin.H{"error": errScheduleCompleted})
		case errors.Is(err, domain.ErrScheduleNotPaused):
			ctx.JSON(http.StatusConflict, gin.H{"error": errNotPaused})
		default:
			h.logger.Error("resume schedule", "schedule_id", id, "error", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		}
		return
	}

	ctx.Status(http.StatusNoContent)
}

func (h *ScheduleHandler) Delete(ctx *gin.Context) {
	id := ctx.Param("id")

	err := h.uc.DeleteSchedule(ctx.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrScheduleNotFound):
			ctx.JSON(http.StatusNotFound, gin.H{"error": errScheduleNotFound})
		case errors.Is(err, domain.ErrScheduleHasRuns):
			ctx.JSON(http.StatusConflict, gin.H{"error": errScheduleHasRuns})
		default:
			h.logger.Error("delete schedule", "schedule_id", id, "error", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		}
		return
	}

	ctx.Status(http.StatusNoContent)
}

// RunNow dispatches the schedule immediately without touching its cadence.
func (h *ScheduleHandler) RunNow(ctx *gin.Context) {
	id := ctx.Param("id")

	run, err := h.uc.RunNow(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrScheduleNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": errScheduleNotFound})
			return
		}
		h.logger.Error("run schedule now", "schedule_id", id, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	ctx.JSON(http.StatusCreated, toRunResponse(run))
}

// NextRun previews the next fire time; "next_run_at" is null when the
// schedule would terminate instead of firing again.
func (h *ScheduleHandler) NextRun(ctx *gin.Context) {
	id := ctx.Param("id")

	next, err := h.uc.PreviewNextRun(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrScheduleNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": errScheduleNotFound})
			return
		}
		h.logger.Error("preview next run", "schedule_id", id, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"next_run_at": next})
}

func (h *ScheduleHandler) ListRuns(ctx *gin.Context) {
	id := ctx.Param("id")
	limit, _ := strconv.Atoi(ctx.Query("limit"))

	result, err := h.runs.ListRuns(ctx.Request.Context(), usecase.ListRunsInput{
		ScheduleID: id,
		Cursor:     ctx.Query("cursor"),
		Limit:      limit,
	})
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrBadCursor):
			ctx.JSON(http.StatusBadRequest, gin.H{"error": errBadCursor})
		case errors.Is(err, domain.ErrScheduleNotFound):
			ctx.JSON(http.StatusNotFound, gin.H{"error": errScheduleNotFound})
		default:
			h.logger.Error("list schedule runs", "schedule_id", id, "error", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		}
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
