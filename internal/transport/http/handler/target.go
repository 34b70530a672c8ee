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

type TargetHandler struct {
	uc     *usecase.TargetUsecase
	logger *slog.Logger
}

func NewTargetHandler(uc *usecase.TargetUsecase, logger *slog.Logger) *TargetHandler {
	return &TargetHandler{uc: uc, logger: logger.With("component", "target_handler")}
}

type createTargetRequest struct {
	URL     string            `json:"url"     binding:"required,url,max=2048"`
	Method  string            `json:"method"  binding:"omitempty,oneof=GET POST PUT PATCH DELETE HEAD"`
	Headers map[string]string `json:"headers"`
	Body    *string           `json:"body"`
}

type targetResponse struct {
	ID        string            `json:"id"`
	URL       string            `json:"url"`
	Method    string            `json:"method"`
	Headers   map[string]string `json:"headers"`
	Body      *string           `json:"body,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

func toTargetResponse(t *domain.Target) targetResponse {
	return targetResponse{
		ID:        t.ID,
		URL:       t.URL,
		Method:    t.Method,
		Headers:   t.Headers,
		Body:      t.Body,
		CreatedAt: t.CreatedAt,
	}
}

func (h *TargetHandler) Create(ctx *gin.Context) {
	var req createTargetRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	t, err := h.uc.CreateTarget(ctx.Request.Context(), usecase.CreateTargetInput{
		URL:     req.URL,
		Method:  req.Method,
		Headers: req.Headers,
		Body:    req.Body,
	})
	if err != nil {
		h.logger.Error("create target", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	ctx.JSON(http.StatusCreated, toTargetResponse(t))
}

func (h *TargetHandler) List(ctx *gin.Context) {
	limit, _ := strconv.Atoi(ctx.Query("limit"))

	result, err := h.uc.ListTargets(ctx.Request.Context(), usecase.ListTargetsInput{
		Cursor: ctx.Query("cursor"),
		Limit:  limit,
	})
	if err != nil {
		if errors.Is(err, usecase.ErrBadCursor) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": errBadCursor})
			return
		}
		h.logger.Error("list targets", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	items := make([]targetResponse, len(result.Targets))
	for i, t := range result.Targets {
		items[i] = toTargetResponse(t)
	}
	ctx.JSON(http.StatusOK, gin.H{
		"targets":     items,
		"next_cursor": result.NextCursor,
	})
}

func (h *TargetHandler) GetByID(ctx *gin.Context) {
	id := ctx.Param("id")

	t, err := h.uc.GetTarget(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrTargetNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": errTargetNotFound})
			return
		}
		h.logger.Error("get target", "target_id", id, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	ctx.JSON(http.StatusOK, toTargetResponse(t))
}

func (h *TargetHandler) Delete(ctx *gin.Context) {
	id := ctx.Param("id")

	err := h.uc.DeleteTarget(ctx.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrTargetNotFound):
			ctx.JSON(http.StatusNotFound, gin.H{"error": errTargetNotFound})
		case errors.Is(err, domain.ErrTargetInUse):
			ctx.JSON(http.StatusConflict, gin.H{"error": errTargetInUse})
		default:
			h.logger.Error("delete target", "target_id", id, "error", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		}
		return
	}

	ctx.Status(http.StatusNoContent)
}
