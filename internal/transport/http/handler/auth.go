package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/aibekov/webcron/internal/usecase"
	"github.com/gin-gonic/gin"
)

// tokenIssuer is the subset of AuthUsecase the handler needs.
// Defined here (point of use) so tests can inject a fake.
type tokenIssuer interface {
	IssueToken(apiKey string) (string, error)
}

type AuthHandler struct {
	auth   tokenIssuer
	logger *slog.Logger
}

func NewAuthHandler(auth tokenIssuer, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:   auth,
		logger: logger.With("component", "auth_handler"),
	}
}

type tokenRequest struct {
	APIKey string `json:"api_key" binding:"required"`
}

// POST /auth/token
// Exchanges the operator API key for a bearer JWT.
func (h *AuthHandler) IssueToken(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := h.auth.IssueToken(req.APIKey)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidAPIKey) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": errInvalidAPIKey})
			return
		}
		h.logger.Error("issue token", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}
