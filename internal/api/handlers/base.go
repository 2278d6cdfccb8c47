package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/eshaffer321/ledger-reconcile/internal/api/dto"
	"github.com/eshaffer321/ledger-reconcile/internal/application/service"
	"github.com/eshaffer321/ledger-reconcile/internal/domain/reconcile"
	"github.com/eshaffer321/ledger-reconcile/internal/infrastructure/storage"
)

// Base provides shared functionality for all handlers.
type Base struct {
	logger *slog.Logger
}

// NewBase creates a new base handler.
func NewBase(logger *slog.Logger) *Base {
	if logger == nil {
		logger = slog.Default()
	}
	return &Base{logger: logger}
}

// WriteJSON writes a JSON response with the given status code.
func (b *Base) WriteJSON(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}

// WriteError writes an error response with the given status code.
func (b *Base) WriteError(c *gin.Context, status int, err dto.APIError) {
	c.AbortWithStatusJSON(status, err)
}

// WriteServiceError maps service and domain errors onto API errors.
func (b *Base) WriteServiceError(c *gin.Context, err error) {
	var selErr *reconcile.InvalidSelectionError
	switch {
	case errors.As(err, &selErr):
		b.WriteError(c, http.StatusBadRequest, dto.InvalidSelectionError(selErr.ID, selErr.Error()))
	case errors.Is(err, service.ErrInvalidRequest):
		b.WriteError(c, http.StatusBadRequest, dto.ValidationError(err.Error()))
	case errors.Is(err, storage.ErrRunNotFound):
		b.WriteError(c, http.StatusNotFound, dto.NotFoundError("reconciliation run"))
	case errors.Is(err, storage.ErrRunConfirmed):
		b.WriteError(c, http.StatusConflict, dto.ConflictError(err.Error()))
	case errors.Is(err, service.ErrNoStore):
		b.WriteError(c, http.StatusServiceUnavailable, dto.UnavailableError(err.Error()))
	default:
		b.logger.Error("request failed", "path", c.FullPath(), "error", err)
		b.WriteError(c, http.StatusInternalServerError, dto.InternalError())
	}
}

// ParseIntParam parses an integer query parameter with a default value.
func ParseIntParam(c *gin.Context, name string, defaultVal int) int {
	val := c.Query(name)
	if val == "" {
		return defaultVal
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return parsed
}
