package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/safereport/backend/internal/intake"
	"github.com/safereport/backend/internal/lifecycle"
	"github.com/safereport/backend/internal/registry"
	"github.com/safereport/backend/internal/store"
)

type Handler struct {
	Registry  *registry.Registry
	Intake    *intake.Service
	Lifecycle *lifecycle.Manager
	Store     store.ReportStore
	Validator *validator.Validate
	Logger    zerolog.Logger
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// @Summary Health check
// @Tags system
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} ErrorResponse
// @Router /healthz [get]
func (h *Handler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	if err := h.Store.Ping(ctx); err != nil {
		writeError(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "Database unavailable", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "registry_version": h.Registry.Version()})
}

func writeError(c *gin.Context, status int, code string, message string, details any) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

// writeDomainError maps errors from the intake and lifecycle packages onto the API envelope.
func (h *Handler) writeDomainError(c *gin.Context, err error) {
	var (
		ve *intake.ValidationError
		fe *registry.FieldErrors
		te *lifecycle.TransitionError
	)
	switch {
	case errors.As(err, &ve):
		writeError(c, http.StatusUnprocessableEntity, "VALIDATION_FAILED", "Validation failed", ve)
	case errors.Is(err, lifecycle.ErrIncompleteDraft):
		var details any
		if errors.As(err, &fe) {
			details = fe
		}
		writeError(c, http.StatusUnprocessableEntity, "INCOMPLETE_DRAFT", "Draft is missing required information", details)
	case errors.Is(err, lifecycle.ErrInvalidInput):
		var details any = err.Error()
		if errors.As(err, &fe) {
			details = fe
		}
		writeError(c, http.StatusUnprocessableEntity, "VALIDATION_FAILED", "Validation failed", details)
	case errors.Is(err, intake.ErrNoPreviousStep):
		writeError(c, http.StatusUnprocessableEntity, "VALIDATION_FAILED", "Already at the first step", nil)
	case errors.As(err, &te):
		writeError(c, http.StatusConflict, "INVALID_TRANSITION", "Status change not allowed", gin.H{
			"from":    te.From,
			"to":      te.To,
			"allowed": lifecycle.NextStatuses(te.From),
		})
	case errors.Is(err, lifecycle.ErrUnauthorized):
		writeError(c, http.StatusForbidden, "UNAUTHORIZED", "Not permitted", nil)
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, intake.ErrDraftNotFound),
		errors.Is(err, registry.ErrUnknownSector),
		errors.Is(err, registry.ErrUnknownCategory):
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	case errors.Is(err, lifecycle.ErrNotEditable):
		writeError(c, http.StatusConflict, "NOT_EDITABLE", "Report can no longer be edited", nil)
	case errors.Is(err, lifecycle.ErrIdentifierExhausted):
		h.Logger.Error().Err(err).Msg("identifier allocation exhausted")
		writeError(c, http.StatusServiceUnavailable, "IDENTIFIER_EXHAUSTED", "Please try again", nil)
	case errors.Is(err, lifecycle.ErrConflict):
		writeError(c, http.StatusConflict, "CONFLICT", "Report was changed by someone else, reload and retry", nil)
	default:
		h.Logger.Error().Err(err).Str("path", c.FullPath()).Msg("unhandled error")
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Internal error", nil)
	}
}

// bind decodes and validates a JSON body, writing the error response itself.
func (h *Handler) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return false
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusUnprocessableEntity, "VALIDATION_FAILED", "Validation failed", err.Error())
		return false
	}
	return true
}
