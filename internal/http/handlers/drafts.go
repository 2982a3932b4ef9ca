package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/safereport/backend/internal/http/middleware"
	"github.com/safereport/backend/internal/intake"
	"github.com/safereport/backend/internal/models"
)

type StartDraftRequest struct {
	Sector models.SectorID `json:"sector"`
}

type SubmitResponse struct {
	CaseID string        `json:"case_id"`
	PIN    string        `json:"pin"`
	Report models.Report `json:"report"`
}

// @Summary Start a report draft
// @Tags drafts
// @Accept json
// @Produce json
// @Param body body StartDraftRequest false "Optional sector"
// @Success 201 {object} models.Draft
// @Failure 422 {object} ErrorResponse
// @Router /api/drafts [post]
func (h *Handler) DraftStart(c *gin.Context) {
	var req StartDraftRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
			return
		}
	}
	d, err := h.Intake.StartDraft(req.Sector)
	if err != nil {
		h.writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

// @Summary Get a draft
// @Tags drafts
// @Produce json
// @Param id path string true "Draft id"
// @Success 200 {object} models.Draft
// @Failure 404 {object} ErrorResponse
// @Router /api/drafts/{id} [get]
func (h *Handler) DraftGet(c *gin.Context) {
	d, err := h.Intake.Get(c.Param("id"))
	if err != nil {
		h.writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// @Summary Submit the current step
// @Tags drafts
// @Accept json
// @Produce json
// @Param id path string true "Draft id"
// @Param body body intake.StepPayload true "Step data"
// @Success 200 {object} models.Draft
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /api/drafts/{id}/steps [post]
func (h *Handler) DraftAdvance(c *gin.Context) {
	var req intake.StepPayload
	if !h.bind(c, &req) {
		return
	}
	d, err := h.Intake.AdvanceStep(c.Param("id"), req)
	if err != nil {
		h.writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// @Summary Go back one step
// @Description Returning to category or sector clears the answers collected after it.
// @Tags drafts
// @Produce json
// @Param id path string true "Draft id"
// @Success 200 {object} models.Draft
// @Failure 404 {object} ErrorResponse
// @Router /api/drafts/{id}/back [post]
func (h *Handler) DraftBack(c *gin.Context) {
	d, err := h.Intake.Back(c.Param("id"))
	if err != nil {
		h.writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// @Summary Abandon a draft
// @Tags drafts
// @Param id path string true "Draft id"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /api/drafts/{id} [delete]
func (h *Handler) DraftAbandon(c *gin.Context) {
	if err := h.Intake.Abandon(c.Param("id")); err != nil {
		h.writeDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Submit a completed draft as a report
// @Description Returns the case id and PIN the reporter needs to check status later.
// @Tags drafts
// @Produce json
// @Param id path string true "Draft id"
// @Success 201 {object} SubmitResponse
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /api/drafts/{id}/submit [post]
func (h *Handler) DraftSubmit(c *gin.Context) {
	r, err := h.Intake.SubmitReport(c.Request.Context(), c.Param("id"), middleware.CurrentActor(c))
	if err != nil {
		h.writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, SubmitResponse{CaseID: r.CaseID, PIN: r.PIN, Report: r})
}
