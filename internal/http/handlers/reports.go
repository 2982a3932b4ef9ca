package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/safereport/backend/internal/http/middleware"
	"github.com/safereport/backend/internal/lifecycle"
	"github.com/safereport/backend/internal/models"
	"github.com/safereport/backend/internal/store"
)

type ListQuery struct {
	Status  string `form:"status" validate:"omitempty,oneof=new under-review resolved escalated"`
	Sector  string `form:"sector" validate:"omitempty,max=64"`
	Urgency string `form:"urgency" validate:"omitempty,oneof=low medium high critical"`
	Flagged *bool  `form:"flagged"`
	Limit   int    `form:"limit" validate:"gte=0,lte=200"`
	Offset  int    `form:"offset" validate:"gte=0"`
}

// StatusRequest is checked by the lifecycle manager, which rejects
// non-staff callers before looking at the requested status.
type StatusRequest struct {
	Status models.Status `json:"status"`
}

type TriageRequest struct {
	AdminNotes *string         `json:"admin_notes" validate:"omitempty,max=4000"`
	RiskScore  *int            `json:"risk_score" validate:"omitempty,min=1,max=10"`
	Urgency    *models.Urgency `json:"urgency" validate:"omitempty,oneof=low medium high critical"`
}

type EditRequest struct {
	Description *string        `json:"description" validate:"omitempty,max=5000"`
	Details     map[string]any `json:"details"`
}

// @Summary Check report status by case id
// @Description Anonymous. A wrong PIN returns the same 404 as an unknown case.
// @Tags cases
// @Produce json
// @Param caseId path string true "Case id, e.g. SR-7K2Q9D"
// @Param pin query string false "4-digit PIN"
// @Success 200 {object} models.StatusView
// @Failure 404 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Router /api/cases/{caseId} [get]
func (h *Handler) CaseLookup(c *gin.Context) {
	view, err := h.Lifecycle.LookupByCase(c.Request.Context(), c.Param("caseId"), c.Query("pin"))
	if err != nil {
		h.writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// @Summary List reports
// @Description Staff see every report; signed-in reporters see their own.
// @Tags reports
// @Produce json
// @Param status query string false "new|under-review|resolved|escalated"
// @Param sector query string false "Sector id"
// @Param urgency query string false "low|medium|high|critical"
// @Param flagged query bool false "Only flagged or unflagged"
// @Param limit query int false "Page size (max 200)"
// @Param offset query int false "Offset"
// @Success 200 {object} map[string]any
// @Failure 403 {object} ErrorResponse
// @Router /api/reports [get]
func (h *Handler) ReportsList(c *gin.Context) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid query", err.Error())
		return
	}
	if err := h.Validator.Struct(q); err != nil {
		writeError(c, http.StatusUnprocessableEntity, "VALIDATION_FAILED", "Validation failed", err.Error())
		return
	}
	f := store.Filter{
		Status:  models.Status(q.Status),
		Sector:  models.SectorID(q.Sector),
		Urgency: models.Urgency(q.Urgency),
		Flagged: q.Flagged,
		Limit:   q.Limit,
		Offset:  q.Offset,
	}
	items, err := h.Lifecycle.List(c.Request.Context(), f, middleware.CurrentActor(c))
	if err != nil {
		h.writeDomainError(c, err)
		return
	}
	f = f.Normalize()
	c.JSON(http.StatusOK, gin.H{"items": items, "limit": f.Limit, "offset": f.Offset})
}

// @Summary Get a report
// @Tags reports
// @Produce json
// @Param id path string true "Report id"
// @Success 200 {object} models.Report
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/reports/{id} [get]
func (h *Handler) ReportGet(c *gin.Context) {
	r, err := h.Lifecycle.Get(c.Request.Context(), c.Param("id"), middleware.CurrentActor(c))
	if err != nil {
		h.writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// @Summary Change report status
// @Description Staff only. Allowed: new to under-review/resolved/escalated, under-review to resolved/escalated, escalated to under-review/resolved.
// @Tags reports
// @Accept json
// @Produce json
// @Param id path string true "Report id"
// @Param body body StatusRequest true "Target status"
// @Success 200 {object} models.Report
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/reports/{id}/status [patch]
func (h *Handler) ReportUpdateStatus(c *gin.Context) {
	var req StatusRequest
	if !h.bind(c, &req) {
		return
	}
	r, err := h.Lifecycle.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status, middleware.CurrentActor(c))
	if err != nil {
		h.writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// @Summary Update triage notes, urgency or risk score
// @Tags reports
// @Accept json
// @Produce json
// @Param id path string true "Report id"
// @Param body body TriageRequest true "Triage fields"
// @Success 200 {object} models.Report
// @Failure 403 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /api/reports/{id}/triage [patch]
func (h *Handler) ReportUpdateTriage(c *gin.Context) {
	var req TriageRequest
	if !h.bind(c, &req) {
		return
	}
	r, err := h.Lifecycle.UpdateTriage(c.Request.Context(), c.Param("id"), lifecycle.TriagePatch{
		AdminNotes: req.AdminNotes,
		RiskScore:  req.RiskScore,
		Urgency:    req.Urgency,
	}, middleware.CurrentActor(c))
	if err != nil {
		h.writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// @Summary Reporter edit
// @Description The owning reporter may correct description or details while the report is new.
// @Tags reports
// @Accept json
// @Produce json
// @Param id path string true "Report id"
// @Param body body EditRequest true "Changes"
// @Success 200 {object} models.Report
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/reports/{id} [patch]
func (h *Handler) ReportEdit(c *gin.Context) {
	var req EditRequest
	if !h.bind(c, &req) {
		return
	}
	r, err := h.Lifecycle.EditReport(c.Request.Context(), c.Param("id"), lifecycle.ReporterPatch{
		Description: req.Description,
		Details:     req.Details,
	}, middleware.CurrentActor(c))
	if err != nil {
		h.writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}
