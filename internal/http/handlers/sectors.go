package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/safereport/backend/internal/models"
)

// @Summary List sectors
// @Tags registry
// @Produce json
// @Success 200 {array} registry.SectorDefinition
// @Router /api/sectors [get]
func (h *Handler) SectorsList(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"version": h.Registry.Version(), "sectors": h.Registry.Sectors()})
}

// @Summary List categories of a sector
// @Tags registry
// @Produce json
// @Param sector path string true "Sector id"
// @Success 200 {array} registry.CategoryDefinition
// @Failure 404 {object} ErrorResponse
// @Router /api/sectors/{sector}/categories [get]
func (h *Handler) CategoriesList(c *gin.Context) {
	cats, err := h.Registry.Categories(models.SectorID(c.Param("sector")))
	if err != nil {
		h.writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, cats)
}

// @Summary Fields for a sector and category
// @Description Sector-wide fields come first, then category fields.
// @Tags registry
// @Produce json
// @Param sector path string true "Sector id"
// @Param category path string true "Category id"
// @Success 200 {array} registry.FieldSpec
// @Failure 404 {object} ErrorResponse
// @Router /api/sectors/{sector}/categories/{category}/fields [get]
func (h *Handler) FieldsList(c *gin.Context) {
	fields, err := h.Registry.Fields(models.SectorID(c.Param("sector")), c.Param("category"))
	if err != nil {
		h.writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, fields)
}
