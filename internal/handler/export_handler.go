package handler

import (
	"net/http"
	"strconv"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type ExportHandler struct {
	exportService service.ExportService
}

func NewExportHandler(exportService service.ExportService) *ExportHandler {
	return &ExportHandler{exportService: exportService}
}

// RegisterRoutes binds the export endpoint. Exporting the ledger is an
// accounting action, so STAFF members are excluded.
func (h *ExportHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/api/orgs/:orgID/export", middleware.RequireOrgMember(
		model.MemberRoleOwner, model.MemberRoleAdmin, model.MemberRoleAccounting), h.ExportBoxes)
}

// ExportBoxes downloads the completed-box ledger as xlsx
// @Summary      Export completed boxes
// @Description  Renders the organization's COMPLETED boxes in the date range as an xlsx workbook. Boxes that still fail validation are skipped and reported in the X-Skipped-Boxes header.
// @Tags         export
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security     BearerAuth
// @Param        orgID       path      string  true  "Organization ID"
// @Param        start_date  query     string  true  "Range start YYYY-MM-DD"
// @Param        end_date    query     string  true  "Range end YYYY-MM-DD"
// @Success      200         {file}    file
// @Failure      400         {object}  response.Response
// @Router       /api/orgs/{orgID}/export [get]
func (h *ExportHandler) ExportBoxes(c *gin.Context) {
	var req service.ExportBoxesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid query parameters: "+err.Error()))
		return
	}

	result, err := h.exportService.ExportBoxes(c.Request.Context(), orgIDFrom(c), req, userIDFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+result.FileName+`"`)
	c.Header("X-Exported-Count", strconv.Itoa(result.Exported))
	c.Header("X-Skipped-Count", strconv.Itoa(len(result.Skipped)))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", result.Content)
}
