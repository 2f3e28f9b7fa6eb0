package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type BoxHandler struct {
	boxService      service.BoxService
	activityService service.ActivityService
}

func NewBoxHandler(boxService service.BoxService, activityService service.ActivityService) *BoxHandler {
	return &BoxHandler{boxService: boxService, activityService: activityService}
}

// RegisterRoutes binds the box endpoints. All routes are organization-scoped
// and require membership.
func (h *BoxHandler) RegisterRoutes(router *gin.RouterGroup) {
	boxes := router.Group("/api/orgs/:orgID/boxes", middleware.RequireOrgMember())
	{
		boxes.GET("", h.ListBoxes)
		boxes.POST("", h.CreateBox)
		boxes.GET("/:boxID", h.GetBox)
		boxes.PUT("/:boxID", h.UpdateBox)
		boxes.DELETE("/:boxID", h.DeleteBox)

		boxes.PUT("/:boxID/status", h.ChangeStatus)
		boxes.GET("/:boxID/checklist", h.GetChecklist)
		boxes.PUT("/:boxID/checklist/:itemID", h.ToggleChecklistItem)
		boxes.GET("/:boxID/process", h.GetProcess)
		boxes.GET("/:boxID/requirements", h.GetRequirements)
		boxes.GET("/:boxID/validation", h.ValidateBox)
		boxes.GET("/:boxID/activity", h.GetBoxActivity)
	}
}

// CreateBox creates a box in DRAFT
// @Summary      Create a box
// @Description  Creates a new box in DRAFT status, deriving VAT and WHT amounts from the rates active on the document date
// @Tags         boxes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        orgID    path      string                    true  "Organization ID"
// @Param        payload  body      service.CreateBoxRequest  true  "Create Box Payload"
// @Success      201      {object}  response.Response{data=service.BoxResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/orgs/{orgID}/boxes [post]
func (h *BoxHandler) CreateBox(c *gin.Context) {
	var req service.CreateBoxRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	box, err := h.boxService.CreateBox(c.Request.Context(), orgIDFrom(c), req, userIDFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, box))
}

// ListBoxes lists the organization's boxes
// @Summary      List boxes
// @Description  Lists boxes with optional status/type/contact filters, newest document date first
// @Tags         boxes
// @Produce      json
// @Security     BearerAuth
// @Param        orgID       path      string  true   "Organization ID"
// @Param        status      query     string  false  "Filter by status"
// @Param        type        query     string  false  "Filter by box type"
// @Param        contact_id  query     string  false  "Filter by contact"
// @Param        page        query     int     false  "Page number"
// @Param        limit       query     int     false  "Page size"
// @Success      200         {object}  response.Response{data=[]service.BoxResponse}
// @Router       /api/orgs/{orgID}/boxes [get]
func (h *BoxHandler) ListBoxes(c *gin.Context) {
	params := pagination.Parse(c)
	req := service.ListBoxesRequest{
		Status:    c.Query("status"),
		Type:      c.Query("type"),
		ContactID: c.Query("contact_id"),
		Page:      params.Page,
		Limit:     params.Limit,
	}

	boxes, total, err := h.boxService.ListBoxes(c.Request.Context(), orgIDFrom(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessList(http.StatusOK, boxes, params.Page, params.Limit, total))
}

// GetBox returns a box with all derived views
// @Summary      Get a box
// @Description  Returns the box plus its checklist, process steps, document requirements, and allowed transitions
// @Tags         boxes
// @Produce      json
// @Security     BearerAuth
// @Param        orgID  path      string  true  "Organization ID"
// @Param        boxID  path      string  true  "Box ID"
// @Success      200    {object}  response.Response{data=service.BoxDetailResponse}
// @Failure      404    {object}  response.Response
// @Router       /api/orgs/{orgID}/boxes/{boxID} [get]
func (h *BoxHandler) GetBox(c *gin.Context) {
	boxID, ok := pathUUID(c, "boxID")
	if !ok {
		return
	}

	box, err := h.boxService.GetBox(c.Request.Context(), orgIDFrom(c), boxID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, box))
}

// UpdateBox edits box fields
// @Summary      Update a box
// @Description  Updates box fields; amounts and document date are editable only while the box is in DRAFT
// @Tags         boxes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        orgID    path      string                    true  "Organization ID"
// @Param        boxID    path      string                    true  "Box ID"
// @Param        payload  body      service.UpdateBoxRequest  true  "Update Box Payload"
// @Success      200      {object}  response.Response{data=service.BoxResponse}
// @Failure      404      {object}  response.Response
// @Router       /api/orgs/{orgID}/boxes/{boxID} [put]
func (h *BoxHandler) UpdateBox(c *gin.Context) {
	boxID, ok := pathUUID(c, "boxID")
	if !ok {
		return
	}

	var req service.UpdateBoxRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	box, err := h.boxService.UpdateBox(c.Request.Context(), orgIDFrom(c), boxID, req, userIDFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, box))
}

// DeleteBox soft-deletes a box
// @Summary      Delete a box
// @Description  Soft-deletes a box; COMPLETED boxes cannot be deleted
// @Tags         boxes
// @Produce      json
// @Security     BearerAuth
// @Param        orgID  path      string  true  "Organization ID"
// @Param        boxID  path      string  true  "Box ID"
// @Success      200    {object}  response.Response
// @Failure      403    {object}  response.Response
// @Router       /api/orgs/{orgID}/boxes/{boxID} [delete]
func (h *BoxHandler) DeleteBox(c *gin.Context) {
	boxID, ok := pathUUID(c, "boxID")
	if !ok {
		return
	}

	if err := h.boxService.DeleteBox(c.Request.Context(), orgIDFrom(c), boxID, userIDFrom(c)); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": true}))
}

// ChangeStatus moves a box along the lifecycle
// @Summary      Change box status
// @Description  Applies a lifecycle transition. Backward moves require a reason; reopening a COMPLETED box additionally requires OWNER or ADMIN role. The request must carry the version it read; a stale version gets 409.
// @Tags         boxes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        orgID    path      string                       true  "Organization ID"
// @Param        boxID    path      string                       true  "Box ID"
// @Param        payload  body      service.ChangeStatusRequest  true  "Target status, version, optional reason"
// @Success      200      {object}  response.Response{data=service.BoxResponse}
// @Failure      403      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/orgs/{orgID}/boxes/{boxID}/status [put]
func (h *BoxHandler) ChangeStatus(c *gin.Context) {
	boxID, ok := pathUUID(c, "boxID")
	if !ok {
		return
	}

	var req service.ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	box, err := h.boxService.ChangeStatus(c.Request.Context(), orgIDFrom(c), boxID, req, userIDFrom(c), memberRoleFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, box))
}

// GetChecklist returns the derived checklist
// @Summary      Get box checklist
// @Description  Returns the checklist derived from the box's documents and manual flags, with completion percent
// @Tags         boxes
// @Produce      json
// @Security     BearerAuth
// @Param        orgID  path      string  true  "Organization ID"
// @Param        boxID  path      string  true  "Box ID"
// @Success      200    {object}  response.Response{data=service.ChecklistResponse}
// @Router       /api/orgs/{orgID}/boxes/{boxID}/checklist [get]
func (h *BoxHandler) GetChecklist(c *gin.Context) {
	boxID, ok := pathUUID(c, "boxID")
	if !ok {
		return
	}

	checklist, err := h.boxService.GetChecklist(c.Request.Context(), orgIDFrom(c), boxID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, checklist))
}

// ToggleChecklistItem flips a manual checklist flag
// @Summary      Toggle a checklist item
// @Description  Flips a manually-toggleable checklist item. Doc-gated items reply 422; so does completing an item whose dependency is unmet.
// @Tags         boxes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        orgID    path      string                          true  "Organization ID"
// @Param        boxID    path      string                          true  "Box ID"
// @Param        itemID   path      string                          true  "Checklist item ID"
// @Param        payload  body      service.ToggleChecklistRequest  true  "Target completed state"
// @Success      200      {object}  response.Response{data=service.ChecklistResponse}
// @Failure      422      {object}  response.Response
// @Router       /api/orgs/{orgID}/boxes/{boxID}/checklist/{itemID} [put]
func (h *BoxHandler) ToggleChecklistItem(c *gin.Context) {
	boxID, ok := pathUUID(c, "boxID")
	if !ok {
		return
	}

	var req service.ToggleChecklistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	checklist, err := h.boxService.ToggleChecklistItem(c.Request.Context(), orgIDFrom(c), boxID, c.Param("itemID"), req.Completed, userIDFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, checklist))
}

// GetProcess returns the process step view
// @Summary      Get box process steps
// @Description  Returns the ordered process steps with pending/current/completed/skipped states and overall progress
// @Tags         boxes
// @Produce      json
// @Security     BearerAuth
// @Param        orgID  path      string  true  "Organization ID"
// @Param        boxID  path      string  true  "Box ID"
// @Success      200    {object}  response.Response{data=service.ProcessResponse}
// @Router       /api/orgs/{orgID}/boxes/{boxID}/process [get]
func (h *BoxHandler) GetProcess(c *gin.Context) {
	boxID, ok := pathUUID(c, "boxID")
	if !ok {
		return
	}

	process, err := h.boxService.GetProcess(c.Request.Context(), orgIDFrom(c), boxID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, process))
}

// GetRequirements returns the document requirements and their completeness
// @Summary      Get box document requirements
// @Description  Returns the required document set for the box's type and tax flags, matched against uploads
// @Tags         boxes
// @Produce      json
// @Security     BearerAuth
// @Param        orgID  path      string  true  "Organization ID"
// @Param        boxID  path      string  true  "Box ID"
// @Success      200    {object}  response.Response
// @Router       /api/orgs/{orgID}/boxes/{boxID}/requirements [get]
func (h *BoxHandler) GetRequirements(c *gin.Context) {
	boxID, ok := pathUUID(c, "boxID")
	if !ok {
		return
	}

	completeness, requirements, err := h.boxService.GetRequirements(c.Request.Context(), orgIDFrom(c), boxID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"requirements": requirements,
		"completeness": completeness,
	}))
}

// ValidateBox runs the validation battery
// @Summary      Validate a box
// @Description  Runs all validation rules over the box snapshot: amounts, OCR agreement, tax id, staleness, missing documents, duplicates, VAT arithmetic
// @Tags         boxes
// @Produce      json
// @Security     BearerAuth
// @Param        orgID  path      string  true  "Organization ID"
// @Param        boxID  path      string  true  "Box ID"
// @Success      200    {object}  response.Response
// @Router       /api/orgs/{orgID}/boxes/{boxID}/validation [get]
func (h *BoxHandler) ValidateBox(c *gin.Context) {
	boxID, ok := pathUUID(c, "boxID")
	if !ok {
		return
	}

	result, err := h.boxService.ValidateBox(c.Request.Context(), orgIDFrom(c), boxID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// GetBoxActivity lists the box's audit trail
// @Summary      Get box activity
// @Description  Lists the audit log entries recorded against this box, newest first
// @Tags         boxes
// @Produce      json
// @Security     BearerAuth
// @Param        orgID  path      string  true   "Organization ID"
// @Param        boxID  path      string  true   "Box ID"
// @Param        page   query     int     false  "Page number"
// @Param        limit  query     int     false  "Page size"
// @Success      200    {object}  response.Response{data=[]service.ActivityResponse}
// @Router       /api/orgs/{orgID}/boxes/{boxID}/activity [get]
func (h *BoxHandler) GetBoxActivity(c *gin.Context) {
	boxID, ok := pathUUID(c, "boxID")
	if !ok {
		return
	}

	params := pagination.Parse(c)
	logs, total, err := h.activityService.ListBoxActivity(c.Request.Context(), orgIDFrom(c), boxID, params.Page, params.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessList(http.StatusOK, logs, params.Page, params.Limit, total))
}
