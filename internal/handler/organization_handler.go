package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type OrganizationHandler struct {
	orgService      service.OrganizationService
	activityService service.ActivityService
}

func NewOrganizationHandler(orgService service.OrganizationService, activityService service.ActivityService) *OrganizationHandler {
	return &OrganizationHandler{orgService: orgService, activityService: activityService}
}

func (h *OrganizationHandler) RegisterRoutes(router *gin.RouterGroup) {
	orgs := router.Group("/api/orgs")
	{
		orgs.GET("", middleware.RequireAuth(), h.ListOrganizations)
		orgs.POST("", middleware.RequireAuth(), h.CreateOrganization)

		orgs.GET("/:orgID", middleware.RequireOrgMember(), h.GetOrganization)
		orgs.PUT("/:orgID", middleware.RequireOrgMember(model.MemberRoleOwner, model.MemberRoleAdmin), h.UpdateOrganization)

		orgs.GET("/:orgID/activity", middleware.RequireOrgMember(), h.GetActivity)

		orgs.GET("/:orgID/members", middleware.RequireOrgMember(), h.ListMembers)
		orgs.POST("/:orgID/members", middleware.RequireOrgMember(model.MemberRoleOwner, model.MemberRoleAdmin), h.AddMember)
		orgs.PUT("/:orgID/members/:userID", middleware.RequireOrgMember(model.MemberRoleOwner, model.MemberRoleAdmin), h.UpdateMemberRole)
		orgs.DELETE("/:orgID/members/:userID", middleware.RequireOrgMember(model.MemberRoleOwner, model.MemberRoleAdmin), h.RemoveMember)
	}
}

// CreateOrganization creates an organization owned by the caller
// @Summary      Create an organization
// @Description  Creates an organization; the creator becomes its first OWNER
// @Tags         organizations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateOrganizationRequest  true  "Create Organization Payload"
// @Success      201      {object}  response.Response
// @Router       /api/orgs [post]
func (h *OrganizationHandler) CreateOrganization(c *gin.Context) {
	var req service.CreateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID, err := uuid.Parse(userIDFrom(c))
	if err != nil {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid user identity"))
		return
	}

	org, err := h.orgService.CreateOrganization(c.Request.Context(), req, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, org))
}

// ListOrganizations lists the caller's organizations
// @Summary      List my organizations
// @Tags         organizations
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Router       /api/orgs [get]
func (h *OrganizationHandler) ListOrganizations(c *gin.Context) {
	userID, err := uuid.Parse(userIDFrom(c))
	if err != nil {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid user identity"))
		return
	}

	orgs, err := h.orgService.ListOrganizations(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, orgs))
}

// GetOrganization returns one organization
// @Summary      Get an organization
// @Tags         organizations
// @Produce      json
// @Security     BearerAuth
// @Param        orgID  path      string  true  "Organization ID"
// @Success      200    {object}  response.Response
// @Failure      404    {object}  response.Response
// @Router       /api/orgs/{orgID} [get]
func (h *OrganizationHandler) GetOrganization(c *gin.Context) {
	org, err := h.orgService.GetOrganization(c.Request.Context(), orgIDFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, org))
}

// UpdateOrganization edits organization fields
// @Summary      Update an organization
// @Tags         organizations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        orgID    path      string                             true  "Organization ID"
// @Param        payload  body      service.UpdateOrganizationRequest  true  "Update Organization Payload"
// @Success      200      {object}  response.Response
// @Router       /api/orgs/{orgID} [put]
func (h *OrganizationHandler) UpdateOrganization(c *gin.Context) {
	var req service.UpdateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	org, err := h.orgService.UpdateOrganization(c.Request.Context(), orgIDFrom(c), req, userIDFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, org))
}

// GetActivity lists the organization's audit trail
// @Summary      Get organization activity
// @Tags         organizations
// @Produce      json
// @Security     BearerAuth
// @Param        orgID  path      string  true   "Organization ID"
// @Param        page   query     int     false  "Page number"
// @Param        limit  query     int     false  "Page size"
// @Success      200    {object}  response.Response{data=[]service.ActivityResponse}
// @Router       /api/orgs/{orgID}/activity [get]
func (h *OrganizationHandler) GetActivity(c *gin.Context) {
	params := pagination.Parse(c)

	logs, total, err := h.activityService.ListOrgActivity(c.Request.Context(), orgIDFrom(c), params.Page, params.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessList(http.StatusOK, logs, params.Page, params.Limit, total))
}

// ListMembers lists organization members
// @Summary      List members
// @Tags         organizations
// @Produce      json
// @Security     BearerAuth
// @Param        orgID  path      string  true  "Organization ID"
// @Success      200    {object}  response.Response{data=[]service.MemberResponse}
// @Router       /api/orgs/{orgID}/members [get]
func (h *OrganizationHandler) ListMembers(c *gin.Context) {
	members, err := h.orgService.ListMembers(c.Request.Context(), orgIDFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, members))
}

// AddMember invites a user into the organization
// @Summary      Add a member
// @Description  Adds an existing user to the organization by email with a role
// @Tags         organizations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        orgID    path      string                    true  "Organization ID"
// @Param        payload  body      service.AddMemberRequest  true  "Add Member Payload"
// @Success      201      {object}  response.Response{data=service.MemberResponse}
// @Failure      404      {object}  response.Response
// @Router       /api/orgs/{orgID}/members [post]
func (h *OrganizationHandler) AddMember(c *gin.Context) {
	var req service.AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	member, err := h.orgService.AddMember(c.Request.Context(), orgIDFrom(c), req, userIDFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, member))
}

// UpdateMemberRole changes a member's role
// @Summary      Update a member's role
// @Description  Changes a member's role. The organization must always keep at least one OWNER.
// @Tags         organizations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        orgID    path      string                           true  "Organization ID"
// @Param        userID   path      string                           true  "User ID"
// @Param        payload  body      service.UpdateMemberRoleRequest  true  "New role"
// @Success      200      {object}  response.Response{data=service.MemberResponse}
// @Failure      403      {object}  response.Response
// @Router       /api/orgs/{orgID}/members/{userID} [put]
func (h *OrganizationHandler) UpdateMemberRole(c *gin.Context) {
	userID, ok := pathUUID(c, "userID")
	if !ok {
		return
	}

	var req service.UpdateMemberRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	orgID := orgIDFrom(c)
	member, err := h.orgService.UpdateMemberRole(c.Request.Context(), orgID, userID, req, userIDFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}

	middleware.InvalidateMemberCache(orgID, userID)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, member))
}

// RemoveMember removes a member from the organization
// @Summary      Remove a member
// @Description  Removes a member. The last OWNER cannot be removed.
// @Tags         organizations
// @Produce      json
// @Security     BearerAuth
// @Param        orgID   path      string  true  "Organization ID"
// @Param        userID  path      string  true  "User ID"
// @Success      200     {object}  response.Response
// @Failure      403     {object}  response.Response
// @Router       /api/orgs/{orgID}/members/{userID} [delete]
func (h *OrganizationHandler) RemoveMember(c *gin.Context) {
	userID, ok := pathUUID(c, "userID")
	if !ok {
		return
	}

	orgID := orgIDFrom(c)
	if err := h.orgService.RemoveMember(c.Request.Context(), orgID, userID, userIDFrom(c)); err != nil {
		respondError(c, err)
		return
	}

	middleware.InvalidateMemberCache(orgID, userID)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"removed": true}))
}
