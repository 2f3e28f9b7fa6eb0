package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type ContactHandler struct {
	contactService service.ContactService
}

func NewContactHandler(contactService service.ContactService) *ContactHandler {
	return &ContactHandler{contactService: contactService}
}

func (h *ContactHandler) RegisterRoutes(router *gin.RouterGroup) {
	contacts := router.Group("/api/orgs/:orgID/contacts", middleware.RequireOrgMember())
	{
		contacts.GET("", h.ListContacts)
		contacts.POST("", h.CreateContact)
		contacts.GET("/:contactID", h.GetContact)
		contacts.PUT("/:contactID", h.UpdateContact)
		contacts.DELETE("/:contactID", middleware.RequireOrgMember(
			model.MemberRoleOwner, model.MemberRoleAdmin, model.MemberRoleAccounting), h.DeleteContact)
	}
}

// CreateContact creates a counterparty
// @Summary      Create a contact
// @Tags         contacts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        orgID    path      string                        true  "Organization ID"
// @Param        payload  body      service.CreateContactRequest  true  "Create Contact Payload"
// @Success      201      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Router       /api/orgs/{orgID}/contacts [post]
func (h *ContactHandler) CreateContact(c *gin.Context) {
	var req service.CreateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	contact, err := h.contactService.CreateContact(c.Request.Context(), orgIDFrom(c), req, userIDFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, contact))
}

// ListContacts lists the organization's contacts
// @Summary      List contacts
// @Tags         contacts
// @Produce      json
// @Security     BearerAuth
// @Param        orgID  path      string  true   "Organization ID"
// @Param        page   query     int     false  "Page number"
// @Param        limit  query     int     false  "Page size"
// @Success      200    {object}  response.Response
// @Router       /api/orgs/{orgID}/contacts [get]
func (h *ContactHandler) ListContacts(c *gin.Context) {
	params := pagination.Parse(c)

	contacts, total, err := h.contactService.ListContacts(c.Request.Context(), orgIDFrom(c), params.Page, params.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessList(http.StatusOK, contacts, params.Page, params.Limit, total))
}

// GetContact returns one contact
// @Summary      Get a contact
// @Tags         contacts
// @Produce      json
// @Security     BearerAuth
// @Param        orgID      path      string  true  "Organization ID"
// @Param        contactID  path      string  true  "Contact ID"
// @Success      200        {object}  response.Response
// @Failure      404        {object}  response.Response
// @Router       /api/orgs/{orgID}/contacts/{contactID} [get]
func (h *ContactHandler) GetContact(c *gin.Context) {
	contactID, ok := pathUUID(c, "contactID")
	if !ok {
		return
	}

	contact, err := h.contactService.GetContact(c.Request.Context(), orgIDFrom(c), contactID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, contact))
}

// UpdateContact edits a contact
// @Summary      Update a contact
// @Tags         contacts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        orgID      path      string                        true  "Organization ID"
// @Param        contactID  path      string                        true  "Contact ID"
// @Param        payload    body      service.UpdateContactRequest  true  "Update Contact Payload"
// @Success      200        {object}  response.Response
// @Failure      404        {object}  response.Response
// @Router       /api/orgs/{orgID}/contacts/{contactID} [put]
func (h *ContactHandler) UpdateContact(c *gin.Context) {
	contactID, ok := pathUUID(c, "contactID")
	if !ok {
		return
	}

	var req service.UpdateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	contact, err := h.contactService.UpdateContact(c.Request.Context(), orgIDFrom(c), contactID, req, userIDFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, contact))
}

// DeleteContact removes a contact without boxes
// @Summary      Delete a contact
// @Description  Refuses with 422 when boxes still reference the contact
// @Tags         contacts
// @Produce      json
// @Security     BearerAuth
// @Param        orgID      path      string  true  "Organization ID"
// @Param        contactID  path      string  true  "Contact ID"
// @Success      200        {object}  response.Response
// @Failure      422        {object}  response.Response
// @Router       /api/orgs/{orgID}/contacts/{contactID} [delete]
func (h *ContactHandler) DeleteContact(c *gin.Context) {
	contactID, ok := pathUUID(c, "contactID")
	if !ok {
		return
	}

	if err := h.contactService.DeleteContact(c.Request.Context(), orgIDFrom(c), contactID, userIDFrom(c)); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": true}))
}
