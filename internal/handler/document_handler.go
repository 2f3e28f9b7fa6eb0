package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type DocumentHandler struct {
	documentService service.DocumentService
}

func NewDocumentHandler(documentService service.DocumentService) *DocumentHandler {
	return &DocumentHandler{documentService: documentService}
}

// RegisterRoutes binds the document endpoints. Uploads hang off the box;
// mutations address the document directly.
func (h *DocumentHandler) RegisterRoutes(router *gin.RouterGroup) {
	boxes := router.Group("/api/orgs/:orgID/boxes", middleware.RequireOrgMember())
	{
		boxes.GET("/:boxID/documents", h.ListDocuments)
		boxes.POST("/:boxID/documents", h.UploadDocument)
	}

	docs := router.Group("/api/orgs/:orgID/documents", middleware.RequireOrgMember())
	{
		docs.PUT("/:docID/type", h.ReclassifyDocument)
		docs.DELETE("/:docID", h.DeleteDocument)
		docs.POST("/:docID/sub-documents", h.AddSubDocument)
	}
}

// UploadDocument attaches a document to a box
// @Summary      Upload a document
// @Description  Attaches an evidence document to a box. Replies with the stored document plus advisory warnings (e.g. amount mismatch) that never block the upload.
// @Tags         documents
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        orgID    path      string                         true  "Organization ID"
// @Param        boxID    path      string                         true  "Box ID"
// @Param        payload  body      service.UploadDocumentRequest  true  "Upload Document Payload"
// @Success      201      {object}  response.Response{data=service.UploadDocumentResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/orgs/{orgID}/boxes/{boxID}/documents [post]
func (h *DocumentHandler) UploadDocument(c *gin.Context) {
	boxID, ok := pathUUID(c, "boxID")
	if !ok {
		return
	}

	var req service.UploadDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	res, err := h.documentService.UploadDocument(c.Request.Context(), orgIDFrom(c), boxID, req, userIDFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, res))
}

// ListDocuments lists a box's documents
// @Summary      List box documents
// @Tags         documents
// @Produce      json
// @Security     BearerAuth
// @Param        orgID  path      string  true  "Organization ID"
// @Param        boxID  path      string  true  "Box ID"
// @Success      200    {object}  response.Response
// @Router       /api/orgs/{orgID}/boxes/{boxID}/documents [get]
func (h *DocumentHandler) ListDocuments(c *gin.Context) {
	boxID, ok := pathUUID(c, "boxID")
	if !ok {
		return
	}

	docs, err := h.documentService.ListDocuments(c.Request.Context(), orgIDFrom(c), boxID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, docs))
}

// ReclassifyDocument changes a document's type
// @Summary      Reclassify a document
// @Description  Changes the document type, e.g. a receipt that turns out to be an abbreviated tax invoice. Checklist and requirement views recompute on the next read.
// @Tags         documents
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        orgID    path      string                             true  "Organization ID"
// @Param        docID    path      string                             true  "Document ID"
// @Param        payload  body      service.ReclassifyDocumentRequest  true  "New document type"
// @Success      200      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/orgs/{orgID}/documents/{docID}/type [put]
func (h *DocumentHandler) ReclassifyDocument(c *gin.Context) {
	docID, ok := pathUUID(c, "docID")
	if !ok {
		return
	}

	var req service.ReclassifyDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	doc, err := h.documentService.ReclassifyDocument(c.Request.Context(), orgIDFrom(c), docID, req, userIDFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, doc))
}

// DeleteDocument removes a document
// @Summary      Delete a document
// @Tags         documents
// @Produce      json
// @Security     BearerAuth
// @Param        orgID  path      string  true  "Organization ID"
// @Param        docID  path      string  true  "Document ID"
// @Success      200    {object}  response.Response
// @Failure      404    {object}  response.Response
// @Router       /api/orgs/{orgID}/documents/{docID} [delete]
func (h *DocumentHandler) DeleteDocument(c *gin.Context) {
	docID, ok := pathUUID(c, "docID")
	if !ok {
		return
	}

	if err := h.documentService.DeleteDocument(c.Request.Context(), orgIDFrom(c), docID, userIDFrom(c)); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": true}))
}

// AddSubDocument attaches a sub-document to a document
// @Summary      Add a sub-document
// @Description  Splits a page or attachment out of an uploaded file and classifies it independently
// @Tags         documents
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        orgID    path      string                        true  "Organization ID"
// @Param        docID    path      string                        true  "Document ID"
// @Param        payload  body      service.AddSubDocumentRequest true  "Sub-document payload"
// @Success      201      {object}  response.Response
// @Router       /api/orgs/{orgID}/documents/{docID}/sub-documents [post]
func (h *DocumentHandler) AddSubDocument(c *gin.Context) {
	docID, ok := pathUUID(c, "docID")
	if !ok {
		return
	}

	var req service.AddSubDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	sub, err := h.documentService.AddSubDocument(c.Request.Context(), orgIDFrom(c), docID, req, userIDFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, sub))
}
