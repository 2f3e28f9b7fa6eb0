package handler

import (
	"errors"
	"net/http"

	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// respondError maps service sentinel errors onto HTTP statuses. Anything not
// recognized is treated as a bad request rather than leaking a 500, matching
// how validation-ish service errors read.
func respondError(c *gin.Context, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrStaleBox):
		status = http.StatusConflict
	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrReasonRequired),
		errors.Is(err, service.ErrChecklistBlocked),
		errors.Is(err, service.ErrNotToggleable),
		errors.Is(err, service.ErrHasDependents):
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, response.Error(status, err.Error()))
}

// orgIDFrom reads the organization id stored by the membership middleware.
func orgIDFrom(c *gin.Context) uuid.UUID {
	if v, ok := c.Get("orgID"); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}

// userIDFrom reads the authenticated user's id string from the context.
func userIDFrom(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// memberRoleFrom reads the caller's organization role from the context.
func memberRoleFrom(c *gin.Context) string {
	if v, ok := c.Get("memberRole"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// pathUUID parses a path parameter as a UUID, replying 400 on failure.
func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid "+name))
		return uuid.Nil, false
	}
	return id, true
}
