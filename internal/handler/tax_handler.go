package handler

import (
	"net/http"
	"time"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type TaxHandler struct {
	taxService service.TaxService
}

func NewTaxHandler(taxService service.TaxService) *TaxHandler {
	return &TaxHandler{taxService: taxService}
}

// RegisterRoutes binds the tax rate endpoints. Rates are platform-global;
// writes are restricted to platform admins.
func (h *TaxHandler) RegisterRoutes(router *gin.RouterGroup) {
	rates := router.Group("/api/tax-rates")
	{
		rates.GET("", middleware.RequireAuth(), h.ListTaxRates)
		rates.GET("/active", middleware.RequireAuth(), h.GetActiveRate)
		rates.POST("", middleware.RequirePlatformRole(model.UserRoleAdmin), h.CreateTaxRate)
		rates.DELETE("/:id", middleware.RequirePlatformRole(model.UserRoleAdmin), h.DeleteTaxRate)
	}
}

// ListTaxRates lists all tax rate rules
// @Summary      List tax rates
// @Tags         tax-rates
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.TaxRateResponse}
// @Router       /api/tax-rates [get]
func (h *TaxHandler) ListTaxRates(c *gin.Context) {
	rates, err := h.taxService.ListTaxRates(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, rates))
}

// GetActiveRate returns the rate in force on a date
// @Summary      Get active tax rate
// @Description  Returns the VAT or WHT rate in force on the given date (default today)
// @Tags         tax-rates
// @Produce      json
// @Security     BearerAuth
// @Param        type  query     string  true   "Tax type (VAT or WHT)"
// @Param        date  query     string  false  "Target date YYYY-MM-DD"
// @Success      200   {object}  response.Response
// @Failure      404   {object}  response.Response
// @Router       /api/tax-rates/active [get]
func (h *TaxHandler) GetActiveRate(c *gin.Context) {
	taxType := c.Query("type")
	if taxType != model.TaxTypeVAT && taxType != model.TaxTypeWHT {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "type must be VAT or WHT"))
		return
	}

	target := time.Now()
	if d := c.Query("date"); d != "" {
		parsed, err := time.Parse("2006-01-02", d)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid date format (expected YYYY-MM-DD)"))
			return
		}
		target = parsed
	}

	rate, err := h.taxService.ActiveRate(c.Request.Context(), taxType, target)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"tax_type": taxType,
		"date":     target.Format("2006-01-02"),
		"rate":     rate.StringFixed(4),
	}))
}

// CreateTaxRate creates a tax rate rule
// @Summary      Create a tax rate
// @Description  Creates a VAT or WHT rate with an effective date window; overlapping windows of the same type are rejected
// @Tags         tax-rates
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateTaxRateRequest  true  "Create Tax Rate Payload"
// @Success      201      {object}  response.Response{data=service.TaxRateResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/tax-rates [post]
func (h *TaxHandler) CreateTaxRate(c *gin.Context) {
	var req service.CreateTaxRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	rate, err := h.taxService.CreateTaxRate(c.Request.Context(), req, userIDFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, rate))
}

// DeleteTaxRate removes a tax rate rule
// @Summary      Delete a tax rate
// @Tags         tax-rates
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Tax Rate ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/tax-rates/{id} [delete]
func (h *TaxHandler) DeleteTaxRate(c *gin.Context) {
	if err := h.taxService.DeleteTaxRate(c.Request.Context(), c.Param("id"), userIDFrom(c)); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": true}))
}
