package handler

import (
	catalogapp "github.com/ehr/pharmacy/internal/application/catalog"
	"github.com/gin-gonic/gin"
)

// CatalogHandler handles products, chemical schedules and schedule policies
type CatalogHandler struct {
	BaseHandler
	productService *catalogapp.ProductService
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(productService *catalogapp.ProductService) *CatalogHandler {
	return &CatalogHandler{productService: productService}
}

// RegisterProduct handles POST /products
func (h *CatalogHandler) RegisterProduct(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req catalogapp.RegisterProductRequest
	if !h.bindJSON(c, &req) {
		return
	}

	product, err := h.productService.RegisterProduct(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, product)
}

// GetProduct handles GET /products/:id
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	product, err := h.productService.GetProduct(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// ListProducts handles GET /products
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	var filter catalogapp.ProductListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	filter.Page, filter.PageSize = pageOrDefault(filter.Page, filter.PageSize)

	products, total, err := h.productService.ListProducts(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, products, total, filter.Page, filter.PageSize)
}

// SetChemicalSchedule handles PUT /chemicals/:name/schedule. The response
// lists every product escalated by the change.
func (h *CatalogHandler) SetChemicalSchedule(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req catalogapp.SetScheduleRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.productService.SetChemicalSchedule(c.Request.Context(), actor, c.Param("name"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// GetChemicalSchedule handles GET /chemicals/:name/schedule
func (h *CatalogHandler) GetChemicalSchedule(c *gin.Context) {
	cs, err := h.productService.GetChemicalSchedule(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cs)
}

// GetPolicy handles GET /schedules/:symbol/policy
func (h *CatalogHandler) GetPolicy(c *gin.Context) {
	policy, err := h.productService.GetPolicy(c.Param("symbol"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, policy)
}
