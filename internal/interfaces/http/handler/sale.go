package handler

import (
	tradeapp "github.com/ehr/pharmacy/internal/application/trade"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SaleHandler handles dispensing bills and their returns
type SaleHandler struct {
	BaseHandler
	saleService   *tradeapp.SaleService
	returnService *tradeapp.ReturnService
}

// NewSaleHandler creates a new SaleHandler
func NewSaleHandler(saleService *tradeapp.SaleService, returnService *tradeapp.ReturnService) *SaleHandler {
	return &SaleHandler{saleService: saleService, returnService: returnService}
}

// Create handles POST /sales. A compliance rejection answers 422 with the
// list of missing prescription fields.
func (h *SaleHandler) Create(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req tradeapp.CreateSaleRequest
	if !h.bindJSON(c, &req) {
		return
	}

	s, err := h.saleService.CreateSale(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, s)
}

// GetByID handles GET /sales/:id
func (h *SaleHandler) GetByID(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	s, err := h.saleService.GetSale(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, s)
}

// List handles GET /sales
func (h *SaleHandler) List(c *gin.Context) {
	var filter tradeapp.SaleListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	filter.Page, filter.PageSize = pageOrDefault(filter.Page, filter.PageSize)

	list, total, err := h.saleService.ListSales(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, list, total, filter.Page, filter.PageSize)
}

// CreateReturn handles POST /returns
func (h *SaleHandler) CreateReturn(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req tradeapp.CreateReturnRequest
	if !h.bindJSON(c, &req) {
		return
	}

	r, err := h.returnService.CreateReturn(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, r)
}

// GetReturn handles GET /returns/:id
func (h *SaleHandler) GetReturn(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	r, err := h.returnService.GetReturn(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, r)
}

type returnListQuery struct {
	SaleID string `form:"sale_id" binding:"required,uuid"`
}

// ListReturns handles GET /returns?sale_id=
func (h *SaleHandler) ListReturns(c *gin.Context) {
	var q returnListQuery
	if !h.bindQuery(c, &q) {
		return
	}
	saleID, _ := uuid.Parse(q.SaleID) // checked by the uuid binding
	list, err := h.returnService.ListReturnsBySale(c.Request.Context(), saleID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, list)
}

// ApproveReturn handles POST /returns/:id/approve
func (h *SaleHandler) ApproveReturn(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	r, err := h.returnService.ApproveReturn(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, r)
}
