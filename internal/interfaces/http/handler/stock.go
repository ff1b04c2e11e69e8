package handler

import (
	"time"

	invapp "github.com/ehr/pharmacy/internal/application/inventory"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// StockHandler handles stock queries, internal movements and disposals
type StockHandler struct {
	BaseHandler
	inventoryService *invapp.InventoryService
	disposalService  *invapp.DisposalService
}

// NewStockHandler creates a new StockHandler
func NewStockHandler(inventoryService *invapp.InventoryService, disposalService *invapp.DisposalService) *StockHandler {
	return &StockHandler{inventoryService: inventoryService, disposalService: disposalService}
}

// BatchStock handles GET /stock/batches/:id
func (h *StockHandler) BatchStock(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	stock, err := h.inventoryService.CurrentStock(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stock)
}

// BatchLedger handles GET /stock/batches/:id/ledger
func (h *StockHandler) BatchLedger(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	ledger, err := h.inventoryService.BatchLedger(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ledger)
}

// VerifyLedger handles GET /stock/batches/:id/verify
func (h *StockHandler) VerifyLedger(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	result, err := h.inventoryService.VerifyLedger(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ProductStock handles GET /stock/products/:id
func (h *StockHandler) ProductStock(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	rows, err := h.inventoryService.ProductStock(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rows)
}

type stockReportQuery struct {
	invapp.StockReportFilter
	AsOf *time.Time `form:"as_of" time_format:"2006-01-02"`
}

// Report handles GET /stock/report
func (h *StockHandler) Report(c *gin.Context) {
	var q stockReportQuery
	if !h.bindQuery(c, &q) {
		return
	}
	var asOf time.Time
	if q.AsOf != nil {
		asOf = *q.AsOf
	}

	report, err := h.inventoryService.StockReport(c.Request.Context(), asOf, q.StockReportFilter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

// NearExpiry handles GET /stock/near-expiry?band=
func (h *StockHandler) NearExpiry(c *gin.Context) {
	report, err := h.inventoryService.NearExpiry(c.Request.Context(), c.Query("band"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

// IssueInternal handles POST /stock/issues
func (h *StockHandler) IssueInternal(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req invapp.IssueInternalRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.inventoryService.IssueInternal(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// ReturnToSupplier handles POST /stock/supplier-returns
func (h *StockHandler) ReturnToSupplier(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req invapp.SupplierReturnRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.inventoryService.ReturnToSupplier(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// CreateDisposal handles POST /disposals
func (h *StockHandler) CreateDisposal(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req invapp.CreateDisposalRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.disposalService.CreateDisposal(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// GetDisposal handles GET /disposals/:id
func (h *StockHandler) GetDisposal(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.disposalService.GetDisposal(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

type disposalListQuery struct {
	BatchID string `form:"batch_id" binding:"required,uuid"`
}

// ListDisposals handles GET /disposals?batch_id=
func (h *StockHandler) ListDisposals(c *gin.Context) {
	var q disposalListQuery
	if !h.bindQuery(c, &q) {
		return
	}
	batchID, _ := uuid.Parse(q.BatchID) // checked by the uuid binding
	list, err := h.disposalService.ListDisposalsByBatch(c.Request.Context(), batchID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, list)
}
