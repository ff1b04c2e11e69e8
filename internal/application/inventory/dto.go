package inventory

import (
	"time"

	"github.com/ehr/pharmacy/internal/domain/disposal"
	"github.com/ehr/pharmacy/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateDisposalRequest represents a stock write-off
type CreateDisposalRequest struct {
	BatchID uuid.UUID `json:"batch_id" binding:"required"`
	Qty     int64     `json:"qty" binding:"required,min=1"`
	Reason  string    `json:"reason" binding:"required,oneof=expiry damage recall"`
	Remark  string    `json:"remark" binding:"max=500"`
}

// IssueInternalRequest issues stock to a hospital department
type IssueInternalRequest struct {
	BatchID    uuid.UUID `json:"batch_id" binding:"required"`
	Qty        int64     `json:"qty" binding:"required,min=1"`
	Department string    `json:"department" binding:"required,max=100"`
	Note       string    `json:"note" binding:"max=200"`
}

// SupplierReturnRequest sends stock back to the supplier
type SupplierReturnRequest struct {
	BatchID uuid.UUID `json:"batch_id" binding:"required"`
	Qty     int64     `json:"qty" binding:"required,min=1"`
	Reason  string    `json:"reason" binding:"required,max=200"`
}

// DisposalResponse represents a disposal in API responses
type DisposalResponse struct {
	ID          uuid.UUID       `json:"id"`
	BatchID     uuid.UUID       `json:"batch_id"`
	ProductID   uuid.UUID       `json:"product_id"`
	PurchaseID  uuid.UUID       `json:"purchase_id"`
	Qty         int64           `json:"qty"`
	Reason      string          `json:"reason"`
	Remark      string          `json:"remark"`
	ITCReversal decimal.Decimal `json:"itc_reversal_tax"`
	CostValue   decimal.Decimal `json:"cost_value"`
	MRPValue    decimal.Decimal `json:"mrp_value"`
	ApprovedBy  string          `json:"approved_by"`
	CreatedAt   time.Time       `json:"created_at"`
}

// MovementResponse reports a posted outflow
type MovementResponse struct {
	RefID        uuid.UUID `json:"ref_id"`
	BatchID      uuid.UUID `json:"batch_id"`
	BatchNo      string    `json:"batch_no"`
	TxnType      string    `json:"txn_type"`
	Qty          int64     `json:"qty"`
	BalanceAfter int64     `json:"balance_after"`
}

// StockResponse is the ledger-derived balance of a batch
type StockResponse struct {
	BatchID   uuid.UUID `json:"batch_id"`
	BatchNo   string    `json:"batch_no"`
	ProductID uuid.UUID `json:"product_id"`
	Expiry    string    `json:"expiry"`
	Balance   int64     `json:"balance"`
}

// LedgerEntryResponse is one ledger entry with the running balance after it
type LedgerEntryResponse struct {
	ID             uuid.UUID       `json:"id"`
	TxnType        string          `json:"txn_type"`
	QtyIn          int64           `json:"qty_in"`
	QtyOut         int64           `json:"qty_out"`
	CostPerUnit    decimal.Decimal `json:"cost_per_unit"`
	MRP            decimal.Decimal `json:"mrp"`
	RefType        string          `json:"ref_type"`
	RefID          uuid.UUID       `json:"ref_id"`
	Note           string          `json:"note,omitempty"`
	ActorID        string          `json:"actor_id,omitempty"`
	RunningBalance int64           `json:"running_balance"`
	CreatedAt      time.Time       `json:"created_at"`
}

// BatchLedgerResponse is a batch's full movement history
type BatchLedgerResponse struct {
	Stock   StockResponse         `json:"stock"`
	Entries []LedgerEntryResponse `json:"entries"`
}

// StockReportRow values one approved batch
type StockReportRow struct {
	BatchID     uuid.UUID       `json:"batch_id"`
	BatchNo     string          `json:"batch_no"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Schedule    string          `json:"schedule"`
	Expiry      string          `json:"expiry"`
	Band        string          `json:"band"`
	Expired     bool            `json:"expired"`
	Balance     int64           `json:"balance"`
	CostPerUnit decimal.Decimal `json:"cost_per_unit"`
	CostValue   decimal.Decimal `json:"cost_value"`
	MRP         decimal.Decimal `json:"mrp"`
	MRPValue    decimal.Decimal `json:"mrp_value"`
}

// StockReportResponse is the valuation of all stock on hand
type StockReportResponse struct {
	AsOf           time.Time        `json:"as_of"`
	Rows           []StockReportRow `json:"rows"`
	TotalCostValue decimal.Decimal  `json:"total_cost_value"`
	TotalMRPValue  decimal.Decimal  `json:"total_mrp_value"`
}

// StockReportFilter narrows the report
type StockReportFilter struct {
	Band        string `form:"band" binding:"omitempty,oneof=red orange yellow ok"`
	IncludeZero bool   `form:"include_zero"`
}

// LedgerVerificationResponse is the result of replaying a batch's entries
type LedgerVerificationResponse struct {
	BatchID         uuid.UUID  `json:"batch_id"`
	Entries         int        `json:"entries"`
	Balance         int64      `json:"balance"`
	Consistent      bool       `json:"consistent"`
	FirstNegativeAt *uuid.UUID `json:"first_negative_at,omitempty"`
}

// ToDisposalResponse converts a domain Disposal
func ToDisposalResponse(d *disposal.Disposal) DisposalResponse {
	return DisposalResponse{
		ID:          d.ID,
		BatchID:     d.BatchID,
		ProductID:   d.ProductID,
		PurchaseID:  d.PurchaseID,
		Qty:         d.Qty,
		Reason:      string(d.Reason),
		Remark:      d.Remark,
		ITCReversal: d.ITCReversal,
		CostValue:   d.CostValue,
		MRPValue:    d.MRPValue,
		ApprovedBy:  d.ApprovedBy,
		CreatedAt:   d.CreatedAt,
	}
}

func toLedgerEntryResponse(e *inventory.StockLedgerEntry, running int64) LedgerEntryResponse {
	return LedgerEntryResponse{
		ID:             e.ID,
		TxnType:        e.TxnType.String(),
		QtyIn:          e.QtyIn,
		QtyOut:         e.QtyOut,
		CostPerUnit:    e.CostPerUnit,
		MRP:            e.MRP,
		RefType:        string(e.RefType),
		RefID:          e.RefID,
		Note:           e.Note,
		ActorID:        e.ActorID,
		RunningBalance: running,
		CreatedAt:      e.CreatedAt,
	}
}
