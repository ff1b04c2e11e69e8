package trade

import (
	"time"

	"github.com/ehr/pharmacy/internal/domain/purchase"
	"github.com/ehr/pharmacy/internal/domain/returns"
	"github.com/ehr/pharmacy/internal/domain/sale"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ===================== Purchase =====================

// CreatePurchaseRequest represents a supplier invoice to record
type CreatePurchaseRequest struct {
	InvoiceNo     string                `json:"invoice_no" binding:"required,min=1,max=50"`
	InvoiceDate   *time.Time            `json:"invoice_date"`
	SupplierID    uuid.UUID             `json:"supplier_id" binding:"required"`
	SupplierName  string                `json:"supplier_name" binding:"max=200"`
	SupplierState string                `json:"supplier_state" binding:"max=100"`
	Type          string                `json:"type" binding:"omitempty,oneof=CASH CREDIT cash credit"`
	Lines         []PurchaseLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// PurchaseLineRequest is one invoice line; it becomes a batch
type PurchaseLineRequest struct {
	ProductID    uuid.UUID       `json:"product_id" binding:"required"`
	BatchNo      string          `json:"batch_no" binding:"required,max=50"`
	Expiry       string          `json:"expiry" binding:"required,expiry_month"`
	GSTRate      decimal.Decimal `json:"gst_rate" binding:"gst_rate"`
	MRP          decimal.Decimal `json:"mrp"`
	TradePriceEx decimal.Decimal `json:"trade_price_ex"`
	SchemePct    decimal.Decimal `json:"scheme_pct"`
	CashPct      decimal.Decimal `json:"cash_pct"`
	ReceivedQty  int64           `json:"received_qty" binding:"min=0"`
	FreeQty      int64           `json:"free_qty" binding:"min=0"`
}

// RejectPurchaseRequest carries the rejection reason
type RejectPurchaseRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// PurchaseListFilter filters purchase listings
type PurchaseListFilter struct {
	Status   string `form:"status" binding:"omitempty,oneof=PENDING APPROVED REJECTED"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// PurchaseTotalsResponse mirrors purchase.Totals
type PurchaseTotalsResponse struct {
	Taxable         decimal.Decimal `json:"taxable"`
	CGST            decimal.Decimal `json:"cgst"`
	SGST            decimal.Decimal `json:"sgst"`
	IGST            decimal.Decimal `json:"igst"`
	PostTaxDiscount decimal.Decimal `json:"post_tax_discount"`
	NetPayable      decimal.Decimal `json:"net_payable"`
}

// BatchResponse represents a batch in API responses
type BatchResponse struct {
	ID                   uuid.UUID       `json:"id"`
	ProductID            uuid.UUID       `json:"product_id"`
	BatchNo              string          `json:"batch_no"`
	Expiry               string          `json:"expiry"`
	GSTRate              decimal.Decimal `json:"gst_rate"`
	MRP                  decimal.Decimal `json:"mrp"`
	TradePriceEx         decimal.Decimal `json:"trade_price_ex"`
	SchemePct            decimal.Decimal `json:"scheme_pct"`
	CashPct              decimal.Decimal `json:"cash_pct"`
	ReceivedQty          int64           `json:"received_qty"`
	FreeQty              int64           `json:"free_qty"`
	Taxable              decimal.Decimal `json:"taxable"`
	CGST                 decimal.Decimal `json:"cgst"`
	SGST                 decimal.Decimal `json:"sgst"`
	IGST                 decimal.Decimal `json:"igst"`
	PostTaxDiscount      decimal.Decimal `json:"post_tax_discount"`
	NetAmount            decimal.Decimal `json:"net_amount"`
	EffectiveCostPerUnit decimal.Decimal `json:"effective_cost_per_unit"`
	Status               string          `json:"status"`
}

// PurchaseResponse represents a purchase in API responses
type PurchaseResponse struct {
	ID            uuid.UUID              `json:"id"`
	InvoiceNo     string                 `json:"invoice_no"`
	InvoiceDate   time.Time              `json:"invoice_date"`
	SupplierID    uuid.UUID              `json:"supplier_id"`
	SupplierName  string                 `json:"supplier_name"`
	SupplierState string                 `json:"supplier_state"`
	IsIntraState  bool                   `json:"is_intra_state"`
	Type          string                 `json:"type"`
	Status        string                 `json:"status"`
	Totals        PurchaseTotalsResponse `json:"totals"`
	Batches       []BatchResponse        `json:"batches"`
	CreatedBy     string                 `json:"created_by"`
	ApprovedBy    string                 `json:"approved_by,omitempty"`
	ApprovedAt    *time.Time             `json:"approved_at,omitempty"`
	RejectedBy    string                 `json:"rejected_by,omitempty"`
	RejectedAt    *time.Time             `json:"rejected_at,omitempty"`
	RejectReason  string                 `json:"reject_reason,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
}

// ToBatchResponse converts a domain Batch
func ToBatchResponse(b *purchase.Batch) BatchResponse {
	return BatchResponse{
		ID:                   b.ID,
		ProductID:            b.ProductID,
		BatchNo:              b.BatchNo,
		Expiry:               purchase.FormatExpiry(b.Expiry),
		GSTRate:              b.GSTRate,
		MRP:                  b.MRP,
		TradePriceEx:         b.TradePriceEx,
		SchemePct:            b.SchemePct,
		CashPct:              b.CashPct,
		ReceivedQty:          b.ReceivedQty,
		FreeQty:              b.FreeQty,
		Taxable:              b.Taxable,
		CGST:                 b.CGST,
		SGST:                 b.SGST,
		IGST:                 b.IGST,
		PostTaxDiscount:      b.PostTaxDiscount,
		NetAmount:            b.NetAmount,
		EffectiveCostPerUnit: b.EffectiveCostPerUnit,
		Status:               string(b.Status),
	}
}

// ToPurchaseResponse converts a domain Purchase
func ToPurchaseResponse(p *purchase.Purchase) PurchaseResponse {
	batches := make([]BatchResponse, len(p.Batches))
	for i := range p.Batches {
		batches[i] = ToBatchResponse(&p.Batches[i])
	}
	return PurchaseResponse{
		ID:            p.ID,
		InvoiceNo:     p.InvoiceNo,
		InvoiceDate:   p.InvoiceDate,
		SupplierID:    p.SupplierID,
		SupplierName:  p.SupplierName,
		SupplierState: p.SupplierState,
		IsIntraState:  p.IsIntraState,
		Type:          string(p.Type),
		Status:        string(p.Status),
		Totals: PurchaseTotalsResponse{
			Taxable:         p.Totals.Taxable,
			CGST:            p.Totals.CGST,
			SGST:            p.Totals.SGST,
			IGST:            p.Totals.IGST,
			PostTaxDiscount: p.Totals.PostTaxDiscount,
			NetPayable:      p.Totals.NetPayable,
		},
		Batches:      batches,
		CreatedBy:    p.CreatedBy,
		ApprovedBy:   p.ApprovedBy,
		ApprovedAt:   p.ApprovedAt,
		RejectedBy:   p.RejectedBy,
		RejectedAt:   p.RejectedAt,
		RejectReason: p.RejectReason,
		CreatedAt:    p.CreatedAt,
	}
}

// ===================== Sale =====================

// CreateSaleRequest represents a bill to create
type CreateSaleRequest struct {
	BillNo         string             `json:"bill_no" binding:"max=40"`
	Mode           string             `json:"mode" binding:"omitempty,oneof=OPD OP IP"`
	Patient        PatientRequest     `json:"patient"`
	Items          []SaleItemRequest  `json:"items" binding:"required,min=1,dive"`
	Payments       []PaymentRequest   `json:"payments" binding:"dive"`
	Compliance     *ComplianceRequest `json:"compliance"`
	Override       bool               `json:"override"`
	OverrideReason string             `json:"override_reason" binding:"max=500"`
}

// SaleListFilter filters sale listings
type SaleListFilter struct {
	Search    string     `form:"search" binding:"max=100"`
	Mode      string     `form:"mode" binding:"omitempty,oneof=OPD OP IP"`
	PatientID string     `form:"patient_id" binding:"max=64"`
	From      *time.Time `form:"from" time_format:"2006-01-02"`
	To        *time.Time `form:"to" time_format:"2006-01-02"`
	Page      int        `form:"page" binding:"omitempty,min=1"`
	PageSize  int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// PatientRequest is the patient snapshot for the bill
type PatientRequest struct {
	ID    string `json:"id" binding:"max=64"`
	Name  string `json:"name" binding:"max=200"`
	Phone string `json:"phone" binding:"max=30"`
	State string `json:"state" binding:"max=100"`
}

// SaleItemRequest is one requested line
type SaleItemRequest struct {
	ProductID   uuid.UUID       `json:"product_id"`
	BatchID     uuid.UUID       `json:"batch_id" binding:"required"`
	Nos         int64           `json:"nos" binding:"required,min=1"`
	PricingMode string          `json:"pricing_mode" binding:"omitempty,oneof=MRP_INC RATE_EX"`
	DiscountPct decimal.Decimal `json:"discount_pct"`
	RateExTax   decimal.Decimal `json:"rate_ex_tax"`
}

// PaymentRequest is one tendered payment
type PaymentRequest struct {
	Method    string          `json:"method" binding:"required,max=20"`
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference" binding:"max=100"`
}

// ComplianceRequest carries the prescription evidence for scheduled lines
type ComplianceRequest struct {
	RxDocs []string          `json:"rx_docs"`
	Fields map[string]string `json:"fields"`
}

// SaleTotalsResponse mirrors sale.Totals
type SaleTotalsResponse struct {
	MRPTotal      decimal.Decimal `json:"mrp_total"`
	DiscountOnMRP decimal.Decimal `json:"discount_on_mrp"`
	Taxable       decimal.Decimal `json:"taxable"`
	CGST          decimal.Decimal `json:"cgst"`
	SGST          decimal.Decimal `json:"sgst"`
	IGST          decimal.Decimal `json:"igst"`
	Net           decimal.Decimal `json:"net"`
}

// SaleItemResponse represents a sale line
type SaleItemResponse struct {
	ID             uuid.UUID       `json:"id"`
	ProductID      uuid.UUID       `json:"product_id"`
	BatchID        uuid.UUID       `json:"batch_id"`
	BatchNo        string          `json:"batch_no"`
	Nos            int64           `json:"nos"`
	PricingMode    string          `json:"pricing_mode"`
	MRP            decimal.Decimal `json:"mrp"`
	DiscountPct    decimal.Decimal `json:"discount_pct"`
	GSTRate        decimal.Decimal `json:"gst_rate"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	BaseExTax      decimal.Decimal `json:"base_ex_tax"`
	CGST           decimal.Decimal `json:"cgst"`
	SGST           decimal.Decimal `json:"sgst"`
	IGST           decimal.Decimal `json:"igst"`
	Net            decimal.Decimal `json:"net"`
	ScheduleSymbol string          `json:"schedule_symbol"`
	ExpiredAtSale  bool            `json:"expired_at_sale"`
}

// PaymentResponse represents a payment
type PaymentResponse struct {
	Method    string          `json:"method"`
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference,omitempty"`
}

// SaleResponse represents a sale in API responses
type SaleResponse struct {
	ID         uuid.UUID             `json:"id"`
	BillNo     string                `json:"bill_no"`
	Mode       string                `json:"mode"`
	Patient    PatientRequest        `json:"patient"`
	Intra      bool                  `json:"is_intra_state"`
	Totals     SaleTotalsResponse    `json:"totals"`
	Items      []SaleItemResponse    `json:"items"`
	Payments   []PaymentResponse     `json:"payments"`
	Compliance sale.ComplianceRecord `json:"compliance"`
	CreatedBy  string                `json:"created_by"`
	CreatedAt  time.Time             `json:"created_at"`
}

// ToSaleResponse converts a domain Sale
func ToSaleResponse(s *sale.Sale) SaleResponse {
	items := make([]SaleItemResponse, len(s.Items))
	for i := range s.Items {
		it := &s.Items[i]
		items[i] = SaleItemResponse{
			ID:             it.ID,
			ProductID:      it.ProductID,
			BatchID:        it.BatchID,
			BatchNo:        it.BatchNo,
			Nos:            it.Nos,
			PricingMode:    string(it.PricingMode),
			MRP:            it.MRP,
			DiscountPct:    it.DiscountPct,
			GSTRate:        it.GSTRate,
			DiscountAmount: it.DiscountAmount,
			BaseExTax:      it.BaseExTax,
			CGST:           it.CGST,
			SGST:           it.SGST,
			IGST:           it.IGST,
			Net:            it.Net,
			ScheduleSymbol: it.ScheduleSymbol.String(),
			ExpiredAtSale:  it.ExpiredAtSale,
		}
	}
	payments := make([]PaymentResponse, len(s.Payments))
	for i := range s.Payments {
		payments[i] = PaymentResponse{
			Method:    s.Payments[i].Method,
			Amount:    s.Payments[i].Amount,
			Reference: s.Payments[i].Reference,
		}
	}
	return SaleResponse{
		ID:     s.ID,
		BillNo: s.BillNo,
		Mode:   string(s.Mode),
		Patient: PatientRequest{
			ID:    s.Patient.ID,
			Name:  s.Patient.Name,
			Phone: s.Patient.Phone,
			State: s.Patient.State,
		},
		Intra: s.IsIntraState,
		Totals: SaleTotalsResponse{
			MRPTotal:      s.Totals.MRPTotal,
			DiscountOnMRP: s.Totals.DiscountOnMRP,
			Taxable:       s.Totals.Taxable,
			CGST:          s.Totals.CGST,
			SGST:          s.Totals.SGST,
			IGST:          s.Totals.IGST,
			Net:           s.Totals.Net,
		},
		Items:      items,
		Payments:   payments,
		Compliance: s.Compliance,
		CreatedBy:  s.CreatedBy,
		CreatedAt:  s.CreatedAt,
	}
}

// ===================== Return =====================

// CreateReturnRequest represents a patient return
type CreateReturnRequest struct {
	SaleID uuid.UUID           `json:"sale_id" binding:"required"`
	Items  []ReturnItemRequest `json:"items" binding:"required,min=1,dive"`
	Reason string              `json:"reason" binding:"max=500"`
}

// ReturnItemRequest names a sale line and the units coming back
type ReturnItemRequest struct {
	SaleItemID  uuid.UUID `json:"sale_item_id" binding:"required"`
	BatchID     uuid.UUID `json:"batch_id"`
	QtyReturned int64     `json:"qty_returned" binding:"required,min=1"`
}

// ReturnItemResponse represents a returned line
type ReturnItemResponse struct {
	SaleItemID  uuid.UUID       `json:"sale_item_id"`
	BatchID     uuid.UUID       `json:"batch_id"`
	QtyReturned int64           `json:"qty_returned"`
	BaseExTax   decimal.Decimal `json:"base_ex_tax"`
	CGST        decimal.Decimal `json:"cgst"`
	SGST        decimal.Decimal `json:"sgst"`
	IGST        decimal.Decimal `json:"igst"`
	Net         decimal.Decimal `json:"net"`
}

// ReturnResponse represents a return in API responses
type ReturnResponse struct {
	ID         uuid.UUID            `json:"id"`
	SaleID     uuid.UUID            `json:"sale_id"`
	BillNo     string               `json:"bill_no"`
	Reason     string               `json:"reason"`
	Status     string               `json:"status"`
	BaseExTax  decimal.Decimal      `json:"base_ex_tax"`
	CGST       decimal.Decimal      `json:"cgst"`
	SGST       decimal.Decimal      `json:"sgst"`
	IGST       decimal.Decimal      `json:"igst"`
	Net        decimal.Decimal      `json:"net"`
	Items      []ReturnItemResponse `json:"items"`
	CreatedBy  string               `json:"created_by"`
	ApprovedBy string               `json:"approved_by,omitempty"`
	ApprovedAt *time.Time           `json:"approved_at,omitempty"`
	CreatedAt  time.Time            `json:"created_at"`
}

// ToReturnResponse converts a domain Return
func ToReturnResponse(r *returns.Return) ReturnResponse {
	items := make([]ReturnItemResponse, len(r.Items))
	for i := range r.Items {
		it := &r.Items[i]
		items[i] = ReturnItemResponse{
			SaleItemID:  it.SaleItemID,
			BatchID:     it.BatchID,
			QtyReturned: it.QtyReturned,
			BaseExTax:   it.BaseExTax,
			CGST:        it.CGST,
			SGST:        it.SGST,
			IGST:        it.IGST,
			Net:         it.Net,
		}
	}
	return ReturnResponse{
		ID:         r.ID,
		SaleID:     r.SaleID,
		BillNo:     r.BillNo,
		Reason:     r.Reason,
		Status:     string(r.Status),
		BaseExTax:  r.Totals.BaseExTax,
		CGST:       r.Totals.CGST,
		SGST:       r.Totals.SGST,
		IGST:       r.Totals.IGST,
		Net:        r.Totals.Net,
		Items:      items,
		CreatedBy:  r.CreatedBy,
		ApprovedBy: r.ApprovedBy,
		ApprovedAt: r.ApprovedAt,
		CreatedAt:  r.CreatedAt,
	}
}
