package purchase

import (
	"strings"
	"time"

	"github.com/ehr/pharmacy/internal/domain/shared"
	"github.com/ehr/pharmacy/internal/domain/tax"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status represents the approval state of a purchase invoice
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// Type distinguishes cash and credit purchases
type Type string

const (
	TypeCash   Type = "CASH"
	TypeCredit Type = "CREDIT"
)

// ParseType parses a purchase type, defaulting to CREDIT
func ParseType(s string) (Type, error) {
	switch Type(strings.ToUpper(strings.TrimSpace(s))) {
	case "", TypeCredit:
		return TypeCredit, nil
	case TypeCash:
		return TypeCash, nil
	default:
		return "", shared.NewValidationError("purchase type must be CASH or CREDIT")
	}
}

// Totals are the invoice-level sums of line costing
type Totals struct {
	Taxable         decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	CGST            decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	SGST            decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	IGST            decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	PostTaxDiscount decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	NetPayable      decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
}

// Purchase is a supplier invoice. It owns the batches received on it.
type Purchase struct {
	shared.BaseEntity
	InvoiceNo     string     `gorm:"type:varchar(50);not null;index"`
	InvoiceDate   time.Time  `gorm:"not null"`
	SupplierID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	SupplierName  string     `gorm:"type:varchar(200)"`
	SupplierState string     `gorm:"type:varchar(100)"`
	IsIntraState  bool       `gorm:"not null"`
	Type          Type       `gorm:"type:varchar(10);not null"`
	Status        Status     `gorm:"type:varchar(20);not null;index"`
	Totals        Totals     `gorm:"embedded;embeddedPrefix:total_"`
	CreatedBy     string     `gorm:"type:varchar(100)"`
	ApprovedBy    string     `gorm:"type:varchar(100)"`
	ApprovedAt    *time.Time `gorm:""`
	RejectedBy    string     `gorm:"type:varchar(100)"`
	RejectedAt    *time.Time `gorm:""`
	RejectReason  string     `gorm:"type:varchar(500)"`
	Batches       []Batch    `gorm:"foreignKey:PurchaseID"`
}

// TableName returns the table name for GORM
func (Purchase) TableName() string {
	return "purchases"
}

// Header is the supplier invoice data entered before any lines
type Header struct {
	InvoiceNo     string
	InvoiceDate   time.Time
	SupplierID    uuid.UUID
	SupplierName  string
	SupplierState string
	Type          Type
	CreatedBy     string
}

// NewPurchase creates a pending purchase. Intra-state is decided by
// comparing the supplier's state against the pharmacy's home state.
func NewPurchase(h Header, homeState string, lines []LineInput, now time.Time) (*Purchase, error) {
	invoiceNo := strings.TrimSpace(h.InvoiceNo)
	if invoiceNo == "" {
		return nil, shared.NewValidationError("invoice number is required")
	}
	if h.SupplierID == uuid.Nil {
		return nil, shared.NewValidationError("supplier is required")
	}
	if len(lines) == 0 {
		return nil, shared.NewValidationError("purchase must have at least one line")
	}
	if h.Type == "" {
		h.Type = TypeCredit
	}
	if h.InvoiceDate.IsZero() {
		h.InvoiceDate = now
	}

	p := &Purchase{
		BaseEntity:    shared.NewBaseEntity(now),
		InvoiceNo:     invoiceNo,
		InvoiceDate:   h.InvoiceDate,
		SupplierID:    h.SupplierID,
		SupplierName:  strings.TrimSpace(h.SupplierName),
		SupplierState: strings.TrimSpace(h.SupplierState),
		IsIntraState:  tax.IsIntraState(h.SupplierState, homeState),
		Type:          h.Type,
		Status:        StatusPending,
		CreatedBy:     h.CreatedBy,
	}

	seen := make(map[string]struct{}, len(lines))
	for i, line := range lines {
		b, err := newBatch(p, line, now)
		if err != nil {
			return nil, err
		}
		key := b.ProductID.String() + "/" + b.BatchNo
		if _, dup := seen[key]; dup {
			return nil, shared.NewValidationError("line %d repeats batch %s for the same product", i+1, b.BatchNo)
		}
		seen[key] = struct{}{}
		p.Batches = append(p.Batches, *b)
	}
	p.recalculate()
	return p, nil
}

func (p *Purchase) recalculate() {
	var t Totals
	for _, b := range p.Batches {
		t.Taxable = t.Taxable.Add(b.Taxable)
		t.CGST = t.CGST.Add(b.CGST)
		t.SGST = t.SGST.Add(b.SGST)
		t.IGST = t.IGST.Add(b.IGST)
		t.PostTaxDiscount = t.PostTaxDiscount.Add(b.PostTaxDiscount)
		t.NetPayable = t.NetPayable.Add(b.NetAmount)
	}
	t.Taxable = shared.RoundMoney(t.Taxable)
	t.CGST = shared.RoundMoney(t.CGST)
	t.SGST = shared.RoundMoney(t.SGST)
	t.IGST = shared.RoundMoney(t.IGST)
	t.PostTaxDiscount = shared.RoundMoney(t.PostTaxDiscount)
	t.NetPayable = shared.RoundMoney(t.NetPayable)
	p.Totals = t
}

// IsPending returns true if the purchase awaits a decision
func (p *Purchase) IsPending() bool {
	return p.Status == StatusPending
}

// Approve marks the purchase and its batches approved. The caller appends
// the PURCHASE ledger entries in the same transaction.
func (p *Purchase) Approve(by string, now time.Time) error {
	if !p.IsPending() {
		return shared.NewNotPendingError("purchase", p.Status)
	}
	p.Status = StatusApproved
	p.ApprovedBy = by
	p.ApprovedAt = &now
	for i := range p.Batches {
		p.Batches[i].Status = BatchStatusApproved
		p.Batches[i].Touch(now)
	}
	p.Touch(now)
	return nil
}

// Reject closes a pending purchase without touching stock. Its batches were
// never ledger-visible and are discarded.
func (p *Purchase) Reject(by, reason string, now time.Time) error {
	if !p.IsPending() {
		return shared.NewNotPendingError("purchase", p.Status)
	}
	p.Status = StatusRejected
	p.RejectedBy = by
	p.RejectedAt = &now
	p.RejectReason = strings.TrimSpace(reason)
	p.Batches = nil
	p.Touch(now)
	return nil
}
