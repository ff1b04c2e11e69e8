// Package disposal models write-offs of stock that will not be sold.
package disposal

import (
	"strings"
	"time"

	"github.com/ehr/pharmacy/internal/domain/identity"
	"github.com/ehr/pharmacy/internal/domain/purchase"
	"github.com/ehr/pharmacy/internal/domain/shared"
	"github.com/ehr/pharmacy/internal/domain/tax"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Reason for writing stock off
type Reason string

const (
	ReasonExpiry Reason = "expiry"
	ReasonDamage Reason = "damage"
	ReasonRecall Reason = "recall"
)

// ParseReason parses a disposal reason
func ParseReason(s string) (Reason, error) {
	switch r := Reason(strings.ToLower(strings.TrimSpace(s))); r {
	case ReasonExpiry, ReasonDamage, ReasonRecall:
		return r, nil
	}
	return "", shared.NewValidationError("disposal reason must be expiry, damage or recall")
}

// Disposal is a write-off of units from one batch. The ITC reversal is the
// share of the originating purchase's input tax attributable to the disposed
// units, spread uniformly over the batch's received units (free included).
type Disposal struct {
	shared.BaseEntity
	BatchID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null"`
	PurchaseID  uuid.UUID       `gorm:"type:uuid;not null"`
	Qty         int64           `gorm:"not null"`
	Reason      Reason          `gorm:"type:varchar(10);not null"`
	Remark      string          `gorm:"type:varchar(500)"`
	ITCReversal decimal.Decimal `gorm:"column:itc_reversal_tax;type:decimal(18,2);not null"`
	CostValue   decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	MRPValue    decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	ApprovedBy  string          `gorm:"type:varchar(100);not null"`
}

// TableName returns the table name for GORM
func (Disposal) TableName() string {
	return "disposals"
}

// NewDisposal writes qty units of b off. src is the purchase that received b.
// The stock check against the ledger is the caller's job, inside the same
// locked transaction.
func NewDisposal(b *purchase.Batch, src *purchase.Purchase, qty int64, reason Reason, remark string, actor identity.Actor, now time.Time) (*Disposal, error) {
	if !actor.Role.CanDispose() {
		return nil, shared.NewDomainError(shared.CodeForbidden, "Only an admin or pharmacist can dispose stock")
	}
	if qty <= 0 {
		return nil, shared.NewValidationError("disposal quantity must be positive")
	}
	if !b.IsApproved() {
		return nil, shared.NewValidationError("batch %s is not approved", b.BatchNo)
	}
	if src == nil || src.ID != b.PurchaseID {
		return nil, shared.NewValidationError("batch %s was not received on the given purchase", b.BatchNo)
	}
	purchaseTax := tax.Split{CGST: src.Totals.CGST, SGST: src.Totals.SGST, IGST: src.Totals.IGST}
	q := decimal.NewFromInt(qty)

	return &Disposal{
		BaseEntity:  shared.NewBaseEntity(now),
		BatchID:     b.ID,
		ProductID:   b.ProductID,
		PurchaseID:  b.PurchaseID,
		Qty:         qty,
		Reason:      reason,
		Remark:      strings.TrimSpace(remark),
		ITCReversal: tax.CalcITCReversal(purchaseTax, qty, b.TotalQty()),
		CostValue:   shared.RoundMoney(q.Mul(b.EffectiveCostPerUnit)),
		MRPValue:    shared.RoundMoney(q.Mul(b.MRP)),
		ApprovedBy:  actor.ID,
	}, nil
}
