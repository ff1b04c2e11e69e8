// Package returns models patient returns against earlier sales.
package returns

import (
	"fmt"
	"strings"
	"time"

	"github.com/ehr/pharmacy/internal/domain/identity"
	"github.com/ehr/pharmacy/internal/domain/sale"
	"github.com/ehr/pharmacy/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status of a return
type Status string

const (
	StatusApproved        Status = "APPROVED"
	StatusPendingApproval Status = "PENDING_APPROVAL"
)

// Totals are the summed reversal amounts
type Totals struct {
	BaseExTax decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	CGST      decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	SGST      decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	IGST      decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Net       decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
}

// ReturnItem reverses part of one sale line
type ReturnItem struct {
	shared.BaseEntity
	ReturnID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	SaleItemID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null"`
	BatchID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	QtyReturned int64           `gorm:"not null"`
	BaseExTax   decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	CGST        decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	SGST        decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	IGST        decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Net         decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	CostPerUnit decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	MRP         decimal.Decimal `gorm:"type:decimal(18,2);not null"`
}

// TableName returns the table name for GORM
func (ReturnItem) TableName() string {
	return "return_items"
}

// Return is a patient return against a sale
type Return struct {
	shared.BaseEntity
	SaleID     uuid.UUID    `gorm:"type:uuid;not null;index"`
	BillNo     string       `gorm:"type:varchar(40);not null"`
	Reason     string       `gorm:"type:varchar(500)"`
	Status     Status       `gorm:"type:varchar(20);not null;index"`
	Totals     Totals       `gorm:"embedded;embeddedPrefix:total_"`
	CreatedBy  string       `gorm:"type:varchar(100)"`
	ApprovedBy string       `gorm:"type:varchar(100)"`
	ApprovedAt *time.Time   `gorm:""`
	Items      []ReturnItem `gorm:"foreignKey:ReturnID"`
}

// TableName returns the table name for GORM
func (Return) TableName() string {
	return "returns"
}

// ItemInput names a sale line and the units coming back
type ItemInput struct {
	SaleItemID  uuid.UUID
	BatchID     uuid.UUID
	QtyReturned int64
}

// proportion returns round(amount * qty / nos, 2)
func proportion(amount decimal.Decimal, qty, nos int64) decimal.Decimal {
	return shared.RoundMoney(amount.Mul(decimal.NewFromInt(qty)).Div(decimal.NewFromInt(nos)))
}

// NewReturn builds a return against s. alreadyReturned holds units returned
// per sale item on earlier returns; the running total may never exceed the
// units sold on that line.
func NewReturn(s *sale.Sale, inputs []ItemInput, alreadyReturned map[uuid.UUID]int64, reason string, actor identity.Actor, now time.Time) (*Return, error) {
	if len(inputs) == 0 {
		return nil, shared.NewValidationError("return must have at least one item")
	}

	r := &Return{
		BaseEntity: shared.NewBaseEntity(now),
		SaleID:     s.ID,
		BillNo:     s.BillNo,
		Reason:     strings.TrimSpace(reason),
		CreatedBy:  actor.ID,
	}

	returned := make(map[uuid.UUID]int64, len(inputs))
	for k, v := range alreadyReturned {
		returned[k] = v
	}

	for _, in := range inputs {
		orig, ok := s.ItemByID(in.SaleItemID)
		if !ok {
			return nil, shared.NewNotFoundError("sale item", in.SaleItemID)
		}
		if in.BatchID != uuid.Nil && in.BatchID != orig.BatchID {
			return nil, shared.NewValidationError("sale item %s was not sold from batch %s", in.SaleItemID, in.BatchID)
		}
		if in.QtyReturned <= 0 {
			return nil, shared.NewValidationError("return quantity must be positive")
		}
		if returned[orig.ID]+in.QtyReturned > orig.Nos {
			return nil, shared.NewDomainError(shared.CodeOverReturn, fmt.Sprintf(
				"Returning %d of batch %s exceeds %d sold (%d already returned)",
				in.QtyReturned, orig.BatchNo, orig.Nos, returned[orig.ID]))
		}
		returned[orig.ID] += in.QtyReturned

		r.Items = append(r.Items, ReturnItem{
			BaseEntity:  shared.NewBaseEntity(now),
			ReturnID:    r.ID,
			SaleItemID:  orig.ID,
			ProductID:   orig.ProductID,
			BatchID:     orig.BatchID,
			QtyReturned: in.QtyReturned,
			BaseExTax:   proportion(orig.BaseExTax, in.QtyReturned, orig.Nos),
			CGST:        proportion(orig.CGST, in.QtyReturned, orig.Nos),
			SGST:        proportion(orig.SGST, in.QtyReturned, orig.Nos),
			IGST:        proportion(orig.IGST, in.QtyReturned, orig.Nos),
			Net:         proportion(orig.Net, in.QtyReturned, orig.Nos),
			CostPerUnit: orig.CostPerUnit,
			MRP:         orig.MRP,
		})
	}
	r.recalculate()

	if s.Compliance.Required && !actor.Role.CanApprove() {
		r.Status = StatusPendingApproval
	} else {
		r.Status = StatusApproved
		r.ApprovedBy = actor.ID
		r.ApprovedAt = &now
	}
	return r, nil
}

func (r *Return) recalculate() {
	var t Totals
	for i := range r.Items {
		it := &r.Items[i]
		t.BaseExTax = t.BaseExTax.Add(it.BaseExTax)
		t.CGST = t.CGST.Add(it.CGST)
		t.SGST = t.SGST.Add(it.SGST)
		t.IGST = t.IGST.Add(it.IGST)
		t.Net = t.Net.Add(it.Net)
	}
	r.Totals = Totals{
		BaseExTax: shared.RoundMoney(t.BaseExTax),
		CGST:      shared.RoundMoney(t.CGST),
		SGST:      shared.RoundMoney(t.SGST),
		IGST:      shared.RoundMoney(t.IGST),
		Net:       shared.RoundMoney(t.Net),
	}
}

// IsPending returns true while the return awaits a privileged approver
func (r *Return) IsPending() bool {
	return r.Status == StatusPendingApproval
}

// Approve finalizes a pending return
func (r *Return) Approve(actor identity.Actor, now time.Time) error {
	if !r.IsPending() {
		return shared.NewNotPendingError("return", r.Status)
	}
	if !actor.Role.CanApprove() {
		return shared.NewDomainError(shared.CodeForbidden, "Only an admin or pharmacist can approve returns")
	}
	r.Status = StatusApproved
	r.ApprovedBy = actor.ID
	r.ApprovedAt = &now
	r.Touch(now)
	return nil
}
