package sale

import (
	"fmt"
	"strings"
	"time"

	"github.com/ehr/pharmacy/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultPaymentTolerance is the largest accepted gap between payments and net
var DefaultPaymentTolerance = decimal.RequireFromString("0.01")

// PaymentInput is one tendered payment
type PaymentInput struct {
	Method    string
	Amount    decimal.Decimal
	Reference string
}

// Payment is a persisted payment against a sale
type Payment struct {
	shared.BaseEntity
	SaleID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	Method    string          `gorm:"type:varchar(20);not null"`
	Amount    decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Reference string          `gorm:"type:varchar(100)"`
}

// TableName returns the table name for GORM
func (Payment) TableName() string {
	return "sale_payments"
}

func newPayment(saleID uuid.UUID, in PaymentInput, now time.Time) (*Payment, error) {
	method := strings.ToLower(strings.TrimSpace(in.Method))
	if method == "" {
		return nil, shared.NewValidationError("payment method is required")
	}
	if in.Amount.IsNegative() {
		return nil, shared.NewValidationError("payment amount cannot be negative")
	}
	return &Payment{
		BaseEntity: shared.NewBaseEntity(now),
		SaleID:     saleID,
		Method:     method,
		Amount:     in.Amount,
		Reference:  strings.TrimSpace(in.Reference),
	}, nil
}

// PaidTotal sums the payment amounts
func (s *Sale) PaidTotal() decimal.Decimal {
	sum := decimal.Zero
	for i := range s.Payments {
		sum = sum.Add(s.Payments[i].Amount)
	}
	return shared.RoundMoney(sum)
}

// CheckPayments fails with PAYMENT_MISMATCH when payments differ from the net
// total by more than tolerance. A difference equal to tolerance passes.
func (s *Sale) CheckPayments(tolerance decimal.Decimal) error {
	paid := s.PaidTotal()
	if paid.Sub(s.Totals.Net).Abs().GreaterThan(tolerance) {
		return shared.NewDomainError(shared.CodePaymentMismatch,
			fmt.Sprintf("Payments total %s but bill net is %s", paid.StringFixed(2), s.Totals.Net.StringFixed(2)))
	}
	return nil
}
