package purchase

import (
	"strings"
	"time"

	"github.com/ehr/pharmacy/internal/domain/shared"
	"github.com/ehr/pharmacy/internal/domain/tax"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BatchStatus represents the lifecycle of a received batch
type BatchStatus string

const (
	BatchStatusPending  BatchStatus = "PENDING"
	BatchStatusApproved BatchStatus = "APPROVED"
)

var expiryLayouts = []string{"2006-01", "01/2006", "2006/01", "01-2006"}

// ParseExpiry parses a year-month expiry into the first instant of that month (UTC)
func ParseExpiry(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range expiryLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, shared.NewDomainError(shared.CodeExpiredDate, "Expiry "+s+" is not a valid year-month (YYYY-MM)")
}

// ValidateExpiry parses s and requires the month to lie strictly in the future
func ValidateExpiry(s string, now time.Time) (time.Time, error) {
	exp, err := ParseExpiry(s)
	if err != nil {
		return time.Time{}, err
	}
	if !exp.After(now) {
		return time.Time{}, shared.NewDomainError(shared.CodeExpiredDate, "Expiry "+FormatExpiry(exp)+" is not in the future")
	}
	return exp, nil
}

// FormatExpiry renders an expiry as YYYY-MM
func FormatExpiry(t time.Time) string {
	return t.Format("2006-01")
}

// LineInput is one invoice line as entered against a purchase
type LineInput struct {
	ProductID    uuid.UUID
	BatchNo      string
	Expiry       string
	GSTRate      decimal.Decimal
	MRP          decimal.Decimal
	TradePriceEx decimal.Decimal
	SchemePct    decimal.Decimal
	CashPct      decimal.Decimal
	ReceivedQty  int64
	FreeQty      int64
}

// Batch is a received lot of a product. It becomes visible to the stock
// ledger only once its purchase is approved.
type Batch struct {
	shared.BaseEntity
	PurchaseID           uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID            uuid.UUID       `gorm:"type:uuid;not null;index"`
	SupplierID           uuid.UUID       `gorm:"type:uuid;index"`
	BatchNo              string          `gorm:"type:varchar(50);not null;index"`
	Expiry               time.Time       `gorm:"type:date;not null;index"`
	GSTRate              decimal.Decimal `gorm:"type:decimal(5,2);not null"`
	MRP                  decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	TradePriceEx         decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	SchemePct            decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	CashPct              decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	ReceivedQty          int64           `gorm:"not null"`
	FreeQty              int64           `gorm:"not null;default:0"`
	Taxable              decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	CGST                 decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	SGST                 decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	IGST                 decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	PostTaxDiscount      decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	NetAmount            decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	EffectiveCostPerUnit decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Status               BatchStatus     `gorm:"type:varchar(20);not null;index"`
}

// TableName returns the table name for GORM
func (Batch) TableName() string {
	return "batches"
}

func validatePct(name string, pct decimal.Decimal) error {
	if pct.IsNegative() || pct.GreaterThan(decimal.NewFromInt(100)) {
		return shared.NewValidationError("%s must be between 0 and 100", name)
	}
	return nil
}

// newBatch validates a line and costs it for the given purchase
func newBatch(p *Purchase, in LineInput, now time.Time) (*Batch, error) {
	if in.ProductID == uuid.Nil {
		return nil, shared.NewValidationError("product is required")
	}
	batchNo := strings.ToUpper(strings.TrimSpace(in.BatchNo))
	if batchNo == "" {
		return nil, shared.NewValidationError("batch number is required")
	}
	if err := tax.ValidateRate(in.GSTRate); err != nil {
		return nil, err
	}
	expiry, err := ValidateExpiry(in.Expiry, now)
	if err != nil {
		return nil, err
	}
	if in.ReceivedQty < 0 || in.FreeQty < 0 {
		return nil, shared.NewValidationError("quantities cannot be negative")
	}
	if in.ReceivedQty+in.FreeQty == 0 {
		return nil, shared.NewValidationError("batch %s has no quantity", batchNo)
	}
	if in.TradePriceEx.IsNegative() || in.MRP.IsNegative() {
		return nil, shared.NewValidationError("prices cannot be negative")
	}
	if err := validatePct("scheme discount", in.SchemePct); err != nil {
		return nil, err
	}
	if err := validatePct("cash discount", in.CashPct); err != nil {
		return nil, err
	}

	cost := CalcPurchaseLine(p.IsIntraState, in.ReceivedQty, in.FreeQty,
		in.TradePriceEx, in.GSTRate, in.SchemePct, in.CashPct)

	return &Batch{
		BaseEntity:           shared.NewBaseEntity(now),
		PurchaseID:           p.ID,
		ProductID:            in.ProductID,
		SupplierID:           p.SupplierID,
		BatchNo:              batchNo,
		Expiry:               expiry,
		GSTRate:              in.GSTRate,
		MRP:                  shared.RoundMoney(in.MRP),
		TradePriceEx:         in.TradePriceEx,
		SchemePct:            in.SchemePct,
		CashPct:              in.CashPct,
		ReceivedQty:          in.ReceivedQty,
		FreeQty:              in.FreeQty,
		Taxable:              cost.Taxable,
		CGST:                 cost.Tax.CGST,
		SGST:                 cost.Tax.SGST,
		IGST:                 cost.Tax.IGST,
		PostTaxDiscount:      cost.PostTaxDiscount,
		NetAmount:            cost.RowNet,
		EffectiveCostPerUnit: cost.EffectiveCostPerUnit,
		Status:               BatchStatusPending,
	}, nil
}

// TotalQty returns billed plus free units
func (b *Batch) TotalQty() int64 {
	return b.ReceivedQty + b.FreeQty
}

// TaxSplit returns the input tax paid on this batch's invoice line
func (b *Batch) TaxSplit() tax.Split {
	return tax.Split{CGST: b.CGST, SGST: b.SGST, IGST: b.IGST}
}

// IsApproved returns true once the batch is ledger-visible
func (b *Batch) IsApproved() bool {
	return b.Status == BatchStatusApproved
}

// IsExpired reports whether the expiry month has begun before now
func (b *Batch) IsExpired(now time.Time) bool {
	return !b.Expiry.After(now)
}
