package sale

import (
	"time"

	"github.com/ehr/pharmacy/internal/domain/schedule"
	"github.com/ehr/pharmacy/internal/domain/shared"
	"github.com/ehr/pharmacy/internal/domain/tax"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineInput is one requested sale line
type LineInput struct {
	ProductID   uuid.UUID
	BatchID     uuid.UUID
	Nos         int64
	PricingMode PricingMode
	DiscountPct decimal.Decimal
	RateExTax   decimal.Decimal
}

// BatchSnapshot carries the batch and product facts a sale line is priced from
type BatchSnapshot struct {
	ProductID   uuid.UUID
	BatchID     uuid.UUID
	BatchNo     string
	MRP         decimal.Decimal
	GSTRate     decimal.Decimal
	CostPerUnit decimal.Decimal
	Symbol      schedule.Symbol
	Expiry      time.Time
}

// SaleItem is a priced line. The schedule symbol is captured at sale time so
// later reclassification does not rewrite history.
type SaleItem struct {
	shared.BaseEntity
	SaleID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	BatchID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	BatchNo        string          `gorm:"type:varchar(50);not null"`
	Nos            int64           `gorm:"not null"`
	PricingMode    PricingMode     `gorm:"type:varchar(10);not null"`
	MRP            decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	DiscountPct    decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	RateExTax      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	GSTRate        decimal.Decimal `gorm:"type:decimal(5,2);not null"`
	MRPTotal       decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	BaseExTax      decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	CGST           decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	SGST           decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	IGST           decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Net            decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	CostPerUnit    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ScheduleSymbol schedule.Symbol `gorm:"type:varchar(5);not null"`
	ExpiredAtSale  bool            `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (SaleItem) TableName() string {
	return "sale_items"
}

// NewItem validates a line against its batch and prices it
func NewItem(isIntra bool, in LineInput, snap BatchSnapshot, now time.Time) (*SaleItem, error) {
	if in.Nos <= 0 {
		return nil, shared.NewValidationError("quantity for batch %s must be positive", snap.BatchNo)
	}
	if in.ProductID != uuid.Nil && in.ProductID != snap.ProductID {
		return nil, shared.NewValidationError("batch %s does not belong to the product", snap.BatchNo)
	}
	mode := in.PricingMode
	if mode == "" {
		mode = PricingMRPInclusive
	}
	if err := tax.ValidateRate(snap.GSTRate); err != nil {
		return nil, err
	}

	var amounts LineAmounts
	switch mode {
	case PricingMRPInclusive:
		if in.DiscountPct.IsNegative() || in.DiscountPct.GreaterThan(decimal.NewFromInt(100)) {
			return nil, shared.NewValidationError("discount must be between 0 and 100")
		}
		amounts = CalcMRPInclusive(isIntra, snap.MRP, in.DiscountPct, snap.GSTRate, in.Nos)
	case PricingRateExclusive:
		if in.RateExTax.IsNegative() {
			return nil, shared.NewValidationError("rate cannot be negative")
		}
		amounts = CalcRateExclusive(isIntra, in.RateExTax, snap.GSTRate, snap.MRP, in.Nos)
	default:
		return nil, shared.NewValidationError("unknown pricing mode %q", mode)
	}

	return &SaleItem{
		BaseEntity:     shared.NewBaseEntity(now),
		ProductID:      snap.ProductID,
		BatchID:        snap.BatchID,
		BatchNo:        snap.BatchNo,
		Nos:            in.Nos,
		PricingMode:    mode,
		MRP:            snap.MRP,
		DiscountPct:    in.DiscountPct,
		RateExTax:      in.RateExTax,
		GSTRate:        snap.GSTRate,
		MRPTotal:       amounts.MRPTotal,
		DiscountAmount: amounts.Discount,
		BaseExTax:      amounts.BaseExTax,
		CGST:           amounts.Tax.CGST,
		SGST:           amounts.Tax.SGST,
		IGST:           amounts.Tax.IGST,
		Net:            amounts.Net,
		CostPerUnit:    snap.CostPerUnit,
		ScheduleSymbol: snap.Symbol,
		ExpiredAtSale:  !snap.Expiry.IsZero() && !snap.Expiry.After(now),
	}, nil
}

// TaxSplit returns the output tax charged on this line
func (i *SaleItem) TaxSplit() tax.Split {
	return tax.Split{CGST: i.CGST, SGST: i.SGST, IGST: i.IGST}
}
