package sale

import (
	"strings"

	"github.com/ehr/pharmacy/internal/domain/shared"
	"github.com/ehr/pharmacy/internal/domain/tax"
	"github.com/shopspring/decimal"
)

// PricingMode decides how a line's GST is derived
type PricingMode string

const (
	// PricingMRPInclusive charges MRP less discount and back-calculates GST
	PricingMRPInclusive PricingMode = "MRP_INC"
	// PricingRateExclusive charges an ex-tax rate with GST added on top
	PricingRateExclusive PricingMode = "RATE_EX"
)

// ParsePricingMode parses a pricing mode, defaulting to MRP_INC
func ParsePricingMode(s string) (PricingMode, error) {
	switch PricingMode(strings.ToUpper(strings.TrimSpace(s))) {
	case "", PricingMRPInclusive:
		return PricingMRPInclusive, nil
	case PricingRateExclusive:
		return PricingRateExclusive, nil
	}
	return "", shared.NewValidationError("pricing mode must be MRP_INC or RATE_EX")
}

// LineAmounts are the money fields of one sale line
type LineAmounts struct {
	MRPTotal  decimal.Decimal
	Discount  decimal.Decimal
	BaseExTax decimal.Decimal
	Tax       tax.Split
	Net       decimal.Decimal
}

// CalcMRPInclusive prices qty units sold at MRP less discountPct. The amount
// collected is the discounted MRP; GST is carved out of it.
func CalcMRPInclusive(isIntra bool, mrp, discountPct, gstRate decimal.Decimal, qty int64) LineAmounts {
	q := decimal.NewFromInt(qty)
	one := decimal.NewFromInt(1)

	sellingPerUnit := mrp.Mul(one.Sub(shared.Percent(discountPct)))
	lineTotal := shared.RoundMoney(sellingPerUnit.Mul(q))

	base := lineTotal
	if !gstRate.IsZero() {
		base = shared.RoundMoney(lineTotal.Div(one.Add(shared.Percent(gstRate))))
	}

	return LineAmounts{
		MRPTotal:  shared.RoundMoney(mrp.Mul(q)),
		Discount:  shared.RoundMoney(mrp.Mul(q).Mul(shared.Percent(discountPct))),
		BaseExTax: base,
		Tax:       tax.SplitInclusive(isIntra, lineTotal.Sub(base)),
		Net:       lineTotal,
	}
}

// CalcRateExclusive prices qty units at an ex-tax rate with GST on top
func CalcRateExclusive(isIntra bool, rateExTax, gstRate, mrp decimal.Decimal, qty int64) LineAmounts {
	q := decimal.NewFromInt(qty)
	base := shared.RoundMoney(rateExTax.Mul(q))
	split := tax.SplitTax(isIntra, gstRate, base)

	return LineAmounts{
		MRPTotal:  shared.RoundMoney(mrp.Mul(q)),
		Discount:  decimal.Zero,
		BaseExTax: base,
		Tax:       split,
		Net:       shared.RoundMoney(base.Add(split.Total())),
	}
}
