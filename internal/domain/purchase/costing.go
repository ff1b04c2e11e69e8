package purchase

import (
	"github.com/ehr/pharmacy/internal/domain/shared"
	"github.com/ehr/pharmacy/internal/domain/tax"
	"github.com/shopspring/decimal"
)

// LineCost is the costing of one purchase invoice line
type LineCost struct {
	SchemeAmount         decimal.Decimal
	Taxable              decimal.Decimal
	Tax                  tax.Split
	PostTaxDiscount      decimal.Decimal
	RowNet               decimal.Decimal
	EffectiveQty         int64
	EffectiveCostPerUnit decimal.Decimal
}

// CalcPurchaseLine costs an invoice line.
//
// The scheme discount is taken before tax and reduces the GST base. The cash
// discount is taken after tax and does not. The net landed value is spread
// over billed and free units alike.
func CalcPurchaseLine(
	isIntra bool,
	billedQty, freeQty int64,
	tradePriceEx, gstRate, schemePct, cashPct decimal.Decimal,
) LineCost {
	gross := tradePriceEx.Mul(decimal.NewFromInt(billedQty))
	schemeAmt := shared.RoundMoney(gross.Mul(shared.Percent(schemePct)))

	taxable := shared.RoundMoney(gross.Sub(schemeAmt))
	if taxable.IsNegative() {
		taxable = decimal.Zero
	}

	split := tax.SplitTax(isIntra, gstRate, taxable)
	withTax := taxable.Add(split.Total())
	postTax := shared.RoundMoney(withTax.Mul(shared.Percent(cashPct)))
	rowNet := shared.RoundMoney(withTax.Sub(postTax))

	effQty := billedQty + freeQty
	divisor := effQty
	if divisor < 1 {
		divisor = 1
	}

	return LineCost{
		SchemeAmount:         schemeAmt,
		Taxable:              taxable,
		Tax:                  split,
		PostTaxDiscount:      postTax,
		RowNet:               rowNet,
		EffectiveQty:         effQty,
		EffectiveCostPerUnit: shared.RoundCost(rowNet.Div(decimal.NewFromInt(divisor))),
	}
}
