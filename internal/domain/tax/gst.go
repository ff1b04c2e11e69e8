// Package tax implements Indian GST splitting and input-tax-credit reversal.
package tax

import (
	"strings"

	"github.com/ehr/pharmacy/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DefaultHomeState is the state whose suppliers and customers are intra-state
const DefaultHomeState = "Kerala"

// ValidRates are the GST slabs accepted on drug purchases
var ValidRates = []int64{0, 5, 12, 18, 28}

var two = decimal.NewFromInt(2)

// Split is the CGST/SGST/IGST breakdown of one taxable amount
type Split struct {
	CGST decimal.Decimal `json:"cgst"`
	SGST decimal.Decimal `json:"sgst"`
	IGST decimal.Decimal `json:"igst"`
}

// Total returns cgst+sgst+igst
func (s Split) Total() decimal.Decimal {
	return s.CGST.Add(s.SGST).Add(s.IGST)
}

// ZeroSplit is a split with no tax
func ZeroSplit() Split {
	return Split{CGST: decimal.Zero, SGST: decimal.Zero, IGST: decimal.Zero}
}

// IsIntraState compares a counterparty state with the home state,
// ignoring case and surrounding whitespace.
func IsIntraState(state, homeState string) bool {
	return strings.EqualFold(strings.TrimSpace(state), strings.TrimSpace(homeState))
}

// ValidateRate fails with INVALID_RATE unless rate is a GST slab
func ValidateRate(rate decimal.Decimal) error {
	for _, r := range ValidRates {
		if rate.Equal(decimal.NewFromInt(r)) {
			return nil
		}
	}
	return shared.NewDomainError(shared.CodeInvalidRate,
		"Invalid GST rate "+rate.String()+": must be one of 0, 5, 12, 18, 28")
}

// SplitTax splits the GST on taxable into CGST+SGST (intra) or IGST (inter).
// Each component is rounded to 2 decimals.
func SplitTax(isIntra bool, gstRate, taxable decimal.Decimal) Split {
	if gstRate.IsZero() || taxable.IsZero() {
		return ZeroSplit()
	}
	if isIntra {
		half := shared.RoundMoney(taxable.Mul(gstRate.Div(two)).Div(decimal.NewFromInt(100)))
		return Split{CGST: half, SGST: half, IGST: decimal.Zero}
	}
	return Split{
		CGST: decimal.Zero,
		SGST: decimal.Zero,
		IGST: shared.RoundMoney(taxable.Mul(gstRate).Div(decimal.NewFromInt(100))),
	}
}

// SplitInclusive splits an already-collected tax total. Intra-state, CGST is
// the rounded half and SGST takes the remainder, so the two always add back
// to the rounded total; an odd last cent stays with CGST.
func SplitInclusive(isIntra bool, taxTotal decimal.Decimal) Split {
	if taxTotal.IsZero() {
		return ZeroSplit()
	}
	total := shared.RoundMoney(taxTotal)
	if isIntra {
		cgst := shared.RoundMoney(total.Div(two))
		return Split{CGST: cgst, SGST: total.Sub(cgst), IGST: decimal.Zero}
	}
	return Split{CGST: decimal.Zero, SGST: decimal.Zero, IGST: total}
}

// CalcITCReversal returns the input tax credit to reverse when disposedQty
// of totalQty received units are written off. Tax is treated as spread
// uniformly over every received unit, free units included.
func CalcITCReversal(purchase Split, disposedQty, totalQty int64) decimal.Decimal {
	if totalQty <= 0 {
		return decimal.Zero
	}
	ratio := decimal.NewFromInt(disposedQty).Div(decimal.NewFromInt(totalQty))
	return shared.RoundMoney(purchase.Total().Mul(ratio))
}
