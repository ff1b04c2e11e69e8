package shared

import "github.com/shopspring/decimal"

const (
	// MoneyPlaces is the precision of every monetary field
	MoneyPlaces = 2
	// CostPlaces is the precision of per-unit landed cost
	CostPlaces = 4
)

var hundred = decimal.NewFromInt(100)

// RoundMoney rounds half away from zero to 2 decimals
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// RoundCost rounds half away from zero to 4 decimals
func RoundCost(d decimal.Decimal) decimal.Decimal {
	return d.Round(CostPlaces)
}

// Percent returns pct/100
func Percent(pct decimal.Decimal) decimal.Decimal {
	return pct.Div(hundred)
}

// SumMoney adds already-rounded amounts and re-rounds the result
func SumMoney(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return RoundMoney(total)
}
