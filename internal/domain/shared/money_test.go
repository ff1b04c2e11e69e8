package shared

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRoundMoney_HalfAwayFromZero(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"38.304", "38.30"},
		{"0.005", "0.01"},
		{"2.675", "2.68"},
		{"-0.005", "-0.01"},
		{"-2.675", "-2.68"},
		{"102.6", "102.60"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := RoundMoney(decimal.RequireFromString(tt.in))
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
		})
	}
}

func TestRoundCost(t *testing.T) {
	got := RoundCost(decimal.RequireFromString("1876.90").Div(decimal.NewFromInt(110)))
	assert.Equal(t, "17.0627", got.StringFixed(4))

	assert.Equal(t, "0.0001", RoundCost(decimal.RequireFromString("0.00005")).StringFixed(4))
}

func TestSumMoney(t *testing.T) {
	got := SumMoney(decimal.RequireFromString("10.10"), decimal.RequireFromString("20.21"), decimal.RequireFromString("0.01"))
	assert.Equal(t, "30.32", got.StringFixed(2))
	assert.True(t, SumMoney().IsZero())
}
