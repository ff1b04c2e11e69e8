package inventory

import (
	"testing"
	"time"

	"github.com/ehr/pharmacy/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 10, 17, 10, 0, 0, 0, time.UTC)

func movement(txn TxnType, qty int64) Movement {
	return Movement{
		Type:        txn,
		ProductID:   uuid.New(),
		BatchID:     uuid.New(),
		Qty:         qty,
		CostPerUnit: decimal.RequireFromString("17.0627"),
		MRP:         decimal.RequireFromString("25.00"),
		Ref:         Ref{Type: RefSale, ID: uuid.New()},
	}
}

func TestTxnType_Direction(t *testing.T) {
	tests := []struct {
		txn      TxnType
		inbound  bool
		outbound bool
	}{
		{TxnPurchase, true, false},
		{TxnReturnIn, true, false},
		{TxnSale, false, true},
		{TxnReturnOut, false, true},
		{TxnDisposal, false, true},
		{TxnIssueInternal, false, true},
		{TxnType("ADJUST"), false, false},
	}
	for _, tt := range tests {
		t.Run(tt.txn.String(), func(t *testing.T) {
			assert.Equal(t, tt.inbound, tt.txn.IsInbound())
			assert.Equal(t, tt.outbound, tt.txn.IsOutbound())
			assert.Equal(t, tt.inbound || tt.outbound, tt.txn.IsValid())
		})
	}
}

func TestNewEntry(t *testing.T) {
	in, err := NewEntry(movement(TxnPurchase, 110), now)
	require.NoError(t, err)
	assert.Equal(t, int64(110), in.QtyIn)
	assert.Zero(t, in.QtyOut)
	assert.Equal(t, int64(110), in.Delta())
	assert.Equal(t, now, in.CreatedAt)

	out, err := NewEntry(movement(TxnSale, 4), now)
	require.NoError(t, err)
	assert.Zero(t, out.QtyIn)
	assert.Equal(t, int64(4), out.QtyOut)
	assert.Equal(t, int64(-4), out.Delta())
}

func TestNewEntry_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Movement)
	}{
		{"zero qty", func(m *Movement) { m.Qty = 0 }},
		{"negative qty", func(m *Movement) { m.Qty = -3 }},
		{"unknown type", func(m *Movement) { m.Type = "ADJUST" }},
		{"no batch", func(m *Movement) { m.BatchID = uuid.Nil }},
		{"no ref", func(m *Movement) { m.Ref = Ref{} }},
		{"negative cost", func(m *Movement) { m.CostPerUnit = decimal.NewFromInt(-1) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := movement(TxnSale, 1)
			tt.mutate(&m)
			_, err := NewEntry(m, now)
			assert.ErrorIs(t, err, shared.ErrValidation)
		})
	}
}

func TestBalanceAndReplay(t *testing.T) {
	entries := []StockLedgerEntry{
		{QtyIn: 110},
		{QtyOut: 30},
		{QtyIn: 5},
		{QtyOut: 85},
	}
	assert.Equal(t, int64(0), Balance(entries))

	r := ReplayEntries(entries)
	assert.True(t, r.Consistent())
	assert.Equal(t, 4, r.Entries)

	broken := []StockLedgerEntry{{QtyIn: 10}, {QtyOut: 11}, {QtyIn: 5}}
	r = ReplayEntries(broken)
	assert.False(t, r.Consistent())
	assert.Equal(t, 1, r.FirstNegative)
	assert.Equal(t, int64(4), r.Balance)
}

func TestEnsureAvailable(t *testing.T) {
	assert.NoError(t, EnsureAvailable("B1", 5, 5))
	err := EnsureAvailable("B1", 5, 6)
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)
	assert.Contains(t, err.Error(), "B1")
}

func TestClassifyExpiry(t *testing.T) {
	month := func(y int, m time.Month) time.Time { return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC) }
	tests := []struct {
		expiry time.Time
		want   ExpiryBand
	}{
		{month(2026, 9), BandRed},
		{month(2026, 12), BandRed},
		{month(2027, 1), BandRed},
		{month(2027, 2), BandOrange},
		{month(2027, 4), BandOrange},
		{month(2027, 5), BandYellow},
		{month(2027, 10), BandYellow},
		{month(2027, 11), BandOK},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyExpiry(tt.expiry, now), tt.expiry.Format("2006-01"))
	}
}

func TestExpiryBand_AtLeast(t *testing.T) {
	assert.True(t, BandRed.AtLeast(BandYellow))
	assert.True(t, BandOrange.AtLeast(BandOrange))
	assert.False(t, BandOK.AtLeast(BandYellow))

	b, ok := ParseBand("orange")
	assert.True(t, ok)
	assert.Equal(t, BandOrange, b)
	_, ok = ParseBand("purple")
	assert.False(t, ok)
}
