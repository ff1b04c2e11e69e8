package catalog

import (
	"testing"
	"time"

	"github.com/ehr/pharmacy/internal/domain/schedule"
	"github.com/ehr/pharmacy/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)

func TestNewProduct(t *testing.T) {
	p, err := NewProduct("  Paracetamol ", "Dolo", "650mg", "tablet", "", now)
	require.NoError(t, err)

	assert.Equal(t, "paracetamol", p.ChemicalName)
	assert.Equal(t, "Dolo", p.BrandName)
	assert.Equal(t, FormTablet, p.Form)
	assert.Equal(t, schedule.SymbolNone, p.ScheduleSymbol)
	assert.Equal(t, "Dolo 650mg", p.DisplayName())
	assert.Equal(t, now, p.CreatedAt)
}

func TestNewProduct_Validation(t *testing.T) {
	_, err := NewProduct("", "Dolo", "", "", schedule.SymbolNone, now)
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = NewProduct("paracetamol", " ", "", "", schedule.SymbolNone, now)
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = NewProduct("paracetamol", "Dolo", "", "", schedule.Symbol("Y"), now)
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestProduct_EscalateSchedule(t *testing.T) {
	p, err := NewProduct("alprazolam", "Alprax", "0.25mg", FormTablet, schedule.SymbolH, now)
	require.NoError(t, err)

	assert.False(t, p.EscalateSchedule(schedule.SymbolG, now))
	assert.Equal(t, schedule.SymbolH, p.ScheduleSymbol)

	assert.False(t, p.EscalateSchedule(schedule.SymbolH, now))

	later := now.Add(time.Hour)
	assert.True(t, p.EscalateSchedule(schedule.SymbolH1, later))
	assert.Equal(t, schedule.SymbolH1, p.ScheduleSymbol)
	assert.Equal(t, later, p.UpdatedAt)

	// Equal priority moves sideways.
	q, _ := NewProduct("morphine", "Morcontin", "", FormTablet, schedule.SymbolH, now)
	assert.True(t, q.EscalateSchedule(schedule.SymbolN, now))
	assert.Equal(t, schedule.SymbolN, q.ScheduleSymbol)
}

func TestProduct_SetPack(t *testing.T) {
	p, _ := NewProduct("paracetamol", "Dolo", "650mg", FormTablet, schedule.SymbolNone, now)
	require.NoError(t, p.SetPack("strip", 15))
	assert.Equal(t, 15, p.PackSize)
	assert.ErrorIs(t, p.SetPack("strip", 0), shared.ErrValidation)
}
