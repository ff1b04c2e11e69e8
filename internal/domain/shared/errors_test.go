package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainError_IsMatchesByCode(t *testing.T) {
	err := NewInsufficientStockError("B-001", 3, 5)

	assert.True(t, errors.Is(err, ErrInsufficientStock))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "Insufficient stock in batch B-001: available 3, requested 5", err.Error())
}

func TestDomainError_IsThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("approve purchase: %w", NewNotPendingError("purchase", "APPROVED"))

	assert.ErrorIs(t, wrapped, ErrNotPending)

	var de *DomainError
	require.ErrorAs(t, wrapped, &de)
	assert.Equal(t, CodeNotPending, de.Code)
}

func TestComplianceError(t *testing.T) {
	err := NewComplianceError([]string{"Rx Number is required", "Prescriber Reg No is required"})

	assert.ErrorIs(t, err, ErrCompliance)
	assert.Len(t, err.Missing, 2)
	assert.Contains(t, err.Error(), "Rx Number is required")

	var de *DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, CodeCompliance, de.Code)
}
