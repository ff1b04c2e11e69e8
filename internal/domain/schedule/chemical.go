package schedule

import (
	"strings"
	"time"

	"github.com/ehr/pharmacy/internal/domain/shared"
)

// Source records who decided a chemical's canonical schedule
type Source string

const (
	SourceAdmin   Source = "ADMIN"
	SourceDerived Source = "DERIVED"
)

// NormalizeChemical canonicalizes a chemical name for lookups
func NormalizeChemical(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// ChemicalSchedule is the canonical schedule of a chemical (salt)
type ChemicalSchedule struct {
	shared.BaseEntity
	ChemicalName string `gorm:"type:varchar(200);not null;uniqueIndex"`
	Symbol       Symbol `gorm:"type:varchar(10);not null"`
	Source       Source `gorm:"type:varchar(10);not null"`
}

// TableName returns the table name for GORM
func (ChemicalSchedule) TableName() string {
	return "chemical_schedules"
}

// NewChemicalSchedule creates a canonical record for a normalized chemical name
func NewChemicalSchedule(chemical string, symbol Symbol, source Source, now time.Time) (*ChemicalSchedule, error) {
	name := NormalizeChemical(chemical)
	if name == "" {
		return nil, shared.NewValidationError("chemical name cannot be empty")
	}
	if !symbol.IsValid() {
		return nil, shared.NewValidationError("unknown schedule symbol %q", symbol)
	}
	return &ChemicalSchedule{
		BaseEntity:   shared.NewBaseEntity(now),
		ChemicalName: name,
		Symbol:       symbol,
		Source:       source,
	}, nil
}

// Admits checks a product symbol against the canonical one
func (c *ChemicalSchedule) Admits(symbol Symbol) error {
	if !IsMoreRestrictive(symbol, c.Symbol) {
		return shared.NewValidationError("schedule must be at least %s", c.Symbol)
	}
	return nil
}

// Escalate moves the canonical symbol to next. A lower-priority symbol
// is rejected and leaves the record untouched.
func (c *ChemicalSchedule) Escalate(next Symbol, source Source, now time.Time) error {
	if !next.IsValid() {
		return shared.NewValidationError("unknown schedule symbol %q", next)
	}
	if err := c.Admits(next); err != nil {
		return err
	}
	c.Symbol = next
	c.Source = source
	c.Touch(now)
	return nil
}
