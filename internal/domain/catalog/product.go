package catalog

import (
	"strings"
	"time"

	"github.com/ehr/pharmacy/internal/domain/schedule"
	"github.com/ehr/pharmacy/internal/domain/shared"
)

// Dosage forms commonly stocked by the hospital pharmacy
const (
	FormTablet    = "TABLET"
	FormCapsule   = "CAPSULE"
	FormSyrup     = "SYRUP"
	FormInjection = "INJECTION"
	FormOintment  = "OINTMENT"
	FormDrops     = "DROPS"
	FormOther     = "OTHER"
)

// Product is a registered drug SKU
type Product struct {
	shared.BaseEntity
	ChemicalName   string          `gorm:"type:varchar(200);not null;index"` // normalized salt name
	BrandName      string          `gorm:"type:varchar(200);not null"`
	Strength       string          `gorm:"type:varchar(50)"`
	Form           string          `gorm:"type:varchar(20);not null"`
	PackType       string          `gorm:"type:varchar(30)"`
	PackSize       int             `gorm:"not null;default:1"`
	ScheduleSymbol schedule.Symbol `gorm:"type:varchar(10);not null;default:'NONE'"`
	RackRef        string          `gorm:"type:varchar(50)"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a new product
func NewProduct(chemical, brand, strength, form string, symbol schedule.Symbol, now time.Time) (*Product, error) {
	chemical = schedule.NormalizeChemical(chemical)
	if chemical == "" {
		return nil, shared.NewValidationError("chemical name cannot be empty")
	}
	brand = strings.TrimSpace(brand)
	if brand == "" {
		return nil, shared.NewValidationError("brand name cannot be empty")
	}
	if symbol == "" {
		symbol = schedule.SymbolNone
	}
	if !symbol.IsValid() {
		return nil, shared.NewValidationError("unknown schedule symbol %q", symbol)
	}
	form = strings.ToUpper(strings.TrimSpace(form))
	if form == "" {
		form = FormOther
	}

	return &Product{
		BaseEntity:     shared.NewBaseEntity(now),
		ChemicalName:   chemical,
		BrandName:      brand,
		Strength:       strings.TrimSpace(strength),
		Form:           form,
		PackSize:       1,
		ScheduleSymbol: symbol,
	}, nil
}

// SetPack sets the pack description
func (p *Product) SetPack(packType string, packSize int) error {
	if packSize <= 0 {
		return shared.NewValidationError("pack size must be positive")
	}
	p.PackType = strings.TrimSpace(packType)
	p.PackSize = packSize
	return nil
}

// DisplayName returns brand and strength for bills and reports
func (p *Product) DisplayName() string {
	if p.Strength == "" {
		return p.BrandName
	}
	return p.BrandName + " " + p.Strength
}

// EscalateSchedule applies a propagated schedule. It only ever moves the
// product to an equal or stricter symbol and reports whether it changed.
func (p *Product) EscalateSchedule(next schedule.Symbol, now time.Time) bool {
	if next == p.ScheduleSymbol || !schedule.IsMoreRestrictive(next, p.ScheduleSymbol) {
		return false
	}
	p.ScheduleSymbol = next
	p.Touch(now)
	return true
}
