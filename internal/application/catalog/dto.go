package catalog

import (
	"time"

	"github.com/ehr/pharmacy/internal/domain/catalog"
	"github.com/ehr/pharmacy/internal/domain/schedule"
	"github.com/google/uuid"
)

// RegisterProductRequest represents a request to register a drug SKU
type RegisterProductRequest struct {
	ChemicalName   string `json:"chemical_name" binding:"required,min=1,max=200"`
	BrandName      string `json:"brand_name" binding:"required,min=1,max=200"`
	Strength       string `json:"strength" binding:"max=50"`
	Form           string `json:"form" binding:"max=20"`
	PackType       string `json:"pack_type" binding:"max=30"`
	PackSize       int    `json:"pack_size" binding:"omitempty,min=1"`
	ScheduleSymbol string `json:"schedule_symbol" binding:"omitempty,schedule_symbol"`
	RackRef        string `json:"rack_ref" binding:"max=50"`
}

// SetScheduleRequest represents an admin decision on a chemical's schedule
type SetScheduleRequest struct {
	Symbol string `json:"symbol" binding:"required,schedule_symbol"`
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID             uuid.UUID `json:"id"`
	ChemicalName   string    `json:"chemical_name"`
	BrandName      string    `json:"brand_name"`
	DisplayName    string    `json:"display_name"`
	Strength       string    `json:"strength"`
	Form           string    `json:"form"`
	PackType       string    `json:"pack_type"`
	PackSize       int       `json:"pack_size"`
	ScheduleSymbol string    `json:"schedule_symbol"`
	RackRef        string    `json:"rack_ref"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ChemicalScheduleResponse represents a canonical chemical schedule
type ChemicalScheduleResponse struct {
	ChemicalName string    `json:"chemical_name"`
	Symbol       string    `json:"symbol"`
	Source       string    `json:"source"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PropagationResponse reports the outcome of a schedule propagation
type PropagationResponse struct {
	Schedule  ChemicalScheduleResponse `json:"schedule"`
	Escalated []ProductResponse        `json:"escalated"`
	Unchanged int                      `json:"unchanged"`
}

// PolicyResponse represents the dispensing policy of a schedule
type PolicyResponse struct {
	Symbol        string   `json:"symbol"`
	RequiresRx    bool     `json:"requires_rx"`
	RetentionDays int      `json:"retention_days"`
	ExtraFields   []string `json:"extra_fields"`
}

// ProductListFilter filters product listings
type ProductListFilter struct {
	Search   string `form:"search"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ToProductResponse converts a domain Product to ProductResponse
func ToProductResponse(p *catalog.Product) ProductResponse {
	return ProductResponse{
		ID:             p.ID,
		ChemicalName:   p.ChemicalName,
		BrandName:      p.BrandName,
		DisplayName:    p.DisplayName(),
		Strength:       p.Strength,
		Form:           p.Form,
		PackType:       p.PackType,
		PackSize:       p.PackSize,
		ScheduleSymbol: p.ScheduleSymbol.String(),
		RackRef:        p.RackRef,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

// ToChemicalScheduleResponse converts a canonical record
func ToChemicalScheduleResponse(cs *schedule.ChemicalSchedule) ChemicalScheduleResponse {
	return ChemicalScheduleResponse{
		ChemicalName: cs.ChemicalName,
		Symbol:       cs.Symbol.String(),
		Source:       string(cs.Source),
		UpdatedAt:    cs.UpdatedAt,
	}
}
