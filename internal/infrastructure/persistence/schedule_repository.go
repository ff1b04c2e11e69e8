package persistence

import (
	"context"
	"errors"

	"github.com/ehr/pharmacy/internal/domain/schedule"
	"github.com/ehr/pharmacy/internal/domain/shared"
	"gorm.io/gorm"
)

// GormChemicalScheduleRepository implements ChemicalScheduleRepository using GORM
type GormChemicalScheduleRepository struct {
	db *gorm.DB
}

// NewGormChemicalScheduleRepository creates a new GormChemicalScheduleRepository
func NewGormChemicalScheduleRepository(db *gorm.DB) *GormChemicalScheduleRepository {
	return &GormChemicalScheduleRepository{db: db}
}

// FindByChemical finds the canonical record of a normalized chemical name
func (r *GormChemicalScheduleRepository) FindByChemical(ctx context.Context, chemical string) (*schedule.ChemicalSchedule, error) {
	var cs schedule.ChemicalSchedule
	if err := r.db.WithContext(ctx).First(&cs, "chemical_name = ?", chemical).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &cs, nil
}

// FindAll lists every canonical record
func (r *GormChemicalScheduleRepository) FindAll(ctx context.Context) ([]schedule.ChemicalSchedule, error) {
	var rows []schedule.ChemicalSchedule
	if err := r.db.WithContext(ctx).Order("chemical_name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Save creates or updates a canonical record
func (r *GormChemicalScheduleRepository) Save(ctx context.Context, cs *schedule.ChemicalSchedule) error {
	return r.db.WithContext(ctx).Save(cs).Error
}

var _ schedule.ChemicalScheduleRepository = (*GormChemicalScheduleRepository)(nil)
