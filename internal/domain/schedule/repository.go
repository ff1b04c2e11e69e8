package schedule

import "context"

// ChemicalScheduleRepository persists canonical chemical schedules
type ChemicalScheduleRepository interface {
	// FindByChemical looks up by normalized chemical name
	FindByChemical(ctx context.Context, chemical string) (*ChemicalSchedule, error)
	// FindAll lists every canonical record ordered by chemical name
	FindAll(ctx context.Context) ([]ChemicalSchedule, error)
	// Save creates or updates a canonical record
	Save(ctx context.Context, cs *ChemicalSchedule) error
}
