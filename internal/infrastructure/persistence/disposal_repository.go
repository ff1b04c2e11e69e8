package persistence

import (
	"context"
	"errors"

	"github.com/ehr/pharmacy/internal/domain/disposal"
	"github.com/ehr/pharmacy/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormDisposalRepository implements DisposalRepository using GORM
type GormDisposalRepository struct {
	db *gorm.DB
}

// NewGormDisposalRepository creates a new GormDisposalRepository
func NewGormDisposalRepository(db *gorm.DB) *GormDisposalRepository {
	return &GormDisposalRepository{db: db}
}

// FindByID finds a disposal by ID
func (r *GormDisposalRepository) FindByID(ctx context.Context, id uuid.UUID) (*disposal.Disposal, error) {
	var d disposal.Disposal
	if err := r.db.WithContext(ctx).First(&d, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

// FindByBatch lists the disposals of a batch, oldest first
func (r *GormDisposalRepository) FindByBatch(ctx context.Context, batchID uuid.UUID) ([]disposal.Disposal, error) {
	var rows []disposal.Disposal
	if err := r.db.WithContext(ctx).
		Where("batch_id = ?", batchID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Create inserts a disposal
func (r *GormDisposalRepository) Create(ctx context.Context, d *disposal.Disposal) error {
	return r.db.WithContext(ctx).Create(d).Error
}

var _ disposal.DisposalRepository = (*GormDisposalRepository)(nil)
