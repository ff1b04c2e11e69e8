package persistence

import (
	"context"
	"errors"

	"github.com/ehr/pharmacy/internal/domain/purchase"
	"github.com/ehr/pharmacy/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormBatchRepository implements BatchRepository using GORM
type GormBatchRepository struct {
	db *gorm.DB
}

// NewGormBatchRepository creates a new GormBatchRepository
func NewGormBatchRepository(db *gorm.DB) *GormBatchRepository {
	return &GormBatchRepository{db: db}
}

// FindByID finds a batch by ID
func (r *GormBatchRepository) FindByID(ctx context.Context, id uuid.UUID) (*purchase.Batch, error) {
	var b purchase.Batch
	if err := r.db.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

// FindByIDs finds several batches
func (r *GormBatchRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]purchase.Batch, error) {
	if len(ids) == 0 {
		return []purchase.Batch{}, nil
	}
	var rows []purchase.Batch
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// FindByIDsForUpdate row-locks the batches. Rows are locked in id order so
// two writers over overlapping batch sets cannot deadlock.
func (r *GormBatchRepository) FindByIDsForUpdate(ctx context.Context, ids []uuid.UUID) ([]purchase.Batch, error) {
	if len(ids) == 0 {
		return []purchase.Batch{}, nil
	}
	var rows []purchase.Batch
	if err := forUpdate(r.db.WithContext(ctx)).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// FindApprovedByProduct lists a product's sellable batches, earliest expiry first
func (r *GormBatchRepository) FindApprovedByProduct(ctx context.Context, productID uuid.UUID) ([]purchase.Batch, error) {
	var rows []purchase.Batch
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND status = ?", productID, purchase.BatchStatusApproved).
		Order("expiry ASC, batch_no ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// FindApproved lists every approved batch, earliest expiry first
func (r *GormBatchRepository) FindApproved(ctx context.Context) ([]purchase.Batch, error) {
	var rows []purchase.Batch
	if err := r.db.WithContext(ctx).
		Where("status = ?", purchase.BatchStatusApproved).
		Order("expiry ASC, batch_no ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

var _ purchase.BatchRepository = (*GormBatchRepository)(nil)
