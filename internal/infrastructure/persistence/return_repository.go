package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/ehr/pharmacy/internal/domain/returns"
	"github.com/ehr/pharmacy/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormReturnRepository implements ReturnRepository using GORM
type GormReturnRepository struct {
	db *gorm.DB
}

// NewGormReturnRepository creates a new GormReturnRepository
func NewGormReturnRepository(db *gorm.DB) *GormReturnRepository {
	return &GormReturnRepository{db: db}
}

// FindByID finds a return with its items
func (r *GormReturnRepository) FindByID(ctx context.Context, id uuid.UUID) (*returns.Return, error) {
	var ret returns.Return
	if err := r.db.WithContext(ctx).Preload("Items").First(&ret, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &ret, nil
}

// FindBySale lists the returns of a sale, oldest first
func (r *GormReturnRepository) FindBySale(ctx context.Context, saleID uuid.UUID) ([]returns.Return, error) {
	var rows []returns.Return
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("sale_id = ?", saleID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

type returnedQty struct {
	SaleItemID uuid.UUID
	Qty        int64
}

// ReturnedQty sums returned units per sale item over every return of the sale,
// pending ones included
func (r *GormReturnRepository) ReturnedQty(ctx context.Context, saleID uuid.UUID) (map[uuid.UUID]int64, error) {
	var rows []returnedQty
	if err := r.db.WithContext(ctx).
		Table("return_items AS ri").
		Select("ri.sale_item_id, SUM(ri.qty_returned) AS qty").
		Joins("JOIN returns r ON r.id = ri.return_id").
		Where("r.sale_id = ?", saleID).
		Group("ri.sale_item_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]int64, len(rows))
	for _, row := range rows {
		out[row.SaleItemID] = row.Qty
	}
	return out, nil
}

// Create inserts the return with its items
func (r *GormReturnRepository) Create(ctx context.Context, ret *returns.Return) error {
	if err := r.db.WithContext(ctx).Create(ret).Error; err != nil {
		return fmt.Errorf("create return for bill %s: %w", ret.BillNo, err)
	}
	return nil
}

// UpdateStatus writes the return header
func (r *GormReturnRepository) UpdateStatus(ctx context.Context, ret *returns.Return) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(ret).Error
}

var _ returns.ReturnRepository = (*GormReturnRepository)(nil)
