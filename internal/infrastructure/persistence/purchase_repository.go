package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/ehr/pharmacy/internal/domain/purchase"
	"github.com/ehr/pharmacy/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPurchaseRepository implements PurchaseRepository using GORM
type GormPurchaseRepository struct {
	db *gorm.DB
}

// NewGormPurchaseRepository creates a new GormPurchaseRepository
func NewGormPurchaseRepository(db *gorm.DB) *GormPurchaseRepository {
	return &GormPurchaseRepository{db: db}
}

func preloadBatches(db *gorm.DB) *gorm.DB {
	return db.Order("batch_no ASC, id ASC")
}

// FindByID finds a purchase with its batches
func (r *GormPurchaseRepository) FindByID(ctx context.Context, id uuid.UUID) (*purchase.Purchase, error) {
	return r.find(r.db.WithContext(ctx), id)
}

// FindByIDForUpdate finds a purchase and row-locks its header
func (r *GormPurchaseRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*purchase.Purchase, error) {
	return r.find(forUpdate(r.db.WithContext(ctx)), id)
}

func (r *GormPurchaseRepository) find(db *gorm.DB, id uuid.UUID) (*purchase.Purchase, error) {
	var p purchase.Purchase
	if err := db.Preload("Batches", preloadBatches).First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// FindAll lists purchases with their batches and the total matching count
func (r *GormPurchaseRepository) FindAll(ctx context.Context, filter shared.Filter) ([]purchase.Purchase, int64, error) {
	query := r.db.WithContext(ctx).Model(&purchase.Purchase{})
	if filter.Search != "" {
		query = query.Where("invoice_no LIKE ? OR supplier_name LIKE ?", "%"+filter.Search+"%", "%"+filter.Search+"%")
	}
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "supplier_id":
			query = query.Where("supplier_id = ?", value)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []purchase.Purchase
	if err := applyPaging(query, filter, PurchaseSortFields, "created_at").
		Preload("Batches", preloadBatches).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// ExistsInvoice reports whether a live (not rejected) purchase already
// carries this supplier invoice number
func (r *GormPurchaseRepository) ExistsInvoice(ctx context.Context, supplierID uuid.UUID, invoiceNo string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&purchase.Purchase{}).
		Where("supplier_id = ? AND invoice_no = ? AND status <> ?", supplierID, invoiceNo, purchase.StatusRejected).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create inserts the purchase and its batches
func (r *GormPurchaseRepository) Create(ctx context.Context, p *purchase.Purchase) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("create purchase %s: %w", p.InvoiceNo, err)
	}
	return nil
}

// UpdateStatus writes the header, then approves or deletes the batches
func (r *GormPurchaseRepository) UpdateStatus(ctx context.Context, p *purchase.Purchase) error {
	db := r.db.WithContext(ctx)
	if err := db.Omit(clause.Associations).Save(p).Error; err != nil {
		return fmt.Errorf("update purchase %s: %w", p.ID, err)
	}

	switch p.Status {
	case purchase.StatusApproved:
		return db.Model(&purchase.Batch{}).
			Where("purchase_id = ?", p.ID).
			Updates(map[string]any{
				"status":     purchase.BatchStatusApproved,
				"updated_at": p.UpdatedAt,
			}).Error
	case purchase.StatusRejected:
		return db.Where("purchase_id = ?", p.ID).Delete(&purchase.Batch{}).Error
	}
	return nil
}

var _ purchase.PurchaseRepository = (*GormPurchaseRepository)(nil)
