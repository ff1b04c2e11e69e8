package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/ehr/pharmacy/internal/domain/sale"
	"github.com/ehr/pharmacy/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormSaleRepository implements SaleRepository using GORM
type GormSaleRepository struct {
	db *gorm.DB
}

// NewGormSaleRepository creates a new GormSaleRepository
func NewGormSaleRepository(db *gorm.DB) *GormSaleRepository {
	return &GormSaleRepository{db: db}
}

func (r *GormSaleRepository) withLines(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		Preload("Payments")
}

// FindByID finds a sale with its items and payments
func (r *GormSaleRepository) FindByID(ctx context.Context, id uuid.UUID) (*sale.Sale, error) {
	var s sale.Sale
	if err := r.withLines(ctx).First(&s, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// FindByBillNo finds a sale by bill number
func (r *GormSaleRepository) FindByBillNo(ctx context.Context, billNo string) (*sale.Sale, error) {
	var s sale.Sale
	if err := r.withLines(ctx).First(&s, "bill_no = ?", billNo).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// FindAll lists sale headers with the total matching count
func (r *GormSaleRepository) FindAll(ctx context.Context, filter shared.Filter) ([]sale.Sale, int64, error) {
	query := r.db.WithContext(ctx).Model(&sale.Sale{})
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("bill_no LIKE ? OR patient_name LIKE ?", pattern, pattern)
	}
	for key, value := range filter.Filters {
		switch key {
		case "mode":
			query = query.Where("mode = ?", value)
		case "patient_id":
			query = query.Where("patient_id = ?", value)
		case "from":
			query = query.Where("created_at >= ?", value)
		case "to":
			query = query.Where("created_at < ?", value)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []sale.Sale
	if err := applyPaging(query, filter, SaleSortFields, "created_at").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// ExistsBillNo reports whether a bill number is taken
func (r *GormSaleRepository) ExistsBillNo(ctx context.Context, billNo string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&sale.Sale{}).
		Where("bill_no = ?", billNo).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create inserts the sale with its items and payments
func (r *GormSaleRepository) Create(ctx context.Context, s *sale.Sale) error {
	if err := r.db.WithContext(ctx).Create(s).Error; err != nil {
		return fmt.Errorf("create sale %s: %w", s.BillNo, err)
	}
	return nil
}

var _ sale.SaleRepository = (*GormSaleRepository)(nil)
