package persistence

import (
	"context"

	appshared "github.com/ehr/pharmacy/internal/application/shared"
	"github.com/ehr/pharmacy/internal/domain/audit"
	"github.com/ehr/pharmacy/internal/domain/catalog"
	"github.com/ehr/pharmacy/internal/domain/disposal"
	"github.com/ehr/pharmacy/internal/domain/inventory"
	"github.com/ehr/pharmacy/internal/domain/purchase"
	"github.com/ehr/pharmacy/internal/domain/returns"
	"github.com/ehr/pharmacy/internal/domain/sale"
	"github.com/ehr/pharmacy/internal/domain/schedule"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn within a database transaction. If fn returns an error the
// transaction is rolled back, otherwise it is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appshared.Repositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}

// gormRepositories builds every repository over one *gorm.DB, which is either
// the pool or an open transaction.
type gormRepositories struct {
	db *gorm.DB
}

// NewRepositories returns repositories bound to db
func NewRepositories(db *gorm.DB) appshared.Repositories {
	return &gormRepositories{db: db}
}

func (r *gormRepositories) Products() catalog.ProductRepository {
	return NewGormProductRepository(r.db)
}

func (r *gormRepositories) Schedules() schedule.ChemicalScheduleRepository {
	return NewGormChemicalScheduleRepository(r.db)
}

func (r *gormRepositories) Purchases() purchase.PurchaseRepository {
	return NewGormPurchaseRepository(r.db)
}

func (r *gormRepositories) Batches() purchase.BatchRepository {
	return NewGormBatchRepository(r.db)
}

func (r *gormRepositories) Ledger() inventory.LedgerRepository {
	return NewGormLedgerRepository(r.db)
}

func (r *gormRepositories) Sales() sale.SaleRepository {
	return NewGormSaleRepository(r.db)
}

func (r *gormRepositories) Returns() returns.ReturnRepository {
	return NewGormReturnRepository(r.db)
}

func (r *gormRepositories) Disposals() disposal.DisposalRepository {
	return NewGormDisposalRepository(r.db)
}

func (r *gormRepositories) Audit() audit.Repository {
	return NewGormAuditRepository(r.db)
}

// Ensure GormTransactionScope implements TransactionScope
var _ appshared.TransactionScope = (*GormTransactionScope)(nil)
