package persistence

import (
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

// Models lists every persisted domain struct in dependency order
func Models() []any {
	return []any{
		&schedule.ChemicalSchedule{},
		&catalog.Product{},
		&purchase.Purchase{},
		&purchase.Batch{},
		&inventory.StockLedgerEntry{},
		&sale.Sale{},
		&sale.SaleItem{},
		&sale.Payment{},
		&returns.Return{},
		&returns.ReturnItem{},
		&disposal.Disposal{},
		&audit.Entry{},
	}
}

// AutoMigrate creates the schema for Models on db
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
