// Package shared holds the plumbing every pharmacy application service uses:
// transactional repository access, per-batch locking and audit recording.
package shared

import (
	"context"

	"github.com/ehr/pharmacy/internal/domain/audit"
	"github.com/ehr/pharmacy/internal/domain/catalog"
	"github.com/ehr/pharmacy/internal/domain/disposal"
	"github.com/ehr/pharmacy/internal/domain/inventory"
	"github.com/ehr/pharmacy/internal/domain/purchase"
	"github.com/ehr/pharmacy/internal/domain/returns"
	"github.com/ehr/pharmacy/internal/domain/sale"
	"github.com/ehr/pharmacy/internal/domain/schedule"
)

// Repositories gives access to every repository. Inside TransactionScope.Execute
// all of them share one database transaction.
type Repositories interface {
	Products() catalog.ProductRepository
	Schedules() schedule.ChemicalScheduleRepository
	Purchases() purchase.PurchaseRepository
	Batches() purchase.BatchRepository
	Ledger() inventory.LedgerRepository
	Sales() sale.SaleRepository
	Returns() returns.ReturnRepository
	Disposals() disposal.DisposalRepository
	Audit() audit.Repository
}

// TransactionScope runs a unit of work atomically.
// If fn returns an error, the transaction is rolled back.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos Repositories) error) error
}
