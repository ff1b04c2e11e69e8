package testutil

import (
	"context"
	"testing"
	"time"

	appshared "github.com/ehr/pharmacy/internal/application/shared"
	"github.com/ehr/pharmacy/internal/domain/catalog"
	"github.com/ehr/pharmacy/internal/domain/inventory"
	"github.com/ehr/pharmacy/internal/domain/purchase"
	"github.com/ehr/pharmacy/internal/domain/schedule"
	"github.com/ehr/pharmacy/internal/infrastructure/lock"
	"github.com/ehr/pharmacy/internal/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// HomeState is the pharmacy state every Env is configured with
const HomeState = "Kerala"

// Epoch is where every Env clock starts
var Epoch = time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)

// Env bundles the collaborators an application service needs, all backed by
// one private sqlite database.
type Env struct {
	DB       *gorm.DB
	Repos    appshared.Repositories
	Scope    appshared.TransactionScope
	Locker   *lock.MemoryBatchLocker
	Guard    *appshared.StockGuard
	Audit    *appshared.AuditRecorder
	Clock    *TickingClock
	Settings appshared.Settings
	Logger   *zap.Logger
}

// NewEnv creates an Env with default settings
func NewEnv(t *testing.T) *Env {
	t.Helper()

	db := NewTestDB(t)
	clock := NewTickingClock(Epoch)
	logger := zap.NewNop()
	repos := persistence.NewRepositories(db)
	scope := persistence.NewGormTransactionScope(db)
	locker := lock.NewMemoryBatchLocker()

	return &Env{
		DB:     db,
		Repos:  repos,
		Scope:  scope,
		Locker: locker,
		Guard:  appshared.NewStockGuard(locker, scope),
		Audit:  appshared.NewAuditRecorder(repos.Audit(), clock, logger),
		Clock:  clock,
		Settings: appshared.Settings{
			HomeState:        HomeState,
			PaymentTolerance: decimal.RequireFromString("0.01"),
			AllowExpiredSale: true,
		},
		Logger: logger,
	}
}

// SeedProduct stores a product together with its chemical's canonical schedule
func (e *Env) SeedProduct(t *testing.T, chemical, brand string, symbol schedule.Symbol) *catalog.Product {
	t.Helper()
	ctx := context.Background()
	now := e.Clock.Now()

	p, err := catalog.NewProduct(chemical, brand, "500mg", "TAB", symbol, now)
	require.NoError(t, err)

	cs, err := e.Repos.Schedules().FindByChemical(ctx, p.ChemicalName)
	if err != nil {
		cs, err = schedule.NewChemicalSchedule(p.ChemicalName, symbol, schedule.SourceDerived, now)
		require.NoError(t, err)
		require.NoError(t, e.Repos.Schedules().Save(ctx, cs))
	}
	require.NoError(t, e.Repos.Products().Save(ctx, p))
	return p
}

// StockLine returns a purchase line for product with sensible defaults:
// 12% GST, MRP 25, trade price 18, expiry a year out.
func StockLine(product *catalog.Product, batchNo string, qty int64) purchase.LineInput {
	return purchase.LineInput{
		ProductID:    product.ID,
		BatchNo:      batchNo,
		Expiry:       purchase.FormatExpiry(Epoch.AddDate(1, 0, 0)),
		GSTRate:      decimal.NewFromInt(12),
		MRP:          decimal.NewFromInt(25),
		TradePriceEx: decimal.NewFromInt(18),
		ReceivedQty:  qty,
	}
}

// SeedApprovedPurchase records an approved intra-state purchase and posts its
// PURCHASE ledger entries. The returned batches are in line order.
func (e *Env) SeedApprovedPurchase(t *testing.T, lines ...purchase.LineInput) []purchase.Batch {
	t.Helper()
	ctx := context.Background()
	now := e.Clock.Now()

	p, err := purchase.NewPurchase(purchase.Header{
		InvoiceNo:     "SEED-" + uuid.NewString()[:8],
		SupplierID:    uuid.New(),
		SupplierName:  "Seed Distributors",
		SupplierState: HomeState,
		CreatedBy:     "seed",
	}, HomeState, lines, now)
	require.NoError(t, err)
	require.NoError(t, p.Approve("seed", now))

	err = e.Scope.Execute(ctx, func(repos appshared.Repositories) error {
		if err := repos.Purchases().Create(ctx, p); err != nil {
			return err
		}
		entries := make([]*inventory.StockLedgerEntry, 0, len(p.Batches))
		for i := range p.Batches {
			b := &p.Batches[i]
			entry, err := inventory.NewEntry(inventory.Movement{
				Type:        inventory.TxnPurchase,
				ProductID:   b.ProductID,
				BatchID:     b.ID,
				Qty:         b.TotalQty(),
				CostPerUnit: b.EffectiveCostPerUnit,
				MRP:         b.MRP,
				Ref:         inventory.Ref{Type: inventory.RefPurchase, ID: p.ID},
				ActorID:     "seed",
			}, now)
			if err != nil {
				return err
			}
			entries = append(entries, entry)
		}
		return repos.Ledger().Append(ctx, entries...)
	})
	require.NoError(t, err)
	return p.Batches
}

// SeedBatch is SeedApprovedPurchase for a single default line
func (e *Env) SeedBatch(t *testing.T, product *catalog.Product, batchNo string, qty int64) *purchase.Batch {
	t.Helper()
	batches := e.SeedApprovedPurchase(t, StockLine(product, batchNo, qty))
	return &batches[0]
}

// Balance reads a batch's ledger balance
func (e *Env) Balance(t *testing.T, batchID uuid.UUID) int64 {
	t.Helper()
	balance, err := e.Repos.Ledger().Balance(context.Background(), batchID)
	require.NoError(t, err)
	return balance
}
