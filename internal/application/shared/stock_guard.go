package shared

import (
	"context"
	"fmt"

	"github.com/ehr/pharmacy/internal/domain/purchase"
	"github.com/ehr/pharmacy/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("github.com/ehr/pharmacy/internal/application/shared")

// Settings are the pharmacy-wide business settings services consult
type Settings struct {
	HomeState        string
	PaymentTolerance decimal.Decimal
	AllowExpiredSale bool
}

// LockedBatches are the batches held for the duration of a StockGuard run
type LockedBatches map[uuid.UUID]*purchase.Batch

// StockGuard runs stock-affecting work under the per-batch lock and inside a
// transaction that has re-read the batch rows FOR UPDATE. Availability checks
// and ledger appends made in fn therefore cannot interleave with another
// writer on the same batch.
type StockGuard struct {
	locker BatchLocker
	scope  TransactionScope
}

// NewStockGuard creates a StockGuard
func NewStockGuard(locker BatchLocker, scope TransactionScope) *StockGuard {
	return &StockGuard{locker: locker, scope: scope}
}

// Run locks batchIDs, opens a transaction, loads the batches and calls fn.
// Every batch must exist and be approved.
func (g *StockGuard) Run(ctx context.Context, batchIDs []uuid.UUID, fn func(repos Repositories, batches LockedBatches) error) (err error) {
	ids := SortedUnique(batchIDs)
	if len(ids) == 0 {
		return shared.NewValidationError("no batches given")
	}

	ctx, span := tracer.Start(ctx, "stock.guard")
	span.SetAttributes(attribute.Int("stock.batch_count", len(ids)))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	unlock, err := g.locker.Lock(ctx, ids...)
	if err != nil {
		return fmt.Errorf("lock batches: %w", err)
	}
	defer unlock()
	span.AddEvent("batches locked")

	return g.scope.Execute(ctx, func(repos Repositories) error {
		rows, err := repos.Batches().FindByIDsForUpdate(ctx, ids)
		if err != nil {
			return err
		}
		batches := make(LockedBatches, len(rows))
		for i := range rows {
			batches[rows[i].ID] = &rows[i]
		}
		for _, id := range ids {
			b, ok := batches[id]
			if !ok {
				return shared.NewNotFoundError("batch", id)
			}
			if !b.IsApproved() {
				return shared.NewValidationError("batch %s is not approved for stock movements", b.BatchNo)
			}
		}
		return fn(repos, batches)
	})
}
