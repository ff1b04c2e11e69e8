package inventory

import (
	"context"

	"github.com/google/uuid"
)

// LedgerRepository is the append-only store of stock movements. There is no
// update or delete; balances are always derived from the entries.
type LedgerRepository interface {
	Append(ctx context.Context, entries ...*StockLedgerEntry) error
	// Balance returns sum(qty_in) - sum(qty_out) for the batch
	Balance(ctx context.Context, batchID uuid.UUID) (int64, error)
	// Balances returns balances for several batches; batches without entries map to 0
	Balances(ctx context.Context, batchIDs []uuid.UUID) (map[uuid.UUID]int64, error)
	// FindByBatch returns a batch's entries in posting order
	FindByBatch(ctx context.Context, batchID uuid.UUID) ([]StockLedgerEntry, error)
	FindByRef(ctx context.Context, ref Ref) ([]StockLedgerEntry, error)
}
