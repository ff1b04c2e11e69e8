package persistence

import (
	"context"
	"fmt"

	"github.com/ehr/pharmacy/internal/domain/inventory"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormLedgerRepository implements LedgerRepository using GORM. It only
// inserts and reads; entries are never updated or deleted.
type GormLedgerRepository struct {
	db *gorm.DB
}

// NewGormLedgerRepository creates a new GormLedgerRepository
func NewGormLedgerRepository(db *gorm.DB) *GormLedgerRepository {
	return &GormLedgerRepository{db: db}
}

// Append inserts entries
func (r *GormLedgerRepository) Append(ctx context.Context, entries ...*inventory.StockLedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(entries).Error; err != nil {
		return fmt.Errorf("append ledger entries: %w", err)
	}
	return nil
}

// Balance sums qty_in - qty_out over a batch
func (r *GormLedgerRepository) Balance(ctx context.Context, batchID uuid.UUID) (int64, error) {
	var balance int64
	if err := r.db.WithContext(ctx).Model(&inventory.StockLedgerEntry{}).
		Select("COALESCE(SUM(qty_in - qty_out), 0)").
		Where("batch_id = ?", batchID).
		Scan(&balance).Error; err != nil {
		return 0, err
	}
	return balance, nil
}

type batchBalance struct {
	BatchID uuid.UUID
	Balance int64
}

// Balances sums several batches in one query
func (r *GormLedgerRepository) Balances(ctx context.Context, batchIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	out := make(map[uuid.UUID]int64, len(batchIDs))
	if len(batchIDs) == 0 {
		return out, nil
	}
	var rows []batchBalance
	if err := r.db.WithContext(ctx).Model(&inventory.StockLedgerEntry{}).
		Select("batch_id, COALESCE(SUM(qty_in - qty_out), 0) AS balance").
		Where("batch_id IN ?", batchIDs).
		Group("batch_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, id := range batchIDs {
		out[id] = 0
	}
	for _, row := range rows {
		out[row.BatchID] = row.Balance
	}
	return out, nil
}

// FindByBatch returns a batch's entries in posting order
func (r *GormLedgerRepository) FindByBatch(ctx context.Context, batchID uuid.UUID) ([]inventory.StockLedgerEntry, error) {
	var rows []inventory.StockLedgerEntry
	if err := r.db.WithContext(ctx).
		Where("batch_id = ?", batchID).
		Order("created_at ASC, qty_in DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// FindByRef returns the entries posted from one document
func (r *GormLedgerRepository) FindByRef(ctx context.Context, ref inventory.Ref) ([]inventory.StockLedgerEntry, error) {
	var rows []inventory.StockLedgerEntry
	if err := r.db.WithContext(ctx).
		Where("ref_type = ? AND ref_id = ?", ref.Type, ref.ID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

var _ inventory.LedgerRepository = (*GormLedgerRepository)(nil)
