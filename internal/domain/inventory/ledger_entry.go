package inventory

import (
	"time"

	"github.com/ehr/pharmacy/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TxnType is the kind of stock movement recorded in the ledger
type TxnType string

const (
	TxnPurchase      TxnType = "PURCHASE"
	TxnSale          TxnType = "SALE"
	TxnReturnIn      TxnType = "RETURN_IN"
	TxnReturnOut     TxnType = "RETURN_OUT"
	TxnDisposal      TxnType = "DISPOSAL"
	TxnIssueInternal TxnType = "ISSUE_INTERNAL"
)

// String returns the string representation of TxnType
func (t TxnType) String() string {
	return string(t)
}

// IsValid returns true if the transaction type is known
func (t TxnType) IsValid() bool {
	return t.IsInbound() || t.IsOutbound()
}

// IsInbound returns true if the movement adds stock to a batch
func (t TxnType) IsInbound() bool {
	return t == TxnPurchase || t == TxnReturnIn
}

// IsOutbound returns true if the movement removes stock from a batch
func (t TxnType) IsOutbound() bool {
	switch t {
	case TxnSale, TxnReturnOut, TxnDisposal, TxnIssueInternal:
		return true
	}
	return false
}

// RefType names the document a ledger entry was posted from
type RefType string

const (
	RefPurchase       RefType = "purchase"
	RefSale           RefType = "sale"
	RefReturn         RefType = "return"
	RefDisposal       RefType = "disposal"
	RefIssue          RefType = "issue"
	RefSupplierReturn RefType = "supplier_return"
)

// Ref points at the source document of a movement
type Ref struct {
	Type RefType
	ID   uuid.UUID
}

// StockLedgerEntry is an immutable stock movement against one batch.
// Corrections are new entries, never edits.
type StockLedgerEntry struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	BatchID     uuid.UUID       `gorm:"type:uuid;not null;index:idx_ledger_batch_time,priority:1"`
	TxnType     TxnType         `gorm:"type:varchar(20);not null;index"`
	QtyIn       int64           `gorm:"not null;default:0"`
	QtyOut      int64           `gorm:"not null;default:0"`
	CostPerUnit decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	MRP         decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	RefType     RefType         `gorm:"type:varchar(30);not null;index:idx_ledger_ref,priority:1"`
	RefID       uuid.UUID       `gorm:"type:uuid;not null;index:idx_ledger_ref,priority:2"`
	Note        string          `gorm:"type:varchar(255)"`
	ActorID     string          `gorm:"type:varchar(100)"`
	CreatedAt   time.Time       `gorm:"not null;index:idx_ledger_batch_time,priority:2"`
}

// TableName returns the table name for GORM
func (StockLedgerEntry) TableName() string {
	return "stock_ledger"
}

// Movement describes a stock movement before it is posted
type Movement struct {
	Type        TxnType
	ProductID   uuid.UUID
	BatchID     uuid.UUID
	Qty         int64
	CostPerUnit decimal.Decimal
	MRP         decimal.Decimal
	Ref         Ref
	Note        string
	ActorID     string
}

// NewEntry validates a movement and turns it into a ledger entry. Qty is
// always positive; the direction comes from the transaction type.
func NewEntry(m Movement, now time.Time) (*StockLedgerEntry, error) {
	if !m.Type.IsValid() {
		return nil, shared.NewValidationError("unknown ledger transaction type %q", m.Type)
	}
	if m.ProductID == uuid.Nil || m.BatchID == uuid.Nil {
		return nil, shared.NewValidationError("ledger entry needs a product and a batch")
	}
	if m.Qty <= 0 {
		return nil, shared.NewValidationError("ledger quantity must be positive")
	}
	if m.CostPerUnit.IsNegative() || m.MRP.IsNegative() {
		return nil, shared.NewValidationError("ledger cost and MRP cannot be negative")
	}
	if m.Ref.ID == uuid.Nil || m.Ref.Type == "" {
		return nil, shared.NewValidationError("ledger entry needs a source reference")
	}

	e := &StockLedgerEntry{
		ID:          uuid.New(),
		ProductID:   m.ProductID,
		BatchID:     m.BatchID,
		TxnType:     m.Type,
		CostPerUnit: m.CostPerUnit,
		MRP:         m.MRP,
		RefType:     m.Ref.Type,
		RefID:       m.Ref.ID,
		Note:        m.Note,
		ActorID:     m.ActorID,
		CreatedAt:   now,
	}
	if m.Type.IsInbound() {
		e.QtyIn = m.Qty
	} else {
		e.QtyOut = m.Qty
	}
	return e, nil
}

// Delta is the signed effect of the entry on the batch balance
func (e *StockLedgerEntry) Delta() int64 {
	return e.QtyIn - e.QtyOut
}

// Balance sums entries into a batch balance
func Balance(entries []StockLedgerEntry) int64 {
	var total int64
	for i := range entries {
		total += entries[i].Delta()
	}
	return total
}

// Replay is the result of walking a batch's entries in posting order
type Replay struct {
	Balance int64
	Entries int
	// FirstNegative is the index of the first entry after which the running
	// balance dropped below zero, or -1.
	FirstNegative int
}

// Consistent reports whether the running balance never went negative
func (r Replay) Consistent() bool {
	return r.FirstNegative < 0
}

// ReplayEntries walks entries in the order given
func ReplayEntries(entries []StockLedgerEntry) Replay {
	r := Replay{FirstNegative: -1, Entries: len(entries)}
	for i := range entries {
		r.Balance += entries[i].Delta()
		if r.Balance < 0 && r.FirstNegative < 0 {
			r.FirstNegative = i
		}
	}
	return r
}

// EnsureAvailable fails with INSUFFICIENT_STOCK when requested exceeds available
func EnsureAvailable(batchNo string, available, requested int64) error {
	if requested > available {
		return shared.NewInsufficientStockError(batchNo, available, requested)
	}
	return nil
}
