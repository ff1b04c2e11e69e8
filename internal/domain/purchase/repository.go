package purchase

import (
	"context"

	"github.com/ehr/pharmacy/internal/domain/shared"
	"github.com/google/uuid"
)

// PurchaseRepository persists purchases together with their batches
type PurchaseRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Purchase, error)
	// FindByIDForUpdate loads the purchase with a row lock held until the
	// surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Purchase, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Purchase, int64, error)
	ExistsInvoice(ctx context.Context, supplierID uuid.UUID, invoiceNo string) (bool, error)
	Create(ctx context.Context, p *Purchase) error
	// UpdateStatus writes the purchase header and the status of each batch.
	// A rejected purchase has its batches deleted.
	UpdateStatus(ctx context.Context, p *Purchase) error
}

// BatchRepository reads batches
type BatchRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Batch, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Batch, error)
	// FindByIDsForUpdate row-locks the batches in id order
	FindByIDsForUpdate(ctx context.Context, ids []uuid.UUID) ([]Batch, error)
	FindApprovedByProduct(ctx context.Context, productID uuid.UUID) ([]Batch, error)
	FindApproved(ctx context.Context) ([]Batch, error)
}
