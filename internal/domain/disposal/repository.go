package disposal

import (
	"context"

	"github.com/google/uuid"
)

// DisposalRepository persists disposals
type DisposalRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Disposal, error)
	FindByBatch(ctx context.Context, batchID uuid.UUID) ([]Disposal, error)
	Create(ctx context.Context, d *Disposal) error
}
