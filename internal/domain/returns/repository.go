package returns

import (
	"context"

	"github.com/google/uuid"
)

// ReturnRepository persists returns with their items
type ReturnRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Return, error)
	FindBySale(ctx context.Context, saleID uuid.UUID) ([]Return, error)
	// ReturnedQty sums units already returned per sale item of a sale
	ReturnedQty(ctx context.Context, saleID uuid.UUID) (map[uuid.UUID]int64, error)
	Create(ctx context.Context, r *Return) error
	UpdateStatus(ctx context.Context, r *Return) error
}
