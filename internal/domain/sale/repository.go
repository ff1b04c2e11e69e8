package sale

import (
	"context"

	"github.com/ehr/pharmacy/internal/domain/shared"
	"github.com/google/uuid"
)

// SaleRepository persists sales with their items and payments
type SaleRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Sale, error)
	FindByBillNo(ctx context.Context, billNo string) (*Sale, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Sale, int64, error)
	ExistsBillNo(ctx context.Context, billNo string) (bool, error)
	Create(ctx context.Context, s *Sale) error
}
