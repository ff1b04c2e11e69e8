package catalog

import (
	"context"

	"github.com/ehr/pharmacy/internal/domain/shared"
	"github.com/google/uuid"
)

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	// FindByID finds a product by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	// FindByIDs finds several products at once
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Product, error)
	// FindByChemical finds every product registered under a normalized chemical name
	FindByChemical(ctx context.Context, chemical string) ([]Product, error)
	// FindAll lists products
	FindAll(ctx context.Context, filter shared.Filter) ([]Product, error)
	// Save creates or updates a product
	Save(ctx context.Context, product *Product) error
	// Count counts products matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}
