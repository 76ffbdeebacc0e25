package product

import (
	"context"

	"shop-console/internal/domain"
)

// Repository is the read side of the catalog plus the writes used by the
// importer and seed.
type Repository interface {
	ListByShop(ctx context.Context, shopID string) ([]domain.Product, error)
	GetByID(ctx context.Context, shopID, id string) (*domain.Product, error)
	GetVariant(ctx context.Context, shopID, id string) (*domain.ProductVariant, error)
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
	UpsertVariant(ctx context.Context, variant domain.ProductVariant) (*domain.ProductVariant, error)
}
