package order

import (
	"context"

	"shop-console/internal/domain"
)

type Repository interface {
	Create(ctx context.Context, order domain.PersistedOrder) (*domain.PersistedOrder, error)
	Replace(ctx context.Context, order domain.PersistedOrder) (*domain.PersistedOrder, error)
	GetByID(ctx context.Context, shopID, id string) (*domain.PersistedOrder, error)
}
