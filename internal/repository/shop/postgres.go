package shop

import (
	"context"
	"errors"

	"shop-console/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) GetByKey(ctx context.Context, key string) (*domain.Shop, error) {
	const q = `
SELECT id::text, key, name, created_at
FROM shops
WHERE key = $1
`
	var s domain.Shop
	err := r.pool.QueryRow(ctx, q, key).Scan(&s.ID, &s.Key, &s.Name, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// Create inserts a shop, or renames the existing shop with the same key.
func (r *postgresRepo) Create(ctx context.Context, shop *domain.Shop) (*domain.Shop, error) {
	const q = `
INSERT INTO shops (key, name)
VALUES ($1, $2)
ON CONFLICT (key) DO UPDATE SET name = EXCLUDED.name
RETURNING id::text, created_at
`
	var out domain.Shop
	err := r.pool.QueryRow(ctx, q, shop.Key, shop.Name).Scan(&out.ID, &out.CreatedAt)
	if err != nil {
		return nil, err
	}
	out.Key = shop.Key
	out.Name = shop.Name
	return &out, nil
}
