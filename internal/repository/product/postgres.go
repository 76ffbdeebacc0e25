package product

import (
	"context"
	"errors"
	"fmt"

	"shop-console/internal/db"
	"shop-console/internal/domain"
	"shop-console/internal/logging"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logging.OrNop(logger)}
}

const productColumns = `id::text, shop_id::text, key, name, price_cents, stock, discount_type, discount_amount_cents, sales_price_cents, created_at`

func scanProduct(row pgx.Row) (domain.Product, error) {
	var (
		p             domain.Product
		priceCents    int64
		discountType  *string
		discountCents *int64
		salesCents    *int64
	)
	if err := row.Scan(&p.ID, &p.ShopID, &p.Key, &p.Name, &priceCents, &p.Stock, &discountType, &discountCents, &salesCents, &p.CreatedAt); err != nil {
		return p, err
	}
	p.Price = db.FromCents(priceCents)
	if discountType != nil && discountCents != nil {
		p.Discount = &domain.Discount{Type: domain.DiscountType(*discountType), Amount: db.FromCents(*discountCents)}
	}
	p.SalesPrice = db.FromCentsPtr(salesCents)
	return p, nil
}

func (r *postgresRepo) ListByShop(ctx context.Context, shopID string) ([]domain.Product, error) {
	q := `SELECT ` + productColumns + `
FROM products
WHERE shop_id = $1
ORDER BY name ASC
`
	rows, err := r.pool.Query(ctx, q, shopID)
	if err != nil {
		r.logger.Error("product repo: list", zap.String("shop_id", shopID), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var result []domain.Product
	index := map[string]int{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		index[p.ID] = len(result)
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("product repo: list rows", zap.String("shop_id", shopID), zap.Error(err))
		return nil, err
	}

	variants, err := r.variantsWhere(ctx, `p.shop_id = $1`, shopID)
	if err != nil {
		return nil, err
	}
	for _, v := range variants {
		if i, ok := index[v.ProductID]; ok {
			result[i].Variants = append(result[i].Variants, v)
		}
	}
	r.logger.Debug("product repo: list", zap.String("shop_id", shopID), zap.Int("count", len(result)))
	return result, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, shopID, id string) (*domain.Product, error) {
	q := `SELECT ` + productColumns + `
FROM products
WHERE shop_id = $1 AND id = $2
`
	p, err := scanProduct(r.pool.QueryRow(ctx, q, shopID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug("product repo: get not found", zap.String("shop_id", shopID), zap.String("id", id))
			return nil, domain.ErrNotFound
		}
		r.logger.Error("product repo: get", zap.String("shop_id", shopID), zap.String("id", id), zap.Error(err))
		return nil, err
	}
	variants, err := r.variantsWhere(ctx, `p.shop_id = $1 AND v.product_id = $2`, shopID, id)
	if err != nil {
		return nil, err
	}
	p.Variants = variants
	return &p, nil
}

func (r *postgresRepo) GetVariant(ctx context.Context, shopID, id string) (*domain.ProductVariant, error) {
	variants, err := r.variantsWhere(ctx, `p.shop_id = $1 AND v.id = $2`, shopID, id)
	if err != nil {
		return nil, err
	}
	if len(variants) == 0 {
		return nil, domain.ErrNotFound
	}
	return &variants[0], nil
}

func (r *postgresRepo) variantsWhere(ctx context.Context, where string, args ...interface{}) ([]domain.ProductVariant, error) {
	q := `
SELECT v.id::text, v.product_id::text, v.sku, v.quantity, v.image, v.color, v.size, v.status
FROM product_variants v
JOIN products p ON p.id = v.product_id
WHERE ` + where + `
ORDER BY v.created_at ASC, v.sku ASC
`
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		r.logger.Error("product repo: variants", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var out []domain.ProductVariant
	for rows.Next() {
		var v domain.ProductVariant
		if err := rows.Scan(&v.ID, &v.ProductID, &v.SKU, &v.Quantity, &v.Image, &v.Color, &v.Size, &v.Status); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *postgresRepo) Upsert(ctx context.Context, product domain.Product) (*domain.Product, error) {
	const q = `
INSERT INTO products (id, shop_id, key, name, price_cents, stock, discount_type, discount_amount_cents, sales_price_cents)
VALUES (COALESCE(NULLIF($1, '')::uuid, gen_random_uuid()), $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (shop_id, key) DO UPDATE SET
    name = EXCLUDED.name,
    price_cents = EXCLUDED.price_cents,
    stock = EXCLUDED.stock,
    discount_type = EXCLUDED.discount_type,
    discount_amount_cents = EXCLUDED.discount_amount_cents,
    sales_price_cents = EXCLUDED.sales_price_cents
RETURNING id::text, created_at
`
	var (
		discountType  *string
		discountCents *int64
	)
	if product.Discount != nil {
		t := string(product.Discount.Type)
		c := db.ToCents(product.Discount.Amount)
		discountType, discountCents = &t, &c
	}

	res := product
	err := r.pool.QueryRow(ctx, q,
		product.ID,
		product.ShopID,
		product.Key,
		product.Name,
		db.ToCents(product.Price),
		product.Stock,
		discountType,
		discountCents,
		db.ToCentsPtr(product.SalesPrice),
	).Scan(&res.ID, &res.CreatedAt)
	if err != nil {
		r.logger.Error("product repo: upsert", zap.String("key", product.Key), zap.String("shop_id", product.ShopID), zap.Error(err))
		return nil, err
	}
	if product.ID != "" && res.ID != product.ID {
		return nil, fmt.Errorf("product repo: id mismatch for key=%s shop_id=%s existing_id=%s import_id=%s", product.Key, product.ShopID, res.ID, product.ID)
	}
	res.Variants = nil
	r.logger.Debug("product repo: upserted", zap.String("key", res.Key), zap.String("shop_id", res.ShopID), zap.String("id", res.ID))
	return &res, nil
}

func (r *postgresRepo) UpsertVariant(ctx context.Context, variant domain.ProductVariant) (*domain.ProductVariant, error) {
	const q = `
INSERT INTO product_variants (product_id, sku, quantity, image, color, size, status)
VALUES ($1, $2, $3, $4, $5, $6, COALESCE(NULLIF($7, ''), 'active'))
ON CONFLICT (product_id, sku) DO UPDATE SET
    quantity = EXCLUDED.quantity,
    image = EXCLUDED.image,
    color = EXCLUDED.color,
    size = EXCLUDED.size,
    status = EXCLUDED.status
RETURNING id::text, status
`
	res := variant
	err := r.pool.QueryRow(ctx, q,
		variant.ProductID,
		variant.SKU,
		variant.Quantity,
		variant.Image,
		variant.Color,
		variant.Size,
		variant.Status,
	).Scan(&res.ID, &res.Status)
	if err != nil {
		r.logger.Error("product repo: upsert variant", zap.String("sku", variant.SKU), zap.String("product_id", variant.ProductID), zap.Error(err))
		return nil, err
	}
	return &res, nil
}
