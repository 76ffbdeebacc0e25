package product

import (
	"context"
	"os"
	"testing"

	"shop-console/internal/domain"
	"shop-console/internal/migrate"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

func TestPostgres_ListAndGet(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	if _, err := migrate.Apply(ctx, pool, nil); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	resetTables(ctx, t, pool)

	var shopID string
	err := pool.QueryRow(ctx, `INSERT INTO shops (key, name) VALUES (gen_random_uuid()::text, 'Shop') RETURNING id::text`).Scan(&shopID)
	if err != nil {
		t.Fatalf("insert shop: %v", err)
	}

	var pid string
	err = pool.QueryRow(ctx, `
		INSERT INTO products (shop_id, key, name, price_cents, stock, discount_type, discount_amount_cents)
		VALUES ($1, 'p1', 'Prod 1', 1000, 4, 'percentage', 1500)
		RETURNING id::text
	`, shopID).Scan(&pid)
	if err != nil {
		t.Fatalf("insert product: %v", err)
	}
	if _, err := pool.Exec(ctx, `
		INSERT INTO product_variants (product_id, sku, quantity, color, size)
		VALUES ($1, 'P1-RED-S', 0, 'red', 'S'), ($1, 'P1-RED-M', 3, 'red', 'M')
	`, pid); err != nil {
		t.Fatalf("insert variants: %v", err)
	}

	repo := NewPostgres(pool, nil)

	list, err := repo.ListByShop(ctx, shopID)
	if err != nil {
		t.Fatalf("ListByShop: %v", err)
	}
	if len(list) != 1 || len(list[0].Variants) != 2 {
		t.Fatalf("expected 1 product with 2 variants, got %+v", list)
	}

	got, err := repo.GetByID(ctx, shopID, pid)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.ID != pid || got.ShopID != shopID || !got.Price.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("unexpected product %+v", got)
	}
	if got.Discount == nil || got.Discount.Type != domain.DiscountPercentage || !got.Discount.Amount.Equal(decimal.NewFromInt(15)) {
		t.Fatalf("unexpected discount %+v", got.Discount)
	}
	if !got.HasVariants() {
		t.Fatalf("expected variants")
	}

	var mediumID string
	for _, v := range got.Variants {
		if v.SKU == "P1-RED-M" {
			mediumID = v.ID
		}
	}
	v, err := repo.GetVariant(ctx, shopID, mediumID)
	if err != nil {
		t.Fatalf("GetVariant: %v", err)
	}
	if v.SKU != "P1-RED-M" || v.Quantity != 3 {
		t.Fatalf("unexpected variant %+v", v)
	}
}

func TestPostgres_Upsert(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	if _, err := migrate.Apply(ctx, pool, nil); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	resetTables(ctx, t, pool)

	var shopID string
	err := pool.QueryRow(ctx, `INSERT INTO shops (key, name) VALUES ('shop-key', 'Shop') RETURNING id::text`).Scan(&shopID)
	if err != nil {
		t.Fatalf("insert shop: %v", err)
	}

	repo := NewPostgres(pool, nil)

	p, err := repo.Upsert(ctx, domain.Product{
		ShopID: shopID,
		Key:    "p1",
		Name:   "Prod 1",
		Price:  decimal.NewFromInt(1),
		Stock:  2,
	})
	if err != nil {
		t.Fatalf("Upsert insert: %v", err)
	}
	if p.ID == "" {
		t.Fatalf("expected ID set")
	}

	sales := decimal.RequireFromString("1.50")
	updated, err := repo.Upsert(ctx, domain.Product{
		ShopID:     shopID,
		Key:        "p1",
		Name:       "Prod 1 updated",
		Price:      decimal.NewFromInt(2),
		SalesPrice: &sales,
	})
	if err != nil {
		t.Fatalf("Upsert update: %v", err)
	}
	if updated.ID != p.ID {
		t.Fatalf("expected same ID after update")
	}

	v, err := repo.UpsertVariant(ctx, domain.ProductVariant{ProductID: p.ID, SKU: "P1-BLUE", Quantity: 5, Color: "blue"})
	if err != nil {
		t.Fatalf("UpsertVariant: %v", err)
	}
	if v.ID == "" || v.Status != "active" {
		t.Fatalf("unexpected variant %+v", v)
	}

	got, err := repo.GetByID(ctx, shopID, p.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Name != "Prod 1 updated" || got.SalesPrice == nil || !got.SalesPrice.Equal(sales) || len(got.Variants) != 1 {
		t.Fatalf("unexpected updated product %+v", got)
	}
}

func testPool(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	return pool
}

func resetTables(ctx context.Context, t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	if _, err := pool.Exec(ctx, `TRUNCATE order_lines, orders, product_variants, products, shops RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}
