package order

import (
	"context"
	"errors"

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

// Create stores a new order and its lines in one transaction.
func (r *postgresRepo) Create(ctx context.Context, order domain.PersistedOrder) (*domain.PersistedOrder, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	const q = `
INSERT INTO orders (shop_id, subtotal_cents, tax_cents, discount_cents, total_cents, customer,
                    payment_method, wallet_cents, card_cents, cash_cents, table_ref, guests)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
RETURNING id::text
`
	c := order.Context
	var orderID string
	if err := tx.QueryRow(ctx, q,
		order.ShopID,
		db.ToCents(order.Subtotal),
		db.ToCents(order.TaxAmount),
		db.ToCents(order.DiscountAmount),
		db.ToCents(order.Total),
		c.Customer,
		c.Payment.Method,
		db.ToCents(c.Payment.Wallet),
		db.ToCents(c.Payment.Card),
		db.ToCents(c.Payment.Cash),
		c.Table,
		c.Guests,
	).Scan(&orderID); err != nil {
		r.logger.Error("order repo: insert", zap.String("shop_id", order.ShopID), zap.Error(err))
		return nil, err
	}

	if err := insertLines(ctx, tx, orderID, order.Lines); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	r.logger.Info("order repo: created", zap.String("shop_id", order.ShopID), zap.String("id", orderID), zap.Int("lines", len(order.Lines)))
	return r.GetByID(ctx, order.ShopID, orderID)
}

// Replace overwrites the totals, context and lines of an existing order.
func (r *postgresRepo) Replace(ctx context.Context, order domain.PersistedOrder) (*domain.PersistedOrder, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	const q = `
UPDATE orders
SET subtotal_cents = $3, tax_cents = $4, discount_cents = $5, total_cents = $6, customer = $7,
    payment_method = $8, wallet_cents = $9, card_cents = $10, cash_cents = $11, table_ref = $12, guests = $13,
    updated_at = now()
WHERE shop_id = $1 AND id = $2
`
	c := order.Context
	cmd, err := tx.Exec(ctx, q,
		order.ShopID,
		order.ID,
		db.ToCents(order.Subtotal),
		db.ToCents(order.TaxAmount),
		db.ToCents(order.DiscountAmount),
		db.ToCents(order.Total),
		c.Customer,
		c.Payment.Method,
		db.ToCents(c.Payment.Wallet),
		db.ToCents(c.Payment.Card),
		db.ToCents(c.Payment.Cash),
		c.Table,
		c.Guests,
	)
	if err != nil {
		r.logger.Error("order repo: update", zap.String("id", order.ID), zap.Error(err))
		return nil, err
	}
	if cmd.RowsAffected() == 0 {
		return nil, domain.ErrNotFound
	}
	if _, err := tx.Exec(ctx, `DELETE FROM order_lines WHERE order_id = $1`, order.ID); err != nil {
		return nil, err
	}
	if err := insertLines(ctx, tx, order.ID, order.Lines); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	r.logger.Info("order repo: replaced", zap.String("shop_id", order.ShopID), zap.String("id", order.ID), zap.Int("lines", len(order.Lines)))
	return r.GetByID(ctx, order.ShopID, order.ID)
}

func insertLines(ctx context.Context, tx pgx.Tx, orderID string, lines []domain.PersistedOrderLine) error {
	const q = `
INSERT INTO order_lines (order_id, position, product_id, variant_id, name, quantity, unit_price_cents,
                         unit_discount_cents, discount_type, original_unit_price_cents, purchase_price_cents, subtotal_cents)
VALUES ($1, $2, $3, NULLIF($4, '')::uuid, $5, $6, $7, $8, $9, $10, $11, $12)
`
	for i, l := range lines {
		var discountType *string
		if l.DiscountType != nil {
			t := string(*l.DiscountType)
			discountType = &t
		}
		if _, err := tx.Exec(ctx, q,
			orderID,
			i,
			l.ProductID,
			l.VariantID,
			l.Name,
			l.Quantity,
			db.ToCentsPtr(l.UnitPrice),
			db.ToCentsPtr(l.UnitDiscount),
			discountType,
			db.ToCentsPtr(l.OriginalUnitPrice),
			db.ToCentsPtr(l.PurchasePrice),
			db.ToCentsPtr(l.Subtotal),
		); err != nil {
			return err
		}
	}
	return nil
}

func (r *postgresRepo) GetByID(ctx context.Context, shopID, id string) (*domain.PersistedOrder, error) {
	const q = `
SELECT id::text, shop_id::text, subtotal_cents, tax_cents, discount_cents, total_cents, customer,
       payment_method, wallet_cents, card_cents, cash_cents, table_ref, guests, created_at, updated_at
FROM orders
WHERE shop_id = $1 AND id = $2
`
	var (
		o                              domain.PersistedOrder
		subtotal, tax, discount, total int64
		wallet, card, cash             int64
	)
	err := r.pool.QueryRow(ctx, q, shopID, id).Scan(
		&o.ID,
		&o.ShopID,
		&subtotal,
		&tax,
		&discount,
		&total,
		&o.Context.Customer,
		&o.Context.Payment.Method,
		&wallet,
		&card,
		&cash,
		&o.Context.Table,
		&o.Context.Guests,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("order repo: get", zap.String("shop_id", shopID), zap.String("id", id), zap.Error(err))
		return nil, err
	}
	o.Subtotal = db.FromCents(subtotal)
	o.TaxAmount = db.FromCents(tax)
	o.DiscountAmount = db.FromCents(discount)
	o.Total = db.FromCents(total)
	o.Context.Payment.Wallet = db.FromCents(wallet)
	o.Context.Payment.Card = db.FromCents(card)
	o.Context.Payment.Cash = db.FromCents(cash)

	const linesQuery = `
SELECT product_id::text, COALESCE(variant_id::text, ''), name, quantity, unit_price_cents, unit_discount_cents,
       discount_type, original_unit_price_cents, purchase_price_cents, subtotal_cents
FROM order_lines
WHERE order_id = $1
ORDER BY position ASC
`
	rows, err := r.pool.Query(ctx, linesQuery, o.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			line                                    domain.PersistedOrderLine
			unitPrice, unitDiscount, original, cost *int64
			lineSubtotal                            *int64
			discountType                            *string
		)
		if err := rows.Scan(
			&line.ProductID,
			&line.VariantID,
			&line.Name,
			&line.Quantity,
			&unitPrice,
			&unitDiscount,
			&discountType,
			&original,
			&cost,
			&lineSubtotal,
		); err != nil {
			return nil, err
		}
		line.UnitPrice = db.FromCentsPtr(unitPrice)
		line.UnitDiscount = db.FromCentsPtr(unitDiscount)
		line.OriginalUnitPrice = db.FromCentsPtr(original)
		line.PurchasePrice = db.FromCentsPtr(cost)
		line.Subtotal = db.FromCentsPtr(lineSubtotal)
		if discountType != nil {
			t := domain.DiscountType(*discountType)
			line.DiscountType = &t
		}
		o.Lines = append(o.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &o, nil
}
