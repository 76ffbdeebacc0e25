package session

import (
	"context"
	"errors"

	"shop-console/internal/domain"
	"shop-console/internal/pricing"
	"shop-console/internal/reconcile"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// EditOrder opens a session rebuilt from a stored order. Totals that cannot
// be reproduced are logged; the session is still returned so the order can be
// corrected.
func (s *Service) EditOrder(ctx context.Context, shopID, orderID string) (*Session, error) {
	order, err := s.orders.GetByID(ctx, shopID, orderID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(order.Lines))
	for _, l := range order.Lines {
		ids = append(ids, l.ProductID)
	}
	stock, err := s.catalog.Stock(ctx, shopID, ids)
	if err != nil {
		return nil, err
	}
	res, err := reconcile.Adapt(*order, stock, s.keying)
	if err != nil {
		return nil, err
	}

	sess := s.newSession(shopID)
	sess.OrderID = order.ID
	if err := sess.engine.Restore(res.Lines); err != nil {
		return nil, err
	}
	sess.store.Load(res.Adjustments)
	sess.context = res.Context

	totals := pricing.Calculate(sess.engine.Lines(), sess.store.Snapshot())
	if err := reconcile.Verify(*order, totals); err != nil {
		var rerr *domain.ReconciliationError
		if errors.As(err, &rerr) {
			s.logger.Warn("session: reconciliation drift",
				zap.String("order_id", rerr.OrderID),
				zap.String("field", rerr.Field),
				zap.String("stored", rerr.Stored.StringFixed(2)),
				zap.String("computed", rerr.Computed.StringFixed(2)),
			)
		}
	}

	s.register(sess)
	s.logger.Info("session: editing order", zap.String("session_id", sess.ID), zap.String("order_id", order.ID))
	return sess, nil
}

// Submit persists the cart as an order, creating a new one or replacing the
// order the session was opened from, and closes the session while still
// holding it, so a concurrent Submit of the same session gets ErrNotFound. Nil customer or
// payment keeps what the session already carries.
func (s *Service) Submit(ctx context.Context, id string, customer *domain.CustomerInfo, payment *domain.PaymentInfo) (*domain.PersistedOrder, error) {
	var saved *domain.PersistedOrder
	err := s.with(id, func(sess *Session) error {
		lines := sess.engine.Lines()
		if len(lines) == 0 {
			return ErrEmptyCart
		}
		if customer != nil {
			sess.context.Customer = *customer
		}
		if payment != nil {
			sess.context.Payment = *payment
		}
		adj := sess.store.Snapshot()
		totals := pricing.Calculate(lines, adj).Rounded()
		order := domain.PersistedOrder{
			ID:             sess.OrderID,
			ShopID:         sess.ShopID,
			Lines:          orderLines(lines, totals),
			Subtotal:       totals.Subtotal,
			TaxAmount:      totals.TaxAmount,
			DiscountAmount: totals.DiscountAmount,
			Total:          totals.Total,
			Context:        sess.context,
		}

		var err error
		if sess.OrderID != "" {
			saved, err = s.orders.Replace(ctx, order)
		} else {
			saved, err = s.orders.Create(ctx, order)
		}
		if err != nil {
			s.logger.Error("session: submit", zap.String("session_id", sess.ID), zap.Error(err))
			return err
		}
		s.close(sess)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("session: order submitted",
		zap.String("session_id", id),
		zap.String("order_id", saved.ID),
		zap.String("total", saved.Total.StringFixed(2)),
	)
	return saved, nil
}

// orderLines stores the charged unit price and the per-unit amount taken off
// the line's original price, which is the shape reconcile.Adapt reads back.
func orderLines(lines []domain.CartLine, totals pricing.Totals) []domain.PersistedOrderLine {
	out := make([]domain.PersistedOrderLine, 0, len(lines))
	for i, line := range lines {
		lt := totals.Lines[i]
		price := lt.EffectiveUnitPrice
		original := line.UnitPrice
		if line.OriginalUnitPrice != nil {
			original = *line.OriginalUnitPrice
		}
		discount := original.Sub(price)
		if discount.IsNegative() {
			discount = decimal.Zero
		}
		subtotal := lt.Amount

		pl := domain.PersistedOrderLine{
			ProductID:         line.ProductID,
			VariantID:         line.VariantID,
			Name:              line.Name,
			Quantity:          line.Quantity,
			UnitPrice:         &price,
			UnitDiscount:      &discount,
			OriginalUnitPrice: &original,
			PurchasePrice:     line.PurchasePrice,
			Subtotal:          &subtotal,
		}
		if discount.IsPositive() {
			kind := domain.DiscountAmount
			pl.DiscountType = &kind
		}
		out = append(out, pl)
	}
	return out
}
