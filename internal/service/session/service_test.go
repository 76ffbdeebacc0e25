package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"shop-console/internal/domain"
	"shop-console/internal/reconcile"
	"shop-console/internal/variant"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type stubCatalog struct {
	products map[string]domain.Product
}

func (c *stubCatalog) Get(ctx context.Context, shopID, id string) (*domain.Product, error) {
	p, ok := c.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (c *stubCatalog) Stock(ctx context.Context, shopID string, productIDs []string) (reconcile.StockView, error) {
	return reconcile.StockFunc(func(productID, variantID string) int {
		p, ok := c.products[productID]
		if !ok {
			return 0
		}
		if v, ok := p.Variant(variantID); ok {
			return v.Quantity
		}
		return p.Stock
	}), nil
}

type stubOrders struct {
	mu       sync.Mutex
	orders   map[string]domain.PersistedOrder
	created  int
	replaced int
	err      error
	delay    time.Duration
}

func (o *stubOrders) Create(ctx context.Context, order domain.PersistedOrder) (*domain.PersistedOrder, error) {
	if o.delay > 0 {
		time.Sleep(o.delay)
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err != nil {
		return nil, o.err
	}
	o.created++
	order.ID = fmt.Sprintf("o-%d", o.created)
	o.orders[order.ID] = order
	return &order, nil
}

func (o *stubOrders) Replace(ctx context.Context, order domain.PersistedOrder) (*domain.PersistedOrder, error) {
	if _, ok := o.orders[order.ID]; !ok {
		return nil, domain.ErrNotFound
	}
	o.replaced++
	o.orders[order.ID] = order
	return &order, nil
}

func (o *stubOrders) GetByID(ctx context.Context, shopID, id string) (*domain.PersistedOrder, error) {
	order, ok := o.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &order, nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestService(t *testing.T, opts ...Option) (*Service, *stubOrders, *observer.ObservedLogs) {
	t.Helper()
	cat := &stubCatalog{products: map[string]domain.Product{
		"A": {ID: "A", Name: "Apron", Price: dec("20"), Stock: 5},
		"B": {
			ID:    "B",
			Name:  "Blouse",
			Price: dec("35"),
			Variants: []domain.ProductVariant{
				{ID: "red-s", ProductID: "B", Color: "red", Size: "S", Quantity: 0},
				{ID: "red-m", ProductID: "B", Color: "red", Size: "M", Quantity: 3},
				{ID: "blue-m", ProductID: "B", Color: "blue", Size: "M", Quantity: 1},
			},
		},
	}}
	orders := &stubOrders{orders: map[string]domain.PersistedOrder{}}
	core, logs := observer.New(zap.InfoLevel)
	n := 0
	opts = append([]Option{WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("s-%d", n)
	})}, opts...)
	return New(cat, orders, zap.New(core), opts...), orders, logs
}

func TestAddProductWithoutVariants(t *testing.T) {
	svc, _, _ := newTestService(t)
	sess := svc.Open("shop")
	assert.Equal(t, "s-1", sess.ID)

	require.NoError(t, svc.AddProduct(context.Background(), sess.ID, "A", "", 0))
	require.NoError(t, svc.AddProduct(context.Background(), sess.ID, "A", "", 2))

	view, err := svc.View(sess.ID)
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, 3, view.Lines[0].Quantity)
	assert.True(t, view.Totals.Subtotal.Equal(dec("60")))
	assert.Equal(t, "idle", view.VariantState)
}

func TestAddProductWithVariantsWaitsForSelection(t *testing.T) {
	svc, _, _ := newTestService(t)
	sess := svc.Open("shop")

	require.NoError(t, svc.AddProduct(context.Background(), sess.ID, "B", "", 1))

	view, err := svc.View(sess.ID)
	require.NoError(t, err)
	assert.Empty(t, view.Lines)
	assert.Equal(t, "awaiting_selection", view.VariantState)
	require.NotNil(t, view.Pending)
	require.Len(t, view.Options, 2)
	assert.Equal(t, "red", view.Options[0].Color)
	assert.False(t, view.Options[0].Options[0].Selectable)
	require.Len(t, view.Notifications, 1)
	assert.Equal(t, domain.NotifyVariantRequired, view.Notifications[0].Kind)

	assert.ErrorIs(t, svc.SelectVariant(sess.ID, "red-s"), variant.ErrVariantUnavailable)
	require.NoError(t, svc.SelectVariant(sess.ID, "red-m"))

	view, err = svc.View(sess.ID)
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, "B-red-m", view.Lines[0].LineID)
	assert.Equal(t, "idle", view.VariantState)
	assert.Empty(t, view.Notifications, "notifications are drained by View")
}

func TestAddProductExplicitVariant(t *testing.T) {
	svc, _, _ := newTestService(t)
	sess := svc.Open("shop")
	ctx := context.Background()

	require.NoError(t, svc.AddProduct(ctx, sess.ID, "B", "blue-m", 1))
	assert.ErrorIs(t, svc.AddProduct(ctx, sess.ID, "B", "nope", 1), variant.ErrUnknownVariant)
	assert.ErrorIs(t, svc.AddProduct(ctx, sess.ID, "missing", "", 1), domain.ErrNotFound)

	err := svc.AddProduct(ctx, sess.ID, "B", "blue-m", 1)
	assert.ErrorIs(t, err, domain.ErrStockLimitExceeded)

	view, err := svc.View(sess.ID)
	require.NoError(t, err)
	require.Len(t, view.Notifications, 1)
	assert.Equal(t, domain.NotifyStockLimit, view.Notifications[0].Kind)
}

func TestCancelVariantLeavesCartUntouched(t *testing.T) {
	svc, _, _ := newTestService(t)
	sess := svc.Open("shop")

	require.NoError(t, svc.AddProduct(context.Background(), sess.ID, "B", "", 1))
	require.NoError(t, svc.CancelVariant(sess.ID))
	assert.ErrorIs(t, svc.SelectVariant(sess.ID, "red-m"), variant.ErrNothingPending)

	totals, err := svc.Totals(sess.ID)
	require.NoError(t, err)
	assert.Empty(t, totals.Lines)
}

func TestQuantityOperations(t *testing.T) {
	svc, _, _ := newTestService(t)
	sess := svc.Open("shop")
	require.NoError(t, svc.AddProduct(context.Background(), sess.ID, "A", "", 2))

	require.NoError(t, svc.ChangeQuantity(sess.ID, "A-default", 1))
	assert.ErrorIs(t, svc.SetQuantity(sess.ID, "A-default", 6), domain.ErrStockLimitExceeded)
	require.NoError(t, svc.SetQuantity(sess.ID, "A-default", 5))

	totals, err := svc.Totals(sess.ID)
	require.NoError(t, err)
	assert.True(t, totals.Subtotal.Equal(dec("100")))

	require.NoError(t, svc.RemoveLine(sess.ID, "A-default"))
	assert.ErrorIs(t, svc.RemoveLine(sess.ID, "A-default"), domain.ErrNotFound)
}

func TestChargesAndItemAdjustments(t *testing.T) {
	svc, _, _ := newTestService(t)
	sess := svc.Open("shop")
	require.NoError(t, svc.AddProduct(context.Background(), sess.ID, "A", "", 2))

	require.NoError(t, svc.SetTax(sess.ID, domain.Charge{Type: domain.ChargePercentage, Value: dec("10")}))
	require.NoError(t, svc.SetDiscount(sess.ID, domain.Charge{Type: domain.ChargeFixed, Value: dec("5")}))
	price := dec("18")
	require.NoError(t, svc.SetItemAdjustment(sess.ID, "A", ItemAdjustment{Price: &price}))

	totals, err := svc.Totals(sess.ID)
	require.NoError(t, err)
	assert.True(t, totals.Subtotal.Equal(dec("36")))
	assert.True(t, totals.TaxAmount.Equal(dec("3.6")))
	assert.True(t, totals.Total.Equal(dec("34.6")))

	neg := dec("-1")
	assert.ErrorIs(t, svc.SetItemAdjustment(sess.ID, "A", ItemAdjustment{Price: &neg}), ErrInvalidAdjustment)
	assert.ErrorIs(t, svc.SetItemAdjustment(sess.ID, "", ItemAdjustment{Price: &price}), ErrInvalidAdjustment)
	assert.ErrorIs(t, svc.SetItemAdjustment(sess.ID, "A", ItemAdjustment{
		Discount: &domain.ItemDiscount{Type: domain.DiscountPercentage, Value: dec("120")},
	}), ErrInvalidAdjustment)

	require.NoError(t, svc.ClearItemAdjustment(sess.ID, "A"))
	totals, err = svc.Totals(sess.ID)
	require.NoError(t, err)
	assert.True(t, totals.Subtotal.Equal(dec("40")))
}

func TestUnknownSession(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.View("nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, svc.AddProduct(context.Background(), "nope", "A", "", 1), domain.ErrNotFound)
	assert.ErrorIs(t, svc.Discard("nope"), domain.ErrNotFound)
}

func TestSubmitEmptyCart(t *testing.T) {
	svc, orders, _ := newTestService(t)
	sess := svc.Open("shop")

	_, err := svc.Submit(context.Background(), sess.ID, nil, nil)
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Zero(t, orders.created)

	_, err = svc.Get(sess.ID)
	assert.NoError(t, err, "session stays open")
}

func TestSubmitFailureKeepsSession(t *testing.T) {
	svc, orders, logs := newTestService(t)
	orders.err = errors.New("db down")
	sess := svc.Open("shop")
	require.NoError(t, svc.AddProduct(context.Background(), sess.ID, "A", "", 1))

	_, err := svc.Submit(context.Background(), sess.ID, nil, nil)
	require.Error(t, err)
	_, err = svc.Get(sess.ID)
	assert.NoError(t, err)
	assert.Equal(t, 1, logs.FilterMessage("session: submit").Len())
}

func TestSubmitThenEditReproducesTotals(t *testing.T) {
	svc, orders, logs := newTestService(t)
	ctx := context.Background()
	sess := svc.Open("shop")

	require.NoError(t, svc.AddProduct(ctx, sess.ID, "A", "", 2))
	require.NoError(t, svc.AddProduct(ctx, sess.ID, "B", "red-m", 1))
	require.NoError(t, svc.SetTax(sess.ID, domain.Charge{Type: domain.ChargePercentage, Value: dec("10")}))
	price := dec("18")
	require.NoError(t, svc.SetItemAdjustment(sess.ID, "A", ItemAdjustment{Price: &price}))
	require.NoError(t, svc.SetContext(sess.ID, domain.OrderContext{Table: "T4", Guests: 3}))

	order, err := svc.Submit(ctx, sess.ID, &domain.CustomerInfo{Name: "Dana"}, &domain.PaymentInfo{Method: "card", Card: dec("78.10")})
	require.NoError(t, err)
	assert.Equal(t, "o-1", order.ID)
	assert.True(t, order.Subtotal.Equal(dec("71")))
	assert.True(t, order.TaxAmount.Equal(dec("7.1")))
	assert.True(t, order.Total.Equal(dec("78.1")))
	assert.Equal(t, "T4", order.Context.Table)
	assert.Equal(t, "Dana", order.Context.Customer.Name)

	require.Len(t, order.Lines, 2)
	apron := order.Lines[0]
	assert.True(t, apron.UnitPrice.Equal(dec("18")))
	assert.True(t, apron.UnitDiscount.Equal(dec("2")))
	assert.Equal(t, domain.DiscountAmount, *apron.DiscountType)
	assert.Nil(t, order.Lines[1].DiscountType)

	_, err = svc.Get(sess.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound, "submitted session is discarded")

	edit, err := svc.EditOrder(ctx, "shop", order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, edit.OrderID)
	assert.Zero(t, logs.FilterMessage("session: reconciliation drift").Len())

	view, err := svc.View(edit.ID)
	require.NoError(t, err)
	assert.True(t, view.Totals.Subtotal.Equal(order.Subtotal))
	assert.True(t, view.Totals.Total.Equal(order.Total))
	assert.Equal(t, "T4", view.Context.Table)
	assert.True(t, view.Lines[0].UnitPrice.Equal(dec("20")))
	assert.Equal(t, 7, view.Lines[0].AvailableStock, "current stock plus ordered units")

	require.NoError(t, svc.ChangeQuantity(edit.ID, "A-default", -1))
	replaced, err := svc.Submit(ctx, edit.ID, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, order.ID, replaced.ID)
	assert.Equal(t, 1, orders.replaced)
	assert.True(t, replaced.Subtotal.Equal(dec("53")))
	assert.Equal(t, "Dana", replaced.Context.Customer.Name)
}

func TestEditOrderLogsDrift(t *testing.T) {
	svc, orders, logs := newTestService(t)
	unit := dec("45")
	orders.orders["o-9"] = domain.PersistedOrder{
		ID: "o-9",
		Lines: []domain.PersistedOrderLine{{
			ProductID: "A",
			Quantity:  2,
			UnitPrice: &unit,
		}},
		Subtotal: dec("90"),
		Total:    dec("95"),
	}

	sess, err := svc.EditOrder(context.Background(), "shop", "o-9")
	require.NoError(t, err)
	assert.Equal(t, "o-9", sess.OrderID)

	drift := logs.FilterMessage("session: reconciliation drift").All()
	require.Len(t, drift, 1)
	assert.Equal(t, "total", drift[0].ContextMap()["field"])

	_, err = svc.EditOrder(context.Background(), "shop", "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestKeyByLineSeparatesVariants(t *testing.T) {
	svc, _, _ := newTestService(t, WithKeying(domain.KeyByLine))
	ctx := context.Background()
	sess := svc.Open("shop")

	require.NoError(t, svc.AddProduct(ctx, sess.ID, "B", "red-m", 1))
	require.NoError(t, svc.AddProduct(ctx, sess.ID, "B", "blue-m", 1))
	price := dec("30")
	require.NoError(t, svc.SetItemAdjustment(sess.ID, "B-red-m", ItemAdjustment{Price: &price}))

	totals, err := svc.Totals(sess.ID)
	require.NoError(t, err)
	assert.True(t, totals.Subtotal.Equal(dec("65")))
}

func TestAddProductWithVariantsKeepsQuantity(t *testing.T) {
	svc, _, _ := newTestService(t)
	sess := svc.Open("shop")
	ctx := context.Background()

	require.NoError(t, svc.AddProduct(ctx, sess.ID, "B", "", 2))
	view, err := svc.View(sess.ID)
	require.NoError(t, err)
	assert.Empty(t, view.Lines)
	assert.Equal(t, 2, view.PendingQty)

	require.NoError(t, svc.SelectVariant(sess.ID, "red-m"))
	view, err = svc.View(sess.ID)
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, 2, view.Lines[0].Quantity)
	assert.True(t, view.Totals.Subtotal.Equal(dec("70")))
}

func TestConcurrentSubmitCreatesOneOrder(t *testing.T) {
	svc, orders, _ := newTestService(t)
	orders.delay = 50 * time.Millisecond
	sess := svc.Open("shop")
	require.NoError(t, svc.AddProduct(context.Background(), sess.ID, "A", "", 1))

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Submit(context.Background(), sess.ID, nil, nil)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, orders.created)
	var ok, gone int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrNotFound):
			gone++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, gone)

	_, err := svc.Get(sess.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, svc.Discard(sess.ID), domain.ErrNotFound)
}

func TestDiscardClosesHeldSession(t *testing.T) {
	svc, _, _ := newTestService(t)
	sess := svc.Open("shop")
	held, err := svc.Get(sess.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Discard(sess.ID))
	assert.True(t, held.closed)
	assert.ErrorIs(t, svc.SetContext(sess.ID, domain.OrderContext{}), domain.ErrNotFound)
}
