// Package session owns the in-progress carts of the POS console. Each session
// holds one cart engine, its adjustment store and a variant resolver; the
// service serialises calls per session and persists finished carts as orders.
package session

import (
	"context"
	"errors"
	"sync"

	"shop-console/internal/adjustment"
	"shop-console/internal/cart"
	"shop-console/internal/domain"
	"shop-console/internal/pricing"
	"shop-console/internal/reconcile"
	"shop-console/internal/variant"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrInvalidAdjustment = errors.New("invalid item adjustment")
)

type catalog interface {
	Get(ctx context.Context, shopID, id string) (*domain.Product, error)
	Stock(ctx context.Context, shopID string, productIDs []string) (reconcile.StockView, error)
}

type orderStore interface {
	Create(ctx context.Context, order domain.PersistedOrder) (*domain.PersistedOrder, error)
	Replace(ctx context.Context, order domain.PersistedOrder) (*domain.PersistedOrder, error)
	GetByID(ctx context.Context, shopID, id string) (*domain.PersistedOrder, error)
}

type Option func(*Service)

// WithKeying selects how per-item adjustments are keyed for new sessions.
func WithKeying(k domain.AdjustmentKeying) Option {
	return func(s *Service) {
		if k == domain.KeyByLine {
			s.keying = k
		}
	}
}

func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

type Service struct {
	catalog catalog
	orders  orderStore
	logger  *zap.Logger
	keying  domain.AdjustmentKeying
	newID   func() string

	mu       sync.RWMutex
	sessions map[string]*Session
}

func New(catalog catalog, orders orderStore, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		catalog:  catalog,
		orders:   orders,
		logger:   logger,
		keying:   domain.KeyByProduct,
		newID:    uuid.NewString,
		sessions: map[string]*Session{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Session is one cart being built or one stored order being edited.
type Session struct {
	ID      string
	ShopID  string
	OrderID string

	mu       sync.Mutex
	engine   *cart.Engine
	store    *adjustment.Store
	resolver *variant.Resolver
	context  domain.OrderContext
	notes    []domain.Notification
	closed   bool
}

// View is the externally visible state of a session.
type View struct {
	ID            string                `json:"id"`
	ShopID        string                `json:"shopId"`
	OrderID       string                `json:"orderId,omitempty"`
	Lines         []domain.CartLine     `json:"lines"`
	Adjustments   domain.Adjustments    `json:"adjustments"`
	Totals        pricing.Totals        `json:"totals"`
	VariantState  string                `json:"variantState"`
	Pending       *domain.Product       `json:"pending,omitempty"`
	PendingQty    int                   `json:"pendingQuantity,omitempty"`
	Options       []variant.ColorGroup  `json:"options,omitempty"`
	Context       domain.OrderContext   `json:"context"`
	Notifications []domain.Notification `json:"notifications,omitempty"`
}

// ItemAdjustment sets any of the per-item overrides for one adjustment key.
type ItemAdjustment struct {
	Price      *decimal.Decimal     `json:"price,omitempty"`
	Discount   *domain.ItemDiscount `json:"discount,omitempty"`
	SalesPrice *decimal.Decimal     `json:"salesPrice,omitempty"`
}

func (s *Service) newSession(shopID string) *Session {
	sess := &Session{ID: s.newID(), ShopID: shopID}
	notifier := domain.NotifierFunc(func(n domain.Notification) {
		sess.notes = append(sess.notes, n)
	})
	sess.store = adjustment.NewStore(s.keying)
	sess.engine = cart.New(sess.store, cart.WithNotifier(notifier))
	sess.resolver = variant.NewResolver(sess.engine, notifier)
	return sess
}

func (s *Service) register(sess *Session) {
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
}

// Open starts an empty cart for a shop.
func (s *Service) Open(shopID string) *Session {
	sess := s.newSession(shopID)
	s.register(sess)
	s.logger.Info("session: opened", zap.String("session_id", sess.ID), zap.String("shop_id", shopID))
	return sess
}

func (s *Service) Get(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return sess, nil
}

// Discard drops a session and its cart state. Calls already waiting on the
// session fail with ErrNotFound.
func (s *Service) Discard(id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	s.mu.Unlock()
	if !ok {
		return domain.ErrNotFound
	}
	sess.mu.Lock()
	sess.closed = true
	sess.mu.Unlock()
	return nil
}

// close unregisters sess. The caller holds sess.mu.
func (s *Service) close(sess *Session) {
	sess.closed = true
	s.mu.Lock()
	if s.sessions[sess.ID] == sess {
		delete(s.sessions, sess.ID)
	}
	s.mu.Unlock()
}

func (s *Service) with(id string, fn func(*Session) error) error {
	sess, err := s.Get(id)
	if err != nil {
		return err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.closed {
		return domain.ErrNotFound
	}
	return fn(sess)
}

// View returns the session state and drains its pending notifications.
func (s *Service) View(id string) (*View, error) {
	var out *View
	err := s.with(id, func(sess *Session) error {
		out = sess.view()
		sess.notes = nil
		return nil
	})
	return out, err
}

func (sess *Session) view() *View {
	lines := sess.engine.Lines()
	adj := sess.store.Snapshot()
	v := &View{
		ID:            sess.ID,
		ShopID:        sess.ShopID,
		OrderID:       sess.OrderID,
		Lines:         lines,
		Adjustments:   adj,
		Totals:        pricing.Calculate(lines, adj).Rounded(),
		VariantState:  sess.resolver.State().String(),
		Options:       sess.resolver.Options(),
		Context:       sess.context,
		Notifications: append([]domain.Notification(nil), sess.notes...),
	}
	if p, ok := sess.resolver.Pending(); ok {
		v.Pending = &p
		v.PendingQty = sess.resolver.PendingQuantity()
	}
	return v
}

// AddProduct looks the product up in the catalog and adds it. With an
// explicit variant the line goes straight to the cart; a variant-bearing
// product without one waits in the resolver with the requested quantity.
func (s *Service) AddProduct(ctx context.Context, id, productID, variantID string, quantity int) error {
	if quantity < 0 {
		return cart.ErrInvalidQuantity
	}
	sess, err := s.Get(id)
	if err != nil {
		return err
	}
	product, err := s.catalog.Get(ctx, sess.ShopID, productID)
	if err != nil {
		return err
	}
	if quantity == 0 {
		quantity = 1
	}
	return s.with(id, func(sess *Session) error {
		if variantID != "" {
			v, ok := product.Variant(variantID)
			if !ok {
				return variant.ErrUnknownVariant
			}
			return sess.engine.AddLine(*product, v, quantity)
		}
		return sess.resolver.AddQuantity(*product, quantity)
	})
}

func (s *Service) SelectVariant(id, variantID string) error {
	return s.with(id, func(sess *Session) error {
		return sess.resolver.Select(variantID)
	})
}

func (s *Service) CancelVariant(id string) error {
	return s.with(id, func(sess *Session) error {
		sess.resolver.Cancel()
		return nil
	})
}

func (s *Service) ChangeQuantity(id, lineID string, delta int) error {
	return s.with(id, func(sess *Session) error {
		return sess.engine.ChangeQuantity(lineID, delta)
	})
}

func (s *Service) SetQuantity(id, lineID string, quantity int) error {
	return s.with(id, func(sess *Session) error {
		return sess.engine.SetQuantity(lineID, quantity)
	})
}

func (s *Service) RemoveLine(id, lineID string) error {
	return s.with(id, func(sess *Session) error {
		if _, ok := sess.engine.Line(lineID); !ok {
			return domain.ErrNotFound
		}
		sess.engine.RemoveLine(lineID)
		return nil
	})
}

func (s *Service) SetTax(id string, c domain.Charge) error {
	return s.with(id, func(sess *Session) error {
		return sess.store.SetTax(c)
	})
}

func (s *Service) SetDiscount(id string, c domain.Charge) error {
	return s.with(id, func(sess *Session) error {
		return sess.store.SetDiscount(c)
	})
}

// SetItemAdjustment applies the non-nil overrides in one step; nothing is
// applied when any of them is invalid.
func (s *Service) SetItemAdjustment(id, key string, in ItemAdjustment) error {
	if err := validateItemAdjustment(key, in); err != nil {
		return err
	}
	return s.with(id, func(sess *Session) error {
		if in.Price != nil {
			sess.store.SetPrice(key, *in.Price)
		}
		if in.Discount != nil {
			sess.store.SetItemDiscount(key, *in.Discount)
		}
		if in.SalesPrice != nil {
			sess.store.SetSalesPrice(key, *in.SalesPrice)
		}
		return nil
	})
}

// ClearItemAdjustment removes every override stored under key.
func (s *Service) ClearItemAdjustment(id, key string) error {
	return s.with(id, func(sess *Session) error {
		sess.store.ClearPrice(key)
		sess.store.ClearItemDiscount(key)
		sess.store.ClearSalesPrice(key)
		return nil
	})
}

func validateItemAdjustment(key string, in ItemAdjustment) error {
	if key == "" {
		return ErrInvalidAdjustment
	}
	if in.Price != nil && in.Price.IsNegative() {
		return ErrInvalidAdjustment
	}
	if in.SalesPrice != nil && in.SalesPrice.IsNegative() {
		return ErrInvalidAdjustment
	}
	if d := in.Discount; d != nil {
		if d.Value.IsNegative() {
			return ErrInvalidAdjustment
		}
		switch d.Type {
		case domain.DiscountAmount:
		case domain.DiscountPercentage:
			if d.Value.GreaterThan(decimal.NewFromInt(100)) {
				return ErrInvalidAdjustment
			}
		default:
			return ErrInvalidAdjustment
		}
	}
	return nil
}

// SetContext replaces the order metadata (customer, payment, table, guests).
func (s *Service) SetContext(id string, oc domain.OrderContext) error {
	return s.with(id, func(sess *Session) error {
		sess.context = oc
		return nil
	})
}

// Totals runs the pricing calculator over the session's cart.
func (s *Service) Totals(id string) (pricing.Totals, error) {
	var out pricing.Totals
	err := s.with(id, func(sess *Session) error {
		out = pricing.Calculate(sess.engine.Lines(), sess.store.Snapshot())
		return nil
	})
	return out, err
}
