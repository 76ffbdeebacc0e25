package product

import (
	"context"
	"errors"
	"sync"

	"shop-console/internal/domain"
	"shop-console/internal/reconcile"
	productrepo "shop-console/internal/repository/product"

	"golang.org/x/sync/errgroup"
)

const stockFetchLimit = 8

type Service struct {
	repo productrepo.Repository
}

func New(repo productrepo.Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, shopID string) ([]domain.Product, error) {
	return s.repo.ListByShop(ctx, shopID)
}

func (s *Service) Get(ctx context.Context, shopID, id string) (*domain.Product, error) {
	return s.repo.GetByID(ctx, shopID, id)
}

// Stock loads current stock for the given products, fetching them
// concurrently. Products that no longer exist report zero.
func (s *Service) Stock(ctx context.Context, shopID string, productIDs []string) (reconcile.StockView, error) {
	var (
		mu       sync.Mutex
		products = make(map[string]*domain.Product, len(productIDs))
		seen     = make(map[string]struct{}, len(productIDs))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(stockFetchLimit)
	for _, id := range productIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		id := id
		g.Go(func() error {
			p, err := s.repo.GetByID(gctx, shopID, id)
			if err != nil && !errors.Is(err, domain.ErrNotFound) {
				return err
			}
			mu.Lock()
			products[id] = p
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return reconcile.StockFunc(func(productID, variantID string) int {
		p := products[productID]
		if p == nil {
			return 0
		}
		if variantID == "" {
			return p.Stock
		}
		if v, ok := p.Variant(variantID); ok {
			return v.Quantity
		}
		return 0
	}), nil
}
