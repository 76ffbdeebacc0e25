package seed

import (
	"context"
	"errors"
	"testing"

	"shop-console/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memShops struct{}

func (memShops) Create(_ context.Context, s *domain.Shop) (*domain.Shop, error) {
	out := *s
	out.ID = "shop-1"
	return &out, nil
}

type memProducts struct {
	products []domain.Product
	variants []domain.ProductVariant
	err      error
}

func (m *memProducts) Upsert(_ context.Context, p domain.Product) (*domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	p.ID = "p-" + p.Key
	m.products = append(m.products, p)
	return &p, nil
}

func (m *memProducts) UpsertVariant(_ context.Context, v domain.ProductVariant) (*domain.ProductVariant, error) {
	m.variants = append(m.variants, v)
	return &v, nil
}

func TestApply(t *testing.T) {
	products := &memProducts{}
	shop, err := Apply(context.Background(), memShops{}, products)
	require.NoError(t, err)
	assert.Equal(t, DemoShopKey, shop.Key)

	require.Len(t, products.products, 3)
	for _, p := range products.products {
		assert.Equal(t, "shop-1", p.ShopID)
	}
	require.Len(t, products.variants, 3)
	assert.Equal(t, "p-demo-blouse", products.variants[0].ProductID)
	assert.Zero(t, products.variants[0].Quantity, "an out-of-stock variant is part of the demo")
}

func TestApplyPropagatesErrors(t *testing.T) {
	_, err := Apply(context.Background(), memShops{}, &memProducts{err: errors.New("boom")})
	assert.ErrorContains(t, err, "demo-apron")
}
