package wishlist_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashrafalve/ecommerce-store-go/internal/catalog"
	"github.com/ashrafalve/ecommerce-store-go/internal/storage/memory"
	"github.com/ashrafalve/ecommerce-store-go/internal/wishlist"
)

func newService(t *testing.T) (*memory.Store, *wishlist.Service) {
	t.Helper()
	store := memory.NewStore()
	store.SeedProduct(catalog.Product{
		ID: 1, Slug: "wireless-headphones", Name: "Wireless Headphones",
		Price: decimal.RequireFromString("199.99"), Stock: 10, Available: true,
	})
	store.SeedProduct(catalog.Product{
		ID: 2, Slug: "retired-lamp", Name: "Retired Lamp",
		Price: decimal.RequireFromString("15.00"), Stock: 5, Available: false,
	})
	return store, wishlist.NewService(store.Wishlist(), store.Catalog())
}

func TestToggleFlipsMembership(t *testing.T) {
	ctx := context.Background()
	_, svc := newService(t)

	added, err := svc.Toggle(ctx, 7, 1)
	require.NoError(t, err)
	assert.True(t, added)

	items, err := svc.List(ctx, 7)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Wireless Headphones", items[0].Name)

	added, err = svc.Toggle(ctx, 7, 1)
	require.NoError(t, err)
	assert.False(t, added)

	items, err = svc.List(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestToggleRejectsUnavailableProducts(t *testing.T) {
	ctx := context.Background()
	_, svc := newService(t)

	_, err := svc.Toggle(ctx, 7, 2)
	assert.ErrorIs(t, err, catalog.ErrNotFound)

	_, err = svc.Toggle(ctx, 7, 99)
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestListIsPerUser(t *testing.T) {
	ctx := context.Background()
	_, svc := newService(t)

	_, err := svc.Toggle(ctx, 7, 1)
	require.NoError(t, err)

	items, err := svc.List(ctx, 8)
	require.NoError(t, err)
	assert.Empty(t, items)
}
