package cart_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashrafalve/ecommerce-store-go/internal/cart"
	"github.com/ashrafalve/ecommerce-store-go/internal/catalog"
	"github.com/ashrafalve/ecommerce-store-go/internal/session"
	"github.com/ashrafalve/ecommerce-store-go/internal/storage/memory"
)

func newEnv(t *testing.T) (*memory.Store, *cart.Service, *session.Session) {
	t.Helper()
	store := memory.NewStore()
	store.SeedProduct(catalog.Product{
		ID: 1, Slug: "wireless-headphones", Name: "Wireless Headphones",
		Price: decimal.RequireFromString("199.99"), Stock: 10, Available: true,
	})
	store.SeedProduct(catalog.Product{
		ID: 2, Slug: "classic-tshirt", Name: "Classic T-Shirt",
		Price: decimal.RequireFromString("29.99"), Stock: 50, Available: true,
	})
	return store, cart.NewService(store.Catalog()), session.New(store.Sessions())
}

func TestAddSnapshotsAndIncrements(t *testing.T) {
	ctx := context.Background()
	store, svc, sess := newEnv(t)

	entry, err := svc.Add(ctx, sess, "classic-tshirt", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, entry.Quantity)
	assert.Equal(t, "29.99", entry.Price.String())

	// A later price change must not touch the snapshot.
	store.SeedProduct(catalog.Product{
		ID: 2, Slug: "classic-tshirt", Name: "Classic T-Shirt",
		Price: decimal.RequireFromString("39.99"), Stock: 50, Available: true,
	})

	entry, err = svc.Add(ctx, sess, "classic-tshirt", 1)
	require.NoError(t, err)
	assert.Equal(t, 3, entry.Quantity)
	assert.Equal(t, "29.99", entry.Price.String())
}

func TestAddUnknownOrUnavailable(t *testing.T) {
	ctx := context.Background()
	store, svc, sess := newEnv(t)

	_, err := svc.Add(ctx, sess, "no-such-product", 1)
	assert.ErrorIs(t, err, catalog.ErrNotFound)

	store.SeedProduct(catalog.Product{
		ID: 3, Slug: "retired-lamp", Name: "Retired Lamp",
		Price: decimal.RequireFromString("15.00"), Stock: 5, Available: false,
	})
	_, err = svc.Add(ctx, sess, "retired-lamp", 1)
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestSetQuantityZeroEqualsRemove(t *testing.T) {
	ctx := context.Background()
	_, svc, sess := newEnv(t)

	_, err := svc.Add(ctx, sess, "classic-tshirt", 2)
	require.NoError(t, err)

	require.NoError(t, svc.SetQuantity(ctx, sess, 2, 0))
	assert.Empty(t, svc.Get(sess))

	// Remove behaves identically, including on an already absent entry.
	require.NoError(t, svc.Remove(ctx, sess, 2))
}

func TestSetQuantityChecksLiveStock(t *testing.T) {
	ctx := context.Background()
	_, svc, sess := newEnv(t)

	_, err := svc.Add(ctx, sess, "wireless-headphones", 1)
	require.NoError(t, err)

	err = svc.SetQuantity(ctx, sess, 1, 11)
	var stockErr *cart.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "Wireless Headphones", stockErr.Product)
	assert.Equal(t, 10, stockErr.Available)

	require.NoError(t, svc.SetQuantity(ctx, sess, 1, 10))
	c := svc.Get(sess)
	assert.Equal(t, 10, c["1"].Quantity)
}

func TestRevalidateDropsDeadEntries(t *testing.T) {
	ctx := context.Background()
	store, svc, sess := newEnv(t)

	_, err := svc.Add(ctx, sess, "wireless-headphones", 1)
	require.NoError(t, err)
	_, err = svc.Add(ctx, sess, "classic-tshirt", 2)
	require.NoError(t, err)

	// Headphones sell out after the add.
	store.SeedProduct(catalog.Product{
		ID: 1, Slug: "wireless-headphones", Name: "Wireless Headphones",
		Price: decimal.RequireFromString("199.99"), Stock: 0, Available: true,
	})

	items, err := svc.Revalidate(ctx, sess)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(2), items[0].ProductID)
	assert.Equal(t, "59.98", items[0].LineTotal.String())

	// The drop is persisted, not just filtered from the response.
	c := svc.Get(sess)
	_, ok := c["1"]
	assert.False(t, ok)
}

func TestTotalsAndShipping(t *testing.T) {
	free := decimal.RequireFromString("50.00")
	assert.True(t, cart.ShippingThreshold.Equal(free))

	assert.Equal(t, "20.01", cart.ShippingNeeded(decimal.RequireFromString("29.99")).String())
	assert.True(t, cart.ShippingNeeded(free).IsZero())
	assert.True(t, cart.ShippingNeeded(decimal.RequireFromString("259.97")).IsZero())
}
