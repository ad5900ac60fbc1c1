package checkout_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashrafalve/ecommerce-store-go/internal/cart"
	"github.com/ashrafalve/ecommerce-store-go/internal/catalog"
	"github.com/ashrafalve/ecommerce-store-go/internal/checkout"
	"github.com/ashrafalve/ecommerce-store-go/internal/order"
	"github.com/ashrafalve/ecommerce-store-go/internal/session"
	"github.com/ashrafalve/ecommerce-store-go/internal/storage/memory"
	"github.com/ashrafalve/ecommerce-store-go/pkg/contracts"
)

var shippingInfo = checkout.ShippingInfo{
	FirstName:  "Ada",
	LastName:   "Lovelace",
	Email:      "ada@example.com",
	Address:    "12 Analytical Lane",
	PostalCode: "10001",
	City:       "London",
}

type env struct {
	store    *memory.Store
	cart     *cart.Service
	checkout *checkout.Service
	sess     *session.Session
}

func newEnv(t *testing.T) *env {
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
	cartSvc := cart.NewService(store.Catalog())
	return &env{
		store:    store,
		cart:     cartSvc,
		checkout: checkout.NewService(cartSvc, store.Checkout(), store.Orders()),
		sess:     session.New(store.Sessions()),
	}
}

func (e *env) fill(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	_, err := e.cart.Add(ctx, e.sess, "wireless-headphones", 1)
	require.NoError(t, err)
	_, err = e.cart.Add(ctx, e.sess, "classic-tshirt", 2)
	require.NoError(t, err)
}

func TestCheckoutSuccess(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.fill(t)

	orderID, err := e.checkout.Execute(ctx, e.sess, 7, shippingInfo, "")
	require.NoError(t, err)

	o, err := e.store.Orders().ByID(ctx, orderID, 7)
	require.NoError(t, err)
	assert.Equal(t, order.StatusPending, o.Status)
	assert.False(t, o.Paid)
	require.Len(t, o.Items, 2)

	// 199.99 + 2*29.99 = 259.97, above the free shipping threshold.
	assert.True(t, o.ShippingCost.IsZero())
	assert.Equal(t, "259.97", o.TotalCost().String())

	assert.Equal(t, 9, e.store.Stock(1))
	assert.Equal(t, 48, e.store.Stock(2))

	items, err := e.cart.Revalidate(ctx, e.sess)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCheckoutChargesShippingBelowThreshold(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	_, err := e.cart.Add(ctx, e.sess, "classic-tshirt", 1)
	require.NoError(t, err)

	orderID, err := e.checkout.Execute(ctx, e.sess, 7, shippingInfo, "")
	require.NoError(t, err)

	o, err := e.store.Orders().ByID(ctx, orderID, 0)
	require.NoError(t, err)
	assert.Equal(t, "5.99", o.ShippingCost.String())
	assert.Equal(t, "35.98", o.TotalCost().String())
}

func TestCheckoutSoldOutBetweenAddAndCheckout(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.fill(t)

	// Headphones drop to one unit after the add; revalidation still passes
	// (stock > 0) but the in-transaction reserve must reject quantity 2.
	_, err := e.cart.Add(ctx, e.sess, "wireless-headphones", 1)
	require.NoError(t, err)
	e.store.SeedProduct(catalog.Product{
		ID: 1, Slug: "wireless-headphones", Name: "Wireless Headphones",
		Price: decimal.RequireFromString("199.99"), Stock: 1, Available: true,
	})

	_, err = e.checkout.Execute(ctx, e.sess, 7, shippingInfo, "")
	var stockErr *cart.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "Wireless Headphones", stockErr.Product)
	assert.Equal(t, 1, stockErr.Available)

	// Nothing persisted, nothing decremented, cart intact for retry.
	assert.Equal(t, 0, e.store.OrderCount())
	assert.Equal(t, 1, e.store.Stock(1))
	assert.Equal(t, 50, e.store.Stock(2))
	items, err := e.cart.Revalidate(ctx, e.sess)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestCheckoutAtomicOnInjectedFailure(t *testing.T) {
	for _, step := range []string{"create_order", "add_item", "reserve_stock", "record_event"} {
		t.Run(step, func(t *testing.T) {
			ctx := context.Background()
			e := newEnv(t)
			e.fill(t)
			e.store.FailOn(step)

			_, err := e.checkout.Execute(ctx, e.sess, 7, shippingInfo, "")
			require.ErrorIs(t, err, memory.ErrInjected)

			assert.Equal(t, 0, e.store.OrderCount())
			assert.Equal(t, 10, e.store.Stock(1))
			assert.Equal(t, 50, e.store.Stock(2))
			assert.Empty(t, e.store.Events)

			items, err := e.cart.Revalidate(ctx, e.sess)
			require.NoError(t, err)
			assert.Len(t, items, 2)
		})
	}
}

func TestConcurrentCheckoutsNeverOversell(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	store.SeedProduct(catalog.Product{
		ID: 1, Slug: "last-unit", Name: "Last Unit",
		Price: decimal.RequireFromString("10.00"), Stock: 1, Available: true,
	})
	cartSvc := cart.NewService(store.Catalog())
	checkoutSvc := checkout.NewService(cartSvc, store.Checkout(), store.Orders())

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sess := session.New(store.Sessions())
			if _, err := cartSvc.Add(ctx, sess, "last-unit", 1); err != nil {
				errs[i] = err
				return
			}
			_, errs[i] = checkoutSvc.Execute(ctx, sess, int64(i+1), shippingInfo, "")
		}(i)
	}
	wg.Wait()

	// The loser fails with InsufficientStock inside the transaction, or with
	// an empty cart when its revalidation already saw stock at zero. Either
	// way exactly one unit was sold.
	var succeeded, conflicted int
	for _, err := range errs {
		var stockErr *cart.InsufficientStockError
		switch {
		case err == nil:
			succeeded++
		case errors.As(err, &stockErr), errors.Is(err, checkout.ErrEmptyCart):
			conflicted++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, conflicted)
	assert.Equal(t, 0, store.Stock(1))
	assert.Equal(t, 1, store.OrderCount())
}

func TestCheckoutIdempotencyReplay(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.fill(t)

	first, err := e.checkout.Execute(ctx, e.sess, 7, shippingInfo, "key-1")
	require.NoError(t, err)

	// Same key again: the stored order is returned and stock is untouched.
	second, err := e.checkout.Execute(ctx, e.sess, 7, shippingInfo, "key-1")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, e.store.OrderCount())
	assert.Equal(t, 9, e.store.Stock(1))
}

func TestCheckoutRejectsEmptyCartAndBadInput(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	_, err := e.checkout.Execute(ctx, e.sess, 7, shippingInfo, "")
	assert.ErrorIs(t, err, checkout.ErrEmptyCart)

	e.fill(t)
	incomplete := shippingInfo
	incomplete.City = "  "
	_, err = e.checkout.Execute(ctx, e.sess, 7, incomplete, "")
	assert.ErrorIs(t, err, checkout.ErrValidation)
}

func TestCheckoutRecordsOrderCreatedEvent(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.fill(t)

	orderID, err := e.checkout.Execute(ctx, e.sess, 7, shippingInfo, "")
	require.NoError(t, err)

	require.Len(t, e.store.Events, 1)
	ev := e.store.Events[0]
	assert.Equal(t, checkout.EventsTopic, ev.Topic)
	assert.Equal(t, contracts.EventOrderCreated, ev.Event.Type)
	assert.Equal(t, orderID, ev.Event.OrderID)
}
