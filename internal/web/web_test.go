package web_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashrafalve/ecommerce-store-go/internal/auth"
	"github.com/ashrafalve/ecommerce-store-go/internal/cart"
	"github.com/ashrafalve/ecommerce-store-go/internal/catalog"
	"github.com/ashrafalve/ecommerce-store-go/internal/checkout"
	"github.com/ashrafalve/ecommerce-store-go/internal/storage/memory"
	"github.com/ashrafalve/ecommerce-store-go/internal/web"
	"github.com/ashrafalve/ecommerce-store-go/internal/wishlist"
)

func newTestServer(t *testing.T) (*memory.Store, *httptest.Server) {
	t.Helper()
	store := memory.NewStore()
	store.SeedCategory(catalog.Category{ID: 1, Name: "Electronics", Slug: "electronics"})
	store.SeedProduct(catalog.Product{
		ID: 1, Slug: "wireless-headphones", Name: "Wireless Headphones",
		Price: decimal.RequireFromString("199.99"), Stock: 10, Available: true, CategoryID: 1,
	})
	store.SeedProduct(catalog.Product{
		ID: 2, Slug: "classic-tshirt", Name: "Classic T-Shirt",
		Price: decimal.RequireFromString("29.99"), Stock: 50, Available: true, CategoryID: 1,
	})

	cartSvc := cart.NewService(store.Catalog())
	srv := &web.Server{
		Catalog:  store.Catalog(),
		Cart:     cartSvc,
		Checkout: checkout.NewService(cartSvc, store.Checkout(), store.Orders()),
		Orders:   store.Orders(),
		Wishlist: wishlist.NewService(store.Wishlist(), store.Catalog()),
		Auth:     auth.NewService(store.Users()),
		Sessions: store.Sessions(),
	}
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)
	return store, ts
}

type client struct {
	t    *testing.T
	base string
	http *http.Client
}

func newClient(t *testing.T, ts *httptest.Server) *client {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &client{t: t, base: ts.URL, http: &http.Client{Jar: jar}}
}

func (c *client) do(method, path string, body any) (int, map[string]any) {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, c.base+path, &buf)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	out := map[string]any{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func (c *client) signup(email string) {
	c.t.Helper()
	status, _ := c.do(http.MethodPost, "/signup", map[string]any{
		"email": email, "password": "test-password", "first_name": "Test", "last_name": "Shopper",
	})
	require.Equal(c.t, http.StatusCreated, status)
}

var shippingForm = map[string]any{
	"first_name": "Test", "last_name": "Shopper", "email": "shopper@example.com",
	"address": "1 Test Street", "postal_code": "12345", "city": "Testville",
}

func TestFullShoppingFlow(t *testing.T) {
	store, ts := newTestServer(t)
	c := newClient(t, ts)

	status, body := c.do(http.MethodGet, "/products", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["products"], 2)

	status, _ = c.do(http.MethodPost, "/cart/add/wireless-headphones", map[string]any{"quantity": 1})
	require.Equal(t, http.StatusOK, status)
	status, _ = c.do(http.MethodPost, "/cart/add/classic-tshirt", map[string]any{"quantity": 2})
	require.Equal(t, http.StatusOK, status)

	status, body = c.do(http.MethodGet, "/cart", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(3), body["cart_count"])
	assert.Equal(t, "259.97", body["total_price"])

	// Checkout needs a login; the anonymous cart must survive it.
	status, _ = c.do(http.MethodPost, "/checkout", shippingForm)
	require.Equal(t, http.StatusUnauthorized, status)

	c.signup("shopper@example.com")

	status, body = c.do(http.MethodGet, "/checkout", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "0", body["shipping_cost"])
	assert.Equal(t, "259.97", body["final_total"])

	status, body = c.do(http.MethodPost, "/checkout", shippingForm)
	require.Equal(t, http.StatusCreated, status)
	orderID := body["order_id"]
	require.NotNil(t, orderID)

	assert.Equal(t, 9, store.Stock(1))
	assert.Equal(t, 48, store.Stock(2))

	status, body = c.do(http.MethodGet, "/cart", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(0), body["cart_count"])

	status, body = c.do(http.MethodGet, "/orders", nil)
	require.Equal(t, http.StatusOK, status)
	orders := body["orders"].([]any)
	require.Len(t, orders, 1)
	first := orders[0].(map[string]any)
	assert.Equal(t, "pending", first["status"])
	assert.Equal(t, "259.97", first["total_cost"])
}

func TestCartAddUnknownProduct(t *testing.T) {
	_, ts := newTestServer(t)
	c := newClient(t, ts)

	status, _ := c.do(http.MethodPost, "/cart/add/no-such-product", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestCheckoutInsufficientStockKeepsCart(t *testing.T) {
	store, ts := newTestServer(t)
	c := newClient(t, ts)
	c.signup("shopper@example.com")

	status, _ := c.do(http.MethodPost, "/cart/add/wireless-headphones", map[string]any{"quantity": 2})
	require.Equal(t, http.StatusOK, status)

	store.SeedProduct(catalog.Product{
		ID: 1, Slug: "wireless-headphones", Name: "Wireless Headphones",
		Price: decimal.RequireFromString("199.99"), Stock: 1, Available: true, CategoryID: 1,
	})

	status, body := c.do(http.MethodPost, "/checkout", shippingForm)
	require.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "Wireless Headphones", body["product"])
	assert.Equal(t, float64(1), body["available"])

	assert.Equal(t, 0, store.OrderCount())
	assert.Equal(t, 1, store.Stock(1))

	status, body = c.do(http.MethodGet, "/cart", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(2), body["cart_count"])
}

func TestOrdersAreOwnerScoped(t *testing.T) {
	_, ts := newTestServer(t)

	buyer := newClient(t, ts)
	buyer.signup("buyer@example.com")
	status, _ := buyer.do(http.MethodPost, "/cart/add/classic-tshirt", map[string]any{"quantity": 1})
	require.Equal(t, http.StatusOK, status)
	status, body := buyer.do(http.MethodPost, "/checkout", shippingForm)
	require.Equal(t, http.StatusCreated, status)
	orderID := int64(body["order_id"].(float64))

	other := newClient(t, ts)
	other.signup("other@example.com")
	status, _ = other.do(http.MethodGet, "/orders/"+itoa(orderID), nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = buyer.do(http.MethodGet, "/orders/"+itoa(orderID), nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestWishlistToggleEndpoint(t *testing.T) {
	_, ts := newTestServer(t)
	c := newClient(t, ts)
	c.signup("shopper@example.com")

	status, body := c.do(http.MethodPost, "/wishlist/toggle/1", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "added", body["action"])

	status, body = c.do(http.MethodPost, "/wishlist/toggle/1", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "removed", body["action"])
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
