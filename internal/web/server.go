package web

import (
	"context"
	"net/http"

	"github.com/ashrafalve/ecommerce-store-go/internal/auth"
	"github.com/ashrafalve/ecommerce-store-go/internal/cart"
	"github.com/ashrafalve/ecommerce-store-go/internal/catalog"
	"github.com/ashrafalve/ecommerce-store-go/internal/checkout"
	"github.com/ashrafalve/ecommerce-store-go/internal/order"
	"github.com/ashrafalve/ecommerce-store-go/internal/session"
	"github.com/ashrafalve/ecommerce-store-go/internal/wishlist"
	"github.com/ashrafalve/ecommerce-store-go/pkg/metrics"
)

// Pinger is what /health checks; nil means always healthy (memory driver).
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	Catalog  catalog.Store
	Cart     *cart.Service
	Checkout *checkout.Service
	Orders   order.Store
	Wishlist *wishlist.Service
	Auth     *auth.Service
	Sessions session.Store
	Metrics  *metrics.ServerMetrics
	DB       Pinger
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", metrics.Handler())

	mux.Handle("GET /products", s.route("products", s.handleListProducts))
	mux.Handle("GET /products/{slug}", s.route("product_detail", s.handleProductDetail))
	mux.Handle("GET /categories", s.route("categories", s.handleCategories))

	mux.Handle("GET /cart", s.route("cart", s.handleCartView))
	mux.Handle("POST /cart/add/{slug}", s.route("cart_add", s.handleCartAdd))
	mux.Handle("POST /cart/update/{id}", s.route("cart_update", s.handleCartUpdate))
	mux.Handle("POST /cart/remove/{id}", s.route("cart_remove", s.handleCartRemove))
	mux.Handle("POST /cart/clear", s.route("cart_clear", s.handleCartClear))

	mux.Handle("GET /checkout", s.route("checkout_view", s.requireUser(s.handleCheckoutView)))
	mux.Handle("POST /checkout", s.route("checkout", s.requireUser(s.handleCheckout)))

	mux.Handle("GET /orders", s.route("orders", s.requireUser(s.handleOrderList)))
	mux.Handle("GET /orders/{id}", s.route("order_detail", s.requireUser(s.handleOrderDetail)))

	mux.Handle("GET /wishlist", s.route("wishlist", s.requireUser(s.handleWishlist)))
	mux.Handle("POST /wishlist/toggle/{id}", s.route("wishlist_toggle", s.requireUser(s.handleWishlistToggle)))

	mux.Handle("POST /signup", s.route("signup", s.handleSignup))
	mux.Handle("POST /login", s.route("login", s.handleLogin))
	mux.Handle("POST /logout", s.route("logout", s.handleLogout))
	mux.Handle("GET /profile", s.route("profile", s.requireUser(s.handleProfile)))

	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.DB != nil {
		if err := s.DB.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "db_error"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}
