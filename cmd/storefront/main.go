package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ashrafalve/ecommerce-store-go/internal/auth"
	"github.com/ashrafalve/ecommerce-store-go/internal/cart"
	"github.com/ashrafalve/ecommerce-store-go/internal/catalog"
	"github.com/ashrafalve/ecommerce-store-go/internal/checkout"
	"github.com/ashrafalve/ecommerce-store-go/internal/storage/memory"
	"github.com/ashrafalve/ecommerce-store-go/internal/storage/postgres"
	"github.com/ashrafalve/ecommerce-store-go/internal/web"
	"github.com/ashrafalve/ecommerce-store-go/internal/wishlist"
	"github.com/ashrafalve/ecommerce-store-go/pkg/metrics"
)

type cfg struct {
	Port          string
	StorageDriver string // postgres | memory
	DatabaseURL   string
}

func readCfg() (cfg, error) {
	c := cfg{
		Port:          getenv("PORT", "8080"),
		StorageDriver: strings.ToLower(getenv("STORAGE_DRIVER", "postgres")),
		DatabaseURL:   strings.TrimSpace(os.Getenv("DATABASE_URL")),
	}
	switch c.StorageDriver {
	case "postgres":
		if c.DatabaseURL == "" {
			return cfg{}, errors.New("DATABASE_URL is required with STORAGE_DRIVER=postgres")
		}
	case "memory":
	default:
		return cfg{}, errors.New("STORAGE_DRIVER must be postgres or memory")
	}
	return c, nil
}

func main() {
	cfg, err := readCfg()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	srv := &web.Server{Metrics: metrics.NewServerMetrics("storefront")}

	switch cfg.StorageDriver {
	case "postgres":
		pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("db connect error: %v", err)
		}
		defer pool.Close()

		srv.Catalog = postgres.NewCatalogStore(pool)
		srv.Sessions = postgres.NewSessionStore(pool)
		srv.Orders = postgres.NewOrderStore(pool)
		srv.DB = pool
		srv.Cart = cart.NewService(srv.Catalog)
		srv.Checkout = checkout.NewService(srv.Cart, postgres.NewCheckoutRunner(pool), srv.Orders)
		srv.Wishlist = wishlist.NewService(postgres.NewWishlistStore(pool), srv.Catalog)
		srv.Auth = auth.NewService(postgres.NewUserStore(pool))

	case "memory":
		store := memory.NewStore()
		seed(store)

		srv.Catalog = store.Catalog()
		srv.Sessions = store.Sessions()
		srv.Orders = store.Orders()
		srv.Cart = cart.NewService(srv.Catalog)
		srv.Checkout = checkout.NewService(srv.Cart, store.Checkout(), srv.Orders)
		srv.Wishlist = wishlist.NewService(store.Wishlist(), srv.Catalog)
		srv.Auth = auth.NewService(store.Users())
	}

	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Printf("storefront listening on :%s (STORAGE_DRIVER=%s)", cfg.Port, cfg.StorageDriver)
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("http server error: %v", err)
	}
}

// seed fills the memory driver with a browsable demo catalog.
func seed(store *memory.Store) {
	store.SeedCategory(catalog.Category{ID: 1, Name: "Electronics", Slug: "electronics"})
	store.SeedCategory(catalog.Category{ID: 2, Name: "Clothing", Slug: "clothing"})
	store.SeedProduct(catalog.Product{
		Slug: "wireless-headphones", Name: "Wireless Headphones",
		Price: decimal.RequireFromString("199.99"), Stock: 25, Available: true, CategoryID: 1,
	})
	store.SeedProduct(catalog.Product{
		Slug: "bluetooth-speaker", Name: "Bluetooth Speaker",
		Price: decimal.RequireFromString("49.99"), Stock: 40, Available: true, CategoryID: 1,
	})
	store.SeedProduct(catalog.Product{
		Slug: "classic-tshirt", Name: "Classic T-Shirt",
		Price: decimal.RequireFromString("29.99"), Stock: 100, Available: true, CategoryID: 2,
	})
}

func getenv(k, def string) string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	return v
}
