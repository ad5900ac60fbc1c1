package catalog

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("product not found")

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Product is a catalog row. Stock is the single shared mutable counter in
// the system; it only moves through Store.DecrementStock.
type Product struct {
	ID          int64           `json:"id"`
	Slug        string          `json:"slug"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Available   bool            `json:"available"`
	Image       string          `json:"image,omitempty"`
	CategoryID  int64           `json:"category_id"`
}

// Purchasable reports whether the product may appear in a cart or order.
func (p Product) Purchasable() bool {
	return p.Available && p.Stock > 0
}

type Store interface {
	ProductBySlug(ctx context.Context, slug string) (Product, error)
	ProductByID(ctx context.Context, id int64) (Product, error)
	// ListAvailable returns available products, optionally filtered by
	// category slug ("" means all).
	ListAvailable(ctx context.Context, categorySlug string) ([]Product, error)
	// Related returns up to limit other available products from the same
	// category.
	Related(ctx context.Context, p Product, limit int) ([]Product, error)
	Categories(ctx context.Context) ([]Category, error)
	// DecrementStock applies stock = stock - qty only if stock >= qty,
	// reporting whether the decrement happened. Drivers must make the
	// check-and-decrement atomic; two concurrent calls may never both
	// succeed on insufficient stock.
	DecrementStock(ctx context.Context, id int64, qty int) (bool, error)
}
