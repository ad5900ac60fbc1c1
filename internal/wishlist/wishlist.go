package wishlist

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ashrafalve/ecommerce-store-go/internal/catalog"
)

// Item is a wishlist row joined with current product data for display.
type Item struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Slug      string          `json:"slug"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image,omitempty"`
	Available bool            `json:"available"`
	AddedAt   time.Time       `json:"added_at"`
}

type Store interface {
	// Toggle flips membership of (user, product) and reports the resulting
	// state: true if the pair is now present.
	Toggle(ctx context.Context, userID, productID int64) (added bool, err error)
	Contains(ctx context.Context, userID, productID int64) (bool, error)
	// ListByUser returns the user's items newest first.
	ListByUser(ctx context.Context, userID int64) ([]Item, error)
}

// Service guards Toggle with a catalog lookup: unknown or unavailable
// products cannot enter a wishlist, though removal of an already listed one
// still works through the same call.
type Service struct {
	store   Store
	catalog catalog.Store
}

func NewService(store Store, cat catalog.Store) *Service {
	return &Service{store: store, catalog: cat}
}

func (s *Service) Toggle(ctx context.Context, userID, productID int64) (bool, error) {
	present, err := s.store.Contains(ctx, userID, productID)
	if err != nil {
		return false, err
	}
	if !present {
		product, err := s.catalog.ProductByID(ctx, productID)
		if err != nil {
			return false, err
		}
		if !product.Available {
			return false, catalog.ErrNotFound
		}
	}
	return s.store.Toggle(ctx, userID, productID)
}

func (s *Service) List(ctx context.Context, userID int64) ([]Item, error) {
	return s.store.ListByUser(ctx, userID)
}
