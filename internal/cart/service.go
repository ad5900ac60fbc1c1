package cart

import (
	"context"
	"errors"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/ashrafalve/ecommerce-store-go/internal/catalog"
	"github.com/ashrafalve/ecommerce-store-go/internal/session"
)

// Service owns all cart mutations. Every mutation writes the full mapping
// back to the session immediately; the session store itself is not
// transactional and concurrent tabs race last-writer-wins.
type Service struct {
	catalog catalog.Store
}

func NewService(store catalog.Store) *Service {
	return &Service{catalog: store}
}

// Get returns the current cart, empty if the session holds none or holds
// something malformed.
func (s *Service) Get(sess *session.Session) Cart {
	var c Cart
	if !sess.Get(SessionKey, &c) || c == nil {
		return Cart{}
	}
	return c
}

func (s *Service) save(ctx context.Context, sess *session.Session, c Cart) error {
	return sess.Set(ctx, SessionKey, c)
}

// Add puts quantity units of the product with the given slug into the cart,
// snapshotting name/slug/price/image on first add and incrementing the
// quantity on repeat adds. Stock is not checked here; it is re-validated at
// cart view and at checkout.
func (s *Service) Add(ctx context.Context, sess *session.Session, slug string, quantity int) (Entry, error) {
	if quantity < 1 {
		quantity = 1
	}
	product, err := s.catalog.ProductBySlug(ctx, slug)
	if err != nil {
		return Entry{}, err
	}
	if !product.Available {
		return Entry{}, catalog.ErrNotFound
	}

	c := s.Get(sess)
	key := strconv.FormatInt(product.ID, 10)
	entry, ok := c[key]
	if ok {
		entry.Quantity += quantity
	} else {
		entry = Entry{
			Name:     product.Name,
			Slug:     product.Slug,
			Price:    product.Price,
			Quantity: quantity,
			Image:    product.Image,
		}
	}
	c[key] = entry
	if err := s.save(ctx, sess, c); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// SetQuantity replaces the quantity of an existing entry. Zero or negative
// removes the entry. Raising the quantity above live stock fails with
// InsufficientStockError and leaves the cart unchanged.
func (s *Service) SetQuantity(ctx context.Context, sess *session.Session, productID int64, quantity int) error {
	c := s.Get(sess)
	key := strconv.FormatInt(productID, 10)
	entry, ok := c[key]
	if !ok {
		return catalog.ErrNotFound
	}

	if quantity <= 0 {
		delete(c, key)
		return s.save(ctx, sess, c)
	}

	product, err := s.catalog.ProductByID(ctx, productID)
	if err != nil {
		return err
	}
	if quantity > product.Stock {
		return &InsufficientStockError{Product: product.Name, Available: product.Stock}
	}
	entry.Quantity = quantity
	c[key] = entry
	return s.save(ctx, sess, c)
}

func (s *Service) Remove(ctx context.Context, sess *session.Session, productID int64) error {
	c := s.Get(sess)
	key := strconv.FormatInt(productID, 10)
	if _, ok := c[key]; !ok {
		return nil
	}
	delete(c, key)
	return s.save(ctx, sess, c)
}

func (s *Service) Clear(ctx context.Context, sess *session.Session) error {
	return sess.Set(ctx, SessionKey, Cart{})
}

// Revalidate joins every entry with live catalog state. Entries whose
// product is gone, unavailable or out of stock are dropped and the drop is
// persisted. This is the canonical read path for both the cart view and
// checkout.
func (s *Service) Revalidate(ctx context.Context, sess *session.Session) ([]Item, error) {
	c := s.Get(sess)
	items := make([]Item, 0, len(c))
	dirty := false

	for key, entry := range c {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			delete(c, key)
			dirty = true
			continue
		}
		product, err := s.catalog.ProductByID(ctx, id)
		switch {
		case err == nil && product.Purchasable():
			items = append(items, Item{
				ProductID: id,
				Name:      entry.Name,
				Slug:      entry.Slug,
				Price:     entry.Price,
				Quantity:  entry.Quantity,
				Image:     entry.Image,
				Stock:     product.Stock,
				Available: product.Available,
				LineTotal: entry.Price.Mul(decimal.NewFromInt(int64(entry.Quantity))),
			})
		case err == nil || errors.Is(err, catalog.ErrNotFound):
			delete(c, key)
			dirty = true
		default:
			return nil, err
		}
	}

	if dirty {
		if err := s.save(ctx, sess, c); err != nil {
			return nil, err
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })
	return items, nil
}
