// Package memory is the in-process storage driver. It backs local
// development without Postgres and the test suite. A single mutex serializes
// every operation, which trivially gives checkout transactions a serializable
// view of stock.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ashrafalve/ecommerce-store-go/internal/auth"
	"github.com/ashrafalve/ecommerce-store-go/internal/catalog"
	"github.com/ashrafalve/ecommerce-store-go/internal/order"
	"github.com/ashrafalve/ecommerce-store-go/internal/session"
	"github.com/ashrafalve/ecommerce-store-go/internal/wishlist"
	"github.com/ashrafalve/ecommerce-store-go/pkg/contracts"
)

type userRecord struct {
	user auth.User
	hash string
}

type wishRecord struct {
	productID int64
	addedAt   time.Time
}

// StagedEvent is an outbox record kept in memory; the relay only runs
// against Postgres, so tests read these directly.
type StagedEvent struct {
	Topic string
	Event contracts.Event
}

// Store holds everything behind one mutex. Domain store interfaces are
// served by the view accessors below.
type Store struct {
	mu sync.Mutex

	products   map[int64]catalog.Product
	slugs      map[string]int64
	categories map[int64]catalog.Category

	sessions map[string]session.Data

	orders      map[int64]order.Order
	idempotency map[string]int64

	users        map[int64]userRecord
	usersByEmail map[string]int64

	wishes map[int64][]wishRecord

	Events []StagedEvent

	nextProductID int64
	nextOrderID   int64
	nextItemID    int64
	nextUserID    int64

	failStep string
}

func NewStore() *Store {
	return &Store{
		products:     map[int64]catalog.Product{},
		slugs:        map[string]int64{},
		categories:   map[int64]catalog.Category{},
		sessions:     map[string]session.Data{},
		orders:       map[int64]order.Order{},
		idempotency:  map[string]int64{},
		users:        map[int64]userRecord{},
		usersByEmail: map[string]int64{},
		wishes:       map[int64][]wishRecord{},
	}
}

func (s *Store) Catalog() catalog.Store   { return catalogView{s} }
func (s *Store) Sessions() session.Store  { return sessionView{s} }
func (s *Store) Orders() order.Store      { return orderView{s} }
func (s *Store) Users() auth.Store        { return userView{s} }
func (s *Store) Wishlist() wishlist.Store { return wishView{s} }

// FailOn makes the named checkout transaction step return ErrInjected;
// fault-injection hook for atomicity tests. Steps: create_order, add_item,
// reserve_stock, record_event, save_idempotency_key.
func (s *Store) FailOn(step string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failStep = step
}

// SeedCategory registers a category for catalog filtering.
func (s *Store) SeedCategory(c catalog.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories[c.ID] = c
}

// SeedProduct inserts or replaces a product, assigning an ID when zero.
func (s *Store) SeedProduct(p catalog.Product) catalog.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == 0 {
		s.nextProductID++
		p.ID = s.nextProductID
	} else if p.ID > s.nextProductID {
		s.nextProductID = p.ID
	}
	s.products[p.ID] = p
	s.slugs[p.Slug] = p.ID
	return p
}

// Stock reports a product's current stock, -1 when unknown. Test helper.
func (s *Store) Stock(id int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return -1
	}
	return p.Stock
}

// OrderCount reports how many orders exist. Test helper.
func (s *Store) OrderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

// --- catalog.Store ---

type catalogView struct{ s *Store }

func (v catalogView) ProductBySlug(_ context.Context, slug string) (catalog.Product, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	id, ok := v.s.slugs[slug]
	if !ok {
		return catalog.Product{}, catalog.ErrNotFound
	}
	return v.s.products[id], nil
}

func (v catalogView) ProductByID(_ context.Context, id int64) (catalog.Product, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	p, ok := v.s.products[id]
	if !ok {
		return catalog.Product{}, catalog.ErrNotFound
	}
	return p, nil
}

func (v catalogView) ListAvailable(_ context.Context, categorySlug string) ([]catalog.Product, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	var categoryID int64
	if categorySlug != "" {
		for _, c := range v.s.categories {
			if c.Slug == categorySlug {
				categoryID = c.ID
			}
		}
		if categoryID == 0 {
			return nil, catalog.ErrNotFound
		}
	}

	out := []catalog.Product{}
	for _, p := range v.s.products {
		if !p.Available {
			continue
		}
		if categoryID != 0 && p.CategoryID != categoryID {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (v catalogView) Related(_ context.Context, p catalog.Product, limit int) ([]catalog.Product, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	out := []catalog.Product{}
	for _, other := range v.s.products {
		if other.ID == p.ID || !other.Available || other.CategoryID != p.CategoryID {
			continue
		}
		out = append(out, other)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (v catalogView) Categories(_ context.Context) ([]catalog.Category, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	out := make([]catalog.Category, 0, len(v.s.categories))
	for _, c := range v.s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (v catalogView) DecrementStock(_ context.Context, id int64, qty int) (bool, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	p, ok := v.s.products[id]
	if !ok || p.Stock < qty {
		return false, nil
	}
	p.Stock -= qty
	v.s.products[id] = p
	return true, nil
}

// --- session.Store ---

type sessionView struct{ s *Store }

func (v sessionView) Load(_ context.Context, sid string) (session.Data, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	data := session.Data{}
	for k, val := range v.s.sessions[sid] {
		data[k] = val
	}
	return data, nil
}

func (v sessionView) Save(_ context.Context, sid string, data session.Data) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	copied := session.Data{}
	for k, val := range data {
		copied[k] = val
	}
	v.s.sessions[sid] = copied
	return nil
}

func (v sessionView) Delete(_ context.Context, sid string) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	delete(v.s.sessions, sid)
	return nil
}

// --- order.Store ---

type orderView struct{ s *Store }

func (v orderView) ByID(_ context.Context, id, userID int64) (order.Order, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	o, ok := v.s.orders[id]
	if !ok || (userID != 0 && o.UserID != userID) {
		return order.Order{}, order.ErrNotFound
	}
	return o, nil
}

func (v orderView) ListByUser(_ context.Context, userID int64) ([]order.Order, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	out := []order.Order{}
	for _, o := range v.s.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (v orderView) SetStatus(_ context.Context, id int64, next order.Status) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	o, ok := v.s.orders[id]
	if !ok {
		return order.ErrNotFound
	}
	if !o.Status.CanTransitionTo(next) {
		return order.ErrInvalidTransition
	}
	o.Status = next
	o.UpdatedAt = time.Now().UTC()
	v.s.orders[id] = o
	return nil
}

func (v orderView) MarkPaid(ctx context.Context, id int64) error {
	if err := v.SetStatus(ctx, id, order.StatusPaid); err != nil {
		return err
	}
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	o := v.s.orders[id]
	o.Paid = true
	v.s.orders[id] = o
	return nil
}

func (v orderView) ByIdempotencyKey(_ context.Context, key string) (int64, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	id, ok := v.s.idempotency[key]
	if !ok {
		return 0, order.ErrNotFound
	}
	return id, nil
}

// --- auth.Store ---

type userView struct{ s *Store }

func (v userView) Create(_ context.Context, email, passwordHash, firstName, lastName string) (auth.User, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	email = strings.ToLower(email)
	if _, taken := v.s.usersByEmail[email]; taken {
		return auth.User{}, auth.ErrEmailTaken
	}
	v.s.nextUserID++
	user := auth.User{
		ID:        v.s.nextUserID,
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
		CreatedAt: time.Now().UTC(),
	}
	v.s.users[user.ID] = userRecord{user: user, hash: passwordHash}
	v.s.usersByEmail[email] = user.ID
	return user, nil
}

func (v userView) ByEmail(_ context.Context, email string) (auth.User, string, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	id, ok := v.s.usersByEmail[strings.ToLower(email)]
	if !ok {
		return auth.User{}, "", auth.ErrInvalidCredentials
	}
	rec := v.s.users[id]
	return rec.user, rec.hash, nil
}

func (v userView) ByID(_ context.Context, id int64) (auth.User, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	rec, ok := v.s.users[id]
	if !ok {
		return auth.User{}, auth.ErrNotAuthenticated
	}
	return rec.user, nil
}

// --- wishlist.Store ---

type wishView struct{ s *Store }

func (v wishView) Toggle(_ context.Context, userID, productID int64) (bool, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	list := v.s.wishes[userID]
	for i, w := range list {
		if w.productID == productID {
			v.s.wishes[userID] = append(list[:i], list[i+1:]...)
			return false, nil
		}
	}
	v.s.wishes[userID] = append(list, wishRecord{productID: productID, addedAt: time.Now().UTC()})
	return true, nil
}

func (v wishView) Contains(_ context.Context, userID, productID int64) (bool, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	for _, w := range v.s.wishes[userID] {
		if w.productID == productID {
			return true, nil
		}
	}
	return false, nil
}

func (v wishView) ListByUser(_ context.Context, userID int64) ([]wishlist.Item, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	list := v.s.wishes[userID]
	out := make([]wishlist.Item, 0, len(list))
	for i := len(list) - 1; i >= 0; i-- {
		w := list[i]
		p, ok := v.s.products[w.productID]
		if !ok {
			continue
		}
		out = append(out, wishlist.Item{
			ProductID: p.ID,
			Name:      p.Name,
			Slug:      p.Slug,
			Price:     p.Price,
			Image:     p.Image,
			Available: p.Available,
			AddedAt:   w.addedAt,
		})
	}
	return out, nil
}
