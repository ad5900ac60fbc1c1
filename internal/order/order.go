package order

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("order not found")

type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// transitions encodes the lifecycle: pending → paid → shipped → delivered,
// with cancelled reachable from pending and paid.
var transitions = map[Status][]Status{
	StatusPending: {StatusPaid, StatusCancelled},
	StatusPaid:    {StatusShipped, StatusCancelled},
	StatusShipped: {StatusDelivered},
}

func (s Status) CanTransitionTo(next Status) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Item is one immutable order line. ProductID is a weak reference; the
// product may change price or availability later without touching history.
type Item struct {
	ID        int64           `json:"id"`
	OrderID   int64           `json:"order_id"`
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// Cost is price times quantity.
func (it Item) Cost() decimal.Decimal {
	return it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

type Order struct {
	ID           int64           `json:"id"`
	UserID       int64           `json:"user_id"`
	FirstName    string          `json:"first_name"`
	LastName     string          `json:"last_name"`
	Email        string          `json:"email"`
	Address      string          `json:"address"`
	PostalCode   string          `json:"postal_code"`
	City         string          `json:"city"`
	Status       Status          `json:"status"`
	Paid         bool            `json:"paid"`
	ShippingCost decimal.Decimal `json:"shipping_cost"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	Items        []Item          `json:"items"`
}

// TotalCost is recomputed from the items plus stored shipping, never cached.
func (o *Order) TotalCost() decimal.Decimal {
	total := o.ShippingCost
	for _, it := range o.Items {
		total = total.Add(it.Cost())
	}
	return total
}

// Draft is what the checkout transaction persists. Orders are created
// nowhere else.
type Draft struct {
	UserID       int64
	FirstName    string
	LastName     string
	Email        string
	Address      string
	PostalCode   string
	City         string
	ShippingCost decimal.Decimal
}

type Store interface {
	// ByID loads an order with its items. A non-zero userID scopes the
	// lookup to that owner; a mismatch reads as ErrNotFound.
	ByID(ctx context.Context, id, userID int64) (Order, error)
	// ListByUser returns the owner's orders newest first, items included.
	ListByUser(ctx context.Context, userID int64) ([]Order, error)
	// SetStatus applies a lifecycle transition, rejecting illegal ones.
	SetStatus(ctx context.Context, id int64, next Status) error
	MarkPaid(ctx context.Context, id int64) error
	// ByIdempotencyKey resolves a previously completed checkout, ErrNotFound
	// if the key is unknown.
	ByIdempotencyKey(ctx context.Context, key string) (int64, error)
}

var ErrInvalidTransition = errors.New("invalid status transition")
