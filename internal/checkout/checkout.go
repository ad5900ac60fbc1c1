package checkout

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ashrafalve/ecommerce-store-go/internal/cart"
	"github.com/ashrafalve/ecommerce-store-go/internal/order"
	"github.com/ashrafalve/ecommerce-store-go/internal/session"
	"github.com/ashrafalve/ecommerce-store-go/pkg/contracts"
	"github.com/ashrafalve/ecommerce-store-go/pkg/logging"
)

// ShippingFee is charged when the pre-shipping total is below
// cart.ShippingThreshold.
var ShippingFee = decimal.RequireFromString("5.99")

// EventsTopic receives order lifecycle events through the outbox relay.
const EventsTopic = "store.orders"

var (
	ErrEmptyCart  = errors.New("cart is empty")
	ErrValidation = errors.New("missing contact or shipping fields")
)

// ShippingInfo is the contact and shipping form submitted with checkout.
type ShippingInfo struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	Address    string `json:"address"`
	PostalCode string `json:"postal_code"`
	City       string `json:"city"`
}

func (si ShippingInfo) validate() error {
	for _, f := range []string{si.FirstName, si.LastName, si.Email, si.Address, si.PostalCode, si.City} {
		if strings.TrimSpace(f) == "" {
			return ErrValidation
		}
	}
	return nil
}

// Tx is the unit of work the checkout runs in. Everything done through it is
// committed or rolled back as a whole by the Runner.
type Tx interface {
	// CreateOrder persists a pending, unpaid order and returns its ID.
	CreateOrder(ctx context.Context, draft order.Draft) (int64, error)
	AddItem(ctx context.Context, orderID int64, item order.Item) error
	// ReserveStock atomically decrements stock if at least qty units remain.
	// On refusal it reports the units actually available.
	ReserveStock(ctx context.Context, productID int64, qty int) (available int, ok bool, err error)
	// RecordEvent stages an outbox record inside the transaction.
	RecordEvent(ctx context.Context, topic string, ev contracts.Event) error
	// SaveIdempotencyKey binds key to the order, failing if the key is
	// already bound elsewhere.
	SaveIdempotencyKey(ctx context.Context, key string, orderID int64) error
}

// Runner executes fn inside a single storage transaction. A non-nil error
// from fn rolls everything back, stock decrements included.
type Runner interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

// Service converts a revalidated cart into a persisted order. The whole
// conversion is atomic: on any failure no order exists and no stock moved,
// and the cart is left intact for retry.
type Service struct {
	cart   *cart.Service
	runner Runner
	orders order.Store
}

func NewService(cartSvc *cart.Service, runner Runner, orders order.Store) *Service {
	return &Service{cart: cartSvc, runner: runner, orders: orders}
}

// Quote is the checkout page data: revalidated items with computed totals.
type Quote struct {
	Items        []cart.Item     `json:"items"`
	Total        decimal.Decimal `json:"total_price"`
	ShippingCost decimal.Decimal `json:"shipping_cost"`
	FinalTotal   decimal.Decimal `json:"final_total"`
}

// Quote revalidates the cart and prices it, ErrEmptyCart when nothing
// survives.
func (s *Service) Quote(ctx context.Context, sess *session.Session) (Quote, error) {
	items, err := s.cart.Revalidate(ctx, sess)
	if err != nil {
		return Quote{}, err
	}
	if len(items) == 0 {
		return Quote{}, ErrEmptyCart
	}
	total := cart.Total(items)
	shipping := decimal.Zero
	if total.LessThan(cart.ShippingThreshold) {
		shipping = ShippingFee
	}
	return Quote{
		Items:        items,
		Total:        total,
		ShippingCost: shipping,
		FinalTotal:   total.Add(shipping),
	}, nil
}

// Execute runs the checkout transaction for the authenticated user. A
// non-empty idemKey makes completed checkouts replayable: resubmitting with
// the same key returns the already created order instead of charging stock
// twice.
func (s *Service) Execute(ctx context.Context, sess *session.Session, userID int64, info ShippingInfo, idemKey string) (int64, error) {
	if err := info.validate(); err != nil {
		return 0, err
	}

	if idemKey != "" {
		if existing, err := s.orders.ByIdempotencyKey(ctx, idemKey); err == nil {
			return existing, nil
		} else if !errors.Is(err, order.ErrNotFound) {
			return 0, err
		}
	}

	quote, err := s.Quote(ctx, sess)
	if err != nil {
		return 0, err
	}

	start := time.Now()
	var orderID int64
	err = s.runner.InTx(ctx, func(tx Tx) error {
		id, err := tx.CreateOrder(ctx, order.Draft{
			UserID:       userID,
			FirstName:    info.FirstName,
			LastName:     info.LastName,
			Email:        info.Email,
			Address:      info.Address,
			PostalCode:   info.PostalCode,
			City:         info.City,
			ShippingCost: quote.ShippingCost,
		})
		if err != nil {
			return err
		}

		for _, it := range quote.Items {
			available, ok, err := tx.ReserveStock(ctx, it.ProductID, it.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return &cart.InsufficientStockError{Product: it.Name, Available: available}
			}
			if err := tx.AddItem(ctx, id, order.Item{
				ProductID: it.ProductID,
				Name:      it.Name,
				Price:     it.Price,
				Quantity:  it.Quantity,
			}); err != nil {
				return err
			}
		}

		if idemKey != "" {
			if err := tx.SaveIdempotencyKey(ctx, idemKey, id); err != nil {
				return err
			}
		}

		ev := contracts.Event{
			EventID:   uuid.NewString(),
			OrderID:   id,
			CreatedAt: time.Now().UTC(),
			Type:      contracts.EventOrderCreated,
			Payload: map[string]any{
				"user_id":     userID,
				"final_total": quote.FinalTotal.String(),
				"items":       len(quote.Items),
			},
		}
		if err := tx.RecordEvent(ctx, EventsTopic, ev); err != nil {
			return err
		}

		orderID = id
		return nil
	})
	if err != nil {
		return 0, err
	}

	// The order is committed; an error clearing the cart must not fail the
	// checkout. Revalidation will drop the now out-of-stock leftovers.
	if err := s.cart.Clear(ctx, sess); err != nil {
		logging.Log(logging.Fields{
			Service: "storefront",
			OrderID: orderID,
			Step:    "clear_cart",
			Status:  "error",
			Message: err.Error(),
		})
	}

	logging.Log(logging.Fields{
		Service:    "storefront",
		UserID:     userID,
		OrderID:    orderID,
		SessionID:  sess.ID,
		Step:       "checkout",
		Status:     "committed",
		DurationMS: time.Since(start).Milliseconds(),
	})
	return orderID, nil
}
