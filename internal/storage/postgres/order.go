package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ashrafalve/ecommerce-store-go/internal/order"
)

type OrderStore struct {
	pool *pgxpool.Pool
}

func NewOrderStore(pool *pgxpool.Pool) *OrderStore {
	return &OrderStore{pool: pool}
}

const orderCols = `id, user_id, first_name, last_name, email, address, postal_code, city, status, paid, shipping_cost, created_at, updated_at`

func scanOrder(row pgx.Row) (order.Order, error) {
	var o order.Order
	err := row.Scan(&o.ID, &o.UserID, &o.FirstName, &o.LastName, &o.Email, &o.Address,
		&o.PostalCode, &o.City, &o.Status, &o.Paid, &o.ShippingCost, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return order.Order{}, order.ErrNotFound
	}
	return o, err
}

func (s *OrderStore) ByID(ctx context.Context, id, userID int64) (order.Order, error) {
	o, err := scanOrder(s.pool.QueryRow(ctx,
		`SELECT `+orderCols+` FROM orders WHERE id=$1 AND ($2 = 0 OR user_id=$2)`, id, userID))
	if err != nil {
		return order.Order{}, err
	}
	items, err := s.itemsFor(ctx, o.ID)
	if err != nil {
		return order.Order{}, err
	}
	o.Items = items
	return o, nil
}

func (s *OrderStore) ListByUser(ctx context.Context, userID int64) ([]order.Order, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+orderCols+` FROM orders WHERE user_id=$1 ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []order.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		items, err := s.itemsFor(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Items = items
	}
	return out, nil
}

func (s *OrderStore) itemsFor(ctx context.Context, orderID int64) ([]order.Item, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, order_id, product_id, name, price, quantity FROM order_items WHERE order_id=$1 ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []order.Item{}
	for rows.Next() {
		var it order.Item
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Name, &it.Price, &it.Quantity); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// SetStatus locks the row, checks the lifecycle, applies the transition.
func (s *OrderStore) SetStatus(ctx context.Context, id int64, next order.Status) error {
	return s.transition(ctx, id, next, false)
}

func (s *OrderStore) MarkPaid(ctx context.Context, id int64) error {
	return s.transition(ctx, id, order.StatusPaid, true)
}

func (s *OrderStore) transition(ctx context.Context, id int64, next order.Status, markPaid bool) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var current order.Status
	err = tx.QueryRow(ctx, `SELECT status FROM orders WHERE id=$1 FOR UPDATE`, id).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return order.ErrNotFound
	}
	if err != nil {
		return err
	}
	if !current.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", order.ErrInvalidTransition, current, next)
	}
	if _, err := tx.Exec(ctx,
		`UPDATE orders SET status=$2, paid = paid OR $3, updated_at=now() WHERE id=$1`, id, next, markPaid); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *OrderStore) ByIdempotencyKey(ctx context.Context, key string) (int64, error) {
	var orderID int64
	err := s.pool.QueryRow(ctx,
		`SELECT order_id FROM order_idempotency WHERE idempotency_key=$1`, key).Scan(&orderID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, order.ErrNotFound
	}
	return orderID, err
}
