package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ashrafalve/ecommerce-store-go/internal/checkout"
	"github.com/ashrafalve/ecommerce-store-go/internal/order"
	"github.com/ashrafalve/ecommerce-store-go/pkg/contracts"
	"github.com/ashrafalve/ecommerce-store-go/pkg/outbox"
)

// CheckoutRunner executes the cart-to-order conversion in one database
// transaction. The conditional stock UPDATE inside the transaction makes the
// check-and-decrement atomic; on rollback every decrement is undone with the
// rest of the writes.
type CheckoutRunner struct {
	pool *pgxpool.Pool
}

func NewCheckoutRunner(pool *pgxpool.Pool) *CheckoutRunner {
	return &CheckoutRunner{pool: pool}
}

func (r *CheckoutRunner) InTx(ctx context.Context, fn func(tx checkout.Tx) error) error {
	dbTx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = dbTx.Rollback(ctx) }()

	if err := fn(pgTx{tx: dbTx}); err != nil {
		return err
	}
	return dbTx.Commit(ctx)
}

type pgTx struct {
	tx pgx.Tx
}

func (t pgTx) CreateOrder(ctx context.Context, draft order.Draft) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx,
		`INSERT INTO orders(user_id, first_name, last_name, email, address, postal_code, city, status, paid, shipping_cost)
		 VALUES($1, $2, $3, $4, $5, $6, $7, $8, false, $9) RETURNING id`,
		draft.UserID, draft.FirstName, draft.LastName, draft.Email, draft.Address,
		draft.PostalCode, draft.City, order.StatusPending, draft.ShippingCost).Scan(&id)
	return id, err
}

func (t pgTx) AddItem(ctx context.Context, orderID int64, item order.Item) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO order_items(order_id, product_id, name, price, quantity) VALUES($1, $2, $3, $4, $5)`,
		orderID, item.ProductID, item.Name, item.Price, item.Quantity)
	return err
}

func (t pgTx) ReserveStock(ctx context.Context, productID int64, qty int) (int, bool, error) {
	ct, err := t.tx.Exec(ctx,
		`UPDATE products SET stock = stock - $2 WHERE id=$1 AND stock >= $2`, productID, qty)
	if err != nil {
		return 0, false, err
	}
	if ct.RowsAffected() == 1 {
		return 0, true, nil
	}
	var available int
	err = t.tx.QueryRow(ctx, `SELECT stock FROM products WHERE id=$1`, productID).Scan(&available)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	return available, false, err
}

func (t pgTx) RecordEvent(ctx context.Context, topic string, ev contracts.Event) error {
	return outbox.Insert(ctx, t.tx, ev.EventID, topic, fmt.Sprintf("%d", ev.OrderID), ev)
}

func (t pgTx) SaveIdempotencyKey(ctx context.Context, key string, orderID int64) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO order_idempotency(idempotency_key, order_id) VALUES($1, $2)`, key, orderID)
	if isUniqueViolation(err) {
		return fmt.Errorf("idempotency key already used: %w", err)
	}
	return err
}
