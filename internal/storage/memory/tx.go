package memory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ashrafalve/ecommerce-store-go/internal/checkout"
	"github.com/ashrafalve/ecommerce-store-go/internal/order"
	"github.com/ashrafalve/ecommerce-store-go/pkg/contracts"
)

// ErrInjected is returned by a step armed via FailOn.
var ErrInjected = errors.New("injected storage failure")

// Checkout returns the transaction runner. The store mutex is held for the
// whole transaction and writes are staged on the tx, so a failing step
// leaves no trace: no order, no stock movement, no events.
func (s *Store) Checkout() checkout.Runner { return txRunner{s} }

type txRunner struct{ s *Store }

func (r txRunner) InTx(_ context.Context, fn func(tx checkout.Tx) error) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t := &memTx{s: r.s, stockTaken: map[int64]int{}}
	if err := fn(t); err != nil {
		return err
	}
	t.commit()
	return nil
}

type memTx struct {
	s          *Store
	stockTaken map[int64]int
	pending    *order.Order
	idemKey    string
	events     []StagedEvent
}

func (t *memTx) fail(step string) error {
	if t.s.failStep == step {
		return fmt.Errorf("%s: %w", step, ErrInjected)
	}
	return nil
}

func (t *memTx) CreateOrder(_ context.Context, draft order.Draft) (int64, error) {
	if err := t.fail("create_order"); err != nil {
		return 0, err
	}
	if t.pending != nil {
		return 0, errors.New("order already created in this transaction")
	}
	now := time.Now().UTC()
	t.pending = &order.Order{
		ID:           t.s.nextOrderID + 1,
		UserID:       draft.UserID,
		FirstName:    draft.FirstName,
		LastName:     draft.LastName,
		Email:        draft.Email,
		Address:      draft.Address,
		PostalCode:   draft.PostalCode,
		City:         draft.City,
		Status:       order.StatusPending,
		ShippingCost: draft.ShippingCost,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return t.pending.ID, nil
}

func (t *memTx) AddItem(_ context.Context, orderID int64, item order.Item) error {
	if err := t.fail("add_item"); err != nil {
		return err
	}
	if t.pending == nil || t.pending.ID != orderID {
		return order.ErrNotFound
	}
	item.ID = t.s.nextItemID + int64(len(t.pending.Items)) + 1
	item.OrderID = orderID
	t.pending.Items = append(t.pending.Items, item)
	return nil
}

func (t *memTx) ReserveStock(_ context.Context, productID int64, qty int) (int, bool, error) {
	if err := t.fail("reserve_stock"); err != nil {
		return 0, false, err
	}
	p, ok := t.s.products[productID]
	if !ok {
		return 0, false, nil
	}
	remaining := p.Stock - t.stockTaken[productID]
	if remaining < qty {
		return remaining, false, nil
	}
	t.stockTaken[productID] += qty
	return remaining - qty, true, nil
}

func (t *memTx) RecordEvent(_ context.Context, topic string, ev contracts.Event) error {
	if err := t.fail("record_event"); err != nil {
		return err
	}
	t.events = append(t.events, StagedEvent{Topic: topic, Event: ev})
	return nil
}

func (t *memTx) SaveIdempotencyKey(_ context.Context, key string, orderID int64) error {
	if err := t.fail("save_idempotency_key"); err != nil {
		return err
	}
	if existing, taken := t.s.idempotency[key]; taken && existing != orderID {
		return fmt.Errorf("idempotency key already bound to order %d", existing)
	}
	t.idemKey = key
	return nil
}

func (t *memTx) commit() {
	for id, qty := range t.stockTaken {
		p := t.s.products[id]
		p.Stock -= qty
		t.s.products[id] = p
	}
	if t.pending != nil {
		t.s.nextOrderID = t.pending.ID
		t.s.nextItemID += int64(len(t.pending.Items))
		t.s.orders[t.pending.ID] = *t.pending
		if t.idemKey != "" {
			t.s.idempotency[t.idemKey] = t.pending.ID
		}
	}
	t.s.Events = append(t.s.Events, t.events...)
}
