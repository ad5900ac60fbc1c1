package order

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to Status
		ok       bool
	}{
		{StatusPending, StatusPaid, true},
		{StatusPending, StatusCancelled, true},
		{StatusPaid, StatusShipped, true},
		{StatusPaid, StatusCancelled, true},
		{StatusShipped, StatusDelivered, true},
		{StatusPending, StatusShipped, false},
		{StatusPending, StatusDelivered, false},
		{StatusShipped, StatusCancelled, false},
		{StatusDelivered, StatusCancelled, false},
		{StatusCancelled, StatusPaid, false},
		{StatusDelivered, StatusPending, false},
	}
	for _, c := range cases {
		assert.Equalf(t, c.ok, c.from.CanTransitionTo(c.to), "%s -> %s", c.from, c.to)
	}
}

func TestTotalCostRecomputedFromItems(t *testing.T) {
	o := Order{
		ShippingCost: decimal.RequireFromString("5.99"),
		Items: []Item{
			{Price: decimal.RequireFromString("199.99"), Quantity: 1},
			{Price: decimal.RequireFromString("29.99"), Quantity: 2},
		},
	}
	assert.Equal(t, "265.96", o.TotalCost().String())

	// Items drive the total; mutating one is immediately visible.
	o.Items[1].Quantity = 3
	assert.Equal(t, "295.95", o.TotalCost().String())
}

func TestItemCost(t *testing.T) {
	it := Item{Price: decimal.RequireFromString("29.99"), Quantity: 2}
	assert.Equal(t, "59.98", it.Cost().String())
}
