package cart

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// SessionKey is the slot in the session blob holding the cart mapping.
const SessionKey = "cart"

// ShippingThreshold is the pre-shipping total above which shipping is free.
var ShippingThreshold = decimal.RequireFromString("50.00")

// Entry is the denormalized snapshot stored in the session when a product is
// added. Price is the unit price at add time and stays locked for checkout.
type Entry struct {
	Name     string          `json:"name"`
	Slug     string          `json:"slug"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	Image    string          `json:"image,omitempty"`
}

// Cart maps product IDs (in string form, as the session blob is JSON) to
// entries. Entries never hold quantity < 1.
type Cart map[string]Entry

// Item is a revalidated cart line: the session snapshot joined with live
// product state.
type Item struct {
	ProductID int64           `json:"id"`
	Name      string          `json:"name"`
	Slug      string          `json:"slug"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Image     string          `json:"image,omitempty"`
	Stock     int             `json:"stock"`
	Available bool            `json:"available"`
	LineTotal decimal.Decimal `json:"item_total"`
}

// InsufficientStockError reports an attempt to claim more units than the
// catalog holds. User-correctable: the cart stays intact for retry.
type InsufficientStockError struct {
	Product   string
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("only %d items available for %s", e.Available, e.Product)
}

// Total sums line totals over revalidated items.
func Total(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.LineTotal)
	}
	return total
}

// Count is the number of units across all items.
func Count(items []Item) int {
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return n
}

// ShippingNeeded is how much more must be spent to reach free shipping,
// floored at zero.
func ShippingNeeded(total decimal.Decimal) decimal.Decimal {
	due := ShippingThreshold.Sub(total)
	if due.IsNegative() {
		return decimal.Zero
	}
	return due
}
