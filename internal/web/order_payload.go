package web

import "github.com/ashrafalve/ecommerce-store-go/internal/order"

// orderPayload serializes an order with its recomputed total; the total is
// never stored, so it cannot go stale.
func orderPayload(o *order.Order) map[string]any {
	items := make([]map[string]any, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, map[string]any{
			"id":         it.ID,
			"product_id": it.ProductID,
			"name":       it.Name,
			"price":      it.Price,
			"quantity":   it.Quantity,
			"cost":       it.Cost(),
		})
	}
	return map[string]any{
		"id":            o.ID,
		"first_name":    o.FirstName,
		"last_name":     o.LastName,
		"email":         o.Email,
		"address":       o.Address,
		"postal_code":   o.PostalCode,
		"city":          o.City,
		"status":        o.Status,
		"paid":          o.Paid,
		"shipping_cost": o.ShippingCost,
		"total_cost":    o.TotalCost(),
		"created_at":    o.CreatedAt,
		"updated_at":    o.UpdatedAt,
		"items":         items,
	}
}
