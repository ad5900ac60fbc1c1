package web

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/ashrafalve/ecommerce-store-go/internal/cart"
)

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

func readQuantity(r *http.Request, def int) int {
	var req quantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return def
	}
	return req.Quantity
}

func (s *Server) handleCartView(w http.ResponseWriter, r *http.Request) {
	items, err := s.Cart.Revalidate(r.Context(), sessionFrom(r))
	if err != nil {
		s.writeError(w, "cart", err)
		return
	}
	total := cart.Total(items)
	writeJSON(w, http.StatusOK, map[string]any{
		"cart_items":         items,
		"total_price":        total,
		"cart_count":         cart.Count(items),
		"shipping_needed":    cart.ShippingNeeded(total),
		"shipping_threshold": cart.ShippingThreshold,
	})
}

func (s *Server) handleCartAdd(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	entry, err := s.Cart.Add(r.Context(), sessionFrom(r), slug, readQuantity(r, 1))
	if err != nil {
		s.writeError(w, "cart_add", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":  "added " + entry.Name + " to cart",
		"quantity": entry.Quantity,
	})
}

func (s *Server) handleCartUpdate(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid product id"})
		return
	}
	if err := s.Cart.SetQuantity(r.Context(), sessionFrom(r), productID, readQuantity(r, 0)); err != nil {
		s.writeError(w, "cart_update", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "cart updated"})
}

func (s *Server) handleCartRemove(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid product id"})
		return
	}
	if err := s.Cart.Remove(r.Context(), sessionFrom(r), productID); err != nil {
		s.writeError(w, "cart_remove", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "item removed"})
}

func (s *Server) handleCartClear(w http.ResponseWriter, r *http.Request) {
	if err := s.Cart.Clear(r.Context(), sessionFrom(r)); err != nil {
		s.writeError(w, "cart_clear", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "cart cleared"})
}
