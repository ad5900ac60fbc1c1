package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/ashrafalve/ecommerce-store-go/internal/cart"
	"github.com/ashrafalve/ecommerce-store-go/internal/checkout"
	"github.com/ashrafalve/ecommerce-store-go/pkg/idempotency"
)

func (s *Server) handleCheckoutView(w http.ResponseWriter, r *http.Request) {
	quote, err := s.Checkout.Quote(r.Context(), sessionFrom(r))
	if err != nil {
		s.writeError(w, "checkout_view", err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	var info checkout.ShippingInfo
	if err := json.NewDecoder(r.Body).Decode(&info); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid json"})
		return
	}

	orderID, err := s.Checkout.Execute(r.Context(), sessionFrom(r), currentUserID(r), info, idempotency.Key(r))
	if err != nil {
		s.countCheckout(err)
		s.writeError(w, "checkout", err)
		return
	}
	s.countCheckout(nil)
	writeJSON(w, http.StatusCreated, map[string]any{
		"order_id": orderID,
		"message":  "order #" + strconv.FormatInt(orderID, 10) + " placed successfully",
	})
}

func (s *Server) countCheckout(err error) {
	if s.Metrics == nil {
		return
	}
	var stockErr *cart.InsufficientStockError
	switch {
	case err == nil:
		s.Metrics.Checkouts.WithLabelValues("success").Inc()
	case errors.As(err, &stockErr):
		s.Metrics.Checkouts.WithLabelValues("insufficient_stock").Inc()
	case errors.Is(err, checkout.ErrEmptyCart), errors.Is(err, checkout.ErrValidation):
		s.Metrics.Checkouts.WithLabelValues("rejected").Inc()
	default:
		s.Metrics.Checkouts.WithLabelValues("error").Inc()
	}
}

func (s *Server) handleOrderList(w http.ResponseWriter, r *http.Request) {
	orders, err := s.Orders.ListByUser(r.Context(), currentUserID(r))
	if err != nil {
		s.writeError(w, "orders", err)
		return
	}
	payload := make([]map[string]any, 0, len(orders))
	for i := range orders {
		payload = append(payload, orderPayload(&orders[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": payload})
}

func (s *Server) handleOrderDetail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid order id"})
		return
	}
	o, err := s.Orders.ByID(r.Context(), id, currentUserID(r))
	if err != nil {
		s.writeError(w, "order_detail", err)
		return
	}
	writeJSON(w, http.StatusOK, orderPayload(&o))
}
