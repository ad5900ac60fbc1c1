package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ashrafalve/ecommerce-store-go/internal/auth"
	"github.com/ashrafalve/ecommerce-store-go/internal/cart"
	"github.com/ashrafalve/ecommerce-store-go/internal/catalog"
	"github.com/ashrafalve/ecommerce-store-go/internal/checkout"
	"github.com/ashrafalve/ecommerce-store-go/internal/order"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto the HTTP taxonomy. Anything unmatched
// is an internal error: logged with detail, answered generically.
func (s *Server) writeError(w http.ResponseWriter, handler string, err error) {
	var stockErr *cart.InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":     stockErr.Error(),
			"product":   stockErr.Product,
			"available": stockErr.Available,
		})
	case errors.Is(err, catalog.ErrNotFound), errors.Is(err, order.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "not found"})
	case errors.Is(err, checkout.ErrEmptyCart):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "cart is empty"})
	case errors.Is(err, checkout.ErrValidation):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "all contact and shipping fields are required"})
	case errors.Is(err, auth.ErrNotAuthenticated):
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "authentication required"})
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "invalid email or password"})
	case errors.Is(err, auth.ErrEmailTaken):
		writeJSON(w, http.StatusConflict, map[string]any{"error": "email already registered"})
	default:
		s.internalError(w, handler, err)
	}
}
