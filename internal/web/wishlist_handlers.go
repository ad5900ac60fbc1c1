package web

import (
	"net/http"
	"strconv"
)

func (s *Server) handleWishlist(w http.ResponseWriter, r *http.Request) {
	items, err := s.Wishlist.List(r.Context(), currentUserID(r))
	if err != nil {
		s.writeError(w, "wishlist", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"wishlist_items": items})
}

func (s *Server) handleWishlistToggle(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid product id"})
		return
	}
	added, err := s.Wishlist.Toggle(r.Context(), currentUserID(r), productID)
	if err != nil {
		s.writeError(w, "wishlist_toggle", err)
		return
	}
	action := "removed"
	if added {
		action = "added"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"in_wishlist": added,
		"action":      action,
	})
}
