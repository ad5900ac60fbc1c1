package web

import (
	"net/http"
)

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	categorySlug := r.URL.Query().Get("category")
	products, err := s.Catalog.ListAvailable(r.Context(), categorySlug)
	if err != nil {
		s.writeError(w, "products", err)
		return
	}
	categories, err := s.Catalog.Categories(r.Context())
	if err != nil {
		s.writeError(w, "products", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"products":          products,
		"categories":        categories,
		"selected_category": categorySlug,
	})
}

func (s *Server) handleProductDetail(w http.ResponseWriter, r *http.Request) {
	product, err := s.Catalog.ProductBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		s.writeError(w, "product_detail", err)
		return
	}
	if !product.Available {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "not found"})
		return
	}
	related, err := s.Catalog.Related(r.Context(), product, 4)
	if err != nil {
		s.writeError(w, "product_detail", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"product":          product,
		"related_products": related,
	})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.Catalog.Categories(r.Context())
	if err != nil {
		s.writeError(w, "categories", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": categories})
}
