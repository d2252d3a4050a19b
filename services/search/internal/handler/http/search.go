package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/utafrali/shopmesh/pkg/errors"
	"github.com/utafrali/shopmesh/pkg/httputil"
	"github.com/utafrali/shopmesh/services/search/internal/domain"
	"github.com/utafrali/shopmesh/services/search/internal/service"
)

// SearchHandler handles HTTP requests for search endpoints.
type SearchHandler struct {
	service *service.SearchService
	logger  *slog.Logger
}

// NewSearchHandler creates a new search HTTP handler.
func NewSearchHandler(svc *service.SearchService, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{
		service: svc,
		logger:  logger,
	}
}

// sizeParam reads ?size=. Missing means the default; out of range values
// are clamped.
func sizeParam(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("size")
	if raw == "" {
		return domain.DefaultSize, nil
	}
	size, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.InvalidInput("size must be an integer")
	}
	return domain.ClampSize(size), nil
}

// Search handles GET /api/search?q=&size=
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	size, err := sizeParam(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	res, err := h.service.Search(r.Context(), query, size)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// ProductsByShop handles GET /api/search/shops/{shop_id}/products
func (h *SearchHandler) ProductsByShop(w http.ResponseWriter, r *http.Request) {
	size, err := sizeParam(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	products, err := h.service.ProductsByShop(r.Context(), chi.URLParam(r, "shop_id"), size)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, products)
}

// VariationsByProduct handles GET /api/search/products/{product_id}/variations
func (h *SearchHandler) VariationsByProduct(w http.ResponseWriter, r *http.Request) {
	size, err := sizeParam(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	variations, err := h.service.VariationsByProduct(r.Context(), chi.URLParam(r, "product_id"), size)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, variations)
}
