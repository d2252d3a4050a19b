package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/shopmesh/pkg/httputil"
	"github.com/utafrali/shopmesh/pkg/middleware"
	"github.com/utafrali/shopmesh/pkg/pagination"
	"github.com/utafrali/shopmesh/pkg/validator"
	"github.com/utafrali/shopmesh/services/wishlist/internal/service"
)

// WishlistHandler handles HTTP requests for wishlist endpoints.
type WishlistHandler struct {
	service *service.WishlistService
	logger  *slog.Logger
}

// NewWishlistHandler creates a new wishlist HTTP handler.
func NewWishlistHandler(svc *service.WishlistService, logger *slog.Logger) *WishlistHandler {
	return &WishlistHandler{service: svc, logger: logger}
}

// AddRequest is the JSON request body for POST /api/wishlist.
type AddRequest struct {
	ProductVariationID string `json:"product_variation_id" validate:"required,uuid"`
}

// ExistsResponse reports wishlist membership.
type ExistsResponse struct {
	Exists bool `json:"exists"`
}

// List handles GET /api/wishlist
func (h *WishlistHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	result, err := h.service.List(r.Context(), userID, pagination.FromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, result)
}

// Add handles POST /api/wishlist
func (h *WishlistHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req AddRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	item, err := h.service.Add(r.Context(), middleware.UserIDFromContext(r.Context()), req.ProductVariationID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, item)
}

// Exists handles GET /api/wishlist/{variation_id}
func (h *WishlistHandler) Exists(w http.ResponseWriter, r *http.Request) {
	variationID, ok := httputil.ParseUUID(w, chi.URLParam(r, "variation_id"))
	if !ok {
		return
	}

	exists, err := h.service.Contains(r.Context(), middleware.UserIDFromContext(r.Context()), variationID.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, ExistsResponse{Exists: exists})
}

// Remove handles DELETE /api/wishlist/{variation_id}
func (h *WishlistHandler) Remove(w http.ResponseWriter, r *http.Request) {
	variationID, ok := httputil.ParseUUID(w, chi.URLParam(r, "variation_id"))
	if !ok {
		return
	}

	if err := h.service.Remove(r.Context(), middleware.UserIDFromContext(r.Context()), variationID.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
