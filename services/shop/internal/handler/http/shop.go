package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/shopmesh/pkg/httputil"
	"github.com/utafrali/shopmesh/pkg/middleware"
	"github.com/utafrali/shopmesh/pkg/pagination"
	"github.com/utafrali/shopmesh/pkg/validator"
	"github.com/utafrali/shopmesh/services/shop/internal/service"
)

// ShopHandler handles HTTP requests for shop endpoints.
type ShopHandler struct {
	service *service.ShopService
	logger  *slog.Logger
}

// NewShopHandler creates a new shop HTTP handler.
func NewShopHandler(svc *service.ShopService, logger *slog.Logger) *ShopHandler {
	return &ShopHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// CreateShopRequest is the JSON request body for opening a shop.
type CreateShopRequest struct {
	Name  string `json:"name" validate:"required,min=1,max=255"`
	About string `json:"about" validate:"max=5000"`
}

// UpdateShopRequest is the JSON request body for updating a shop.
type UpdateShopRequest struct {
	Name  *string `json:"name" validate:"omitempty,min=1,max=255"`
	About *string `json:"about" validate:"omitempty,max=5000"`
}

// --- Handlers ---

// ListShops handles GET /api/shops
func (h *ShopHandler) ListShops(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.ListShops(r.Context(), pagination.FromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, res)
}

// CreateShop handles POST /api/shops
func (h *ShopHandler) CreateShop(w http.ResponseWriter, r *http.Request) {
	var req CreateShopRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	shop, err := h.service.CreateShop(r.Context(), middleware.UserIDFromContext(r.Context()), service.CreateShopInput{
		Name:  req.Name,
		About: req.About,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, shop)
}

// GetShop handles GET /api/shops/{shop}. The key is an id or a slug.
func (h *ShopHandler) GetShop(w http.ResponseWriter, r *http.Request) {
	shop, err := h.service.GetShop(r.Context(), chi.URLParam(r, "shop"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, shop)
}

// UpdateShop handles PATCH /api/shops/{shop}
func (h *ShopHandler) UpdateShop(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "shop"))
	if !ok {
		return
	}
	var req UpdateShopRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	shop, err := h.service.UpdateShop(r.Context(), middleware.UserIDFromContext(r.Context()), id.String(), service.UpdateShopInput{
		Name:  req.Name,
		About: req.About,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, shop)
}

// DeleteShop handles DELETE /api/shops/{shop}
func (h *ShopHandler) DeleteShop(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "shop"))
	if !ok {
		return
	}
	if err := h.service.DeleteShop(r.Context(), middleware.UserIDFromContext(r.Context()), id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ApproveShop handles POST /api/shops/{shop}/approve
func (h *ShopHandler) ApproveShop(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "shop"))
	if !ok {
		return
	}
	shop, err := h.service.ApproveShop(r.Context(), middleware.UserIDFromContext(r.Context()), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, shop)
}

// GetUserShop handles GET /api/user/{user_id}
func (h *ShopHandler) GetUserShop(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "user_id"))
	if !ok {
		return
	}
	shop, err := h.service.GetUserShop(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, shop)
}
