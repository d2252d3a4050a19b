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

// OrderItemHandler serves a shop owner's view of their order items.
type OrderItemHandler struct {
	service *service.OrderItemService
	logger  *slog.Logger
}

// NewOrderItemHandler creates a new order item HTTP handler.
func NewOrderItemHandler(svc *service.OrderItemService, logger *slog.Logger) *OrderItemHandler {
	return &OrderItemHandler{
		service: svc,
		logger:  logger,
	}
}

// UpdateStatusRequest is the JSON request body for changing an item's status.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=processing shipped delivered cancelled"`
}

// List handles GET /api/shops/{shop}/order-items
func (h *OrderItemHandler) List(w http.ResponseWriter, r *http.Request) {
	shopID, ok := httputil.ParseUUID(w, chi.URLParam(r, "shop"))
	if !ok {
		return
	}
	res, err := h.service.List(r.Context(), middleware.UserIDFromContext(r.Context()), shopID.String(), pagination.FromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, res)
}

// Get handles GET /api/shops/{shop}/order-items/{item_id}
func (h *OrderItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	shopID, ok := httputil.ParseUUID(w, chi.URLParam(r, "shop"))
	if !ok {
		return
	}
	item, err := h.service.Get(r.Context(), middleware.UserIDFromContext(r.Context()), shopID.String(), chi.URLParam(r, "item_id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, item)
}

// UpdateStatus handles PATCH /api/shops/{shop}/order-items/{item_id}/status
func (h *OrderItemHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	shopID, ok := httputil.ParseUUID(w, chi.URLParam(r, "shop"))
	if !ok {
		return
	}
	var req UpdateStatusRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	item, err := h.service.UpdateStatus(r.Context(), middleware.UserIDFromContext(r.Context()),
		shopID.String(), chi.URLParam(r, "item_id"), req.Status)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, item)
}
