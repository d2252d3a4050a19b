package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/utafrali/shopmesh/pkg/errors"
	"github.com/utafrali/shopmesh/pkg/httputil"
	"github.com/utafrali/shopmesh/pkg/middleware"
	"github.com/utafrali/shopmesh/pkg/pagination"
	"github.com/utafrali/shopmesh/pkg/validator"
	"github.com/utafrali/shopmesh/services/product/internal/service"
)

// ProductHandler handles HTTP requests for product and variation endpoints.
type ProductHandler struct {
	service *service.ProductService
	logger  *slog.Logger
}

// NewProductHandler creates a new product HTTP handler.
func NewProductHandler(svc *service.ProductService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// CreateProductRequest is the JSON request body for creating a product.
type CreateProductRequest struct {
	Title      string `json:"title" validate:"required,min=1,max=255"`
	About      string `json:"about" validate:"max=10000"`
	SKU        string `json:"sku" validate:"max=100"`
	OnSale     bool   `json:"on_sale"`
	IsActive   *bool  `json:"is_active"`
	TopSale    bool   `json:"top_sale"`
	TopPopular bool   `json:"top_popular"`
}

// UpdateProductRequest is the JSON request body for updating a product.
type UpdateProductRequest struct {
	Title      *string `json:"title" validate:"omitempty,min=1,max=255"`
	About      *string `json:"about" validate:"omitempty,max=10000"`
	SKU        *string `json:"sku" validate:"omitempty,max=100"`
	OnSale     *bool   `json:"on_sale"`
	IsActive   *bool   `json:"is_active"`
	TopSale    *bool   `json:"top_sale"`
	TopPopular *bool   `json:"top_popular"`
}

// CreateVariationRequest is the JSON request body for adding a variation.
type CreateVariationRequest struct {
	Size        string `json:"size" validate:"max=50"`
	Color       string `json:"color" validate:"max=50"`
	Price       int64  `json:"price" validate:"gte=0"`
	Discount    int64  `json:"discount" validate:"gte=0,ltefield=Price"`
	AmountLimit int    `json:"amount_limit" validate:"gte=0"`
	IsActive    *bool  `json:"is_active"`
}

// UpdateVariationRequest is the JSON request body for updating a variation.
type UpdateVariationRequest struct {
	Size        *string `json:"size" validate:"omitempty,max=50"`
	Color       *string `json:"color" validate:"omitempty,max=50"`
	Price       *int64  `json:"price" validate:"omitempty,gte=0"`
	Discount    *int64  `json:"discount" validate:"omitempty,gte=0"`
	AmountLimit *int    `json:"amount_limit" validate:"omitempty,gte=0"`
	IsActive    *bool   `json:"is_active"`
}

// --- Product handlers ---

// ListProducts handles GET /api/products
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var in service.ListProductsInput

	if v := q.Get("shop_id"); v != "" {
		id, ok := httputil.ParseUUID(w, v)
		if !ok {
			return
		}
		s := id.String()
		in.ShopID = &s
	}
	if v := q.Get("q"); v != "" {
		in.Search = &v
	}
	if v := q.Get("on_sale"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			httputil.WriteError(w, r, apperrors.InvalidInput("on_sale must be a boolean"), h.logger)
			return
		}
		in.OnSale = &b
	}

	res, err := h.service.ListProducts(r.Context(), in, pagination.FromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, res)
}

// CreateProduct handles POST /api/products
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	product, err := h.service.CreateProduct(r.Context(), middleware.UserIDFromContext(r.Context()), service.CreateProductInput{
		Title:      req.Title,
		About:      req.About,
		SKU:        req.SKU,
		OnSale:     req.OnSale,
		IsActive:   req.IsActive,
		TopSale:    req.TopSale,
		TopPopular: req.TopPopular,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, product)
}

// GetProduct handles GET /api/products/{product_id}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "product_id"))
	if !ok {
		return
	}
	product, err := h.service.GetProduct(r.Context(), middleware.UserIDFromContext(r.Context()), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, product)
}

// UpdateProduct handles PATCH /api/products/{product_id}
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "product_id"))
	if !ok {
		return
	}
	var req UpdateProductRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	product, err := h.service.UpdateProduct(r.Context(), middleware.UserIDFromContext(r.Context()), id.String(), service.UpdateProductInput{
		Title:      req.Title,
		About:      req.About,
		SKU:        req.SKU,
		OnSale:     req.OnSale,
		IsActive:   req.IsActive,
		TopSale:    req.TopSale,
		TopPopular: req.TopPopular,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, product)
}

// DeleteProduct handles DELETE /api/products/{product_id}
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "product_id"))
	if !ok {
		return
	}
	if err := h.service.DeleteProduct(r.Context(), middleware.UserIDFromContext(r.Context()), id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Variation handlers ---

// ListVariations handles GET /api/products/{product_id}/variations
func (h *ProductHandler) ListVariations(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "product_id"))
	if !ok {
		return
	}
	variations, err := h.service.ListVariations(r.Context(), middleware.UserIDFromContext(r.Context()), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, variations)
}

// CreateVariation handles POST /api/products/{product_id}/variations
func (h *ProductHandler) CreateVariation(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "product_id"))
	if !ok {
		return
	}
	var req CreateVariationRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	v, err := h.service.CreateVariation(r.Context(), middleware.UserIDFromContext(r.Context()), id.String(), service.VariationInput{
		Size:        req.Size,
		Color:       req.Color,
		Price:       req.Price,
		Discount:    req.Discount,
		AmountLimit: req.AmountLimit,
		IsActive:    req.IsActive,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, v)
}

// GetVariation handles GET /api/products/variations/{variation_id}
func (h *ProductHandler) GetVariation(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "variation_id"))
	if !ok {
		return
	}
	v, err := h.service.GetVariation(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, v)
}

// UpdateVariation handles PATCH /api/products/variations/{variation_id}
func (h *ProductHandler) UpdateVariation(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "variation_id"))
	if !ok {
		return
	}
	var req UpdateVariationRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	v, err := h.service.UpdateVariation(r.Context(), middleware.UserIDFromContext(r.Context()), id.String(), service.UpdateVariationInput{
		Size:        req.Size,
		Color:       req.Color,
		Price:       req.Price,
		Discount:    req.Discount,
		AmountLimit: req.AmountLimit,
		IsActive:    req.IsActive,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, v)
}

// DeleteVariation handles DELETE /api/products/variations/{variation_id}
func (h *ProductHandler) DeleteVariation(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "variation_id"))
	if !ok {
		return
	}
	if err := h.service.DeleteVariation(r.Context(), middleware.UserIDFromContext(r.Context()), id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
