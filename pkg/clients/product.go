package clients

import (
	"context"
	"net/http"
	"net/url"

	"github.com/utafrali/shopmesh/pkg/httpclient"
)

// Product is the part of a product its peers rely on.
type Product struct {
	ID       string `json:"id"`
	ShopID   string `json:"shop_id"`
	Title    string `json:"title"`
	IsActive bool   `json:"is_active"`
}

// Variation is a purchasable variant of a product. Prices are minor units.
type Variation struct {
	ID          string `json:"id"`
	ProductID   string `json:"product_id"`
	Price       int64  `json:"price"`
	Discount    int64  `json:"discount"`
	AmountLimit int    `json:"amount_limit"`
	IsActive    bool   `json:"is_active"`
}

// UnitPrice is the price after discount, never below zero.
func (v Variation) UnitPrice() int64 {
	if p := v.Price - v.Discount; p > 0 {
		return p
	}
	return 0
}

// ProductClient reads products and variations from the product service.
type ProductClient struct{ peer }

// NewProductClient creates a client for the product service at baseURL.
func NewProductClient(baseURL string, doer httpclient.Doer) *ProductClient {
	return &ProductClient{newPeer("product-service", baseURL, doer)}
}

// GetProduct returns the product with the given id.
func (c *ProductClient) GetProduct(ctx context.Context, id string) (*Product, error) {
	var p Product
	if err := c.call(ctx, http.MethodGet, "/api/products/"+url.PathEscape(id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetVariation returns the variation with the given id.
func (c *ProductClient) GetVariation(ctx context.Context, id string) (*Variation, error) {
	var v Variation
	if err := c.call(ctx, http.MethodGet, "/api/products/variations/"+url.PathEscape(id), nil, &v); err != nil {
		return nil, err
	}
	return &v, nil
}
