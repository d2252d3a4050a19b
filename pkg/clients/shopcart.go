package clients

import (
	"context"
	"net/http"

	"github.com/utafrali/shopmesh/pkg/httpclient"
)

// CartItem is one line of a cart.
type CartItem struct {
	VariationID string `json:"variation_id"`
	Quantity    int    `json:"quantity"`
}

// Cart is the caller's shopping cart.
type Cart struct {
	UserID string     `json:"user_id"`
	Items  []CartItem `json:"items"`
}

// ShopCartClient reads and clears the calling user's cart. The user is taken
// from the principal in the request context.
type ShopCartClient struct{ peer }

// NewShopCartClient creates a client for the shopcart service at baseURL.
func NewShopCartClient(baseURL string, doer httpclient.Doer) *ShopCartClient {
	return &ShopCartClient{newPeer("shopcart-service", baseURL, doer)}
}

// GetCart returns the caller's cart.
func (c *ShopCartClient) GetCart(ctx context.Context) (*Cart, error) {
	var cart Cart
	if err := c.call(ctx, http.MethodGet, "/api/shopcart/", nil, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// ClearCart empties the caller's cart.
func (c *ShopCartClient) ClearCart(ctx context.Context) error {
	return c.call(ctx, http.MethodDelete, "/api/shopcart/", nil, nil)
}
