package clients

import (
	"context"
	"net/http"
	"net/url"

	"github.com/utafrali/shopmesh/pkg/httpclient"
)

// Shop is the part of a shop its peers rely on.
type Shop struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	UserID   string `json:"user"`
	Status   string `json:"status"`
	IsActive bool   `json:"is_active"`
}

// ShopClient reads shops from the shop service.
type ShopClient struct{ peer }

// NewShopClient creates a client for the shop service at baseURL.
func NewShopClient(baseURL string, doer httpclient.Doer) *ShopClient {
	return &ShopClient{newPeer("shop-service", baseURL, doer)}
}

// GetShop returns the shop with the given id.
func (c *ShopClient) GetShop(ctx context.Context, shopID string) (*Shop, error) {
	var s Shop
	if err := c.call(ctx, http.MethodGet, "/api/shops/"+url.PathEscape(shopID)+"/", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// GetUserShop returns the shop owned by userID.
func (c *ShopClient) GetUserShop(ctx context.Context, userID string) (*Shop, error) {
	var s Shop
	if err := c.call(ctx, http.MethodGet, "/api/user/"+url.PathEscape(userID)+"/", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
