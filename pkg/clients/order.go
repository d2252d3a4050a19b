package clients

import (
	"context"
	"net/http"
	"net/url"

	"github.com/utafrali/shopmesh/pkg/httpclient"
)

// OrderItem is the authoritative order item held by the order service.
type OrderItem struct {
	ID               string `json:"id"`
	OrderID          string `json:"order_id"`
	ShopID           string `json:"shop_id"`
	ProductVariation string `json:"product_variation"`
	Quantity         int    `json:"quantity"`
	Price            int64  `json:"price"`
	Status           string `json:"status"`
}

// OrderClient updates order items in the order service.
type OrderClient struct{ peer }

// NewOrderClient creates a client for the order service at baseURL.
func NewOrderClient(baseURL string, doer httpclient.Doer) *OrderClient {
	return &OrderClient{newPeer("order-service", baseURL, doer)}
}

type statusRequest struct {
	Status string `json:"status"`
}

// UpdateItemStatus sets the status of an order item on behalf of the calling
// shop owner.
func (c *OrderClient) UpdateItemStatus(ctx context.Context, itemID, status string) (*OrderItem, error) {
	var item OrderItem
	path := "/api/orders/items/" + url.PathEscape(itemID) + "/status"
	if err := c.call(ctx, http.MethodPatch, path, statusRequest{Status: status}, &item); err != nil {
		return nil, err
	}
	return &item, nil
}
