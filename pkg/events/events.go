// Package events defines the payloads exchanged on the event bus and the
// exchanges and routing keys they travel on. The routing key always equals
// the payload's event_type.
package events

import (
	"encoding/json"
	"time"

	"github.com/utafrali/shopmesh/pkg/eventbus"
)

// Exchanges, one per publishing domain.
const (
	ShopExchange     = "shop_events"
	ProductExchange  = "product_events"
	OrderExchange    = "order_events"
	WishlistExchange = "wishlist_events"
	UserExchange     = "user_events"
)

// Routing keys.
const (
	ShopCreated  = "shop.created"
	ShopApproved = "shop.approved"
	ShopUpdated  = "shop.updated"
	ShopDeleted  = "shop.deleted"

	ProductCreated = "product.created"
	ProductUpdated = "product.updated"
	ProductDeleted = "product.deleted"

	VariationCreated = "product.variation.created"
	VariationUpdated = "product.variation.updated"
	VariationDeleted = "product.variation.deleted"

	OrderCreated           = "order.created"
	OrderItemCreated       = "order.item.created"
	OrderItemStatusUpdated = "order.item.status.updated"

	WishlistCreated = "wishlist.created"
	WishlistDeleted = "wishlist.deleted"

	UserCreated = "user.created"
)

// ShopData is the shop snapshot carried by shop events.
type ShopData struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	About     string    `json:"about,omitempty"`
	UserID    string    `json:"user"`
	Status    string    `json:"status"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// ShopEvent is published on ShopExchange.
type ShopEvent struct {
	EventType   string    `json:"event_type"`
	UserUUID    string    `json:"user_uuid"`
	ShopID      string    `json:"shop_id"`
	IsShopOwner bool      `json:"is_shop_owner"`
	ShopData    *ShopData `json:"shop_data,omitempty"`
}

// ProductData is the product snapshot carried by product events.
type ProductData struct {
	ID         string    `json:"id"`
	ShopID     string    `json:"shop_id"`
	Title      string    `json:"title"`
	About      string    `json:"about"`
	OnSale     bool      `json:"on_sale"`
	IsActive   bool      `json:"is_active"`
	TopSale    bool      `json:"top_sale"`
	TopPopular bool      `json:"top_popular"`
	SKU        string    `json:"sku"`
	CreatedAt  time.Time `json:"created_at"`
}

// ProductEvent is published on ProductExchange. Deletes omit ProductData.
type ProductEvent struct {
	EventType   string       `json:"event_type"`
	ProductID   string       `json:"product_id"`
	ProductData *ProductData `json:"product_data,omitempty"`
}

// VariationData is the variation snapshot carried by variation events.
// Prices are in minor units.
type VariationData struct {
	ID          string `json:"id"`
	ProductID   string `json:"product_id"`
	Size        string `json:"size"`
	Color       string `json:"color"`
	Price       int64  `json:"price"`
	Discount    int64  `json:"discount"`
	AmountLimit int    `json:"amount_limit"`
	IsActive    bool   `json:"is_active"`
}

// VariationEvent is published on ProductExchange.
type VariationEvent struct {
	EventType     string         `json:"event_type"`
	VariationID   string         `json:"variation_id"`
	ProductID     string         `json:"product_id"`
	VariationData *VariationData `json:"variation_data,omitempty"`
}

// OrderCreatedEvent is published once per checkout.
type OrderCreatedEvent struct {
	EventType  string `json:"event_type"`
	OrderID    string `json:"order_id"`
	UserID     string `json:"user_id"`
	TotalPrice int64  `json:"total_price"`
	ItemCount  int    `json:"item_count"`
}

// OrderItemCreatedEvent is published for every item of a new order.
type OrderItemCreatedEvent struct {
	EventType        string `json:"event_type"`
	OrderItemID      string `json:"order_item_id"`
	OrderID          string `json:"order_id"`
	ShopID           string `json:"shop_id"`
	ProductID        string `json:"product_id"`
	ProductVariation string `json:"product_variation"`
	Quantity         int    `json:"quantity"`
	Price            int64  `json:"price"`
	Status           string `json:"status"`
	UserID           string `json:"user_id"`
}

// OrderItemStatusUpdatedEvent is published when an item changes status.
type OrderItemStatusUpdatedEvent struct {
	EventType   string `json:"event_type"`
	OrderItemID string `json:"order_item_id"`
	OrderID     string `json:"order_id"`
	ShopID      string `json:"shop_id"`
	Status      string `json:"status"`
}

// WishlistCreatedEvent is published when a variation is added to a wishlist.
type WishlistCreatedEvent struct {
	EventType          string `json:"event_type"`
	WishlistID         string `json:"wishlist_id"`
	UserID             string `json:"user_id"`
	ProductVariationID string `json:"product_variation_id"`
	ShopID             string `json:"shop_id,omitempty"`
}

// WishlistDeletedEvent is published when a wishlist entry is removed.
type WishlistDeletedEvent struct {
	EventType  string `json:"event_type"`
	WishlistID string `json:"wishlist_id"`
	UserID     string `json:"user_id"`
}

// UserCreatedEvent is published after registration.
type UserCreatedEvent struct {
	EventType string `json:"event_type"`
	UserUUID  string `json:"user_uuid"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	IsActive  bool   `json:"is_active"`
}

// Decode unmarshals msg.Body into T. A body that does not parse is reported
// as eventbus.ErrMalformed so the delivery is dropped instead of requeued.
func Decode[T any](msg eventbus.Message) (T, error) {
	var v T
	if err := json.Unmarshal(msg.Body, &v); err != nil {
		return v, eventbus.Malformed(err)
	}
	return v, nil
}
