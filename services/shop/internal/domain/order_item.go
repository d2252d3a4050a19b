package domain

import (
	"time"
)

// OrderItemStatus is the fulfilment state of an order item.
type OrderItemStatus string

const (
	OrderItemProcessing OrderItemStatus = "processing"
	OrderItemShipped    OrderItemStatus = "shipped"
	OrderItemDelivered  OrderItemStatus = "delivered"
	OrderItemCancelled  OrderItemStatus = "cancelled"
)

// IsValidOrderItemStatus reports whether s is a known status.
func IsValidOrderItemStatus(s string) bool {
	switch OrderItemStatus(s) {
	case OrderItemProcessing, OrderItemShipped, OrderItemDelivered, OrderItemCancelled:
		return true
	}
	return false
}

// ShopOrderItem mirrors an order item sold by a shop. The order service
// owns the item; this copy only changes in reaction to its events or to the
// order service's answer to a status update.
type ShopOrderItem struct {
	ID               string          `json:"id"`
	ShopID           string          `json:"shop_id"`
	OrderID          string          `json:"order_id"`
	ProductID        string          `json:"product_id"`
	ProductVariation string          `json:"product_variation"`
	Quantity         int             `json:"quantity"`
	Price            int64           `json:"price"`
	Status           OrderItemStatus `json:"status"`
	UserID           string          `json:"user_id"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}
