package domain

import (
	"slices"
	"time"
)

// ItemStatus is the fulfilment state of one order item.
type ItemStatus string

// Item status constants.
const (
	ItemStatusProcessing ItemStatus = "processing"
	ItemStatusShipped    ItemStatus = "shipped"
	ItemStatusDelivered  ItemStatus = "delivered"
	ItemStatusCancelled  ItemStatus = "cancelled"
)

// Valid reports whether s is a known status.
func (s ItemStatus) Valid() bool {
	switch s {
	case ItemStatusProcessing, ItemStatusShipped, ItemStatusDelivered, ItemStatusCancelled:
		return true
	}
	return false
}

// allowedTransitions lists the statuses an item may move to from each status.
var allowedTransitions = map[ItemStatus][]ItemStatus{
	ItemStatusProcessing: {ItemStatusShipped, ItemStatusCancelled},
	ItemStatusShipped:    {ItemStatusDelivered, ItemStatusCancelled},
	ItemStatusDelivered:  {},
	ItemStatusCancelled:  {},
}

// Order is one checkout. Its items may belong to different shops.
type Order struct {
	ID         string      `json:"id"`
	UserID     string      `json:"user_id"`
	TotalPrice int64       `json:"total_price"`
	Items      []OrderItem `json:"items"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// Total sums the line totals of the order's items.
func (o *Order) Total() int64 {
	var total int64
	for i := range o.Items {
		total += o.Items[i].LineTotal()
	}
	return total
}

// OrderItem is one line of an order. Price is the unit price, in minor units,
// at the time of checkout.
type OrderItem struct {
	ID               string     `json:"id"`
	OrderID          string     `json:"order_id"`
	UserID           string     `json:"user_id"`
	ShopID           string     `json:"shop_id"`
	ProductID        string     `json:"product_id"`
	ProductVariation string     `json:"product_variation"`
	Quantity         int        `json:"quantity"`
	Price            int64      `json:"price"`
	Status           ItemStatus `json:"status"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// LineTotal returns the total price for this line item.
func (i *OrderItem) LineTotal() int64 {
	return i.Price * int64(i.Quantity)
}

// CanTransitionTo checks if the item can move to the target status.
func (i *OrderItem) CanTransitionTo(target ItemStatus) bool {
	return slices.Contains(allowedTransitions[i.Status], target)
}
