package domain

import "time"

// Cart is a user's shopping cart. Version increases with every write.
type Cart struct {
	UserID    string     `json:"user_id"`
	Items     []CartItem `json:"items"`
	Version   int        `json:"version"`
	UpdatedAt time.Time  `json:"updated_at"`
	ExpiresAt time.Time  `json:"expires_at"`
}

// CartItem is one product variation in the cart.
type CartItem struct {
	VariationID string    `json:"variation_id"`
	ProductID   string    `json:"product_id"`
	Quantity    int       `json:"quantity"`
	AddedAt     time.Time `json:"added_at"`
}

// NewCart returns an empty, unsaved cart for userID.
func NewCart(userID string) *Cart {
	return &Cart{UserID: userID, Items: []CartItem{}}
}

// ItemCount returns the total quantity across all lines.
func (c *Cart) ItemCount() int {
	var count int
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

// FindItem returns the index of the line for variationID, or -1.
func (c *Cart) FindItem(variationID string) int {
	for i := range c.Items {
		if c.Items[i].VariationID == variationID {
			return i
		}
	}
	return -1
}

// RemoveAt drops the line at index i.
func (c *Cart) RemoveAt(i int) {
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
}
