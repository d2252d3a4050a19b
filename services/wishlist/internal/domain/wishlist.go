package domain

import "time"

// WishlistItem is a product variation saved by a user.
type WishlistItem struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"user_id"`
	ProductVariationID string    `json:"product_variation_id"`
	ProductID          string    `json:"product_id"`
	ShopID             string    `json:"shop_id"`
	CreatedAt          time.Time `json:"created_at"`
}

// KnownUser is a user announced by the user service. Only known users may
// keep a wishlist.
type KnownUser struct {
	ID       string
	Email    string
	Username string
	IsActive bool
}
