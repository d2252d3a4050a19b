// Package domain holds the documents kept in the search indices.
package domain

import (
	"errors"
	"time"
)

// Index names.
const (
	IndexShops      = "shops"
	IndexProducts   = "products"
	IndexVariations = "variations"
)

// Indices lists every index the service owns.
var Indices = []string{IndexShops, IndexProducts, IndexVariations}

// ErrIndexNotFound is returned when a query targets an index that has not
// been created yet, typically before the first document of its kind.
var ErrIndexNotFound = errors.New("search index does not exist")

// Shop is the shop document.
type Shop struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	About     string    `json:"about,omitempty"`
	UserID    string    `json:"user_id"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// Product is the product document. ShopID is a keyword field so that
// products can be listed per shop with a term query.
type Product struct {
	ID         string    `json:"id"`
	ShopID     string    `json:"shop_id"`
	Title      string    `json:"title"`
	About      string    `json:"about,omitempty"`
	OnSale     bool      `json:"on_sale"`
	IsActive   bool      `json:"is_active"`
	TopSale    bool      `json:"top_sale"`
	TopPopular bool      `json:"top_popular"`
	SKU        string    `json:"sku,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Variation is the product variation document. Prices are minor units.
type Variation struct {
	ID          string `json:"id"`
	ProductID   string `json:"product_id"`
	Size        string `json:"size,omitempty"`
	Color       string `json:"color,omitempty"`
	Price       int64  `json:"price"`
	Discount    int64  `json:"discount"`
	AmountLimit int    `json:"amount_limit"`
	IsActive    bool   `json:"is_active"`
}

// Results is the answer to a free-text query. A type whose query failed is
// an empty list.
type Results struct {
	Shops    []Shop    `json:"shops"`
	Products []Product `json:"products"`
}

// Size bounds.
const (
	DefaultSize = 10
	MaxSize     = 100
)

// ClampSize applies the default and upper bound to a requested size.
func ClampSize(size int) int {
	switch {
	case size <= 0:
		return DefaultSize
	case size > MaxSize:
		return MaxSize
	default:
		return size
	}
}
