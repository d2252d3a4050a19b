package domain

import (
	"time"

	"github.com/utafrali/shopmesh/pkg/events"
)

// Product is an item sold by a shop. Prices live on its variations.
type Product struct {
	ID         string    `json:"id"`
	ShopID     string    `json:"shop_id"`
	Title      string    `json:"title"`
	About      string    `json:"about"`
	SKU        string    `json:"sku"`
	OnSale     bool      `json:"on_sale"`
	IsActive   bool      `json:"is_active"`
	TopSale    bool      `json:"top_sale"`
	TopPopular bool      `json:"top_popular"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// EventData is the snapshot carried by product events.
func (p *Product) EventData() *events.ProductData {
	return &events.ProductData{
		ID:         p.ID,
		ShopID:     p.ShopID,
		Title:      p.Title,
		About:      p.About,
		OnSale:     p.OnSale,
		IsActive:   p.IsActive,
		TopSale:    p.TopSale,
		TopPopular: p.TopPopular,
		SKU:        p.SKU,
		CreatedAt:  p.CreatedAt,
	}
}

// Variation is a purchasable variant of a product. Price and Discount are in
// minor units; AmountLimit caps the quantity of one order line, zero meaning
// no limit.
type Variation struct {
	ID          string    `json:"id"`
	ProductID   string    `json:"product_id"`
	Size        string    `json:"size"`
	Color       string    `json:"color"`
	Price       int64     `json:"price"`
	Discount    int64     `json:"discount"`
	AmountLimit int       `json:"amount_limit"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UnitPrice is the price after discount, never below zero.
func (v *Variation) UnitPrice() int64 {
	if p := v.Price - v.Discount; p > 0 {
		return p
	}
	return 0
}

// EventData is the snapshot carried by variation events.
func (v *Variation) EventData() *events.VariationData {
	return &events.VariationData{
		ID:          v.ID,
		ProductID:   v.ProductID,
		Size:        v.Size,
		Color:       v.Color,
		Price:       v.Price,
		Discount:    v.Discount,
		AmountLimit: v.AmountLimit,
		IsActive:    v.IsActive,
	}
}
