package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestVariation_UnitPrice(t *testing.T) {
	tests := []struct {
		name     string
		price    int64
		discount int64
		want     int64
	}{
		{"no discount", 1000, 0, 1000},
		{"discounted", 1000, 250, 750},
		{"discount above price", 500, 900, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Variation{Price: tt.price, Discount: tt.discount}
			assert.Equal(t, tt.want, v.UnitPrice())
		})
	}
}

func TestProduct_EventData(t *testing.T) {
	created := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	p := Product{ID: "P1", ShopID: "S1", Title: "Shoe", SKU: "SH-1", OnSale: true, IsActive: true, CreatedAt: created}

	d := p.EventData()
	assert.Equal(t, "P1", d.ID)
	assert.Equal(t, "S1", d.ShopID)
	assert.Equal(t, "SH-1", d.SKU)
	assert.True(t, d.OnSale)
	assert.Equal(t, created, d.CreatedAt)
}

func TestVariation_EventData(t *testing.T) {
	v := Variation{ID: "V1", ProductID: "P1", Size: "42", Color: "red", Price: 4999, Discount: 500, AmountLimit: 3, IsActive: true}

	d := v.EventData()
	assert.Equal(t, "V1", d.ID)
	assert.Equal(t, "P1", d.ProductID)
	assert.Equal(t, int64(500), d.Discount)
	assert.Equal(t, 3, d.AmountLimit)
}
