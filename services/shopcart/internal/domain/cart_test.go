package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestItemCount(t *testing.T) {
	tests := []struct {
		name  string
		items []CartItem
		want  int
	}{
		{"nil items", nil, 0},
		{"single line", []CartItem{{VariationID: "v1", Quantity: 3}}, 3},
		{"several lines", []CartItem{{VariationID: "v1", Quantity: 2}, {VariationID: "v2", Quantity: 5}}, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Cart{Items: tt.items}
			assert.Equal(t, tt.want, c.ItemCount())
		})
	}
}

func TestFindItem(t *testing.T) {
	c := &Cart{Items: []CartItem{{VariationID: "v1"}, {VariationID: "v2"}}}

	assert.Equal(t, 1, c.FindItem("v2"))
	assert.Equal(t, -1, c.FindItem("v3"))
}

func TestRemoveAt(t *testing.T) {
	c := &Cart{Items: []CartItem{{VariationID: "v1"}, {VariationID: "v2"}, {VariationID: "v3"}}}

	c.RemoveAt(1)

	assert.Equal(t, []CartItem{{VariationID: "v1"}, {VariationID: "v3"}}, c.Items)
}

func TestNewCart(t *testing.T) {
	c := NewCart("u1")

	assert.Equal(t, "u1", c.UserID)
	assert.NotNil(t, c.Items)
	assert.Zero(t, c.Version)
}
