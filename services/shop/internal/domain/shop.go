// Package domain holds the shop service's entities.
package domain

import (
	"time"

	"github.com/utafrali/shopmesh/pkg/events"
)

// ShopStatus is the moderation state of a shop.
type ShopStatus string

const (
	ShopStatusPending  ShopStatus = "pending"
	ShopStatusApproved ShopStatus = "approved"
	ShopStatusRejected ShopStatus = "rejected"
)

// Shop is a storefront owned by exactly one user.
type Shop struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Slug      string     `json:"slug"`
	About     string     `json:"about"`
	UserID    string     `json:"user"`
	Status    ShopStatus `json:"status"`
	IsActive  bool       `json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// IsPublic reports whether the shop is visible to anonymous visitors.
func (s *Shop) IsPublic() bool {
	return s.IsActive && s.Status == ShopStatusApproved
}

// OwnedBy reports whether userID owns the shop.
func (s *Shop) OwnedBy(userID string) bool {
	return userID != "" && s.UserID == userID
}

// EventData is the snapshot carried by shop events.
func (s *Shop) EventData() *events.ShopData {
	return &events.ShopData{
		ID:        s.ID,
		Name:      s.Name,
		Slug:      s.Slug,
		About:     s.About,
		UserID:    s.UserID,
		Status:    string(s.Status),
		IsActive:  s.IsActive,
		CreatedAt: s.CreatedAt,
	}
}
