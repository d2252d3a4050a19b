// Package event publishes user events and records shop ownership from the
// shop service's events.
package event

import (
	"context"
	"log/slog"

	"github.com/utafrali/shopmesh/pkg/eventbus"
	"github.com/utafrali/shopmesh/pkg/events"
	"github.com/utafrali/shopmesh/services/user/internal/domain"
)

// SourceUserService identifies events originating from this service.
const SourceUserService = "user-service"

// Producer publishes user events. Publishing is best effort.
type Producer struct {
	emitter *events.Emitter
}

// NewProducer creates a producer on publisher.
func NewProducer(publisher eventbus.Publisher, logger *slog.Logger) *Producer {
	return &Producer{emitter: events.NewEmitter(publisher, SourceUserService, logger)}
}

// UserCreated publishes user.created.
func (p *Producer) UserCreated(ctx context.Context, u *domain.User) {
	p.emitter.Emit(ctx, events.UserExchange, events.UserCreated, u.ID, events.UserCreatedEvent{
		EventType: events.UserCreated,
		UserUUID:  u.ID,
		Email:     u.Email,
		Username:  u.Username,
		IsActive:  u.IsActive,
	})
}
