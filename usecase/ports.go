package usecase

import (
	"context"

	"github.com/fastygo/portfolio/domain"
)

// EventPublisher sends one domain event to the durable event log.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
}

// EventBuffer parks events the log did not accept so they can be republished out of band.
type EventBuffer interface {
	Park(ctx context.Context, events []domain.Event, cause error) error
}
