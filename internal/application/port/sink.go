package port

import (
	"context"

	"tickalert/internal/domain/model"
)

// Deliverer sends one rendered message to one subscriber
type Deliverer interface {
	Name() string
	Deliver(ctx context.Context, subscriberID, text string) error
}

// AlertPublisher side channel receiving every dispatched alert (event bus, stream, console)
type AlertPublisher interface {
	Name() string
	Publish(ctx context.Context, alert *model.Alert) error
}
