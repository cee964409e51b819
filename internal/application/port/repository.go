package port

import "context"

// SubscriberStore durable registry of notification endpoints
type SubscriberStore interface {
	// Upsert is idempotent: registering an existing id is a no-op
	Upsert(ctx context.Context, id string) error
	// ListAll returns a point-in-time snapshot of every subscriber id
	ListAll(ctx context.Context) ([]string, error)

	Close() error
}
