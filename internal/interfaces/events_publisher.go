package interfaces

import (
	"context"

	"github.com/campusride/wallet-ledger/internal/models"
)

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event any) error
}

// Notifier delivers account notifications. Delivery is best effort.
type Notifier interface {
	Notify(ctx context.Context, n models.Notification) error
}
