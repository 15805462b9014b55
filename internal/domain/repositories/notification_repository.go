package repositories

import (
	"context"

	"github.com/zatekoja/gymscheduler/internal/domain/entities"
)

// NotificationRepository is the notification sink
type NotificationRepository interface {
	// Create inserts a notification record
	Create(ctx context.Context, notification *entities.Notification) error

	// UpdateDelivery persists status, message ID, error and sent time
	UpdateDelivery(ctx context.Context, notification *entities.Notification) error

	// ListByClient returns a client's notifications, newest first
	ListByClient(ctx context.Context, clientID int64) ([]*entities.Notification, error)

	// MarkRead flags a notification as read
	MarkRead(ctx context.Context, id string) (*entities.Notification, error)
}

// SettingsRepository stores system key/value settings
type SettingsRepository interface {
	// Get returns the value for key or a not found error
	Get(ctx context.Context, key string) (string, error)

	// Set inserts or replaces the value for key
	Set(ctx context.Context, key, value string) error
}
