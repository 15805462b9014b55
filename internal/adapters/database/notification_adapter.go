package database

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/zatekoja/gymscheduler/internal/domain/entities"
	"github.com/zatekoja/gymscheduler/internal/domain/repositories"
	apperrors "github.com/zatekoja/gymscheduler/pkg/errors"
)

var notificationColumns = []interface{}{
	"id", "client_id", "notification_type", "channel", "recipient", "message", "status",
	"is_read", "message_id", "error_message", "created_at", "sent_at",
}

// NotificationAdapter implements the NotificationRepository interface
type NotificationAdapter struct {
	db DBTX
}

// NewNotificationAdapter creates a new notification adapter
func NewNotificationAdapter(db DBTX) *NotificationAdapter {
	return &NotificationAdapter{db: db}
}

// Create inserts a notification record
func (a *NotificationAdapter) Create(ctx context.Context, n *entities.Notification) error {
	query, args, err := build(dialect.Insert(tableNotification).Rows(goqu.Record{
		"id":                n.ID,
		"client_id":         n.ClientID,
		"notification_type": string(n.Type),
		"channel":           string(n.Channel),
		"recipient":         n.Recipient,
		"message":           n.Message,
		"status":            string(n.Status),
		"is_read":           n.IsRead,
		"message_id":        n.MessageID,
		"error_message":     n.ErrorMessage,
		"created_at":        n.CreatedAt,
		"sent_at":           n.SentAt,
	}).Prepared(true))
	if err != nil {
		return err
	}

	if _, err := a.db.ExecContext(ctx, query, args...); err != nil {
		return mapError(err, "", "failed to create notification")
	}
	return nil
}

// UpdateDelivery persists status, message ID, error and sent time
func (a *NotificationAdapter) UpdateDelivery(ctx context.Context, n *entities.Notification) error {
	query, args, err := build(dialect.Update(tableNotification).Set(goqu.Record{
		"status":        string(n.Status),
		"message_id":    n.MessageID,
		"error_message": n.ErrorMessage,
		"sent_at":       n.SentAt,
	}).Where(goqu.C("id").Eq(n.ID)).Prepared(true))
	if err != nil {
		return err
	}

	result, err := a.db.ExecContext(ctx, query, args...)
	if err != nil {
		return mapError(err, "", "failed to update notification")
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("notification with id %s not found", n.ID))
	}
	return nil
}

// ListByClient returns a client's notifications, newest first
func (a *NotificationAdapter) ListByClient(ctx context.Context, clientID int64) ([]*entities.Notification, error) {
	query, args, err := build(dialect.From(tableNotification).Select(notificationColumns...).
		Where(goqu.C("client_id").Eq(clientID)).
		Order(goqu.C("created_at").Desc(), goqu.C("id").Desc()).Prepared(true))
	if err != nil {
		return nil, err
	}

	notifications := []*entities.Notification{}
	if err := a.db.SelectContext(ctx, &notifications, query, args...); err != nil {
		return nil, mapError(err, "", "failed to list notifications")
	}
	return notifications, nil
}

// MarkRead flags a notification as read and returns it
func (a *NotificationAdapter) MarkRead(ctx context.Context, id string) (*entities.Notification, error) {
	query, args, err := build(dialect.Update(tableNotification).
		Set(goqu.Record{"is_read": true}).
		Where(goqu.C("id").Eq(id)).
		Returning(notificationColumns...).Prepared(true))
	if err != nil {
		return nil, err
	}

	n := &entities.Notification{}
	if err := a.db.GetContext(ctx, n, query, args...); err != nil {
		return nil, mapError(err, fmt.Sprintf("notification with id %s not found", id), "failed to mark notification read")
	}
	return n, nil
}

// SettingsAdapter implements the SettingsRepository interface
type SettingsAdapter struct {
	db DBTX
}

// NewSettingsAdapter creates a new settings adapter
func NewSettingsAdapter(db DBTX) *SettingsAdapter {
	return &SettingsAdapter{db: db}
}

// Get returns the value for key
func (a *SettingsAdapter) Get(ctx context.Context, key string) (string, error) {
	query, args, err := build(dialect.From(tableSettings).Select("value").
		Where(goqu.C("key").Eq(key)).Prepared(true))
	if err != nil {
		return "", err
	}

	var value string
	if err := a.db.GetContext(ctx, &value, query, args...); err != nil {
		return "", mapError(err, fmt.Sprintf("setting %s not found", key), "failed to get setting")
	}
	return value, nil
}

// Set inserts or replaces the value for key
func (a *SettingsAdapter) Set(ctx context.Context, key, value string) error {
	query, args, err := build(dialect.Insert(tableSettings).
		Rows(goqu.Record{"key": key, "value": value}).
		OnConflict(goqu.DoUpdate("key", goqu.Record{"value": goqu.L("EXCLUDED.value")})).
		Prepared(true))
	if err != nil {
		return err
	}

	if _, err := a.db.ExecContext(ctx, query, args...); err != nil {
		return mapError(err, "", "failed to store setting")
	}
	return nil
}

var (
	_ repositories.NotificationRepository = (*NotificationAdapter)(nil)
	_ repositories.SettingsRepository     = (*SettingsAdapter)(nil)
)
