package entities

import "time"

// NotificationChannel represents the delivery channel
type NotificationChannel string

const (
	ChannelInApp    NotificationChannel = "in_app"
	ChannelWhatsApp NotificationChannel = "whatsapp"
)

// NotificationType represents the notification purpose
type NotificationType string

const (
	NotificationScheduleFailure     NotificationType = "schedule_failure"
	NotificationBookingConfirmation NotificationType = "booking_confirmation"
)

// NotificationStatus represents the delivery status
type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "pending"
	NotificationStatusSent    NotificationStatus = "sent"
	NotificationStatusFailed  NotificationStatus = "failed"
)

// Notification is an insert-only record of an event addressed to a client.
// In-app notifications are created sent; outbound ones move from pending to sent or failed.
type Notification struct {
	ID           string              `json:"id" db:"id"`
	ClientID     int64               `json:"client_id" db:"client_id"`
	Type         NotificationType    `json:"type" db:"notification_type"`
	Channel      NotificationChannel `json:"channel" db:"channel"`
	Recipient    string              `json:"recipient,omitempty" db:"recipient"`
	Message      string              `json:"message" db:"message"`
	Status       NotificationStatus  `json:"status" db:"status"`
	IsRead       bool                `json:"is_read" db:"is_read"`
	MessageID    *string             `json:"message_id,omitempty" db:"message_id"`
	ErrorMessage *string             `json:"error_message,omitempty" db:"error_message"`
	CreatedAt    time.Time           `json:"created_at" db:"created_at"`
	SentAt       *time.Time          `json:"sent_at,omitempty" db:"sent_at"`
}

// SystemSetting is a key/value pair of application state
type SystemSetting struct {
	Key   string `json:"key" db:"key"`
	Value string `json:"value" db:"value"`
}

// SettingSystemWeek holds the week the front desk is currently planning.
const SettingSystemWeek = "system_week"
