package types

import "time"

// NotificationCategory groups notifications by the entity that produced them.
type NotificationCategory string

// Supported notification categories.
const (
	NotificationJob         NotificationCategory = "job"
	NotificationApplication NotificationCategory = "application"
	NotificationAccount     NotificationCategory = "account"
	NotificationSystem      NotificationCategory = "system"
)

// NotificationPriority orders notifications for display.
type NotificationPriority string

// Supported notification priorities.
const (
	PriorityLow    NotificationPriority = "low"
	PriorityNormal NotificationPriority = "normal"
	PriorityHigh   NotificationPriority = "high"
)

// Notification is a per-user message created as a side effect of a
// lifecycle transition. Notifications expire and are filtered out of
// listings after ExpiresAt.
type Notification struct {
	// ID is the unique identifier of the notification.
	ID int `json:"id" db:"id"`

	// UserID identifies the recipient.
	UserID int `json:"user_id" db:"user_id"`

	// Title is a short headline for the notification.
	Title string `json:"title" db:"title"`

	// Message is the notification body.
	Message string `json:"message" db:"message"`

	// Category groups the notification by origin.
	Category NotificationCategory `json:"category" db:"category"`

	// Priority orders the notification for display.
	Priority NotificationPriority `json:"priority" db:"priority"`

	// IsRead is set when the recipient marks the notification read.
	IsRead bool `json:"is_read" db:"is_read"`

	// ExpiresAt is the instant after which the notification is hidden.
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`

	// CreatedAt is the timestamp when the notification was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
