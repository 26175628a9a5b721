package models

import (
	"fmt"
	"time"
)

// Notification types recorded in the journal.
const (
	NotificationOrderOverdue     = "order_overdue"
	NotificationComponentOverdue = "component_overdue"
)

// JournalEntry is one idempotency record. At most one entry may exist per
// violation key; its presence suppresses re-notification for the same
// status occupancy.
type JournalEntry struct {
	ID           string    `json:"id"`
	ViolationKey string    `json:"violation_key"`
	Type         string    `json:"type"`
	Recipients   []string  `json:"recipients"`
	SentAt       time.Time `json:"sent_at"`
}

// OrderViolationKey builds the deterministic key for an overdue order. The
// entered-at instant is part of the key, so leaving and re-entering the
// same status produces a fresh key and a fresh notification.
func OrderViolationKey(orderNumber string, status OrderStatus, enteredAt time.Time) string {
	return fmt.Sprintf("order:%s:%s:%d", orderNumber, status, enteredAt.Unix())
}

// ComponentViolationKey builds the deterministic key for an overdue
// component.
func ComponentViolationKey(componentID int64, status ComponentStatus, enteredAt time.Time) string {
	return fmt.Sprintf("component:%d:%s:%d", componentID, status, enteredAt.Unix())
}

// EmailMessage is the payload handed to the mail exchange. The transport on
// the other side of the queue owns delivery.
type EmailMessage struct {
	ID         string    `json:"id"`
	Recipients []string  `json:"recipients"`
	Subject    string    `json:"subject"`
	Body       string    `json:"body"`
	QueuedAt   time.Time `json:"queued_at"`
}
