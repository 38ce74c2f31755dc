package entity

import (
	"time"
)

const (
	NotificationOfferCreated    = "offer.created"
	NotificationOfferCountered  = "offer.countered"
	NotificationOfferAccepted   = "offer.accepted"
	NotificationOfferRejected   = "offer.rejected"
	NotificationPaymentRecorded = "payment.recorded"
	NotificationOrderUpdated    = "order.status_changed"
	NotificationDisputeOpened   = "dispute.opened"
	NotificationDisputeResolved = "dispute.resolved"
)

// Notification is addressed to a single user and delivered best effort.
type Notification struct {
	ID        string                 `json:"id"`
	UserID    string                 `json:"user_id"`
	Type      string                 `json:"type"`
	Data      map[string]interface{} `json:"data,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}
