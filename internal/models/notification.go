// internal/models/notification.go
package models

import "time"

type NotificationKind string

const (
	KindBidAccepted      NotificationKind = "bid_accepted"
	KindBidRejected      NotificationKind = "bid_rejected"
	KindManualReview     NotificationKind = "manual_review"
	KindManualAssignment NotificationKind = "manual_assignment"
	KindJobStatus        NotificationKind = "job_status"
)

// Notification is the persisted user-facing record of a side effect.
type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"userId"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Kind      NotificationKind `json:"kind"`
	CreatedAt time.Time        `json:"createdAt"`
}
