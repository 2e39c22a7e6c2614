package models

import "github.com/google/uuid"

type NotificationKind string

const (
	NotificationReceiptReceived NotificationKind = "receipt_received"
	NotificationOrderCompleted  NotificationKind = "order_completed"
	NotificationOrderRejected   NotificationKind = "order_rejected"
)

// NotificationPayload is the structured part of a notification. Extra carries fields
// introduced by newer clients.
type NotificationPayload struct {
	Kind         NotificationKind `json:"kind"`
	OrderID      *uuid.UUID       `json:"order_id,omitempty"`
	DeliveryCode string           `json:"delivery_code,omitempty"`
	Reason       string           `json:"reason,omitempty"`
	Extra        map[string]any   `json:"extra,omitempty"`
}

type Notification struct {
	BaseModel
	UserID  uuid.UUID           `gorm:"type:uuid;index;not null" json:"user_id"`
	Title   string              `gorm:"not null" json:"title"`
	Body    string              `json:"body"`
	Payload NotificationPayload `gorm:"serializer:json" json:"payload"`
	Seen    bool                `gorm:"not null;default:false;index" json:"seen"`
}
