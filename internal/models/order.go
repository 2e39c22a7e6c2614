package models

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderAwaitingPayment OrderStatus = "awaiting_payment"
	OrderUnderReview     OrderStatus = "under_review"
	OrderCompleted       OrderStatus = "completed"
	OrderRejected        OrderStatus = "rejected"
)

var orderStatuses = []OrderStatus{OrderAwaitingPayment, OrderUnderReview, OrderCompleted, OrderRejected}

// ParseOrderStatus maps a wire value to a known status.
func ParseOrderStatus(value string) (OrderStatus, bool) {
	for _, s := range orderStatuses {
		if string(s) == value {
			return s, true
		}
	}
	return "", false
}

// Terminal reports whether no further transition may leave this status.
func (s OrderStatus) Terminal() bool {
	return s == OrderCompleted || s == OrderRejected
}

type Order struct {
	BaseModel
	UserID        uuid.UUID     `gorm:"type:uuid;index;not null" json:"user_id"`
	User          *User         `json:"user,omitempty"`
	ProductID     uuid.UUID     `gorm:"type:uuid;index;not null" json:"product_id"`
	Product       *Product      `json:"product,omitempty"`
	PaymentMethod PaymentMethod `gorm:"size:32;not null" json:"payment_method"`
	PaymentNumber string        `gorm:"size:64;not null" json:"payment_number"`
	ReceiptPath   *string       `json:"receipt_path"`
	ReceiptURL    string        `gorm:"-" json:"receipt_url,omitempty"`
	AdminNote     *string       `json:"admin_note"`
	DeliveryCode  *string       `json:"delivery_code"`
	Status        OrderStatus   `gorm:"size:32;index;not null" json:"status"`
	ReviewedBy    *uuid.UUID    `gorm:"type:uuid" json:"reviewed_by,omitempty"`
	ReviewedAt    *time.Time    `json:"reviewed_at,omitempty"`
}
