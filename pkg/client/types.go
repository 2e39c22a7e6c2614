package client

import (
	"encoding/json"
	"time"
)

type User struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	PhoneNumber string    `json:"phone_number"`
	PinSet      bool      `json:"pin_set"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}

// IsAdmin reports whether the user may call the admin endpoints.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == "admin"
}

// Session is returned by every call that opens a session.
type Session struct {
	User      *User     `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type SignupResult struct {
	Session
	Message string `json:"message"`
	OTPSent bool   `json:"otp_sent"`
}

type OTPRequestResult struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	OTPStored    bool   `json:"otp_stored"`
	WhatsAppSent bool   `json:"whatsapp_sent"`
}

type OTPVerifyResult struct {
	Session
	Message     string `json:"message"`
	PINRequired bool   `json:"pin_required"`
}

type Category struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ImageURL     string `json:"image_url"`
	ProductCount int64  `json:"product_count"`
}

type ProductMeta struct {
	Title    string         `json:"title,omitempty"`
	Amount   string         `json:"amount,omitempty"`
	Currency string         `json:"currency,omitempty"`
	Extra    map[string]any `json:"extra,omitempty"`
}

type Product struct {
	ID         string      `json:"id"`
	CategoryID string      `json:"category_id"`
	Category   *Category   `json:"category,omitempty"`
	Name       string      `json:"name"`
	SKU        string      `json:"sku"`
	PriceMRU   float64     `json:"price_mru"`
	Active     bool        `json:"active"`
	Meta       ProductMeta `json:"meta"`
}

type PaymentMethod struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	LogoURL string `json:"logo_url"`
	Status  string `json:"status"`
}

type ProductGuide struct {
	ID          string `json:"id"`
	ProductID   string `json:"product_id"`
	StepNumber  int    `json:"step_number"`
	ImageURL    string `json:"image_url"`
	Description string `json:"description"`
	SupportLink string `json:"support_link"`
}

// Order statuses.
const (
	StatusAwaitingPayment = "awaiting_payment"
	StatusUnderReview     = "under_review"
	StatusCompleted       = "completed"
	StatusRejected        = "rejected"
)

type Order struct {
	ID            string     `json:"id"`
	UserID        string     `json:"user_id"`
	User          *User      `json:"user,omitempty"`
	ProductID     string     `json:"product_id"`
	Product       *Product   `json:"product,omitempty"`
	PaymentMethod string     `json:"payment_method"`
	PaymentNumber string     `json:"payment_number"`
	ReceiptPath   *string    `json:"receipt_path"`
	ReceiptURL    string     `json:"receipt_url,omitempty"`
	AdminNote     *string    `json:"admin_note"`
	DeliveryCode  *string    `json:"delivery_code"`
	Status        string     `json:"status"`
	ReviewedAt    *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

type NotificationPayload struct {
	Kind         string         `json:"kind"`
	OrderID      string         `json:"order_id,omitempty"`
	DeliveryCode string         `json:"delivery_code,omitempty"`
	Reason       string         `json:"reason,omitempty"`
	Extra        map[string]any `json:"extra,omitempty"`
}

type Notification struct {
	ID        string              `json:"id"`
	Title     string              `json:"title"`
	Body      string              `json:"body"`
	Payload   NotificationPayload `json:"payload"`
	Seen      bool                `json:"seen"`
	CreatedAt time.Time           `json:"created_at"`
}

type Notifications struct {
	Notifications []Notification `json:"notifications"`
	UnreadCount   int64          `json:"unread_count"`
}

type UserSummary struct {
	User
	OrderCount int64 `json:"order_count"`
}

// Page selects a slice of an admin list. A zero Page asks for the full list.
type Page struct {
	Page  int
	Limit int
}

type CreateOrderRequest struct {
	ProductID     string `json:"product_id"`
	PaymentMethod string `json:"payment_method"`
	PaymentNumber string `json:"payment_number"`
}

// ProductInput fields left nil are not changed on update.
type ProductInput struct {
	ID         string       `json:"id,omitempty"`
	CategoryID string       `json:"category_id,omitempty"`
	Name       *string      `json:"name,omitempty"`
	SKU        *string      `json:"sku,omitempty"`
	PriceMRU   *float64     `json:"price_mru,omitempty"`
	Active     *bool        `json:"active,omitempty"`
	Meta       *ProductMeta `json:"meta,omitempty"`
}

type CategoryInput struct {
	ID       string  `json:"id,omitempty"`
	Name     *string `json:"name,omitempty"`
	ImageURL *string `json:"image_url,omitempty"`
}

type PaymentMethodInput struct {
	ID      string  `json:"id,omitempty"`
	Name    *string `json:"name,omitempty"`
	LogoURL *string `json:"logo_url,omitempty"`
	Status  *string `json:"status,omitempty"`
}

type ProductGuideInput struct {
	ID          string  `json:"id,omitempty"`
	ProductID   string  `json:"product_id,omitempty"`
	StepNumber  *int    `json:"step_number,omitempty"`
	ImageURL    *string `json:"image_url,omitempty"`
	Description *string `json:"description,omitempty"`
	SupportLink *string `json:"support_link,omitempty"`
}

// Settings maps a setting key to its raw JSON value.
type Settings map[string]json.RawMessage

// String decodes a string-valued setting.
func (s Settings) String(key string) string {
	var v string
	if raw, ok := s[key]; ok {
		_ = json.Unmarshal(raw, &v)
	}
	return v
}
