package models

import "time"

const (
	SettingPaymentNumber = "payment_number"
	SettingAppName       = "app_name"
	SettingAppVersion    = "app_version"
)

// Setting is a key with a JSON-encoded value.
type Setting struct {
	Key       string    `gorm:"primaryKey;size:64" json:"key"`
	Value     string    `gorm:"type:text;not null" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
