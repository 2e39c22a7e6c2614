package models

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"
)

type Category struct {
	BaseModel
	Name         string    `gorm:"size:120;not null" json:"name"`
	ImageURL     string    `json:"image_url"`
	ProductCount int64     `gorm:"-" json:"product_count"`
	Products     []Product `json:"products,omitempty"`
}

// ProductMeta holds display attributes shown on product cards.
type ProductMeta struct {
	Title    string         `json:"title,omitempty"`
	Amount   string         `json:"amount,omitempty"`
	Currency string         `json:"currency,omitempty"`
	Extra    map[string]any `json:"extra,omitempty"`
}

// UnmarshalJSON keeps the known keys typed and collects anything else in Extra.
func (m *ProductMeta) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*m = ProductMeta{}
	for key, value := range raw {
		switch key {
		case "title":
			m.Title = metaString(value)
		case "amount":
			m.Amount = metaString(value)
		case "currency":
			m.Currency = metaString(value)
		case "extra":
			if nested, ok := value.(map[string]any); ok {
				for k, v := range nested {
					m.setExtra(k, v)
				}
			}
		default:
			m.setExtra(key, value)
		}
	}
	return nil
}

// MarshalJSON writes Extra keys next to the known ones.
func (m ProductMeta) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(m.Extra)+3)
	for k, v := range m.Extra {
		out[k] = v
	}
	if m.Title != "" {
		out["title"] = m.Title
	}
	if m.Amount != "" {
		out["amount"] = m.Amount
	}
	if m.Currency != "" {
		out["currency"] = m.Currency
	}
	return json.Marshal(out)
}

func (m *ProductMeta) setExtra(key string, value any) {
	if m.Extra == nil {
		m.Extra = make(map[string]any)
	}
	m.Extra[key] = value
}

func metaString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// Label returns the card title, falling back to "<amount> <currency>".
func (m ProductMeta) Label() string {
	if m.Title != "" {
		return m.Title
	}
	if m.Amount != "" && m.Currency != "" {
		return m.Amount + " " + m.Currency
	}
	return m.Amount
}

type Product struct {
	BaseModel
	CategoryID uuid.UUID   `gorm:"type:uuid;index;not null" json:"category_id"`
	Category   *Category   `json:"category,omitempty"`
	Name       string      `gorm:"size:200;not null" json:"name"`
	SKU        string      `gorm:"column:sku;size:100;index" json:"sku"`
	PriceMRU   float64     `gorm:"not null" json:"price_mru"`
	Active     bool        `gorm:"not null;index" json:"active"`
	Meta       ProductMeta `gorm:"serializer:json" json:"meta"`
}

type ProductGuide struct {
	BaseModel
	ProductID   uuid.UUID `gorm:"type:uuid;index;not null" json:"product_id"`
	Product     *Product  `json:"product,omitempty"`
	StepNumber  int       `gorm:"not null" json:"step_number"`
	ImageURL    string    `json:"image_url"`
	Description string    `json:"description"`
	SupportLink string    `json:"support_link"`
}
