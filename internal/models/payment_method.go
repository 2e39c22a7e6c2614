package models

import "strings"

// PaymentMethod is the closed set of mobile-money providers an order can be paid with.
type PaymentMethod string

const (
	PaymentBankily PaymentMethod = "bankily"
	PaymentSidad   PaymentMethod = "sidad"
	PaymentMasrvi  PaymentMethod = "masrvi"
	PaymentBimBank PaymentMethod = "bimbank"
	PaymentAmanati PaymentMethod = "amanati"
	PaymentKlik    PaymentMethod = "klik"
)

// PaymentMethods lists providers in display order.
var PaymentMethods = []PaymentMethod{
	PaymentBankily, PaymentSidad, PaymentBimBank, PaymentMasrvi, PaymentAmanati, PaymentKlik,
}

var paymentMethodNames = map[PaymentMethod]string{
	PaymentBankily: "بنكيلي",
	PaymentSidad:   "السداد",
	PaymentBimBank: "بيم بنك",
	PaymentMasrvi:  "مصرفي",
	PaymentAmanati: "أمانتي",
	PaymentKlik:    "كليك",
}

// DisplayName returns the Arabic label shown to customers.
func (p PaymentMethod) DisplayName() string {
	return paymentMethodNames[p]
}

// ParsePaymentMethod accepts either the enum key or its display name.
func ParsePaymentMethod(value string) (PaymentMethod, bool) {
	value = strings.TrimSpace(value)
	key := PaymentMethod(strings.ToLower(value))
	if _, ok := paymentMethodNames[key]; ok {
		return key, true
	}
	for method, name := range paymentMethodNames {
		if name == value {
			return method, true
		}
	}
	return "", false
}

type PaymentMethodStatus string

const (
	PaymentMethodActive   PaymentMethodStatus = "active"
	PaymentMethodInactive PaymentMethodStatus = "inactive"
)

// PaymentMethodRecord is the admin-managed listing of a provider (name, logo, visibility).
type PaymentMethodRecord struct {
	BaseModel
	Name    string              `gorm:"size:120;not null" json:"name"`
	LogoURL string              `json:"logo_url"`
	Status  PaymentMethodStatus `gorm:"size:16;not null;default:active" json:"status"`
}

func (PaymentMethodRecord) TableName() string {
	return "payment_methods"
}
