// Package order builds and validates the order placement payload from the
// cart and its checkout summary.
package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod is how the customer pays.
type PaymentMethod string

const (
	PaymentCard           PaymentMethod = "card"
	PaymentPayPal         PaymentMethod = "paypal"
	PaymentCashOnDelivery PaymentMethod = "cash_on_delivery"
)

// Address is a shipping address.
type Address struct {
	FullName   string `json:"fullName" validate:"required,max=120"`
	Line1      string `json:"addressLine1" validate:"required,max=200"`
	Line2      string `json:"addressLine2,omitempty" validate:"max=200"`
	City       string `json:"city" validate:"required,max=100"`
	State      string `json:"state" validate:"required,max=100"`
	PostalCode string `json:"postalCode" validate:"required,max=16"`
	Country    string `json:"country" validate:"required,iso3166_1_alpha2"`
	Phone      string `json:"phone,omitempty" validate:"omitempty,e164"`
}

// Request is the customer input collected on the checkout page.
type Request struct {
	ShippingAddress Address       `json:"shippingAddress"`
	PaymentMethod   PaymentMethod `json:"paymentMethod" validate:"required,oneof=card paypal cash_on_delivery"`
}

// Item is one order line.
type Item struct {
	ProductID string          `json:"productId" validate:"required"`
	Quantity  int             `json:"quantity" validate:"gt=0"`
	Price     decimal.Decimal `json:"price"`
	Size      *string         `json:"size"`
	Color     *string         `json:"color"`
}

// Order is the payload sent to the orders endpoint.
type Order struct {
	ShippingAddress Address         `json:"shippingAddress"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod"`
	Items           []Item          `json:"items" validate:"required,min=1,dive"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	ShippingCost    decimal.Decimal `json:"shippingCost"`
	Tax             decimal.Decimal `json:"tax"`
	Total           decimal.Decimal `json:"total"`
	CouponCode      string          `json:"couponCode,omitempty"`
}

// Receipt is the backend's confirmation of a placed order.
type Receipt struct {
	ID        string
	Status    string
	Total     decimal.Decimal
	CreatedAt time.Time
}
