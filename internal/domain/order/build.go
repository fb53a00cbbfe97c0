package order

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"

	"github.com/xenking/atelier-cart/internal/apperr"
	"github.com/xenking/atelier-cart/internal/domain/cart"
	"github.com/xenking/atelier-cart/internal/domain/pricing"
)

// ErrEmptyCart is returned when an order is built from an empty cart.
var ErrEmptyCart = &apperr.ValidationError{Field: "items", Message: "Your cart is empty"}

// Builder validates checkout input and assembles order payloads.
type Builder struct {
	validate *validator.Validate
}

// NewBuilder returns a Builder with validation keyed by JSON field names.
func NewBuilder() *Builder {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Builder{validate: v}
}

// Validate checks the customer input.
func (b *Builder) Validate(req Request) error {
	return b.check(req)
}

// Build assembles the payload for lines priced by summary. Amounts are
// rounded to cents on the wire; unit prices are sent as stored.
func (b *Builder) Build(req Request, lines []cart.LineItem, summary pricing.Checkout, couponCode string) (*Order, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}
	if err := b.Validate(req); err != nil {
		return nil, err
	}

	items := make([]Item, len(lines))
	for i, l := range lines {
		items[i] = Item{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			Price:     l.UnitPrice,
			Size:      l.Size,
			Color:     l.Color,
		}
	}

	o := &Order{
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		Items:           items,
		Subtotal:        pricing.Round2(summary.Subtotal),
		ShippingCost:    pricing.Round2(summary.Shipping),
		Tax:             pricing.Round2(summary.Tax),
		Total:           pricing.Round2(summary.GrandTotal),
		CouponCode:      couponCode,
	}
	if err := b.check(o); err != nil {
		return nil, err
	}
	return o, nil
}

// check runs struct validation and reports the first failing field as an
// *apperr.ValidationError.
func (b *Builder) check(v any) error {
	err := b.validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return errors.Wrap(err, "validate order")
	}
	fe := fieldErrs[0]
	return &apperr.ValidationError{
		Field:   fieldPath(fe.Namespace()),
		Message: fieldMessage(fe),
	}
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func fieldMessage(fe validator.FieldError) string {
	name := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", name)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", name, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", name, fe.Param())
	case "iso3166_1_alpha2":
		return fmt.Sprintf("%s must be a two-letter country code", name)
	case "e164":
		return fmt.Sprintf("%s must be a phone number in international format", name)
	default:
		return fmt.Sprintf("%s is invalid", name)
	}
}
