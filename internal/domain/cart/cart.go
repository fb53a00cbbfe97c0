package cart

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// LineItem is one cart entry. At most one LineItem exists per Key within a Cart.
type LineItem struct {
	ProductID string `json:"productId"`
	// CartEntryID is assigned by the remote cart. Empty for purely local entries.
	CartEntryID string          `json:"cartEntryId,omitempty"`
	Name        string          `json:"name"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	ImageRef    string          `json:"imageRef,omitempty"`
	Quantity    int             `json:"quantity"`
	Size        *string         `json:"size"`
	Color       *string         `json:"color"`
	AddedAt     time.Time       `json:"addedAt"`
}

// Key returns the merge key of the line.
func (l LineItem) Key() Key {
	return Key{ProductID: l.ProductID, Size: l.Size, Color: l.Color}
}

// Subtotal returns UnitPrice * Quantity.
func (l LineItem) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Variant returns the size and color of the line.
func (l LineItem) Variant() Variant {
	return Variant{Size: l.Size, Color: l.Color}
}

// Variant is the optional size and color of a product.
type Variant struct {
	Size  *string
	Color *string
}

// String renders the variant as "M/black", or "-" when neither is set.
func (v Variant) String() string {
	var parts []string
	for _, p := range []*string{v.Size, v.Color} {
		if p != nil {
			parts = append(parts, *p)
		}
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, "/")
}

// Key identifies a line by (product, size, color). A nil size or color is a
// value of its own: two keys without a size are equal on that axis.
type Key struct {
	ProductID string
	Size      *string
	Color     *string
}

// Equal reports whether both keys address the same line.
func (k Key) Equal(o Key) bool {
	return k.ProductID == o.ProductID &&
		sameOption(k.Size, o.Size) &&
		sameOption(k.Color, o.Color)
}

func sameOption(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// Product is the catalog snapshot handed to AddLine.
type Product struct {
	ID       string
	Name     string
	Price    decimal.Decimal
	ImageRef string
}

// Cart is an ordered collection of line items.
type Cart struct {
	Items []LineItem `json:"items"`
}

// Clone returns a deep copy of the cart so callers can hand it out without
// sharing the backing array.
func (c Cart) Clone() Cart {
	if c.Items == nil {
		return Cart{}
	}
	items := make([]LineItem, len(c.Items))
	for i, it := range c.Items {
		items[i] = it
		items[i].Size = cloneOption(it.Size)
		items[i].Color = cloneOption(it.Color)
	}
	return Cart{Items: items}
}

// IsEmpty reports whether the cart has no lines.
func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

func cloneOption(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// Option returns a pointer to s, or nil when s is empty. It is the boundary
// helper for turning form or flag input into an optional size or color.
func Option(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
