package cart

import (
	"strconv"
	"strings"
	"time"
)

// CoerceQuantity returns q when it is a positive integer and 1 otherwise.
func CoerceQuantity(q int) int {
	if q < 1 {
		return 1
	}
	return q
}

// ParseQuantity reads the leading base-10 integer of s, so "2.5" and "2pcs"
// both give 2. A leading sign is honoured ("-3" gives -3, "+2" gives 2).
// Input without a leading integer yields 1. Non-positive results are
// returned as-is so SetQuantity can turn them into a removal.
func ParseQuantity(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 1
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 1
	}
	return n
}

// AddLine merges product into the cart. A line with the exact same
// (product, size, color) has its quantity increased through SetQuantity;
// otherwise a new line stamped with now is appended.
func AddLine(c Cart, p Product, quantity int, size, color *string, now time.Time) Cart {
	quantity = CoerceQuantity(quantity)
	key := Key{ProductID: p.ID, Size: size, Color: color}

	if existing, ok := Find(c, key); ok {
		return SetQuantity(c, key, existing.Quantity+quantity)
	}

	out := c.Clone()
	out.Items = append(out.Items, LineItem{
		ProductID: p.ID,
		Name:      p.Name,
		UnitPrice: p.Price,
		ImageRef:  p.ImageRef,
		Quantity:  quantity,
		Size:      cloneOption(size),
		Color:     cloneOption(color),
		AddedAt:   now,
	})
	return out
}

// RemoveLine drops lines of productID. Size and color only narrow the match
// when non-nil, so RemoveLine(c, id, nil, nil) removes every variant of id.
func RemoveLine(c Cart, productID string, size, color *string) Cart {
	out := Cart{Items: make([]LineItem, 0, len(c.Items))}
	for _, it := range c.Clone().Items {
		if it.Matches(productID, size, color) {
			continue
		}
		out.Items = append(out.Items, it)
	}
	return out
}

// MatchLines returns the lines RemoveLine would drop for the same arguments.
func MatchLines(c Cart, productID string, size, color *string) []LineItem {
	var out []LineItem
	for _, it := range c.Items {
		if it.Matches(productID, size, color) {
			out = append(out, it)
		}
	}
	return out
}

// Matches reports whether RemoveLine would drop the line for the same
// arguments.
func (it LineItem) Matches(productID string, size, color *string) bool {
	if it.ProductID != productID {
		return false
	}
	if size != nil && !sameOption(it.Size, size) {
		return false
	}
	if color != nil && !sameOption(it.Color, color) {
		return false
	}
	return true
}

// SetQuantity sets the quantity of the line addressed by key. A non-positive
// quantity removes the line.
func SetQuantity(c Cart, key Key, quantity int) Cart {
	if quantity <= 0 {
		return RemoveLine(c, key.ProductID, key.Size, key.Color)
	}
	out := c.Clone()
	for i := range out.Items {
		if out.Items[i].Key().Equal(key) {
			out.Items[i].Quantity = quantity
			break
		}
	}
	return out
}

// Find returns the line addressed by key.
func Find(c Cart, key Key) (LineItem, bool) {
	for _, it := range c.Items {
		if it.Key().Equal(key) {
			return it, true
		}
	}
	return LineItem{}, false
}

// ItemCount returns the sum of quantities.
func ItemCount(c Cart) int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}
