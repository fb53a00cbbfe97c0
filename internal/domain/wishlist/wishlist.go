package wishlist

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductSnapshot is the denormalized product data kept with a wishlist item.
type ProductSnapshot struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	ImageRef string          `json:"imageRef,omitempty"`
}

// Item is one saved product.
type Item struct {
	// ID is the remote wishlist entry id. Locally created items get a
	// generated id prefixed with "local-".
	ID        string          `json:"id"`
	ProductID string          `json:"productId"`
	Product   ProductSnapshot `json:"product"`
	AddedAt   time.Time       `json:"addedAt"`
}

// IsLocal reports whether the item was created without the backend.
func (i Item) IsLocal() bool {
	return len(i.ID) > 6 && i.ID[:6] == "local-"
}

// List is an ordered wishlist.
type List []Item

// Contains reports whether productID is saved.
func (l List) Contains(productID string) bool {
	_, ok := l.Find(productID)
	return ok
}

// Find returns the item saved for productID.
func (l List) Find(productID string) (Item, bool) {
	for _, it := range l {
		if it.ProductID == productID {
			return it, true
		}
	}
	return Item{}, false
}

// Add appends item unless its product is already saved.
func Add(l List, item Item) List {
	if l.Contains(item.ProductID) {
		return l
	}
	out := make(List, 0, len(l)+1)
	out = append(out, l...)
	return append(out, item)
}

// Remove drops the item saved for productID.
func Remove(l List, productID string) List {
	out := make(List, 0, len(l))
	for _, it := range l {
		if it.ProductID != productID {
			out = append(out, it)
		}
	}
	return out
}
