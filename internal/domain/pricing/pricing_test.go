package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/xenking/atelier-cart/internal/domain/cart"
	"github.com/xenking/atelier-cart/internal/domain/coupon"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func line(price string, qty int) cart.LineItem {
	return cart.LineItem{ProductID: price, UnitPrice: d(price), Quantity: qty}
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name         string
		lines        []cart.LineItem
		coupon       *coupon.Coupon
		wantSubtotal decimal.Decimal
		wantDiscount decimal.Decimal
		wantTotal    decimal.Decimal
	}{
		{
			name:         "no coupon",
			lines:        []cart.LineItem{line("29.99", 2), line("10", 1)},
			wantSubtotal: d("69.98"),
			wantDiscount: decimal.Zero,
			wantTotal:    d("69.98"),
		},
		{
			name:         "fixed coupon clamps to subtotal",
			lines:        []cart.LineItem{line("50", 2)},
			coupon:       &coupon.Coupon{DiscountType: coupon.DiscountFixed, DiscountValue: d("150")},
			wantSubtotal: d("100"),
			wantDiscount: d("100"),
			wantTotal:    decimal.Zero,
		},
		{
			name:         "percentage coupon follows current subtotal",
			lines:        []cart.LineItem{line("40", 1)},
			coupon:       &coupon.Coupon{DiscountType: coupon.DiscountPercentage, DiscountValue: d("25"), DiscountAmount: d("99")},
			wantSubtotal: d("40"),
			wantDiscount: d("10"),
			wantTotal:    d("30"),
		},
		{
			name:         "empty cart",
			wantSubtotal: decimal.Zero,
			wantDiscount: decimal.Zero,
			wantTotal:    decimal.Zero,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Summarize(tt.lines, tt.coupon)
			assert.True(t, tt.wantSubtotal.Equal(got.Subtotal), "subtotal %s", got.Subtotal)
			assert.True(t, tt.wantDiscount.Equal(got.Discount), "discount %s", got.Discount)
			assert.True(t, tt.wantTotal.Equal(got.Total), "total %s", got.Total)
		})
	}
}

func TestCalculate(t *testing.T) {
	cfg := DefaultCheckoutConfig()

	t.Run("below threshold pays flat shipping", func(t *testing.T) {
		got := Calculate(cfg, []cart.LineItem{line("29.99", 2), line("10", 1)}, nil)
		assert.True(t, d("10").Equal(got.Shipping))
		assert.True(t, d("5.5984").Equal(got.Tax), "tax %s", got.Tax)
		assert.True(t, d("85.5784").Equal(got.GrandTotal), "grand %s", got.GrandTotal)
	})

	t.Run("exactly at threshold still pays shipping", func(t *testing.T) {
		got := Calculate(cfg, []cart.LineItem{line("100", 1)}, nil)
		assert.True(t, d("10").Equal(got.Shipping))
	})

	t.Run("above threshold ships free", func(t *testing.T) {
		c := &coupon.Coupon{DiscountType: coupon.DiscountFixed, DiscountValue: d("20")}
		got := Calculate(cfg, []cart.LineItem{line("60", 2)}, c)
		assert.True(t, got.Shipping.IsZero())
		assert.True(t, d("9.6").Equal(got.Tax))
		assert.True(t, d("20").Equal(got.Discount))
		assert.True(t, d("109.6").Equal(got.GrandTotal))
	})

	t.Run("custom rules", func(t *testing.T) {
		custom := CheckoutConfig{
			FreeShippingThreshold: d("50"),
			FlatShippingFee:       d("4.95"),
			TaxRate:               decimal.Zero,
		}
		got := Calculate(custom, []cart.LineItem{line("20", 1)}, nil)
		assert.True(t, d("24.95").Equal(got.GrandTotal))
	})
}

func TestRound2(t *testing.T) {
	assert.Equal(t, "85.58", Round2(d("85.5784")).StringFixed(2))
	assert.Equal(t, "4.50", Round2(d("4.4955")).StringFixed(2))
}
