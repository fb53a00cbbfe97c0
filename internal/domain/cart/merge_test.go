package cart

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func dress() Product {
	return Product{ID: "p1", Name: "Linen Dress", Price: decimal.RequireFromString("29.99"), ImageRef: "dress.jpg"}
}

func TestAddLine(t *testing.T) {
	tests := []struct {
		name      string
		adds      []int
		wantLines int
		wantQty   int
	}{
		{name: "single add", adds: []int{2}, wantLines: 1, wantQty: 2},
		{name: "repeated adds merge", adds: []int{1, 2, 3}, wantLines: 1, wantQty: 6},
		{name: "zero coerces to one", adds: []int{0, 0}, wantLines: 1, wantQty: 2},
		{name: "negative coerces to one", adds: []int{-5, 4}, wantLines: 1, wantQty: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Cart
			for _, q := range tt.adds {
				c = AddLine(c, dress(), q, Option("M"), Option("black"), now)
			}
			require.Len(t, c.Items, tt.wantLines)
			assert.Equal(t, tt.wantQty, c.Items[0].Quantity)
			assert.Equal(t, now, c.Items[0].AddedAt)
		})
	}
}

func TestAddLine_VariantsStaySeparate(t *testing.T) {
	var c Cart
	c = AddLine(c, dress(), 1, Option("M"), Option("black"), now)
	c = AddLine(c, dress(), 1, Option("M"), Option("white"), now)
	c = AddLine(c, dress(), 1, Option("L"), Option("black"), now)
	c = AddLine(c, dress(), 1, nil, Option("black"), now)
	c = AddLine(c, dress(), 1, nil, nil, now)
	c = AddLine(c, dress(), 1, nil, nil, now)

	require.Len(t, c.Items, 5)
	last, ok := Find(c, Key{ProductID: "p1"})
	require.True(t, ok)
	assert.Equal(t, 2, last.Quantity)
}

func TestAddLine_DoesNotMutateInput(t *testing.T) {
	c := AddLine(Cart{}, dress(), 1, Option("M"), nil, now)
	_ = AddLine(c, dress(), 3, Option("M"), nil, now)

	assert.Equal(t, 1, c.Items[0].Quantity)
}

func TestRemoveLine(t *testing.T) {
	base := Cart{}
	base = AddLine(base, dress(), 1, Option("M"), Option("black"), now)
	base = AddLine(base, dress(), 1, Option("M"), Option("white"), now)
	base = AddLine(base, Product{ID: "p2", Price: decimal.NewFromInt(10)}, 1, nil, nil, now)

	t.Run("unqualified removes every variant", func(t *testing.T) {
		c := RemoveLine(base, "p1", nil, nil)
		require.Len(t, c.Items, 1)
		assert.Equal(t, "p2", c.Items[0].ProductID)
	})

	t.Run("color narrows the match", func(t *testing.T) {
		c := RemoveLine(base, "p1", nil, Option("white"))
		require.Len(t, c.Items, 2)
		assert.Equal(t, "black", *c.Items[0].Color)
	})

	t.Run("no match is a no-op", func(t *testing.T) {
		c := RemoveLine(base, "p1", Option("XL"), nil)
		assert.Len(t, c.Items, 3)
	})

	t.Run("match lines mirrors removal", func(t *testing.T) {
		assert.Len(t, MatchLines(base, "p1", nil, nil), 2)
		assert.Len(t, MatchLines(base, "p1", Option("M"), Option("black")), 1)
	})
}

func TestLineItem_Matches(t *testing.T) {
	l := LineItem{ProductID: "p1", Size: Option("M"), Color: Option("black")}

	assert.True(t, l.Matches("p1", nil, nil))
	assert.True(t, l.Matches("p1", Option("M"), nil))
	assert.True(t, l.Matches("p1", Option("M"), Option("black")))
	assert.False(t, l.Matches("p1", Option("L"), nil))
	assert.False(t, l.Matches("p2", nil, nil))
	assert.False(t, LineItem{ProductID: "p1"}.Matches("p1", Option("M"), nil))
}

func TestSetQuantity(t *testing.T) {
	c := AddLine(Cart{}, dress(), 1, Option("S"), nil, now)
	key := Key{ProductID: "p1", Size: Option("S")}

	c = SetQuantity(c, key, 4)
	require.Len(t, c.Items, 1)
	assert.Equal(t, 4, c.Items[0].Quantity)

	c = SetQuantity(c, key, 0)
	assert.Empty(t, c.Items)
}

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"3", 3},
		{" 12 ", 12},
		{"0", 0},
		{"-2", -2},
		{"-3", -3},
		{"+2", 2},
		{" 7 ", 7},
		{"+", 1},
		{"abc", 1},
		{"2.5", 2},
		{"4pcs", 4},
		{"-", 1},
		{"", 1},
		{"99999999999999999999", 1},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseQuantity(tt.in))
		})
	}
}

func TestItemCount(t *testing.T) {
	c := AddLine(Cart{}, dress(), 2, nil, nil, now)
	c = AddLine(c, Product{ID: "p2"}, 3, nil, nil, now)
	assert.Equal(t, 5, ItemCount(c))
}

func TestVariant_String(t *testing.T) {
	assert.Equal(t, "M/black", LineItem{Size: Option("M"), Color: Option("black")}.Variant().String())
	assert.Equal(t, "black", Variant{Color: Option("black")}.String())
	assert.Equal(t, "-", Variant{}.String())
}
