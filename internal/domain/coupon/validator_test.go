package coupon

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/atelier-cart/internal/apperr"
)

type mockVerifier struct {
	terms    *Terms
	err      error
	lastCode string
	calls    int
}

func (m *mockVerifier) VerifyCoupon(_ context.Context, code string) (*Terms, error) {
	m.calls++
	m.lastCode = code
	return m.terms, m.err
}

func ptr(v decimal.Decimal) *decimal.Decimal { return &v }

func TestValidator_Apply(t *testing.T) {
	tests := []struct {
		name       string
		verifier   *mockVerifier
		code       string
		subtotal   decimal.Decimal
		wantAmount decimal.Decimal
		wantErr    func(t *testing.T, err error)
		wantCalls  int
	}{
		{
			name:       "percentage coupon",
			verifier:   &mockVerifier{terms: &Terms{DiscountType: DiscountPercentage, DiscountValue: d("10")}},
			code:       "SAVE10",
			subtotal:   d("80"),
			wantAmount: d("8"),
			wantCalls:  1,
		},
		{
			name:       "fixed coupon larger than subtotal",
			verifier:   &mockVerifier{terms: &Terms{DiscountType: DiscountFixed, DiscountValue: d("150")}},
			code:       "BIG",
			subtotal:   d("100"),
			wantAmount: d("100"),
			wantCalls:  1,
		},
		{
			name:     "blank code never reaches the verifier",
			verifier: &mockVerifier{},
			code:     "   ",
			subtotal: d("100"),
			wantErr: func(t *testing.T, err error) {
				var ve *apperr.ValidationError
				require.ErrorAs(t, err, &ve)
			},
		},
		{
			name:     "rejected code keeps server message",
			verifier: &mockVerifier{err: &InvalidCouponError{Code: "NOPE", Message: "Coupon has expired"}},
			code:     "NOPE",
			subtotal: d("100"),
			wantErr: func(t *testing.T, err error) {
				var ic *InvalidCouponError
				require.ErrorAs(t, err, &ic)
				assert.Equal(t, "Coupon has expired", apperr.UserMessage(err))
			},
			wantCalls: 1,
		},
		{
			name: "below minimum purchase",
			verifier: &mockVerifier{terms: &Terms{
				DiscountType:    DiscountFixed,
				DiscountValue:   d("5"),
				MinimumPurchase: ptr(d("50")),
			}},
			code:     "MIN50",
			subtotal: d("40"),
			wantErr: func(t *testing.T, err error) {
				var mp *MinimumPurchaseError
				require.ErrorAs(t, err, &mp)
				assert.True(t, d("50").Equal(mp.Minimum))
				assert.Equal(t, "Minimum purchase of $50.00 required for this coupon", apperr.UserMessage(err))
			},
			wantCalls: 1,
		},
		{
			name: "exactly at minimum purchase",
			verifier: &mockVerifier{terms: &Terms{
				DiscountType:    DiscountFixed,
				DiscountValue:   d("5"),
				MinimumPurchase: ptr(d("50")),
			}},
			code:       "MIN50",
			subtotal:   d("50"),
			wantAmount: d("5"),
			wantCalls:  1,
		},
		{
			name:     "network failure is wrapped",
			verifier: &mockVerifier{err: &apperr.ConnectionError{Op: "verify coupon", Err: errors.New("refused")}},
			code:     "SAVE10",
			subtotal: d("100"),
			wantErr: func(t *testing.T, err error) {
				assert.True(t, apperr.IsNetwork(err))
				assert.Contains(t, err.Error(), "verify coupon")
			},
			wantCalls: 1,
		},
		{
			name:     "unsupported type",
			verifier: &mockVerifier{terms: &Terms{DiscountType: "bogo", DiscountValue: d("1")}},
			code:     "BOGO",
			subtotal: d("100"),
			wantErr: func(t *testing.T, err error) {
				require.ErrorIs(t, err, ErrUnsupportedDiscount)
			},
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewValidator(tt.verifier)

			got, err := v.Apply(context.Background(), tt.code, tt.subtotal)
			assert.Equal(t, tt.wantCalls, tt.verifier.calls)

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.Nil(t, got)
				tt.wantErr(t, err)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, tt.code, got.Code)
			assert.True(t, tt.wantAmount.Equal(got.DiscountAmount),
				"expected amount %s, got %s", tt.wantAmount, got.DiscountAmount)
		})
	}
}

func TestValidator_TrimsCode(t *testing.T) {
	m := &mockVerifier{terms: &Terms{DiscountType: DiscountFixed, DiscountValue: d("1")}}
	_, err := NewValidator(m).Apply(context.Background(), "  WELCOME ", d("10"))
	require.NoError(t, err)
	assert.Equal(t, "WELCOME", m.lastCode)
}
