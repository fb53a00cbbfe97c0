package cartstate

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/cucumber/godog"
	"github.com/shopspring/decimal"

	"github.com/xenking/atelier-cart/internal/apperr"
	"github.com/xenking/atelier-cart/internal/domain/cart"
	"github.com/xenking/atelier-cart/internal/domain/coupon"
)

type cartFeature struct {
	t   *testing.T
	f   *fixture
	err error
}

func (s *cartFeature) products() map[string]cart.Product {
	return map[string]cart.Product{
		"shirt": shirt,
		"scarf": scarf,
		"coat":  coat,
		"fifty": {ID: "fifty", Price: decimal.NewFromInt(50)},
		"forty": {ID: "forty", Price: decimal.NewFromInt(40)},
	}
}

func (s *cartFeature) product(id string) (cart.Product, error) {
	p, ok := s.products()[id]
	if !ok {
		return cart.Product{}, fmt.Errorf("unknown product %q", id)
	}
	return p, nil
}

func (s *cartFeature) aSignedOutShopper() error {
	s.f = newFixture(s.t, Options{})
	return nil
}

func (s *cartFeature) aSignedInShopperWithRemoteLines(n int) error {
	s.f = newFixture(s.t, Options{})
	for i := 0; i < n; i++ {
		s.f.remote.seed("shirt", 1)
	}
	return s.f.c.Login(context.Background(), session)
}

func (s *cartFeature) theBulkClearEndpointFails() error {
	s.f.remote.clearErr = &apperr.ServerError{Op: "clear cart", Status: 404}
	return nil
}

func (s *cartFeature) deletingRemoteLineFails(n int) error {
	items := s.f.c.Cart().Items
	if n < 1 || n > len(items) {
		return fmt.Errorf("no line %d", n)
	}
	s.f.remote.removeErrs[items[n-1].CartEntryID] = &apperr.ServerError{Op: "remove", Status: 500}
	return nil
}

func (s *cartFeature) theCouponTakesOff(code string, value float64) error {
	s.f.remote.terms[code] = &coupon.Terms{
		DiscountType:  coupon.DiscountFixed,
		DiscountValue: decimal.NewFromFloat(value),
	}
	return nil
}

func (s *cartFeature) theCouponTakesOffAbove(code string, value, minimum float64) error {
	m := decimal.NewFromFloat(minimum)
	s.f.remote.terms[code] = &coupon.Terms{
		DiscountType:    coupon.DiscountFixed,
		DiscountValue:   decimal.NewFromFloat(value),
		MinimumPurchase: &m,
	}
	return nil
}

func (s *cartFeature) theyAddInVariant(qty int, id, size, color string) error {
	p, err := s.product(id)
	if err != nil {
		return err
	}
	return s.f.c.AddToCart(context.Background(), p, qty, cart.Option(size), cart.Option(color))
}

func (s *cartFeature) theyAddWithoutOptions(qty int, id string) error {
	p, err := s.product(id)
	if err != nil {
		return err
	}
	return s.f.c.AddToCart(context.Background(), p, qty, nil, nil)
}

func (s *cartFeature) theyRemoveWithoutOptions(id string) error {
	return s.f.c.RemoveFromCart(context.Background(), id, nil, nil)
}

func (s *cartFeature) theyApplyTheCoupon(code string) error {
	_, s.err = s.f.c.ApplyCoupon(context.Background(), code)
	return nil
}

func (s *cartFeature) theyClearTheCart() error {
	return s.f.c.ClearCart(context.Background())
}

func (s *cartFeature) theContainerIsRestarted() error {
	ctx := context.Background()
	if err := s.f.c.Close(ctx); err != nil {
		return err
	}
	s.f.c = New(Deps{Remote: s.f.remote, Snapshot: s.f.snap}, Options{})
	return s.f.c.Hydrate(ctx)
}

func (s *cartFeature) theCartHasLines(n int) error {
	if got := len(s.f.c.Cart().Items); got != n {
		return fmt.Errorf("cart has %d lines, want %d", got, n)
	}
	return nil
}

func (s *cartFeature) lineHasQuantity(n, qty int) error {
	items := s.f.c.Cart().Items
	if n < 1 || n > len(items) {
		return fmt.Errorf("no line %d", n)
	}
	if got := items[n-1].Quantity; got != qty {
		return fmt.Errorf("line %d quantity %d, want %d", n, got, qty)
	}
	return nil
}

func equalAmount(name string, got decimal.Decimal, want string) error {
	w, err := decimal.NewFromString(want)
	if err != nil {
		return err
	}
	if !got.Equal(w) {
		return fmt.Errorf("%s is %s, want %s", name, got, want)
	}
	return nil
}

func (s *cartFeature) theSubtotalIs(v string) error {
	return equalAmount("subtotal", s.f.c.Totals().Subtotal, v)
}

func (s *cartFeature) theDiscountIs(v string) error {
	return equalAmount("discount", s.f.c.Totals().Discount, v)
}

func (s *cartFeature) theTotalIs(v string) error {
	return equalAmount("total", s.f.c.Totals().Total, v)
}

func (s *cartFeature) theCouponIsRejected() error {
	if s.err == nil {
		return fmt.Errorf("coupon was accepted")
	}
	return nil
}

func (s *cartFeature) noCouponIsActive() error {
	if cp := s.f.c.Coupon(); cp != nil {
		return fmt.Errorf("coupon %q is active", cp.Code)
	}
	return nil
}

func option(v *string) string {
	if v == nil {
		return "-"
	}
	return *v
}

func (s *cartFeature) theCartLinesAre(want string) error {
	var parts []string
	for _, it := range s.f.c.Cart().Items {
		parts = append(parts, fmt.Sprintf("%s/%s/%s:%d", it.ProductID, option(it.Size), option(it.Color), it.Quantity))
	}
	if got := strings.Join(parts, ", "); got != want {
		return fmt.Errorf("cart lines %q, want %q", got, want)
	}
	return nil
}

func initializeCartScenario(t *testing.T) func(*godog.ScenarioContext) {
	return func(ctx *godog.ScenarioContext) {
		s := &cartFeature{t: t}

		ctx.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
			s.f = nil
			s.err = nil
			return ctx, nil
		})

		ctx.Step(`^a signed out shopper$`, s.aSignedOutShopper)
		ctx.Step(`^a signed in shopper with (\d+) lines in the remote cart$`, s.aSignedInShopperWithRemoteLines)
		ctx.Step(`^the bulk clear endpoint fails$`, s.theBulkClearEndpointFails)
		ctx.Step(`^deleting remote line (\d+) fails$`, s.deletingRemoteLineFails)
		ctx.Step(`^the coupon "([^"]*)" takes (\d+(?:\.\d+)?) off$`, s.theCouponTakesOff)
		ctx.Step(`^the coupon "([^"]*)" takes (\d+(?:\.\d+)?) off above (\d+(?:\.\d+)?)$`, s.theCouponTakesOffAbove)

		ctx.Step(`^they add (-?\d+) of "([^"]*)" in size "([^"]*)" and color "([^"]*)"$`, s.theyAddInVariant)
		ctx.Step(`^they add (-?\d+) of "([^"]*)" without options$`, s.theyAddWithoutOptions)
		ctx.Step(`^they remove "([^"]*)" without options$`, s.theyRemoveWithoutOptions)
		ctx.Step(`^they apply the coupon "([^"]*)"$`, s.theyApplyTheCoupon)
		ctx.Step(`^they clear the cart$`, s.theyClearTheCart)
		ctx.Step(`^the container is restarted from its snapshot$`, s.theContainerIsRestarted)

		ctx.Step(`^the cart has (\d+) lines?$`, s.theCartHasLines)
		ctx.Step(`^line (\d+) has quantity (\d+)$`, s.lineHasQuantity)
		ctx.Step(`^the subtotal is ([\d.]+)$`, s.theSubtotalIs)
		ctx.Step(`^the discount is ([\d.]+)$`, s.theDiscountIs)
		ctx.Step(`^the total is ([\d.]+)$`, s.theTotalIs)
		ctx.Step(`^the coupon is rejected$`, s.theCouponIsRejected)
		ctx.Step(`^no coupon is active$`, s.noCouponIsActive)
		ctx.Step(`^the cart lines are "([^"]*)"$`, s.theCartLinesAre)
	}
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: initializeCartScenario(t),
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features/cart.feature"},
			TestingT: t,
			Strict:   true,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
