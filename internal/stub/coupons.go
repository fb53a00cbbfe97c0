package stub

import (
	"bufio"
	"bytes"
	"io"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"

	"github.com/xenking/atelier-cart/internal/domain/coupon"
)

// CouponRule is one entry of the coupon book.
type CouponRule struct {
	Code            string
	DiscountType    coupon.DiscountType
	DiscountValue   decimal.Decimal
	MinimumPurchase *decimal.Decimal
	Description     string
}

// DefaultCoupons is the coupon book used when no seed file is configured.
func DefaultCoupons() []CouponRule {
	minimum := func(v string) *decimal.Decimal {
		d := decimal.RequireFromString(v)
		return &d
	}
	return []CouponRule{
		{Code: "WELCOME10", DiscountType: coupon.DiscountPercentage, DiscountValue: decimal.NewFromInt(10), Description: "10% off your first order"},
		{Code: "SAVE20", DiscountType: coupon.DiscountFixed, DiscountValue: decimal.NewFromInt(20), MinimumPurchase: minimum("50"), Description: "$20 off orders over $50"},
		{Code: "BIGSPENDER", DiscountType: coupon.DiscountFixed, DiscountValue: decimal.NewFromInt(150), Description: "$150 off"},
		{Code: "HALFOFF", DiscountType: coupon.DiscountPercentage, DiscountValue: decimal.NewFromInt(50), MinimumPurchase: minimum("100"), Description: "50% off orders over $100"},
	}
}

func encodeRule(e *jx.Encoder, r CouponRule) {
	e.ObjStart()
	e.FieldStart("code")
	e.Str(r.Code)
	e.FieldStart("discountType")
	e.Str(string(r.DiscountType))
	e.FieldStart("discountValue")
	e.Str(r.DiscountValue.String())
	e.FieldStart("minimumPurchase")
	if r.MinimumPurchase == nil {
		e.Null()
	} else {
		e.Str(r.MinimumPurchase.String())
	}
	if r.Description != "" {
		e.FieldStart("description")
		e.Str(r.Description)
	}
	e.ObjEnd()
}

func decodeRule(line []byte) (CouponRule, error) {
	var r CouponRule
	err := jx.DecodeBytes(line).Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "code":
			s, err := d.Str()
			r.Code = strings.ToUpper(strings.TrimSpace(s))
			return err
		case "discountType":
			s, err := d.Str()
			r.DiscountType = coupon.DiscountType(s)
			return err
		case "discountValue":
			v, err := readDecimal(d)
			r.DiscountValue = v
			return err
		case "minimumPurchase":
			if d.Next() == jx.Null {
				return d.Null()
			}
			v, err := readDecimal(d)
			r.MinimumPurchase = &v
			return err
		case "description":
			s, err := d.Str()
			r.Description = s
			return err
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return CouponRule{}, err
	}
	if r.Code == "" {
		return CouponRule{}, errors.New("rule without code")
	}
	switch r.DiscountType {
	case coupon.DiscountPercentage, coupon.DiscountFixed:
	default:
		return CouponRule{}, errors.Wrapf(coupon.ErrUnsupportedDiscount, "rule %s: %q", r.Code, r.DiscountType)
	}
	return r, nil
}

// readDecimal accepts a JSON number or numeric string.
func readDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	switch d.Next() {
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromString(strings.TrimSpace(s))
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromString(n.String())
	default:
		return decimal.Zero, errors.Errorf("expected number, got %s", d.Next())
	}
}

// WriteCouponBook writes rules as gzip-compressed JSON lines.
func WriteCouponBook(w io.Writer, rules []CouponRule) error {
	gz := pgzip.NewWriter(w)
	bw := bufio.NewWriter(gz)

	var e jx.Encoder
	for _, r := range rules {
		e.Reset()
		encodeRule(&e, r)
		if _, err := bw.Write(e.Bytes()); err != nil {
			return errors.Wrapf(err, "write rule %s", r.Code)
		}
		if err := bw.WriteByte('\n'); err != nil {
			return errors.Wrap(err, "write newline")
		}
	}
	if err := bw.Flush(); err != nil {
		return errors.Wrap(err, "flush")
	}
	if err := gz.Close(); err != nil {
		return errors.Wrap(err, "close gzip")
	}
	return nil
}

// ReadCouponBook reads a book written by WriteCouponBook.
func ReadCouponBook(r io.Reader) ([]CouponRule, error) {
	gz, err := pgzip.NewReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "open gzip")
	}
	defer func() { _ = gz.Close() }()

	var (
		rules   []CouponRule
		scanner = bufio.NewScanner(gz)
		lineNo  int
	)
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		rule, err := decodeRule(line)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", lineNo)
		}
		rules = append(rules, rule)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "scan")
	}
	return rules, nil
}
