package main

import (
	"bufio"
	"context"
	"io"
	"math/bits"
	"os"
	"slices"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/atelier-cart/internal/domain/coupon"
	"github.com/xenking/atelier-cart/internal/stub"
)

const progressEvery = 1_000_000

// knownRules maps well-known codes to their discount. Other valid codes get
// defaultRule.
var knownRules = map[string]stub.CouponRule{
	"WELCOME10":  {DiscountType: coupon.DiscountPercentage, DiscountValue: decimal.NewFromInt(10), Description: "10% off your first order"},
	"SPRINGSALE": {DiscountType: coupon.DiscountPercentage, DiscountValue: decimal.NewFromInt(25), MinimumPurchase: amount("80"), Description: "25% off orders over $80"},
	"TENOFFNOW":  {DiscountType: coupon.DiscountFixed, DiscountValue: decimal.NewFromInt(10), MinimumPurchase: amount("40"), Description: "$10 off orders over $40"},
	"FREESHIP1":  {DiscountType: coupon.DiscountFixed, DiscountValue: decimal.NewFromInt(10), Description: "Shipping on us"},
}

var defaultRule = stub.CouponRule{
	DiscountType:  coupon.DiscountPercentage,
	DiscountValue: decimal.NewFromInt(5),
	Description:   "5% off your order",
}

func amount(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

type ingester struct {
	lg       *zap.Logger
	capacity uint
	fpr      float64
	minLen   int
	maxLen   int
}

func (in ingester) accept(code string) bool {
	return len(code) >= in.minLen && len(code) <= in.maxLen
}

// buildFilters creates one bloom filter per file, concurrently.
func (in ingester) buildFilters(ctx context.Context, files []string) ([]*bloom.BloomFilter, error) {
	filters := make([]*bloom.BloomFilter, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range files {
		g.Go(func() error {
			filter := bloom.NewWithEstimates(in.capacity, in.fpr)
			var count uint64
			err := streamCodes(ctx, path, func(code string) {
				if !in.accept(code) {
					return
				}
				filter.AddString(code)
				count++
				if count%progressEvery == 0 {
					in.lg.Info("Pass 1 progress", zap.String("file", path), zap.Uint64("codes", count))
				}
			})
			if err != nil {
				return errors.Wrapf(err, "filter %s", path)
			}
			in.lg.Info("Pass 1 complete", zap.String("file", path), zap.Uint64("codes", count))
			filters[i] = filter
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return filters, nil
}

// sharedCodes re-streams each file and keeps the codes that at least one
// other file's filter reports. Every candidate must be confirmed by two
// files, so a code is dropped when only a false positive vouched for it.
func (in ingester) sharedCodes(ctx context.Context, files []string, filters []*bloom.BloomFilter) ([]string, error) {
	masks := make([]map[string]uint, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range files {
		g.Go(func() error {
			seen := make(map[string]uint)
			bit := uint(1) << uint(i)
			err := streamCodes(ctx, path, func(code string) {
				if !in.accept(code) {
					return
				}
				for j, f := range filters {
					if j != i && f.TestString(code) {
						seen[code] |= bit
						return
					}
				}
			})
			if err != nil {
				return errors.Wrapf(err, "scan %s", path)
			}
			in.lg.Info("Pass 2 complete", zap.String("file", path), zap.Int("candidates", len(seen)))
			masks[i] = seen
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := make(map[string]uint)
	for _, m := range masks {
		for code, bit := range m {
			merged[code] |= bit
		}
	}
	var codes []string
	for code, mask := range merged {
		if bits.OnesCount(mask) >= 2 {
			codes = append(codes, code)
		}
	}
	slices.Sort(codes)
	return codes, nil
}

// streamCodes calls fn for each line of a gzip file.
func streamCodes(ctx context.Context, path string, fn func(code string)) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		fn(scanner.Text())
	}
	return errors.Wrapf(scanner.Err(), "scan %s", path)
}

// writeBook writes the coupon book for codes.
func writeBook(w io.Writer, codes []string) error {
	rules := make([]stub.CouponRule, 0, len(codes))
	for _, code := range codes {
		rule, ok := knownRules[code]
		if !ok {
			rule = defaultRule
		}
		rule.Code = code
		rules = append(rules, rule)
	}
	return errors.Wrap(stub.WriteCouponBook(w, rules), "write coupon book")
}
