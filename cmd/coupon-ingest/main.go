// Command coupon-ingest scans promo code dumps and writes the coupon book
// served by the storefront stub. A code is valid when it appears in at least
// two of the input files.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/cristalhq/aconfig"
	"github.com/go-faster/errors"
	"go.uber.org/zap"
)

type config struct {
	Inputs        []string `usage:"Gzip files with one promo code per line" flag:"input"`
	Output        string   `default:"coupons.jsonl.gz" usage:"Coupon book output path"`
	Capacity      uint     `default:"1000000" usage:"Expected codes per input file"`
	FalsePositive float64  `default:"0.001" usage:"Bloom filter false positive rate" flag:"fpr"`
	MinLen        int      `default:"8" usage:"Shortest accepted code" flag:"min-len"`
	MaxLen        int      `default:"10" usage:"Longest accepted code" flag:"max-len"`
}

func main() {
	lg, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = lg.Sync() }()

	var cfg config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix:  "ATELIER_INGEST",
		SkipFiles:  true,
		FlagPrefix: "",
	})
	if err := loader.Load(); err != nil {
		lg.Fatal("Load config", zap.Error(err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, lg, cfg); err != nil {
		lg.Fatal("Coupon ingest failed", zap.Error(err))
	}
	lg.Info("Coupon ingest completed", zap.String("output", cfg.Output))
}

func run(ctx context.Context, lg *zap.Logger, cfg config) error {
	if len(cfg.Inputs) < 2 {
		return errors.New("at least two input files are required")
	}
	for _, f := range cfg.Inputs {
		if _, err := os.Stat(f); err != nil {
			return errors.Wrapf(err, "check file %s", f)
		}
	}

	in := ingester{
		lg:       lg,
		capacity: cfg.Capacity,
		fpr:      cfg.FalsePositive,
		minLen:   cfg.MinLen,
		maxLen:   cfg.MaxLen,
	}

	lg.Info("Pass 1: building bloom filters", zap.Int("files", len(cfg.Inputs)))
	filters, err := in.buildFilters(ctx, cfg.Inputs)
	if err != nil {
		return errors.Wrap(err, "build bloom filters")
	}

	lg.Info("Pass 2: finding codes shared between files")
	codes, err := in.sharedCodes(ctx, cfg.Inputs, filters)
	if err != nil {
		return errors.Wrap(err, "find shared codes")
	}
	lg.Info("Valid codes found", zap.Int("count", len(codes)))

	f, err := os.Create(cfg.Output)
	if err != nil {
		return errors.Wrap(err, "create output")
	}
	if err := writeBook(f, codes); err != nil {
		_ = f.Close()
		return err
	}
	return errors.Wrap(f.Close(), "close output")
}
