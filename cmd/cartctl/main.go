// Command cartctl drives the cart container from a terminal: it restores the
// saved session, runs one command against the storefront API, and flushes
// the snapshot back to the configured store.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xenking/atelier-cart/internal/apperr"
	"github.com/xenking/atelier-cart/internal/backend"
	"github.com/xenking/atelier-cart/internal/cartstate"
	"github.com/xenking/atelier-cart/internal/domain/auth"
	"github.com/xenking/atelier-cart/internal/snapshot"
)

func main() {
	os.Exit(realMain())
}

func realMain() int {
	cfg, args, err := loadConfig()
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "cartctl:", err)
		return 2
	}
	lg, err := newLogger(cfg.LogLevel)
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "cartctl:", err)
		return 2
	}
	defer func() { _ = lg.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, lg, cfg, args, os.Stdout); err != nil {
		lg.Debug("Command failed", zap.Error(err))
		_, _ = fmt.Fprintln(os.Stderr, "cartctl:", apperr.UserMessage(err))
		return 1
	}
	return 0
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, errors.Wrap(err, "log level")
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.DisableStacktrace = true
	return cfg.Build()
}

func run(ctx context.Context, lg *zap.Logger, cfg *config, args []string, out io.Writer) error {
	store, closeStore, err := openStore(ctx, cfg.Store)
	if err != nil {
		return errors.Wrap(err, "open snapshot store")
	}
	defer closeStore()

	opts, err := cfg.options()
	if err != nil {
		return err
	}
	opts.Notify = func(n cartstate.Notice) {
		if n.Level == cartstate.NoticeInfo {
			_, _ = fmt.Fprintln(out, n.Message)
		}
	}

	tokens := &auth.Holder{}
	client, err := backend.New(cfg.BaseURL, backend.Options{
		Tokens:  tokens,
		Timeout: cfg.Timeout,
		Logger:  lg.Named("backend"),
	})
	if err != nil {
		return err
	}

	state := cartstate.New(cartstate.Deps{
		Remote:   client,
		Snapshot: snapshot.New(store, lg.Named("snapshot")),
		Tokens:   tokens,
		Logger:   lg.Named("cart"),
	}, opts)
	if err := state.Hydrate(ctx); err != nil {
		return errors.Wrap(err, "restore session")
	}

	cmdErr := (&cli{state: state, catalog: client, out: out}).run(ctx, args)
	if err := state.Close(ctx); err != nil {
		lg.Warn("Flush snapshot", zap.Error(err))
	}
	return cmdErr
}
