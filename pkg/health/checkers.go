package health

import (
	"context"
	"runtime"
	"sync/atomic"

	"github.com/go-faster/errors"
)

// GoroutineCountCheck fails when more than threshold goroutines are running.
func GoroutineCountCheck(threshold int) CheckFunc {
	return func(context.Context) error {
		if n := runtime.NumGoroutine(); n > threshold {
			return errors.Errorf("goroutine count %d exceeds threshold %d", n, threshold)
		}
		return nil
	}
}

// FlagCheck fails with msg until the flag is set.
func FlagCheck(flag *atomic.Bool, msg string) CheckFunc {
	return func(context.Context) error {
		if !flag.Load() {
			return errors.New(msg)
		}
		return nil
	}
}
