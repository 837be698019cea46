// Package retry wraps driver operations with exponential backoff so a
// transient network blip doesn't immediately escalate to a reported
// failure. Result.Mitigated lets a caller send a recovery alert only when
// the operation actually needed more than one attempt.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/cjkrolak/thermostat-supervisor/internal/driver"
)

// Config tunes the backoff schedule. Zero values fall back to the
// package defaults via WithDefaults.
type Config struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsedTime  time.Duration
}

// WithDefaults fills any zero fields in cfg with the supervisor's
// standard retry schedule.
func (cfg Config) WithDefaults() Config {
	if cfg.InitialInterval == 0 {
		cfg.InitialInterval = 2 * time.Second
	}
	if cfg.MaxInterval == 0 {
		cfg.MaxInterval = 30 * time.Second
	}
	if cfg.MaxElapsedTime == 0 {
		cfg.MaxElapsedTime = 2 * time.Minute
	}
	return cfg
}

func (cfg Config) newBackOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.InitialInterval
	b.MaxInterval = cfg.MaxInterval
	b.MaxElapsedTime = cfg.MaxElapsedTime
	return backoff.WithContext(b, ctx)
}

// Result reports how many attempts an operation took, so callers can
// decide whether a deviation-mitigation alert is warranted: succeeding
// on the first try is silent, succeeding only after a retry is reported.
type Result struct {
	Attempts int
	Err      error
}

// Mitigated reports whether the operation needed more than one attempt
// before it succeeded, or never succeeded at all.
func (r Result) Mitigated() bool {
	return r.Attempts > 1 || r.Err != nil
}

// ExecuteWithRetries runs op under exponential backoff. AuthError and
// NotSupported driver errors are never retried — retrying a rejected
// credential or a capability the device doesn't have wastes the whole
// backoff budget on something retrying cannot fix.
func ExecuteWithRetries(ctx context.Context, cfg Config, op func(ctx context.Context) error) Result {
	cfg = cfg.WithDefaults()
	attempts := 0

	wrapped := func() error {
		attempts++
		err := op(ctx)
		if err == nil {
			return nil
		}
		if kind, ok := driver.KindOf(err); ok && (kind == driver.AuthError || kind == driver.NotSupported) {
			return backoff.Permanent(err)
		}
		return err
	}

	err := backoff.Retry(wrapped, cfg.newBackOff(ctx))
	return Result{Attempts: attempts, Err: err}
}
