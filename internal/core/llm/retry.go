package llm

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/markdave123-py/Synopsis/internal/core"
	"github.com/markdave123-py/Synopsis/internal/logger"
)

// RetryConfig controls exponential backoff for transient generation failures.
type RetryConfig struct {
	MaxAttempts    int
	InitialDelay   time.Duration
	MaxDelay       time.Duration
	Multiplier     float64
	JitterFraction float64
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    4,
		InitialDelay:   500 * time.Millisecond,
		MaxDelay:       20 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.2,
	}
}

func (c RetryConfig) withDefaults() RetryConfig {
	d := DefaultRetryConfig()
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	if c.InitialDelay <= 0 {
		c.InitialDelay = d.InitialDelay
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = d.MaxDelay
	}
	if c.Multiplier <= 0 {
		c.Multiplier = d.Multiplier
	}
	if c.JitterFraction < 0 {
		c.JitterFraction = 0
	}
	return c
}

// Retrying re-issues a call when the wrapped generator reports a transient
// failure. Permanent failures and context cancellation return at once.
type Retrying struct {
	next  core.TextGenerator
	cfg   RetryConfig
	log   *logger.Logger
	sleep func(ctx context.Context, d time.Duration) error
}

func WithRetry(next core.TextGenerator, cfg RetryConfig, log *logger.Logger) *Retrying {
	if log == nil {
		log = logger.Nop()
	}
	return &Retrying{
		next:  next,
		cfg:   cfg.withDefaults(),
		log:   log.With("component", "llm-retry"),
		sleep: sleepCtx,
	}
}

func (r *Retrying) Generate(ctx context.Context, prompt string, maxOutputTokens int) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= r.cfg.MaxAttempts; attempt++ {
		out, err := r.next.Generate(ctx, prompt, maxOutputTokens)
		if err == nil {
			if attempt > 1 {
				r.log.Info("generation succeeded after retry", "attempt", attempt)
			}
			return out, nil
		}
		lastErr = err
		if !core.IsTransient(err) || attempt == r.cfg.MaxAttempts || ctx.Err() != nil {
			break
		}

		delay := backoff(attempt, r.cfg)
		r.log.Warn("transient generation failure, retrying",
			"attempt", attempt, "max_attempts", r.cfg.MaxAttempts, "next_delay", delay, "error", err)
		if err := r.sleep(ctx, delay); err != nil {
			return "", err
		}
	}
	return "", lastErr
}

func backoff(attempt int, cfg RetryConfig) time.Duration {
	d := float64(cfg.InitialDelay) * math.Pow(cfg.Multiplier, float64(attempt-1))
	d += d * cfg.JitterFraction * (2*rand.Float64() - 1)
	if d > float64(cfg.MaxDelay) {
		d = float64(cfg.MaxDelay)
	}
	if d < 0 {
		d = float64(cfg.InitialDelay)
	}
	return time.Duration(d)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

var _ core.TextGenerator = (*Retrying)(nil)
