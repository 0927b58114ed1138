package llm

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/markdave123-py/Synopsis/internal/core"
)

// scripted returns the queued errors in order, then succeeds.
type scripted struct {
	mu    sync.Mutex
	errs  []error
	calls int
}

func (s *scripted) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		return "", err
	}
	return "ok", nil
}

func transientErr() error {
	return &core.GenerationServiceError{Transient: true, Err: core.ErrRateLimited}
}

func noSleep(r *Retrying) *Retrying {
	r.sleep = func(ctx context.Context, d time.Duration) error { return ctx.Err() }
	return r
}

func TestRetryRecoversFromTransientFailures(t *testing.T) {
	gen := &scripted{errs: []error{transientErr(), transientErr()}}
	r := noSleep(WithRetry(gen, RetryConfig{MaxAttempts: 3}, nil))

	out, err := r.Generate(context.Background(), "p", 10)
	if err != nil || out != "ok" {
		t.Fatalf("got %q, %v", out, err)
	}
	if gen.calls != 3 {
		t.Fatalf("expected 3 calls, got %d", gen.calls)
	}
}

func TestRetryStopsOnPermanentFailure(t *testing.T) {
	perm := &core.GenerationServiceError{Transient: false, Err: errors.New("bad request")}
	gen := &scripted{errs: []error{perm}}
	r := noSleep(WithRetry(gen, RetryConfig{MaxAttempts: 5}, nil))

	if _, err := r.Generate(context.Background(), "p", 10); !errors.Is(err, perm) {
		t.Fatalf("expected the permanent error back, got %v", err)
	}
	if gen.calls != 1 {
		t.Fatalf("permanent failure retried: %d calls", gen.calls)
	}
}

func TestRetryGivesUpAfterMaxAttempts(t *testing.T) {
	gen := &scripted{errs: []error{transientErr(), transientErr(), transientErr(), transientErr()}}
	r := noSleep(WithRetry(gen, RetryConfig{MaxAttempts: 2}, nil))

	_, err := r.Generate(context.Background(), "p", 10)
	if !core.IsTransient(err) {
		t.Fatalf("expected the last transient error, got %v", err)
	}
	if gen.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", gen.calls)
	}
}

func TestRetryHonorsCancellationDuringBackoff(t *testing.T) {
	gen := &scripted{errs: []error{transientErr(), transientErr()}}
	r := WithRetry(gen, RetryConfig{MaxAttempts: 3, InitialDelay: time.Hour, MaxDelay: time.Hour}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := r.Generate(ctx, "p", 10)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatalf("backoff ignored cancellation")
	}
}

func TestBackoffGrowsAndCaps(t *testing.T) {
	cfg := RetryConfig{InitialDelay: 100 * time.Millisecond, MaxDelay: 300 * time.Millisecond, Multiplier: 2}.withDefaults()
	cfg.JitterFraction = 0

	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 300 * time.Millisecond, 300 * time.Millisecond}
	for i, w := range want {
		if got := backoff(i+1, cfg); got != w {
			t.Fatalf("attempt %d: got %v, want %v", i+1, got, w)
		}
	}
}

func TestThrottleBoundsInFlightCalls(t *testing.T) {
	var inFlight, peak atomic.Int32
	slow := core.TextGeneratorFunc(func(ctx context.Context, p string, n int) (string, error) {
		cur := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			old := peak.Load()
			if cur <= old || peak.CompareAndSwap(old, cur) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		return "x", nil
	})

	th := WithThrottle(slow, 0, 2)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := th.Generate(context.Background(), "p", 1); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	if p := peak.Load(); p > 2 {
		t.Fatalf("peak in-flight %d exceeds 2", p)
	}
}

func TestThrottleRateLimitRespectsContext(t *testing.T) {
	gen := &scripted{}
	// One request per minute with burst 1: the second call must wait ~60s.
	th := WithThrottle(gen, 1, 0)

	if _, err := th.Generate(context.Background(), "p", 1); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := th.Generate(ctx, "p", 1); err == nil {
		t.Fatalf("expected the limiter to refuse within the deadline")
	}
	if gen.calls != 1 {
		t.Fatalf("throttled call reached the provider")
	}
}
