package llm

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/markdave123-py/Synopsis/internal/core"
)

// Throttled bounds how hard the summarizer can hit a provider: at most
// requestsPerMinute calls start per minute and at most maxInFlight run at once.
// Zero disables the respective bound.
type Throttled struct {
	next     core.TextGenerator
	limiter  *rate.Limiter
	inflight *semaphore.Weighted
}

func WithThrottle(next core.TextGenerator, requestsPerMinute, maxInFlight int) *Throttled {
	t := &Throttled{next: next}
	if requestsPerMinute > 0 {
		burst := max(1, requestsPerMinute/10)
		t.limiter = rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), burst)
	}
	if maxInFlight > 0 {
		t.inflight = semaphore.NewWeighted(int64(maxInFlight))
	}
	return t
}

func (t *Throttled) Generate(ctx context.Context, prompt string, maxOutputTokens int) (string, error) {
	if t.inflight != nil {
		if err := t.inflight.Acquire(ctx, 1); err != nil {
			return "", fmt.Errorf("wait for generation slot: %w", err)
		}
		defer t.inflight.Release(1)
	}
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("wait for rate limiter: %w", err)
		}
	}
	return t.next.Generate(ctx, prompt, maxOutputTokens)
}

var _ core.TextGenerator = (*Throttled)(nil)
