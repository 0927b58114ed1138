package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/markdave123-py/Synopsis/internal/core"
	"github.com/markdave123-py/Synopsis/internal/logger"
)

// Options selects and tunes the text-generation backend.
type Options struct {
	Provider     string // gemini | openai | anthropic
	Model        string
	BaseURL      string
	GeminiKey    string
	OpenAIKey    string
	AnthropicKey string

	RequestsPerMinute int
	MaxInFlight       int
	Retry             RetryConfig
}

// New builds the configured provider wrapped as retry(throttle(provider)):
// every attempt, including retries, waits for the limiter. The returned close
// func releases the provider's client.
func New(ctx context.Context, opts Options, log *logger.Logger) (core.TextGenerator, func() error, error) {
	var (
		base    core.TextGenerator
		closeFn = func() error { return nil }
	)

	switch strings.ToLower(strings.TrimSpace(opts.Provider)) {
	case "", "gemini":
		g, err := NewGeminiLLM(ctx, opts.GeminiKey, opts.Model)
		if err != nil {
			return nil, nil, err
		}
		base, closeFn = g, g.Close
	case "openai":
		o, err := NewOpenAILLM(opts.OpenAIKey, opts.Model, opts.BaseURL)
		if err != nil {
			return nil, nil, err
		}
		base = o
	case "anthropic":
		a, err := NewAnthropicLLM(opts.AnthropicKey, opts.Model, opts.BaseURL)
		if err != nil {
			return nil, nil, err
		}
		base = a
	default:
		return nil, nil, fmt.Errorf("unknown llm provider %q", opts.Provider)
	}

	gen := WithRetry(WithThrottle(base, opts.RequestsPerMinute, opts.MaxInFlight), opts.Retry, log)
	return gen, closeFn, nil
}
