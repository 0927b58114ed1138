package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/markdave123-py/Synopsis/internal/core"
)

// httpTransient reports whether an HTTP status from a provider is worth retrying.
// 529 is Anthropic's "overloaded".
func httpTransient(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusRequestTimeout,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout,
		529:
		return true
	}
	return false
}

// providerError wraps a provider failure in the generation taxonomy. Rate
// limits additionally match core.ErrRateLimited.
func providerError(provider string, statusCode int, transient, rateLimited bool, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		transient = true
	}
	var wrapped error
	switch {
	case rateLimited:
		wrapped = fmt.Errorf("%s: %w: %w", provider, core.ErrRateLimited, err)
	case statusCode != 0:
		wrapped = fmt.Errorf("%s: status %d: %w", provider, statusCode, err)
	default:
		wrapped = fmt.Errorf("%s: %w", provider, err)
	}
	return &core.GenerationServiceError{Transient: transient, Err: wrapped}
}
