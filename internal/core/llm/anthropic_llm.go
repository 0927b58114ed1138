package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/markdave123-py/Synopsis/internal/core"
)

const (
	DefaultAnthropicModel = "claude-3-5-haiku-latest"

	// The Messages API requires max_tokens on every request.
	anthropicFallbackMaxTokens = 1024
)

type AnthropicLLM struct {
	client    anthropic.Client
	modelName string
}

func NewAnthropicLLM(apiKey, modelName, baseURL string) (*AnthropicLLM, error) {
	if apiKey == "" {
		return nil, errors.New("anthropic: api key is required")
	}
	// Retries happen in Retrying, so the SDK must not retry on its own.
	opts := []option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if modelName == "" {
		modelName = DefaultAnthropicModel
	}
	return &AnthropicLLM{client: anthropic.NewClient(opts...), modelName: modelName}, nil
}

func (a *AnthropicLLM) Generate(ctx context.Context, prompt string, maxOutputTokens int) (string, error) {
	maxTokens := int64(maxOutputTokens)
	if maxTokens <= 0 {
		maxTokens = anthropicFallbackMaxTokens
	}

	msg, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.modelName),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return "", providerError("anthropic", apiErr.StatusCode, httpTransient(apiErr.StatusCode),
				apiErr.StatusCode == http.StatusTooManyRequests, err)
		}
		return "", providerError("anthropic", 0, false, false, err)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return b.String(), nil
}

var _ core.TextGenerator = (*AnthropicLLM)(nil)
