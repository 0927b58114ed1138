package llm

import (
	"context"
	"errors"
	"net/http"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/markdave123-py/Synopsis/internal/core"
)

const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAILLM generates through the Chat Completions API with a single user turn.
type OpenAILLM struct {
	client    openai.Client
	modelName string
}

// NewOpenAILLM builds the client. baseURL is optional and points the client at
// a compatible endpoint.
func NewOpenAILLM(apiKey, modelName, baseURL string) (*OpenAILLM, error) {
	if apiKey == "" {
		return nil, errors.New("openai: api key is required")
	}
	// Retries happen in Retrying, so the SDK must not retry on its own.
	opts := []option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if modelName == "" {
		modelName = DefaultOpenAIModel
	}
	return &OpenAILLM{client: openai.NewClient(opts...), modelName: modelName}, nil
}

func (o *OpenAILLM) Generate(ctx context.Context, prompt string, maxOutputTokens int) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.modelName),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	}
	if maxOutputTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(maxOutputTokens))
	}

	completion, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", providerError("openai", apiErr.StatusCode, httpTransient(apiErr.StatusCode),
				apiErr.StatusCode == http.StatusTooManyRequests, err)
		}
		return "", providerError("openai", 0, false, false, err)
	}
	if len(completion.Choices) == 0 {
		return "", nil
	}
	return completion.Choices[0].Message.Content, nil
}

var _ core.TextGenerator = (*OpenAILLM)(nil)
