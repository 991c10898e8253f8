package providers

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/ibeckermayer/elongatd/internal/config"
	"github.com/ibeckermayer/elongatd/internal/types"
)

// OpenAIProvider completes prompts with the Chat Completions API. A base URL
// points it at Azure or any compatible deployment.
type OpenAIProvider struct {
	client openai.Client
	model  string
}

// NewOpenAIProvider creates a new OpenAI provider. baseURL may be empty.
func NewOpenAIProvider(apiKey, baseURL, model string) *OpenAIProvider {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if model == "" {
		model = "gpt-4o"
	}
	return &OpenAIProvider{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

func (c *OpenAIProvider) Name() string  { return config.ProviderOpenAI }
func (c *OpenAIProvider) Model() string { return c.model }

// Complete sends one system+user exchange
func (c *OpenAIProvider) Complete(ctx context.Context, req Request) (Completion, error) {
	var messages []openai.ChatCompletionMessageParamUnion
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:               c.model,
		Messages:            messages,
		MaxCompletionTokens: openai.Int(maxTokens(req.MaxTokens)),
	})
	if err != nil {
		return Completion{}, fmt.Errorf("failed to call OpenAI API: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Completion{}, fmt.Errorf("OpenAI returned no choices")
	}

	return Completion{
		Text: joinText([]string{resp.Choices[0].Message.Content}),
		Usage: types.Usage{
			Provider:     config.ProviderOpenAI,
			Model:        c.model,
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		},
	}, nil
}
