// Package blogify rewrites a normalized thread into a blog post with an LLM.
package blogify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ibeckermayer/elongatd/internal/blogify/providers"
	"github.com/ibeckermayer/elongatd/internal/config"
	"github.com/ibeckermayer/elongatd/internal/logger"
	"github.com/ibeckermayer/elongatd/internal/store"
	"github.com/ibeckermayer/elongatd/internal/types"
)

// ErrDisabled is returned by New when blogify is turned off in config
var ErrDisabled = errors.New("blogify is disabled")

// Provider defines the interface for LLM providers
type Provider interface {
	Name() string
	Model() string
	Complete(ctx context.Context, req providers.Request) (providers.Completion, error)
}

// ExchangeRecorder keeps prompt/response pairs for debugging
type ExchangeRecorder interface {
	SaveLLMExchange(store.LLMExchange) (string, error)
}

// Blogifier turns threads into blog posts
type Blogifier struct {
	provider  Provider
	maxTokens int64
	recorder  ExchangeRecorder
	log       zerolog.Logger
}

// New creates a Blogifier with the provider named in config. recorder may be nil.
func New(cfg config.BlogifyConfig, recorder ExchangeRecorder) (*Blogifier, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("blogify.api_key is not set (or export %s)", config.EnvAPIKey)
	}

	var provider Provider
	switch cfg.LLMProvider {
	case config.ProviderAnthropic:
		provider = providers.NewAnthropicProvider(cfg.APIKey, cfg.BaseURL, cfg.Model)
	case config.ProviderOpenAI:
		provider = providers.NewOpenAIProvider(cfg.APIKey, cfg.BaseURL, cfg.Model)
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", cfg.LLMProvider)
	}

	return NewWithProvider(provider, int64(cfg.MaxTokens), recorder), nil
}

// NewWithProvider creates a Blogifier around an existing provider
func NewWithProvider(provider Provider, maxTokens int64, recorder ExchangeRecorder) *Blogifier {
	return &Blogifier{
		provider:  provider,
		maxTokens: maxTokens,
		recorder:  recorder,
		log:       logger.Named("blogify"),
	}
}

// Blogify rewrites the thread. The returned blog's media map holds every
// attachment under the number the prompt gave it.
func (b *Blogifier) Blogify(ctx context.Context, t *types.Thread) (*types.BlogPost, types.Usage, error) {
	if t == nil || len(t.Posts) == 0 {
		return nil, types.Usage{}, fmt.Errorf("failed to blogify: thread has no posts")
	}

	prompt, media := BuildPrompt(t.Posts)

	start := time.Now()
	completion, err := b.provider.Complete(ctx, providers.Request{
		System:    SystemPrompt,
		Prompt:    prompt,
		MaxTokens: b.maxTokens,
	})
	b.record(t.ThreadID, prompt, completion.Text, err)
	if err != nil {
		return nil, types.Usage{}, fmt.Errorf("failed to blogify thread %s: %w", t.ThreadID, err)
	}

	b.log.Info().
		Str("thread_id", t.ThreadID).
		Str("provider", b.provider.Name()).
		Str("model", b.provider.Model()).
		Int64("input_tokens", completion.Usage.InputTokens).
		Int64("output_tokens", completion.Usage.OutputTokens).
		Dur("took", time.Since(start)).
		Msg("blog generated")

	resp, err := ParseBlogResponse(completion.Text)
	if err != nil {
		return nil, completion.Usage, err
	}

	return &types.BlogPost{
		ThreadID:  t.ThreadID,
		Content:   resp.Content,
		Title:     resp.Title,
		Summary:   resp.Summary,
		Media:     media,
		CreatedAt: time.Now().UTC(),
	}, completion.Usage, nil
}

func (b *Blogifier) record(threadID, prompt, response string, callErr error) {
	if b.recorder == nil {
		return
	}
	ex := store.LLMExchange{
		ThreadID: threadID,
		Provider: b.provider.Name(),
		Model:    b.provider.Model(),
		System:   SystemPrompt,
		Prompt:   prompt,
		Response: response,
	}
	if callErr != nil {
		ex.Error = callErr.Error()
	}
	if path, err := b.recorder.SaveLLMExchange(ex); err != nil {
		b.log.Warn().Err(err).Msg("failed to cache LLM exchange")
	} else {
		b.log.Debug().Str("path", path).Msg("cached LLM exchange")
	}
}
