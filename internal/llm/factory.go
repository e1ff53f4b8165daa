package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mockt/mockt/internal/store"
)

type constructor func(ctx context.Context, cfg Config) (Provider, error)

var constructors = map[string]constructor{
	"anthropic": func(_ context.Context, cfg Config) (Provider, error) {
		return provider(newAnthropic(cfg.Anthropic))
	},
	"openai": func(_ context.Context, cfg Config) (Provider, error) {
		return provider(newOpenAI(cfg.OpenAI))
	},
	"openrouter": func(_ context.Context, cfg Config) (Provider, error) {
		return provider(newOpenRouter(cfg.OpenRouter))
	},
	"gemini": func(ctx context.Context, cfg Config) (Provider, error) {
		return provider(newGemini(ctx, cfg.Gemini))
	},
}

// provider keeps a failed constructor from yielding a typed nil.
func provider[P Provider](p P, err error) (Provider, error) {
	if err != nil {
		return nil, err
	}
	return p, nil
}

// NewProvider builds the configured provider. Calls go through, outermost
// first: timeout, retry, event logging. The mock provider is logged only.
func NewProvider(ctx context.Context, cfg Config, events store.EventRepo, log *zap.Logger) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Provider == "mock" {
		return WithLogging(NewMockProvider(), events, log), nil
	}

	build, ok := constructors[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
	base, err := build(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return withTimeout(WithRetry(WithLogging(base, events, log), cfg.Retry), cfg.Timeout), nil
}
