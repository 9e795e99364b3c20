// Package agent is the language-model transport: one opaque request/response
// call per model turn. The loop driver is its only caller and owns retries;
// an Agent makes exactly one attempt per Complete.
package agent

import (
	"context"
	"fmt"

	"github.com/tailored-agentic-units/course-agent/agent/mock"
	"github.com/tailored-agentic-units/course-agent/agent/providers"
	"github.com/tailored-agentic-units/course-agent/core/protocol"
)

// Agent sends the model-input turns and returns the raw reply text.
type Agent interface {
	Complete(ctx context.Context, messages []protocol.Message) (string, error)
}

// Func adapts a function to Agent.
type Func func(ctx context.Context, messages []protocol.Message) (string, error)

func (f Func) Complete(ctx context.Context, messages []protocol.Message) (string, error) {
	return f(ctx, messages)
}

var (
	_ Agent = (*providers.OpenAI)(nil)
	_ Agent = (*mock.Agent)(nil)
)

// New creates an Agent from configuration.
func New(cfg *Config) (Agent, error) {
	switch cfg.Provider {
	case ProviderOpenAI, ProviderOllama:
		if cfg.Model == "" {
			return nil, fmt.Errorf("%w: %s provider needs a model", ErrInvalidConfig, cfg.Provider)
		}
		if cfg.Provider == ProviderOpenAI && cfg.APIKey == "" && cfg.BaseURL == "" {
			return nil, fmt.Errorf("%w: openai provider needs an api key", ErrInvalidConfig)
		}
		return providers.NewOpenAI(providers.OpenAIConfig{
			Name:            cfg.Provider,
			Model:           cfg.Model,
			BaseURL:         cfg.BaseURL,
			APIKey:          cfg.APIKey,
			Temperature:     cfg.Temperature,
			MaxTokens:       cfg.MaxTokens,
			Timeout:         parseDuration(cfg.Timeout, defaultTimeout),
			BreakerFailures: cfg.BreakerFailures,
			BreakerCooldown: parseDuration(cfg.BreakerCooldown, defaultBreakerCooldown),
		}), nil
	case ProviderMock:
		return mock.New(cfg.Replies...), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
}
