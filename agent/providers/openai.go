// Package providers holds the concrete model transports. OpenAI speaks the
// chat completions API through go-openai, which also serves OpenAI-compatible
// servers such as Ollama.
package providers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"

	"github.com/tailored-agentic-units/course-agent/core/protocol"
)

// OpenAIConfig configures an OpenAI transport.
type OpenAIConfig struct {
	Name        string
	Model       string
	BaseURL     string
	APIKey      string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration

	// The breaker opens after BreakerFailures consecutive failures and probes
	// again after BreakerCooldown.
	BreakerFailures uint32
	BreakerCooldown time.Duration

	HTTPClient *http.Client
	Logger     *slog.Logger
}

// OpenAI is a chat completions transport guarded by a circuit breaker.
type OpenAI struct {
	name    string
	cfg     OpenAIConfig
	client  *openai.Client
	breaker *gobreaker.CircuitBreaker
}

// NewOpenAI creates an OpenAI transport.
func NewOpenAI(cfg OpenAIConfig) *OpenAI {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.HTTPClient != nil {
		clientCfg.HTTPClient = cfg.HTTPClient
	}
	if cfg.Name == "" {
		cfg.Name = "openai"
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerCooldown <= 0 {
		cfg.BreakerCooldown = 30 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	failures := cfg.BreakerFailures
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("model circuit state change", "provider", name, "from", from.String(), "to", to.String())
		},
	})

	return &OpenAI{
		name:    cfg.Name,
		cfg:     cfg,
		client:  openai.NewClientWithConfig(clientCfg),
		breaker: breaker,
	}
}

func (p *OpenAI) Name() string { return p.name }

// Complete sends one chat completion request and returns the first choice.
func (p *OpenAI) Complete(ctx context.Context, messages []protocol.Message) (string, error) {
	call := func() (any, error) {
		callCtx := ctx
		if p.cfg.Timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
			defer cancel()
		}
		req := ChatData{
			Model:       p.cfg.Model,
			Messages:    messages,
			Temperature: p.cfg.Temperature,
			MaxTokens:   p.cfg.MaxTokens,
		}.Request()

		resp, err := p.client.CreateChatCompletion(callCtx, req)
		if err != nil {
			return nil, err
		}
		if len(resp.Choices) == 0 {
			return nil, ErrEmptyResponse
		}
		return resp.Choices[0].Message.Content, nil
	}

	out, err := p.breaker.Execute(call)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", fmt.Errorf("%w: %s: %w", ErrCircuitOpen, p.name, err)
		}
		return "", fmt.Errorf("%s completion failed: %w", p.name, err)
	}
	content, _ := out.(string)
	return content, nil
}
