package agent

import "time"

// Supported providers. Ollama speaks the OpenAI chat API.
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
	ProviderMock   = "mock"
)

const (
	defaultTimeout         = 60 * time.Second
	defaultBreakerCooldown = 30 * time.Second
	defaultBreakerFailures = 5
)

// Config holds the parameters of one model transport.
type Config struct {
	Provider        string   `json:"provider,omitempty" yaml:"provider,omitempty"`
	Model           string   `json:"model,omitempty" yaml:"model,omitempty"`
	BaseURL         string   `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	APIKey          string   `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	Temperature     float32  `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	MaxTokens       int      `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`
	Timeout         string   `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	BreakerFailures uint32   `json:"breaker_failures,omitempty" yaml:"breaker_failures,omitempty"`
	BreakerCooldown string   `json:"breaker_cooldown,omitempty" yaml:"breaker_cooldown,omitempty"`
	Replies         []string `json:"replies,omitempty" yaml:"replies,omitempty"` // scripted replies for the mock provider
}

// DefaultConfig returns an OpenAI configuration without credentials.
func DefaultConfig() Config {
	return Config{
		Provider:        ProviderOpenAI,
		Model:           "gpt-4o-mini",
		Temperature:     0.2,
		Timeout:         defaultTimeout.String(),
		BreakerFailures: defaultBreakerFailures,
		BreakerCooldown: defaultBreakerCooldown.String(),
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Provider != "" {
		c.Provider = source.Provider
	}
	if source.Model != "" {
		c.Model = source.Model
	}
	if source.BaseURL != "" {
		c.BaseURL = source.BaseURL
	}
	if source.APIKey != "" {
		c.APIKey = source.APIKey
	}
	if source.Temperature > 0 {
		c.Temperature = source.Temperature
	}
	if source.MaxTokens > 0 {
		c.MaxTokens = source.MaxTokens
	}
	if source.Timeout != "" {
		c.Timeout = source.Timeout
	}
	if source.BreakerFailures > 0 {
		c.BreakerFailures = source.BreakerFailures
	}
	if source.BreakerCooldown != "" {
		c.BreakerCooldown = source.BreakerCooldown
	}
	if len(source.Replies) > 0 {
		c.Replies = source.Replies
	}
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
