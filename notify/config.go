package notify

import "github.com/go-redis/redis/v8"

// Config holds notice publishing parameters. An empty RedisAddr disables
// publishing.
type Config struct {
	RedisAddr string `json:"redis_addr,omitempty" yaml:"redis_addr,omitempty"`
	Channel   string `json:"channel,omitempty" yaml:"channel,omitempty"`
}

// DefaultConfig returns the default notify configuration (disabled).
func DefaultConfig() Config {
	return Config{Channel: DefaultChannel}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.RedisAddr != "" {
		c.RedisAddr = source.RedisAddr
	}
	if source.Channel != "" {
		c.Channel = source.Channel
	}
}

// NewPublisher creates a RedisPublisher from configuration, or returns nil
// when publishing is disabled.
func NewPublisher(cfg *Config) *RedisPublisher {
	if cfg.RedisAddr == "" {
		return nil
	}
	return NewRedisPublisher(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}), cfg.Channel)
}
