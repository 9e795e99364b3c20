package transcript

import (
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
)

// Config holds transcript store initialization parameters.
type Config struct {
	Backend     string `json:"backend,omitempty" yaml:"backend,omitempty"`           // "file", "redis", or empty to disable
	Path        string `json:"path,omitempty" yaml:"path,omitempty"`                 // file backend root directory
	RedisAddr   string `json:"redis_addr,omitempty" yaml:"redis_addr,omitempty"`     // redis backend address
	RedisPrefix string `json:"redis_prefix,omitempty" yaml:"redis_prefix,omitempty"` // key prefix
	TTL         string `json:"ttl,omitempty" yaml:"ttl,omitempty"`                   // redis key expiry; empty keeps records forever
}

// DefaultConfig returns the default transcript configuration (disabled).
func DefaultConfig() Config {
	return Config{RedisPrefix: DefaultRedisPrefix}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Backend != "" {
		c.Backend = source.Backend
	}
	if source.Path != "" {
		c.Path = source.Path
	}
	if source.RedisAddr != "" {
		c.RedisAddr = source.RedisAddr
	}
	if source.RedisPrefix != "" {
		c.RedisPrefix = source.RedisPrefix
	}
	if source.TTL != "" {
		c.TTL = source.TTL
	}
}

// NewStore creates a Store from configuration. Returns a nil Store when
// Backend is empty, indicating transcripts are disabled.
func NewStore(cfg *Config) (Store, error) {
	switch cfg.Backend {
	case "":
		return nil, nil
	case BackendFile:
		if cfg.Path == "" {
			return nil, fmt.Errorf("file transcript store needs a path")
		}
		return NewFileStore(cfg.Path), nil
	case BackendRedis:
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("redis transcript store needs an address")
		}
		var ttl time.Duration
		if cfg.TTL != "" {
			d, err := time.ParseDuration(cfg.TTL)
			if err != nil {
				return nil, fmt.Errorf("transcript ttl: %w", err)
			}
			ttl = d
		}
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		return NewRedisStore(client, cfg.RedisPrefix, ttl), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, cfg.Backend)
	}
}
