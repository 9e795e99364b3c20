package session

import "time"

const defaultIdleTimeout = 2 * time.Hour

// Config holds session manager parameters.
type Config struct {
	MaxSessions int    `json:"max_sessions,omitempty" yaml:"max_sessions,omitempty"` // 0 means unbounded.
	IdleTimeout string `json:"idle_timeout,omitempty" yaml:"idle_timeout,omitempty"` // Go duration; sessions idle longer are pruned.
}

// DefaultConfig returns the default session configuration: unbounded, pruned
// after two hours idle.
func DefaultConfig() Config {
	return Config{IdleTimeout: defaultIdleTimeout.String()}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.MaxSessions > 0 {
		c.MaxSessions = source.MaxSessions
	}
	if source.IdleTimeout != "" {
		c.IdleTimeout = source.IdleTimeout
	}
}

// IdleTTL parses IdleTimeout, falling back to the default when it is empty or
// malformed.
func (c *Config) IdleTTL() time.Duration {
	d, err := time.ParseDuration(c.IdleTimeout)
	if err != nil || d <= 0 {
		return defaultIdleTimeout
	}
	return d
}
