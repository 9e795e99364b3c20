package main

import (
	"time"

	"github.com/tailored-agentic-units/course-agent/kernel"
	"github.com/tailored-agentic-units/course-agent/notify"
)

const (
	defaultAddr            = ":8080"
	defaultDBPath          = "data/course-agent.db"
	defaultShutdownTimeout = 10 * time.Second
	defaultPruneInterval   = time.Minute
)

// ServerConfig holds HTTP listener parameters.
type ServerConfig struct {
	Addr            string `json:"addr,omitempty" yaml:"addr,omitempty"`
	ShutdownTimeout string `json:"shutdown_timeout,omitempty" yaml:"shutdown_timeout,omitempty"`
	PruneInterval   string `json:"prune_interval,omitempty" yaml:"prune_interval,omitempty"` // how often idle sessions are dropped
}

// StoreConfig locates the course database.
type StoreConfig struct {
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// Config is the command configuration: the kernel sections plus the outer
// surfaces only the command wires.
type Config struct {
	kernel.Config `yaml:",inline"`

	Server ServerConfig  `json:"server" yaml:"server"`
	Store  StoreConfig   `json:"store" yaml:"store"`
	Notify notify.Config `json:"notify" yaml:"notify"`
}

// DefaultConfig returns the command defaults.
func DefaultConfig() Config {
	return Config{
		Config: kernel.DefaultConfig(),
		Server: ServerConfig{
			Addr:            defaultAddr,
			ShutdownTimeout: defaultShutdownTimeout.String(),
			PruneInterval:   defaultPruneInterval.String(),
		},
		Store:  StoreConfig{Path: defaultDBPath},
		Notify: notify.DefaultConfig(),
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	c.Config.Merge(&source.Config)
	c.Notify.Merge(&source.Notify)

	if source.Server.Addr != "" {
		c.Server.Addr = source.Server.Addr
	}
	if source.Server.ShutdownTimeout != "" {
		c.Server.ShutdownTimeout = source.Server.ShutdownTimeout
	}
	if source.Server.PruneInterval != "" {
		c.Server.PruneInterval = source.Server.PruneInterval
	}
	if source.Store.Path != "" {
		c.Store.Path = source.Store.Path
	}
}

// LoadConfig merges the file at filename, when given, and then the
// environment read through getenv over the defaults.
func LoadConfig(filename string, getenv func(string) string) (*Config, error) {
	cfg := DefaultConfig()
	if filename != "" {
		var loaded Config
		if err := kernel.ReadConfigFile(filename, &loaded); err != nil {
			return nil, err
		}
		cfg.Merge(&loaded)
	}
	cfg.Merge(fromEnv(getenv))
	return &cfg, nil
}

// fromEnv collects the settings that may be given as environment variables.
func fromEnv(getenv func(string) string) *Config {
	var c Config
	c.Agent.Provider = getenv("COURSE_AGENT_PROVIDER")
	c.Agent.Model = getenv("COURSE_AGENT_MODEL")
	c.Agent.BaseURL = getenv("COURSE_AGENT_BASE_URL")
	c.Agent.APIKey = getenv("OPENAI_API_KEY")
	c.AgentName = getenv("COURSE_AGENT_AGENT")
	c.Timezone = getenv("COURSE_AGENT_TIMEZONE")
	c.Documents.Dir = getenv("COURSE_AGENT_DOCUMENTS")
	c.Server.Addr = getenv("COURSE_AGENT_ADDR")
	c.Store.Path = getenv("COURSE_AGENT_DB")
	c.Notify.RedisAddr = getenv("COURSE_AGENT_REDIS_ADDR")
	return &c
}

func duration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
