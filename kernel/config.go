package kernel

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tailored-agentic-units/course-agent/agent"
	"github.com/tailored-agentic-units/course-agent/session"
	"github.com/tailored-agentic-units/course-agent/tools"
	"github.com/tailored-agentic-units/course-agent/transcript"
)

const (
	defaultMaxSteps     = 6
	defaultModelRetries = 3
	defaultRetryBackoff = time.Second
)

// DocumentsConfig locates course file contents for the read_file_content
// tool. An empty Dir leaves file contents unavailable.
type DocumentsConfig struct {
	Dir             string `json:"dir,omitempty" yaml:"dir,omitempty"`
	MaxInlineBytes  int64  `json:"max_inline_bytes,omitempty" yaml:"max_inline_bytes,omitempty"`
	MaxExtractBytes int64  `json:"max_extract_bytes,omitempty" yaml:"max_extract_bytes,omitempty"`
	MaxTextChars    int    `json:"max_text_chars,omitempty" yaml:"max_text_chars,omitempty"`
}

// Config holds initialization parameters for the kernel and the subsystems a
// conversation needs. Each section delegates to that subsystem's config.
type Config struct {
	Agent      agent.Config            `json:"agent" yaml:"agent"`
	Agents     map[string]agent.Config `json:"agents,omitempty" yaml:"agents,omitempty"`
	AgentName  string                  `json:"agent_name,omitempty" yaml:"agent_name,omitempty"` // selects an entry of Agents instead of Agent
	Session    session.Config          `json:"session" yaml:"session"`
	Transcript transcript.Config       `json:"transcript" yaml:"transcript"`
	Documents  DocumentsConfig         `json:"documents" yaml:"documents"`
	Observer   string                  `json:"observer,omitempty" yaml:"observer,omitempty"` // registered observer name

	MaxSteps        int    `json:"max_steps,omitempty" yaml:"max_steps,omitempty"`
	ModelRetries    int    `json:"model_retries,omitempty" yaml:"model_retries,omitempty"`
	RetryBackoff    string `json:"retry_backoff,omitempty" yaml:"retry_backoff,omitempty"` // multiplied by the attempt number
	MaxContextChars int    `json:"max_context_chars,omitempty" yaml:"max_context_chars,omitempty"`
	Timezone        string `json:"timezone,omitempty" yaml:"timezone,omitempty"` // IANA name; empty uses the local zone
}

// DefaultConfig returns a Config with sensible defaults for all subsystems.
func DefaultConfig() Config {
	limits := tools.DefaultLimits()
	return Config{
		Agent:      agent.DefaultConfig(),
		Session:    session.DefaultConfig(),
		Transcript: transcript.DefaultConfig(),
		Documents: DocumentsConfig{
			MaxInlineBytes:  limits.MaxInlineBytes,
			MaxExtractBytes: limits.MaxExtractBytes,
			MaxTextChars:    limits.MaxTextChars,
		},
		Observer:     "slog",
		MaxSteps:     defaultMaxSteps,
		ModelRetries: defaultModelRetries,
		RetryBackoff: defaultRetryBackoff.String(),
	}
}

// Merge applies non-zero values from source into c, delegating to each
// subsystem's Merge method.
func (c *Config) Merge(source *Config) {
	c.Agent.Merge(&source.Agent)
	c.Session.Merge(&source.Session)
	c.Transcript.Merge(&source.Transcript)

	if len(source.Agents) > 0 {
		c.Agents = source.Agents
	}
	if source.AgentName != "" {
		c.AgentName = source.AgentName
	}
	if source.Observer != "" {
		c.Observer = source.Observer
	}
	if source.Documents.Dir != "" {
		c.Documents.Dir = source.Documents.Dir
	}
	if source.Documents.MaxInlineBytes > 0 {
		c.Documents.MaxInlineBytes = source.Documents.MaxInlineBytes
	}
	if source.Documents.MaxExtractBytes > 0 {
		c.Documents.MaxExtractBytes = source.Documents.MaxExtractBytes
	}
	if source.Documents.MaxTextChars > 0 {
		c.Documents.MaxTextChars = source.Documents.MaxTextChars
	}
	if source.MaxSteps > 0 {
		c.MaxSteps = source.MaxSteps
	}
	if source.ModelRetries > 0 {
		c.ModelRetries = source.ModelRetries
	}
	if source.RetryBackoff != "" {
		c.RetryBackoff = source.RetryBackoff
	}
	if source.MaxContextChars > 0 {
		c.MaxContextChars = source.MaxContextChars
	}
	if source.Timezone != "" {
		c.Timezone = source.Timezone
	}
}

// Backoff parses RetryBackoff, falling back to the default when it is empty
// or malformed.
func (c *Config) Backoff() time.Duration {
	d, err := time.ParseDuration(c.RetryBackoff)
	if err != nil || d < 0 {
		return defaultRetryBackoff
	}
	return d
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// LoadConfig reads a JSON or YAML config file, merges it with defaults, and
// returns the resulting Config.
func LoadConfig(filename string) (*Config, error) {
	cfg := DefaultConfig()

	var loaded Config
	if err := ReadConfigFile(filename, &loaded); err != nil {
		return nil, err
	}

	cfg.Merge(&loaded)
	return &cfg, nil
}

// ReadConfigFile decodes filename into v. Files ending in .yaml or .yml are
// decoded as YAML, anything else as JSON.
func ReadConfigFile(filename string, v any) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, v)
	default:
		err = json.Unmarshal(data, v)
	}
	if err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}
