package agent

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
)

// AgentInfo describes a registered agent's name and transport.
type AgentInfo struct {
	Name     string
	Provider string
	Model    string
}

// Registry holds named model transports, such as a hosted model for
// production and a local ollama model for development. Agents are created
// on first Get and cached. Safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	configs map[string]Config
	agents  map[string]Agent
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		configs: make(map[string]Config),
		agents:  make(map[string]Agent),
	}
}

// RegistryFrom registers every entry of configs, in name order.
func RegistryFrom(configs map[string]Config) (*Registry, error) {
	r := NewRegistry()
	for _, name := range slices.Sorted(maps.Keys(configs)) {
		if err := r.Register(name, configs[name]); err != nil {
			return nil, fmt.Errorf("register agent %q: %w", name, err)
		}
	}
	return r, nil
}

// Register adds a named configuration. The transport is not created until
// Get is called, so a config with missing credentials fails there.
func (r *Registry) Register(name string, cfg Config) error {
	if name == "" {
		return ErrEmptyAgentName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.configs[name]; exists {
		return fmt.Errorf("%w: %s", ErrAgentExists, name)
	}
	r.configs[name] = cfg
	return nil
}

// Get returns the named agent, creating it on first access.
func (r *Registry) Get(name string) (Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cfg, registered := r.configs[name]
	if !registered {
		return nil, fmt.Errorf("%w: %s", ErrAgentNotFound, name)
	}
	if a, ok := r.agents[name]; ok {
		return a, nil
	}

	a, err := New(&cfg)
	if err != nil {
		return nil, fmt.Errorf("create agent %q: %w", name, err)
	}
	r.agents[name] = a
	return a, nil
}

// List describes the registered agents, sorted by name.
func (r *Registry) List() []AgentInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]AgentInfo, 0, len(r.configs))
	for name, cfg := range r.configs {
		infos = append(infos, AgentInfo{Name: name, Provider: cfg.Provider, Model: cfg.Model})
	}
	slices.SortFunc(infos, func(a, b AgentInfo) int { return strings.Compare(a.Name, b.Name) })
	return infos
}
