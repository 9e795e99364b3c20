package agent_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/tailored-agentic-units/course-agent/agent"
)

func local(model string) agent.Config {
	return agent.Config{Provider: agent.ProviderOllama, Model: model, BaseURL: "http://localhost:11434/v1"}
}

func TestRegistry_Get(t *testing.T) {
	r := agent.NewRegistry()
	if err := r.Register("dev", local("qwen3:8b")); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}

	first, err := r.Get("dev")
	if err != nil || first == nil {
		t.Fatalf("Get() = (%v, %v), want an agent", first, err)
	}
	again, err := r.Get("dev")
	if err != nil {
		t.Fatalf("second Get() failed: %v", err)
	}
	if first != again {
		t.Error("Get() built a new transport for a cached name")
	}
}

func TestRegistry_Errors(t *testing.T) {
	r := agent.NewRegistry()
	_ = r.Register("dev", local("qwen3:8b"))
	_ = r.Register("broken", agent.Config{Provider: "carrier-pigeon"})

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"empty name", r.Register("", agent.Config{}), agent.ErrEmptyAgentName},
		{"duplicate", r.Register("dev", local("llama3")), agent.ErrAgentExists},
		{"not registered", get(r, "prod"), agent.ErrAgentNotFound},
		{"bad provider surfaces on get", get(r, "broken"), agent.ErrUnknownProvider},
	}

	for _, tt := range tests {
		if !errors.Is(tt.err, tt.want) {
			t.Errorf("%s: got %v, want %v", tt.name, tt.err, tt.want)
		}
	}
}

func get(r *agent.Registry, name string) error {
	_, err := r.Get(name)
	return err
}

func TestRegistryFrom(t *testing.T) {
	r, err := agent.RegistryFrom(map[string]agent.Config{
		"dev":     local("qwen3:8b"),
		"offline": {Provider: agent.ProviderMock},
	})
	if err != nil {
		t.Fatalf("RegistryFrom() failed: %v", err)
	}

	want := []agent.AgentInfo{
		{Name: "dev", Provider: agent.ProviderOllama, Model: "qwen3:8b"},
		{Name: "offline", Provider: agent.ProviderMock},
	}
	if diff := cmp.Diff(want, r.List()); diff != "" {
		t.Errorf("List() mismatch (-want +got):\n%s", diff)
	}
	if _, err := r.Get("offline"); err != nil {
		t.Errorf("Get() failed: %v", err)
	}

	if _, err := agent.RegistryFrom(map[string]agent.Config{"": {}}); !errors.Is(err, agent.ErrEmptyAgentName) {
		t.Errorf("got %v, want ErrEmptyAgentName", err)
	}
	if got := agent.NewRegistry().List(); len(got) != 0 {
		t.Errorf("empty registry lists %v", got)
	}
}

func TestRegistry_Concurrent(t *testing.T) {
	r, _ := agent.RegistryFrom(map[string]agent.Config{"dev": local("qwen3:8b")})

	var wg sync.WaitGroup
	for range 50 {
		wg.Go(func() { r.List() })
		wg.Go(func() { _, _ = r.Get("dev") })
	}
	wg.Wait()
}
