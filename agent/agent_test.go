package agent_test

import (
	"context"
	"errors"
	"testing"

	"github.com/tailored-agentic-units/course-agent/agent"
	"github.com/tailored-agentic-units/course-agent/core/protocol"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     agent.Config
		wantErr error
	}{
		{"openai", agent.Config{Provider: agent.ProviderOpenAI, Model: "gpt-4o-mini", APIKey: "sk-test"}, nil},
		{"ollama", local("qwen3:8b"), nil},
		{"mock", agent.Config{Provider: agent.ProviderMock, Replies: []string{"{}"}}, nil},
		{"openai without key", agent.Config{Provider: agent.ProviderOpenAI, Model: "gpt-4o-mini"}, agent.ErrInvalidConfig},
		{"no model", agent.Config{Provider: agent.ProviderOllama}, agent.ErrInvalidConfig},
		{"unknown provider", agent.Config{Provider: "telepathy"}, agent.ErrUnknownProvider},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := agent.New(&tt.cfg)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("New() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil || a == nil {
				t.Errorf("New() = (%v, %v), want an agent", a, err)
			}
		})
	}
}

func TestNew_MockReplays(t *testing.T) {
	a, err := agent.New(&agent.Config{Provider: agent.ProviderMock, Replies: []string{"one", "two"}})
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	for _, want := range []string{"one", "two"} {
		if got, err := a.Complete(ctx, nil); err != nil || got != want {
			t.Errorf("got (%q, %v), want %q", got, err, want)
		}
	}
}

func TestFunc(t *testing.T) {
	a := agent.Func(func(_ context.Context, msgs []protocol.Message) (string, error) {
		return msgs[len(msgs)-1].Content, nil
	})
	got, err := a.Complete(context.Background(), protocol.InitMessages(protocol.RoleUser, "echo"))
	if err != nil || got != "echo" {
		t.Errorf("got (%q, %v), want echo", got, err)
	}
}

func TestConfig_Merge(t *testing.T) {
	cfg := agent.DefaultConfig()
	cfg.Merge(&agent.Config{Model: "gpt-4.1", APIKey: "sk", MaxTokens: 800})

	if cfg.Provider != agent.ProviderOpenAI || cfg.Model != "gpt-4.1" || cfg.APIKey != "sk" || cfg.MaxTokens != 800 {
		t.Errorf("got %+v", cfg)
	}

	before := cfg
	cfg.Merge(&agent.Config{})
	if cfg.Model != before.Model || cfg.Timeout != before.Timeout || cfg.BreakerFailures != before.BreakerFailures {
		t.Errorf("zero-value merge changed %+v to %+v", before, cfg)
	}
}
