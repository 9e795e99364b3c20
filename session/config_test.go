package session_test

import (
	"testing"
	"time"

	"github.com/tailored-agentic-units/course-agent/session"
)

func TestDefaultConfig(t *testing.T) {
	cfg := session.DefaultConfig()

	if cfg.MaxSessions != 0 {
		t.Errorf("got MaxSessions %d, want 0", cfg.MaxSessions)
	}
	if got := cfg.IdleTTL(); got != 2*time.Hour {
		t.Errorf("got IdleTTL %v, want 2h", got)
	}
}

func TestConfig_Merge(t *testing.T) {
	cfg := session.DefaultConfig()
	source := &session.Config{MaxSessions: 50, IdleTimeout: "15m"}

	cfg.Merge(source)

	if cfg.MaxSessions != 50 {
		t.Errorf("got MaxSessions %d, want 50", cfg.MaxSessions)
	}
	if got := cfg.IdleTTL(); got != 15*time.Minute {
		t.Errorf("got IdleTTL %v, want 15m", got)
	}
}

func TestConfig_Merge_ZeroValuesPreserveDefaults(t *testing.T) {
	cfg := session.DefaultConfig()
	original := cfg

	cfg.Merge(&session.Config{})

	if cfg != original {
		t.Errorf("got %+v, want %+v (preserved defaults)", cfg, original)
	}
}

func TestConfig_IdleTTL_Malformed(t *testing.T) {
	for _, v := range []string{"", "soon", "-5m"} {
		cfg := session.Config{IdleTimeout: v}
		if got := cfg.IdleTTL(); got != 2*time.Hour {
			t.Errorf("IdleTimeout %q: got %v, want the 2h default", v, got)
		}
	}
}
