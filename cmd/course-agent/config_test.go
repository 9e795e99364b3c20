package main

import (
	"os"
	"path/filepath"
	"testing"
)

func env(vars map[string]string) func(string) string {
	return func(key string) string { return vars[key] }
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("", env(nil))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Server.Addr != defaultAddr || cfg.Store.Path != defaultDBPath {
		t.Errorf("got %+v %+v, want defaults", cfg.Server, cfg.Store)
	}
	if cfg.MaxSteps != 6 || cfg.Agent.Provider != "openai" {
		t.Errorf("kernel defaults not applied: max_steps %d, provider %q", cfg.MaxSteps, cfg.Agent.Provider)
	}
}

func TestLoadConfig_YAML(t *testing.T) {
	cfg, err := LoadConfig("testdata/config.yaml", env(map[string]string{
		"OPENAI_API_KEY":    "sk-test",
		"COURSE_AGENT_ADDR": ":7070",
	}))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"provider", cfg.Agent.Provider, "mock"},
		{"replies", len(cfg.Agent.Replies), 1},
		{"default model kept", cfg.Agent.Model, "gpt-4o-mini"},
		{"api key from env", cfg.Agent.APIKey, "sk-test"},
		{"addr from env", cfg.Server.Addr, ":7070"},
		{"prune interval", cfg.Server.PruneInterval, "30s"},
		{"default shutdown", cfg.Server.ShutdownTimeout, "10s"},
		{"max sessions", cfg.Session.MaxSessions, 50},
		{"timezone", cfg.Timezone, "UTC"},
		{"store", cfg.Store.Path, "data/test.db"},
		{"channel", cfg.Notify.Channel, "bio_notices"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestLoadConfig_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{"agent":{"provider":"ollama","base_url":"http://localhost:11434/v1"},"max_steps":4,"server":{"addr":":1"},"notify":{"redis_addr":"localhost:6379"}}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path, env(map[string]string{"COURSE_AGENT_DB": "/tmp/x.db"}))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Agent.Provider != "ollama" || cfg.MaxSteps != 4 || cfg.Server.Addr != ":1" {
		t.Errorf("got %+v, want the file values", cfg)
	}
	if cfg.Notify.RedisAddr != "localhost:6379" || cfg.Notify.Channel == "" {
		t.Errorf("got notify %+v, want the address and default channel", cfg.Notify)
	}
	if cfg.Store.Path != "/tmp/x.db" {
		t.Errorf("got store %q, want the env override", cfg.Store.Path)
	}
}

func TestLoadConfig_Missing(t *testing.T) {
	if _, err := LoadConfig("testdata/nope.yaml", env(nil)); err == nil {
		t.Error("missing file accepted")
	}
}

func TestDuration(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"30s", "30s"},
		{"", "1m0s"},
		{"soon", "1m0s"},
		{"-5s", "1m0s"},
	}
	for _, tt := range tests {
		if got := duration(tt.in, defaultPruneInterval).String(); got != tt.want {
			t.Errorf("duration(%q): got %s, want %s", tt.in, got, tt.want)
		}
	}
}
