package interpret_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/tailored-agentic-units/course-agent/interpret"
	"github.com/tailored-agentic-units/course-agent/registry"
)

func TestRules(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want map[string]any
	}{
		{
			name: "tool name as type with params",
			raw:  `{"type":"get_assignment","params":{"id":"a1"}}`,
			want: map[string]any{"type": "tool_call", "tool": "get_assignment", "params": map[string]any{"id": "a1"}},
		},
		{
			name: "tool name as type with loose params",
			raw:  `{"type":"get_assignment","id":"a1","step_label":"Opening"}`,
			want: map[string]any{
				"type":       "tool_call",
				"tool":       "get_assignment",
				"params":     map[string]any{"id": "a1"},
				"step_label": "Opening",
			},
		},
		{
			name: "action name as type",
			raw:  `{"type":"create_module","name":"Week 2"}`,
			want: map[string]any{"type": "action", "action": "create_module", "name": "Week 2"},
		},
		{
			name: "pipeline as type with actions",
			raw:  `{"type":"pipeline","actions":[{"action":"create_module","name":"W"}]}`,
			want: map[string]any{
				"type":   "action",
				"action": "pipeline",
				"steps":  []any{map[string]any{"action": "create_module", "name": "W"}},
			},
		},
		{
			name: "pipeline envelope with actions",
			raw:  `{"type":"action","action":"pipeline","actions":[{"action":"create_module","name":"W"}]}`,
			want: map[string]any{
				"type":   "action",
				"action": "pipeline",
				"steps":  []any{map[string]any{"action": "create_module", "name": "W"}},
			},
		},
		{
			name: "edit pending action as type",
			raw:  `{"type":"edit_pending_action","points":50}`,
			want: map[string]any{
				"type":    "action",
				"action":  "edit_pending_action",
				"changes": map[string]any{"points": float64(50)},
			},
		},
		{
			name: "tool_call alternate names",
			raw:  `{"type":"tool_call","name":"list_grades","arguments":"{\"assignmentId\":\"a1\"}"}`,
			want: map[string]any{
				"type":   "tool_call",
				"tool":   "list_grades",
				"params": map[string]any{"assignmentId": "a1"},
			},
		},
		{
			name: "answer under message",
			raw:  `{"type":"answer","message":"All set."}`,
			want: map[string]any{"type": "answer", "text": "All set."},
		},
		{
			name: "ask_user under text",
			raw:  `{"type":"ask_user","text":"Which module?"}`,
			want: map[string]any{"type": "ask_user", "question": "Which module?"},
		},
		{
			name: "action type alias",
			raw:  `{"type":"action","action_type":"delete_module","id":"m1"}`,
			want: map[string]any{"type": "action", "action": "delete_module", "id": "m1"},
		},
	}

	in := interpret.New(registry.Default())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply := in.Parse(tt.raw)
			if reply == nil {
				t.Fatal("Parse returned nil")
			}
			if diff := cmp.Diff(tt.want, reply.Map()); diff != "" {
				t.Errorf("repair mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRules_DoNotMutateInput(t *testing.T) {
	reg := registry.Default()
	input := map[string]any{"type": "create_module", "name": "Week 3"}

	for _, rule := range interpret.DefaultRules() {
		_ = rule(input, reg)
	}

	want := map[string]any{"type": "create_module", "name": "Week 3"}
	if diff := cmp.Diff(want, input); diff != "" {
		t.Errorf("rule mutated its input (-want +got):\n%s", diff)
	}
}

func TestRules_RepairedBeforeRanking(t *testing.T) {
	// The tool name as type only outranks the answer once repaired.
	raw := `{"type":"answer","text":"checking"} {"type":"list_files"}`

	reply := interpret.New(registry.Default()).Parse(raw)
	if reply == nil || reply.Tool != "list_files" {
		t.Fatalf("got %v, want tool_call list_files", reply)
	}
}

func TestNew_CustomRules(t *testing.T) {
	upper := func(c map[string]any, _ *registry.Registry) map[string]any {
		if c["type"] == "reply" {
			out := map[string]any{"type": "answer", "text": c["body"]}
			return out
		}
		return c
	}

	reply := interpret.New(registry.Default(), upper).Parse(`{"type":"reply","body":"hi"}`)
	if reply == nil || reply.Text != "hi" {
		t.Fatalf("got %v, want answer hi", reply)
	}
}
