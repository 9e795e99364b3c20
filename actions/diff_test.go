package actions_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/tailored-agentic-units/course-agent/actions"
)

func TestChanges(t *testing.T) {
	before := actions.Fields{"title": "Essay", "points": 100.0, "pinned": false}
	after := actions.Fields{"title": "Essay", "points": 40.0, "dueDate": "2025-05-01T23:59"}

	want := []actions.Change{
		{Field: "dueDate", New: "2025-05-01T23:59"},
		{Field: "pinned", Old: false},
		{Field: "points", Old: 100.0, New: 40.0},
	}
	if diff := cmp.Diff(want, actions.Changes(before, after)); diff != "" {
		t.Errorf("Changes mismatch (-want +got):\n%s", diff)
	}
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name    string
		changes []actions.Change
		want    []string
	}{
		{"none", nil, []string{"No changes."}},
		{"added", []actions.Change{{Field: "dueDate", New: "2025-05-01T23:59"}}, []string{`- dueDate: set to "2025-05-01T23:59"`}},
		{"removed", []actions.Change{{Field: "pinned", Old: true}}, []string{"- pinned: cleared (was true)"}},
		{"short", []actions.Change{{Field: "points", Old: 100.0, New: 40.0}}, []string{"- points: 100 → 40"}},
		{
			"long string inline diff",
			[]actions.Change{{
				Field: "description",
				Old:   "Write a five paragraph essay about cell biology.",
				New:   "Write a two paragraph essay about cell biology.",
			}},
			[]string{"[-five-]", "{+two+}", "essay about cell biology."},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := actions.Summarize(tt.changes)
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("got %q, want it to contain %q", got, w)
				}
			}
		})
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		p    actions.PendingAction
		want string
	}{
		{actions.PendingAction{Type: "create_assignment", Data: actions.Fields{"title": "Essay 1"}}, `Create assignment "Essay 1"`},
		{actions.PendingAction{Type: "invite_user", Data: actions.Fields{"email": "a@b.edu"}}, `Invite user "a@b.edu"`},
		{actions.PendingAction{Type: "publish_assignment", Data: actions.Fields{}}, "Publish assignment"},
		{
			actions.PendingAction{Type: "pipeline", Data: actions.Fields{"steps": []any{
				map[string]any{"action": "create_module", "name": "Week 2"},
				map[string]any{"action": "delete_module", "id": "m1"},
			}}},
			`Pipeline of 2 step(s): 1. Create module "Week 2"; 2. Delete module "m1"`,
		},
	}
	for _, tt := range tests {
		if got := actions.Describe(tt.p); got != tt.want {
			t.Errorf("Describe(%s) = %q, want %q", tt.p.Type, got, tt.want)
		}
	}
}
