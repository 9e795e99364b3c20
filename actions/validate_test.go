package actions_test

import (
	"strings"
	"testing"

	"github.com/tailored-agentic-units/course-agent/actions"
	"github.com/tailored-agentic-units/course-agent/core/course"
)

func TestValidate(t *testing.T) {
	data := fixture()
	snap := &data

	tests := []struct {
		name   string
		action string
		raw    actions.Fields
		want   string
	}{
		{"valid create", "create_assignment", actions.Fields{"title": "Essay"}, ""},
		{"missing title", "create_assignment", actions.Fields{"points": 10}, "missing required field(s): title"},
		{"update without id", "update_assignment", actions.Fields{"title": "New"}, "missing required field(s): id"},
		{"update with alias id", "update_assignment", actions.Fields{"assignmentId": "a1", "title": "New"}, ""},
		{"update unknown id", "update_assignment", actions.Fields{"id": "zzz"}, `no assignment with id "zzz"`},
		{"group assignment without set", "create_assignment", actions.Fields{"title": "Team", "isGroupAssignment": true}, "group set"},
		{"group set by name", "create_assignment", actions.Fields{"title": "Team", "isGroupAssignment": true, "groupSetName": "lab groups"}, ""},
		{"unknown question bank", "create_assignment", actions.Fields{"title": "Quiz", "questionBankId": "nope"}, `no question bank with id "nope"`},
		{"announcement needs content", "create_announcement", actions.Fields{"title": "Hi"}, "missing required field(s): content"},
		{"module item needs module", "add_module_item", actions.Fields{"url": "https://x"}, "one of moduleId or moduleName"},
		{"module item unknown ref", "add_module_item", actions.Fields{"moduleId": "m1", "refTitle": "Missing"}, `no assignment titled "Missing"`},
		{"module item by titles", "add_module_item", actions.Fields{"moduleName": "week 1", "refTitle": "Reading Notes"}, ""},
		{"remove unknown item", "remove_module_item", actions.Fields{"moduleId": "m1", "itemId": "nope"}, "has no item"},
		{"invite enrolled user", "invite_user", actions.Fields{"email": "STU@example.edu"}, "already enrolled"},
		{"invite bad role", "invite_user", actions.Fields{"email": "x@example.edu", "role": "dean"}, "unknown role"},
		{"revoke by email", "revoke_invite", actions.Fields{"email": "new@example.edu"}, ""},
		{"revoke missing", "revoke_invite", actions.Fields{"email": "none@example.edu"}, "no pending invite"},
		{"grade for instructor", "set_grade", actions.Fields{"assignmentId": "a1", "email": "prof@example.edu", "score": 10}, "not as a student"},
		{"grade zero score", "set_grade", actions.Fields{"assignmentTitle": "Lab Report 1", "email": "stu@example.edu", "score": 0}, ""},
		{"file by name", "set_file_visibility", actions.Fields{"fileName": "syllabus.pdf", "hidden": true}, ""},
		{"unknown action", "drop_course", actions.Fields{}, `unknown action "drop_course"`},
		{"deprecated is left to materialize", "create_quiz", actions.Fields{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := actions.Validate(tt.action, tt.raw, snap)
			if tt.want == "" {
				if got != "" {
					t.Errorf("got %q, want valid", got)
				}
				return
			}
			if !strings.Contains(got, tt.want) {
				t.Errorf("got %q, want it to contain %q", got, tt.want)
			}
		})
	}
}

func TestValidate_PipelineSeesEarlierSteps(t *testing.T) {
	data := fixture()

	raw := actions.Fields{"steps": []any{
		map[string]any{"action": "create_module", "name": "Week 2"},
		map[string]any{"action": "create_assignment", "title": "Essay 2"},
		map[string]any{"action": "add_module_item", "moduleName": "Week 2", "refTitle": "Essay 2"},
	}}
	if got := actions.Validate("pipeline", raw, &data); got != "" {
		t.Errorf("got %q, want valid", got)
	}

	if len(data.ModuleList) != 1 {
		t.Errorf("validation wrote to the snapshot: %d modules", len(data.ModuleList))
	}
}

func TestValidate_PipelineReasons(t *testing.T) {
	data := fixture()

	tests := []struct {
		name  string
		steps []any
		want  string
	}{
		{"empty", []any{}, "at least one step"},
		{"nested", []any{map[string]any{"action": "pipeline", "steps": []any{}}}, "step 1 (pipeline): pipelines cannot be nested"},
		{"deprecated step", []any{map[string]any{"action": "create_quiz"}}, "step 1 (create_quiz)"},
		{"unknown step", []any{map[string]any{"action": "x"}}, "step 1 (x): unknown action"},
		{"unnamed step", []any{map[string]any{"title": "A"}}, "step 1: no action named"},
		{
			"second step fails",
			[]any{
				map[string]any{"action": "create_module", "name": "Week 2"},
				map[string]any{"action": "add_module_item", "moduleName": "Week 9"},
			},
			`step 2 (add_module_item): no module named "Week 9"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := actions.Validate("pipeline", actions.Fields{"steps": tt.steps}, &data)
			if !strings.Contains(got, tt.want) {
				t.Errorf("got %q, want it to contain %q", got, tt.want)
			}
		})
	}
}

func TestPublishPrecheck(t *testing.T) {
	data := fixture()
	snap := &data

	tests := []struct {
		name   string
		action string
		data   actions.Fields
		want   []string
	}{
		{"draft create", "create_assignment", actions.Fields{"title": "A", "status": course.StatusDraft}, nil},
		{"published create", "create_assignment", actions.Fields{"title": "A", "status": course.StatusPublished, "points": 0.0}, []string{"description", "points", "dueDate"}},
		{"update merges existing", "update_assignment", actions.Fields{"id": "a1", "status": course.StatusPublished}, nil},
		{"publish incomplete", "publish_assignment", actions.Fields{"id": "a2"}, []string{"description", "points", "dueDate"}},
		{"publish complete", "publish_assignment", actions.Fields{"id": "a1"}, nil},
		{"announcement without content", "publish_announcement", actions.Fields{"id": "n2"}, []string{"content"}},
		{"no publish rule", "create_module", actions.Fields{"name": "M"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := actions.PublishPrecheck(tt.action, tt.data, snap)
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
