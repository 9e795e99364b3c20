package registry_test

import (
	"slices"
	"testing"

	"github.com/tailored-agentic-units/course-agent/registry"
)

func TestDefault_StudentSafeSubset(t *testing.T) {
	reg := registry.Default()

	safe := reg.StudentSafeTools()
	if len(safe) == 0 || len(safe) >= len(reg.Tools()) {
		t.Fatalf("got %d student-safe tools of %d, want a proper subset", len(safe), len(reg.Tools()))
	}

	names := make([]string, len(safe))
	for i, tool := range safe {
		names[i] = tool.Name
	}

	for _, want := range []string{"list_assignments", "get_course_info", "read_file_content"} {
		if !slices.Contains(names, want) {
			t.Errorf("student-safe tools missing %q", want)
		}
	}
	for _, banned := range []string{"list_enrollments", "list_grades", "get_question_bank"} {
		if slices.Contains(names, banned) {
			t.Errorf("student-safe tools include %q", banned)
		}
	}
}

func TestDefault_Lookups(t *testing.T) {
	reg := registry.Default()

	tests := []struct {
		name     string
		isTool   bool
		isAction bool
	}{
		{"list_assignments", true, false},
		{"create_assignment", false, true},
		{"pipeline", false, true},
		{"edit_pending_action", false, false},
		{"drop_database", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := reg.IsTool(tt.name); got != tt.isTool {
				t.Errorf("IsTool(%q) = %v, want %v", tt.name, got, tt.isTool)
			}
			if got := reg.IsAction(tt.name); got != tt.isAction {
				t.Errorf("IsAction(%q) = %v, want %v", tt.name, got, tt.isAction)
			}
		})
	}
}

func TestActionDescriptor_Required(t *testing.T) {
	reg := registry.Default()

	desc, ok := reg.Action("create_announcement")
	if !ok {
		t.Fatal("create_announcement not registered")
	}

	got := desc.Required()
	want := []string{"title", "content"}
	if !slices.Equal(got, want) {
		t.Errorf("Required() = %v, want %v", got, want)
	}
}

func TestDefault_DangerAndDeprecation(t *testing.T) {
	reg := registry.Default()

	del, _ := reg.Action("delete_assignment")
	if !del.Dangerous {
		t.Error("delete_assignment should be dangerous")
	}

	quiz, _ := reg.Action("create_quiz")
	if !quiz.Deprecated || quiz.ReplacedBy != "create_assignment" {
		t.Errorf("create_quiz = %+v, want deprecated in favour of create_assignment", quiz)
	}
}

func TestRegistry_DescriptorsAreCopies(t *testing.T) {
	reg := registry.Default()

	desc, _ := reg.Action("create_module")
	desc.Fields[0].Name = "mutated"

	again, _ := reg.Action("create_module")
	if again.Fields[0].Name != "name" {
		t.Errorf("registry descriptor was mutated through a returned copy: %q", again.Fields[0].Name)
	}
}

func TestNew_IgnoresDuplicates(t *testing.T) {
	reg := registry.New(
		[]registry.ToolDescriptor{{Name: "a", Description: "first"}, {Name: "a", Description: "second"}},
		nil,
	)

	tool, ok := reg.Tool("a")
	if !ok {
		t.Fatal("tool a not found")
	}
	if tool.Description != "first" {
		t.Errorf("got description %q, want %q", tool.Description, "first")
	}
	if len(reg.Tools()) != 1 {
		t.Errorf("got %d tools, want 1", len(reg.Tools()))
	}
}
