package tools_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/tailored-agentic-units/course-agent/core/course"
	"github.com/tailored-agentic-units/course-agent/tools"
)

func run(t *testing.T, name string, params map[string]any) tools.Result {
	t.Helper()
	result, err := tools.Default().Execute(context.Background(), env(), name, params)
	if err != nil {
		t.Fatalf("Execute(%s) failed: %v", name, err)
	}
	return result
}

func TestCourseInfo(t *testing.T) {
	result := run(t, "get_course_info", nil)

	data, err := json.Marshal(result.Content)
	if err != nil {
		t.Fatal(err)
	}
	var got struct {
		ID     string             `json:"id"`
		Name   string             `json:"name"`
		Counts tools.CourseCounts `json:"counts"`
	}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got.ID != "c1" || got.Name != "Biology 101" {
		t.Errorf("got course %q %q, want c1 Biology 101", got.ID, got.Name)
	}
	want := tools.CourseCounts{
		Assignments: 2, Drafts: 1, Published: 1,
		Announcements: 1, Modules: 1, Files: 3, Enrollments: 2,
		PendingInvites: 1, QuestionBanks: 1, GroupSets: 1,
	}
	if diff := cmp.Diff(want, got.Counts); diff != "" {
		t.Errorf("counts mismatch (-want +got):\n%s", diff)
	}
}

func TestListFilters(t *testing.T) {
	tests := []struct {
		name   string
		tool   string
		params map[string]any
		want   int
	}{
		{"all assignments", "list_assignments", nil, 2},
		{"drafts", "list_assignments", map[string]any{"status": "Draft"}, 1},
		{"published", "list_assignments", map[string]any{"status": "published"}, 1},
		{"all enrollments", "list_enrollments", nil, 2},
		{"students", "list_enrollments", map[string]any{"role": "student"}, 1},
		{"all grades", "list_grades", nil, 2},
		{"grades for a1", "list_grades", map[string]any{"assignmentId": "a1"}, 1},
		{"submissions for a2", "list_submissions", map[string]any{"assignmentId": "a2"}, 0},
		{"invites", "list_invites", nil, 2},
		{"files", "list_files", nil, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := run(t, tt.tool, tt.params)
			if result.IsError {
				t.Fatalf("got error result %v", result.Content)
			}
			if got := lenOf(t, result.Content); got != tt.want {
				t.Errorf("got %d records, want %d", got, tt.want)
			}
		})
	}
}

func lenOf(t *testing.T, v any) int {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	var list []any
	if err := json.Unmarshal(data, &list); err != nil {
		t.Fatalf("content is not a list: %s", data)
	}
	return len(list)
}

func TestListSummaries(t *testing.T) {
	modules := run(t, "list_modules", nil)
	data, _ := json.Marshal(modules.Content)
	if want := `[{"id":"m1","name":"Week 1","position":0,"itemCount":1,"hidden":false}]`; string(data) != want {
		t.Errorf("got %s, want %s", data, want)
	}

	banks := run(t, "list_question_banks", nil)
	data, _ = json.Marshal(banks.Content)
	if want := `[{"id":"b1","name":"Cell Biology","questionCount":2}]`; string(data) != want {
		t.Errorf("got %s, want %s", data, want)
	}

	sets := run(t, "list_group_sets", nil)
	data, _ = json.Marshal(sets.Content)
	if want := `[{"id":"g1","name":"Lab Groups","groups":[{"id":"gr1","name":"Group 1","memberCount":1}]}]`; string(data) != want {
		t.Errorf("got %s, want %s", data, want)
	}
}

func TestGetByID(t *testing.T) {
	tests := []struct {
		name    string
		tool    string
		id      any
		wantErr bool
	}{
		{"assignment", "get_assignment", "a1", false},
		{"announcement", "get_announcement", "n1", false},
		{"module", "get_module", "m1", false},
		{"question bank", "get_question_bank", "b1", false},
		{"unknown id", "get_assignment", "zzz", true},
		{"missing id", "get_module", nil, true},
		{"non-string id", "get_module", 7, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := map[string]any{}
			if tt.id != nil {
				params["id"] = tt.id
			}
			result := run(t, tt.tool, params)
			if result.IsError != tt.wantErr {
				t.Errorf("IsError = %v, want %v (content %v)", result.IsError, tt.wantErr, result.Content)
			}
		})
	}
}

func TestGetAssignment_ReturnsRecord(t *testing.T) {
	result := run(t, "get_assignment", map[string]any{"id": "a1"})
	got, ok := result.Content.(course.Assignment)
	if !ok {
		t.Fatalf("got %T, want course.Assignment", result.Content)
	}
	if got.Title != "Lab Report 1" || got.Points != 100 {
		t.Errorf("got %+v, want Lab Report 1 worth 100", got)
	}
}
