package tools

import (
	"context"
	"strings"

	"github.com/tailored-agentic-units/course-agent/core/course"
)

var builtins = map[string]Handler{
	"get_course_info":     courseInfo,
	"list_assignments":    listAssignments,
	"get_assignment":      getAssignment,
	"list_announcements":  listAnnouncements,
	"get_announcement":    getAnnouncement,
	"list_modules":        listModules,
	"get_module":          getModule,
	"list_files":          listFiles,
	"read_file_content":   readFileContent,
	"list_question_banks": listQuestionBanks,
	"get_question_bank":   getQuestionBank,
	"list_enrollments":    listEnrollments,
	"list_invites":        listInvites,
	"list_group_sets":     listGroupSets,
	"list_grades":         listGrades,
	"list_submissions":    listSubmissions,
}

func param(params map[string]any, key string) string {
	s, _ := params[key].(string)
	return strings.TrimSpace(s)
}

// byID runs find for the id parameter and reports a missing id or record as
// an error-shaped Result.
func byID[T any](params map[string]any, kind string, s course.Snapshot, find func(course.Snapshot, string) (T, bool)) Result {
	id := param(params, "id")
	if id == "" {
		return Errorf("%s lookup needs an id; list the %ss first", kind, kind)
	}
	rec, ok := find(s, id)
	if !ok {
		return Errorf("no %s with id %q in this course", kind, id)
	}
	return Result{Content: rec}
}

// CourseCounts tallies the records of a course snapshot.
type CourseCounts struct {
	Assignments    int `json:"assignments"`
	Drafts         int `json:"drafts"`
	Published      int `json:"published"`
	Announcements  int `json:"announcements"`
	Modules        int `json:"modules"`
	Files          int `json:"files"`
	Enrollments    int `json:"enrollments"`
	PendingInvites int `json:"pendingInvites"`
	QuestionBanks  int `json:"questionBanks"`
	GroupSets      int `json:"groupSets"`
}

type courseInfoResult struct {
	course.Course
	Counts CourseCounts `json:"counts"`
}

// Counts returns the record tallies of s.
func Counts(s course.Snapshot) CourseCounts {
	c := CourseCounts{
		Assignments:   len(s.Assignments()),
		Announcements: len(s.Announcements()),
		Modules:       len(s.Modules()),
		Files:         len(s.Files()),
		Enrollments:   len(s.Enrollments()),
		QuestionBanks: len(s.QuestionBanks()),
		GroupSets:     len(s.GroupSets()),
	}
	for _, a := range s.Assignments() {
		if a.Status == course.StatusPublished {
			c.Published++
		} else {
			c.Drafts++
		}
	}
	for _, inv := range s.Invites() {
		if inv.Status == course.InviteActive {
			c.PendingInvites++
		}
	}
	return c
}

func courseInfo(_ context.Context, env Env, _ map[string]any) (Result, error) {
	return Result{Content: courseInfoResult{Course: env.Snapshot.Course(), Counts: Counts(env.Snapshot)}}, nil
}

type assignmentSummary struct {
	ID             string  `json:"id"`
	Title          string  `json:"title"`
	AssignmentType string  `json:"assignmentType"`
	Points         float64 `json:"points"`
	DueDate        string  `json:"dueDate"`
	Status         string  `json:"status"`
}

func listAssignments(_ context.Context, env Env, params map[string]any) (Result, error) {
	status := strings.ToLower(param(params, "status"))
	out := []assignmentSummary{}
	for _, a := range env.Snapshot.Assignments() {
		if status != "" && a.Status != status {
			continue
		}
		out = append(out, assignmentSummary{
			ID: a.ID, Title: a.Title, AssignmentType: a.AssignmentType,
			Points: a.Points, DueDate: a.DueDate, Status: a.Status,
		})
	}
	return Result{Content: out}, nil
}

func getAssignment(_ context.Context, env Env, params map[string]any) (Result, error) {
	return byID(params, "assignment", env.Snapshot, course.FindAssignment), nil
}

type announcementSummary struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Pinned bool   `json:"pinned"`
	Hidden bool   `json:"hidden"`
}

func listAnnouncements(_ context.Context, env Env, _ map[string]any) (Result, error) {
	out := []announcementSummary{}
	for _, a := range env.Snapshot.Announcements() {
		out = append(out, announcementSummary{ID: a.ID, Title: a.Title, Pinned: a.Pinned, Hidden: a.Hidden})
	}
	return Result{Content: out}, nil
}

func getAnnouncement(_ context.Context, env Env, params map[string]any) (Result, error) {
	return byID(params, "announcement", env.Snapshot, course.FindAnnouncement), nil
}

type moduleSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Position  int    `json:"position"`
	ItemCount int    `json:"itemCount"`
	Hidden    bool   `json:"hidden"`
}

func listModules(_ context.Context, env Env, _ map[string]any) (Result, error) {
	out := []moduleSummary{}
	for _, m := range env.Snapshot.Modules() {
		out = append(out, moduleSummary{ID: m.ID, Name: m.Name, Position: m.Position, ItemCount: len(m.Items), Hidden: m.Hidden})
	}
	return Result{Content: out}, nil
}

func getModule(_ context.Context, env Env, params map[string]any) (Result, error) {
	return byID(params, "module", env.Snapshot, course.FindModule), nil
}

type fileSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"size"`
}

func listFiles(_ context.Context, env Env, _ map[string]any) (Result, error) {
	out := []fileSummary{}
	for _, f := range env.Snapshot.Files() {
		out = append(out, fileSummary{ID: f.ID, Name: f.Name, MimeType: f.MimeType, Size: f.Size})
	}
	return Result{Content: out}, nil
}

type bankSummary struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	QuestionCount int    `json:"questionCount"`
}

func listQuestionBanks(_ context.Context, env Env, _ map[string]any) (Result, error) {
	out := []bankSummary{}
	for _, b := range env.Snapshot.QuestionBanks() {
		out = append(out, bankSummary{ID: b.ID, Name: b.Name, QuestionCount: len(b.Questions)})
	}
	return Result{Content: out}, nil
}

func getQuestionBank(_ context.Context, env Env, params map[string]any) (Result, error) {
	return byID(params, "question bank", env.Snapshot, course.FindQuestionBank), nil
}

func listEnrollments(_ context.Context, env Env, params map[string]any) (Result, error) {
	role := strings.ToLower(param(params, "role"))
	out := []course.Enrollment{}
	for _, e := range env.Snapshot.Enrollments() {
		if role != "" && e.Role != role {
			continue
		}
		out = append(out, e)
	}
	return Result{Content: out}, nil
}

func listInvites(_ context.Context, env Env, _ map[string]any) (Result, error) {
	out := append([]course.Invite{}, env.Snapshot.Invites()...)
	return Result{Content: out}, nil
}

type groupSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	MemberCount int    `json:"memberCount"`
}

type groupSetSummary struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Groups []groupSummary `json:"groups"`
}

func listGroupSets(_ context.Context, env Env, _ map[string]any) (Result, error) {
	out := []groupSetSummary{}
	for _, gs := range env.Snapshot.GroupSets() {
		sum := groupSetSummary{ID: gs.ID, Name: gs.Name, Groups: []groupSummary{}}
		for _, g := range gs.Groups {
			sum.Groups = append(sum.Groups, groupSummary{ID: g.ID, Name: g.Name, MemberCount: len(g.MemberIDs)})
		}
		out = append(out, sum)
	}
	return Result{Content: out}, nil
}

type gradeSummary struct {
	ID           string  `json:"id"`
	AssignmentID string  `json:"assignmentId"`
	UserID       string  `json:"userId"`
	Score        float64 `json:"score"`
	Released     bool    `json:"released"`
}

func listGrades(_ context.Context, env Env, params map[string]any) (Result, error) {
	assignment := param(params, "assignmentId")
	out := []gradeSummary{}
	for _, g := range env.Snapshot.Grades() {
		if assignment != "" && g.AssignmentID != assignment {
			continue
		}
		out = append(out, gradeSummary{ID: g.ID, AssignmentID: g.AssignmentID, UserID: g.UserID, Score: g.Score, Released: g.Released})
	}
	return Result{Content: out}, nil
}

func listSubmissions(_ context.Context, env Env, params map[string]any) (Result, error) {
	assignment := param(params, "assignmentId")
	out := []course.Submission{}
	for _, s := range env.Snapshot.Submissions() {
		if assignment != "" && s.AssignmentID != assignment {
			continue
		}
		out = append(out, s)
	}
	return Result{Content: out}, nil
}
