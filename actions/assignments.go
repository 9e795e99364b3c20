package actions

import (
	"context"
	"fmt"

	"github.com/tailored-agentic-units/course-agent/core/course"
)

var assignmentAliases = map[string][]string{
	"title":                {"assignmentTitle", "name"},
	"description":          {"instructions", "body", "details"},
	"assignmentType":       {"kind", "submissionType", "assignment_type"},
	"gradingType":          {"grading", "gradingScheme"},
	"points":               {"pointsPossible", "maxPoints", "totalPoints", "points_possible"},
	"dueDate":              {"due", "dueAt", "due_date", "deadline"},
	"availableFrom":        {"unlockAt", "openDate", "startDate"},
	"availableUntil":       {"lockAt", "closeDate", "endDate"},
	"allowLateSubmissions": {"allowLate", "acceptLate"},
	"latePenaltyPerDay":    {"latePenalty", "latePenaltyPercent"},
	"groupSetId":           {"groupCategoryId"},
	"groupSetName":         {"groupSet", "groupCategory"},
	"questionBankId":       {"bankId"},
	"questionBankName":     {"bankName", "bankTitle", "questionBankTitle"},
	"timeLimitMinutes":     {"timeLimit"},
	"attempts":             {"allowedAttempts", "maxAttempts"},
}

var assignmentNumbers = []string{"points", "latePenaltyPerDay", "timeLimitMinutes", "attempts"}

var assignmentBools = []string{"publish", "allowLateSubmissions", "allowResubmission", "isGroupAssignment"}

var assignmentTimes = map[string]bool{"dueDate": true, "availableFrom": false, "availableUntil": true}

var assignmentPublishFields = []string{"title", "description", "points", "dueDate"}

// rewritePublish folds a publish flag into status.
func rewritePublish(f Fields) {
	lower(f, "status", "assignmentType", "gradingType")
	if publish, ok := f.Bool("publish"); ok {
		if publish {
			f["status"] = course.StatusPublished
		} else if !f.Has("status") {
			f["status"] = course.StatusDraft
		}
	}
	delete(f, "publish")
}

func assignmentDefaults(f Fields, p Policy) {
	f.Default("assignmentType", p.Assignment["assignmentType"])
	tp := p.AssignmentTypes[f.String("assignmentType")]
	for k, v := range tp.Defaults {
		f.Default(k, v)
	}
	for k, v := range p.Assignment {
		f.Default(k, v)
	}
	f.Default("dueDate", p.defaultDue())
	for k, v := range tp.Force {
		f[k] = deepCopy(v)
	}
}

var assignmentRefs = allOf(
	func(f Fields, s course.Snapshot) string {
		group, _ := f.Bool("isGroupAssignment")
		if group && !f.Has("groupSetId") && !f.Has("groupSetName") {
			return "a group assignment must name an existing group set"
		}
		return ""
	},
	optionalID("group set", "groupSetId", course.FindGroupSet),
	existsByName("group set", "groupSetName", course.FindGroupSetByName),
	optionalID("question bank", "questionBankId", course.FindQuestionBank),
	existsByName("question bank", "questionBankName", course.FindQuestionBankByName),
)

var resolveAssignmentRefs = resolveAll(
	resolveName("group set", "groupSetId", "groupSetName", course.FindGroupSetByName, func(g course.GroupSet) string { return g.ID }),
	resolveName("question bank", "questionBankId", "questionBankName", course.FindQuestionBankByName, func(b course.QuestionBank) string { return b.ID }),
)

func assignmentPublish(f Fields, s course.Snapshot) []string {
	if f.String("status") != course.StatusPublished {
		return nil
	}
	merged := f
	if existing, ok := course.FindAssignment(s, f.String("id")); ok && f.Has("id") {
		if base, err := toFields(existing); err == nil {
			base.Merge(f)
			merged = base
		}
	}
	return missing(merged, assignmentPublishFields...)
}

func publishExistingAssignment(f Fields, s course.Snapshot) []string {
	existing, ok := course.FindAssignment(s, f.String("id"))
	if !ok {
		return nil
	}
	base, err := toFields(existing)
	if err != nil {
		return nil
	}
	return missing(base, assignmentPublishFields...)
}

func createAssignment(ctx context.Context, env Env, f Fields) (Applied, error) {
	repo := env.Persistence.Assignments
	if repo == nil {
		return Applied{}, noRepo("assignments")
	}
	var a course.Assignment
	if err := decode(f, &a); err != nil {
		return Applied{}, fmt.Errorf("decode assignment: %w", err)
	}
	a.ID = ""
	a.CourseID = env.CourseID
	rec, err := repo.Create(ctx, env.CourseID, a)
	return commit("create_assignment", rec, err)
}

func updateAssignment(ctx context.Context, env Env, f Fields) (Applied, error) {
	repo := env.Persistence.Assignments
	if repo == nil {
		return Applied{}, noRepo("assignments")
	}
	existing, ok := course.FindAssignment(env.Snapshot, f.String("id"))
	if !ok {
		return Applied{}, fmt.Errorf("%w: assignment %q", ErrUnresolved, f.String("id"))
	}
	a, err := patch(existing, f)
	if err != nil {
		return Applied{}, fmt.Errorf("decode assignment: %w", err)
	}
	rec, err := repo.Update(ctx, env.CourseID, a)
	return commit("update_assignment", rec, err)
}

func publishAssignment(ctx context.Context, env Env, f Fields) (Applied, error) {
	repo := env.Persistence.Assignments
	if repo == nil {
		return Applied{}, noRepo("assignments")
	}
	existing, ok := course.FindAssignment(env.Snapshot, f.String("id"))
	if !ok {
		return Applied{}, fmt.Errorf("%w: assignment %q", ErrUnresolved, f.String("id"))
	}
	existing.Status = course.StatusPublished
	rec, err := repo.Update(ctx, env.CourseID, existing)
	return commit("publish_assignment", rec, err)
}

func deleteAssignment(ctx context.Context, env Env, f Fields) (Applied, error) {
	repo := env.Persistence.Assignments
	if repo == nil {
		return Applied{}, noRepo("assignments")
	}
	id := f.String("id")
	existing, _ := course.FindAssignment(env.Snapshot, id)
	if err := repo.Delete(ctx, env.CourseID, id); err != nil {
		return Applied{}, err
	}
	return Applied{Action: "delete_assignment", ID: id, Label: existing.Title}, nil
}

var announcementAliases = map[string][]string{
	"title":   {"subject", "headline"},
	"content": {"body", "message", "text"},
	"pinned":  {"pin", "isPinned"},
}

var announcementBools = []string{"pinned", "hidden", "publish", "visible"}

// rewriteVisibility folds publish and visible flags into hidden.
func rewriteVisibility(f Fields) {
	if publish, ok := f.Bool("publish"); ok {
		f["hidden"] = !publish
	} else if visible, ok := f.Bool("visible"); ok && !f.Has("hidden") {
		f["hidden"] = !visible
	}
	delete(f, "publish")
	delete(f, "visible")
}

func announcementDefaults(f Fields, p Policy) {
	for k, v := range p.Announcement {
		f.Default(k, v)
	}
	f.Default("hidden", true)
}

func announcementPublish(f Fields, s course.Snapshot) []string {
	if hidden, ok := f.Bool("hidden"); !ok || hidden {
		return nil
	}
	merged := f
	if existing, ok := course.FindAnnouncement(s, f.String("id")); ok && f.Has("id") {
		if base, err := toFields(existing); err == nil {
			base.Merge(f)
			merged = base
		}
	}
	return missing(merged, "title", "content")
}

func publishExistingAnnouncement(f Fields, s course.Snapshot) []string {
	existing, ok := course.FindAnnouncement(s, f.String("id"))
	if !ok {
		return nil
	}
	base, err := toFields(existing)
	if err != nil {
		return nil
	}
	return missing(base, "title", "content")
}

func createAnnouncement(ctx context.Context, env Env, f Fields) (Applied, error) {
	repo := env.Persistence.Announcements
	if repo == nil {
		return Applied{}, noRepo("announcements")
	}
	var a course.Announcement
	if err := decode(f, &a); err != nil {
		return Applied{}, fmt.Errorf("decode announcement: %w", err)
	}
	a.ID = ""
	a.CourseID = env.CourseID
	rec, err := repo.Create(ctx, env.CourseID, a)
	return commit("create_announcement", rec, err)
}

func updateAnnouncement(ctx context.Context, env Env, f Fields) (Applied, error) {
	repo := env.Persistence.Announcements
	if repo == nil {
		return Applied{}, noRepo("announcements")
	}
	existing, ok := course.FindAnnouncement(env.Snapshot, f.String("id"))
	if !ok {
		return Applied{}, fmt.Errorf("%w: announcement %q", ErrUnresolved, f.String("id"))
	}
	a, err := patch(existing, f)
	if err != nil {
		return Applied{}, fmt.Errorf("decode announcement: %w", err)
	}
	rec, err := repo.Update(ctx, env.CourseID, a)
	return commit("update_announcement", rec, err)
}

func publishAnnouncement(ctx context.Context, env Env, f Fields) (Applied, error) {
	repo := env.Persistence.Announcements
	if repo == nil {
		return Applied{}, noRepo("announcements")
	}
	existing, ok := course.FindAnnouncement(env.Snapshot, f.String("id"))
	if !ok {
		return Applied{}, fmt.Errorf("%w: announcement %q", ErrUnresolved, f.String("id"))
	}
	existing.Hidden = false
	rec, err := repo.Update(ctx, env.CourseID, existing)
	return commit("publish_announcement", rec, err)
}

func deleteAnnouncement(ctx context.Context, env Env, f Fields) (Applied, error) {
	repo := env.Persistence.Announcements
	if repo == nil {
		return Applied{}, noRepo("announcements")
	}
	id := f.String("id")
	existing, _ := course.FindAnnouncement(env.Snapshot, id)
	if err := repo.Delete(ctx, env.CourseID, id); err != nil {
		return Applied{}, err
	}
	return Applied{Action: "delete_announcement", ID: id, Label: existing.Title}, nil
}
