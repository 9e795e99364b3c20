package actions

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/tailored-agentic-units/course-agent/core/course"
)

var fileAliases = map[string][]string{
	"fileId":   {"id", "file_id"},
	"fileName": {"name", "file", "filename"},
}

func rewriteFileVisibility(f Fields) {
	if visible, ok := f.Bool("visible"); ok && !f.Has("hidden") {
		f["hidden"] = !visible
	}
	delete(f, "visible")
}

func fileDefaults(f Fields, _ Policy) {
	f.Default("hidden", false)
}

func checkFile(f Fields, s course.Snapshot) string {
	if f.Has("fileId") {
		if _, ok := course.FindFile(s, f.String("fileId")); !ok {
			return fmt.Sprintf("no file with id %q in this course", f.String("fileId"))
		}
		return ""
	}
	if _, ok := course.FindFileByName(s, f.String("fileName")); !ok {
		return fmt.Sprintf("no file named %q in this course", f.String("fileName"))
	}
	return ""
}

var resolveFile = resolveName("file", "fileId", "fileName", course.FindFileByName, func(v course.File) string { return v.ID })

func setFileVisibility(ctx context.Context, env Env, f Fields) (Applied, error) {
	repo := env.Persistence.Files
	if repo == nil {
		return Applied{}, noRepo("files")
	}
	file, ok := course.FindFile(env.Snapshot, f.String("fileId"))
	if !ok {
		return Applied{}, fmt.Errorf("%w: file %q", ErrUnresolved, f.String("fileId"))
	}
	file.Hidden, _ = f.Bool("hidden")
	rec, err := repo.Update(ctx, env.CourseID, file)
	return commit("set_file_visibility", rec, err)
}

var gradeAliases = map[string][]string{
	"assignmentTitle": {"assignment", "assignmentName"},
	"userId":          {"studentId", "user_id"},
	"email":           {"studentEmail", "userEmail"},
	"score":           {"grade", "points"},
	"feedback":        {"comment", "comments"},
	"released":        {"release", "publish"},
}

func gradeDefaults(f Fields, _ Policy) {
	f.Default("feedback", "")
	f.Default("released", false)
}

func checkGrade(f Fields, s course.Snapshot) string {
	if f.Has("assignmentId") {
		if _, ok := course.FindAssignment(s, f.String("assignmentId")); !ok {
			return fmt.Sprintf("no assignment with id %q in this course", f.String("assignmentId"))
		}
	} else if _, ok := course.FindAssignmentByTitle(s, f.String("assignmentTitle")); !ok {
		return fmt.Sprintf("no assignment titled %q in this course", f.String("assignmentTitle"))
	}

	var (
		e  course.Enrollment
		ok bool
	)
	if f.Has("userId") {
		e, ok = course.FindEnrollmentByUser(s, f.String("userId"))
	} else {
		e, ok = course.FindEnrollmentByEmail(s, f.String("email"))
	}
	if !ok {
		return "the student is not enrolled in this course"
	}
	if e.Role != course.RoleStudent {
		return fmt.Sprintf("%s is enrolled as %s, not as a student", e.Email, e.Role)
	}
	return ""
}

var resolveGrade = resolveAll(
	resolveName("assignment", "assignmentId", "assignmentTitle", course.FindAssignmentByTitle, func(a course.Assignment) string { return a.ID }),
	resolveName("student", "userId", "email", course.FindEnrollmentByEmail, func(e course.Enrollment) string { return e.UserID }),
)

func setGrade(ctx context.Context, env Env, f Fields) (Applied, error) {
	repo := env.Persistence.Grades
	if repo == nil {
		return Applied{}, noRepo("grades")
	}
	score, _ := f.Float("score")
	released, _ := f.Bool("released")

	g, exists := course.FindGrade(env.Snapshot, f.String("assignmentId"), f.String("userId"))
	g.CourseID = env.CourseID
	g.AssignmentID = f.String("assignmentId")
	g.UserID = f.String("userId")
	g.Score = score
	g.Feedback = f.String("feedback")
	g.Released = released

	var (
		rec *course.Grade
		err error
	)
	if exists {
		rec, err = repo.Update(ctx, env.CourseID, g)
	} else {
		rec, err = repo.Create(ctx, env.CourseID, g)
	}
	return commit("set_grade", rec, err)
}

var groupSetAliases = map[string][]string{
	"name":   {"title", "groupSetName"},
	"groups": {"groupNames"},
}

// rewriteGroups reduces groups to a list of names.
func rewriteGroups(f Fields) {
	list, ok := f.List("groups")
	if !ok {
		return
	}
	names := make([]any, 0, len(list))
	for _, g := range list {
		switch v := g.(type) {
		case string:
			names = append(names, v)
		case map[string]any:
			if name, ok := v["name"].(string); ok {
				names = append(names, name)
			}
		}
	}
	f["groups"] = names
}

func groupSetDefaults(f Fields, _ Policy) {
	if !f.Has("groups") {
		f["groups"] = []any{}
	}
}

func createGroupSet(ctx context.Context, env Env, f Fields) (Applied, error) {
	repo := env.Persistence.GroupSets
	if repo == nil {
		return Applied{}, noRepo("group sets")
	}
	gs := course.GroupSet{CourseID: env.CourseID, Name: f.String("name"), Groups: []course.Group{}}
	list, _ := f.List("groups")
	for _, g := range list {
		if name, ok := g.(string); ok {
			gs.Groups = append(gs.Groups, course.Group{ID: uuid.NewString(), Name: name})
		}
	}
	rec, err := repo.Create(ctx, env.CourseID, gs)
	return commit("create_group_set", rec, err)
}

func previewGroupSet(f Fields) any {
	return course.GroupSet{Name: f.String("name")}
}
