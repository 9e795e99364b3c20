package actions

import (
	"context"
	"fmt"
	"slices"

	"github.com/tailored-agentic-units/course-agent/core/course"
)

var roles = []string{course.RoleInstructor, course.RoleTA, course.RoleStudent, course.RoleObserver}

var roleSynonyms = map[string]string{
	"teacher":            course.RoleInstructor,
	"professor":          course.RoleInstructor,
	"teaching_assistant": course.RoleTA,
	"teaching assistant": course.RoleTA,
	"assistant":          course.RoleTA,
	"learner":            course.RoleStudent,
	"auditor":            course.RoleObserver,
}

// rewritePerson lower-cases email and maps role synonyms onto enrollment roles.
func rewritePerson(f Fields) {
	lower(f, "email", "role")
	if r, ok := roleSynonyms[f.String("role")]; ok {
		f["role"] = r
	}
}

func checkRole(f Fields, _ course.Snapshot) string {
	if !f.Has("role") {
		return ""
	}
	if !slices.Contains(roles, f.String("role")) {
		return fmt.Sprintf("unknown role %q; use instructor, ta, student, or observer", f.String("role"))
	}
	return ""
}

func checkInvitee(f Fields, s course.Snapshot) string {
	if _, ok := course.FindEnrollmentByEmail(s, f.String("email")); ok {
		return fmt.Sprintf("%s is already enrolled in this course", f.String("email"))
	}
	if _, ok := course.FindInviteByEmail(s, f.String("email")); ok {
		return fmt.Sprintf("%s already has a pending invite", f.String("email"))
	}
	return ""
}

func inviteDefaults(f Fields, p Policy) {
	f.Default("role", p.InviteRole)
}

func invite(ctx context.Context, env Env, f Fields) (Applied, error) {
	repo := env.Persistence.Invites
	if repo == nil {
		return Applied{}, noRepo("invites")
	}
	inv := course.Invite{
		CourseID: env.CourseID,
		Email:    f.String("email"),
		Role:     f.String("role"),
		Status:   course.InviteActive,
	}
	rec, err := repo.Create(ctx, env.CourseID, inv)
	return commit("invite_user", rec, err)
}

func previewInvite(f Fields) any {
	return course.Invite{Email: f.String("email"), Role: f.String("role"), Status: course.InviteActive}
}

func checkInvite(f Fields, s course.Snapshot) string {
	if f.Has("id") {
		inv, ok := course.FindInvite(s, f.String("id"))
		if !ok {
			return fmt.Sprintf("no invite with id %q in this course", f.String("id"))
		}
		if inv.Status != course.InviteActive {
			return fmt.Sprintf("invite %q is already %s", f.String("id"), inv.Status)
		}
		return ""
	}
	if _, ok := course.FindInviteByEmail(s, f.String("email")); !ok {
		return fmt.Sprintf("no pending invite for %s", f.String("email"))
	}
	return ""
}

var resolveInvite = resolveName("invite", "id", "email", course.FindInviteByEmail, func(v course.Invite) string { return v.ID })

func revokeInvite(ctx context.Context, env Env, f Fields) (Applied, error) {
	repo := env.Persistence.Invites
	if repo == nil {
		return Applied{}, noRepo("invites")
	}
	inv, ok := course.FindInvite(env.Snapshot, f.String("id"))
	if !ok {
		return Applied{}, fmt.Errorf("%w: invite %q", ErrUnresolved, f.String("id"))
	}
	inv.Status = course.InviteRevoked
	rec, err := repo.Update(ctx, env.CourseID, inv)
	return commit("revoke_invite", rec, err)
}

var enrollmentAliases = map[string][]string{
	"enrollmentId": {"id", "enrollment_id"},
	"email":        {"userEmail", "emailAddress"},
	"role":         {"newRole"},
}

func checkEnrollment(f Fields, s course.Snapshot) string {
	if f.Has("enrollmentId") {
		if _, ok := course.FindEnrollment(s, f.String("enrollmentId")); !ok {
			return fmt.Sprintf("no enrollment with id %q in this course", f.String("enrollmentId"))
		}
		return ""
	}
	if _, ok := course.FindEnrollmentByEmail(s, f.String("email")); !ok {
		return fmt.Sprintf("%s is not enrolled in this course", f.String("email"))
	}
	return ""
}

var resolveEnrollment = resolveName("enrollment", "enrollmentId", "email", course.FindEnrollmentByEmail, func(e course.Enrollment) string { return e.ID })

func updateEnrollmentRole(ctx context.Context, env Env, f Fields) (Applied, error) {
	repo := env.Persistence.Enrollments
	if repo == nil {
		return Applied{}, noRepo("enrollments")
	}
	e, ok := course.FindEnrollment(env.Snapshot, f.String("enrollmentId"))
	if !ok {
		return Applied{}, fmt.Errorf("%w: enrollment %q", ErrUnresolved, f.String("enrollmentId"))
	}
	e.Role = f.String("role")
	rec, err := repo.Update(ctx, env.CourseID, e)
	return commit("update_enrollment_role", rec, err)
}

func removeEnrollment(ctx context.Context, env Env, f Fields) (Applied, error) {
	repo := env.Persistence.Enrollments
	if repo == nil {
		return Applied{}, noRepo("enrollments")
	}
	id := f.String("enrollmentId")
	existing, _ := course.FindEnrollment(env.Snapshot, id)
	if err := repo.Delete(ctx, env.CourseID, id); err != nil {
		return Applied{}, err
	}
	return Applied{Action: "remove_enrollment", ID: id, Label: existing.Email}, nil
}
