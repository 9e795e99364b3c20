package actions

import (
	"github.com/tailored-agentic-units/course-agent/core/course"
)

// Overlay is a Snapshot that layers records produced by earlier pipeline
// steps over a base snapshot. A record whose id matches a base record
// replaces it; any other record is appended. Records without an id (previews
// of not-yet-created records) are always appended.
type Overlay struct {
	base  course.Snapshot
	added course.Data
}

var _ course.Snapshot = (*Overlay)(nil)

func NewOverlay(base course.Snapshot) *Overlay {
	return &Overlay{base: base}
}

// Add layers rec over the base. Unsupported record types are ignored.
func (o *Overlay) Add(rec any) {
	switch r := rec.(type) {
	case course.Assignment:
		o.added.AssignmentList = upsert(o.added.AssignmentList, r, func(v course.Assignment) string { return v.ID })
	case course.Announcement:
		o.added.AnnouncementList = upsert(o.added.AnnouncementList, r, func(v course.Announcement) string { return v.ID })
	case course.Module:
		o.added.ModuleList = upsert(o.added.ModuleList, r, func(v course.Module) string { return v.ID })
	case course.File:
		o.added.FileList = upsert(o.added.FileList, r, func(v course.File) string { return v.ID })
	case course.Enrollment:
		o.added.EnrollmentList = upsert(o.added.EnrollmentList, r, func(v course.Enrollment) string { return v.ID })
	case course.Invite:
		o.added.InviteList = upsert(o.added.InviteList, r, func(v course.Invite) string { return v.ID })
	case course.QuestionBank:
		o.added.QuestionBankList = upsert(o.added.QuestionBankList, r, func(v course.QuestionBank) string { return v.ID })
	case course.GroupSet:
		o.added.GroupSetList = upsert(o.added.GroupSetList, r, func(v course.GroupSet) string { return v.ID })
	case course.Grade:
		o.added.GradeList = upsert(o.added.GradeList, r, func(v course.Grade) string { return v.ID })
	}
}

func (o *Overlay) Course() course.Course { return o.base.Course() }

func (o *Overlay) Assignments() []course.Assignment {
	return layer(o.base.Assignments(), o.added.AssignmentList, func(v course.Assignment) string { return v.ID })
}

func (o *Overlay) Announcements() []course.Announcement {
	return layer(o.base.Announcements(), o.added.AnnouncementList, func(v course.Announcement) string { return v.ID })
}

func (o *Overlay) Modules() []course.Module {
	return layer(o.base.Modules(), o.added.ModuleList, func(v course.Module) string { return v.ID })
}

func (o *Overlay) Files() []course.File {
	return layer(o.base.Files(), o.added.FileList, func(v course.File) string { return v.ID })
}

func (o *Overlay) Enrollments() []course.Enrollment {
	return layer(o.base.Enrollments(), o.added.EnrollmentList, func(v course.Enrollment) string { return v.ID })
}

func (o *Overlay) Invites() []course.Invite {
	return layer(o.base.Invites(), o.added.InviteList, func(v course.Invite) string { return v.ID })
}

func (o *Overlay) QuestionBanks() []course.QuestionBank {
	return layer(o.base.QuestionBanks(), o.added.QuestionBankList, func(v course.QuestionBank) string { return v.ID })
}

func (o *Overlay) GroupSets() []course.GroupSet {
	return layer(o.base.GroupSets(), o.added.GroupSetList, func(v course.GroupSet) string { return v.ID })
}

func (o *Overlay) Grades() []course.Grade {
	return layer(o.base.Grades(), o.added.GradeList, func(v course.Grade) string { return v.ID })
}

func (o *Overlay) Submissions() []course.Submission { return o.base.Submissions() }

func upsert[T any](list []T, rec T, id func(T) string) []T {
	if key := id(rec); key != "" {
		for i := range list {
			if id(list[i]) == key {
				list[i] = rec
				return list
			}
		}
	}
	return append(list, rec)
}

func layer[T any](base, added []T, id func(T) string) []T {
	if len(added) == 0 {
		return base
	}
	out := make([]T, len(base), len(base)+len(added))
	copy(out, base)
	for _, rec := range added {
		out = upsert(out, rec, id)
	}
	return out
}
