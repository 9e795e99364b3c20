package course

import (
	"slices"
	"strings"
)

// Snapshot is the read-only in-memory view of one course. Every getter is
// scoped to the active course and returns records the caller must not mutate.
type Snapshot interface {
	Course() Course
	Assignments() []Assignment
	Announcements() []Announcement
	Modules() []Module
	Files() []File
	Enrollments() []Enrollment
	Invites() []Invite
	QuestionBanks() []QuestionBank
	GroupSets() []GroupSet
	Grades() []Grade
	Submissions() []Submission
}

// Data is a plain Snapshot backed by slices. Store adapters load a Data for a
// course; tests build one literally.
type Data struct {
	Info             Course         `json:"course" yaml:"course"`
	AssignmentList   []Assignment   `json:"assignments" yaml:"assignments"`
	AnnouncementList []Announcement `json:"announcements" yaml:"announcements"`
	ModuleList       []Module       `json:"modules" yaml:"modules"`
	FileList         []File         `json:"files" yaml:"files"`
	EnrollmentList   []Enrollment   `json:"enrollments" yaml:"enrollments"`
	InviteList       []Invite       `json:"invites" yaml:"invites"`
	QuestionBankList []QuestionBank `json:"questionBanks" yaml:"questionBanks"`
	GroupSetList     []GroupSet     `json:"groupSets" yaml:"groupSets"`
	GradeList        []Grade        `json:"grades" yaml:"grades"`
	SubmissionList   []Submission   `json:"submissions" yaml:"submissions"`
}

var _ Snapshot = (*Data)(nil)

func (d *Data) Course() Course { return d.Info }
func (d *Data) Assignments() []Assignment { return d.AssignmentList }
func (d *Data) Announcements() []Announcement { return d.AnnouncementList }
func (d *Data) Modules() []Module { return d.ModuleList }
func (d *Data) Files() []File { return d.FileList }
func (d *Data) Enrollments() []Enrollment { return d.EnrollmentList }
func (d *Data) Invites() []Invite { return d.InviteList }
func (d *Data) QuestionBanks() []QuestionBank { return d.QuestionBankList }
func (d *Data) GroupSets() []GroupSet { return d.GroupSetList }
func (d *Data) Grades() []Grade { return d.GradeList }
func (d *Data) Submissions() []Submission { return d.SubmissionList }

// FindAssignment returns the assignment with the given id.
func FindAssignment(s Snapshot, id string) (Assignment, bool) {
	i := slices.IndexFunc(s.Assignments(), func(a Assignment) bool { return a.ID == id })
	if i < 0 {
		return Assignment{}, false
	}
	return s.Assignments()[i], true
}

// FindAssignmentByTitle matches case-insensitively on the trimmed title.
func FindAssignmentByTitle(s Snapshot, title string) (Assignment, bool) {
	i := slices.IndexFunc(s.Assignments(), func(a Assignment) bool { return sameName(a.Title, title) })
	if i < 0 {
		return Assignment{}, false
	}
	return s.Assignments()[i], true
}

func FindAnnouncement(s Snapshot, id string) (Announcement, bool) {
	i := slices.IndexFunc(s.Announcements(), func(a Announcement) bool { return a.ID == id })
	if i < 0 {
		return Announcement{}, false
	}
	return s.Announcements()[i], true
}

func FindModule(s Snapshot, id string) (Module, bool) {
	i := slices.IndexFunc(s.Modules(), func(m Module) bool { return m.ID == id })
	if i < 0 {
		return Module{}, false
	}
	return s.Modules()[i], true
}

func FindModuleByName(s Snapshot, name string) (Module, bool) {
	i := slices.IndexFunc(s.Modules(), func(m Module) bool { return sameName(m.Name, name) })
	if i < 0 {
		return Module{}, false
	}
	return s.Modules()[i], true
}

func FindFile(s Snapshot, id string) (File, bool) {
	i := slices.IndexFunc(s.Files(), func(f File) bool { return f.ID == id })
	if i < 0 {
		return File{}, false
	}
	return s.Files()[i], true
}

func FindFileByName(s Snapshot, name string) (File, bool) {
	i := slices.IndexFunc(s.Files(), func(f File) bool { return sameName(f.Name, name) })
	if i < 0 {
		return File{}, false
	}
	return s.Files()[i], true
}

func FindEnrollment(s Snapshot, id string) (Enrollment, bool) {
	i := slices.IndexFunc(s.Enrollments(), func(e Enrollment) bool { return e.ID == id })
	if i < 0 {
		return Enrollment{}, false
	}
	return s.Enrollments()[i], true
}

func FindEnrollmentByEmail(s Snapshot, email string) (Enrollment, bool) {
	i := slices.IndexFunc(s.Enrollments(), func(e Enrollment) bool { return sameName(e.Email, email) })
	if i < 0 {
		return Enrollment{}, false
	}
	return s.Enrollments()[i], true
}

func FindEnrollmentByUser(s Snapshot, userID string) (Enrollment, bool) {
	i := slices.IndexFunc(s.Enrollments(), func(e Enrollment) bool { return e.UserID == userID })
	if i < 0 {
		return Enrollment{}, false
	}
	return s.Enrollments()[i], true
}

func FindInvite(s Snapshot, id string) (Invite, bool) {
	i := slices.IndexFunc(s.Invites(), func(v Invite) bool { return v.ID == id })
	if i < 0 {
		return Invite{}, false
	}
	return s.Invites()[i], true
}

// FindInviteByEmail returns the pending invite for email, ignoring revoked or
// accepted ones.
func FindInviteByEmail(s Snapshot, email string) (Invite, bool) {
	i := slices.IndexFunc(s.Invites(), func(v Invite) bool {
		return sameName(v.Email, email) && v.Status == InviteActive
	})
	if i < 0 {
		return Invite{}, false
	}
	return s.Invites()[i], true
}

func FindQuestionBank(s Snapshot, id string) (QuestionBank, bool) {
	i := slices.IndexFunc(s.QuestionBanks(), func(b QuestionBank) bool { return b.ID == id })
	if i < 0 {
		return QuestionBank{}, false
	}
	return s.QuestionBanks()[i], true
}

func FindQuestionBankByName(s Snapshot, name string) (QuestionBank, bool) {
	i := slices.IndexFunc(s.QuestionBanks(), func(b QuestionBank) bool { return sameName(b.Name, name) })
	if i < 0 {
		return QuestionBank{}, false
	}
	return s.QuestionBanks()[i], true
}

func FindGroupSet(s Snapshot, id string) (GroupSet, bool) {
	i := slices.IndexFunc(s.GroupSets(), func(g GroupSet) bool { return g.ID == id })
	if i < 0 {
		return GroupSet{}, false
	}
	return s.GroupSets()[i], true
}

func FindGroupSetByName(s Snapshot, name string) (GroupSet, bool) {
	i := slices.IndexFunc(s.GroupSets(), func(g GroupSet) bool { return sameName(g.Name, name) })
	if i < 0 {
		return GroupSet{}, false
	}
	return s.GroupSets()[i], true
}

// FindGrade returns the grade for a student on an assignment.
func FindGrade(s Snapshot, assignmentID, userID string) (Grade, bool) {
	i := slices.IndexFunc(s.Grades(), func(g Grade) bool {
		return g.AssignmentID == assignmentID && g.UserID == userID
	})
	if i < 0 {
		return Grade{}, false
	}
	return s.Grades()[i], true
}

func sameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
