package actions_test

import (
	"time"

	"github.com/tailored-agentic-units/course-agent/actions"
	"github.com/tailored-agentic-units/course-agent/core/course"
)

var fixedNow = time.Date(2025, time.March, 3, 10, 30, 0, 0, time.UTC)

func testPolicy() actions.Policy {
	p := actions.DefaultPolicy()
	p.Location = time.UTC
	p.Now = func() time.Time { return fixedNow }
	return p
}

func fixture() course.Data {
	return course.Data{
		Info: course.Course{ID: "c1", Name: "Intro to Biology", Code: "BIO101"},
		AssignmentList: []course.Assignment{
			{ID: "a1", CourseID: "c1", Title: "Lab Report 1", Description: "Write it up", Points: 50, DueDate: "2025-03-10T23:59", Status: course.StatusDraft},
			{ID: "a2", CourseID: "c1", Title: "Reading Notes", Status: course.StatusDraft},
		},
		AnnouncementList: []course.Announcement{
			{ID: "n1", CourseID: "c1", Title: "Welcome", Content: "Hello class", Hidden: true},
			{ID: "n2", CourseID: "c1", Title: "Blank", Hidden: true},
		},
		ModuleList: []course.Module{
			{ID: "m1", CourseID: "c1", Name: "Week 1", Items: []course.ModuleItem{
				{ID: "it1", Type: actions.ItemAssignment, RefID: "a1", Title: "Lab Report 1"},
			}},
		},
		FileList: []course.File{
			{ID: "f1", CourseID: "c1", Name: "syllabus.pdf", MimeType: "application/pdf"},
		},
		EnrollmentList: []course.Enrollment{
			{ID: "e1", CourseID: "c1", UserID: "u-teach", Email: "prof@example.edu", Role: course.RoleInstructor},
			{ID: "e2", CourseID: "c1", UserID: "u-stu", Email: "stu@example.edu", Role: course.RoleStudent},
		},
		InviteList: []course.Invite{
			{ID: "i1", CourseID: "c1", Email: "new@example.edu", Role: course.RoleStudent, Status: course.InviteActive},
		},
		QuestionBankList: []course.QuestionBank{
			{ID: "b1", CourseID: "c1", Name: "Cell Biology", Questions: []course.Question{{ID: "q1", Prompt: "What is a cell?"}}},
		},
		GroupSetList: []course.GroupSet{
			{ID: "g1", CourseID: "c1", Name: "Lab Groups"},
		},
	}
}

func env(m *course.Memory) actions.Env {
	return actions.Env{CourseID: "c1", Snapshot: m, Persistence: m.Persistence()}
}
