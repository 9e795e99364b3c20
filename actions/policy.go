package actions

import (
	"strings"
	"time"

	"github.com/tailored-agentic-units/course-agent/core/course"
)

// WallClock is the timestamp layout stored in action data: local time with no
// offset suffix.
const WallClock = "2006-01-02T15:04"

// TypePolicy adjusts the assignment defaults for one assignment type.
// Defaults fill omitted fields ahead of the general defaults; Force always
// overwrites.
type TypePolicy struct {
	Defaults Fields
	Force    Fields
}

// AssignmentDefaults fill a create_assignment payload.
var AssignmentDefaults = Fields{
	"description":          "",
	"assignmentType":       "essay",
	"gradingType":          "points",
	"points":               100.0,
	"status":               course.StatusDraft,
	"availableFrom":        "",
	"availableUntil":       "",
	"allowLateSubmissions": true,
	"latePenaltyPerDay":    10.0,
	"allowResubmission":    false,
	"isGroupAssignment":    false,
	"groupSetId":           "",
	"questionBankId":       "",
	"timeLimitMinutes":     0.0,
	"attempts":             1.0,
}

// AssignmentTypePolicies are the per-assignment-type business rules.
var AssignmentTypePolicies = map[string]TypePolicy{
	"no_submission": {
		Defaults: Fields{"points": 0.0, "allowLateSubmissions": false, "latePenaltyPerDay": 0.0},
		Force:    Fields{"status": course.StatusDraft},
	},
	"quiz": {
		Defaults: Fields{"timeLimitMinutes": 0.0, "attempts": 1.0, "allowResubmission": false},
	},
	"discussion": {
		Defaults: Fields{"allowResubmission": true, "latePenaltyPerDay": 0.0},
	},
	"file_upload": {
		Defaults: Fields{"allowResubmission": true},
	},
}

// AnnouncementDefaults fill a create_announcement payload. Hidden is decided
// from the publish request.
var AnnouncementDefaults = Fields{
	"pinned": false,
}

// QuestionDefaults fill each question of a question bank payload.
var QuestionDefaults = Fields{
	"type":   "multiple_choice",
	"points": 1.0,
}

// Policy carries the default tables and the clock used by Materialize.
type Policy struct {
	Location        *time.Location
	Now             func() time.Time
	DueAfter        time.Duration
	DueHour         int
	DueMinute       int
	Assignment      Fields
	AssignmentTypes map[string]TypePolicy
	Announcement    Fields
	Question        Fields
	InviteRole      string
}

// DefaultPolicy returns the policy with the package default tables: new
// assignments due one week out at 23:59 local time.
func DefaultPolicy() Policy {
	return Policy{
		Location:        time.Local,
		Now:             time.Now,
		DueAfter:        7 * 24 * time.Hour,
		DueHour:         23,
		DueMinute:       59,
		Assignment:      AssignmentDefaults,
		AssignmentTypes: AssignmentTypePolicies,
		Announcement:    AnnouncementDefaults,
		Question:        QuestionDefaults,
		InviteRole:      course.RoleStudent,
	}
}

func (p Policy) location() *time.Location {
	if p.Location == nil {
		return time.Local
	}
	return p.Location
}

func (p Policy) now() time.Time {
	if p.Now == nil {
		return time.Now().In(p.location())
	}
	return p.Now().In(p.location())
}

// defaultDue is the due date for an assignment created now.
func (p Policy) defaultDue() string {
	d := p.now().Add(p.DueAfter)
	due := time.Date(d.Year(), d.Month(), d.Day(), p.DueHour, p.DueMinute, 0, 0, p.location())
	return due.Format(WallClock)
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05",
	WallClock,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// NormalizeTime rewrites a timestamp as local wall-clock WallClock. Values
// carrying an offset are converted into loc. A bare date takes endOfDay when
// set, else midnight. Unparseable input is returned unchanged with false.
func NormalizeTime(s string, loc *time.Location, endOfDay bool) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return s, false
	}
	for _, layout := range timeLayouts {
		t, err := time.ParseInLocation(layout, s, loc)
		if err == nil {
			return t.In(loc).Format(WallClock), true
		}
	}
	if t, err := time.ParseInLocation(time.DateOnly, s, loc); err == nil {
		if endOfDay {
			t = time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 0, 0, loc)
		}
		return t.Format(WallClock), true
	}
	return s, false
}
