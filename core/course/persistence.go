package course

import (
	"context"
	"errors"
)

var (
	// ErrRecordNotFound is returned by a repository asked to change a record
	// it does not hold.
	ErrRecordNotFound = errors.New("record not found")
	// ErrCourseNotFound is returned by loaders for an unknown course.
	ErrCourseNotFound = errors.New("course not found")
)

// Repository is the write path for one entity type. Create and Update return
// the saved record; a nil record or a non-nil error both mean the write failed.
type Repository[T any] interface {
	Create(ctx context.Context, courseID string, rec T) (*T, error)
	Update(ctx context.Context, courseID string, rec T) (*T, error)
	Delete(ctx context.Context, courseID, id string) error
}

// Persistence groups one repository per entity the action vocabulary can
// mutate. Module items are written through the owning module.
type Persistence struct {
	Assignments   Repository[Assignment]
	Announcements Repository[Announcement]
	Modules       Repository[Module]
	Files         Repository[File]
	Enrollments   Repository[Enrollment]
	Invites       Repository[Invite]
	QuestionBanks Repository[QuestionBank]
	GroupSets     Repository[GroupSet]
	Grades        Repository[Grade]
}
