package course

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// Memory is an in-process course store. It serves both as the Snapshot of
// one course and as its Persistence; writes are visible to the next read.
type Memory struct {
	mu   sync.RWMutex
	data Data
}

var _ Snapshot = (*Memory)(nil)

// NewMemory returns a store seeded with a copy of data.
func NewMemory(data Data) *Memory {
	data.AssignmentList = slices.Clone(data.AssignmentList)
	data.AnnouncementList = slices.Clone(data.AnnouncementList)
	data.ModuleList = slices.Clone(data.ModuleList)
	data.FileList = slices.Clone(data.FileList)
	data.EnrollmentList = slices.Clone(data.EnrollmentList)
	data.InviteList = slices.Clone(data.InviteList)
	data.QuestionBankList = slices.Clone(data.QuestionBankList)
	data.GroupSetList = slices.Clone(data.GroupSetList)
	data.GradeList = slices.Clone(data.GradeList)
	data.SubmissionList = slices.Clone(data.SubmissionList)
	return &Memory{data: data}
}

func (m *Memory) Course() Course {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.Info
}

func (m *Memory) Assignments() []Assignment { return read(m, func(d *Data) []Assignment { return d.AssignmentList }) }
func (m *Memory) Announcements() []Announcement { return read(m, func(d *Data) []Announcement { return d.AnnouncementList }) }
func (m *Memory) Modules() []Module { return read(m, func(d *Data) []Module { return d.ModuleList }) }
func (m *Memory) Files() []File { return read(m, func(d *Data) []File { return d.FileList }) }
func (m *Memory) Enrollments() []Enrollment { return read(m, func(d *Data) []Enrollment { return d.EnrollmentList }) }
func (m *Memory) Invites() []Invite { return read(m, func(d *Data) []Invite { return d.InviteList }) }
func (m *Memory) QuestionBanks() []QuestionBank { return read(m, func(d *Data) []QuestionBank { return d.QuestionBankList }) }
func (m *Memory) GroupSets() []GroupSet { return read(m, func(d *Data) []GroupSet { return d.GroupSetList }) }
func (m *Memory) Grades() []Grade { return read(m, func(d *Data) []Grade { return d.GradeList }) }
func (m *Memory) Submissions() []Submission { return read(m, func(d *Data) []Submission { return d.SubmissionList }) }

// Persistence returns repositories that write into m.
func (m *Memory) Persistence() Persistence {
	return Persistence{
		Assignments: newMemoryRepo(m, func(d *Data) *[]Assignment { return &d.AssignmentList },
			func(v *Assignment) (*string, *string) { return &v.ID, &v.CourseID }),
		Announcements: newMemoryRepo(m, func(d *Data) *[]Announcement { return &d.AnnouncementList },
			func(v *Announcement) (*string, *string) { return &v.ID, &v.CourseID }),
		Modules: newMemoryRepo(m, func(d *Data) *[]Module { return &d.ModuleList },
			func(v *Module) (*string, *string) { return &v.ID, &v.CourseID }),
		Files: newMemoryRepo(m, func(d *Data) *[]File { return &d.FileList },
			func(v *File) (*string, *string) { return &v.ID, &v.CourseID }),
		Enrollments: newMemoryRepo(m, func(d *Data) *[]Enrollment { return &d.EnrollmentList },
			func(v *Enrollment) (*string, *string) { return &v.ID, &v.CourseID }),
		Invites: newMemoryRepo(m, func(d *Data) *[]Invite { return &d.InviteList },
			func(v *Invite) (*string, *string) { return &v.ID, &v.CourseID }),
		QuestionBanks: newMemoryRepo(m, func(d *Data) *[]QuestionBank { return &d.QuestionBankList },
			func(v *QuestionBank) (*string, *string) { return &v.ID, &v.CourseID }),
		GroupSets: newMemoryRepo(m, func(d *Data) *[]GroupSet { return &d.GroupSetList },
			func(v *GroupSet) (*string, *string) { return &v.ID, &v.CourseID }),
		Grades: newMemoryRepo(m, func(d *Data) *[]Grade { return &d.GradeList },
			func(v *Grade) (*string, *string) { return &v.ID, &v.CourseID }),
	}
}

func read[T any](m *Memory, list func(*Data) []T) []T {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(list(&m.data))
}

// memoryRepo writes one entity list of a Memory. keys returns pointers to a
// record's id and course id.
type memoryRepo[T any] struct {
	m    *Memory
	list func(*Data) *[]T
	keys func(*T) (*string, *string)
}

func newMemoryRepo[T any](m *Memory, list func(*Data) *[]T, keys func(*T) (*string, *string)) *memoryRepo[T] {
	return &memoryRepo[T]{m: m, list: list, keys: keys}
}

func (r *memoryRepo[T]) id(v *T) *string {
	id, _ := r.keys(v)
	return id
}

func (r *memoryRepo[T]) course(v *T) *string {
	_, c := r.keys(v)
	return c
}

func (r *memoryRepo[T]) Create(_ context.Context, courseID string, rec T) (*T, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if *r.id(&rec) == "" {
		*r.id(&rec) = uuid.NewString()
	}
	*r.course(&rec) = courseID
	l := r.list(&r.m.data)
	*l = append(*l, rec)
	return &rec, nil
}

func (r *memoryRepo[T]) Update(_ context.Context, courseID string, rec T) (*T, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	l := r.list(&r.m.data)
	i := r.index(*l, *r.id(&rec))
	if i < 0 {
		return nil, fmt.Errorf("update %s: %w", *r.id(&rec), ErrRecordNotFound)
	}
	*r.course(&rec) = courseID
	(*l)[i] = rec
	return &rec, nil
}

func (r *memoryRepo[T]) Delete(_ context.Context, _ string, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	l := r.list(&r.m.data)
	i := r.index(*l, id)
	if i < 0 {
		return fmt.Errorf("delete %s: %w", id, ErrRecordNotFound)
	}
	*l = slices.Delete(*l, i, i+1)
	return nil
}

func (r *memoryRepo[T]) index(list []T, id string) int {
	return slices.IndexFunc(list, func(v T) bool { return *r.id(&v) == id })
}
