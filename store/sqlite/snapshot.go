package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tailored-agentic-units/course-agent/core/course"
)

// Load reads every record of courseID into a snapshot. It satisfies
// session.Loader.
func (s *Store) Load(ctx context.Context, courseID string) (course.Snapshot, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM courses WHERE id = ?`, courseID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", course.ErrCourseNotFound, courseID)
	}
	if err != nil {
		return nil, fmt.Errorf("query course: %w", err)
	}

	d := &course.Data{}
	if err := json.Unmarshal([]byte(raw), &d.Info); err != nil {
		return nil, fmt.Errorf("decode course: %w", err)
	}

	loads := []func() error{
		func() (err error) { d.AssignmentList, err = list[course.Assignment](ctx, s.db, courseID, kindAssignment); return },
		func() (err error) { d.AnnouncementList, err = list[course.Announcement](ctx, s.db, courseID, kindAnnouncement); return },
		func() (err error) { d.ModuleList, err = list[course.Module](ctx, s.db, courseID, kindModule); return },
		func() (err error) { d.FileList, err = list[course.File](ctx, s.db, courseID, kindFile); return },
		func() (err error) { d.EnrollmentList, err = list[course.Enrollment](ctx, s.db, courseID, kindEnrollment); return },
		func() (err error) { d.InviteList, err = list[course.Invite](ctx, s.db, courseID, kindInvite); return },
		func() (err error) { d.QuestionBankList, err = list[course.QuestionBank](ctx, s.db, courseID, kindQuestionBank); return },
		func() (err error) { d.GroupSetList, err = list[course.GroupSet](ctx, s.db, courseID, kindGroupSet); return },
		func() (err error) { d.GradeList, err = list[course.Grade](ctx, s.db, courseID, kindGrade); return },
		func() (err error) { d.SubmissionList, err = list[course.Submission](ctx, s.db, courseID, kindSubmission); return },
	}
	for _, load := range loads {
		if err := load(); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Courses lists the seeded courses, ordered by id.
func (s *Store) Courses(ctx context.Context) ([]course.Course, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT data FROM courses ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query courses: %w", err)
	}
	defer rows.Close()

	var out []course.Course
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		var c course.Course
		if err := json.Unmarshal([]byte(raw), &c); err != nil {
			return nil, fmt.Errorf("decode course: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Seed replaces everything stored for d's course with d, in one transaction.
func (s *Store) Seed(ctx context.Context, d course.Data) error {
	id := d.Info.ID
	if id == "" {
		return errors.New("seed: course has no id")
	}
	info, err := json.Marshal(d.Info)
	if err != nil {
		return fmt.Errorf("encode course: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO courses (id, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		id, string(info), s.now().Unix()); err != nil {
		return fmt.Errorf("upsert course: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM records WHERE course_id = ?`, id); err != nil {
		return fmt.Errorf("clear course records: %w", err)
	}

	put := func(kind, recID string, rec any) error {
		if recID == "" {
			return fmt.Errorf("seed %s: record has no id", kind)
		}
		return s.insert(ctx, tx, id, kind, recID, rec)
	}
	for _, v := range d.AssignmentList {
		v.CourseID = id
		if err := put(kindAssignment, v.ID, v); err != nil {
			return err
		}
	}
	for _, v := range d.AnnouncementList {
		v.CourseID = id
		if err := put(kindAnnouncement, v.ID, v); err != nil {
			return err
		}
	}
	for _, v := range d.ModuleList {
		v.CourseID = id
		if err := put(kindModule, v.ID, v); err != nil {
			return err
		}
	}
	for _, v := range d.FileList {
		v.CourseID = id
		if err := put(kindFile, v.ID, v); err != nil {
			return err
		}
	}
	for _, v := range d.EnrollmentList {
		v.CourseID = id
		if err := put(kindEnrollment, v.ID, v); err != nil {
			return err
		}
	}
	for _, v := range d.InviteList {
		v.CourseID = id
		if err := put(kindInvite, v.ID, v); err != nil {
			return err
		}
	}
	for _, v := range d.QuestionBankList {
		v.CourseID = id
		if err := put(kindQuestionBank, v.ID, v); err != nil {
			return err
		}
	}
	for _, v := range d.GroupSetList {
		v.CourseID = id
		if err := put(kindGroupSet, v.ID, v); err != nil {
			return err
		}
	}
	for _, v := range d.GradeList {
		v.CourseID = id
		if err := put(kindGrade, v.ID, v); err != nil {
			return err
		}
	}
	for _, v := range d.SubmissionList {
		v.CourseID = id
		if err := put(kindSubmission, v.ID, v); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed: %w", err)
	}
	return nil
}

// ReadSeed reads a course fixture. YAML files (.yaml, .yml) use the same
// camelCase keys as the JSON form.
func ReadSeed(path string) (course.Data, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return course.Data{}, fmt.Errorf("read seed: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var doc any
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return course.Data{}, fmt.Errorf("parse seed: %w", err)
		}
		if raw, err = json.Marshal(doc); err != nil {
			return course.Data{}, fmt.Errorf("parse seed: %w", err)
		}
	}

	var d course.Data
	if err := json.Unmarshal(raw, &d); err != nil {
		return course.Data{}, fmt.Errorf("parse seed: %w", err)
	}
	return d, nil
}
