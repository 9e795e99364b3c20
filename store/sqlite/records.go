package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/tailored-agentic-units/course-agent/core/course"
)

// Record kinds.
const (
	kindAssignment   = "assignment"
	kindAnnouncement = "announcement"
	kindModule       = "module"
	kindFile         = "file"
	kindEnrollment   = "enrollment"
	kindInvite       = "invite"
	kindQuestionBank = "question_bank"
	kindGroupSet     = "group_set"
	kindGrade        = "grade"
	kindSubmission   = "submission"
)

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Persistence returns repositories that write into s.
func (s *Store) Persistence() course.Persistence {
	return course.Persistence{
		Assignments:   &repo[course.Assignment]{s: s, kind: kindAssignment, keys: func(v *course.Assignment) (*string, *string) { return &v.ID, &v.CourseID }},
		Announcements: &repo[course.Announcement]{s: s, kind: kindAnnouncement, keys: func(v *course.Announcement) (*string, *string) { return &v.ID, &v.CourseID }},
		Modules:       &repo[course.Module]{s: s, kind: kindModule, keys: func(v *course.Module) (*string, *string) { return &v.ID, &v.CourseID }},
		Files:         &repo[course.File]{s: s, kind: kindFile, keys: func(v *course.File) (*string, *string) { return &v.ID, &v.CourseID }},
		Enrollments:   &repo[course.Enrollment]{s: s, kind: kindEnrollment, keys: func(v *course.Enrollment) (*string, *string) { return &v.ID, &v.CourseID }},
		Invites:       &repo[course.Invite]{s: s, kind: kindInvite, keys: func(v *course.Invite) (*string, *string) { return &v.ID, &v.CourseID }},
		QuestionBanks: &repo[course.QuestionBank]{s: s, kind: kindQuestionBank, keys: func(v *course.QuestionBank) (*string, *string) { return &v.ID, &v.CourseID }},
		GroupSets:     &repo[course.GroupSet]{s: s, kind: kindGroupSet, keys: func(v *course.GroupSet) (*string, *string) { return &v.ID, &v.CourseID }},
		Grades:        &repo[course.Grade]{s: s, kind: kindGrade, keys: func(v *course.Grade) (*string, *string) { return &v.ID, &v.CourseID }},
	}
}

// repo stores one entity kind. keys returns pointers to a record's id and
// course id.
type repo[T any] struct {
	s    *Store
	kind string
	keys func(*T) (*string, *string)
}

func (r *repo[T]) Create(ctx context.Context, courseID string, rec T) (*T, error) {
	id, cid := r.keys(&rec)
	if *id == "" {
		*id = uuid.NewString()
	}
	*cid = courseID
	if err := r.s.insert(ctx, r.s.db, courseID, r.kind, *id, rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *repo[T]) Update(ctx context.Context, courseID string, rec T) (*T, error) {
	id, cid := r.keys(&rec)
	*cid = courseID
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", r.kind, err)
	}

	res, err := r.s.db.ExecContext(ctx,
		`UPDATE records SET data = ?, updated_at = ? WHERE course_id = ? AND kind = ? AND id = ?`,
		string(data), r.s.now().Unix(), courseID, r.kind, *id)
	if err != nil {
		return nil, fmt.Errorf("update %s %s: %w", r.kind, *id, err)
	}
	if err := affected(res, *id); err != nil {
		return nil, fmt.Errorf("update %s: %w", r.kind, err)
	}
	return &rec, nil
}

func (r *repo[T]) Delete(ctx context.Context, courseID, id string) error {
	res, err := r.s.db.ExecContext(ctx,
		`DELETE FROM records WHERE course_id = ? AND kind = ? AND id = ?`,
		courseID, r.kind, id)
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", r.kind, id, err)
	}
	if err := affected(res, id); err != nil {
		return fmt.Errorf("delete %s: %w", r.kind, err)
	}
	return nil
}

func affected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", id, course.ErrRecordNotFound)
	}
	return nil
}

// insert appends rec after the last record of its kind.
func (s *Store) insert(ctx context.Context, ex execer, courseID, kind, id string, rec any) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode %s: %w", kind, err)
	}
	_, err = ex.ExecContext(ctx, `
		INSERT INTO records (course_id, kind, id, position, data, updated_at)
		VALUES (?, ?, ?,
			(SELECT COALESCE(MAX(position), 0) + 1 FROM records WHERE course_id = ? AND kind = ?),
			?, ?)`,
		courseID, kind, id, courseID, kind, string(data), s.now().Unix())
	if err != nil {
		return fmt.Errorf("insert %s %s: %w", kind, id, err)
	}
	return nil
}

// list decodes every record of kind in courseID, in creation order.
func list[T any](ctx context.Context, db *sql.DB, courseID, kind string) ([]T, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT data FROM records WHERE course_id = ? AND kind = ? ORDER BY position`,
		courseID, kind)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", kind, err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan %s: %w", kind, err)
		}
		var v T
		if err := json.Unmarshal([]byte(data), &v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", kind, err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
