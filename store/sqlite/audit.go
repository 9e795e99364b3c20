package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tailored-agentic-units/course-agent/actions"
	"github.com/tailored-agentic-units/course-agent/notify"
)

type auditData struct {
	Applied    []actions.Applied `json:"applied,omitempty"`
	FailedStep int               `json:"failedStep,omitempty"`
}

// Publish appends n to the audit log. It satisfies notify.Publisher.
func (s *Store) Publish(ctx context.Context, n notify.Notice) error {
	ts := n.Timestamp
	if ts.IsZero() {
		ts = s.now()
	}
	var data []byte
	if len(n.Applied) > 0 || n.FailedStep > 0 {
		// Applied records that fail to encode are left out of the entry.
		data, _ = json.Marshal(auditData{Applied: n.Applied, FailedStep: n.FailedStep})
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_log (session_id, course_id, user_id, message_id, action, result, summary, data, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.SessionID, n.CourseID, n.UserID, n.MessageID, n.Action, n.Result, n.Summary, string(data), ts.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

// Notices returns the most recent audit entries for courseID, newest first.
// A limit of zero or less returns every entry.
func (s *Store) Notices(ctx context.Context, courseID string, limit int) ([]notify.Notice, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, course_id, user_id, message_id, action, result, summary, data, timestamp
		FROM audit_log WHERE course_id = ? ORDER BY timestamp DESC, id DESC LIMIT ?`,
		courseID, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit log: %w", err)
	}
	defer rows.Close()

	var out []notify.Notice
	for rows.Next() {
		var (
			n    notify.Notice
			data string
			ts   int64
		)
		if err := rows.Scan(&n.SessionID, &n.CourseID, &n.UserID, &n.MessageID, &n.Action, &n.Result, &n.Summary, &data, &ts); err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		if data != "" {
			var extra auditData
			if err := json.Unmarshal([]byte(data), &extra); err == nil {
				n.Applied = extra.Applied
				n.FailedStep = extra.FailedStep
			}
		}
		n.Timestamp = time.UnixMilli(ts).UTC()
		out = append(out, n)
	}
	return out, rows.Err()
}
