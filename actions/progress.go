package actions

import (
	"encoding/json"

	"github.com/tailored-agentic-units/course-agent/core/course"
)

// ProgressKey holds, in a pipeline's data, the steps that earlier confirm
// attempts applied before a later step failed. A retry resumes after them.
const ProgressKey = "appliedSteps"

type progressEntry struct {
	Action string          `json:"action"`
	ID     string          `json:"id,omitempty"`
	Label  string          `json:"label,omitempty"`
	Kind   string          `json:"kind,omitempty"`
	Record json.RawMessage `json:"record,omitempty"`
}

var recordKinds = map[string]func(json.RawMessage) (any, error){
	"assignment":   restore[course.Assignment],
	"announcement": restore[course.Announcement],
	"module":       restore[course.Module],
	"file":         restore[course.File],
	"enrollment":   restore[course.Enrollment],
	"invite":       restore[course.Invite],
	"questionBank": restore[course.QuestionBank],
	"groupSet":     restore[course.GroupSet],
	"grade":        restore[course.Grade],
}

func restore[T any](raw json.RawMessage) (any, error) {
	var rec T
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func recordKind(rec any) string {
	switch rec.(type) {
	case course.Assignment:
		return "assignment"
	case course.Announcement:
		return "announcement"
	case course.Module:
		return "module"
	case course.File:
		return "file"
	case course.Enrollment:
		return "enrollment"
	case course.Invite:
		return "invite"
	case course.QuestionBank:
		return "questionBank"
	case course.GroupSet:
		return "groupSet"
	case course.Grade:
		return "grade"
	}
	return ""
}

// WithProgress returns a copy of data recording applied as the pipeline's
// completed steps. The entries are plain JSON values so the record survives
// a transcript round trip.
func WithProgress(data Fields, applied []Applied) Fields {
	out := data.Clone()
	if out == nil {
		out = Fields{}
	}
	list := make([]any, 0, len(applied))
	for _, a := range applied {
		e := progressEntry{Action: a.Action, ID: a.ID, Label: a.Label}
		if kind := recordKind(a.Record); kind != "" {
			if raw, err := json.Marshal(a.Record); err == nil {
				e.Kind, e.Record = kind, raw
			}
		}
		var v map[string]any
		if err := decodeValue(e, &v); err == nil {
			list = append(list, v)
		}
	}
	out[ProgressKey] = list
	return out
}

// Progress returns the completed steps recorded in data, in step order, with
// each saved record restored to its entity type.
func Progress(data Fields) []Applied {
	list, ok := data.List(ProgressKey)
	if !ok {
		return nil
	}
	out := make([]Applied, 0, len(list))
	for _, item := range list {
		var e progressEntry
		if err := decodeValue(item, &e); err != nil || e.Action == "" {
			continue
		}
		a := Applied{Action: e.Action, ID: e.ID, Label: e.Label}
		if fn, ok := recordKinds[e.Kind]; ok && len(e.Record) > 0 {
			if rec, err := fn(e.Record); err == nil {
				a.Record = rec
			}
		}
		out = append(out, a)
	}
	return out
}
