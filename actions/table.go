package actions

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/tailored-agentic-units/course-agent/core/course"
)

// PendingAction is the canonical, confirmable form of a proposed action.
type PendingAction struct {
	Type string `json:"type"`
	Data Fields `json:"data"`
}

// Env is what Execute needs to apply an action.
type Env struct {
	CourseID    string
	Snapshot    course.Snapshot
	Persistence course.Persistence
}

// Applied describes one successful persistence call.
type Applied struct {
	Action string `json:"action"`
	ID     string `json:"id"`
	Label  string `json:"label"`
	Record any    `json:"record,omitempty"`
}

// Entry is one row of the action table.
//
// Aliases maps each canonical field to the synonyms the model is observed to
// emit. Numbers, Bools, and Times name fields coerced during normalization;
// Rewrite handles synonyms that change shape, such as publish flags. Defaults
// fills omitted fields on create-style actions. Check is the
// referential probe run by Validate after the required-field check. Resolve
// replaces name references with ids. Publish reports the fields missing for a
// payload that publishes. Preview returns the record a create-style step
// contributes to a pipeline overlay.
type Entry struct {
	Aliases  map[string][]string
	Numbers  []string
	Bools    []string
	Times    map[string]bool
	Rewrite  func(f Fields)
	Defaults func(f Fields, p Policy)
	Check    func(f Fields, s course.Snapshot) string
	Resolve  func(f Fields, s course.Snapshot) error
	Publish  func(f Fields, s course.Snapshot) []string
	Preview  func(f Fields) any
	Execute  func(ctx context.Context, env Env, f Fields) (Applied, error)
}

// Lookup returns the table entry for an action type.
func Lookup(actionType string) (Entry, bool) {
	e, ok := table[actionType]
	return e, ok
}

// Types returns the action types with a table entry, sorted.
func Types() []string {
	out := make([]string, 0, len(table))
	for name := range table {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// coalesce applies the synonym map and type coercions without defaults. Times
// are normalized only when loc is set.
func (e Entry) coalesce(f Fields, loc *time.Location) {
	for canonical, aliases := range e.Aliases {
		f.Coalesce(canonical, aliases...)
	}
	for _, k := range e.Numbers {
		f.normalizeNumber(k)
	}
	for _, k := range e.Bools {
		f.normalizeBool(k)
	}
	if loc != nil {
		for k, endOfDay := range e.Times {
			if s, ok := f[k].(string); ok {
				f[k], _ = NormalizeTime(s, loc, endOfDay)
			}
		}
	}
	if e.Rewrite != nil {
		e.Rewrite(f)
	}
}

// Resolve fills id fields from name references using s.
func Resolve(actionType string, f Fields, s course.Snapshot) error {
	e, ok := table[actionType]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAction, actionType)
	}
	if e.Resolve == nil {
		return nil
	}
	return e.Resolve(f, s)
}

// Execute applies a materialized and resolved action.
func Execute(ctx context.Context, env Env, actionType string, f Fields) (Applied, error) {
	e, ok := table[actionType]
	if !ok || e.Execute == nil {
		return Applied{}, fmt.Errorf("%w: %s", ErrUnknownAction, actionType)
	}
	return e.Execute(ctx, env, f)
}

// PublishPrecheck returns the fields missing for an action that publishes a
// record, or nil when the action does not publish or nothing is missing.
func PublishPrecheck(actionType string, f Fields, s course.Snapshot) []string {
	e, ok := table[actionType]
	if !ok || e.Publish == nil {
		return nil
	}
	return e.Publish(f, s)
}
