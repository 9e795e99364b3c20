package actions

import (
	"fmt"
	"strings"

	"github.com/tailored-agentic-units/course-agent/core/course"
	"github.com/tailored-agentic-units/course-agent/registry"
)

// Validate checks a raw action payload against the registry and the course
// snapshot. It returns "" when the payload is valid and otherwise a
// human-readable reason. Only structure and references are checked: required
// fields, then the action type's existence probe.
//
// Retired action types are valid here; Materialize reports them. Pipeline
// steps are validated in order against a snapshot that includes the records
// earlier steps would create, and a failing step's reason names it.
func Validate(actionType string, raw Fields, s course.Snapshot) string {
	desc, ok := registry.Default().Action(actionType)
	if !ok {
		return fmt.Sprintf("unknown action %q", actionType)
	}
	if desc.Deprecated {
		return ""
	}
	if actionType == registry.ActionPipeline {
		return validatePipeline(raw, s)
	}
	return validate(desc, raw, s)
}

func validate(desc registry.ActionDescriptor, raw Fields, s course.Snapshot) string {
	f := raw.Clone()
	if f == nil {
		f = Fields{}
	}
	e, hasEntry := table[desc.Name]
	if hasEntry {
		e.coalesce(f, nil)
	}

	var absent []string
	for _, name := range desc.Required() {
		if !f.Has(name) {
			absent = append(absent, name)
		}
	}
	if len(absent) > 0 {
		return fmt.Sprintf("missing required field(s): %s", strings.Join(absent, ", "))
	}
	for _, group := range desc.RequireOneOf {
		if !hasAny(f, group) {
			return fmt.Sprintf("missing required field: one of %s", strings.Join(group, " or "))
		}
	}

	if !hasEntry || e.Check == nil {
		return ""
	}
	if e.Defaults != nil {
		e.Defaults(f, DefaultPolicy())
	}
	return e.Check(f, s)
}

func validatePipeline(raw Fields, s course.Snapshot) string {
	f := raw.Clone()
	if f == nil {
		f = Fields{}
	}
	f.Coalesce("steps", "actions")
	list, _ := f.List("steps")
	if len(list) == 0 {
		return "a pipeline needs at least one step"
	}

	policy := DefaultPolicy()
	overlay := NewOverlay(s)
	for i, item := range list {
		n := i + 1
		step, ok := item.(map[string]any)
		if !ok {
			return fmt.Sprintf("step %d: not an action object", n)
		}
		data, actionType := splitStep(step)
		if actionType == "" {
			return fmt.Sprintf("step %d: no action named", n)
		}
		if actionType == registry.ActionPipeline {
			return fmt.Sprintf("step %d (%s): pipelines cannot be nested", n, actionType)
		}
		if d := deprecation(actionType); d != nil {
			return fmt.Sprintf("step %d (%s): %s", n, actionType, d.Message)
		}
		desc, ok := registry.Default().Action(actionType)
		if !ok {
			return fmt.Sprintf("step %d (%s): unknown action", n, actionType)
		}
		if reason := validate(desc, data, overlay); reason != "" {
			return fmt.Sprintf("step %d (%s): %s", n, actionType, reason)
		}
		if e, ok := table[actionType]; ok && e.Preview != nil {
			overlay.Add(e.Preview(materialize(actionType, data, policy)))
		}
	}
	return ""
}

func hasAny(f Fields, keys []string) bool {
	for _, k := range keys {
		if f.Has(k) {
			return true
		}
	}
	return false
}
