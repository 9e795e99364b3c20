package actions

import (
	"fmt"

	"github.com/tailored-agentic-units/course-agent/registry"
)

// Deprecation explains why a retired action type was not materialized.
type Deprecation struct {
	Action     string `json:"action"`
	ReplacedBy string `json:"replacedBy,omitempty"`
	Message    string `json:"message"`
}

// Materialize turns a raw action payload into its canonical PendingAction:
// synonyms are coalesced, values are coerced, and omitted fields are filled
// from p. Keys the action type does not know are kept. Materializing an
// already materialized payload returns it unchanged.
//
// A retired action type yields a Deprecation instead of a PendingAction. An
// action type without a table entry is returned with its data copied as is.
func Materialize(actionType string, raw Fields, p Policy) (PendingAction, *Deprecation) {
	if d := deprecation(actionType); d != nil {
		return PendingAction{}, d
	}
	p = p.complete()
	if actionType == registry.ActionPipeline {
		return PendingAction{Type: actionType, Data: materializeSteps(raw, p)}, nil
	}
	return PendingAction{Type: actionType, Data: materialize(actionType, raw.Clone(), p)}, nil
}

// ApplyEdit merges changes into p and materializes the result. Change keys
// may use any synonym the action type accepts; a nil value clears a field so
// its default applies again.
func ApplyEdit(p PendingAction, changes Fields, policy Policy) PendingAction {
	policy = policy.complete()
	ch := changes.Clone()
	delete(ch, ProgressKey)
	if e, ok := table[p.Type]; ok {
		e.coalesce(ch, policy.location())
	}
	if p.Type == registry.ActionPipeline {
		ch.Coalesce("steps", "actions")
	}
	data := p.Data.Clone()
	if data == nil {
		data = Fields{}
	}
	data.Merge(ch)
	out, d := Materialize(p.Type, data, policy)
	if d != nil {
		return PendingAction{Type: p.Type, Data: data}
	}
	return out
}

func materialize(actionType string, f Fields, p Policy) Fields {
	if f == nil {
		f = Fields{}
	}
	e, ok := table[actionType]
	if !ok {
		return f
	}
	e.coalesce(f, p.location())
	if e.Defaults != nil {
		e.Defaults(f, p)
	}
	return f
}

// materializeSteps materializes each step of a pipeline. A step is an object
// naming its action under "action" with the action's fields alongside.
func materializeSteps(raw Fields, p Policy) Fields {
	f := raw.Clone()
	if f == nil {
		f = Fields{}
	}
	f.Coalesce("steps", "actions")
	list, ok := f.List("steps")
	if !ok {
		return f
	}
	steps := make([]any, len(list))
	for i, item := range list {
		step, ok := item.(map[string]any)
		if !ok {
			steps[i] = item
			continue
		}
		data, actionType := splitStep(step)
		if deprecation(actionType) != nil || actionType == registry.ActionPipeline {
			steps[i] = step
			continue
		}
		out := materialize(actionType, data, p)
		out["action"] = actionType
		steps[i] = map[string]any(out)
	}
	f["steps"] = steps
	return f
}

// Steps splits a pipeline into its step actions, in order. An item that is
// not an action object yields a step with an empty Type.
func Steps(p PendingAction) []PendingAction {
	data := p.Data.Clone()
	if data == nil {
		return nil
	}
	data.Coalesce("steps", "actions")
	list, _ := data.List("steps")
	out := make([]PendingAction, len(list))
	for i, item := range list {
		step, ok := item.(map[string]any)
		if !ok {
			continue
		}
		f, actionType := splitStep(step)
		out[i] = PendingAction{Type: actionType, Data: f}
	}
	return out
}

// splitStep returns a copy of the step's fields without its action tag.
func splitStep(step map[string]any) (Fields, string) {
	data := Fields(step).Clone()
	data.Coalesce("action", "type", "actionType")
	actionType := data.String("action")
	delete(data, "action")
	return data, actionType
}

func deprecation(actionType string) *Deprecation {
	desc, ok := registry.Default().Action(actionType)
	if !ok || !desc.Deprecated {
		return nil
	}
	d := &Deprecation{Action: actionType, ReplacedBy: desc.ReplacedBy}
	switch {
	case desc.ReplacedBy == "":
		d.Message = fmt.Sprintf("%s is no longer supported.", actionType)
	case desc.ReplacedBy == "create_assignment" || desc.ReplacedBy == "update_assignment":
		d.Message = fmt.Sprintf(
			"%s is no longer supported. Quizzes are assignments now: use %s with assignmentType \"quiz\" and a questionBankId.",
			actionType, desc.ReplacedBy)
	default:
		d.Message = fmt.Sprintf("%s is no longer supported. Use %s instead.", actionType, desc.ReplacedBy)
	}
	return d
}

// complete fills the tables of a partially configured policy from
// DefaultPolicy.
func (p Policy) complete() Policy {
	def := DefaultPolicy()
	if p.Location == nil {
		p.Location = def.Location
	}
	if p.Now == nil {
		p.Now = def.Now
	}
	if p.DueAfter == 0 {
		p.DueAfter = def.DueAfter
	}
	if p.DueHour == 0 && p.DueMinute == 0 {
		p.DueHour, p.DueMinute = def.DueHour, def.DueMinute
	}
	if p.Assignment == nil {
		p.Assignment = def.Assignment
	}
	if p.AssignmentTypes == nil {
		p.AssignmentTypes = def.AssignmentTypes
	}
	if p.Announcement == nil {
		p.Announcement = def.Announcement
	}
	if p.Question == nil {
		p.Question = def.Question
	}
	if p.InviteRole == "" {
		p.InviteRole = def.InviteRole
	}
	return p
}
