package operate

import (
	"fmt"

	"github.com/tailored-agentic-units/course-agent/actions"
	"github.com/tailored-agentic-units/course-agent/registry"
	"github.com/tailored-agentic-units/course-agent/session"
	"github.com/tailored-agentic-units/course-agent/thread"
)

// EditResult reports an edit of a proposed action. When Reason is set the
// edit was refused and the action is unchanged.
type EditResult struct {
	Message thread.Message
	Changes []actions.Change
	Reason  string
}

// ApplyEdit merges changes into the unresolved action messageID, then
// re-materializes and validates the result against the session snapshot.
// The action keeps its proposed state. The caller must hold the session.
func ApplyEdit(sess *session.Session, messageID string, changes actions.Fields, policy actions.Policy) (EditResult, error) {
	th := sess.Thread()
	msg, err := actionable(th, messageID)
	if err != nil {
		return EditResult{}, err
	}

	if msg.Action == registry.ActionPipeline && len(actions.Progress(msg.Data)) > 0 &&
		(changes.Has("steps") || changes.Has("actions")) {
		return EditResult{Message: msg, Reason: "some steps of this pipeline were already applied, so its steps can no longer be changed"}, nil
	}

	before := msg.Pending()
	after := actions.ApplyEdit(before, changes, policy)
	if reason := actions.Validate(after.Type, after.Data, sess.Snapshot()); reason != "" {
		return EditResult{Message: msg, Reason: reason}, nil
	}
	if err := th.UpdateAction(messageID, after.Data); err != nil {
		return EditResult{}, fmt.Errorf("update action: %w", err)
	}

	updated, _ := th.Get(messageID)
	return EditResult{Message: updated, Changes: actions.Changes(before.Data, after.Data)}, nil
}
