// Package operate executes proposed actions after a human decision. Confirm
// applies a single action or a pipeline through the session's persistence;
// Reject and Edit resolve or amend a proposal without touching course data.
//
// Pipelines are fail-fast: the first failing step aborts the rest, and steps
// already applied stay applied. Confirming a failed pipeline again resumes at
// the step that failed.
package operate

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/tailored-agentic-units/course-agent/actions"
	"github.com/tailored-agentic-units/course-agent/core/course"
	"github.com/tailored-agentic-units/course-agent/notify"
	"github.com/tailored-agentic-units/course-agent/observability"
	"github.com/tailored-agentic-units/course-agent/registry"
	"github.com/tailored-agentic-units/course-agent/session"
	"github.com/tailored-agentic-units/course-agent/thread"
)

// Operation is one unit of work: a single action, or one step of a pipeline.
type Operation struct {
	Index   int // 1-based position in the pipeline; 1 for a single action.
	Pending actions.PendingAction
}

// Outcome reports what Confirm did.
type Outcome struct {
	Action     string
	Confirmed  bool
	Applied    []actions.Applied // Saved by this attempt.
	FailedStep int               // 1-based; 0 when nothing failed.
	Missing    []string          // Fields a publishing step lacked.
	Err        error             // Failure behind an unconfirmed outcome.
	Message    thread.Message

	progress []actions.Applied // pipeline steps applied across attempts
}

// Option configures an Executor.
type Option func(*Executor)

// WithObserver overrides the default SlogObserver.
func WithObserver(o observability.Observer) Option {
	return func(e *Executor) { e.observer = o }
}

// WithPublisher sets where decisions are announced.
func WithPublisher(p notify.Publisher) Option {
	return func(e *Executor) { e.publisher = p }
}

// WithPolicy sets the materialization policy used for edits and
// re-materialization before execution.
func WithPolicy(p actions.Policy) Option {
	return func(e *Executor) { e.policy = p }
}

// Executor applies human decisions on proposed actions.
type Executor struct {
	observer  observability.Observer
	publisher notify.Publisher
	policy    actions.Policy
}

// New creates an Executor.
func New(opts ...Option) *Executor {
	e := &Executor{
		observer: observability.NewSlogObserver(nil),
		policy:   actions.DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Confirm executes the action message messageID. On success the message is
// marked confirmed and hidden, and one confirmation message is appended. On
// failure a failure notice is appended and the action stays unconfirmed so
// the user may retry. A failed pipeline records the steps it applied in its
// data, and the retry resumes after them. Either way the session snapshot is
// refreshed when anything was written.
//
// Errors are returned only for requests that cannot be attempted: an unknown
// or resolved message, a read-only user, or ctx ending before the session is
// acquired.
func (e *Executor) Confirm(ctx context.Context, sess *session.Session, messageID string) (*Outcome, error) {
	release, err := sess.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	ctx = observability.WithSessionID(ctx, sess.ID())

	msg, err := actionable(sess.Thread(), messageID)
	if err != nil {
		return nil, err
	}
	if !sess.ReadWrite() {
		return nil, ErrReadOnly
	}

	pending := msg.Pending()
	env := actions.Env{CourseID: sess.CourseID(), Persistence: sess.Persistence()}

	var (
		out  *Outcome
		text string
	)
	if pending.Type == registry.ActionPipeline {
		out, text = e.pipeline(ctx, sess, env, pending)
	} else {
		out, text = e.single(ctx, sess, env, pending)
	}
	out.Action = pending.Type

	th := sess.Thread()
	if out.Confirmed {
		if err := th.Confirm(messageID); err != nil {
			return nil, err
		}
	} else if len(out.Applied) > 0 {
		if err := th.UpdateAction(messageID, actions.WithProgress(pending.Data, out.progress)); err != nil {
			return nil, err
		}
	}
	out.Message = th.AppendAssistant(text, false)

	if len(out.Applied) > 0 {
		if err := sess.Refresh(ctx); err != nil {
			e.emit(ctx, observability.EventOperationComplete, observability.LevelWarning, map[string]any{
				"action": pending.Type,
				"result": "refresh_failed",
				"error":  err.Error(),
			})
		}
	}

	result := notify.ResultConfirmed
	if !out.Confirmed {
		result = notify.ResultFailed
	}
	e.publish(ctx, sess, notify.Notice{
		MessageID:  messageID,
		Action:     pending.Type,
		Result:     result,
		Summary:    text,
		Applied:    out.Applied,
		FailedStep: out.FailedStep,
	})
	e.complete(ctx, pending.Type, result, out.Err)
	return out, nil
}

// Reject marks the action message messageID rejected and hidden.
func (e *Executor) Reject(ctx context.Context, sess *session.Session, messageID string) (thread.Message, error) {
	release, err := sess.Acquire(ctx)
	if err != nil {
		return thread.Message{}, err
	}
	defer release()
	ctx = observability.WithSessionID(ctx, sess.ID())

	msg, err := actionable(sess.Thread(), messageID)
	if err != nil {
		return thread.Message{}, err
	}
	if err := sess.Thread().Reject(messageID); err != nil {
		return thread.Message{}, err
	}
	updated, _ := sess.Thread().Get(messageID)

	e.publish(ctx, sess, notify.Notice{MessageID: messageID, Action: msg.Action, Result: notify.ResultRejected})
	e.complete(ctx, msg.Action, notify.ResultRejected, nil)
	return updated, nil
}

// Edit applies user changes to the action message messageID. The edited data
// is re-materialized and validated; a Reason in the result means the edit was
// refused and the action is unchanged.
func (e *Executor) Edit(ctx context.Context, sess *session.Session, messageID string, changes actions.Fields) (EditResult, error) {
	release, err := sess.Acquire(ctx)
	if err != nil {
		return EditResult{}, err
	}
	defer release()
	ctx = observability.WithSessionID(ctx, sess.ID())

	if !sess.ReadWrite() {
		return EditResult{}, ErrReadOnly
	}
	out, err := ApplyEdit(sess, messageID, changes, e.policy)
	if err != nil {
		return EditResult{}, err
	}
	if out.Reason != "" {
		return out, nil
	}

	e.publish(ctx, sess, notify.Notice{
		MessageID: messageID,
		Action:    out.Message.Action,
		Result:    notify.ResultEdited,
		Summary:   actions.Summarize(out.Changes),
	})
	e.complete(ctx, out.Message.Action, notify.ResultEdited, nil)
	return out, nil
}

// single runs one action against the session snapshot.
func (e *Executor) single(ctx context.Context, sess *session.Session, env actions.Env, p actions.PendingAction) (*Outcome, string) {
	applied, err := e.apply(ctx, env, sess.Snapshot(), Operation{Index: 1, Pending: p})
	if err != nil {
		out := &Outcome{Err: err}
		var pre *PrecheckError
		if errors.As(err, &pre) {
			out.Missing = pre.Missing
		}
		return out, fmt.Sprintf("That change was not saved: %v. You can confirm it again to retry.", err)
	}
	return &Outcome{Confirmed: true, Applied: []actions.Applied{applied}},
		fmt.Sprintf("Done: %s.", actions.Describe(p))
}

type pipelineState struct {
	overlay *actions.Overlay
	applied []actions.Applied
}

// pipeline runs the steps not yet applied, in order. Each step resolves names
// against the snapshot plus the records saved by earlier steps, including
// those saved by a previous failed attempt.
func (e *Executor) pipeline(ctx context.Context, sess *session.Session, env actions.Env, p actions.PendingAction) (*Outcome, string) {
	steps := actions.Steps(p)
	if len(steps) == 0 {
		return &Outcome{Err: errors.New("pipeline has no steps")}, "That pipeline has no steps, so nothing was saved."
	}
	done := actions.Progress(p.Data)
	if len(done) > len(steps) {
		done = done[:len(steps)]
	}

	overlay := actions.NewOverlay(sess.Snapshot())
	for _, a := range done {
		if a.Record != nil {
			overlay.Add(a.Record)
		}
	}
	ops := make([]Operation, 0, len(steps)-len(done))
	for i := len(done); i < len(steps); i++ {
		ops = append(ops, Operation{Index: i + 1, Pending: steps[i]})
	}

	res, err := ProcessChain(ctx, e.observer, ops, pipelineState{overlay: overlay},
		func(ctx context.Context, op Operation, st pipelineState) (pipelineState, error) {
			applied, err := e.apply(ctx, env, st.overlay, op)
			if err != nil {
				return st, err
			}
			if applied.Record != nil {
				st.overlay.Add(applied.Record)
			}
			st.applied = append(st.applied, applied)
			return st, nil
		}, nil)

	if err == nil {
		all := slices.Concat(done, res.Final.applied)
		text := fmt.Sprintf("Done: all %d steps applied.", len(steps))
		if len(done) > 0 {
			text = fmt.Sprintf("Done: all %d steps applied (%d on an earlier attempt).", len(steps), len(done))
		}
		return &Outcome{Confirmed: true, Applied: res.Final.applied},
			text + "\n" + appliedList(all)
	}

	var chainErr *ChainError[Operation, pipelineState]
	if !errors.As(err, &chainErr) {
		return &Outcome{Err: err}, fmt.Sprintf("The pipeline was not run: %v.", err)
	}
	out := &Outcome{
		Applied:    chainErr.State.applied,
		FailedStep: chainErr.Item.Index,
		Err:        chainErr.Err,
		progress:   slices.Concat(done, chainErr.State.applied),
	}
	var pre *PrecheckError
	if errors.As(chainErr.Err, &pre) {
		out.Missing = pre.Missing
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Step %d (%s) failed: %v. The remaining steps were not attempted.",
		chainErr.Item.Index, actions.Describe(chainErr.Item.Pending), chainErr.Err)
	if len(out.progress) == 0 {
		b.WriteString("\nNo steps were applied.")
	} else {
		b.WriteString("\nAlready applied:\n")
		b.WriteString(appliedList(out.progress))
		fmt.Fprintf(&b, "\nConfirm again to continue from step %d.", chainErr.Item.Index)
	}
	return out, b.String()
}

// apply materializes, prechecks, resolves, and executes one operation against
// snap.
func (e *Executor) apply(ctx context.Context, env actions.Env, snap course.Snapshot, op Operation) (actions.Applied, error) {
	if op.Pending.Type == "" {
		return actions.Applied{}, fmt.Errorf("%w: step %d names no action", actions.ErrUnknownAction, op.Index)
	}
	p, dep := actions.Materialize(op.Pending.Type, op.Pending.Data, e.policy)
	if dep != nil {
		return actions.Applied{}, fmt.Errorf("%w: %s", ErrDeprecated, dep.Message)
	}
	if missing := actions.PublishPrecheck(p.Type, p.Data, snap); len(missing) > 0 {
		return actions.Applied{}, &PrecheckError{Action: p.Type, Missing: missing}
	}
	if err := actions.Resolve(p.Type, p.Data, snap); err != nil {
		return actions.Applied{}, err
	}
	env.Snapshot = snap
	return actions.Execute(ctx, env, p.Type, p.Data)
}

func appliedList(applied []actions.Applied) string {
	lines := make([]string, len(applied))
	for i, a := range applied {
		lines[i] = fmt.Sprintf("%d. %s", i+1, actions.Describe(actions.PendingAction{
			Type: a.Action,
			Data: actions.Fields{"name": a.Label},
		}))
	}
	return strings.Join(lines, "\n")
}

func actionable(th *thread.Thread, id string) (thread.Message, error) {
	msg, ok := th.Get(id)
	if !ok {
		return thread.Message{}, fmt.Errorf("%w: %s", thread.ErrNotFound, id)
	}
	if msg.Kind != thread.KindAction {
		return thread.Message{}, fmt.Errorf("%w: %s is %s", ErrNotActionable, id, msg.Kind)
	}
	if msg.Resolved() {
		return thread.Message{}, fmt.Errorf("%w: %s is %s", thread.ErrResolved, id, msg.State())
	}
	return msg, nil
}

func (e *Executor) publish(ctx context.Context, sess *session.Session, n notify.Notice) {
	if e.publisher == nil {
		return
	}
	n.SessionID = sess.ID()
	n.CourseID = sess.CourseID()
	n.UserID = sess.User().ID
	n.Timestamp = time.Now().UTC()
	if err := e.publisher.Publish(ctx, n); err != nil {
		e.emit(ctx, observability.EventOperationComplete, observability.LevelWarning, map[string]any{
			"action": n.Action,
			"result": "publish_failed",
			"error":  err.Error(),
		})
	}
}

func (e *Executor) complete(ctx context.Context, action, result string, err error) {
	level := observability.LevelInfo
	data := map[string]any{"action": action, "result": result}
	if err != nil {
		level = observability.LevelWarning
		data["error"] = err.Error()
	}
	e.emit(ctx, observability.EventOperationComplete, level, data)
}

func (e *Executor) emit(ctx context.Context, typ observability.EventType, level observability.Level, data map[string]any) {
	e.observer.OnEvent(ctx, observability.Event{
		Type:      typ,
		Level:     level,
		Timestamp: time.Now(),
		Source:    "operate.Executor",
		SessionID: observability.SessionID(ctx),
		Data:      data,
	})
}
