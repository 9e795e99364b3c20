// Package kernel implements the loop driver: the per-turn cycle that builds
// the prompt, calls the language model, interprets its reply, runs read-only
// lookups, and ends the turn in exactly one terminal thread message.
//
// The kernel initializes from configuration via New, creating its
// collaborators internally. Functional options allow test overrides.
//
//	k, err := kernel.New(&cfg)
//	result, err := k.Run(ctx, sess, "Which assignments are still drafts?")
package kernel

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tailored-agentic-units/course-agent/actions"
	"github.com/tailored-agentic-units/course-agent/agent"
	"github.com/tailored-agentic-units/course-agent/core/protocol"
	"github.com/tailored-agentic-units/course-agent/interpret"
	"github.com/tailored-agentic-units/course-agent/observability"
	"github.com/tailored-agentic-units/course-agent/operate"
	"github.com/tailored-agentic-units/course-agent/prompt"
	"github.com/tailored-agentic-units/course-agent/registry"
	"github.com/tailored-agentic-units/course-agent/session"
	"github.com/tailored-agentic-units/course-agent/thread"
	"github.com/tailored-agentic-units/course-agent/tools"
)

// Outcome names how a turn ended.
type Outcome string

const (
	OutcomeAnswer      Outcome = "answer"
	OutcomeAskUser     Outcome = "ask_user"
	OutcomeProposed    Outcome = "proposed"
	OutcomeInvalid     Outcome = "invalid"
	OutcomeDeprecated  Outcome = "deprecated"
	OutcomeEdited      Outcome = "edited"
	OutcomeRefused     Outcome = "refused"
	OutcomeUnsupported Outcome = "unsupported"
	OutcomeBudget      Outcome = "budget"
	OutcomeModelError  Outcome = "model_error"
)

// Terminal and corrective texts.
const (
	refusalText     = "Sorry, your role in this course is read-only, so I can't do that. I can still look things up for you."
	modelErrorText  = "Sorry, I couldn't reach the language model. Please try again in a moment."
	noPendingText   = "There is no pending change to edit."
	correctiveText  = "Your last reply could not be used. Reply with exactly one JSON object in one of the shapes listed under Reply format, and nothing else."
	budgetTextFmt   = "Sorry, I couldn't finish that within %d steps. Try breaking the request into smaller parts."
	unknownToolFmt  = "Sorry, I don't have a lookup tool called %q."
	unknownActFmt   = "Sorry, %q isn't a change I can make."
	invalidFmt      = "I couldn't prepare that change: %s."
	editedPrefix    = "Updated the pending change:\n"
	editInvalidFmt  = "I couldn't apply that edit: %s."
	toolFaultPrefix = "tool failed: "
)

// Result holds the outcome of a kernel Run invocation.
type Result struct {
	Outcome   Outcome          // How the turn ended.
	Steps     int              // Model calls made, corrective turns included.
	Message   thread.Message   // The terminal message appended to the thread.
	ToolCalls []ToolCallRecord // Log of all tool invocations.
	Err       error            // Model failure behind OutcomeModelError.
}

type ToolCallRecord struct {
	Tool    string
	Params  map[string]any
	Step    int    // Loop step in which the call occurred.
	Result  string // Content fed back to the model.
	IsError bool
}

// Option configures a Kernel after config-driven initialization.
// Applied by New after cold start; overrides replace config-created defaults.
type Option func(*Kernel)

// WithAgent overrides the config-created agent.
func WithAgent(a agent.Agent) Option {
	return func(k *Kernel) { k.agent = a }
}

// WithRegistry overrides the config-created agent registry.
func WithRegistry(r *agent.Registry) Option {
	return func(k *Kernel) { k.agents = r }
}

// WithCatalogue overrides the built-in tool and action registry.
func WithCatalogue(r *registry.Registry) Option {
	return func(k *Kernel) { k.catalogue = r }
}

// WithInterpreter overrides the default response interpreter.
func WithInterpreter(in *interpret.Interpreter) Option {
	return func(k *Kernel) { k.interpreter = in }
}

// WithTools overrides the built-in tool executor.
func WithTools(e *tools.Executor) Option {
	return func(k *Kernel) { k.tools = e }
}

// WithDocuments overrides the config-created document collaborators.
func WithDocuments(d *tools.Documents) Option {
	return func(k *Kernel) { k.documents = d }
}

// WithObserver overrides the default SlogObserver.
func WithObserver(o observability.Observer) Option {
	return func(k *Kernel) { k.observer = o }
}

// WithClock overrides the time source used for the prompt and defaults.
func WithClock(now func() time.Time) Option {
	return func(k *Kernel) { k.now = now }
}

// Kernel is the runtime that executes conversation turns.
type Kernel struct {
	agent       agent.Agent
	agents      *agent.Registry
	catalogue   *registry.Registry
	interpreter *interpret.Interpreter
	tools       *tools.Executor
	documents   *tools.Documents
	observer    observability.Observer
	location    *time.Location
	now         func() time.Time

	maxSteps        int
	modelRetries    int
	retryBackoff    time.Duration
	maxContextChars int
}

// New creates a Kernel from configuration. The agent comes from
// cfg.Agents[cfg.AgentName] when AgentName is set, otherwise from cfg.Agent.
// Functional options applied after initialization can override any
// collaborator for testing.
func New(cfg *Config, opts ...Option) (*Kernel, error) {
	reg, err := agent.RegistryFrom(cfg.Agents)
	if err != nil {
		return nil, err
	}

	var a agent.Agent
	if cfg.AgentName != "" {
		a, err = reg.Get(cfg.AgentName)
	} else {
		a, err = agent.New(&cfg.Agent)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create agent: %w", err)
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	observer := observability.Observer(observability.NewSlogObserver(nil))
	if cfg.Observer != "" {
		if observer, err = observability.GetObserver(cfg.Observer); err != nil {
			return nil, err
		}
	}

	docs := &tools.Documents{
		Extractor: tools.OfficeExtractor{},
		Limits: tools.Limits{
			MaxInlineBytes:  cfg.Documents.MaxInlineBytes,
			MaxExtractBytes: cfg.Documents.MaxExtractBytes,
			MaxTextChars:    cfg.Documents.MaxTextChars,
		},
	}
	if cfg.Documents.Dir != "" {
		docs.Fetcher = tools.DirFetcher{
			Root:     cfg.Documents.Dir,
			MaxBytes: max(docs.Limits.MaxInlineBytes, docs.Limits.MaxExtractBytes),
		}
	}

	catalogue := registry.Default()
	k := &Kernel{
		agent:           a,
		agents:          reg,
		catalogue:       catalogue,
		interpreter:     interpret.New(catalogue),
		tools:           tools.Default(),
		documents:       docs,
		observer:        observer,
		location:        loc,
		now:             time.Now,
		maxSteps:        cfg.MaxSteps,
		modelRetries:    cfg.ModelRetries,
		retryBackoff:    cfg.Backoff(),
		maxContextChars: cfg.MaxContextChars,
	}
	if k.maxSteps <= 0 {
		k.maxSteps = defaultMaxSteps
	}

	for _, opt := range opts {
		opt(k)
	}

	return k, nil
}

// Registry returns the kernel's agent registry.
func (k *Kernel) Registry() *agent.Registry {
	return k.agents
}

// Policy returns the materialization policy for the kernel's clock and
// timezone. The operation executor uses the same policy for edits.
func (k *Kernel) Policy() actions.Policy {
	p := actions.DefaultPolicy()
	p.Location = k.location
	p.Now = k.now
	return p
}

// Run executes one conversation turn for input. The turn holds the session
// for its whole duration and always ends with exactly one terminal message
// appended to the thread, reported in Result.Outcome and Result.Message.
//
// When the thread ends with an unanswered clarification request, the turn
// resumes from the saved continuation with input as the user's reply.
//
// Domain failures (refusals, invalid proposals, model outages, the step
// budget) are terminal messages, not errors. Run returns an error only when
// the kernel has no agent or ctx ends.
func (k *Kernel) Run(ctx context.Context, sess *session.Session, input string) (*Result, error) {
	if k.agent == nil {
		return nil, ErrNoModel
	}
	release, err := sess.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	ctx = observability.WithSessionID(ctx, sess.ID())
	t := &turn{k: k, sess: sess, th: sess.Thread(), readWrite: sess.ReadWrite(), result: &Result{}}

	history, resumed := t.open(input)
	system := protocol.NewMessage(protocol.RoleSystem, k.systemPrompt(sess, t.readWrite))

	k.emit(ctx, observability.EventTurnStart, observability.LevelInfo, map[string]any{
		"input_length": len(input),
		"read_write":   t.readWrite,
		"resumed":      resumed,
		"max_steps":    k.maxSteps,
	})

	for step := 1; step <= k.maxSteps; step++ {
		if err := ctx.Err(); err != nil {
			return t.result, err
		}
		t.result.Steps = step

		k.emit(ctx, observability.EventStepStart, observability.LevelVerbose, map[string]any{"step": step})

		messages := make([]protocol.Message, 0, len(history)+1)
		messages = append(messages, system)
		messages = append(messages, history...)

		raw, err := k.complete(ctx, messages)
		if err != nil {
			if ctx.Err() != nil {
				return t.result, ctx.Err()
			}
			t.result.Err = err
			return t.finish(ctx, OutcomeModelError, t.th.AppendAssistant(modelErrorText, false)), nil
		}

		reply := k.interpreter.Parse(raw)
		if !reply.Complete() {
			history = append(history,
				protocol.NewMessage(protocol.RoleAssistant, raw),
				protocol.NewMessage(protocol.RoleUser, correctiveText),
			)
			continue
		}
		history = append(history, protocol.NewMessage(protocol.RoleAssistant, reply.String()))

		switch reply.Type {
		case protocol.ReplyAnswer:
			return t.finish(ctx, OutcomeAnswer, t.th.AppendAssistant(reply.Text, false)), nil
		case protocol.ReplyAskUser:
			return t.finish(ctx, OutcomeAskUser, t.th.AppendAskUser(reply.Question, history)), nil
		case protocol.ReplyAction:
			return t.action(ctx, reply), nil
		case protocol.ReplyToolCall:
			feedback, done := t.toolCall(ctx, step, reply)
			if done {
				return t.result, nil
			}
			history = append(history, protocol.NewMessage(protocol.RoleUser, feedback))
		}
	}

	return t.finish(ctx, OutcomeBudget, t.th.AppendAssistant(fmt.Sprintf(budgetTextFmt, k.maxSteps), false)), nil
}

func (k *Kernel) systemPrompt(sess *session.Session, readWrite bool) string {
	var pending *actions.PendingAction
	if readWrite {
		if m, ok := sess.Thread().LatestActionable(); ok {
			p := m.Pending()
			pending = &p
		}
	}
	block := prompt.BuildContext(sess.Snapshot(), pending, k.now().In(k.location), k.maxContextChars)
	return prompt.Build(k.catalogue, block, readWrite)
}

// complete calls the model, retrying failures with linear backoff.
func (k *Kernel) complete(ctx context.Context, messages []protocol.Message) (string, error) {
	var err error
	for attempt := 0; attempt <= k.modelRetries; attempt++ {
		if attempt > 0 {
			k.emit(ctx, observability.EventModelRetry, observability.LevelWarning, map[string]any{
				"attempt": attempt,
				"error":   err.Error(),
			})
			if werr := sleep(ctx, time.Duration(attempt)*k.retryBackoff); werr != nil {
				return "", werr
			}
		}

		var raw string
		raw, err = k.agent.Complete(ctx, messages)
		if err == nil {
			return raw, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}
	return "", err
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (k *Kernel) emit(ctx context.Context, typ observability.EventType, level observability.Level, data map[string]any) {
	k.observer.OnEvent(ctx, observability.Event{
		Type:      typ,
		Level:     level,
		Timestamp: time.Now(),
		Source:    "kernel.Run",
		SessionID: observability.SessionID(ctx),
		Data:      data,
	})
}

// turn is the state of one Run.
type turn struct {
	k         *Kernel
	sess      *session.Session
	th        *thread.Thread
	readWrite bool
	result    *Result
}

// open appends the user's input and returns the model-input history to start
// from.
func (t *turn) open(input string) ([]protocol.Message, bool) {
	if q, ok := t.th.OpenQuestion(); ok {
		t.th.AppendUser(input)
		_ = t.th.MarkAnswered(q.ID)
		history := protocol.CloneMessages(q.Continuation)
		return append(history, protocol.NewMessage(protocol.RoleUser, input)), true
	}
	t.th.AppendUser(input)
	return t.th.History(), false
}

func (t *turn) finish(ctx context.Context, outcome Outcome, msg thread.Message) *Result {
	t.result.Outcome = outcome
	t.result.Message = msg

	level := observability.LevelInfo
	if outcome == OutcomeModelError || outcome == OutcomeBudget {
		level = observability.LevelWarning
	}
	data := map[string]any{
		"outcome": string(outcome),
		"steps":   t.result.Steps,
	}
	if t.result.Err != nil {
		data["error"] = t.result.Err.Error()
	}
	t.k.emit(ctx, observability.EventOutcome, level, data)
	return t.result
}

// toolCall runs one lookup. It returns the feedback turn for the model, or
// done when the call ended the turn.
func (t *turn) toolCall(ctx context.Context, step int, reply *protocol.Reply) (string, bool) {
	k := t.k
	desc, known := k.catalogue.Tool(reply.Tool)
	if !t.readWrite && (!known || !desc.StudentSafe) {
		t.finish(ctx, OutcomeRefused, t.th.AppendAssistant(refusalText, false))
		return "", true
	}
	if !known || !k.tools.Has(reply.Tool) {
		t.finish(ctx, OutcomeUnsupported, t.th.AppendAssistant(fmt.Sprintf(unknownToolFmt, reply.Tool), false))
		return "", true
	}

	k.emit(ctx, observability.EventToolCall, observability.LevelVerbose, map[string]any{
		"step": step,
		"name": reply.Tool,
	})

	label := reply.StepLabel
	if label == "" {
		label = reply.Tool
	}
	msg := t.th.AppendToolStep(reply.Tool, label, reply.Params)

	env := tools.Env{Snapshot: t.sess.Snapshot(), Documents: k.documents}
	var sr thread.StepResult
	res, err := k.tools.Execute(ctx, env, reply.Tool, reply.Params)
	if err != nil {
		sr = thread.StepResult{Content: toolFaultPrefix + err.Error(), IsError: true}
	} else {
		sr = thread.StepResult{Content: encodeContent(res.Content), IsError: res.IsError}
	}
	_ = t.th.SetToolResult(msg.ID, sr)

	k.emit(ctx, observability.EventToolComplete, observability.LevelVerbose, map[string]any{
		"step":  step,
		"name":  reply.Tool,
		"error": sr.IsError,
	})

	t.result.ToolCalls = append(t.result.ToolCalls, ToolCallRecord{
		Tool:    reply.Tool,
		Params:  reply.Params,
		Step:    step,
		Result:  sr.Content,
		IsError: sr.IsError,
	})
	return thread.FormatToolResult(reply.Tool, sr), false
}

func (t *turn) action(ctx context.Context, reply *protocol.Reply) *Result {
	if !t.readWrite {
		return t.finish(ctx, OutcomeRefused, t.th.AppendAssistant(refusalText, false))
	}
	if reply.Action == registry.EditPendingAction {
		return t.edit(ctx, reply)
	}
	if !t.k.catalogue.IsAction(reply.Action) {
		return t.finish(ctx, OutcomeUnsupported, t.th.AppendAssistant(fmt.Sprintf(unknownActFmt, reply.Action), false))
	}

	raw := actions.Fields(reply.Payload)
	if reason := actions.Validate(reply.Action, raw, t.sess.Snapshot()); reason != "" {
		return t.finish(ctx, OutcomeInvalid, t.th.AppendAssistant(fmt.Sprintf(invalidFmt, reason), false))
	}
	pending, deprecated := actions.Materialize(reply.Action, raw, t.k.Policy())
	if deprecated != nil {
		return t.finish(ctx, OutcomeDeprecated, t.th.AppendAssistant(deprecated.Message, false))
	}
	return t.finish(ctx, OutcomeProposed, t.th.AppendAction(pending))
}

func (t *turn) edit(ctx context.Context, reply *protocol.Reply) *Result {
	target, ok := t.th.LatestActionable()
	if !ok {
		return t.finish(ctx, OutcomeInvalid, t.th.AppendAssistant(noPendingText, false))
	}

	changes, ok := reply.Payload["changes"].(map[string]any)
	if !ok {
		changes = reply.Payload
	}
	out, err := operate.ApplyEdit(t.sess, target.ID, changes, t.k.Policy())
	switch {
	case err != nil:
		return t.finish(ctx, OutcomeInvalid, t.th.AppendAssistant(fmt.Sprintf(editInvalidFmt, err), false))
	case out.Reason != "":
		return t.finish(ctx, OutcomeInvalid, t.th.AppendAssistant(fmt.Sprintf(editInvalidFmt, out.Reason), false))
	}
	return t.finish(ctx, OutcomeEdited, t.th.AppendAssistant(editedPrefix+actions.Summarize(out.Changes), false))
}

// encodeContent renders tool output as the text fed back to the model.
func encodeContent(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
