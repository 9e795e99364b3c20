package thread_test

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/tailored-agentic-units/course-agent/actions"
	"github.com/tailored-agentic-units/course-agent/core/protocol"
	"github.com/tailored-agentic-units/course-agent/thread"
)

func proposal(title string) actions.PendingAction {
	return actions.PendingAction{Type: "create_module", Data: actions.Fields{"name": title}}
}

func TestThread_AppendAssignsIDs(t *testing.T) {
	th := thread.New()
	a := th.AppendUser("hello")
	b := th.AppendAssistant("hi", false)

	if a.ID == "" || b.ID == "" || a.ID == b.ID {
		t.Errorf("got ids %q and %q, want distinct non-empty ids", a.ID, b.ID)
	}
	if a.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
	if th.Len() != 2 {
		t.Errorf("got %d messages, want 2", th.Len())
	}
}

func TestThread_ToolResultSetOnce(t *testing.T) {
	th := thread.New()
	step := th.AppendToolStep("list_assignments", "Looking up assignments", map[string]any{})

	if err := th.SetToolResult(step.ID, thread.StepResult{Content: "[]"}); err != nil {
		t.Fatalf("first SetToolResult failed: %v", err)
	}
	if err := th.SetToolResult(step.ID, thread.StepResult{Content: "again"}); !errors.Is(err, thread.ErrResultSet) {
		t.Errorf("got %v, want ErrResultSet", err)
	}

	got, _ := th.Get(step.ID)
	if got.Result == nil || got.Result.Content != "[]" {
		t.Errorf("got result %+v, want the first one", got.Result)
	}
}

func TestThread_ResolutionIsMonotonic(t *testing.T) {
	tests := []struct {
		name   string
		first  func(*thread.Thread, string) error
		second func(*thread.Thread, string) error
	}{
		{"confirm then reject", (*thread.Thread).Confirm, (*thread.Thread).Reject},
		{"reject then confirm", (*thread.Thread).Reject, (*thread.Thread).Confirm},
		{"confirm twice", (*thread.Thread).Confirm, (*thread.Thread).Confirm},
		{"reject then edit", (*thread.Thread).Reject, func(th *thread.Thread, id string) error {
			return th.UpdateAction(id, actions.Fields{"name": "x"})
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			th := thread.New()
			m := th.AppendAction(proposal("Week 1"))

			if err := tt.first(th, m.ID); err != nil {
				t.Fatalf("first resolution failed: %v", err)
			}
			if err := tt.second(th, m.ID); !errors.Is(err, thread.ErrResolved) {
				t.Errorf("got %v, want ErrResolved", err)
			}
			got, _ := th.Get(m.ID)
			if !got.Hidden || got.Confirmed == got.Rejected {
				t.Errorf("got %+v, want hidden with exactly one of confirmed/rejected", got)
			}
		})
	}
}

func TestThread_MutationErrors(t *testing.T) {
	th := thread.New()
	user := th.AppendUser("hi")

	if err := th.Confirm("missing"); !errors.Is(err, thread.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
	if err := th.Confirm(user.ID); !errors.Is(err, thread.ErrWrongKind) {
		t.Errorf("got %v, want ErrWrongKind", err)
	}
	if err := th.SetToolResult(user.ID, thread.StepResult{}); !errors.Is(err, thread.ErrWrongKind) {
		t.Errorf("got %v, want ErrWrongKind", err)
	}
}

func TestThread_LatestActionable(t *testing.T) {
	th := thread.New()
	if _, ok := th.LatestActionable(); ok {
		t.Error("empty thread has no actionable message")
	}

	first := th.AppendAction(proposal("Week 1"))
	second := th.AppendAction(proposal("Week 2"))

	got, ok := th.LatestActionable()
	if !ok || got.ID != second.ID {
		t.Errorf("got %q, want the most recent proposal %q", got.ID, second.ID)
	}

	if err := th.Reject(second.ID); err != nil {
		t.Fatal(err)
	}
	got, ok = th.LatestActionable()
	if !ok || got.ID != first.ID {
		t.Errorf("got %q, want the older unresolved proposal %q", got.ID, first.ID)
	}
}

func TestThread_UpdateActionKeepsState(t *testing.T) {
	th := thread.New()
	m := th.AppendAction(proposal("Week 1"))

	if err := th.UpdateAction(m.ID, actions.Fields{"name": "Week 2"}); err != nil {
		t.Fatalf("UpdateAction failed: %v", err)
	}
	got, _ := th.Get(m.ID)
	if got.Data.String("name") != "Week 2" || got.Resolved() {
		t.Errorf("got %+v, want renamed and still proposed", got)
	}
}

func TestThread_CopiesAreIndependent(t *testing.T) {
	th := thread.New()
	m := th.AppendAction(proposal("Week 1"))

	m.Data["name"] = "changed"
	msgs := th.Messages()
	msgs[0].Data["name"] = "changed too"

	got, _ := th.Get(m.ID)
	if got.Data.String("name") != "Week 1" {
		t.Errorf("thread state leaked through a copy: %v", got.Data)
	}
}

func TestThread_RendererSeesEveryMutation(t *testing.T) {
	var (
		mu    sync.Mutex
		kinds []string
	)
	th := thread.New(thread.WithRenderer(func(m thread.Message) {
		mu.Lock()
		defer mu.Unlock()
		kinds = append(kinds, string(m.Kind)+":"+m.State())
	}))

	th.AppendUser("hi")
	a := th.AppendAction(proposal("Week 1"))
	_ = th.Confirm(a.ID)
	_ = th.Confirm(a.ID)

	want := []string{"user:proposed", "action:proposed", "action:confirmed"}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Errorf("render calls mismatch (-want +got):\n%s", diff)
	}
}

func TestThread_OpenQuestion(t *testing.T) {
	th := thread.New()
	cont := []protocol.Message{protocol.NewMessage(protocol.RoleUser, "make a quiz")}
	q := th.AppendAskUser("Which week?", cont)

	got, ok := th.OpenQuestion()
	if !ok || got.ID != q.ID {
		t.Fatalf("got (%q, %v), want the open question", got.ID, ok)
	}
	if diff := cmp.Diff(cont, got.Continuation); diff != "" {
		t.Errorf("continuation mismatch (-want +got):\n%s", diff)
	}

	if err := th.MarkAnswered(q.ID); err != nil {
		t.Fatal(err)
	}
	if _, ok := th.OpenQuestion(); ok {
		t.Error("answered question is still open")
	}
	if err := th.MarkAnswered(q.ID); !errors.Is(err, thread.ErrAnswered) {
		t.Errorf("got %v, want ErrAnswered", err)
	}
}

func TestThread_History(t *testing.T) {
	th := thread.New()
	th.AppendUser("list my assignments")
	step := th.AppendToolStep("list_assignments", "Checking", map[string]any{})
	_ = th.SetToolResult(step.ID, thread.StepResult{Content: `[{"id":"a1"}]`})
	th.AppendAssistant("You have one assignment.", false)
	a := th.AppendAction(proposal("Week 1"))
	_ = th.Confirm(a.ID)

	h := th.History()
	roles := make([]protocol.Role, len(h))
	for i, m := range h {
		roles[i] = m.Role
	}
	want := []protocol.Role{
		protocol.RoleUser,
		protocol.RoleAssistant,
		protocol.RoleUser,
		protocol.RoleAssistant,
		protocol.RoleAssistant,
	}
	if diff := cmp.Diff(want, roles); diff != "" {
		t.Fatalf("roles mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(h[1].Content, `"type":"tool_call"`) {
		t.Errorf("tool call turn = %q, want a tool_call reply", h[1].Content)
	}
	if !strings.Contains(h[2].Content, `[{"id":"a1"}]`) {
		t.Errorf("tool result turn = %q, want the result content", h[2].Content)
	}
	if !strings.Contains(h[4].Content, "create_module (confirmed)") {
		t.Errorf("action turn = %q, want its state", h[4].Content)
	}
}

func TestFromMessages(t *testing.T) {
	th := thread.New()
	th.AppendUser("hi")
	a := th.AppendAction(proposal("Week 1"))

	restored := thread.FromMessages(th.Messages())
	if diff := cmp.Diff(th.Messages(), restored.Messages()); diff != "" {
		t.Errorf("restored thread mismatch (-want +got):\n%s", diff)
	}
	if err := restored.Confirm(a.ID); err != nil {
		t.Errorf("restored thread cannot confirm: %v", err)
	}
}
