package server_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/tailored-agentic-units/course-agent/agent/mock"
	"github.com/tailored-agentic-units/course-agent/core/course"
	"github.com/tailored-agentic-units/course-agent/kernel"
	"github.com/tailored-agentic-units/course-agent/observability"
	"github.com/tailored-agentic-units/course-agent/operate"
	"github.com/tailored-agentic-units/course-agent/server"
	"github.com/tailored-agentic-units/course-agent/session"
	"github.com/tailored-agentic-units/course-agent/store/sqlite"
	"github.com/tailored-agentic-units/course-agent/transcript"
)

var (
	instructor = map[string]any{"id": "u-teach", "name": "Prof", "email": "prof@example.edu"}
	student    = map[string]any{"id": "u-stu", "name": "Sam", "email": "stu@example.edu"}
)

func fixture() course.Data {
	return course.Data{
		Info:       course.Course{ID: "c1", Name: "Intro to Biology", Code: "BIO101"},
		ModuleList: []course.Module{{ID: "m1", CourseID: "c1", Name: "Week 1"}},
		EnrollmentList: []course.Enrollment{
			{ID: "e1", CourseID: "c1", UserID: "u-teach", Email: "prof@example.edu", Role: course.RoleInstructor},
			{ID: "e2", CourseID: "c1", UserID: "u-stu", Email: "stu@example.edu", Role: course.RoleStudent},
		},
	}
}

type env struct {
	store       *sqlite.Store
	transcripts transcript.Store
	http        *httptest.Server
}

func setup(t *testing.T, replies ...string) *env {
	t.Helper()
	dir := t.TempDir()
	store, err := sqlite.Open(filepath.Join(dir, "course.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	if err := store.Seed(context.Background(), fixture()); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}

	reg := prometheus.NewRegistry()
	metrics, err := observability.NewMetricsObserver(reg)
	if err != nil {
		t.Fatal(err)
	}

	cfg := kernel.DefaultConfig()
	cfg.Agent.Provider = "mock"
	cfg.Timezone = "UTC"
	k, err := kernel.New(&cfg, kernel.WithAgent(mock.New(replies...)), kernel.WithObserver(metrics))
	if err != nil {
		t.Fatalf("kernel.New failed: %v", err)
	}
	ex := operate.New(
		operate.WithObserver(metrics),
		operate.WithPublisher(store),
		operate.WithPolicy(k.Policy()),
	)

	sessCfg := session.DefaultConfig()
	transcripts := transcript.NewFileStore(filepath.Join(dir, "transcripts"))
	srv := server.New(k, ex, session.NewManager(&sessCfg), store,
		server.WithPersistence(store.Persistence()),
		server.WithTranscripts(transcripts),
		server.WithMetrics(reg),
		server.WithHealthCheck(store.Ping),
	)

	hs := httptest.NewServer(srv.Handler())
	t.Cleanup(hs.Close)
	return &env{store: store, transcripts: transcripts, http: hs}
}

func (e *env) call(t *testing.T, procedure string, req map[string]any) (map[string]any, error) {
	t.Helper()
	in, err := structpb.NewStruct(req)
	if err != nil {
		t.Fatalf("NewStruct failed: %v", err)
	}
	client := connect.NewClient[structpb.Struct, structpb.Struct](e.http.Client(), e.http.URL+procedure)
	resp, err := client.CallUnary(context.Background(), connect.NewRequest(in))
	if err != nil {
		return nil, err
	}
	return resp.Msg.AsMap(), nil
}

func (e *env) mustCall(t *testing.T, procedure string, req map[string]any) map[string]any {
	t.Helper()
	out, err := e.call(t, procedure, req)
	if err != nil {
		t.Fatalf("%s failed: %v", procedure, err)
	}
	return out
}

func (e *env) open(t *testing.T, user map[string]any) string {
	t.Helper()
	out := e.mustCall(t, server.OpenSessionProcedure, map[string]any{"courseId": "c1", "user": user})
	id, _ := out["sessionId"].(string)
	if id == "" {
		t.Fatalf("got %v, want a session id", out)
	}
	return id
}

func messageID(t *testing.T, out map[string]any) string {
	t.Helper()
	msg, _ := out["message"].(map[string]any)
	id, _ := msg["id"].(string)
	if id == "" {
		t.Fatalf("got %v, want a message id", out)
	}
	return id
}

func TestConversation(t *testing.T) {
	e := setup(t, `{"type":"action","action":"create_module","name":"Week 2"}`)
	sid := e.open(t, instructor)

	out := e.mustCall(t, server.SendMessageProcedure, map[string]any{"sessionId": sid, "text": "Add a Week 2 module"})
	if out["outcome"] != string(kernel.OutcomeProposed) {
		t.Fatalf("got outcome %v, want proposed", out["outcome"])
	}
	mid := messageID(t, out)

	out = e.mustCall(t, server.ConfirmActionProcedure, map[string]any{"sessionId": sid, "messageId": mid})
	if out["confirmed"] != true {
		t.Fatalf("got %v, want a confirmed action", out)
	}
	if applied, _ := out["applied"].([]any); len(applied) != 1 {
		t.Errorf("got %d applied records, want 1", len(applied))
	}

	snap, err := e.store.Load(context.Background(), "c1")
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Modules()) != 2 || snap.Modules()[1].Name != "Week 2" {
		t.Errorf("got modules %+v, want Week 2 saved", snap.Modules())
	}

	notices, err := e.store.Notices(context.Background(), "c1", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(notices) != 1 || notices[0].Result != "confirmed" || notices[0].SessionID != sid {
		t.Errorf("got notices %+v, want one confirmed notice", notices)
	}

	thread := e.mustCall(t, server.GetThreadProcedure, map[string]any{"sessionId": sid})
	var kinds []string
	msgs, _ := thread["messages"].([]any)
	for _, m := range msgs {
		kinds = append(kinds, m.(map[string]any)["kind"].(string))
	}
	if diff := cmp.Diff([]string{"user", "assistant"}, kinds); diff != "" {
		t.Errorf("visible thread mismatch, confirmed action should be hidden (-want +got):\n%s", diff)
	}

	rec, err := e.transcripts.Load(context.Background(), sid)
	if err != nil {
		t.Fatalf("transcript not saved: %v", err)
	}
	if len(rec.Messages) != 3 {
		t.Errorf("got %d saved messages, want 3", len(rec.Messages))
	}
}

func TestEditAndReject(t *testing.T) {
	e := setup(t, `{"type":"action","action":"create_module","name":"Week 2"}`)
	sid := e.open(t, instructor)
	mid := messageID(t, e.mustCall(t, server.SendMessageProcedure, map[string]any{"sessionId": sid, "text": "Add a module"}))

	out := e.mustCall(t, server.EditActionProcedure, map[string]any{
		"sessionId": sid, "messageId": mid, "changes": map[string]any{"name": "Week Two"},
	})
	if out["applied"] != true || !strings.Contains(out["summary"].(string), "Week Two") {
		t.Errorf("got %v, want an applied edit", out)
	}

	e.mustCall(t, server.RejectActionProcedure, map[string]any{"sessionId": sid, "messageId": mid})
	_, err := e.call(t, server.RejectActionProcedure, map[string]any{"sessionId": sid, "messageId": mid})
	if got := connect.CodeOf(err); got != connect.CodeFailedPrecondition {
		t.Errorf("second reject: got %v, want %v", got, connect.CodeFailedPrecondition)
	}

	thread := e.mustCall(t, server.GetThreadProcedure, map[string]any{"sessionId": sid})
	if msgs, _ := thread["messages"].([]any); len(msgs) != 1 {
		t.Errorf("got %d visible messages, want the rejected action hidden", len(msgs))
	}
}

func TestErrors(t *testing.T) {
	e := setup(t, `{"type":"answer","text":"You are a student."}`)
	stu := e.open(t, student)
	out := e.mustCall(t, server.SendMessageProcedure, map[string]any{"sessionId": stu, "text": "hi"})
	answer := messageID(t, out)
	if out["message"].(map[string]any)["text"] != "You are a student." {
		t.Errorf("got %v, want the model answer", out["message"])
	}

	tests := []struct {
		name      string
		procedure string
		req       map[string]any
		want      connect.Code
	}{
		{"missing session id", server.SendMessageProcedure, map[string]any{"text": "hi"}, connect.CodeInvalidArgument},
		{"unknown session", server.GetThreadProcedure, map[string]any{"sessionId": "nope"}, connect.CodeNotFound},
		{"empty text", server.SendMessageProcedure, map[string]any{"sessionId": stu}, connect.CodeInvalidArgument},
		{"missing message id", server.ConfirmActionProcedure, map[string]any{"sessionId": stu}, connect.CodeInvalidArgument},
		{"unknown message", server.ConfirmActionProcedure, map[string]any{"sessionId": stu, "messageId": "m-x"}, connect.CodeNotFound},
		{"not an action", server.RejectActionProcedure, map[string]any{"sessionId": stu, "messageId": answer}, connect.CodeFailedPrecondition},
		{"empty edit", server.EditActionProcedure, map[string]any{"sessionId": stu, "messageId": answer}, connect.CodeInvalidArgument},
		{"read-only edit", server.EditActionProcedure, map[string]any{"sessionId": stu, "messageId": answer, "changes": map[string]any{"name": "x"}}, connect.CodePermissionDenied},
		{"unknown course", server.OpenSessionProcedure, map[string]any{"courseId": "c9", "user": student}, connect.CodeNotFound},
		{"no user", server.OpenSessionProcedure, map[string]any{"courseId": "c1"}, connect.CodeInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.call(t, tt.procedure, tt.req)
			var ce *connect.Error
			if !errors.As(err, &ce) {
				t.Fatalf("got %v, want a connect error", err)
			}
			if ce.Code() != tt.want {
				t.Errorf("got %v (%v), want %v", ce.Code(), err, tt.want)
			}
		})
	}
}

func TestResumeFromTranscript(t *testing.T) {
	e := setup(t, `{"type":"answer","text":"Hello."}`)
	sid := e.open(t, instructor)
	e.mustCall(t, server.SendMessageProcedure, map[string]any{"sessionId": sid, "text": "hi"})

	// A second server sharing the transcript directory has no session in
	// memory and resumes it from disk.
	rec, err := e.transcripts.Load(context.Background(), sid)
	if err != nil {
		t.Fatal(err)
	}
	cfg := kernel.DefaultConfig()
	cfg.Agent.Provider = "mock"
	k, err := kernel.New(&cfg, kernel.WithAgent(mock.New()), kernel.WithObserver(observability.Discard))
	if err != nil {
		t.Fatal(err)
	}
	sessCfg := session.DefaultConfig()
	other := server.New(k, operate.New(operate.WithObserver(observability.Discard)), session.NewManager(&sessCfg), e.store,
		server.WithTranscripts(e.transcripts))
	hs := httptest.NewServer(other.Handler())
	defer hs.Close()

	second := &env{store: e.store, transcripts: e.transcripts, http: hs}
	out := second.mustCall(t, server.OpenSessionProcedure, map[string]any{"sessionId": sid})
	if msgs, _ := out["messages"].([]any); len(msgs) != len(rec.Messages) {
		t.Errorf("got %d messages, want %d", len(msgs), len(rec.Messages))
	}
	if out["readWrite"] != true {
		t.Error("resumed instructor session is read-only")
	}
}

func TestHealthAndMetrics(t *testing.T) {
	e := setup(t, `{"type":"answer","text":"Hello."}`)
	sid := e.open(t, instructor)
	e.mustCall(t, server.SendMessageProcedure, map[string]any{"sessionId": sid, "text": "hi"})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	get := func(path string) (int, string) {
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, e.http.URL+path, nil)
		resp, err := e.http.Client().Do(req)
		if err != nil {
			t.Fatalf("GET %s failed: %v", path, err)
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, string(body)
	}

	if code, body := get("/healthz"); code != http.StatusOK || body != "ok" {
		t.Errorf("healthz: got %d %q", code, body)
	}
	code, body := get("/metrics")
	if code != http.StatusOK {
		t.Fatalf("metrics: got status %d", code)
	}
	if !strings.Contains(body, `course_agent_turns_total{outcome="answer"} 1`) {
		t.Errorf("metrics missing the answered turn:\n%s", body)
	}
}
