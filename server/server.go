// Package server exposes conversations over connect RPC. Each procedure is a
// unary call whose request and response are google.protobuf.Struct values,
// so any connect, gRPC, or gRPC-Web client can drive the agent without
// generated stubs.
//
//	srv := server.New(k, ex, sessions, store, server.WithPersistence(store.Persistence()))
//	http.ListenAndServe(":8080", srv.Handler())
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"connectrpc.com/connect"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/tailored-agentic-units/course-agent/core/course"
	"github.com/tailored-agentic-units/course-agent/kernel"
	"github.com/tailored-agentic-units/course-agent/operate"
	"github.com/tailored-agentic-units/course-agent/session"
	"github.com/tailored-agentic-units/course-agent/thread"
	"github.com/tailored-agentic-units/course-agent/transcript"
)

// ServiceName is the fully qualified name of the assistant service.
const ServiceName = "courseagent.v1.AssistantService"

// Procedure paths.
const (
	OpenSessionProcedure   = "/" + ServiceName + "/OpenSession"
	SendMessageProcedure   = "/" + ServiceName + "/SendMessage"
	ConfirmActionProcedure = "/" + ServiceName + "/ConfirmAction"
	RejectActionProcedure  = "/" + ServiceName + "/RejectAction"
	EditActionProcedure    = "/" + ServiceName + "/EditAction"
	GetThreadProcedure     = "/" + ServiceName + "/GetThread"
)

// Option configures a Server.
type Option func(*Server)

// WithPersistence sets the write path given to every new session.
func WithPersistence(p course.Persistence) Option {
	return func(s *Server) { s.persistence = p }
}

// WithTranscripts saves each session after every call that changes its
// thread, and lets OpenSession resume a saved session by id.
func WithTranscripts(t transcript.Store) Option {
	return func(s *Server) { s.transcripts = t }
}

// WithMetrics serves g at /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// WithHealthCheck replaces the default /healthz probe.
func WithHealthCheck(check func(context.Context) error) Option {
	return func(s *Server) { s.health = check }
}

// Server serves the assistant RPCs.
type Server struct {
	kernel      *kernel.Kernel
	executor    *operate.Executor
	sessions    *session.Manager
	loader      session.Loader
	persistence course.Persistence
	transcripts transcript.Store
	gatherer    prometheus.Gatherer
	health      func(context.Context) error
}

// New creates a Server. loader opens the course snapshot of new sessions.
func New(k *kernel.Kernel, ex *operate.Executor, sessions *session.Manager, loader session.Loader, opts ...Option) *Server {
	s := &Server{
		kernel:   k,
		executor: ex,
		sessions: sessions,
		loader:   loader,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the HTTP handler serving every procedure plus /healthz and,
// when configured, /metrics.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.healthz)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	for path, h := range map[string]http.Handler{
		OpenSessionProcedure:   connect.NewUnaryHandler(OpenSessionProcedure, s.OpenSession),
		SendMessageProcedure:   connect.NewUnaryHandler(SendMessageProcedure, s.SendMessage),
		ConfirmActionProcedure: connect.NewUnaryHandler(ConfirmActionProcedure, s.ConfirmAction),
		RejectActionProcedure:  connect.NewUnaryHandler(RejectActionProcedure, s.RejectAction),
		EditActionProcedure:    connect.NewUnaryHandler(EditActionProcedure, s.EditAction),
		GetThreadProcedure:     connect.NewUnaryHandler(GetThreadProcedure, s.GetThread),
	} {
		r.Method(http.MethodPost, path, h)
	}
	return r
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

// session returns the open session named by the request, resuming it from
// the transcript store when it is not in memory.
func (s *Server) session(ctx context.Context, id string) (*session.Session, error) {
	if id == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("sessionId is required"))
	}
	sess, err := s.sessions.Get(id)
	if err == nil {
		return sess, nil
	}
	if s.transcripts == nil {
		return nil, rpcError(err)
	}
	rec, lerr := s.transcripts.Load(ctx, id)
	if lerr != nil {
		if errors.Is(lerr, transcript.ErrKeyNotFound) || errors.Is(lerr, transcript.ErrInvalidKey) {
			return nil, rpcError(err)
		}
		return nil, rpcError(lerr)
	}
	sess, err = transcript.Resume(ctx, rec, s.loader, session.WithPersistence(s.persistence))
	if err != nil {
		return nil, rpcError(err)
	}
	if err := s.sessions.Add(sess); err != nil {
		return nil, rpcError(err)
	}
	return sess, nil
}

// save writes the session transcript when a store is configured.
func (s *Server) save(ctx context.Context, sess *session.Session) error {
	if s.transcripts == nil {
		return nil
	}
	if err := s.transcripts.Save(ctx, transcript.Capture(sess)); err != nil {
		return connect.NewError(connect.CodeInternal, fmt.Errorf("save transcript: %w", err))
	}
	return nil
}

// rpcError maps domain errors to connect codes.
func rpcError(err error) error {
	var ce *connect.Error
	switch {
	case errors.As(err, &ce):
		return err
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	case errors.Is(err, session.ErrNotFound), errors.Is(err, thread.ErrNotFound), errors.Is(err, course.ErrCourseNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, session.ErrFull):
		return connect.NewError(connect.CodeResourceExhausted, err)
	case errors.Is(err, operate.ErrReadOnly):
		return connect.NewError(connect.CodePermissionDenied, err)
	case errors.Is(err, operate.ErrNotActionable), errors.Is(err, thread.ErrResolved), errors.Is(err, thread.ErrWrongKind):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, kernel.ErrNoModel):
		return connect.NewError(connect.CodeUnavailable, err)
	}
	return connect.NewError(connect.CodeInternal, err)
}

// toStruct converts v to a Struct through its JSON form.
func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, fmt.Errorf("encode response: %w", err))
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, connect.NewError(connect.CodeInternal, fmt.Errorf("encode response: %w", err))
	}
	out, err := structpb.NewStruct(obj)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, fmt.Errorf("encode response: %w", err))
	}
	return out, nil
}

// fromStruct decodes a request Struct into v through its JSON form.
func fromStruct(in *structpb.Struct, v any) error {
	raw, err := json.Marshal(in.AsMap())
	if err != nil {
		return connect.NewError(connect.CodeInvalidArgument, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("decode request: %w", err))
	}
	return nil
}

func respond(v any) (*connect.Response[structpb.Struct], error) {
	out, err := toStruct(v)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(out), nil
}
