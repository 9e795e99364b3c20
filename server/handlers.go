package server

import (
	"context"
	"errors"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/tailored-agentic-units/course-agent/actions"
	"github.com/tailored-agentic-units/course-agent/core/course"
	"github.com/tailored-agentic-units/course-agent/session"
	"github.com/tailored-agentic-units/course-agent/thread"
)

type openSessionRequest struct {
	SessionID string      `json:"sessionId"`
	CourseID  string      `json:"courseId"`
	User      course.User `json:"user"`
}

type sessionView struct {
	SessionID string           `json:"sessionId"`
	Course    course.Course    `json:"course"`
	ReadWrite bool             `json:"readWrite"`
	Messages  []thread.Message `json:"messages"`
}

func view(sess *session.Session) sessionView {
	return sessionView{
		SessionID: sess.ID(),
		Course:    sess.Course(),
		ReadWrite: sess.ReadWrite(),
		Messages:  visible(sess.Thread().Messages()),
	}
}

// visible drops hidden messages.
func visible(msgs []thread.Message) []thread.Message {
	out := make([]thread.Message, 0, len(msgs))
	for _, m := range msgs {
		if !m.Hidden {
			out = append(out, m)
		}
	}
	return out
}

// OpenSession starts a conversation, or resumes a saved one when sessionId
// names a stored transcript.
func (s *Server) OpenSession(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	var in openSessionRequest
	if err := fromStruct(req.Msg, &in); err != nil {
		return nil, err
	}

	if in.SessionID != "" {
		sess, err := s.session(ctx, in.SessionID)
		if err != nil {
			return nil, err
		}
		return respond(view(sess))
	}

	if in.CourseID == "" || in.User.ID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("courseId and user.id are required"))
	}
	sess, err := session.New(ctx, in.User, in.CourseID, s.loader, session.WithPersistence(s.persistence))
	if err != nil {
		return nil, rpcError(err)
	}
	if err := s.sessions.Add(sess); err != nil {
		return nil, rpcError(err)
	}
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	return respond(view(sess))
}

type sendMessageRequest struct {
	SessionID string `json:"sessionId"`
	Text      string `json:"text"`
}

type toolCallView struct {
	Tool    string `json:"tool"`
	Step    int    `json:"step"`
	IsError bool   `json:"isError,omitempty"`
}

type sendMessageResponse struct {
	Outcome   string         `json:"outcome"`
	Steps     int            `json:"steps"`
	Message   thread.Message `json:"message"`
	ToolCalls []toolCallView `json:"toolCalls,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// SendMessage runs one conversation turn.
func (s *Server) SendMessage(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	var in sendMessageRequest
	if err := fromStruct(req.Msg, &in); err != nil {
		return nil, err
	}
	if in.Text == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("text is required"))
	}
	sess, err := s.session(ctx, in.SessionID)
	if err != nil {
		return nil, err
	}

	result, err := s.kernel.Run(ctx, sess, in.Text)
	if err != nil {
		return nil, rpcError(err)
	}
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}

	out := sendMessageResponse{
		Outcome: string(result.Outcome),
		Steps:   result.Steps,
		Message: result.Message,
	}
	for _, tc := range result.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, toolCallView{Tool: tc.Tool, Step: tc.Step, IsError: tc.IsError})
	}
	if result.Err != nil {
		out.Error = result.Err.Error()
	}
	return respond(out)
}

type actionRequest struct {
	SessionID string         `json:"sessionId"`
	MessageID string         `json:"messageId"`
	Changes   actions.Fields `json:"changes"`
}

func (r actionRequest) check() error {
	if r.MessageID == "" {
		return connect.NewError(connect.CodeInvalidArgument, errors.New("messageId is required"))
	}
	return nil
}

type confirmResponse struct {
	Action     string            `json:"action"`
	Confirmed  bool              `json:"confirmed"`
	Applied    []actions.Applied `json:"applied,omitempty"`
	FailedStep int               `json:"failedStep,omitempty"`
	Missing    []string          `json:"missing,omitempty"`
	Error      string            `json:"error,omitempty"`
	Message    thread.Message    `json:"message"`
}

// ConfirmAction executes a proposed action.
func (s *Server) ConfirmAction(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	var in actionRequest
	if err := fromStruct(req.Msg, &in); err != nil {
		return nil, err
	}
	if err := in.check(); err != nil {
		return nil, err
	}
	sess, err := s.session(ctx, in.SessionID)
	if err != nil {
		return nil, err
	}

	out, err := s.executor.Confirm(ctx, sess, in.MessageID)
	if err != nil {
		return nil, rpcError(err)
	}
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}

	resp := confirmResponse{
		Action:     out.Action,
		Confirmed:  out.Confirmed,
		Applied:    out.Applied,
		FailedStep: out.FailedStep,
		Missing:    out.Missing,
		Message:    out.Message,
	}
	if out.Err != nil {
		resp.Error = out.Err.Error()
	}
	return respond(resp)
}

// RejectAction declines a proposed action.
func (s *Server) RejectAction(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	var in actionRequest
	if err := fromStruct(req.Msg, &in); err != nil {
		return nil, err
	}
	if err := in.check(); err != nil {
		return nil, err
	}
	sess, err := s.session(ctx, in.SessionID)
	if err != nil {
		return nil, err
	}

	msg, err := s.executor.Reject(ctx, sess, in.MessageID)
	if err != nil {
		return nil, rpcError(err)
	}
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	return respond(map[string]any{"message": msg})
}

type editResponse struct {
	Applied bool             `json:"applied"`
	Reason  string           `json:"reason,omitempty"`
	Changes []actions.Change `json:"changes,omitempty"`
	Summary string           `json:"summary,omitempty"`
	Message thread.Message   `json:"message"`
}

// EditAction changes fields of a proposed action before it is confirmed.
func (s *Server) EditAction(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	var in actionRequest
	if err := fromStruct(req.Msg, &in); err != nil {
		return nil, err
	}
	if err := in.check(); err != nil {
		return nil, err
	}
	if len(in.Changes) == 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("changes are required"))
	}
	sess, err := s.session(ctx, in.SessionID)
	if err != nil {
		return nil, err
	}

	out, err := s.executor.Edit(ctx, sess, in.MessageID, in.Changes)
	if err != nil {
		return nil, rpcError(err)
	}
	if out.Reason == "" {
		if err := s.save(ctx, sess); err != nil {
			return nil, err
		}
	}
	resp := editResponse{
		Applied: out.Reason == "",
		Reason:  out.Reason,
		Changes: out.Changes,
		Message: out.Message,
	}
	if resp.Applied {
		resp.Summary = actions.Summarize(out.Changes)
	}
	return respond(resp)
}

// GetThread returns the visible messages of a session.
func (s *Server) GetThread(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	var in sendMessageRequest
	if err := fromStruct(req.Msg, &in); err != nil {
		return nil, err
	}
	sess, err := s.session(ctx, in.SessionID)
	if err != nil {
		return nil, err
	}
	return respond(view(sess))
}
