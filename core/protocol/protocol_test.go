package protocol_test

import (
	"encoding/json"
	"testing"

	"github.com/tailored-agentic-units/course-agent/core/protocol"
)

func TestNewMessage(t *testing.T) {
	msg := protocol.NewMessage(protocol.RoleUser, "Hello, world!")

	if msg.Role != protocol.RoleUser {
		t.Errorf("got role %q, want %q", msg.Role, protocol.RoleUser)
	}
	if msg.Content != "Hello, world!" {
		t.Errorf("got content %q, want %q", msg.Content, "Hello, world!")
	}
}

func TestRole_Constants(t *testing.T) {
	tests := []struct {
		role protocol.Role
		want string
	}{
		{protocol.RoleSystem, "system"},
		{protocol.RoleUser, "user"},
		{protocol.RoleAssistant, "assistant"},
	}

	for _, tt := range tests {
		if string(tt.role) != tt.want {
			t.Errorf("got %s, want %s", tt.role, tt.want)
		}
	}
}

func TestCloneMessages_Independent(t *testing.T) {
	orig := protocol.InitMessages(protocol.RoleUser, "first")
	clone := protocol.CloneMessages(orig)
	clone[0].Content = "tampered"

	if orig[0].Content != "first" {
		t.Errorf("original mutated: got %q", orig[0].Content)
	}
	if protocol.CloneMessages(nil) != nil {
		t.Error("CloneMessages(nil) should return nil")
	}
}

func TestReplyType_Priority(t *testing.T) {
	order := []protocol.ReplyType{
		protocol.ReplyToolCall,
		protocol.ReplyAction,
		protocol.ReplyAskUser,
		protocol.ReplyAnswer,
	}

	for i := 0; i < len(order)-1; i++ {
		if order[i].Priority() <= order[i+1].Priority() {
			t.Errorf("%s priority %d should exceed %s priority %d",
				order[i], order[i].Priority(), order[i+1], order[i+1].Priority())
		}
	}

	if protocol.ReplyType("pipeline").Valid() {
		t.Error("pipeline should not be a valid reply type")
	}
}

func TestReplyFromMap(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  protocol.ReplyType
		ok    bool
	}{
		{"answer", `{"type":"answer","text":"hi"}`, protocol.ReplyAnswer, true},
		{"tool call", `{"type":"tool_call","tool":"list_files","params":{}}`, protocol.ReplyToolCall, true},
		{"ask user", `{"type":"ask_user","question":"Which one?"}`, protocol.ReplyAskUser, true},
		{"action", `{"type":"action","action":"delete_module","id":"m1"}`, protocol.ReplyAction, true},
		{"unknown type", `{"type":"thinking"}`, "", false},
		{"missing type", `{"text":"hi"}`, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m map[string]any
			if err := json.Unmarshal([]byte(tt.input), &m); err != nil {
				t.Fatalf("bad fixture: %v", err)
			}
			r, ok := protocol.ReplyFromMap(m)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && r.Type != tt.want {
				t.Errorf("got type %q, want %q", r.Type, tt.want)
			}
		})
	}
}

func TestReply_ActionPayloadExcludesEnvelope(t *testing.T) {
	m := map[string]any{"type": "action", "action": "delete_module", "id": "m1"}
	r, ok := protocol.ReplyFromMap(m)
	if !ok {
		t.Fatal("ReplyFromMap failed")
	}

	if _, has := r.Payload["type"]; has {
		t.Error("payload should not contain type")
	}
	if _, has := r.Payload["action"]; has {
		t.Error("payload should not contain action")
	}
	if r.Payload["id"] != "m1" {
		t.Errorf("got id %v, want m1", r.Payload["id"])
	}

	back := r.Map()
	if back["action"] != "delete_module" || back["type"] != "action" || back["id"] != "m1" {
		t.Errorf("Map() round trip lost fields: %v", back)
	}
}

func TestReply_ToolCallDefaultsParams(t *testing.T) {
	r, ok := protocol.ReplyFromMap(map[string]any{"type": "tool_call", "tool": "list_modules"})
	if !ok {
		t.Fatal("ReplyFromMap failed")
	}
	if r.Params == nil {
		t.Error("params should default to an empty map")
	}
}

func TestReply_Complete(t *testing.T) {
	tests := []struct {
		reply *protocol.Reply
		want  bool
	}{
		{nil, false},
		{&protocol.Reply{Type: protocol.ReplyAnswer, Text: "Two drafts."}, true},
		{&protocol.Reply{Type: protocol.ReplyAnswer, Text: " \n"}, false},
		{&protocol.Reply{Type: protocol.ReplyAskUser, Question: "Which week?"}, true},
		{&protocol.Reply{Type: protocol.ReplyAskUser}, false},
		{&protocol.Reply{Type: protocol.ReplyToolCall, Tool: "list_modules"}, true},
		{&protocol.Reply{Type: protocol.ReplyToolCall}, false},
		{&protocol.Reply{Type: protocol.ReplyAction, Action: "create_module"}, true},
		{&protocol.Reply{Type: protocol.ReplyAction}, false},
		{&protocol.Reply{Type: "thought", Text: "hmm"}, false},
	}

	for _, tt := range tests {
		if got := tt.reply.Complete(); got != tt.want {
			t.Errorf("%+v.Complete() = %v, want %v", tt.reply, got, tt.want)
		}
	}
}
