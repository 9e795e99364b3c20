package protocol

import (
	"encoding/json"
	"maps"
	"strings"
)

// ReplyType is the declared shape of a model reply.
type ReplyType string

const (
	ReplyAnswer   ReplyType = "answer"
	ReplyToolCall ReplyType = "tool_call"
	ReplyAskUser  ReplyType = "ask_user"
	ReplyAction   ReplyType = "action"
)

// Priority orders reply types when a raw reply contains several candidates.
// Higher wins: a tool call keeps the loop moving, an action beats a plain answer.
func (t ReplyType) Priority() int {
	switch t {
	case ReplyToolCall:
		return 4
	case ReplyAction:
		return 3
	case ReplyAskUser:
		return 2
	case ReplyAnswer:
		return 1
	default:
		return 0
	}
}

// Valid reports whether t is one of the four contract shapes.
func (t ReplyType) Valid() bool {
	return t.Priority() > 0
}

// Reply is the canonical model message produced by the response interpreter.
//
//	{"type":"answer","text":...}
//	{"type":"tool_call","tool":...,"params":{...},"step_label":...}
//	{"type":"ask_user","question":...}
//	{"type":"action","action":...,<action-specific fields>}
//
// Payload holds the action-specific fields of an action reply, excluding the
// "type" and "action" envelope keys.
type Reply struct {
	Type      ReplyType
	Text      string
	Tool      string
	Params    map[string]any
	StepLabel string
	Question  string
	Action    string
	Payload   map[string]any
}

// Complete reports whether r carries the field its type needs: non-blank
// text or question, a tool name, or an action name. A nil reply is not
// complete.
func (r *Reply) Complete() bool {
	if r == nil {
		return false
	}
	switch r.Type {
	case ReplyAnswer:
		return strings.TrimSpace(r.Text) != ""
	case ReplyAskUser:
		return strings.TrimSpace(r.Question) != ""
	case ReplyToolCall:
		return r.Tool != ""
	case ReplyAction:
		return r.Action != ""
	}
	return false
}

// ReplyFromMap decodes a canonical candidate map into a Reply. Returns false
// when the candidate does not declare one of the four contract types.
func ReplyFromMap(m map[string]any) (*Reply, bool) {
	t, _ := m["type"].(string)
	r := &Reply{Type: ReplyType(t)}
	if !r.Type.Valid() {
		return nil, false
	}

	switch r.Type {
	case ReplyAnswer:
		r.Text, _ = m["text"].(string)
	case ReplyToolCall:
		r.Tool, _ = m["tool"].(string)
		r.StepLabel, _ = m["step_label"].(string)
		if params, ok := m["params"].(map[string]any); ok {
			r.Params = params
		} else {
			r.Params = map[string]any{}
		}
	case ReplyAskUser:
		r.Question, _ = m["question"].(string)
	case ReplyAction:
		r.Action, _ = m["action"].(string)
		r.Payload = make(map[string]any, len(m))
		for k, v := range m {
			if k == "type" || k == "action" {
				continue
			}
			r.Payload[k] = v
		}
	}
	return r, true
}

// Map returns the canonical map form of the reply.
func (r *Reply) Map() map[string]any {
	m := map[string]any{"type": string(r.Type)}
	switch r.Type {
	case ReplyAnswer:
		m["text"] = r.Text
	case ReplyToolCall:
		m["tool"] = r.Tool
		m["params"] = r.Params
		if r.StepLabel != "" {
			m["step_label"] = r.StepLabel
		}
	case ReplyAskUser:
		m["question"] = r.Question
	case ReplyAction:
		maps.Copy(m, r.Payload)
		m["type"] = string(r.Type)
		m["action"] = r.Action
	}
	return m
}

// String renders the reply as compact JSON, the form it takes in model history.
func (r *Reply) String() string {
	data, err := json.Marshal(r.Map())
	if err != nil {
		return string(r.Type)
	}
	return string(data)
}
