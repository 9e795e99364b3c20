package interpret

import (
	"encoding/json"
	"maps"

	"github.com/tailored-agentic-units/course-agent/core/protocol"
	"github.com/tailored-agentic-units/course-agent/registry"
)

// Rule repairs one observed deviation from the reply contract. A rule returns
// its input unchanged when the deviation is absent and never mutates the map
// it was given.
type Rule func(candidate map[string]any, reg *registry.Registry) map[string]any

// DefaultRules returns the repair rules in application order.
func DefaultRules() []Rule {
	return []Rule{
		ToolNameAsType,
		ActionNameAsType,
		PipelineAsType,
		EditAsType,
		AlternateFieldNames,
	}
}

var (
	toolAliases   = []string{"name", "tool_name", "function"}
	paramsAliases = []string{"arguments", "args", "parameters", "input"}
	textAliases   = []string{"message", "content", "response"}
	actionAliases = []string{"action_type", "actionType"}
)

// ToolNameAsType rewraps {"type":"list_assignments",...} as a tool_call. The
// parameters come from a params-like field, or else from the remaining keys.
func ToolNameAsType(c map[string]any, reg *registry.Registry) map[string]any {
	t := typeOf(c)
	if reg == nil || !reg.IsTool(t) {
		return c
	}

	out := map[string]any{"type": string(protocol.ReplyToolCall), "tool": t}
	if label, ok := c["step_label"]; ok {
		out["step_label"] = label
	}

	if params, ok := firstMap(c, append([]string{"params"}, paramsAliases...)...); ok {
		out["params"] = params
		return out
	}

	params := make(map[string]any)
	for k, v := range c {
		if k == "type" || k == "step_label" {
			continue
		}
		params[k] = v
	}
	out["params"] = params
	return out
}

// ActionNameAsType rewraps {"type":"create_module",...} as an action envelope.
func ActionNameAsType(c map[string]any, reg *registry.Registry) map[string]any {
	t := typeOf(c)
	if reg == nil || !reg.IsAction(t) {
		return c
	}
	out := maps.Clone(c)
	out["type"] = string(protocol.ReplyAction)
	out["action"] = t
	return out
}

// PipelineAsType handles both {"type":"pipeline"} and an action envelope whose
// pipeline steps arrived under "actions" instead of "steps".
func PipelineAsType(c map[string]any, _ *registry.Registry) map[string]any {
	t := typeOf(c)
	isPipeline := t == registry.ActionPipeline ||
		(t == string(protocol.ReplyAction) && c["action"] == registry.ActionPipeline)
	if !isPipeline {
		return c
	}

	out := maps.Clone(c)
	out["type"] = string(protocol.ReplyAction)
	out["action"] = registry.ActionPipeline
	if _, ok := out["steps"].([]any); !ok {
		if steps, ok := out["actions"].([]any); ok {
			out["steps"] = steps
		}
	}
	delete(out, "actions")
	return out
}

// EditAsType rewraps {"type":"edit_pending_action",...} as an action envelope.
// Changes given as top-level keys are gathered into "changes".
func EditAsType(c map[string]any, _ *registry.Registry) map[string]any {
	if typeOf(c) != registry.EditPendingAction {
		return c
	}

	out := map[string]any{
		"type":   string(protocol.ReplyAction),
		"action": registry.EditPendingAction,
	}
	if changes, ok := c["changes"].(map[string]any); ok {
		out["changes"] = changes
		return out
	}

	changes := make(map[string]any)
	for k, v := range c {
		if k == "type" {
			continue
		}
		changes[k] = v
	}
	out["changes"] = changes
	return out
}

// AlternateFieldNames maps field-name synonyms onto the contract names for
// each reply type. Arguments given as a JSON string are decoded.
func AlternateFieldNames(c map[string]any, _ *registry.Registry) map[string]any {
	out := maps.Clone(c)

	switch protocol.ReplyType(typeOf(c)) {
	case protocol.ReplyToolCall:
		if _, ok := out["tool"].(string); !ok {
			if name, key, ok := firstString(out, toolAliases...); ok {
				out["tool"] = name
				delete(out, key)
			}
		}
		if _, ok := out["params"].(map[string]any); !ok {
			raw, present := out["params"]
			if s, isString := raw.(string); present && isString {
				if decoded, ok := decodeObject(s); ok {
					out["params"] = decoded
				}
			} else if params, ok := firstMap(out, paramsAliases...); ok {
				out["params"] = params
				for _, k := range paramsAliases {
					delete(out, k)
				}
			}
		}
	case protocol.ReplyAnswer:
		if _, ok := out["text"].(string); !ok {
			if text, key, ok := firstString(out, textAliases...); ok {
				out["text"] = text
				delete(out, key)
			}
		}
	case protocol.ReplyAskUser:
		if _, ok := out["question"].(string); !ok {
			if q, key, ok := firstString(out, "text", "message"); ok {
				out["question"] = q
				delete(out, key)
			}
		}
	case protocol.ReplyAction:
		if _, ok := out["action"].(string); !ok {
			if name, key, ok := firstString(out, actionAliases...); ok {
				out["action"] = name
				delete(out, key)
			}
		}
	}
	return out
}

func typeOf(c map[string]any) string {
	t, _ := c["type"].(string)
	return t
}

func firstString(c map[string]any, keys ...string) (string, string, bool) {
	for _, k := range keys {
		if s, ok := c[k].(string); ok && s != "" {
			return s, k, true
		}
	}
	return "", "", false
}

func firstMap(c map[string]any, keys ...string) (map[string]any, bool) {
	for _, k := range keys {
		switch v := c[k].(type) {
		case map[string]any:
			return v, true
		case string:
			if m, ok := decodeObject(v); ok {
				return m, true
			}
		}
	}
	return nil, false
}

func decodeObject(s string) (map[string]any, bool) {
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil || m == nil {
		return nil, false
	}
	return m, true
}
