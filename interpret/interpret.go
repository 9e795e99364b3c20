// Package interpret turns one raw model reply into a canonical protocol.Reply.
//
// Models wrap JSON in prose, emit several objects, and drift from the declared
// field names. Parse extracts every top-level object, repairs each candidate
// with an ordered list of pure rules, and keeps the highest-priority one.
//
//	in := interpret.New(registry.Default())
//	reply := in.Parse(raw) // nil when nothing usable was found
package interpret

import (
	"encoding/json"
	"strings"

	"github.com/tailored-agentic-units/course-agent/core/protocol"
	"github.com/tailored-agentic-units/course-agent/registry"
)

// Interpreter holds the registry the repair rules consult and the rule list.
type Interpreter struct {
	reg   *registry.Registry
	rules []Rule
}

// New creates an Interpreter. With no rules given, DefaultRules is used.
func New(reg *registry.Registry, rules ...Rule) *Interpreter {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Interpreter{reg: reg, rules: rules}
}

// Parse returns the highest-priority canonical reply found in raw, or nil.
// Priority is tool_call > action > ask_user > answer; on ties the candidate
// appearing first wins. Complete candidates always beat incomplete ones, so a
// stray tool_call without a tool cannot shadow a well-formed answer. An
// incomplete reply is returned only when nothing complete was found.
func (in *Interpreter) Parse(raw string) *protocol.Reply {
	var best *protocol.Reply
	for _, candidate := range Candidates(raw) {
		for _, rule := range in.rules {
			candidate = rule(candidate, in.reg)
		}
		reply, ok := protocol.ReplyFromMap(candidate)
		if !ok {
			continue
		}
		if best == nil || outranks(reply, best) {
			best = reply
		}
	}
	return best
}

func outranks(a, b *protocol.Reply) bool {
	if a.Complete() != b.Complete() {
		return a.Complete()
	}
	return a.Type.Priority() > b.Type.Priority()
}

// Candidates returns the JSON objects found in raw, in order of appearance.
// A reply that is itself one object (optionally fenced) or an array of objects
// is decoded directly; otherwise every top-level balanced {...} that decodes
// is collected.
func Candidates(raw string) []map[string]any {
	text := stripFences(strings.TrimSpace(raw))

	var direct any
	if err := json.Unmarshal([]byte(text), &direct); err == nil {
		switch v := direct.(type) {
		case map[string]any:
			return []map[string]any{v}
		case []any:
			return objects(v)
		}
	}

	return scan(text)
}

func objects(values []any) []map[string]any {
	var out []map[string]any
	for _, v := range values {
		if m, ok := v.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	return strings.TrimSpace(strings.TrimSuffix(s, "```"))
}

// scan walks s left to right and collects each top-level balanced object that
// decodes. When an opening brace never balances or the balanced text does not
// decode, scanning resumes just after that brace so objects nested in broken
// text can still be found.
func scan(s string) []map[string]any {
	var out []map[string]any
	for i := 0; i < len(s); i++ {
		if s[i] != '{' {
			continue
		}
		end := matchBrace(s, i)
		if end < 0 {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(s[i:end+1]), &m); err != nil {
			continue
		}
		out = append(out, m)
		i = end
	}
	return out
}

// matchBrace returns the index of the brace closing the object opened at
// start, or -1. Braces inside JSON strings are ignored.
func matchBrace(s string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
