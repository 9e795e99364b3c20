// Package prompt builds the system prompt for a conversation turn: a course
// context block and the catalogue-driven instructions that encode the reply
// contract. Both builders are pure functions of their inputs.
package prompt

import (
	"fmt"
	"strings"

	"github.com/tailored-agentic-units/course-agent/registry"
)

const preamble = `You are a teaching assistant embedded in a course management system.
You can look things up with the tools listed below.`

const readOnlyRules = `You may only read course information. You cannot create, change, or delete anything.
If the user asks for a change, explain that their role does not allow it.`

const readWriteRules = `You never change course data yourself. To make a change, reply with an action; the user reviews it and confirms before anything is saved.

Rules:
- Never invent an id. Call a lookup tool first and use the id it returns.
- Omit optional fields you were not told; they get sensible defaults.
- Write every timestamp as local wall-clock time YYYY-MM-DDTHH:MM with no timezone offset.
- For a request that needs several changes, reply with one "pipeline" action whose "steps" list the actions in order.
- To change the pending action, reply with {"type":"action","action":"edit_pending_action","changes":{...}} listing only the fields to change.`

// Build returns the system prompt. Read-only callers are offered the
// student-safe tools and no actions.
func Build(reg *registry.Registry, context string, readWrite bool) string {
	var sb strings.Builder
	sb.WriteString(preamble)
	sb.WriteString("\n\n")

	if context != "" {
		sb.WriteString("## Course context\n")
		sb.WriteString(strings.TrimRight(context, "\n"))
		sb.WriteString("\n\n")
	}

	sb.WriteString("## Tools\n")
	toolList := reg.StudentSafeTools()
	if readWrite {
		toolList = reg.Tools()
	}
	for _, t := range toolList {
		writeTool(&sb, t)
	}
	sb.WriteByte('\n')

	if readWrite {
		sb.WriteString("## Actions\n")
		sb.WriteString("Fields marked * are required. Actions marked [DANGEROUS] cannot be undone.\n")
		for _, a := range reg.Actions() {
			if a.Deprecated {
				continue
			}
			writeAction(&sb, a)
		}
		sb.WriteByte('\n')
		sb.WriteString(readWriteRules)
	} else {
		sb.WriteString(readOnlyRules)
	}
	sb.WriteString("\n\n")

	sb.WriteString(outputContract(readWrite))
	return sb.String()
}

func writeTool(sb *strings.Builder, t registry.ToolDescriptor) {
	fmt.Fprintf(sb, "- %s: %s", t.Name, t.Description)
	if len(t.Params) > 0 {
		sb.WriteString(" Params: ")
		sb.WriteString(fieldList(t.Params))
	}
	sb.WriteByte('\n')
}

func writeAction(sb *strings.Builder, a registry.ActionDescriptor) {
	fmt.Fprintf(sb, "- %s", a.Name)
	if a.Dangerous {
		sb.WriteString(" [DANGEROUS]")
	}
	fmt.Fprintf(sb, ": %s", a.Description)
	if len(a.Fields) > 0 {
		sb.WriteString(" Fields: ")
		sb.WriteString(fieldList(a.Fields))
	}
	for _, group := range a.RequireOneOf {
		fmt.Fprintf(sb, " (one of %s is required)", strings.Join(group, " or "))
	}
	sb.WriteByte('\n')
}

func fieldList(fields []registry.Field) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		name := f.Name
		if f.Required {
			name += "*"
		}
		parts[i] = fmt.Sprintf("%s (%s)", name, f.Type)
	}
	return strings.Join(parts, ", ")
}

func outputContract(readWrite bool) string {
	var sb strings.Builder
	sb.WriteString("## Reply format\n")
	sb.WriteString("Reply with exactly one JSON object and nothing else, in one of these shapes:\n")
	sb.WriteString(`{"type":"answer","text":"..."}` + "\n")
	sb.WriteString(`{"type":"tool_call","tool":"<tool name>","params":{...},"step_label":"short description of the lookup"}` + "\n")
	sb.WriteString(`{"type":"ask_user","question":"..."}` + "\n")
	if readWrite {
		sb.WriteString(`{"type":"action","action":"<action name>",<action fields>}` + "\n")
	} else {
		sb.WriteString("Action replies are not available to you.\n")
	}
	return sb.String()
}
