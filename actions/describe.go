package actions

import (
	"fmt"
	"strings"

	"github.com/tailored-agentic-units/course-agent/registry"
)

var labelKeys = []string{"title", "name", "email", "fileName", "assignmentTitle", "moduleName", "refTitle", "id"}

// Describe returns a one-line human summary of a pending action, such as
// `Create assignment "Essay 1"`. Pipelines list their steps in order.
func Describe(p PendingAction) string {
	if p.Type != registry.ActionPipeline {
		return describe(p.Type, p.Data)
	}
	list, _ := p.Data.List("steps")
	parts := make([]string, 0, len(list))
	for i, item := range list {
		step, ok := item.(map[string]any)
		if !ok {
			continue
		}
		data, actionType := splitStep(step)
		parts = append(parts, fmt.Sprintf("%d. %s", i+1, describe(actionType, data)))
	}
	return fmt.Sprintf("Pipeline of %d step(s): %s", len(list), strings.Join(parts, "; "))
}

func describe(actionType string, f Fields) string {
	verb := strings.ReplaceAll(actionType, "_", " ")
	if verb != "" {
		verb = strings.ToUpper(verb[:1]) + verb[1:]
	}
	for _, k := range labelKeys {
		if f.Has(k) {
			return fmt.Sprintf("%s %q", verb, f.String(k))
		}
	}
	return verb
}
