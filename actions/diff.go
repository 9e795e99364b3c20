package actions

import (
	"encoding/json"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Change is one field that differs between two versions of an action's data.
// Old or New is nil when the field was added or removed.
type Change struct {
	Field string `json:"field"`
	Old   any    `json:"old,omitempty"`
	New   any    `json:"new,omitempty"`
}

// inlineDiffMin is the length above which string changes are shown as an
// inline character diff instead of old → new.
const inlineDiffMin = 40

// Changes returns the fields that differ between before and after, sorted by
// field name.
func Changes(before, after Fields) []Change {
	keys := make([]string, 0, len(before)+len(after))
	for k := range before {
		keys = append(keys, k)
	}
	for k := range after {
		if _, ok := before[k]; !ok {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)

	var out []Change
	for _, k := range keys {
		if reflect.DeepEqual(before[k], after[k]) {
			continue
		}
		out = append(out, Change{Field: k, Old: before[k], New: after[k]})
	}
	return out
}

// Summarize renders changes one per line. Long string edits are shown as an
// inline diff with deletions as [-text-] and insertions as {+text+}.
func Summarize(changes []Change) string {
	if len(changes) == 0 {
		return "No changes."
	}
	var b strings.Builder
	for i, c := range changes {
		if i > 0 {
			b.WriteByte('\n')
		}
		switch {
		case c.Old == nil:
			fmt.Fprintf(&b, "- %s: set to %s", c.Field, display(c.New))
		case c.New == nil:
			fmt.Fprintf(&b, "- %s: cleared (was %s)", c.Field, display(c.Old))
		default:
			oldS, oldOK := c.Old.(string)
			newS, newOK := c.New.(string)
			if oldOK && newOK && max(len(oldS), len(newS)) > inlineDiffMin {
				fmt.Fprintf(&b, "- %s: %s", c.Field, inlineDiff(oldS, newS))
				continue
			}
			fmt.Fprintf(&b, "- %s: %s → %s", c.Field, display(c.Old), display(c.New))
		}
	}
	return b.String()
}

func inlineDiff(before, after string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffCleanupSemantic(dmp.DiffMain(before, after, false))
	var b strings.Builder
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			b.WriteString(d.Text)
		case diffmatchpatch.DiffDelete:
			b.WriteString("[-" + d.Text + "-]")
		case diffmatchpatch.DiffInsert:
			b.WriteString("{+" + d.Text + "+}")
		}
	}
	return b.String()
}

func display(v any) string {
	if s, ok := v.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
