package prompt

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tailored-agentic-units/course-agent/actions"
	"github.com/tailored-agentic-units/course-agent/core/course"
	"github.com/tailored-agentic-units/course-agent/tools"
)

// TruncationMarker ends a context that was cut to fit its budget.
const TruncationMarker = "\n[context truncated]"

// DefaultMaxContextChars bounds BuildContext when the caller passes 0.
const DefaultMaxContextChars = 6000

// BuildContext renders the course context block of the system prompt: the
// course header, the local wall-clock time, record counts, and the draft of
// an in-flight pending action. The result never exceeds maxChars.
func BuildContext(s course.Snapshot, pending *actions.PendingAction, now time.Time, maxChars int) string {
	if maxChars <= 0 {
		maxChars = DefaultMaxContextChars
	}

	var sb strings.Builder
	c := s.Course()
	fmt.Fprintf(&sb, "Course: %s", c.Name)
	if c.Code != "" {
		fmt.Fprintf(&sb, " (%s)", c.Code)
	}
	fmt.Fprintf(&sb, "\nCourse id: %s\n", c.ID)
	if c.Term != "" {
		fmt.Fprintf(&sb, "Term: %s\n", c.Term)
	}
	fmt.Fprintf(&sb, "Current local time: %s (%s)\n", now.Format(actions.WallClock), now.Weekday())

	n := tools.Counts(s)
	fmt.Fprintf(&sb, "Assignments: %d (%d draft, %d published)\n", n.Assignments, n.Drafts, n.Published)
	fmt.Fprintf(&sb, "Announcements: %d\n", n.Announcements)
	fmt.Fprintf(&sb, "Modules: %d\n", n.Modules)
	fmt.Fprintf(&sb, "Files: %d\n", n.Files)
	fmt.Fprintf(&sb, "Enrollments: %d (%d pending invites)\n", n.Enrollments, n.PendingInvites)
	fmt.Fprintf(&sb, "Question banks: %d\n", n.QuestionBanks)
	fmt.Fprintf(&sb, "Group sets: %d\n", n.GroupSets)
	sb.WriteString("These are counts only. Use the lookup tools to get exact ids before referring to a record.\n")

	var draft string
	if pending != nil {
		data, err := json.Marshal(map[string]any{"action": pending.Type, "data": pending.Data})
		if err == nil {
			draft = "\nPending action awaiting confirmation (use edit_pending_action to change it):\n" + string(data) + "\n"
		}
	}

	return fit(sb.String(), draft, maxChars)
}

const draftOmitted = "\nA pending action is awaiting confirmation; its draft is too long to show here.\n"

// fit joins the context and the pending draft within maxChars. The draft is
// never cut: when it does not fit whole the counts are cut instead, and when
// it cannot fit at all it is replaced by a short note.
func fit(head, draft string, maxChars int) string {
	n := utf8.RuneCountInString
	if n(head)+n(draft) <= maxChars {
		return head + draft
	}
	marker := n(TruncationMarker)
	if draft != "" && n(draft)+marker < maxChars {
		return cut(head, maxChars-n(draft)-marker) + TruncationMarker + draft
	}
	if draft != "" {
		head += draftOmitted
	}
	if maxChars < marker {
		return cut(head, maxChars)
	}
	return cut(head, maxChars-marker) + TruncationMarker
}

func cut(s string, maxChars int) string {
	r := []rune(s)
	if len(r) <= maxChars {
		return s
	}
	return string(r[:maxChars])
}
