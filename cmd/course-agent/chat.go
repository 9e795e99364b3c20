package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tailored-agentic-units/course-agent/actions"
	"github.com/tailored-agentic-units/course-agent/core/course"
	"github.com/tailored-agentic-units/course-agent/session"
	"github.com/tailored-agentic-units/course-agent/thread"
	"github.com/tailored-agentic-units/course-agent/transcript"
)

var (
	chatCourse  string
	chatUser    string
	chatEmail   string
	chatSession string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the assistant in the terminal",
	Long: `Opens a conversation about one course and reads messages from stdin.

Commands:
  /confirm           apply the pending change
  /reject            discard the pending change
  /edit key=value... change fields of the pending change (values may be JSON)
  /quit              leave`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatCourse, "course", "", "course id")
	chatCmd.Flags().StringVar(&chatUser, "user", "", "user id")
	chatCmd.Flags().StringVar(&chatEmail, "email", "", "user email")
	chatCmd.Flags().StringVar(&chatSession, "session", "", "resume a saved session instead of starting one")
}

func runChat(cmd *cobra.Command, args []string) error {
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	sess, err := openChat(ctx, a)
	if err != nil {
		return err
	}

	c := &chat{app: a, sess: sess, out: cmd.OutOrStdout()}
	fmt.Fprintf(c.out, "%s, session %s. /quit to leave.\n", sess.Course().Name, sess.ID())
	c.seen = sess.Thread().Len()
	return c.loop(ctx, cmd.InOrStdin())
}

func openChat(ctx context.Context, a *app) (*session.Session, error) {
	opts := []session.Option{session.WithPersistence(a.store.Persistence())}
	if chatSession != "" {
		if a.transcripts == nil {
			return nil, errors.New("resuming needs a transcript store")
		}
		rec, err := a.transcripts.Load(ctx, chatSession)
		if err != nil {
			return nil, err
		}
		return transcript.Resume(ctx, rec, a.store, opts...)
	}
	if chatCourse == "" || chatUser == "" {
		return nil, errors.New("--course and --user are required")
	}
	return session.New(ctx, course.User{ID: chatUser, Email: chatEmail}, chatCourse, a.store, opts...)
}

type chat struct {
	app  *app
	sess *session.Session
	out  io.Writer
	seen int
}

func (c *chat) loop(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(c.out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/quit" {
			return nil
		}
		if err := c.handle(ctx, line); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintf(c.out, "error: %v\n", err)
		}
		c.flush()
		if err := c.save(ctx); err != nil {
			logger.Warn("save transcript", "error", err)
		}
	}
}

func (c *chat) handle(ctx context.Context, line string) error {
	if !strings.HasPrefix(line, "/") {
		_, err := c.app.kernel.Run(ctx, c.sess, line)
		return err
	}

	name, rest, _ := strings.Cut(line, " ")
	switch name {
	case "/confirm", "/reject", "/edit":
	default:
		return fmt.Errorf("unknown command %s", name)
	}
	pending, ok := c.sess.Thread().LatestActionable()
	if !ok {
		return errors.New("there is no pending change")
	}

	switch name {
	case "/confirm":
		_, err := c.app.executor.Confirm(ctx, c.sess, pending.ID)
		return err
	case "/reject":
		if _, err := c.app.executor.Reject(ctx, c.sess, pending.ID); err != nil {
			return err
		}
		fmt.Fprintln(c.out, "Discarded.")
		return nil
	}

	changes, err := parseChanges(rest)
	if err != nil {
		return err
	}
	res, err := c.app.executor.Edit(ctx, c.sess, pending.ID, changes)
	if err != nil {
		return err
	}
	if res.Reason != "" {
		fmt.Fprintf(c.out, "Edit refused: %s\n", res.Reason)
		return nil
	}
	fmt.Fprintln(c.out, actions.Summarize(res.Changes))
	return nil
}

// flush prints the messages appended since the last call.
func (c *chat) flush() {
	msgs := c.sess.Thread().Messages()
	for _, m := range msgs[min(c.seen, len(msgs)):] {
		printMessage(c.out, m)
	}
	c.seen = len(msgs)
}

func (c *chat) save(ctx context.Context) error {
	if c.app.transcripts == nil {
		return nil
	}
	return c.app.transcripts.Save(ctx, transcript.Capture(c.sess))
}

func printMessage(w io.Writer, m thread.Message) {
	switch m.Kind {
	case thread.KindUser:
	case thread.KindToolStep:
		fmt.Fprintf(w, "  · %s\n", m.Label)
	case thread.KindAskUser:
		fmt.Fprintf(w, "? %s\n", m.Question)
	case thread.KindAction:
		fmt.Fprintf(w, "Proposed: %s\n  /confirm, /reject, or /edit key=value\n", actions.Describe(m.Pending()))
	default:
		fmt.Fprintln(w, m.Text)
	}
}

var changeKey = regexp.MustCompile(`(?:^|\s)([A-Za-z_][A-Za-z0-9_]*)=`)

// parseChanges reads key=value pairs. A value runs until the next key, so it
// may contain spaces. Values that parse as JSON keep their JSON type;
// anything else is a string. An empty value clears the field.
func parseChanges(s string) (actions.Fields, error) {
	locs := changeKey.FindAllStringSubmatchIndex(s, -1)
	if len(locs) == 0 {
		return nil, errors.New("usage: /edit key=value...")
	}
	if lead := strings.TrimSpace(s[:locs[0][0]]); lead != "" {
		return nil, fmt.Errorf("bad change %q, want key=value", lead)
	}

	changes := make(actions.Fields, len(locs))
	for i, loc := range locs {
		key := s[loc[2]:loc[3]]
		end := len(s)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		raw := strings.TrimSpace(s[loc[1]:end])
		if raw == "" {
			changes[key] = nil
			continue
		}
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			v = raw
		}
		changes[key] = v
	}
	return changes, nil
}
