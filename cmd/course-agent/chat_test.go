package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/tailored-agentic-units/course-agent/actions"
	"github.com/tailored-agentic-units/course-agent/store/sqlite"
)

func TestParseChanges(t *testing.T) {
	tests := []struct {
		in   string
		want actions.Fields
	}{
		{`title=Week Two`, actions.Fields{"title": "Week Two"}},
		{`points=25 published=true`, actions.Fields{"points": 25.0, "published": true}},
		{`title="Quoted = sign" dueDate=2025-03-10T23:59`, actions.Fields{"title": "Quoted = sign", "dueDate": "2025-03-10T23:59"}},
		{`url=https://example.edu/?a=b`, actions.Fields{"url": "https://example.edu/?a=b"}},
		{`description=`, actions.Fields{"description": nil}},
	}
	for _, tt := range tests {
		got, err := parseChanges(tt.in)
		if err != nil {
			t.Errorf("parseChanges(%q) failed: %v", tt.in, err)
			continue
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("parseChanges(%q) mismatch (-want +got):\n%s", tt.in, diff)
		}
	}

	for _, bad := range []string{"", "title", "junk title=x"} {
		if _, err := parseChanges(bad); err == nil {
			t.Errorf("parseChanges(%q) accepted", bad)
		}
	}
}

func TestChat(t *testing.T) {
	logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	loaded, err := LoadConfig("testdata/config.yaml", env(map[string]string{
		"COURSE_AGENT_DB": filepath.Join(t.TempDir(), "course.db"),
	}))
	if err != nil {
		t.Fatal(err)
	}
	cfg = loaded

	a, err := newApp(cfg)
	if err != nil {
		t.Fatalf("newApp failed: %v", err)
	}
	defer a.Close()

	ctx := context.Background()
	data, err := sqlite.ReadSeed("testdata/course.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if err := a.store.Seed(ctx, data); err != nil {
		t.Fatal(err)
	}

	chatCourse, chatUser = "bio101-s25", "u-teach"
	t.Cleanup(func() { chatCourse, chatUser = "", "" })
	sess, err := openChat(ctx, a)
	if err != nil {
		t.Fatalf("openChat failed: %v", err)
	}

	var out bytes.Buffer
	c := &chat{app: a, sess: sess, out: &out}
	input := "add a week 2 module\n/edit name=Week Two\n/frobnicate\n/confirm\n/reject\n/quit\n"
	if err := c.loop(ctx, strings.NewReader(input)); err != nil {
		t.Fatalf("loop failed: %v", err)
	}

	got := out.String()
	for _, want := range []string{
		`Proposed: Create module "Week 2"`,
		`"Week 2" → "Week Two"`,
		"unknown command /frobnicate",
		`Done: Create module "Week Two".`,
		"there is no pending change",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}

	snap, err := a.store.Load(ctx, "bio101-s25")
	if err != nil {
		t.Fatal(err)
	}
	if mods := snap.Modules(); len(mods) != 2 || mods[1].Name != "Week Two" {
		t.Errorf("got modules %+v, want Week Two saved", mods)
	}
	if notices, _ := a.store.Notices(ctx, "bio101-s25", 0); len(notices) != 2 {
		t.Errorf("got %d notices, want edited and confirmed", len(notices))
	}
}
