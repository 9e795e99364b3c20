package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/go-redis/redis/v8"
	"github.com/spf13/cobra"

	"github.com/tailored-agentic-units/course-agent/notify"
	"github.com/tailored-agentic-units/course-agent/store/sqlite"
)

var (
	watchCourse string
	auditLimit  int
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print action notices as they are published",
	Long: `Subscribes to the redis notice channel and prints every confirmed,
rejected, edited, or failed action until interrupted. Needs notify.redis_addr
or COURSE_AGENT_REDIS_ADDR.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "List the recorded action notices of a course",
	Args:  cobra.NoArgs,
	RunE:  runAudit,
}

func init() {
	watchCmd.Flags().StringVar(&watchCourse, "course", "", "only print notices for this course id")
	auditCmd.Flags().StringVar(&watchCourse, "course", "", "course id (required)")
	auditCmd.Flags().IntVarP(&auditLimit, "limit", "n", 20, "newest notices to list; 0 for all")
	_ = auditCmd.MarkFlagRequired("course")
}

func runWatch(cmd *cobra.Command, args []string) error {
	if cfg.Notify.RedisAddr == "" {
		return errors.New("no redis address configured")
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.Notify.RedisAddr})
	defer client.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	out := cmd.OutOrStdout()
	return notify.Subscribe(ctx, client, cfg.Notify.Channel, func(n notify.Notice) {
		if watchCourse != "" && n.CourseID != watchCourse {
			return
		}
		printNotice(out, n)
	})
}

func runAudit(cmd *cobra.Command, args []string) error {
	store, err := sqlite.Open(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	notices, err := store.Notices(cmd.Context(), watchCourse, auditLimit)
	if err != nil {
		return err
	}
	for _, n := range notices {
		printNotice(cmd.OutOrStdout(), n)
	}
	return nil
}

func printNotice(w io.Writer, n notify.Notice) {
	fmt.Fprintf(w, "%s  %-9s %-22s course=%s user=%s session=%s\n",
		n.Timestamp.Local().Format("2006-01-02 15:04:05"), n.Result, n.Action, n.CourseID, n.UserID, n.SessionID)
	for _, a := range n.Applied {
		fmt.Fprintf(w, "    applied %s %s %q\n", a.Action, a.ID, a.Label)
	}
	if n.FailedStep > 0 {
		fmt.Fprintf(w, "    failed at step %d\n", n.FailedStep)
	}
	if n.Summary != "" {
		for _, line := range strings.Split(n.Summary, "\n") {
			fmt.Fprintf(w, "    %s\n", line)
		}
	}
}
