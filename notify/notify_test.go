package notify_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/tailored-agentic-units/course-agent/notify"
)

func TestMulti(t *testing.T) {
	var got []string
	record := func(name string, err error) notify.Publisher {
		return notify.PublisherFunc(func(_ context.Context, n notify.Notice) error {
			got = append(got, name+":"+n.Result)
			return err
		})
	}
	errBoom := errors.New("boom")

	pub := notify.Multi(record("a", nil), nil, record("b", errBoom), record("c", nil))
	err := pub.Publish(context.Background(), notify.Notice{Result: notify.ResultConfirmed})

	if !errors.Is(err, errBoom) {
		t.Errorf("got %v, want the failing publisher's error", err)
	}
	want := []string{"a:confirmed", "b:confirmed", "c:confirmed"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestMulti_Empty(t *testing.T) {
	if err := notify.Multi().Publish(context.Background(), notify.Notice{}); err != nil {
		t.Errorf("got %v, want nil", err)
	}
}

func TestNewPublisher(t *testing.T) {
	cfg := notify.DefaultConfig()
	if notify.NewPublisher(&cfg) != nil {
		t.Error("publisher created without an address")
	}
	cfg.Merge(&notify.Config{RedisAddr: "localhost:6379"})
	if notify.NewPublisher(&cfg) == nil {
		t.Error("no publisher with an address")
	}
	if cfg.Channel != notify.DefaultChannel {
		t.Errorf("got channel %q, want %q", cfg.Channel, notify.DefaultChannel)
	}
}

// TestRedisRoundTrip runs against a live server named by
// COURSE_AGENT_TEST_REDIS.
func TestRedisRoundTrip(t *testing.T) {
	addr := os.Getenv("COURSE_AGENT_TEST_REDIS")
	if addr == "" {
		t.Skip("COURSE_AGENT_TEST_REDIS not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { client.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	channel := "course-agent-test-" + time.Now().Format("150405.000000")

	received := make(chan notify.Notice, 1)
	done := make(chan error, 1)
	go func() {
		done <- notify.Subscribe(ctx, client, channel, func(n notify.Notice) {
			received <- n
			cancel()
		})
	}()

	pub := notify.NewRedisPublisher(client, channel)
	deadline := time.After(4 * time.Second)
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case n := <-received:
			if n.MessageID != "m1" || n.Result != notify.ResultConfirmed {
				t.Errorf("got %+v, want m1 confirmed", n)
			}
			if err := <-done; err != nil {
				t.Errorf("Subscribe() error = %v", err)
			}
			return
		case <-tick.C:
			_ = pub.Publish(ctx, notify.Notice{MessageID: "m1", Result: notify.ResultConfirmed})
		case <-deadline:
			t.Fatal("no notice received")
		}
	}
}
