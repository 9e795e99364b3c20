package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// DefaultChannel is the pub/sub channel notices are published on.
const DefaultChannel = "course_agent_notices"

// RedisPublisher publishes notices as JSON on a redis pub/sub channel.
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

// NewRedisPublisher creates a publisher on channel, or DefaultChannel when
// channel is empty.
func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisPublisher{client: client, channel: channel}
}

func (p *RedisPublisher) Publish(ctx context.Context, n Notice) error {
	b, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notice: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, string(b)).Err(); err != nil {
		return fmt.Errorf("publish notice: %w", err)
	}
	return nil
}

// Subscribe calls handle for every notice published on channel until ctx
// ends. Payloads that are not notices are skipped.
func Subscribe(ctx context.Context, client *redis.Client, channel string, handle func(Notice)) error {
	if channel == "" {
		channel = DefaultChannel
	}
	sub := client.Subscribe(ctx, channel)
	defer func() { _ = sub.Close() }()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", channel, err)
	}

	msgs := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			var n Notice
			if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
				continue
			}
			handle(n)
		}
	}
}
