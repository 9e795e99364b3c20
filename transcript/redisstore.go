package transcript

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

// DefaultRedisPrefix namespaces transcript keys.
const DefaultRedisPrefix = "course-agent:transcript:"

type redisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a Store that keeps each record as a JSON string under
// prefix+sessionID. A positive ttl expires records that are not saved again
// within it.
func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration) Store {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &redisStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *redisStore) List(ctx context.Context) ([]string, error) {
	var ids []string
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		ids = append(ids, strings.TrimPrefix(iter.Val(), s.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}
	slices.Sort(ids)
	return slices.Compact(ids), nil
}

func (s *redisStore) Load(ctx context.Context, id string) (Record, error) {
	if id == "" {
		return Record{}, fmt.Errorf("%w: %q", ErrInvalidKey, id)
	}
	data, err := s.client.Get(ctx, s.prefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Record{}, fmt.Errorf("%w: %s", ErrKeyNotFound, id)
		}
		return Record{}, fmt.Errorf("%w: %s: %v", ErrLoadFailed, id, err)
	}

	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return Record{}, fmt.Errorf("%w: %s: %v", ErrLoadFailed, id, err)
	}
	return r, nil
}

func (s *redisStore) Save(ctx context.Context, r Record) error {
	if r.SessionID == "" {
		return fmt.Errorf("%w: %q", ErrInvalidKey, r.SessionID)
	}
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, r.SessionID, err)
	}
	if err := s.client.Set(ctx, s.prefix+r.SessionID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, r.SessionID, err)
	}
	return nil
}

func (s *redisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.prefix+id).Err(); err != nil {
		return fmt.Errorf("delete failed: %s: %w", id, err)
	}
	return nil
}
