package tracking

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultStarsKey = "learn:stars"
	redisTimeout    = 3 * time.Second
)

// RedisStarStore keeps starred IDs in a Redis set.
type RedisStarStore struct {
	client *redis.Client
	key    string
}

// NewRedisStarStore creates a star store backed by the set at key.
func NewRedisStarStore(client *redis.Client, key string) (*RedisStarStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	if key == "" {
		key = defaultStarsKey
	}
	return &RedisStarStore{client: client, key: key}, nil
}

// IsStarred reports set membership. Lookup failures are logged and read as
// not starred.
func (s *RedisStarStore) IsStarred(id string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	ok, err := s.client.SIsMember(ctx, s.key, id).Result()
	if err != nil {
		slog.Warn("star lookup failed", "id", id, "error", err)
		return false
	}
	return ok
}

func (s *RedisStarStore) Star(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	if err := s.client.SAdd(ctx, s.key, id).Err(); err != nil {
		return fmt.Errorf("star %s: %w", id, err)
	}
	return nil
}

func (s *RedisStarStore) Unstar(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	if err := s.client.SRem(ctx, s.key, id).Err(); err != nil {
		return fmt.Errorf("unstar %s: %w", id, err)
	}
	return nil
}

// AllStarred returns the set members in sorted order.
func (s *RedisStarStore) AllStarred() []string {
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	ids, err := s.client.SMembers(ctx, s.key).Result()
	if err != nil {
		slog.Warn("list stars failed", "error", err)
		return []string{}
	}
	slices.Sort(ids)
	return ids
}
