// Package redis provides the time-windowed consumed-nonce cache.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// NonceStore implements store.NonceRepository on Redis. Pairs expire after
// the configured window; a nonce older than the window can be granted
// again, which bounds memory while still blocking immediate replay.
type NonceStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewNonceStore(url string, ttl time.Duration) (*NonceStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &NonceStore{client: client, ttl: ttl}, nil
}

func (s *NonceStore) Close() error {
	return s.client.Close()
}

func nonceKey(sender, nonce string) string {
	return fmt.Sprintf("oracle:nonce:%s:%s", sender, nonce)
}

// Consume marks the pair as used via SET NX, which is atomic in Redis:
// exactly one of two racing callers observes the insert.
func (s *NonceStore) Consume(ctx context.Context, sender, nonce string) (bool, error) {
	ok, err := s.client.SetNX(ctx, nonceKey(sender, nonce), 1, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("setnx nonce: %w", err)
	}
	return ok, nil
}
