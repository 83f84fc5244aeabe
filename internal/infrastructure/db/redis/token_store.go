package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// TokenStore implements ports.TokenStore over a single Redis string key.
type TokenStore struct {
	client *redis.Client
	key    string
}

// NewTokenStore wraps client. The store owns the client and closes it.
func NewTokenStore(client *redis.Client, key string) *TokenStore {
	return &TokenStore{client: client, key: key}
}

func (s *TokenStore) Load(ctx context.Context) (string, bool, error) {
	v, err := s.client.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get: %w", err)
	}
	return v, v != "", nil
}

// Save stores token without expiry; the backend decides when it is stale.
func (s *TokenStore) Save(ctx context.Context, token string) error {
	if err := s.client.Set(ctx, s.key, token, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *TokenStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (s *TokenStore) Close() error {
	return s.client.Close()
}

// Ping checks that the Redis server answers.
func (s *TokenStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
