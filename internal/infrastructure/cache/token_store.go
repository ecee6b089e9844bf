package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const AccessTokenKeyPrefix = "access_token:"

// RedisTokenStore tracks issued access tokens so they can be revoked before they expire
type RedisTokenStore struct {
	client *redis.Client
}

func NewRedisTokenStore(client *redis.Client) *RedisTokenStore {
	return &RedisTokenStore{client: client}
}

func accessTokenKey(userID uuid.UUID, tokenID string) string {
	return fmt.Sprintf("%s%s:%s", AccessTokenKeyPrefix, userID.String(), tokenID)
}

func (s *RedisTokenStore) Save(ctx context.Context, userID uuid.UUID, tokenID string, ttl time.Duration) error {
	if err := s.client.Set(ctx, accessTokenKey(userID, tokenID), "valid", ttl).Err(); err != nil {
		return fmt.Errorf("store access token: %w", err)
	}
	return nil
}

func (s *RedisTokenStore) Exists(ctx context.Context, userID uuid.UUID, tokenID string) (bool, error) {
	n, err := s.client.Exists(ctx, accessTokenKey(userID, tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("check access token: %w", err)
	}
	return n > 0, nil
}

func (s *RedisTokenStore) Revoke(ctx context.Context, userID uuid.UUID, tokenID string) error {
	if err := s.client.Del(ctx, accessTokenKey(userID, tokenID)).Err(); err != nil {
		return fmt.Errorf("revoke access token: %w", err)
	}
	return nil
}
