package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mmotors/backoffice/internal/model"
)

const historyKeyPrefix = "chat:history:"

// HistoryCache keeps session transcripts in Redis, keyed by session token.
// Entries expire on TTL and are invalidated explicitly whenever a turn writes
// new messages, so readers never see a stale transcript for long.
type HistoryCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewHistoryCache(client *redis.Client, ttl time.Duration) *HistoryCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &HistoryCache{client: client, ttl: ttl}
}

func historyKey(token string) string {
	return historyKeyPrefix + token
}

// GetMessages returns the cached transcript and whether the key was present.
func (c *HistoryCache) GetMessages(ctx context.Context, token string) ([]model.ChatMessage, bool, error) {
	raw, err := c.client.Get(ctx, historyKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get cached history failed: %w", err)
	}

	var messages []model.ChatMessage
	if err := json.Unmarshal(raw, &messages); err != nil {
		return nil, false, fmt.Errorf("decode cached history failed: %w", err)
	}
	return messages, true, nil
}

func (c *HistoryCache) SetMessages(ctx context.Context, token string, messages []model.ChatMessage) error {
	raw, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("encode history failed: %w", err)
	}
	if err := c.client.Set(ctx, historyKey(token), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache history failed: %w", err)
	}
	return nil
}

func (c *HistoryCache) Invalidate(ctx context.Context, token string) error {
	if err := c.client.Del(ctx, historyKey(token)).Err(); err != nil {
		return fmt.Errorf("invalidate history failed: %w", err)
	}
	return nil
}
