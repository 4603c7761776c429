package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/example/ec-store/internal/domain/category"
	"github.com/redis/go-redis/v9"
)

// descendantsKey holds one hash field per category id, so a single DEL drops
// every cached subtree when the tree changes.
const descendantsKey = "category:descendants"

// DescendantCache caches category subtree ids in Redis.
type DescendantCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func NewDescendantCache(client *redis.Client) *DescendantCache {
	return &DescendantCache{
		client:  client,
		baseTTL: 15 * time.Minute,
	}
}

func (c *DescendantCache) GetDescendants(ctx context.Context, id string) ([]string, error) {
	data, err := c.client.HGet(ctx, descendantsKey, id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, category.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis hget failed: %w", err)
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("unmarshal descendants failed: %w", err)
	}
	return ids, nil
}

func (c *DescendantCache) SetDescendants(ctx context.Context, id string, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("marshal descendants failed: %w", err)
	}

	jitter := time.Duration(rand.Intn(5)) * time.Minute
	ttl := c.baseTTL + jitter
	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, descendantsKey, id, data)
		pipe.Expire(ctx, descendantsKey, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis hset failed: %w", err)
	}
	return nil
}

func (c *DescendantCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, descendantsKey).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}
