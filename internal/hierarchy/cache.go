package hierarchy

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const scopeKeyPrefix = "scope:"

// ScopeCache keeps per-session visible-identifier sets in Redis and
// implements Cache. A miss or cache failure is silent: the resolver
// just recomputes.
type ScopeCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewScopeCache builds a cache with the given entry TTL.
func NewScopeCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *ScopeCache {
	return &ScopeCache{client: client, ttl: ttl, logger: logger}
}

// Get returns the cached identifier list for a user, if present.
func (c *ScopeCache) Get(ctx context.Context, userID string) ([]string, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, scopeKeyPrefix+userID).Bytes()
	if err != nil {
		return nil, false
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		c.logger.Warn("corrupt scope cache entry", zap.String("user_id", userID), zap.Error(err))
		return nil, false
	}
	return ids, true
}

// Put stores a fully verified identifier list.
func (c *ScopeCache) Put(ctx context.Context, userID string, ids []string) {
	if c == nil || c.client == nil {
		return
	}
	raw, err := json.Marshal(ids)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, scopeKeyPrefix+userID, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("scope cache write failed", zap.String("user_id", userID), zap.Error(err))
	}
}

// Invalidate drops cached sets for the given users.
func (c *ScopeCache) Invalidate(ctx context.Context, userIDs ...string) {
	if c == nil || c.client == nil || len(userIDs) == 0 {
		return
	}
	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = scopeKeyPrefix + id
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("scope cache invalidation failed", zap.Error(err))
	}
}
