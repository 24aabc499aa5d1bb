// Package session owns the Principal lifecycle: credential exchange,
// optimistic restore from the cache, and explicit teardown.
package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/wallet-access/internal/domain"
)

const principalKeyPrefix = "principal:"

// PrincipalCache mirrors the authenticated principal in Redis. It is
// a cache, not an authority: trust-sensitive operations re-fetch the
// user row instead.
type PrincipalCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewPrincipalCache builds the cache with the given entry TTL.
func NewPrincipalCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *PrincipalCache {
	return &PrincipalCache{client: client, ttl: ttl, logger: logger}
}

// Put stores the principal under its fixed per-user key.
func (c *PrincipalCache) Put(ctx context.Context, principal *domain.Principal) {
	if c == nil || c.client == nil {
		return
	}
	raw, err := json.Marshal(principal)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, principalKeyPrefix+principal.UserID, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("principal cache write failed", zap.String("user_id", principal.UserID), zap.Error(err))
	}
}

// Get returns the cached principal, if present.
func (c *PrincipalCache) Get(ctx context.Context, userID string) (*domain.Principal, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, principalKeyPrefix+userID).Bytes()
	if err != nil {
		return nil, false
	}
	var principal domain.Principal
	if err := json.Unmarshal(raw, &principal); err != nil {
		c.logger.Warn("corrupt principal cache entry", zap.String("user_id", userID), zap.Error(err))
		return nil, false
	}
	return &principal, true
}

// Delete drops the cached principal.
func (c *PrincipalCache) Delete(ctx context.Context, userID string) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, principalKeyPrefix+userID).Err(); err != nil {
		c.logger.Warn("principal cache delete failed", zap.String("user_id", userID), zap.Error(err))
	}
}
