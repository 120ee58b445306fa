package menu

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"platform-service/pkg/logger"
)

// Cache holds merged navigation forests per (tenant, role-set) in redis.
// Stale reads during invalidation are acceptable; every cache failure
// degrades to a database read.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache creates a navigation cache. A nil client disables caching.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Cache{client: client, ttl: ttl}
}

// cacheKeySuffix derives the role-set part of the cache key. Users sharing
// a permission set share the entry; admins share one entry per tenant.
func cacheKeySuffix(isAdmin bool, granted map[string]bool) string {
	if isAdmin {
		return "admin"
	}
	codes := make([]string, 0, len(granted))
	for code := range granted {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	sum := sha256.Sum256([]byte(fmt.Sprint(codes)))
	return hex.EncodeToString(sum[:8])
}

func (c *Cache) key(tenantID uint, suffix string) string {
	return fmt.Sprintf("menu:%d:%s", tenantID, suffix)
}

// Get returns the cached forest, if present.
func (c *Cache) Get(ctx context.Context, tenantID uint, suffix string) ([]*NavNode, bool) {
	raw, err := c.client.Get(ctx, c.key(tenantID, suffix)).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.FromContext(ctx).Warn("Menu cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var forest []*NavNode
	if err := json.Unmarshal(raw, &forest); err != nil {
		return nil, false
	}
	return forest, true
}

// Set stores the forest under the tenant and role-set key.
func (c *Cache) Set(ctx context.Context, tenantID uint, suffix string, forest []*NavNode) {
	raw, err := json.Marshal(forest)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, c.key(tenantID, suffix), raw, c.ttl).Err(); err != nil {
		logger.FromContext(ctx).Warn("Menu cache write failed", zap.Error(err))
	}
}

// InvalidateTenant drops every cached forest of the tenant. Triggered on
// application enable/disable, manifest reload, and menu or role edits.
func (c *Cache) InvalidateTenant(ctx context.Context, tenantID uint) {
	pattern := fmt.Sprintf("menu:%d:*", tenantID)
	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		logger.FromContext(ctx).Warn("Menu cache scan failed", zap.Error(err))
		return
	}
	if len(keys) > 0 {
		if err := c.client.Del(ctx, keys...).Err(); err != nil {
			logger.FromContext(ctx).Warn("Menu cache invalidation failed", zap.Error(err))
		}
	}
}
