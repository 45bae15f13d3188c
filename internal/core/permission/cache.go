// Copyright (c) 2026 Aegis. All rights reserved.
// Author: dang.leminh.dev@gmail.com

package permission

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/minhdang/aegis/internal/platform/constants"
)

// # Invalidation Protocol

// Invalidation message types published on the shared channel.
const (
	invalidateUserType = "user_permissions_invalidate"
	invalidateRoleType = "role_invalidate"
)

// invalidationMessage is the wire format fanned out on
// [constants.RedisChannelCacheInvalidate]. Delivery is at-least-once from the
// subscriber's point of view, so handling must stay idempotent.
type invalidationMessage struct {
	Type     string `json:"type"`
	TenantID string `json:"tenant_id"`
	UserID   string `json:"user_id,omitempty"`
	RoleID   string `json:"role_id,omitempty"`
}

// # Two-Tier Cache

// Cache stores resolved permission sets in two tiers: a per-instance map for
// zero-latency hits and a shared Redis tier that survives process restarts.
//
// Entries carry NO TTL. Correctness depends entirely on explicit invalidation
// after every grant mutation; the local tier is additionally purged whenever
// the invalidation subscription (re)connects, because messages missed while
// disconnected can never be replayed.
type Cache struct {
	client *redis.Client

	mu    sync.RWMutex
	local map[string]*Set
}

// NewCache constructs a [Cache] on top of the shared Redis client.
func NewCache(client *redis.Client) *Cache {
	return &Cache{
		client: client,
		local:  make(map[string]*Set),
	}
}

// Key builds the shared cache key for one user's permissions in one tenant.
// The tenant ID leads so that entries are never shared across tenants.
func Key(tenantID, userID string) string {
	return tenantID + constants.RedisSegmentUserPermissions + userID
}

/*
Get looks up a cached permission set, local tier first.

Parameters:
  - context: context.Context
  - tenantID: string
  - userID: string

Returns:
  - *Set: The cached set, or nil on a clean miss
  - error: Redis connectivity failures (callers degrade to direct resolution)
*/
func (cache *Cache) Get(context context.Context, tenantID, userID string) (*Set, error) {
	key := Key(tenantID, userID)

	// Tier 1: in-process map
	cache.mu.RLock()
	cached, ok := cache.local[key]
	cache.mu.RUnlock()
	if ok {
		return cached, nil
	}

	// Tier 2: shared Redis
	payload, err := cache.client.Get(context, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("permission_cache_get_failed: %w", err)
	}

	set := &Set{}
	if err := json.Unmarshal([]byte(payload), set); err != nil {
		// A corrupt entry behaves like a miss; the resolver will rewrite it.
		return nil, nil
	}

	cache.storeLocal(key, set)
	return set, nil
}

/*
Put writes a resolved permission set to both tiers.

Description: The shared tier uses a plain last-write-wins SET; the local tier
compares versions so a slow resolution can never clobber a fresher one.

Parameters:
  - context: context.Context
  - tenantID: string
  - userID: string
  - set: *Set

Returns:
  - error: Redis connectivity failures (callers log and continue)
*/
func (cache *Cache) Put(context context.Context, tenantID, userID string, set *Set) error {
	key := Key(tenantID, userID)

	payload, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("permission_cache_marshal_failed: %w", err)
	}

	if err := cache.client.Set(context, key, payload, 0).Err(); err != nil {
		return fmt.Errorf("permission_cache_put_failed: %w", err)
	}

	cache.storeLocal(key, set)
	return nil
}

/*
InvalidateUser drops one user's cached set in one tenant, everywhere.

Description: Deletes the shared entry, evicts the local tier, and publishes a
user_permissions_invalidate message so every other instance evicts too.

Parameters:
  - context: context.Context
  - tenantID: string
  - userID: string

Returns:
  - error: Redis failures; the grant change is then NOT fully propagated
*/
func (cache *Cache) InvalidateUser(context context.Context, tenantID, userID string) error {
	key := Key(tenantID, userID)

	if err := cache.client.Del(context, key).Err(); err != nil {
		return fmt.Errorf("permission_cache_invalidate_user_failed: %w", err)
	}
	cache.evictLocal(key)

	return cache.publish(context, invalidationMessage{
		Type:     invalidateUserType,
		TenantID: tenantID,
		UserID:   userID,
	})
}

/*
InvalidateRole drops every cached set in a tenant after a role-level change.

Description: A role edit can affect any number of users, so the whole
<tenant>:user_permissions:* keyspace is swept (SCAN, never KEYS) and a
role_invalidate message is published for the local tiers of other instances.

Parameters:
  - context: context.Context
  - tenantID: string
  - roleID: string

Returns:
  - error: Redis failures; the grant change is then NOT fully propagated
*/
func (cache *Cache) InvalidateRole(context context.Context, tenantID, roleID string) error {
	pattern := tenantID + constants.RedisSegmentUserPermissions + "*"

	var cursor uint64
	for {
		keys, next, err := cache.client.Scan(context, cursor, pattern, 100).Result()
		if err != nil {
			return fmt.Errorf("permission_cache_invalidate_role_scan_failed: %w", err)
		}
		if len(keys) > 0 {
			if err := cache.client.Del(context, keys...).Err(); err != nil {
				return fmt.Errorf("permission_cache_invalidate_role_del_failed: %w", err)
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}

	cache.evictLocalTenant(tenantID)

	return cache.publish(context, invalidationMessage{
		Type:     invalidateRoleType,
		TenantID: tenantID,
		RoleID:   roleID,
	})
}

// publish fans an invalidation message out to all subscribed instances.
func (cache *Cache) publish(context context.Context, message invalidationMessage) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("permission_cache_marshal_message_failed: %w", err)
	}
	if err := cache.client.Publish(context, constants.RedisChannelCacheInvalidate, payload).Err(); err != nil {
		return fmt.Errorf("permission_cache_publish_failed: %w", err)
	}
	return nil
}

// # Invalidation Listener

/*
Listen consumes invalidation messages until the context is cancelled.

Description: Runs as a long-lived goroutine per instance. After every
successful (re)subscription the local tier is purged wholesale; anything
missed during a disconnect would otherwise be served stale forever, since
entries carry no TTL.

Parameters:
  - context: context.Context (cancellation stops the loop)
  - logger: *slog.Logger
*/
func (cache *Cache) Listen(context context.Context, logger *slog.Logger) {
	for {
		if err := cache.consume(context, logger); err != nil {
			logger.Warn("permission_cache_subscription_lost", slog.Any("error", err))
		}

		select {
		case <-context.Done():
			return
		case <-time.After(time.Second):
			// Backoff before resubscribing.
		}
	}
}

// consume holds one subscription until it fails or the context ends.
func (cache *Cache) consume(context context.Context, logger *slog.Logger) error {
	pubsub := cache.client.Subscribe(context, constants.RedisChannelCacheInvalidate)
	defer pubsub.Close()

	// Confirm the subscription is live before trusting the local tier again.
	if _, err := pubsub.Receive(context); err != nil {
		return fmt.Errorf("permission_cache_subscribe_failed: %w", err)
	}
	cache.purgeLocal()
	logger.Info("permission_cache_listener_started",
		slog.String("channel", constants.RedisChannelCacheInvalidate),
	)

	for {
		select {
		case <-context.Done():
			return nil
		case message, ok := <-pubsub.Channel():
			if !ok {
				return errors.New("permission_cache_channel_closed")
			}
			cache.apply(message.Payload, logger)
		}
	}
}

// apply reacts to a single invalidation payload. Unknown or duplicate
// messages are safe to ignore or re-apply.
func (cache *Cache) apply(payload string, logger *slog.Logger) {
	var message invalidationMessage
	if err := json.Unmarshal([]byte(payload), &message); err != nil {
		logger.Warn("permission_cache_bad_message", slog.String("payload", payload))
		return
	}

	switch message.Type {
	case invalidateUserType:
		cache.evictLocal(Key(message.TenantID, message.UserID))
	case invalidateRoleType:
		cache.evictLocalTenant(message.TenantID)
	default:
		logger.Debug("permission_cache_unknown_message", slog.String("type", message.Type))
	}
}

// # Local Tier Maintenance

func (cache *Cache) storeLocal(key string, set *Set) {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	if existing, ok := cache.local[key]; ok && existing.Version > set.Version {
		return
	}
	cache.local[key] = set
}

func (cache *Cache) evictLocal(key string) {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	delete(cache.local, key)
}

func (cache *Cache) evictLocalTenant(tenantID string) {
	prefix := tenantID + constants.RedisSegmentUserPermissions

	cache.mu.Lock()
	defer cache.mu.Unlock()
	for key := range cache.local {
		if strings.HasPrefix(key, prefix) {
			delete(cache.local, key)
		}
	}
}

func (cache *Cache) purgeLocal() {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	cache.local = make(map[string]*Set)
}
