// Copyright (c) 2026 Aegis. All rights reserved.
// Author: dang.leminh.dev@gmail.com

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/minhdang/aegis/internal/platform/constants"
)

// # Revoked Session Denylist

// RedisRevokedSessionRepository implements RevokedSessionRepository using Redis.
//
// Entries expire on their own after one access-token lifetime, at which point
// every access token minted for the session has expired anyway and the
// denylist entry has nothing left to block.
type RedisRevokedSessionRepository struct {
	client *redis.Client
}

// NewRevokedSessionRepository creates a new Redis-backed RevokedSessionRepository.
func NewRevokedSessionRepository(client *redis.Client) *RedisRevokedSessionRepository {
	return &RedisRevokedSessionRepository{client: client}
}

/*
MarkRevoked adds the given session IDs to the denylist.

Description: Pipelined so a family-wide revocation lands in one round trip.

Parameters:
  - context: context.Context
  - sessionIDs: []string
  - ttl: time.Duration

Returns:
  - error: Execution errors
*/
func (repository *RedisRevokedSessionRepository) MarkRevoked(context context.Context, sessionIDs []string, ttl time.Duration) error {
	if len(sessionIDs) == 0 {
		return nil
	}

	// Queue one SET per session and flush in a single round trip
	pipeline := repository.client.Pipeline()
	for _, sessionID := range sessionIDs {
		key := fmt.Sprintf("%s%s", constants.RedisPrefixRevokedSession, sessionID)
		pipeline.Set(context, key, "1", ttl)
	}

	if _, err := pipeline.Exec(context); err != nil {
		return fmt.Errorf("redis_revoked_session_set_failed: %w", err)
	}

	return nil
}

/*
IsSessionRevoked reports whether a session ID is on the denylist.

Parameters:
  - context: context.Context
  - sessionID: string

Returns:
  - bool: Whether the session has been revoked
  - error: Connectivity errors
*/
func (repository *RedisRevokedSessionRepository) IsSessionRevoked(context context.Context, sessionID string) (bool, error) {

	// Use constants for key prefix
	key := fmt.Sprintf("%s%s", constants.RedisPrefixRevokedSession, sessionID)

	// EXISTS returns the count of matching keys
	count, err := repository.client.Exists(context, key).Result()
	if err != nil {
		return false, fmt.Errorf("redis_revoked_session_check_failed: %w", err)
	}

	return count > 0, nil
}
