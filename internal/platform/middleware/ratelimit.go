// Copyright (c) 2026 Aegis. All rights reserved.
// Author: dang.leminh.dev@gmail.com

package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/minhdang/aegis/internal/platform/apperr"
	"github.com/minhdang/aegis/internal/platform/constants"
	"github.com/minhdang/aegis/internal/platform/ctxutil"
	"github.com/minhdang/aegis/internal/platform/respond"
)

// # Distributed Rate Limiting

// slidingWindowScript implements the sliding window log algorithm over a
// sorted set. Trimming, counting, and admission run as ONE atomic script so
// that concurrent requests on different instances cannot both sneak under
// the limit.
//
// KEYS[1] = rl:<client>:<route>
// ARGV[1] = now (unix ms), ARGV[2] = window (ms), ARGV[3] = limit, ARGV[4] = member
//
// Returns {allowed(0|1), count, retry_after_ms}.
const slidingWindowScript = `
local key       = KEYS[1]
local now_ms    = tonumber(ARGV[1])
local window_ms = tonumber(ARGV[2])
local limit     = tonumber(ARGV[3])
local member    = ARGV[4]

redis.call('ZREMRANGEBYSCORE', key, 0, now_ms - window_ms)
local count = redis.call('ZCARD', key)

if count < limit then
  redis.call('ZADD', key, now_ms, member)
  redis.call('PEXPIRE', key, window_ms)
  return {1, count + 1, 0}
end

local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
local retry_ms = 0
if oldest[2] then
  retry_ms = math.ceil(tonumber(oldest[2]) + window_ms - now_ms)
end
return {0, count, retry_ms}
`

// RateLimitConfig carries the tunables for [RateLimit].
type RateLimitConfig struct {
	// Enabled disables the middleware entirely when false.
	Enabled bool
	// Requests is the number of requests admitted per window.
	Requests int
	// Window is the span of the sliding window.
	Window time.Duration
}

// rateLimitExemptPaths are probe endpoints that must stay reachable even for
// clients that exhausted their budget.
var rateLimitExemptPaths = map[string]bool{
	"/health": true,
	"/ready":  true,
}

// RateLimit limits requests per client and route using a sliding window log
// stored in Redis, shared across all running instances.
//
// # Flow
//  1. Build the window key rl:<client_ip>:<route>.
//  2. Execute [slidingWindowScript] as a single atomic operation.
//  3. On rejection, answer 429 with Retry-After and X-RateLimit-* headers.
//  4. On Redis failure, admit the request (fail-open) and log the outage;
//     throttling is a protection layer, not an availability dependency.
func RateLimit(client *redis.Client, cfg RateLimitConfig) func(http.Handler) http.Handler {
	script := redis.NewScript(slidingWindowScript)
	limitValue := strconv.Itoa(cfg.Requests)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if !cfg.Enabled || rateLimitExemptPaths[request.URL.Path] {
				next.ServeHTTP(writer, request)
				return
			}

			// Prefer the matched route pattern so /roles/{roleID} shares one
			// window across all role IDs. Falls back to the raw path when the
			// limiter runs before routing.
			routeKey := request.URL.Path
			if routeCtx := chi.RouteContext(request.Context()); routeCtx != nil {
				if pattern := routeCtx.RoutePattern(); pattern != "" {
					routeKey = pattern
				}
			}

			now := time.Now()
			windowKey := constants.RedisPrefixRateLimit + RealIP(request) + ":" + routeKey

			result, err := script.Run(request.Context(), client,
				[]string{windowKey},
				now.UnixMilli(),
				cfg.Window.Milliseconds(),
				cfg.Requests,
				uuid.New().String(),
			).Slice()

			if err != nil || len(result) != 3 {
				// Redis outage: admit the request so cache downtime never
				// becomes an API outage, but leave a loud trace.
				ctxutil.GetLogger(request.Context()).WarnContext(request.Context(),
					"rate_limit_degraded",
					slog.String("key", windowKey),
					slog.Any("error", err),
				)
				next.ServeHTTP(writer, request)
				return
			}

			allowed, _ := result[0].(int64)
			count, _ := result[1].(int64)
			retryAfterMs, _ := result[2].(int64)

			remaining := int64(cfg.Requests) - count
			if remaining < 0 {
				remaining = 0
			}

			header := writer.Header()
			header.Set(constants.HeaderRateLimitLimit, limitValue)
			header.Set(constants.HeaderRateLimitRemaining, strconv.FormatInt(remaining, 10))
			header.Set(constants.HeaderRateLimitReset, strconv.FormatInt(now.Add(cfg.Window).Unix(), 10))

			if allowed != 1 {
				retryAfterSeconds := int((retryAfterMs + 999) / 1000)
				if retryAfterSeconds < 1 {
					retryAfterSeconds = 1
				}
				header.Set(constants.HeaderRetryAfter, strconv.Itoa(retryAfterSeconds))

				ctxutil.GetLogger(request.Context()).WarnContext(request.Context(),
					"rate_limit_exceeded",
					slog.String("key", windowKey),
					slog.Int64("count", count),
				)

				respond.Error(writer, request, apperr.RateLimited(retryAfterSeconds))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}
