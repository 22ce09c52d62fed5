package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerWindow int           // Number of requests allowed per window
	Window            time.Duration // Time window for rate limiting
	KeyPrefix         string        // Redis key prefix
}

// windowCounter is a fixed-window request counter kept in redis
type windowCounter struct {
	client *redis.Client
	window time.Duration
}

// hit counts one request against key and returns the count so far and the
// time left in the window. A key found without expiry gets a fresh window.
func (c windowCounter) hit(ctx context.Context, key string) (int64, time.Duration, error) {
	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := c.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		ttl = pipe.TTL(ctx, key)
		return nil
	})
	if err != nil {
		return 0, 0, err
	}

	left := ttl.Val()
	if left < 0 {
		if err := c.client.Expire(ctx, key, c.window).Err(); err != nil {
			return 0, 0, err
		}
		left = c.window
	}
	return incr.Val(), left, nil
}

// clientKey identifies the caller: the actor once authenticated, the remote
// address otherwise
func clientKey(r *http.Request) string {
	if actor, ok := GetActor(r.Context()); ok {
		return "actor:" + actor.ID
	}
	return r.RemoteAddr
}

// RateLimitMiddleware limits each client to RequestsPerWindow requests per
// window. Redis failures let the request through.
func RateLimitMiddleware(redisClient *redis.Client, config RateLimitConfig, logger *zap.Logger) func(http.Handler) http.Handler {
	counter := windowCounter{client: redisClient, window: config.Window}
	limit := int64(config.RequestsPerWindow)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client := clientKey(r)
			key := config.KeyPrefix + ":" + client

			count, left, err := counter.hit(r.Context(), key)
			if err != nil {
				logger.Error("Rate limit counter unavailable", zap.Error(err), zap.String("key", key))
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.FormatInt(limit, 10))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(max(limit-count, 0), 10))

			if count > limit {
				logger.Warn("Rate limit exceeded",
					zap.String("client", client),
					zap.Int64("count", count),
					zap.Int64("limit", limit),
				)
				h.Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(left).Unix(), 10))
				h.Set("Retry-After", strconv.Itoa(int(left.Seconds())))
				RespondWithError(w, http.StatusTooManyRequests, CodeRateLimited, "rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
