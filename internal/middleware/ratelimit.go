package middleware

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// FailPolicy decides what a limiter does when Redis cannot be reached.
type FailPolicy int

const (
	// FailOpen lets the request through.
	FailOpen FailPolicy = iota
	// FailClosed answers 503. Used for endpoints that talk to the billing provider.
	FailClosed
)

var errNilRedis = errors.New("redis client is nil")

// limiterDisabled is true outside deployed environments so local runs and
// tests are never throttled.
func limiterDisabled() bool {
	switch os.Getenv("APP_ENV") {
	case "", "test", "development", "stress":
		return true
	}
	return false
}

// RateLimitKey is the Redis counter for one caller of one resource.
func RateLimitKey(resource, caller string) string {
	return "rl:" + resource + ":" + caller
}

// CheckRateLimit counts one hit of caller against resource in a fixed window
// and reports whether the hit is within limit.
func CheckRateLimit(ctx context.Context, rdb *redis.Client, resource, caller string, limit int, window time.Duration) (bool, error) {
	allowed, _, err := hitWindow(ctx, rdb, RateLimitKey(resource, caller), limit, window)
	return allowed, err
}

// hitWindow increments key and starts its window on the first hit. The
// returned duration is how long until the window resets.
func hitWindow(ctx context.Context, rdb *redis.Client, key string, limit int, window time.Duration) (bool, time.Duration, error) {
	if limiterDisabled() {
		return true, 0, nil
	}
	if rdb == nil {
		return false, 0, errNilRedis
	}

	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, key)
		p.ExpireNX(ctx, key, window)
		ttl = p.TTL(ctx, key)
		return nil
	})
	if err != nil {
		return false, 0, err
	}
	return incr.Val() <= int64(limit), ttl.Val(), nil
}

// RateLimit allows limit requests per window for each caller, keyed by user
// id once authenticated and by IP otherwise. name overrides the resource,
// which defaults to the request path.
func RateLimit(rdb *redis.Client, limit int, window time.Duration, name ...string) fiber.Handler {
	return RateLimitWithPolicy(rdb, limit, window, FailOpen, name...)
}

// RateLimitWithPolicy is RateLimit with an explicit FailPolicy.
func RateLimitWithPolicy(rdb *redis.Client, limit int, window time.Duration, policy FailPolicy, name ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller := "ip:" + c.IP()
		if uid := c.Locals("userID"); uid != nil {
			caller = fmt.Sprintf("user:%v", uid)
		}
		resource := c.Path()
		if len(name) > 0 {
			resource = name[0]
		}

		allowed, reset, err := hitWindow(c.UserContext(), rdb, RateLimitKey(resource, caller), limit, window)
		switch {
		case err != nil && policy == FailClosed:
			RedisErrors.WithLabelValues("ratelimit").Inc()
			Logger.WarnContext(c.UserContext(), "rate limiter unavailable", "resource", resource, "error", err)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "rate limit unavailable"})
		case err != nil:
			RedisErrors.WithLabelValues("ratelimit").Inc()
			return c.Next()
		case !allowed:
			if reset > 0 {
				c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(reset.Round(time.Second).Seconds())))
			}
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded"})
		}
		return c.Next()
	}
}
