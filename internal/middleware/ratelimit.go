package middleware

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// WriteAction names a rate-limited post write. It doubles as the metric label.
type WriteAction string

const (
	ActionCreatePost  WriteAction = "create_post"
	ActionCommentPost WriteAction = "comment_post"
)

// describe is the phrase used in the 429 message.
func (a WriteAction) describe() string {
	switch a {
	case ActionCreatePost:
		return "create a post"
	case ActionCommentPost:
		return "comment"
	default:
		return string(a)
	}
}

// FailPolicy defines the behavior when the rate limit store (Redis) is unavailable.
type FailPolicy int

const (
	// FailOpen allows the request to proceed if Redis is unavailable.
	FailOpen FailPolicy = iota
	// FailClosed blocks the request (503 Service Unavailable) if Redis is unavailable.
	FailClosed
)

var errNoRateLimitStore = errors.New("rate limit store not configured")

// Quota is the outcome of one rate limit check.
type Quota struct {
	Allowed   bool
	Remaining int
	ResetIn   time.Duration
}

// RateLimitExempt reports whether env skips per-user write limits.
func RateLimitExempt(env string) bool {
	switch env {
	case "", "test", "development", "stress":
		return true
	}
	return false
}

// RateLimitKey is the Redis counter for one action and subject ("user:<id>" or "ip:<addr>").
func RateLimitKey(action WriteAction, subject string) string {
	return fmt.Sprintf("posts:rl:%s:%s", action, subject)
}

// CheckRateLimit counts one write against a fixed window of length window.
func CheckRateLimit(ctx context.Context, rdb *redis.Client, action WriteAction, subject string, limit int, window time.Duration) (Quota, error) {
	if RateLimitExempt(os.Getenv("APP_ENV")) {
		return Quota{Allowed: true, Remaining: limit, ResetIn: window}, nil
	}
	if rdb == nil {
		return Quota{}, errNoRateLimitStore
	}

	key := RateLimitKey(action, subject)
	cnt, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		return Quota{}, err
	}
	resetIn := window
	if cnt == 1 {
		rdb.Expire(ctx, key, window)
	} else if ttl, err := rdb.TTL(ctx, key).Result(); err == nil && ttl > 0 {
		resetIn = ttl
	}

	return Quota{
		Allowed:   cnt <= int64(limit),
		Remaining: max(limit-int(cnt), 0),
		ResetIn:   resetIn,
	}, nil
}

// RateLimit limits action to limit requests per window for each caller and fails open.
func RateLimit(rdb *redis.Client, action WriteAction, limit int, window time.Duration) fiber.Handler {
	return RateLimitWithPolicy(rdb, action, limit, window, FailOpen)
}

// RateLimitWithPolicy is RateLimit with an explicit policy for an unreachable store.
// Callers are keyed by their user id when authenticated, otherwise by remote IP.
func RateLimitWithPolicy(rdb *redis.Client, action WriteAction, limit int, window time.Duration, policy FailPolicy) fiber.Handler {
	return func(c *fiber.Ctx) error {
		subject := "ip:" + c.IP()
		if uid := UserID(c); uid != "" {
			subject = "user:" + uid
		}

		quota, err := CheckRateLimit(c.UserContext(), rdb, action, subject, limit, window)
		if err != nil {
			if policy == FailClosed {
				Logger.WarnContext(c.UserContext(), "rate limit store unavailable, rejecting write",
					"action", string(action), "error", err.Error())
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"message": "Posting is temporarily unavailable, please try again shortly.",
				})
			}
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(quota.Remaining))
		if !quota.Allowed {
			RateLimitRejections.WithLabelValues(string(action)).Inc()
			secs := int(math.Ceil(quota.ResetIn.Seconds()))
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(secs))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"message": fmt.Sprintf("Slow down! You can %s again in %ds.", action.describe(), secs),
			})
		}
		return c.Next()
	}
}
