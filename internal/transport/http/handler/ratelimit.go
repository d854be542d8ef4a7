package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ErlanBelekov/prompt-studio/internal/metrics"
	"github.com/ErlanBelekov/prompt-studio/internal/ratelimit"
	"github.com/gin-gonic/gin"
)

// rateLimiter is satisfied by *ratelimit.Limiter.
type rateLimiter interface {
	Allow(ctx context.Context, rule ratelimit.Rule, key string) (ratelimit.Result, error)
	Now() time.Time
}

// allow applies rule to key and writes the X-RateLimit-* headers. On
// rejection it also writes the 429 response and returns false. A store
// failure lets the request through.
func allow(c *gin.Context, limiter rateLimiter, logger *slog.Logger, rule ratelimit.Rule, key, rejectMsg string) bool {
	res, err := limiter.Allow(c.Request.Context(), rule, key)
	if err != nil {
		logger.ErrorContext(c.Request.Context(), "rate limit check failed, allowing request", "rule", rule.Name, "error", err)
		metrics.RateLimitDecisionsTotal.WithLabelValues(rule.Name, "error").Inc()
		return true
	}

	c.Header("X-RateLimit-Limit", strconv.Itoa(res.Limit))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
	c.Header("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))

	if !res.Allowed {
		metrics.RateLimitDecisionsTotal.WithLabelValues(rule.Name, "rejected").Inc()
		c.Header("Retry-After", strconv.Itoa(res.RetryAfter(limiter.Now())))
		c.JSON(http.StatusTooManyRequests, gin.H{"error": rejectMsg})
		return false
	}

	metrics.RateLimitDecisionsTotal.WithLabelValues(rule.Name, "allowed").Inc()
	return true
}
