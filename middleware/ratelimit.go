package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"vet1stop-platform/utils"
)

// RateLimitConfig is the per-client request budget
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

func skipRateLimit(c *gin.Context) bool {
	return c.FullPath() == "/health"
}

func rejectRateLimited(c *gin.Context, cfg RateLimitConfig, reset time.Time) {
	c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.Requests))
	c.Header("X-RateLimit-Remaining", "0")
	c.Header("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))

	utils.RespondWithError(c, http.StatusTooManyRequests,
		"rate_limit_exceeded",
		"Too many requests. Please try again later.",
		gin.H{
			"retry_after": int(cfg.Window.Seconds()),
			"limit":       cfg.Requests,
		})
	c.Abort()
}

// RateLimitMiddleware implements fixed-window rate limiting using Redis.
// It limits requests per IP + endpoint combination and fails open when
// Redis errors.
func RateLimitMiddleware(rdb *redis.Client, cfg RateLimitConfig, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if skipRateLimit(c) {
			c.Next()
			return
		}

		key := "vet1stop:ratelimit:" + c.ClientIP() + ":" + c.FullPath()

		ctx, cancel := context.WithTimeout(c.Request.Context(), utils.ShortTimeout)
		defer cancel()

		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			logger.Warn("rate limit check failed, allowing request", "error", err, "request_id", GetRequestID(c))
			c.Next()
			return
		}

		// Set expiration on first request
		if count == 1 {
			rdb.Expire(ctx, key, cfg.Window)
		}

		if count > int64(cfg.Requests) {
			rejectRateLimited(c, cfg, time.Now().Add(cfg.Window))
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.Requests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(cfg.Requests-int(count)))
		c.Next()
	}
}

// LocalRateLimiter keeps a token bucket per client IP in process memory.
// It is used when Redis is not configured. Buckets idle for a whole window
// are full again and get dropped on the next sweep.
type LocalRateLimiter struct {
	cfg       RateLimitConfig
	mu        sync.Mutex
	limiters  map[string]*localBucket
	lastSweep time.Time
	now       func() time.Time
}

type localBucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func NewLocalRateLimiter(cfg RateLimitConfig) *LocalRateLimiter {
	return &LocalRateLimiter{cfg: cfg, limiters: make(map[string]*localBucket), now: time.Now}
}

func (l *LocalRateLimiter) limiter(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= l.cfg.Window {
		l.sweep(now)
	}

	b, ok := l.limiters[key]
	if !ok {
		b = &localBucket{lim: rate.NewLimiter(rate.Every(l.cfg.Window/time.Duration(l.cfg.Requests)), l.cfg.Requests)}
		l.limiters[key] = b
	}
	b.lastSeen = now
	return b.lim
}

// sweep drops buckets untouched for a full window; callers hold mu
func (l *LocalRateLimiter) sweep(now time.Time) {
	for key, b := range l.limiters {
		if now.Sub(b.lastSeen) >= l.cfg.Window {
			delete(l.limiters, key)
		}
	}
	l.lastSweep = now
}

// Middleware returns the gin handler enforcing the limiter
func (l *LocalRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if skipRateLimit(c) {
			c.Next()
			return
		}

		lim := l.limiter(c.ClientIP())
		if !lim.Allow() {
			rejectRateLimited(c, l.cfg, time.Now().Add(l.cfg.Window))
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(l.cfg.Requests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(int(lim.Tokens())))
		c.Next()
	}
}
