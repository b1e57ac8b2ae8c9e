package middleware

import (
	"net/http"
	"sync"
	"time"

	"storefront/api/response"
	"storefront/config"
	"storefront/pkg/errors"
	"storefront/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter 按客户端 IP 的令牌桶；空闲超过 idleTTL 的桶在下次清扫时移除
type RateLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*clientBucket
	rate      rate.Limit
	burst     int
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func NewRateLimiter(r float64, burst int) *RateLimiter {
	return &RateLimiter{
		buckets: make(map[string]*clientBucket),
		rate:    rate.Limit(r),
		burst:   burst,
		idleTTL: limiterIdleTTL,
		now:     time.Now,
	}
}

// Allow consumes one token from the client's bucket.
func (rl *RateLimiter) Allow(client string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) >= rl.idleTTL {
		rl.sweep(now)
	}

	b, ok := rl.buckets[client]
	if !ok {
		b = &clientBucket{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.buckets[client] = b
	}
	b.lastSeen = now
	return b.limiter.AllowN(now, 1)
}

// Clients number of tracked buckets
func (rl *RateLimiter) Clients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}

func (rl *RateLimiter) sweep(now time.Time) {
	for client, b := range rl.buckets {
		if now.Sub(b.lastSeen) >= rl.idleTTL {
			delete(rl.buckets, client)
		}
	}
	rl.lastSweep = now
}

// RateLimitMiddleware 429 TOO_MANY_REQUESTS once a client's bucket is empty
func RateLimitMiddleware(cfg *config.RateLimitConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}

	limiter := NewRateLimiter(cfg.Rate, cfg.Burst)
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !limiter.Allow(ip) {
			logger.FromContext(c.Request.Context()).Warn("Rate limit exceeded", zap.String("client_ip", ip))
			response.Abort(c, http.StatusTooManyRequests, string(errors.CodeTooManyRequest), "Too many requests, please try again later")
			return
		}
		c.Next()
	}
}
