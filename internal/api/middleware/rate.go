package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// idleClientTTL is how long a per-IP limiter survives without requests
const idleClientTTL = 10 * time.Minute

// RateLimitConfig defines rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int
	Burst             int
}

// RateLimit creates a per-IP rate limiting middleware. Idle limiters are
// swept lazily once per TTL.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	return newIPLimiter(cfg, idleClientTTL, time.Now).handle
}

type ipClient struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipLimiter keeps one token bucket per client IP
type ipLimiter struct {
	cfg RateLimitConfig
	ttl time.Duration
	now func() time.Time

	mu        sync.Mutex
	clients   map[string]*ipClient
	lastSweep time.Time
}

func newIPLimiter(cfg RateLimitConfig, ttl time.Duration, now func() time.Time) *ipLimiter {
	return &ipLimiter{
		cfg:       cfg,
		ttl:       ttl,
		now:       now,
		clients:   make(map[string]*ipClient),
		lastSweep: now(),
	}
}

func (l *ipLimiter) handle(c *gin.Context) {
	if !l.allow(c.ClientIP()) {
		abortLimited(c)
		return
	}
	c.Next()
}

func (l *ipLimiter) allow(ip string) bool {
	now := l.now()

	l.mu.Lock()
	if now.Sub(l.lastSweep) > l.ttl {
		for key, cl := range l.clients {
			if now.Sub(cl.lastSeen) > l.ttl {
				delete(l.clients, key)
			}
		}
		l.lastSweep = now
	}
	cl, exists := l.clients[ip]
	if !exists {
		cl = &ipClient{limiter: rate.NewLimiter(rate.Limit(l.cfg.RequestsPerSecond), l.cfg.Burst)}
		l.clients[ip] = cl
	}
	cl.lastSeen = now
	limiter := cl.limiter
	l.mu.Unlock()

	return limiter.AllowN(now, 1)
}

// size returns the number of tracked clients
func (l *ipLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// GlobalRateLimit creates a global rate limiting middleware.
func GlobalRateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	limiter := rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)

	return func(c *gin.Context) {
		if !limiter.Allow() {
			abortLimited(c)
			return
		}
		c.Next()
	}
}

func abortLimited(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"error": "rate limit exceeded",
	})
}
