package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sirosfoundation/go-login-servers/pkg/config"
)

// RateLimitConfig configures a RateLimiter
type RateLimitConfig struct {
	RequestsPerMinute int
	BurstSize         int
	CleanupInterval   time.Duration
	Enabled           bool
}

// RateLimitConfigFrom converts the file/env configuration section
func RateLimitConfigFrom(cfg config.RateLimitConfig) RateLimitConfig {
	cfg.SetDefaults()
	return RateLimitConfig{
		RequestsPerMinute: cfg.RequestsPerMinute,
		BurstSize:         cfg.BurstSize,
		CleanupInterval:   time.Duration(cfg.CleanupIntervalSeconds) * time.Second,
		Enabled:           cfg.Enabled,
	}
}

// RateLimiter manages per-client token buckets
type RateLimiter struct {
	config RateLimitConfig
	logger *zap.Logger

	mu      sync.Mutex
	clients map[string]*clientLimiter

	stop     chan struct{}
	stopOnce sync.Once
}

// clientLimiter holds the rate limiter for a single client
type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a rate limiter and starts its cleanup loop.
// Call Stop to release the loop.
func NewRateLimiter(cfg RateLimitConfig, logger *zap.Logger) *RateLimiter {
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 10 * time.Minute
	}
	if cfg.BurstSize < 1 {
		cfg.BurstSize = 1
	}

	rl := &RateLimiter{
		config:  cfg,
		logger:  logger.Named("ratelimit"),
		clients: make(map[string]*clientLimiter),
		stop:    make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

func (r *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(r.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.cleanup()
		case <-r.stop:
			return
		}
	}
}

// cleanup removes limiters that have not been used for three intervals
func (r *RateLimiter) cleanup() {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := time.Now().Add(-3 * r.config.CleanupInterval)
	for key, limiter := range r.clients {
		if limiter.lastSeen.Before(cutoff) {
			delete(r.clients, key)
		}
	}
}

func (r *RateLimiter) getLimiter(key string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	limiter, exists := r.clients[key]
	if !exists {
		limiter = &clientLimiter{
			limiter: rate.NewLimiter(rate.Limit(float64(r.config.RequestsPerMinute)/60.0), r.config.BurstSize),
		}
		r.clients[key] = limiter
	}
	limiter.lastSeen = time.Now()
	return limiter.limiter
}

// Allow reports whether a request for key may proceed
func (r *RateLimiter) Allow(key string) bool {
	if !r.config.Enabled {
		return true
	}
	return r.getLimiter(key).Allow()
}

// RetryAfter returns the whole seconds a limited client should wait for one token
func (r *RateLimiter) RetryAfter() int {
	if r.config.RequestsPerMinute <= 0 {
		return 60
	}
	seconds := int(math.Ceil(60.0 / float64(r.config.RequestsPerMinute)))
	if seconds < 1 {
		seconds = 1
	}
	return seconds
}

// Stop ends the cleanup loop
func (r *RateLimiter) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })
}

// RateLimitMiddleware returns a gin middleware limiting requests per client IP
func RateLimitMiddleware(rl *RateLimiter, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		if !rl.Allow(clientIP) {
			logger.Warn("Rate limit exceeded",
				zap.String("client_ip", clientIP),
				zap.String("path", c.Request.URL.Path))
			c.Header("Retry-After", strconv.Itoa(rl.RetryAfter()))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate_limit_exceeded",
			})
			return
		}

		c.Next()
	}
}
