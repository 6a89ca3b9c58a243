package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

type bucket struct {
	tokens     int
	lastRefill time.Time
}

// RateLimiter is a token bucket per caller, refilled to capacity once per
// window. Callers are keyed by session user and client IP.
type RateLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	window    time.Duration
	capacity  int
	lastSweep time.Time
	now       func() time.Time
}

// NewRateLimiter returns a limiter; a capacity of zero or less disables it.
func NewRateLimiter(window time.Duration, capacity int) *RateLimiter {
	return &RateLimiter{
		buckets:  map[string]*bucket{},
		window:   window,
		capacity: capacity,
		now:      time.Now,
	}
}

func (l *RateLimiter) Enabled() bool {
	return l != nil && l.capacity > 0 && l.window > 0
}

func clientIP(c *gin.Context) string {
	ip := strings.TrimSpace(c.ClientIP())
	if ip == "" {
		host, _, _ := net.SplitHostPort(strings.TrimSpace(c.Request.RemoteAddr))
		ip = host
	}
	return ip
}

// CallerKey names the bucket of userID calling from c's client IP.
func CallerKey(c *gin.Context, userID string) string {
	return userID + "@" + clientIP(c)
}

func callerKey(c *gin.Context) string {
	var uid string
	if s := CurrentSession(c); s != nil {
		uid = s.UserID
	}
	return CallerKey(c, uid)
}

// Allow takes one token from key's bucket. A disabled limiter allows all.
func (l *RateLimiter) Allow(key string) bool {
	if !l.Enabled() {
		return true
	}
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	l.sweep(now)

	b := l.buckets[key]
	if b == nil {
		b = &bucket{tokens: l.capacity, lastRefill: now}
		l.buckets[key] = b
	}
	if elapsed := now.Sub(b.lastRefill); elapsed > 0 {
		add := int(float64(l.capacity) * (float64(elapsed) / float64(l.window)))
		if add > 0 {
			b.tokens = min(b.tokens+add, l.capacity)
			b.lastRefill = now
		}
	}
	if b.tokens <= 0 {
		return false
	}
	b.tokens--
	return true
}

// sweep drops buckets idle for a whole window, which would be full again
// anyway. It runs at most once per window.
func (l *RateLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.window {
		return
	}
	l.lastSweep = now
	for key, b := range l.buckets {
		if now.Sub(b.lastRefill) >= l.window {
			delete(l.buckets, key)
		}
	}
}

func (l *RateLimiter) Handler() gin.HandlerFunc {
	if !l.Enabled() {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		if !l.Allow(callerKey(c)) {
			c.Header("Retry-After", strconv.Itoa(int(l.window.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
