package http

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const limiterIdle = 10 * time.Minute

type limiterEntry struct {
	limiter  *rate.Limiter
	lastUsed time.Time
}

// CallerLimiter keeps a token bucket per caller for create and join.
// Identified callers are keyed by user id, anonymous ones by client IP.
type CallerLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	every    rate.Limit
	burst    int
}

func NewCallerLimiter(perMinute, burst int) *CallerLimiter {
	return &CallerLimiter{
		limiters: make(map[string]*limiterEntry),
		every:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    burst,
	}
}

func (l *CallerLimiter) Allow(key string, now time.Time) bool {
	l.mu.Lock()
	entry, ok := l.limiters[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(l.every, l.burst)}
		l.limiters[key] = entry
	}
	entry.lastUsed = now
	l.mu.Unlock()

	return entry.limiter.AllowN(now, 1)
}

// Evict drops limiters idle since before now-limiterIdle.
func (l *CallerLimiter) Evict(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for key, e := range l.limiters {
		if now.Sub(e.lastUsed) > limiterIdle {
			delete(l.limiters, key)
			n++
		}
	}
	return n
}

func (l *CallerLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(limitKey(c), time.Now()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate_limited", "message": "too many requests"})
			return
		}
		c.Next()
	}
}

func limitKey(c *gin.Context) string {
	if c.GetBool(ctxAnonymousKey) {
		return "ip:" + c.ClientIP()
	}
	return "user:" + string(callerID(c))
}
