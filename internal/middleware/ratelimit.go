package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/hongminglow/gigdash/internal/http/respond"
	"github.com/hongminglow/gigdash/internal/models"
)

// LimitFunc picks the limit for a caller; user is nil for anonymous requests.
type LimitFunc func(user *models.User) (rate.Limit, int)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter provides per-caller rate limiting keyed by user id or client address.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	limit    LimitFunc
	logger   *zap.Logger
	now      func() time.Time
}

// NewRateLimiter creates a limiter using limit to size each caller's bucket.
func NewRateLimiter(limit LimitFunc, logger *zap.Logger) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*limiterEntry),
		limit:    limit,
		logger:   logger,
		now:      time.Now,
	}
}

// PerMinute returns a LimitFunc allowing n requests per minute with a burst of n.
func PerMinute(n int) LimitFunc {
	return func(*models.User) (rate.Limit, int) {
		return rate.Every(time.Minute / time.Duration(n)), n
	}
}

func (rl *RateLimiter) getLimiter(key string, user *models.User) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, exists := rl.limiters[key]
	if !exists {
		r, burst := rl.limit(user)
		entry = &limiterEntry{limiter: rate.NewLimiter(r, burst)}
		rl.limiters[key] = entry
	}
	entry.lastSeen = rl.now()
	return entry.limiter
}

// Handler returns the rate limiting middleware handler.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var key string
		var userPtr *models.User
		if user, ok := UserFromContext(r.Context()); ok {
			key = "user:" + strconv.FormatInt(user.ID, 10)
			userPtr = &user
		} else {
			key = "ip:" + clientIP(r)
		}

		if !rl.getLimiter(key, userPtr).Allow() {
			rl.logger.Warn("rate limit exceeded",
				zap.String("key", key),
				zap.String("path", r.URL.Path),
				zap.String("method", r.Method))
			w.Header().Set("Retry-After", "60")
			respond.Error(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Cleanup drops limiters idle for longer than idle and reports how many were removed.
func (rl *RateLimiter) Cleanup(idle time.Duration) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	cutoff := rl.now().Add(-idle)
	removed := 0
	for key, entry := range rl.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(rl.limiters, key)
			removed++
		}
	}
	return removed
}
