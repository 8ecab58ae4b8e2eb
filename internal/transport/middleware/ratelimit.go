package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/heartmarshall/notes-assistant-backend/internal/metrics"
	"github.com/heartmarshall/notes-assistant-backend/pkg/ctxutil"
)

// idleBucketTTL is how long an untouched bucket survives cleanup. A full
// refill never takes longer than a minute, so older buckets are at capacity
// and safe to drop.
const idleBucketTTL = 10 * time.Minute

// RateLimiter is a token bucket per caller. Authenticated callers are keyed
// by user id, anonymous ones by remote host.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time
	stop    chan struct{}
	once    sync.Once
}

type bucket struct {
	tokens   float64
	capacity float64
	perSec   float64
	last     time.Time
}

// NewRateLimiter starts a janitor that evicts idle buckets every
// cleanupInterval. Stop must be called on shutdown.
func NewRateLimiter(cleanupInterval time.Duration) *RateLimiter {
	rl := &RateLimiter{
		buckets: make(map[string]*bucket),
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	go rl.janitor(cleanupInterval)
	return rl
}

func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stop) })
}

// Limit admits perMinute requests per caller with a burst of the same size.
// A non-positive perMinute disables limiting.
func (rl *RateLimiter) Limit(perMinute int) Middleware {
	return func(next http.Handler) http.Handler {
		if perMinute <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wait, ok := rl.take(callerKey(r), perMinute)
			if !ok {
				metrics.RateLimited.WithLabelValues(r.Pattern).Inc()
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"rate limit exceeded"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// take consumes one token. When none is left it returns how long until the
// next one is available.
func (rl *RateLimiter) take(key string, perMinute int) (time.Duration, bool) {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[key]
	if !ok {
		capacity := float64(perMinute)
		b = &bucket{tokens: capacity, capacity: capacity, perSec: capacity / 60, last: now}
		rl.buckets[key] = b
	}

	b.tokens = math.Min(b.capacity, b.tokens+now.Sub(b.last).Seconds()*b.perSec)
	b.last = now

	if b.tokens < 1 {
		return time.Duration((1 - b.tokens) / b.perSec * float64(time.Second)), false
	}
	b.tokens--
	return 0, true
}

func (rl *RateLimiter) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.evictIdle()
		}
	}
}

func (rl *RateLimiter) evictIdle() {
	cutoff := rl.now().Add(-idleBucketTTL)
	rl.mu.Lock()
	for k, b := range rl.buckets {
		if b.last.Before(cutoff) {
			delete(rl.buckets, k)
		}
	}
	rl.mu.Unlock()
}

func callerKey(r *http.Request) string {
	if userID, ok := ctxutil.UserIDFromCtx(r.Context()); ok {
		return "user:" + userID
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
