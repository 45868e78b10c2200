package middleware

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ActivationRateLimiter throttles promo-code activation attempts per client
// so codes cannot be guessed through the public endpoint. Limiters are keyed
// by remote address; stale entries are dropped periodically.
type ActivationRateLimiter struct {
	ratePerSecond rate.Limit
	burst         int
	logger        *slog.Logger

	mu       sync.Mutex
	limiters map[string]*clientLimiter
	stopCh   chan struct{}
}

type clientLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

func NewActivationRateLimiter(ratePerSecond float64, burst int, logger *slog.Logger) *ActivationRateLimiter {
	if ratePerSecond <= 0 {
		ratePerSecond = 1
	}
	if burst <= 0 {
		burst = 5
	}
	rl := &ActivationRateLimiter{
		ratePerSecond: rate.Limit(ratePerSecond),
		burst:         burst,
		logger:        logger,
		limiters:      make(map[string]*clientLimiter),
		stopCh:        make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

func (rl *ActivationRateLimiter) Stop() {
	close(rl.stopCh)
}

func (rl *ActivationRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientKey(r)

		if !rl.allow(key) {
			rl.logger.Warn("activation rate limit exceeded", "client", key)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"error": "too many activation attempts, slow down",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (rl *ActivationRateLimiter) allow(key string) bool {
	rl.mu.Lock()
	cl, ok := rl.limiters[key]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(rl.ratePerSecond, rl.burst)}
		rl.limiters[key] = cl
	}
	cl.lastAccess = time.Now()
	rl.mu.Unlock()

	return cl.limiter.Allow()
}

func (rl *ActivationRateLimiter) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopCh:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-10 * time.Minute)
			rl.mu.Lock()
			for key, cl := range rl.limiters {
				if cl.lastAccess.Before(cutoff) {
					delete(rl.limiters, key)
				}
			}
			rl.mu.Unlock()
		}
	}
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
