package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/Arthur2500/ConvertZ/internal/util"
)

const maxRateLimitEntries = 100000

// RateLimiter is an in-memory sliding-window limiter keyed by client IP.
type RateLimiter struct {
	window time.Duration
	max    int

	mu    sync.Mutex
	store map[string][]time.Time
}

func NewRateLimiter(window time.Duration, max int) *RateLimiter {
	return &RateLimiter{
		window: window,
		max:    max,
		store:  make(map[string][]time.Time),
	}
}

func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := util.GetClientIP(r)
		allowed, remaining, resetIn := rl.check(ip)

		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", rl.max))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))

		if !allowed {
			w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", resetIn))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(429)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error":   "Too many requests. Please slow down.",
				"resetIn": resetIn,
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) check(ip string) (allowed bool, remaining int, resetIn int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	windowStart := now.Add(-rl.window)

	requests := rl.store[ip]
	filtered := requests[:0]
	for _, t := range requests {
		if t.After(windowStart) {
			filtered = append(filtered, t)
		}
	}

	if len(filtered) >= rl.max {
		resetSec := int(filtered[0].Add(rl.window).Sub(now).Seconds()) + 1
		rl.store[ip] = filtered
		return false, 0, resetSec
	}

	if len(rl.store) >= maxRateLimitEntries {
		rl.store[ip] = filtered
		return false, 0, 60
	}

	filtered = append(filtered, now)
	rl.store[ip] = filtered
	return true, rl.max - len(filtered), 0
}

// StartCleanup prunes idle entries so the store does not grow with every
// IP ever seen.
func (rl *RateLimiter) StartCleanup() {
	go func() {
		ticker := time.NewTicker(60 * time.Second)
		for range ticker.C {
			rl.mu.Lock()
			windowStart := time.Now().Add(-rl.window)
			for ip, requests := range rl.store {
				filtered := requests[:0]
				for _, t := range requests {
					if t.After(windowStart) {
						filtered = append(filtered, t)
					}
				}
				if len(filtered) == 0 {
					delete(rl.store, ip)
				} else {
					rl.store[ip] = filtered
				}
			}
			rl.mu.Unlock()
		}
	}()
}
