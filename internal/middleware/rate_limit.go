package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"servercv/dashboard/internal/common"

	"golang.org/x/time/rate"
)

// IPRateLimiter keeps one token bucket per client IP.
type IPRateLimiter struct {
	mu          sync.Mutex
	limiters    map[string]*rate.Limiter
	rps         rate.Limit
	burst       int
	whitelisted map[string]bool
}

func NewIPRateLimiter(rps float64, burst int, whitelist ...string) *IPRateLimiter {
	l := &IPRateLimiter{
		limiters:    make(map[string]*rate.Limiter),
		rps:         rate.Limit(rps),
		burst:       burst,
		whitelisted: map[string]bool{"127.0.0.1": true}, // local bot
	}
	for _, ip := range whitelist {
		l.whitelisted[ip] = true
	}
	return l
}

func (l *IPRateLimiter) getLimiter(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if limiter, exists := l.limiters[ip]; exists {
		return limiter
	}
	limiter := rate.NewLimiter(l.rps, l.burst)
	l.limiters[ip] = limiter
	return limiter
}

func (l *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}
		if l.whitelisted[ip] {
			next.ServeHTTP(w, r)
			return
		}

		if !l.getLimiter(ip).Allow() {
			wait := time.Duration(float64(time.Second) / float64(l.rps))
			common.RespondAppError(w, time.Now(), common.RateLimited(wait))
			return
		}

		next.ServeHTTP(w, r)
	})
}
