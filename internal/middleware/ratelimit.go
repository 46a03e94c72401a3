package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/nikhil/begreen/internal/logger"
)

type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, int, error)
}

// KeyFunc derives the bucket a request is counted in.
type KeyFunc func(r *http.Request) string

func RateLimitMiddleware(rl Limiter, scope string, limit int, window time.Duration, keyFn KeyFunc, log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		if limit <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, count, err := rl.Allow(r.Context(), scope+":"+keyFn(r), limit, window)
			if err != nil {
				// fail open when redis is unavailable
				log.WithContext(r.Context()).Error("Rate limit check failed", "scope", scope, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(max(limit-count, 0)))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(window).Unix(), 10))

			if !allowed {
				w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
				writeError(w, http.StatusTooManyRequests, "Rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP keys requests by remote address.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// UserOrIP keys authenticated requests by user and falls back to the
// remote address.
func UserOrIP(r *http.Request) string {
	if user, ok := PrincipalFromContext(r.Context()); ok {
		return "user:" + user.UserID
	}
	return "ip:" + ClientIP(r)
}

// AuthRateLimit limits signup and login attempts per client IP.
func AuthRateLimit(rl Limiter, perMinute int, log *logger.Logger) mux.MiddlewareFunc {
	return RateLimitMiddleware(rl, "auth", perMinute, time.Minute, ClientIP, log)
}

// APIRateLimit limits authenticated API calls per user.
func APIRateLimit(rl Limiter, perMinute int, log *logger.Logger) mux.MiddlewareFunc {
	return RateLimitMiddleware(rl, "api", perMinute, time.Minute, UserOrIP, log)
}
