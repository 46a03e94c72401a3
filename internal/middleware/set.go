package middleware

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/nikhil/begreen/internal/config"
	"github.com/nikhil/begreen/internal/logger"
)

// Set holds the middleware chains shared by the route modules.
type Set struct {
	Public    []mux.MiddlewareFunc
	Protected []mux.MiddlewareFunc
	WebSocket []mux.MiddlewareFunc
}

func NewSet(tokens TokenParser, limiter Limiter, limits config.RateLimitConfig, log *logger.Logger) *Set {
	return &Set{
		Public: []mux.MiddlewareFunc{
			ResponseWrapperMiddleware,
			AuthRateLimit(limiter, limits.Auth, log),
		},
		Protected: []mux.MiddlewareFunc{
			AuthMiddleware(tokens),
			ResponseWrapperMiddleware,
			APIRateLimit(limiter, limits.API, log),
		},
		WebSocket: []mux.MiddlewareFunc{
			WebSocketAuthMiddleware(tokens),
		},
	}
}

// Wrap applies chain to h, first entry outermost.
func Wrap(chain []mux.MiddlewareFunc, h http.HandlerFunc) http.Handler {
	var handler http.Handler = h
	for i := len(chain) - 1; i >= 0; i-- {
		handler = chain[i](handler)
	}
	return handler
}
