package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/nikhil/begreen/internal/handlers"
	"github.com/nikhil/begreen/internal/middleware"
)

// RegisterWebSocketRoutes registers all WebSocket related routes
func RegisterWebSocketRoutes(router *mux.Router, h *handlers.Registry, mw *middleware.Set) {
	// WebSocket endpoint with authentication via query parameter
	router.Handle("/ws", middleware.Wrap(mw.WebSocket, h.WebSocket.HandleWebSocket)).Methods(http.MethodGet, http.MethodOptions)
}
