package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/nikhil/begreen/internal/handlers"
	"github.com/nikhil/begreen/internal/middleware"
	authRoute "github.com/nikhil/begreen/internal/routes/Auth"
	teamroutes "github.com/nikhil/begreen/internal/routes/TeamRoutes"
	challengeRoutes "github.com/nikhil/begreen/internal/routes/challenges"
	userRoutes "github.com/nikhil/begreen/internal/routes/user"
)

// List of all route registration functions
var routeModules = []func(*mux.Router, *handlers.Registry, *middleware.Set){
	authRoute.RegisterAuthRoutes,
	userRoutes.UserProfileRoutes,
	teamroutes.TeamRoutes,
	challengeRoutes.ChallengeRoutes,
	RegisterWebSocketRoutes,
}

// Register all routes dynamically
func RegisterAllRoutes(h *handlers.Registry, mw *middleware.Set) *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/health", h.Health.Health).Methods(http.MethodGet)

	for _, register := range routeModules {
		register(router, h, mw)
	}

	return router
}
