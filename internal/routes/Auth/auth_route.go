package authRoute

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/nikhil/begreen/internal/handlers"
	"github.com/nikhil/begreen/internal/middleware"
)

func RegisterAuthRoutes(router *mux.Router, h *handlers.Registry, mw *middleware.Set) {
	// Logout needs the token, so it is mounted ahead of the public subrouter
	router.Handle("/auth/logout", middleware.Wrap(mw.Protected, h.Auth.Logout)).Methods(http.MethodPost)

	// Public routes without auth middleware
	publicRouter := router.PathPrefix("/auth").Subrouter()
	publicRouter.Use(mw.Public...)
	publicRouter.HandleFunc("/signup", h.Auth.Signup).Methods(http.MethodPost)
	publicRouter.HandleFunc("/login", h.Auth.Login).Methods(http.MethodPost)
}
