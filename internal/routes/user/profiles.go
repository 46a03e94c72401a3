package userRoutes

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/nikhil/begreen/internal/handlers"
	"github.com/nikhil/begreen/internal/middleware"
)

func UserProfileRoutes(router *mux.Router, h *handlers.Registry, mw *middleware.Set) {
	// Protected routes requiring authentication
	protectedRouter := router.PathPrefix("/user").Subrouter()
	protectedRouter.Use(mw.Protected...)

	// User profile routes
	protectedRouter.HandleFunc("/profile", h.Profile.GetUserProfile).Methods(http.MethodGet, http.MethodOptions)
	protectedRouter.HandleFunc("/profile", h.Profile.UpdateUserProfile).Methods(http.MethodPut, http.MethodOptions)
}
