package challengeRoutes

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/nikhil/begreen/internal/handlers"
	"github.com/nikhil/begreen/internal/middleware"
)

func ChallengeRoutes(router *mux.Router, h *handlers.Registry, mw *middleware.Set) {
	protectedRouter := router.PathPrefix("/challenges").Subrouter()
	protectedRouter.Use(mw.Protected...)
	protectedRouter.HandleFunc("", h.Challenges.GetUserChallenges).Methods(http.MethodGet)
	protectedRouter.HandleFunc("", h.Challenges.CreateChallenge).Methods(http.MethodPost)
	protectedRouter.HandleFunc("/{id}", h.Challenges.DeleteChallenge).Methods(http.MethodDelete)
	protectedRouter.HandleFunc("/{id}/assign", h.Challenges.AssignChallenge).Methods(http.MethodPost)
	protectedRouter.HandleFunc("/{id}/finish", h.Challenges.FinishChallenge).Methods(http.MethodPost)
	protectedRouter.HandleFunc("/{id}/cancel", h.Challenges.CancelChallenge).Methods(http.MethodPost)

	router.Handle("/leaderboard", middleware.Wrap(mw.Protected, h.Leaderboard.GetLeaderboard)).Methods(http.MethodGet)
}
