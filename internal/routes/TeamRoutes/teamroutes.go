package teamroutes

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/nikhil/begreen/internal/handlers"
	"github.com/nikhil/begreen/internal/middleware"
)

func TeamRoutes(router *mux.Router, h *handlers.Registry, mw *middleware.Set) {
	protectedRouter := router.PathPrefix("/teams").Subrouter()
	protectedRouter.Use(mw.Protected...)
	protectedRouter.HandleFunc("", h.Teams.GetUserTeams).Methods(http.MethodGet)
	protectedRouter.HandleFunc("/overview", h.Teams.Overview).Methods(http.MethodGet)
	protectedRouter.HandleFunc("/group", h.Teams.CreateGroup).Methods(http.MethodPost)
	protectedRouter.HandleFunc("/chat", h.Teams.CreateChat).Methods(http.MethodPost)
	protectedRouter.HandleFunc("/{id}", h.Teams.GetTeam).Methods(http.MethodGet)
	protectedRouter.HandleFunc("/{id}", h.Teams.UpdateTeam).Methods(http.MethodPut)
	protectedRouter.HandleFunc("/{id}", h.Teams.DeleteTeam).Methods(http.MethodDelete)

	protectedRouter.HandleFunc("/{id}/memberships", h.Memberships.ListMemberships).Methods(http.MethodGet)
	protectedRouter.HandleFunc("/{id}/memberships", h.Memberships.CreateMembership).Methods(http.MethodPost)
	protectedRouter.HandleFunc("/{id}/memberships/{membershipID}", h.Memberships.DeleteMembership).Methods(http.MethodDelete)

	protectedRouter.HandleFunc("/{id}/messages", h.Messages.GetMessages).Methods(http.MethodGet)
	protectedRouter.HandleFunc("/{id}/messages", h.Messages.SendMessage).Methods(http.MethodPost)

	protectedRouter.HandleFunc("/{id}/challenges", h.Challenges.GetTeamChallenges).Methods(http.MethodGet)
}
