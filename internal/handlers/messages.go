package handlers

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/nikhil/begreen/internal/logger"
	"github.com/nikhil/begreen/internal/models"
)

type MessageManager interface {
	List(ctx context.Context, user models.Principal, teamID string) ([]models.Section[models.MessageItem], error)
	Send(ctx context.Context, user models.Principal, teamID, content string) (*models.Message, error)
}

type MessageHandler struct {
	Service MessageManager
	Log     *logger.Logger
}

func NewMessageHandler(service MessageManager, log *logger.Logger) *MessageHandler {
	return &MessageHandler{Service: service, Log: log}
}

type sendMessageRequest struct {
	Content string `json:"content"`
}

func (h *MessageHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r)
	if !ok {
		return
	}

	sections, err := h.Service.List(r.Context(), user, mux.Vars(r)["id"])
	if err != nil {
		respondWithServiceError(w, r, h.Log, err)
		return
	}
	respondWithJSON(w, h.Log, http.StatusOK, map[string]interface{}{"sections": sections})
}

func (h *MessageHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r)
	if !ok {
		return
	}
	var req sendMessageRequest
	if !decode(w, r, &req) {
		return
	}

	msg, err := h.Service.Send(r.Context(), user, mux.Vars(r)["id"], req.Content)
	if err != nil {
		respondWithServiceError(w, r, h.Log, err)
		return
	}
	respondWithJSON(w, h.Log, http.StatusCreated, msg)
}
