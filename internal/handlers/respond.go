package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nikhil/begreen/internal/logger"
	"github.com/nikhil/begreen/internal/middleware"
	"github.com/nikhil/begreen/internal/models"
)

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, nil, code, map[string]string{"error": message})
}

// respondWithJSON writes payload with code. Encoding failures are logged to
// log when it is set.
func respondWithJSON(w http.ResponseWriter, log *logger.Logger, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		if log != nil {
			log.Error("Failed to encode response", "status", code, "error", err)
		}
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, models.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, models.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// respondWithServiceError writes err with the matching status. Internal
// errors are logged and hidden from the client.
func respondWithServiceError(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		log.WithContext(r.Context()).Error("Request failed", "path", r.URL.Path, "error", err)
		respondWithError(w, code, "Internal server error")
		return
	}
	respondWithError(w, code, err.Error())
}

// principal extracts the caller set by the auth middleware.
func principal(w http.ResponseWriter, r *http.Request) (models.Principal, bool) {
	user, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Invalid token")
	}
	return user, ok
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}
