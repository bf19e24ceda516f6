package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/parleychat/parley/internal/auth"
	"github.com/parleychat/parley/internal/chat"
	"github.com/parleychat/parley/internal/store"
	"github.com/parleychat/parley/internal/upload"
)

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	auth          *auth.Service
	chat          *chat.Service
	store         *store.Store
	uploads       upload.Storage
	logger        zerolog.Logger
	secureCookies bool
}

// NewHandler creates a new Handler with the given services.
func NewHandler(authSvc *auth.Service, chatSvc *chat.Service, st *store.Store, uploads upload.Storage, logger zerolog.Logger, secureCookies bool) *Handler {
	return &Handler{
		auth:          authSvc,
		chat:          chatSvc,
		store:         st,
		uploads:       uploads,
		logger:        logger,
		secureCookies: secureCookies,
	}
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error sends a JSON error response with the given status code.
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{"error": message})
}

// Fail maps a service error onto an HTTP error response.
func (h *Handler) Fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotConfigured):
		h.Error(w, http.StatusServiceUnavailable, "database is not configured, please contact the administrator")
	case errors.Is(err, chat.ErrNotFound), errors.Is(err, auth.ErrUserNotFound):
		h.Error(w, http.StatusNotFound, "not found")
	case errors.Is(err, chat.ErrForbidden):
		h.Error(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, chat.ErrInvalidInput), errors.Is(err, auth.ErrInvalidInput):
		h.Error(w, http.StatusBadRequest, "missing required field")
	case errors.Is(err, auth.ErrUsernameTaken):
		h.Error(w, http.StatusConflict, "username already exists")
	case errors.Is(err, auth.ErrInvalidCredentials):
		h.Error(w, http.StatusUnauthorized, "invalid username or password")
	default:
		h.logger.Error().Err(err).Msg("request failed")
		h.Error(w, http.StatusInternalServerError, "internal server error")
	}
}

// setSessionCookie issues the session token cookie with the same
// lifetime as the stored session.
func (h *Handler) setSessionCookie(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     "session_id",
		Value:    sessionID,
		Path:     "/",
		MaxAge:   int(auth.SessionTTL / time.Second),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     "session_id",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func decodeBody(r *http.Request, dst interface{}) error {
	return json.NewDecoder(r.Body).Decode(dst)
}
