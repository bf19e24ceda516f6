package handlers

import (
	"net/http"
	"strings"

	"github.com/parleychat/parley/internal/api/middleware"
	"github.com/parleychat/parley/internal/auth"
	"github.com/parleychat/parley/internal/metrics"
)

// RegisterRequest represents the registration request body.
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginRequest represents the login request body.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register handles account creation. On success a session cookie is
// issued and the user is flagged online.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeBody(r, &req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		h.Error(w, http.StatusBadRequest, "username and password are required")
		return
	}

	user, sessionID, err := h.auth.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		h.Fail(w, err)
		return
	}
	metrics.UsersRegistered.Inc()

	h.setSessionCookie(w, sessionID)
	if err := h.chat.SetPresence(r.Context(), user.ID, true); err != nil {
		h.logger.Warn().Err(err).Str("user_id", user.ID).Msg("presence update failed")
	}
	h.JSON(w, http.StatusCreated, user.Public())
}

// Login handles credential verification and session issuance.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeBody(r, &req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	user, sessionID, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.Fail(w, err)
		return
	}

	h.setSessionCookie(w, sessionID)
	if err := h.chat.SetPresence(r.Context(), user.ID, true); err != nil {
		h.logger.Warn().Err(err).Str("user_id", user.ID).Msg("presence update failed")
	}
	h.JSON(w, http.StatusOK, user.Public())
}

// Logout deletes the session and flags the user offline. Idempotent:
// logging out without a session succeeds.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if user := middleware.UserFromContext(r.Context()); user != nil {
		if err := h.chat.SetPresence(r.Context(), user.ID, false); err != nil {
			h.logger.Warn().Err(err).Str("user_id", user.ID).Msg("presence update failed")
		}
	}

	if cookie, err := r.Cookie(middleware.SessionCookie); err == nil {
		if err := h.auth.Logout(r.Context(), cookie.Value); err != nil {
			h.logger.Warn().Err(err).Msg("session delete failed")
		}
	}
	h.clearSessionCookie(w)
	h.JSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Me returns the authenticated user.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}
	h.JSON(w, http.StatusOK, user.Public())
}

// UpdateProfileRequest represents the profile update request body.
type UpdateProfileRequest struct {
	Username     *string `json:"username,omitempty"`
	Avatar       *string `json:"avatar,omitempty"`
	ProfileColor *string `json:"profileColor,omitempty"`
}

// UpdateProfile applies a profile change to the authenticated user.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req UpdateProfileRequest
	if err := decodeBody(r, &req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	updated, err := h.auth.UpdateProfile(r.Context(), user.ID, auth.ProfileUpdate{
		Username:     req.Username,
		Avatar:       req.Avatar,
		ProfileColor: req.ProfileColor,
	})
	if err != nil {
		h.Fail(w, err)
		return
	}
	h.JSON(w, http.StatusOK, updated.Public())
}

// CheckUsername reports whether a username is still available.
func (h *Handler) CheckUsername(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.URL.Query().Get("username"))
	if username == "" {
		h.Error(w, http.StatusBadRequest, "username is required")
		return
	}
	taken, err := h.auth.UsernameTaken(r.Context(), username)
	if err != nil {
		h.Fail(w, err)
		return
	}
	h.JSON(w, http.StatusOK, map[string]bool{"available": !taken})
}

// ListUsers returns every account, passwords stripped, for the chat
// creation picker.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.auth.ListUsers(r.Context())
	if err != nil {
		h.Fail(w, err)
		return
	}
	h.JSON(w, http.StatusOK, users)
}
