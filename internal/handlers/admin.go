package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/parleychat/parley/internal/api/middleware"
	"github.com/parleychat/parley/internal/auth"
	"github.com/parleychat/parley/internal/models"
)

// AdminCreateUserRequest represents the admin user creation body.
type AdminCreateUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

// AdminCreateUser creates an account without a session.
func (h *Handler) AdminCreateUser(w http.ResponseWriter, r *http.Request) {
	var req AdminCreateUserRequest
	if err := decodeBody(r, &req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.Username = strings.TrimSpace(req.Username)

	user, err := h.auth.AdminCreateUser(r.Context(), req.Username, req.Password, models.Role(req.Role))
	if err != nil {
		h.Fail(w, err)
		return
	}
	h.JSON(w, http.StatusCreated, user.Public())
}

// AdminUpdateUserRequest represents the admin user update body.
type AdminUpdateUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password,omitempty"`
	Role     string `json:"role,omitempty"`
}

// AdminUpdateUser rewrites an account.
func (h *Handler) AdminUpdateUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	var req AdminUpdateUserRequest
	if err := decodeBody(r, &req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Username) == "" {
		h.Error(w, http.StatusBadRequest, "username is required")
		return
	}

	user, err := h.auth.AdminUpdateUser(r.Context(), userID, auth.AdminUpdate{
		Username: req.Username,
		Password: req.Password,
		Role:     models.Role(req.Role),
	})
	if err != nil {
		h.Fail(w, err)
		return
	}
	h.JSON(w, http.StatusOK, user.Public())
}

// AdminDeleteUser removes an account. The caller cannot delete itself,
// and there is no cascade: the deleted id may dangle in chat member
// lists and message sender fields.
func (h *Handler) AdminDeleteUser(w http.ResponseWriter, r *http.Request) {
	admin := middleware.UserFromContext(r.Context())
	userID := chi.URLParam(r, "id")

	if userID == admin.ID {
		h.Error(w, http.StatusBadRequest, "cannot delete your own account")
		return
	}

	if err := h.auth.AdminDeleteUser(r.Context(), userID); err != nil {
		h.Fail(w, err)
		return
	}
	h.JSON(w, http.StatusOK, map[string]bool{"success": true})
}
