package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/parleychat/parley/internal/api/middleware"
	"github.com/parleychat/parley/internal/chat"
)

// CreateChatRequest represents the chat creation request body.
type CreateChatRequest struct {
	Name    string   `json:"name"`
	IsGroup bool     `json:"isGroup"`
	Members []string `json:"members"`
}

// CreateChat creates a chat owned by the authenticated user.
func (h *Handler) CreateChat(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	var req CreateChatRequest
	if err := decodeBody(r, &req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		h.Error(w, http.StatusBadRequest, "chat name is required")
		return
	}

	created, err := h.chat.CreateChat(r.Context(), req.Name, req.IsGroup, user.ID, req.Members)
	if err != nil {
		h.Fail(w, err)
		return
	}
	h.JSON(w, http.StatusCreated, created)
}

// ListChats returns the user's chats, most recently active first.
func (h *Handler) ListChats(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	chats, err := h.chat.UserChats(r.Context(), user.ID)
	if err != nil {
		h.Fail(w, err)
		return
	}
	h.JSON(w, http.StatusOK, chats)
}

// GetChat returns a single chat. Members only.
func (h *Handler) GetChat(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	chatID := chi.URLParam(r, "id")

	c, err := h.chat.GetChat(r.Context(), chatID)
	if err != nil {
		h.Fail(w, err)
		return
	}
	if !c.HasMember(user.ID) {
		h.Error(w, http.StatusForbidden, "forbidden")
		return
	}
	h.JSON(w, http.StatusOK, c)
}

// UpdateChatSettingsRequest represents the settings update body.
type UpdateChatSettingsRequest struct {
	Name  *string `json:"name,omitempty"`
	Theme *string `json:"theme,omitempty"`
	Icon  *string `json:"icon,omitempty"`
}

// UpdateChatSettings applies a settings change; group chats restrict
// this to the creator.
func (h *Handler) UpdateChatSettings(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	chatID := chi.URLParam(r, "id")

	var req UpdateChatSettingsRequest
	if err := decodeBody(r, &req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	updated, err := h.chat.UpdateSettings(r.Context(), chatID, chat.SettingsUpdate{
		Name:  req.Name,
		Theme: req.Theme,
		Icon:  req.Icon,
	}, user.ID)
	if err != nil {
		h.Fail(w, err)
		return
	}
	h.JSON(w, http.StatusOK, updated)
}

// ChatMessages returns a window of the chat's messages, oldest first.
// Members only.
func (h *Handler) ChatMessages(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	chatID := chi.URLParam(r, "id")

	c, err := h.chat.GetChat(r.Context(), chatID)
	if err != nil {
		h.Fail(w, err)
		return
	}
	if !c.HasMember(user.ID) {
		h.Error(w, http.StatusForbidden, "forbidden")
		return
	}

	limit := chat.DefaultMessageLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	messages, err := h.chat.Messages(r.Context(), chatID, limit)
	if err != nil {
		h.Fail(w, err)
		return
	}
	h.JSON(w, http.StatusOK, messages)
}
