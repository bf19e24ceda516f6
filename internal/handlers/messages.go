package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/parleychat/parley/internal/api/middleware"
	"github.com/parleychat/parley/internal/chat"
)

const maxMessageBytes = 4096

// SendMessageRequest represents the send message request body. Either
// content or a file reference must be present.
type SendMessageRequest struct {
	ChatID   string `json:"chatId"`
	Content  string `json:"content"`
	FileURL  string `json:"fileUrl,omitempty"`
	FileName string `json:"fileName,omitempty"`
	FileType string `json:"fileType,omitempty"`
}

// SendMessage appends a message to a chat the user belongs to.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	var req SendMessageRequest
	if err := decodeBody(r, &req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.ChatID == "" {
		h.Error(w, http.StatusBadRequest, "chatId is required")
		return
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" && req.FileURL == "" {
		h.Error(w, http.StatusBadRequest, "content or file is required")
		return
	}
	if len(req.Content) > maxMessageBytes {
		h.Error(w, http.StatusUnprocessableEntity, "content too long")
		return
	}

	msg, err := h.chat.SendMessage(r.Context(), chat.SendMessageInput{
		ChatID:     req.ChatID,
		SenderID:   user.ID,
		SenderName: user.Username,
		Content:    req.Content,
		FileURL:    req.FileURL,
		FileName:   req.FileName,
		FileType:   req.FileType,
	})
	if err != nil {
		h.Fail(w, err)
		return
	}
	h.JSON(w, http.StatusCreated, msg)
}

// EditMessageRequest represents the edit request body.
type EditMessageRequest struct {
	ChatID  string `json:"chatId"`
	Content string `json:"content"`
}

// EditMessage replaces a message's content. Sender only.
func (h *Handler) EditMessage(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	messageID := chi.URLParam(r, "id")

	var req EditMessageRequest
	if err := decodeBody(r, &req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.ChatID == "" || strings.TrimSpace(req.Content) == "" {
		h.Error(w, http.StatusBadRequest, "content and chatId are required")
		return
	}

	msg, err := h.chat.EditMessage(r.Context(), messageID, req.ChatID, req.Content, user.ID)
	if err != nil {
		h.Fail(w, err)
		return
	}
	h.JSON(w, http.StatusOK, msg)
}

// DeleteMessage tombstones a message. Sender only.
func (h *Handler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	messageID := chi.URLParam(r, "id")

	chatID := r.URL.Query().Get("chatId")
	if chatID == "" {
		h.Error(w, http.StatusBadRequest, "chatId is required")
		return
	}

	msg, err := h.chat.DeleteMessage(r.Context(), messageID, chatID, user.ID)
	if err != nil {
		h.Fail(w, err)
		return
	}
	h.JSON(w, http.StatusOK, msg)
}

// MarkReadRequest represents the read-mark request body.
type MarkReadRequest struct {
	ChatID string `json:"chatId"`
}

// MarkMessageRead adds the user to a message's read set and flips the
// matching notification. Safe to replay.
func (h *Handler) MarkMessageRead(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	messageID := chi.URLParam(r, "id")

	var req MarkReadRequest
	if err := decodeBody(r, &req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.ChatID == "" {
		h.Error(w, http.StatusBadRequest, "chatId is required")
		return
	}

	msg, err := h.chat.MarkMessageRead(r.Context(), messageID, req.ChatID, user.ID)
	if err != nil {
		h.Fail(w, err)
		return
	}
	h.JSON(w, http.StatusOK, msg)
}
