package handlers

import (
	"net/http"

	"github.com/parleychat/parley/internal/api/middleware"
)

// Notifications returns the user's recent notifications, newest first.
// With countOnly=true it returns just the derived unread count.
func (h *Handler) Notifications(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	if r.URL.Query().Get("countOnly") == "true" {
		count, err := h.chat.UnreadCount(r.Context(), user.ID)
		if err != nil {
			h.Fail(w, err)
			return
		}
		h.JSON(w, http.StatusOK, map[string]int{"count": count})
		return
	}

	notifications, err := h.chat.Notifications(r.Context(), user.ID)
	if err != nil {
		h.Fail(w, err)
		return
	}
	h.JSON(w, http.StatusOK, notifications)
}
