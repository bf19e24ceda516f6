package handlers

import (
	"net/http"
	"strings"

	"github.com/parleychat/parley/internal/api/middleware"
)

// Heartbeat flags the authenticated user online. Clients call this on
// a fixed interval; a missed beat has no effect until another write
// overwrites the flag.
func (h *Handler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	if err := h.chat.SetPresence(r.Context(), user.ID, true); err != nil {
		h.Fail(w, err)
		return
	}
	h.JSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Presence returns online flags for a comma-separated list of user ids.
func (h *Handler) Presence(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("ids")
	if raw == "" {
		h.Error(w, http.StatusBadRequest, "ids is required")
		return
	}

	ids := make([]string, 0)
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}

	presence, err := h.chat.PresenceBulk(r.Context(), ids)
	if err != nil {
		h.Fail(w, err)
		return
	}
	h.JSON(w, http.StatusOK, presence)
}
