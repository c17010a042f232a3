package handlers

import (
	"net/http"

	"github.com/diagnosis/heritage-portal/internal/http/middleware"
	"github.com/diagnosis/heritage-portal/internal/http/response"
	"github.com/diagnosis/heritage-portal/internal/platform/contact"
)

func (h *Handlers) Contact(w http.ResponseWriter, r *http.Request) {
	var msg contact.Message
	if !decodeJSON(w, r, &msg) {
		return
	}
	if err := h.contact.Submit(r.Context(), middleware.ClientIP(r), msg); err != nil {
		response.FromError(r.Context(), w, err)
		return
	}
	response.WriteJSON(w, http.StatusAccepted, map[string]bool{"success": true})
}
