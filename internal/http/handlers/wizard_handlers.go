package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/diagnosis/heritage-portal/internal/http/middleware"
	"github.com/diagnosis/heritage-portal/internal/http/response"
	"github.com/diagnosis/heritage-portal/internal/wizard"
	"github.com/go-chi/chi/v5"
)

type openWizardRequest struct {
	RoomID string `json:"room_id"`
}

// OpenWizard starts a booking draft. An unknown room answers 200 with a
// redirect to the catalog instead of an error.
func (h *Handlers) OpenWizard(w http.ResponseWriter, r *http.Request) {
	var req openWizardRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var email string
	if c := middleware.Claims(r); c != nil {
		email = c.Email
	}
	opening, err := h.wizard.Open(r.Context(), userID(r), email, req.RoomID)
	if err != nil {
		response.FromError(r.Context(), w, err)
		return
	}
	if opening.Redirect != nil {
		response.WriteJSON(w, http.StatusOK, opening.Redirect)
		return
	}
	response.WriteJSON(w, http.StatusCreated, opening.View)
}

func (h *Handlers) GetWizard(w http.ResponseWriter, r *http.Request) {
	view, err := h.wizard.Get(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		response.FromError(r.Context(), w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, view)
}

func (h *Handlers) ApplyWizardEvent(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	ev, err := wizard.DecodeEvent(body)
	if errors.Is(err, wizard.ErrUnknownEvent) {
		response.BadRequest(w, "Unknown event type")
		return
	}
	if err != nil {
		response.BadRequest(w, "Invalid event")
		return
	}

	view, err := h.wizard.Apply(r.Context(), userID(r), chi.URLParam(r, "id"), ev)
	if err != nil {
		response.FromError(r.Context(), w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, view)
}

func (h *Handlers) CancelWizard(w http.ResponseWriter, r *http.Request) {
	if err := h.wizard.Cancel(r.Context(), userID(r), chi.URLParam(r, "id")); err != nil {
		response.FromError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
