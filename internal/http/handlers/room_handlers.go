package handlers

import (
	"net/http"
	"strings"

	"github.com/diagnosis/heritage-portal/internal/domain"
	"github.com/diagnosis/heritage-portal/internal/http/response"
	"github.com/go-chi/chi/v5"
)

type roomView struct {
	domain.Room
	CoverImage    string           `json:"cover_image"`
	AmenityDetail []domain.Amenity `json:"amenity_detail"`
}

func newRoomView(r domain.Room) roomView {
	return roomView{Room: r, CoverImage: r.CoverImage(), AmenityDetail: r.AmenityList()}
}

// ListRooms accepts ?category=Deluxe&category=Suite or a comma separated
// list. Without a filter every category is listed.
func (h *Handlers) ListRooms(w http.ResponseWriter, r *http.Request) {
	var cats []domain.Category
	for _, raw := range r.URL.Query()["category"] {
		for _, part := range strings.Split(raw, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			c, err := domain.ParseCategory(part)
			if err != nil {
				response.BadRequest(w, err.Error())
				return
			}
			cats = append(cats, c)
		}
	}

	rooms, err := h.catalog.ListRooms(r.Context(), cats)
	if err != nil {
		response.FromError(r.Context(), w, err)
		return
	}

	out := make([]roomView, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, newRoomView(room))
	}
	response.WriteJSON(w, http.StatusOK, out)
}

func (h *Handlers) GetRoom(w http.ResponseWriter, r *http.Request) {
	room, err := h.catalog.GetRoom(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.FromError(r.Context(), w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, newRoomView(*room))
}
