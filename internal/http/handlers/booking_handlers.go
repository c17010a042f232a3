package handlers

import (
	"net/http"
	"strings"

	"github.com/diagnosis/heritage-portal/internal/domain"
	"github.com/diagnosis/heritage-portal/internal/http/response"
	"github.com/diagnosis/heritage-portal/internal/summary"
	"github.com/go-chi/chi/v5"
)

type createBookingRequest struct {
	RoomID   string           `json:"room_id"`
	CheckIn  *domain.Date     `json:"check_in"`
	CheckOut *domain.Date     `json:"check_out"`
	Guest    domain.GuestInfo `json:"guest"`
}

type bookingView struct {
	Booking *domain.Booking `json:"booking"`
	Summary summary.Summary `json:"summary"`
}

func (h *Handlers) bookingView(b *domain.Booking) bookingView {
	return bookingView{Booking: b, Summary: h.summary.FromBooking(*b)}
}

// CreateBooking writes a booking directly, outside the wizard. The total
// is always computed on the server.
func (h *Handlers) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req createBookingRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.RoomID) == "" {
		response.FromError(r.Context(), w, domain.FieldErrors{domain.FieldSubmit: "Room is required"})
		return
	}

	rec := domain.NewBookingRecord(
		userID(r),
		domain.Room{ID: req.RoomID},
		domain.DateRange{CheckIn: req.CheckIn, CheckOut: req.CheckOut},
		req.Guest,
		domain.PriceBreakdown{},
		strings.TrimSpace(r.Header.Get("Idempotency-Key")),
	)
	booking, err := h.bookings.CreateBooking(r.Context(), rec)
	if err != nil {
		response.FromError(r.Context(), w, err)
		return
	}
	response.WriteJSON(w, http.StatusCreated, h.bookingView(booking))
}

// ListBookings is the booking history, newest stay first.
func (h *Handlers) ListBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.bookings.ListBookings(r.Context(), userID(r))
	if err != nil {
		response.FromError(r.Context(), w, err)
		return
	}
	out := make([]bookingView, 0, len(bookings))
	for i := range bookings {
		out = append(out, h.bookingView(&bookings[i]))
	}
	response.WriteJSON(w, http.StatusOK, out)
}

func (h *Handlers) GetBooking(w http.ResponseWriter, r *http.Request) {
	b, err := h.bookings.GetBooking(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		response.FromError(r.Context(), w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, h.bookingView(b))
}
