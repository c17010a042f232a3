package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/diagnosis/heritage-portal/internal/domain"
	"github.com/diagnosis/heritage-portal/internal/repository"
	"github.com/diagnosis/heritage-portal/pkg/events"
	"github.com/diagnosis/heritage-portal/pkg/logger"
)

type BookingService interface {
	CreateBooking(ctx context.Context, rec domain.BookingRecord) (*domain.Booking, error)
	ListBookings(ctx context.Context, userID string) ([]domain.Booking, error)
	GetBooking(ctx context.Context, userID, id string) (*domain.Booking, error)
	ReservedNights(ctx context.Context, roomID string, from domain.Date) ([]domain.Date, error)
}

type bookingService struct {
	bookings    repository.BookingRepository
	rooms       repository.RoomRepository
	idempotency repository.IdempotencyRepository
	publisher   events.Publisher
}

func NewBookingService(
	bookings repository.BookingRepository,
	rooms repository.RoomRepository,
	idempotency repository.IdempotencyRepository,
	publisher events.Publisher,
) BookingService {
	return &bookingService{
		bookings:    bookings,
		rooms:       rooms,
		idempotency: idempotency,
		publisher:   publisher,
	}
}

// CreateBooking checks the record against the room, prices it on the
// server and stores it as pending. A repeated idempotency key returns the
// booking created the first time, including when both requests race: the
// key is claimed in the same transaction as the insert.
func (s *bookingService) CreateBooking(ctx context.Context, rec domain.BookingRecord) (*domain.Booking, error) {
	if rec.UserID == "" {
		return nil, domain.ErrUnauthorized
	}

	if rec.IdempotencyKey != "" {
		existingID, err := s.idempotency.Lookup(ctx, rec.IdempotencyKey)
		if err != nil {
			return nil, fmt.Errorf("idempotency check failed: %w", err)
		}
		if existingID != "" {
			return s.replay(ctx, rec.UserID, existingID)
		}
	}

	room, err := s.rooms.GetByID(ctx, rec.RoomID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.FieldErrors{domain.FieldSubmit: "Room information not available"}
	}
	if err != nil {
		return nil, fmt.Errorf("load room: %w", err)
	}

	guest := domain.NormalizeGuestInfo(guestOf(rec))
	var r domain.DateRange
	if in := rec.CheckIn; !in.IsZero() {
		r.CheckIn = &in
	}
	if out := rec.CheckOut; !out.IsZero() {
		r.CheckOut = &out
	}
	if errs := domain.ValidateGuestInfo(guest, *room).Merge(domain.ValidateDates(r)); !errs.Valid() {
		return nil, errs
	}
	if !room.IsAvailable {
		return nil, domain.FieldErrors{domain.FieldSubmit: "This room is not accepting bookings"}
	}
	if err := s.checkNightsFree(ctx, room.ID, r); err != nil {
		return nil, err
	}

	price, err := domain.PriceRange(room.Rate, r)
	if err != nil {
		return nil, err
	}
	rec = domain.NewBookingRecord(rec.UserID, *room, r, guest, price, rec.IdempotencyKey)

	booking, created, err := s.bookings.Create(ctx, rec)
	if fe, ok := domain.AsFieldErrors(err); ok {
		return nil, fe
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}
	if !created {
		return s.replay(ctx, rec.UserID, booking.ID)
	}
	booking.Room = room

	event := events.BookingCreatedEvent{
		BookingID:   booking.ID,
		UserID:      booking.UserID,
		RoomID:      booking.RoomID,
		FullName:    booking.FullName,
		Email:       booking.Email,
		CheckIn:     booking.CheckIn.String(),
		CheckOut:    booking.CheckOut.String(),
		Guests:      booking.Guests,
		TotalAmount: booking.TotalAmount.String(),
		CreatedAt:   booking.CreatedAt,
	}
	if err := s.publisher.Publish(ctx, events.BookingCreated, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish booking created event", "error", err, "booking_id", booking.ID)
	}

	logger.InfoContext(ctx, "Booking created", "booking_id", booking.ID, "room_id", booking.RoomID, "nights", price.Nights)
	return booking, nil
}

// replay returns the booking an idempotency key already points at. A key
// reused by another user is a conflict.
func (s *bookingService) replay(ctx context.Context, userID, bookingID string) (*domain.Booking, error) {
	existing, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("load replayed booking: %w", err)
	}
	if !existing.IsOwner(userID) {
		return nil, domain.ErrConflict
	}
	logger.InfoContext(ctx, "Replaying booking for idempotency key", "booking_id", bookingID)
	return existing, nil
}

// checkNightsFree gives an early, friendly answer. The bookings_no_overlap
// constraint is what actually keeps stays apart.
func (s *bookingService) checkNightsFree(ctx context.Context, roomID string, r domain.DateRange) error {
	taken, err := s.bookings.ReservedNights(ctx, roomID, *r.CheckIn)
	if err != nil {
		return fmt.Errorf("load reserved nights: %w", err)
	}
	if r.Overlaps(taken) {
		return domain.FieldErrors{domain.FieldDates: domain.MsgDatesTaken}
	}
	return nil
}

func (s *bookingService) ListBookings(ctx context.Context, userID string) ([]domain.Booking, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	return s.bookings.ListByUser(ctx, userID)
}

// GetBooking hides other users' bookings behind ErrNotFound.
func (s *bookingService) GetBooking(ctx context.Context, userID, id string) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !b.IsOwner(userID) {
		return nil, domain.ErrNotFound
	}
	return b, nil
}

func (s *bookingService) ReservedNights(ctx context.Context, roomID string, from domain.Date) ([]domain.Date, error) {
	return s.bookings.ReservedNights(ctx, roomID, from)
}

func guestOf(rec domain.BookingRecord) domain.GuestInfo {
	g := domain.GuestInfo{
		FullName: rec.FullName,
		Email:    rec.Email,
		Phone:    rec.Phone,
		Adults:   rec.Adults,
		Children: rec.Children,
	}
	if rec.SpecialRequests != nil {
		g.SpecialRequests = *rec.SpecialRequests
	}
	return g
}
