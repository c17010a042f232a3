package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

func ParseBookingStatus(s string) (BookingStatus, bool) {
	switch BookingStatus(s) {
	case BookingPending, BookingConfirmed, BookingCancelled:
		return BookingStatus(s), true
	default:
		return "", false
	}
}

type GuestInfo struct {
	FullName        string `json:"full_name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Adults          int    `json:"adults"`
	Children        int    `json:"children"`
	SpecialRequests string `json:"special_requests,omitempty"`
}

func (g GuestInfo) Guests() int {
	return g.Adults + g.Children
}

// BookingRecord is the write payload handed to the booking store.
type BookingRecord struct {
	UserID          string          `json:"user_id"`
	RoomID          string          `json:"room_id"`
	CheckIn         Date            `json:"check_in"`
	CheckOut        Date            `json:"check_out"`
	Guests          int             `json:"guests"`
	Adults          int             `json:"adults"`
	Children        int             `json:"children"`
	FullName        string          `json:"full_name"`
	Phone           string          `json:"phone"`
	Email           string          `json:"email"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	SpecialRequests *string         `json:"special_requests,omitempty"`
	IdempotencyKey  string          `json:"idempotency_key,omitempty"`
}

// NewBookingRecord assembles the record for a finished draft.
func NewBookingRecord(userID string, room Room, r DateRange, g GuestInfo, price PriceBreakdown, idempotencyKey string) BookingRecord {
	rec := BookingRecord{
		UserID:         userID,
		RoomID:         room.ID,
		Guests:         g.Guests(),
		Adults:         g.Adults,
		Children:       g.Children,
		FullName:       g.FullName,
		Phone:          g.Phone,
		Email:          g.Email,
		TotalAmount:    price.Total,
		IdempotencyKey: idempotencyKey,
	}
	if r.CheckIn != nil {
		rec.CheckIn = *r.CheckIn
	}
	if r.CheckOut != nil {
		rec.CheckOut = *r.CheckOut
	}
	if g.SpecialRequests != "" {
		req := g.SpecialRequests
		rec.SpecialRequests = &req
	}
	return rec
}

type Booking struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	RoomID          string          `json:"room_id"`
	CheckIn         Date            `json:"check_in"`
	CheckOut        Date            `json:"check_out"`
	Guests          int             `json:"guests"`
	Adults          int             `json:"adults"`
	Children        int             `json:"children"`
	FullName        string          `json:"full_name"`
	Phone           string          `json:"phone"`
	Email           string          `json:"email"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Status          BookingStatus   `json:"status"`
	SpecialRequests *string         `json:"special_requests,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	Room            *Room           `json:"room,omitempty"`
}

func (b *Booking) IsOwner(userID string) bool {
	return b.UserID != "" && b.UserID == userID
}

func (b Booking) Range() DateRange {
	in, out := b.CheckIn, b.CheckOut
	return DateRange{CheckIn: &in, CheckOut: &out}
}

func (b Booking) GuestInfo() GuestInfo {
	g := GuestInfo{
		FullName: b.FullName,
		Email:    b.Email,
		Phone:    b.Phone,
		Adults:   b.Adults,
		Children: b.Children,
	}
	if b.SpecialRequests != nil {
		g.SpecialRequests = *b.SpecialRequests
	}
	return g
}

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
