package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/diagnosis/heritage-portal/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type BookingRepository interface {
	Create(ctx context.Context, rec domain.BookingRecord) (*domain.Booking, bool, error)
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Booking, error)
	ReservedNights(ctx context.Context, roomID string, from domain.Date) ([]domain.Date, error)
}

const exclusionViolation = "23P01"

type bookingRepository struct {
	pool *pgxpool.Pool
}

func NewBookingRepository(pool *pgxpool.Pool) BookingRepository {
	return &bookingRepository{pool: pool}
}

const bookingCols = `b.id::text, b.user_id::text, b.room_id::text, b.check_in, b.check_out,
b.guests, b.adults, b.children, b.full_name, b.phone, b.email,
b.total_amount::text, b.status, b.special_requests, b.created_at`

// Room columns come from a LEFT JOIN and are all nullable.
const joinedRoomCols = `r.id::text, r.category, r.name, r.description, r.size, r.occupancy,
r.rate::text, r.amenities, r.images, r.is_available`

// Create stores rec as a pending booking. When rec carries an idempotency
// key the key is claimed in the same transaction; if another booking already
// holds it, that booking's id is returned with created false and nothing is
// inserted. Overlapping stays are refused by the bookings_no_overlap
// constraint and reported against the dates field.
func (r *bookingRepository) Create(ctx context.Context, rec domain.BookingRecord) (*domain.Booking, bool, error) {
	const q = `INSERT INTO bookings (
		user_id, room_id, check_in, check_out,
		guests, adults, children, full_name, phone, email,
		total_amount, status, special_requests
	) VALUES ($1::uuid,$2::uuid,$3,$4,$5,$6,$7,$8,$9,$10,$11::numeric,'pending',$12)
	RETURNING id::text, status, created_at`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, false, upstream("begin booking", err)
	}
	defer tx.Rollback(ctx)

	if rec.IdempotencyKey != "" {
		winner, err := claimKey(ctx, tx, rec.IdempotencyKey)
		if err != nil {
			return nil, false, err
		}
		if winner != "" {
			return &domain.Booking{ID: winner}, false, nil
		}
	}

	b := domain.Booking{
		UserID:          rec.UserID,
		RoomID:          rec.RoomID,
		CheckIn:         rec.CheckIn,
		CheckOut:        rec.CheckOut,
		Guests:          rec.Guests,
		Adults:          rec.Adults,
		Children:        rec.Children,
		FullName:        rec.FullName,
		Phone:           rec.Phone,
		Email:           rec.Email,
		TotalAmount:     rec.TotalAmount,
		SpecialRequests: rec.SpecialRequests,
	}
	var status string
	err = tx.QueryRow(ctx, q,
		rec.UserID, rec.RoomID, rec.CheckIn.Time(), rec.CheckOut.Time(),
		rec.Guests, rec.Adults, rec.Children, rec.FullName, rec.Phone, rec.Email,
		rec.TotalAmount.String(), rec.SpecialRequests,
	).Scan(&b.ID, &status, &b.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == exclusionViolation {
		return nil, false, domain.FieldErrors{domain.FieldDates: domain.MsgDatesTaken}
	}
	if err != nil {
		return nil, false, upstream("insert booking", err)
	}
	b.Status = domain.BookingStatus(status)

	if rec.IdempotencyKey != "" {
		if err := bindKey(ctx, tx, rec.IdempotencyKey, b.ID); err != nil {
			return nil, false, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, false, upstream("commit booking", err)
	}
	return &b, true, nil
}

func (r *bookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	const q = `SELECT ` + bookingCols + `, ` + joinedRoomCols + `
		FROM bookings b
		LEFT JOIN rooms r ON r.id = b.room_id
		WHERE b.id::text = $1`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	b, err := scanBookingWithRoom(r.pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *bookingRepository) ListByUser(ctx context.Context, userID string) ([]domain.Booking, error) {
	const q = `SELECT ` + bookingCols + `, ` + joinedRoomCols + `
		FROM bookings b
		LEFT JOIN rooms r ON r.id = b.room_id
		WHERE b.user_id::text = $1
		ORDER BY b.check_in DESC, b.created_at DESC`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, upstream("query bookings", err)
	}
	defer rows.Close()

	bs := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scanBookingWithRoom(rows)
		if err != nil {
			return nil, err
		}
		bs = append(bs, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, upstream("read bookings", err)
	}
	return bs, nil
}

// ReservedNights lists every night already taken in the room from the
// given day on. Cancelled bookings do not hold nights.
func (r *bookingRepository) ReservedNights(ctx context.Context, roomID string, from domain.Date) ([]domain.Date, error) {
	const q = `SELECT check_in, check_out
		FROM bookings
		WHERE room_id::text = $1 AND status <> 'cancelled' AND check_out > $2
		ORDER BY check_in`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, roomID, from.Time())
	if err != nil {
		return nil, upstream("query reserved nights", err)
	}
	defer rows.Close()

	var nights []domain.Date
	for rows.Next() {
		var in, out time.Time
		if err := rows.Scan(&in, &out); err != nil {
			return nil, upstream("scan reserved nights", err)
		}
		for d := domain.DateOf(in); d.Before(domain.DateOf(out)); d = d.AddDays(1) {
			if !d.Before(from) {
				nights = append(nights, d)
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, upstream("read reserved nights", err)
	}
	return nights, nil
}

func scanBookingWithRoom(row pgx.Row) (*domain.Booking, error) {
	var (
		b             domain.Booking
		checkIn       time.Time
		checkOut      time.Time
		total, status string
		bookedRoomID  *string

		roomID, category, name, description, rate *string
		size, occupancy                           *int
		amenities, images                         []string
		available                                 *bool
	)
	err := row.Scan(
		&b.ID, &b.UserID, &bookedRoomID, &checkIn, &checkOut,
		&b.Guests, &b.Adults, &b.Children, &b.FullName, &b.Phone, &b.Email,
		&total, &status, &b.SpecialRequests, &b.CreatedAt,
		&roomID, &category, &name, &description, &size, &occupancy,
		&rate, &amenities, &images, &available,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, upstream("scan booking", err)
	}

	b.RoomID = deref(bookedRoomID)
	b.CheckIn = domain.DateOf(checkIn)
	b.CheckOut = domain.DateOf(checkOut)
	if b.TotalAmount, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("booking %s total: %w", b.ID, err)
	}
	var ok bool
	if b.Status, ok = domain.ParseBookingStatus(status); !ok {
		return nil, fmt.Errorf("booking %s: unknown status %q", b.ID, status)
	}

	if roomID == nil {
		return &b, nil
	}
	room := domain.Room{
		ID:          *roomID,
		Name:        deref(name),
		Description: deref(description),
		Amenities:   amenities,
		Images:      images,
	}
	if size != nil {
		room.Size = *size
	}
	if occupancy != nil {
		room.Occupancy = *occupancy
	}
	if available != nil {
		room.IsAvailable = *available
	}
	if room.Category, err = domain.ParseCategory(deref(category)); err != nil {
		return nil, fmt.Errorf("room %s: %w", room.ID, err)
	}
	if rate != nil {
		if room.Rate, err = decimal.NewFromString(*rate); err != nil {
			return nil, fmt.Errorf("room %s rate: %w", room.ID, err)
		}
	}
	b.Room = &room
	return &b, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
