package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/diagnosis/heritage-portal/internal/calendar"
	"github.com/diagnosis/heritage-portal/internal/domain"
	"github.com/diagnosis/heritage-portal/internal/platform/cache"
	"github.com/diagnosis/heritage-portal/internal/summary"
	"github.com/diagnosis/heritage-portal/internal/wizard"
	"github.com/diagnosis/heritage-portal/pkg/logger"
	"github.com/google/uuid"
)

const sessionLockTTL = 30 * time.Second

// SessionStore persists wizard drafts between requests.
type SessionStore interface {
	Get(ctx context.Context, id string, v any) error
	Put(ctx context.Context, id string, v any) error
	Delete(ctx context.Context, id string) error
}

// Locker serialises writes to one draft across requests and instances.
// Acquire returns cache.ErrLocked when someone else holds it.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

type WizardView struct {
	ID       string                 `json:"id"`
	State    wizard.State           `json:"state"`
	Title    string                 `json:"month_title"`
	Weekdays []string               `json:"weekdays"`
	Grid     []calendar.Cell        `json:"grid"`
	Price    *domain.PriceBreakdown `json:"price,omitempty"`
	Summary  *summary.Summary       `json:"summary,omitempty"`
}

// WizardOpening is either a new session or a redirect when the room is gone.
type WizardOpening struct {
	View     *WizardView
	Redirect *Redirect
}

type WizardService interface {
	Open(ctx context.Context, userID, email, roomID string) (WizardOpening, error)
	Get(ctx context.Context, userID, id string) (*WizardView, error)
	Apply(ctx context.Context, userID, id string, ev wizard.Event) (*WizardView, error)
	Cancel(ctx context.Context, userID, id string) error
}

type wizardService struct {
	catalog  CatalogService
	bookings BookingService
	store    SessionStore
	locker   Locker
	builder  summary.Builder
	now      func() time.Time
	newID    func() string
}

type WizardOption func(*wizardService)

func WithClock(now func() time.Time) WizardOption {
	return func(s *wizardService) { s.now = now }
}

func WithIDs(newID func() string) WizardOption {
	return func(s *wizardService) { s.newID = newID }
}

func WithCurrency(symbol string) WizardOption {
	return func(s *wizardService) { s.builder = summary.NewBuilder(symbol) }
}

func NewWizardService(catalog CatalogService, bookings BookingService, store SessionStore, locker Locker, opts ...WizardOption) WizardService {
	s := &wizardService{
		catalog:  catalog,
		bookings: bookings,
		store:    store,
		locker:   locker,
		builder:  summary.NewBuilder(summary.DefaultCurrency),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open starts a draft for roomID. Nights already taken for the room are
// carried in the draft; the calendar blocks the days no stay can use.
func (s *wizardService) Open(ctx context.Context, userID, email, roomID string) (WizardOpening, error) {
	if userID == "" {
		return WizardOpening{}, domain.ErrUnauthorized
	}

	entry, err := s.catalog.BeginBooking(ctx, roomID)
	if err != nil {
		return WizardOpening{}, err
	}
	if entry.Redirect != nil {
		return WizardOpening{Redirect: entry.Redirect}, nil
	}

	today := domain.DateOf(s.now())
	taken, err := s.bookings.ReservedNights(ctx, entry.Room.ID, today)
	if err != nil {
		return WizardOpening{}, fmt.Errorf("load reserved nights: %w", err)
	}

	st, err := wizard.Open(wizard.Options{
		UserID:         userID,
		Email:          email,
		Room:           *entry.Room,
		Today:          today,
		Taken:          taken,
		IdempotencyKey: s.newID(),
	})
	if err != nil {
		return WizardOpening{}, domain.ErrUnauthorized
	}

	id := s.newID()
	if err := s.store.Put(ctx, id, st); err != nil {
		return WizardOpening{}, err
	}
	logger.InfoContext(ctx, "Booking wizard opened", "session_id", id, "room_id", roomID)

	view := s.view(id, st)
	return WizardOpening{View: &view}, nil
}

func (s *wizardService) Get(ctx context.Context, userID, id string) (*WizardView, error) {
	st, err := s.load(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	view := s.view(id, st)
	return &view, nil
}

// Apply runs one event against the stored draft under the session lock.
// While another request holds it, typically a confirmation being written,
// the event is dropped and the stored state is returned.
func (s *wizardService) Apply(ctx context.Context, userID, id string, ev wizard.Event) (*WizardView, error) {
	if _, err := s.load(ctx, userID, id); err != nil {
		return nil, err
	}

	release, err := s.locker.Acquire(ctx, sessionLockKey(id), sessionLockTTL)
	if errors.Is(err, cache.ErrLocked) {
		logger.InfoContext(ctx, "Wizard session busy, event dropped", "session_id", id, "event", fmt.Sprintf("%T", ev))
		return s.Get(ctx, userID, id)
	}
	if err != nil {
		return nil, err
	}
	defer release()

	st, err := s.lockedLoad(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if _, ok := ev.(wizard.Cancel); ok {
		if err := s.store.Delete(ctx, id); err != nil {
			return nil, err
		}
		st, _ = wizard.Transition(st, ev)
		view := s.view(id, st)
		return &view, nil
	}

	if _, ok := ev.(wizard.Next); ok && st.Step == wizard.StepPayment && !st.Closed {
		st, err = s.submit(ctx, id, st, ev)
	} else {
		st, _ = wizard.Transition(st, ev)
		err = s.store.Put(ctx, id, st)
	}
	if err != nil {
		return nil, err
	}
	view := s.view(id, st)
	return &view, nil
}

// submit writes the booking for st. The caller holds the session lock.
func (s *wizardService) submit(ctx context.Context, id string, st wizard.State, ev wizard.Event) (wizard.State, error) {
	var ctrl *wizard.Controller
	creator := wizard.CreatorFunc(func(ctx context.Context, rec domain.BookingRecord) (string, error) {
		if err := s.store.Put(ctx, id, ctrl.State()); err != nil {
			logger.WarnContext(ctx, "Failed to persist loading state", "error", err, "session_id", id)
		}
		b, err := s.bookings.CreateBooking(ctx, rec)
		if err != nil {
			logger.ErrorContext(ctx, "Booking submission failed", "error", err, "session_id", id)
			return "", err
		}
		return b.ID, nil
	})
	ctrl = wizard.NewController(st, creator, func(bookingID string) {
		logger.InfoContext(ctx, "Booking wizard completed", "session_id", id, "booking_id", bookingID)
	})

	final := ctrl.Dispatch(ctx, ev)
	if err := s.store.Put(ctx, id, final); err != nil {
		return wizard.State{}, err
	}
	return final, nil
}

// Cancel discards the draft. A draft whose confirmation is being written
// cannot be cancelled.
func (s *wizardService) Cancel(ctx context.Context, userID, id string) error {
	if _, err := s.load(ctx, userID, id); err != nil {
		return err
	}
	release, err := s.locker.Acquire(ctx, sessionLockKey(id), sessionLockTTL)
	if errors.Is(err, cache.ErrLocked) {
		return domain.ErrConflict
	}
	if err != nil {
		return err
	}
	defer release()
	return s.store.Delete(ctx, id)
}

func sessionLockKey(id string) string {
	return "session:" + id
}

// lockedLoad reloads the draft once the lock is held. A Loading flag found
// here was left by a holder that died mid-write; the idempotency key makes
// a second attempt safe.
func (s *wizardService) lockedLoad(ctx context.Context, userID, id string) (wizard.State, error) {
	st, err := s.load(ctx, userID, id)
	if err != nil {
		return wizard.State{}, err
	}
	st.Loading = false
	return st, nil
}

// load returns the draft for id. Another user's draft is reported as
// missing.
func (s *wizardService) load(ctx context.Context, userID, id string) (wizard.State, error) {
	if userID == "" {
		return wizard.State{}, domain.ErrUnauthorized
	}
	var st wizard.State
	if err := s.store.Get(ctx, id, &st); err != nil {
		return wizard.State{}, err
	}
	if st.UserID != userID {
		return wizard.State{}, domain.ErrNotFound
	}
	return st, nil
}

func (s *wizardService) view(id string, st wizard.State) WizardView {
	cal := st.Draft.Calendar
	v := WizardView{
		ID:       id,
		State:    st,
		Title:    cal.Title(),
		Weekdays: calendar.Weekdays,
		Grid:     cal.Grid(),
	}
	if p, ok := st.Price(); ok {
		v.Price = &p
	}
	if st.Step == wizard.StepPayment {
		room := st.Draft.Room
		sum := s.builder.Build(&room, st.Draft.Range(), st.Draft.Guest)
		v.Summary = &sum
	}
	return v
}
