// Package wizard implements the three-step booking flow as explicit state
// transitions. Transition is pure; Controller owns one session's state and
// performs the submission side effect.
package wizard

import (
	"errors"

	"github.com/diagnosis/heritage-portal/internal/calendar"
	"github.com/diagnosis/heritage-portal/internal/domain"
)

type Step string

const (
	StepGuestInfo Step = "guest-info"
	StepDates     Step = "dates"
	StepPayment   Step = "payment"
)

var ErrNoUser = errors.New("wizard requires a signed-in user")

type Draft struct {
	Room     domain.Room      `json:"room"`
	Guest    domain.GuestInfo `json:"guest"`
	Calendar calendar.State   `json:"calendar"`
	// Taken lists nights other bookings hold for the room.
	Taken []domain.Date `json:"taken,omitempty"`
}

func (d Draft) Range() domain.DateRange {
	return d.Calendar.Range()
}

// checkDates validates the selected range and refuses one that covers a
// taken night.
func (d Draft) checkDates() domain.FieldErrors {
	r := d.Range()
	if errs := domain.ValidateDates(r); !errs.Valid() {
		return errs
	}
	if r.Overlaps(d.Taken) {
		return domain.FieldErrors{domain.FieldDates: domain.MsgDatesTaken}
	}
	return nil
}

type State struct {
	UserID         string             `json:"user_id"`
	Step           Step               `json:"step"`
	Draft          Draft              `json:"draft"`
	Errors         domain.FieldErrors `json:"errors,omitempty"`
	Loading        bool               `json:"loading"`
	Closed         bool               `json:"closed"`
	Cancelled      bool               `json:"cancelled,omitempty"`
	BookingID      string             `json:"booking_id,omitempty"`
	IdempotencyKey string             `json:"idempotency_key"`
}

// Options seed a new session.
type Options struct {
	UserID         string
	Email          string
	Room           domain.Room
	Today          domain.Date
	Taken          []domain.Date
	IdempotencyKey string
}

// Open starts a draft on the guest-info step with one adult and the
// signed-in user's email pre-filled.
func Open(opts Options) (State, error) {
	if opts.UserID == "" {
		return State{}, ErrNoUser
	}
	return State{
		UserID: opts.UserID,
		Step:   StepGuestInfo,
		Draft: Draft{
			Room:     opts.Room,
			Guest:    domain.GuestInfo{Email: opts.Email, Adults: 1},
			Calendar: calendar.NewState(opts.Today, opts.Disabled),
		},
		IdempotencyKey: opts.IdempotencyKey,
	}, nil
}

// Price is the breakdown for the current draft, if its dates are complete.
func (s State) Price() (domain.PriceBreakdown, bool) {
	p, err := domain.PriceRange(s.Draft.Room.Rate, s.Draft.Range())
	return p, err == nil
}
