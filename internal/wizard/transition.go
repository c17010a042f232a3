package wizard

import (
	"github.com/diagnosis/heritage-portal/internal/domain"
)

// Transition applies ev to s. The returned command is nil unless the
// event asks for a booking to be written. A closed wizard ignores events.
func Transition(s State, ev Event) (State, Command) {
	if s.Closed {
		return s, nil
	}

	switch e := ev.(type) {
	case Cancel:
		// The write in flight decides the outcome.
		if s.Loading {
			return s, nil
		}
		s.Closed = true
		s.Cancelled = true
		s.Loading = false
		return s, nil

	case EditGuest:
		if s.Step != StepGuestInfo {
			return s, nil
		}
		s.Draft.Guest = e.Guest
		return s, nil

	case SelectDate:
		if s.Step != StepDates {
			return s, nil
		}
		s.Draft.Calendar, _ = s.Draft.Calendar.Select(e.Date)
		return s, nil

	case NextMonth:
		if s.Step == StepDates {
			s.Draft.Calendar = s.Draft.Calendar.NextMonth()
		}
		return s, nil

	case PrevMonth:
		if s.Step == StepDates {
			s.Draft.Calendar = s.Draft.Calendar.PrevMonth()
		}
		return s, nil

	case Next:
		return next(s)

	case SubmitSucceeded:
		if !s.Loading {
			return s, nil
		}
		s.Loading = false
		s.Closed = true
		s.BookingID = e.BookingID
		s.Errors = nil
		return s, nil

	case SubmitFailed:
		if !s.Loading {
			return s, nil
		}
		s.Loading = false
		errs := domain.FieldErrors{domain.FieldSubmit: e.Message}
		s.Errors = errs.Merge(e.Fields)
		return s, nil
	}

	return s, nil
}

func next(s State) (State, Command) {
	switch s.Step {
	case StepGuestInfo:
		s.Draft.Guest = domain.NormalizeGuestInfo(s.Draft.Guest)
		if errs := domain.ValidateGuestInfo(s.Draft.Guest, s.Draft.Room); !errs.Valid() {
			s.Errors = errs
			return s, nil
		}
		s.Errors = nil
		s.Step = StepDates
		return s, nil

	case StepDates:
		if errs := s.Draft.checkDates(); !errs.Valid() {
			s.Errors = errs
			return s, nil
		}
		s.Errors = nil
		s.Step = StepPayment
		return s, nil

	case StepPayment:
		if s.Loading {
			return s, nil
		}
		return submit(s)
	}
	return s, nil
}

// submit re-checks the whole draft before asking for the write, so a
// session restored from storage cannot skip a guard.
func submit(s State) (State, Command) {
	errs := domain.ValidateGuestInfo(s.Draft.Guest, s.Draft.Room).Merge(s.Draft.checkDates())
	if !errs.Valid() {
		s.Errors = errs
		return s, nil
	}

	price, err := domain.PriceRange(s.Draft.Room.Rate, s.Draft.Range())
	if err != nil {
		if fe, ok := domain.AsFieldErrors(err); ok {
			s.Errors = fe
		} else {
			s.Errors = domain.FieldErrors{domain.FieldSubmit: submitFailedMessage}
		}
		return s, nil
	}

	rec := domain.NewBookingRecord(s.UserID, s.Draft.Room, s.Draft.Range(), s.Draft.Guest, price, s.IdempotencyKey)
	s.Errors = nil
	s.Loading = true
	return s, Submit{Record: rec}
}
