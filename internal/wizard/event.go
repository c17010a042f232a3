package wizard

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/diagnosis/heritage-portal/internal/domain"
)

type Event interface {
	eventType() string
}

type EditGuest struct {
	Guest domain.GuestInfo `json:"guest"`
}

type SelectDate struct {
	Date domain.Date `json:"date"`
}

type NextMonth struct{}
type PrevMonth struct{}
type Next struct{}
type Cancel struct{}

type SubmitSucceeded struct {
	BookingID string
}

type SubmitFailed struct {
	Message string
	Fields  domain.FieldErrors
}

func (EditGuest) eventType() string { return "edit_guest" }
func (SelectDate) eventType() string { return "select_date" }
func (NextMonth) eventType() string { return "next_month" }
func (PrevMonth) eventType() string { return "prev_month" }
func (Next) eventType() string { return "next" }
func (Cancel) eventType() string { return "cancel" }
func (SubmitSucceeded) eventType() string { return "submit_succeeded" }
func (SubmitFailed) eventType() string { return "submit_failed" }

// Command is a side effect requested by a transition.
type Command interface {
	command()
}

type Submit struct {
	Record domain.BookingRecord
}

func (Submit) command() {}

const submitFailedMessage = "Failed to create booking. Please try again."

// Failed converts a CreateBooking error into the event fed back to the
// wizard. Validation failures keep their field messages.
func Failed(err error) SubmitFailed {
	if fe, ok := domain.AsFieldErrors(err); ok {
		return SubmitFailed{Message: "Please review your booking details", Fields: fe}
	}
	return SubmitFailed{Message: submitFailedMessage}
}

var ErrUnknownEvent = errors.New("unknown wizard event")

type envelope struct {
	Type  string            `json:"type"`
	Guest *domain.GuestInfo `json:"guest,omitempty"`
	Date  *domain.Date      `json:"date,omitempty"`
}

// DecodeEvent reads a client event such as {"type":"select_date","date":"2024-01-10"}.
// Submission outcomes are internal and cannot be sent by clients.
func DecodeEvent(b []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}

	switch env.Type {
	case "edit_guest":
		if env.Guest == nil {
			return nil, fmt.Errorf("edit_guest: missing guest")
		}
		return EditGuest{Guest: *env.Guest}, nil
	case "select_date":
		if env.Date == nil || env.Date.IsZero() {
			return nil, fmt.Errorf("select_date: missing date")
		}
		return SelectDate{Date: *env.Date}, nil
	case "next_month":
		return NextMonth{}, nil
	case "prev_month":
		return PrevMonth{}, nil
	case "next":
		return Next{}, nil
	case "cancel":
		return Cancel{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Type)
	}
}
