package wizard

import (
	"context"
	"sync"

	"github.com/diagnosis/heritage-portal/internal/domain"
)

// Creator writes a finished booking and returns its id.
type Creator interface {
	CreateBooking(ctx context.Context, rec domain.BookingRecord) (string, error)
}

type CreatorFunc func(ctx context.Context, rec domain.BookingRecord) (string, error)

func (f CreatorFunc) CreateBooking(ctx context.Context, rec domain.BookingRecord) (string, error) {
	return f(ctx, rec)
}

// Controller drives one session. Events are applied one at a time; the
// booking write runs without the lock held so the state can still be read
// while it is in flight.
type Controller struct {
	mu        sync.Mutex
	state     State
	creator   Creator
	onSuccess func(bookingID string)
}

func NewController(s State, creator Creator, onSuccess func(bookingID string)) *Controller {
	return &Controller{state: s, creator: creator, onSuccess: onSuccess}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Dispatch applies ev and, when it triggers a submission, waits for the
// write and applies its outcome.
func (c *Controller) Dispatch(ctx context.Context, ev Event) State {
	c.mu.Lock()
	next, cmd := Transition(c.state, ev)
	c.state = next
	c.mu.Unlock()

	submit, ok := cmd.(Submit)
	if !ok {
		return next
	}

	var outcome Event
	id, err := c.creator.CreateBooking(ctx, submit.Record)
	if err != nil {
		outcome = Failed(err)
	} else {
		outcome = SubmitSucceeded{BookingID: id}
	}

	c.mu.Lock()
	final, _ := Transition(c.state, outcome)
	c.state = final
	c.mu.Unlock()

	if err == nil && c.onSuccess != nil {
		c.onSuccess(id)
	}
	return final
}
