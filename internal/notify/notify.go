// Package notify sends booking confirmations in response to
// booking.created events.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/diagnosis/heritage-portal/internal/domain"
	"github.com/diagnosis/heritage-portal/internal/platform/mailer"
	"github.com/diagnosis/heritage-portal/internal/summary"
	"github.com/diagnosis/heritage-portal/pkg/events"
	"github.com/diagnosis/heritage-portal/pkg/logger"
)

type BookingLoader interface {
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
}

type Notifier struct {
	bookings BookingLoader
	sender   mailer.Sender
	hotel    string
	builder  summary.Builder
}

func New(bookings BookingLoader, sender mailer.Sender, hotel, currency string) *Notifier {
	return &Notifier{
		bookings: bookings,
		sender:   sender,
		hotel:    hotel,
		builder:  summary.NewBuilder(currency),
	}
}

// HandleBookingCreated emails the guest a summary of their booking. The
// booking is reloaded so the mail reflects what was stored.
func (n *Notifier) HandleBookingCreated(ctx context.Context, msg *events.Message) error {
	var ev events.BookingCreatedEvent
	if err := msg.Decode(&ev); err != nil {
		return err
	}

	b, err := n.bookings.GetByID(ctx, ev.BookingID)
	if errors.Is(err, domain.ErrNotFound) {
		logger.WarnContext(ctx, "Booking from event no longer exists", "booking_id", ev.BookingID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load booking %s: %w", ev.BookingID, err)
	}

	mail, err := mailer.Confirmation(n.hotel, n.builder.FromBooking(*b))
	if err != nil {
		return err
	}
	id, err := n.sender.Send(ctx, mail)
	if err != nil {
		return fmt.Errorf("send confirmation for %s: %w", b.ID, err)
	}

	logger.InfoContext(ctx, "Booking confirmation sent", "booking_id", b.ID, "message_id", id)
	return nil
}

// Subscribe attaches the notifier to the bus as part of queue so each
// event is handled by one worker.
func (n *Notifier) Subscribe(ctx context.Context, bus events.Subscriber, queue string) error {
	return bus.QueueSubscribe(events.BookingCreated, queue, func(msg *events.Message) {
		if err := n.HandleBookingCreated(ctx, msg); err != nil {
			logger.ErrorContext(ctx, "Failed to handle booking event", "error", err, "subject", msg.Subject)
		}
	})
}
