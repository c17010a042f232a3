package service

import (
	"context"
	"strings"
	"time"

	"github.com/diagnosis/heritage-portal/internal/domain"
	"github.com/diagnosis/heritage-portal/internal/platform/contact"
	"github.com/diagnosis/heritage-portal/internal/validate"
	"github.com/diagnosis/heritage-portal/pkg/events"
	"github.com/diagnosis/heritage-portal/pkg/logger"
)

type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type ContactService interface {
	Submit(ctx context.Context, clientKey string, msg contact.Message) error
}

type contactService struct {
	relay     contact.Relay
	limiter   RateLimiter
	publisher events.Publisher
	limit     int
	window    time.Duration
}

func NewContactService(relay contact.Relay, limiter RateLimiter, publisher events.Publisher, limit int, window time.Duration) ContactService {
	return &contactService{
		relay:     relay,
		limiter:   limiter,
		publisher: publisher,
		limit:     limit,
		window:    window,
	}
}

// Submit validates msg and forwards it to the relay. clientKey identifies
// the sender for rate limiting, normally the client IP.
func (s *contactService) Submit(ctx context.Context, clientKey string, msg contact.Message) error {
	msg.Name = strings.TrimSpace(msg.Name)
	msg.Email = strings.ToLower(strings.TrimSpace(msg.Email))
	msg.Subject = strings.TrimSpace(msg.Subject)
	msg.Message = strings.TrimSpace(msg.Message)
	if err := validate.Struct(msg); err != nil {
		return err
	}

	if s.limit > 0 {
		ok, err := s.limiter.Allow(ctx, "contact:"+clientKey, s.limit, s.window)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrRateLimited
		}
	}

	relayErr := s.relay.Send(ctx, msg)
	if relayErr != nil {
		logger.ErrorContext(ctx, "Failed to relay contact message", "error", relayErr)
	}

	event := events.ContactReceivedEvent{
		Name:       msg.Name,
		Email:      msg.Email,
		Subject:    msg.Subject,
		Relayed:    relayErr == nil,
		ReceivedAt: time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, events.ContactReceived, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish contact event", "error", err)
	}
	return relayErr
}
