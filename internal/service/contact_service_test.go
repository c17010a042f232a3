package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/diagnosis/heritage-portal/internal/domain"
	"github.com/diagnosis/heritage-portal/internal/platform/contact"
	"github.com/diagnosis/heritage-portal/pkg/events"
)

func contactMessage() contact.Message {
	return contact.Message{
		Name:    " Ravi ",
		Email:   "Ravi@Example.com",
		Subject: "Wedding block",
		Message: "Do you host receptions in the courtyard?",
	}
}

func TestContact_RelaysAndPublishes(t *testing.T) {
	relay := &fakeRelay{}
	pub := &fakePublisher{}
	limiter := &fakeLimiter{allow: true}
	svc := NewContactService(relay, limiter, pub, 5, time.Hour)

	if err := svc.Submit(context.Background(), "10.0.0.1", contactMessage()); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(relay.got) != 1 || relay.got[0].Name != "Ravi" || relay.got[0].Email != "ravi@example.com" {
		t.Fatalf("relayed %+v", relay.got)
	}
	if limiter.keys[0] != "contact:10.0.0.1" {
		t.Errorf("limiter key = %q", limiter.keys[0])
	}
	ev, ok := pub.payloads[0].(events.ContactReceivedEvent)
	if !ok || !ev.Relayed || pub.subjects[0] != events.ContactReceived {
		t.Fatalf("published %v %+v", pub.subjects, pub.payloads)
	}
}

func TestContact_Validation(t *testing.T) {
	relay := &fakeRelay{}
	svc := NewContactService(relay, &fakeLimiter{allow: true}, &fakePublisher{}, 5, time.Hour)

	msg := contactMessage()
	msg.Email = "not-an-email"
	msg.Message = "   "
	err := svc.Submit(context.Background(), "ip", msg)
	fe, ok := domain.AsFieldErrors(err)
	if !ok || fe["email"] == "" || fe["message"] == "" {
		t.Fatalf("err = %v, want email and message errors", err)
	}
	if len(relay.got) != 0 {
		t.Error("invalid message was relayed")
	}
}

func TestContact_RateLimited(t *testing.T) {
	relay := &fakeRelay{}
	svc := NewContactService(relay, &fakeLimiter{allow: false}, &fakePublisher{}, 5, time.Hour)

	if err := svc.Submit(context.Background(), "ip", contactMessage()); !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}
	if len(relay.got) != 0 {
		t.Error("rate limited message was relayed")
	}
}

func TestContact_RelayFailure(t *testing.T) {
	pub := &fakePublisher{}
	relay := &fakeRelay{err: domain.ErrUpstream}
	svc := NewContactService(relay, &fakeLimiter{allow: true}, pub, 0, 0)

	if err := svc.Submit(context.Background(), "ip", contactMessage()); !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("err = %v, want ErrUpstream", err)
	}
	if ev := pub.payloads[0].(events.ContactReceivedEvent); ev.Relayed {
		t.Error("event marked relayed after failure")
	}
}
