package service

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/diagnosis/heritage-portal/internal/calendar"
	"github.com/diagnosis/heritage-portal/internal/domain"
	"github.com/diagnosis/heritage-portal/internal/wizard"
)

type wizardDeps struct {
	bookings *fakeBookings
	store    *memStore
	locker   *fakeLocker
}

func newWizardService() (WizardService, *wizardDeps) {
	rooms := &fakeRooms{rooms: []domain.Room{deluxe()}}
	d := &wizardDeps{bookings: newFakeBookings(), store: newMemStore(), locker: &fakeLocker{}}
	bookings := NewBookingService(d.bookings, rooms, newFakeIdempotency(d.bookings), &fakePublisher{})

	n := 0
	svc := NewWizardService(NewCatalogService(rooms, "/rooms"), bookings, d.store, d.locker,
		WithClock(func() time.Time { return time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC) }),
		WithIDs(func() string { n++; return "id-" + strconv.Itoa(n) }),
	)
	return svc, d
}

func openWizard(t *testing.T, svc WizardService) *WizardView {
	t.Helper()
	opening, err := svc.Open(context.Background(), "user-1", "meera@example.com", "room-1")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if opening.View == nil {
		t.Fatalf("Open returned redirect %+v", opening.Redirect)
	}
	return opening.View
}

func applyAll(t *testing.T, svc WizardService, id string, evs ...wizard.Event) *WizardView {
	t.Helper()
	var v *WizardView
	for _, ev := range evs {
		var err error
		v, err = svc.Apply(context.Background(), "user-1", id, ev)
		if err != nil {
			t.Fatalf("Apply(%T): %v", ev, err)
		}
	}
	return v
}

func toPayment(t *testing.T, svc WizardService, id string) *WizardView {
	t.Helper()
	g := domain.GuestInfo{FullName: "Meera Rathore", Email: "meera@example.com", Phone: "+91 1234567890", Adults: 2}
	return applyAll(t, svc, id,
		wizard.EditGuest{Guest: g},
		wizard.Next{},
		wizard.SelectDate{Date: day(10)},
		wizard.SelectDate{Date: day(13)},
		wizard.Next{},
	)
}

func TestWizardService_OpenSeedsDraft(t *testing.T) {
	svc, d := newWizardService()
	d.bookings.reserved = []domain.Date{day(5), day(6)}

	v := openWizard(t, svc)
	if v.State.Step != wizard.StepGuestInfo {
		t.Errorf("step = %s", v.State.Step)
	}
	if v.State.Draft.Guest.Email != "meera@example.com" {
		t.Errorf("email not seeded: %+v", v.State.Draft.Guest)
	}
	if v.State.IdempotencyKey == "" || v.State.IdempotencyKey == v.ID {
		t.Errorf("idempotency key = %q, session = %q", v.State.IdempotencyKey, v.ID)
	}
	if v.Title != "January 2024" {
		t.Errorf("title = %q", v.Title)
	}
	// Jan 2024 starts on a Monday: one padding cell, day N at index N.
	// Day 5 is another guest's arrival and still works as a check-out.
	if got := v.Grid[5]; got.Day != 5 || got.Class == calendar.ClassDisabled {
		t.Errorf("grid[5] = %+v, want selectable day 5", got)
	}
	if got := v.Grid[6]; got.Day != 6 || got.Class != calendar.ClassDisabled {
		t.Errorf("grid[6] = %+v, want disabled day 6", got)
	}
}

func TestWizardService_OpenUnknownRoomRedirects(t *testing.T) {
	svc, d := newWizardService()

	opening, err := svc.Open(context.Background(), "user-1", "a@b.co", "gone")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if opening.View != nil || opening.Redirect == nil || opening.Redirect.To != "/rooms" {
		t.Fatalf("opening = %+v, want redirect", opening)
	}
	if len(d.store.data) != 0 {
		t.Error("session stored for missing room")
	}
}

func TestWizardService_FullFlowCreatesOneBooking(t *testing.T) {
	svc, d := newWizardService()
	id := openWizard(t, svc).ID

	v := toPayment(t, svc, id)
	if v.State.Step != wizard.StepPayment {
		t.Fatalf("step = %s, errors = %v", v.State.Step, v.State.Errors)
	}
	if v.Summary == nil || v.Summary.Total != "₹17700.00" {
		t.Fatalf("summary = %+v", v.Summary)
	}

	v = applyAll(t, svc, id, wizard.Next{})
	if !v.State.Closed || v.State.BookingID == "" {
		t.Fatalf("state = %+v, want closed with booking", v.State)
	}

	// A repeated confirm on a closed wizard is ignored.
	applyAll(t, svc, id, wizard.Next{})
	if len(d.bookings.created) != 1 {
		t.Fatalf("created %d bookings, want 1", len(d.bookings.created))
	}

	got, err := svc.Get(context.Background(), "user-1", id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.State.BookingID != v.State.BookingID {
		t.Errorf("stored booking id = %q, want %q", got.State.BookingID, v.State.BookingID)
	}
}

func TestWizardService_SubmitInFlightIsNotRepeated(t *testing.T) {
	svc, d := newWizardService()
	id := openWizard(t, svc).ID
	toPayment(t, svc, id)

	release, err := d.locker.Acquire(context.Background(), sessionLockKey(id), time.Minute)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	v := applyAll(t, svc, id, wizard.Next{})
	release()

	if v.State.Closed || len(d.bookings.created) != 0 {
		t.Fatalf("submission ran while locked: %+v", v.State)
	}
}

func TestWizardService_SubmitFailureKeepsDraft(t *testing.T) {
	svc, d := newWizardService()
	id := openWizard(t, svc).ID
	toPayment(t, svc, id)

	d.bookings.err = domain.ErrUpstream
	v := applyAll(t, svc, id, wizard.Next{})
	if v.State.Step != wizard.StepPayment || v.State.Loading || v.State.Errors[domain.FieldSubmit] == "" {
		t.Fatalf("state = %+v, want payment step with submit error", v.State)
	}

	d.bookings.err = nil
	v = applyAll(t, svc, id, wizard.Next{})
	if !v.State.Closed {
		t.Fatalf("retry did not complete: %+v", v.State)
	}
}

func TestWizardService_OtherUsersDraftIsHidden(t *testing.T) {
	svc, _ := newWizardService()
	id := openWizard(t, svc).ID

	if _, err := svc.Get(context.Background(), "user-2", id); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if _, err := svc.Apply(context.Background(), "user-2", id, wizard.Next{}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestWizardService_CancelDiscardsDraft(t *testing.T) {
	svc, d := newWizardService()
	id := openWizard(t, svc).ID

	if err := svc.Cancel(context.Background(), "user-1", id); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if _, ok := d.store.data[id]; ok {
		t.Fatal("draft still stored")
	}
	if _, err := svc.Get(context.Background(), "user-1", id); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestWizardService_CancelEvent(t *testing.T) {
	svc, d := newWizardService()
	id := openWizard(t, svc).ID

	v := applyAll(t, svc, id, wizard.Cancel{})
	if !v.State.Closed || !v.State.Cancelled {
		t.Fatalf("state = %+v", v.State)
	}
	if len(d.store.data) != 0 {
		t.Fatal("draft still stored")
	}
}

func guestThenDates(t *testing.T, svc WizardService, id string, in, out int) *WizardView {
	t.Helper()
	g := domain.GuestInfo{FullName: "Meera Rathore", Email: "meera@example.com", Phone: "+91 1234567890", Adults: 2}
	return applyAll(t, svc, id,
		wizard.EditGuest{Guest: g},
		wizard.Next{},
		wizard.SelectDate{Date: day(in)},
		wizard.SelectDate{Date: day(out)},
		wizard.Next{},
	)
}

func TestWizardService_CheckOutOnAnotherGuestsArrival(t *testing.T) {
	svc, d := newWizardService()
	d.bookings.reserved = []domain.Date{day(10), day(11)}
	id := openWizard(t, svc).ID

	v := guestThenDates(t, svc, id, 8, 10)
	r := v.State.Draft.Range()
	if !r.Complete() || !r.CheckOut.Equal(day(10)) {
		t.Fatalf("range = %+v, want check-out on the 10th", r)
	}
	if v.State.Step != wizard.StepPayment {
		t.Fatalf("step = %s, errors = %v", v.State.Step, v.State.Errors)
	}
	v = applyAll(t, svc, id, wizard.Next{})
	if !v.State.Closed || v.State.BookingID == "" {
		t.Fatalf("state = %+v, want booked", v.State)
	}
}

func TestWizardService_RangeOverTakenNightsStaysOnDates(t *testing.T) {
	tests := []struct {
		name    string
		in, out int
	}{
		{"spans the block", 8, 14},
		{"arrives on a taken night", 10, 12},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, d := newWizardService()
			d.bookings.reserved = []domain.Date{day(10), day(11)}
			id := openWizard(t, svc).ID

			v := guestThenDates(t, svc, id, tt.in, tt.out)
			if v.State.Step != wizard.StepDates {
				t.Fatalf("step = %s, want dates", v.State.Step)
			}
			if v.State.Errors[domain.FieldDates] != domain.MsgDatesTaken {
				t.Errorf("errors = %v", v.State.Errors)
			}
		})
	}
}

func TestWizardService_EventWhileLockedLeavesStateAlone(t *testing.T) {
	svc, d := newWizardService()
	id := openWizard(t, svc).ID
	before := toPayment(t, svc, id)

	release, err := d.locker.Acquire(context.Background(), sessionLockKey(id), time.Minute)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	// Simulate the confirmation finishing under the held lock.
	closed := before.State
	closed.Closed, closed.BookingID = true, "booking-9"
	if err := d.store.Put(context.Background(), id, closed); err != nil {
		t.Fatal(err)
	}
	v := applyAll(t, svc, id, wizard.NextMonth{}, wizard.Cancel{})
	release()

	if !v.State.Closed || v.State.Cancelled || v.State.BookingID != "booking-9" {
		t.Fatalf("returned state = %+v", v.State)
	}
	got, err := svc.Get(context.Background(), "user-1", id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !got.State.Closed || got.State.BookingID != "booking-9" {
		t.Fatalf("stored state regressed: %+v", got.State)
	}
}

func TestWizardService_CancelWhileLockedConflicts(t *testing.T) {
	svc, d := newWizardService()
	id := openWizard(t, svc).ID

	release, err := d.locker.Acquire(context.Background(), sessionLockKey(id), time.Minute)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer release()

	if err := svc.Cancel(context.Background(), "user-1", id); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
	if _, ok := d.store.data[id]; !ok {
		t.Fatal("draft was discarded")
	}
}
