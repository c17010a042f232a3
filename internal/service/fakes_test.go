package service

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/diagnosis/heritage-portal/internal/domain"
	"github.com/diagnosis/heritage-portal/internal/platform/cache"
	"github.com/diagnosis/heritage-portal/internal/platform/contact"
	"github.com/shopspring/decimal"
)

// ---------- Fixtures ----------

func deluxe() domain.Room {
	return domain.Room{
		ID:          "room-1",
		Category:    domain.CategoryDeluxe,
		Name:        "Jharokha Room",
		Occupancy:   2,
		Rate:        decimal.NewFromInt(5000),
		Images:      []string{"/img/jharokha.jpg"},
		IsAvailable: true,
	}
}

func day(d int) domain.Date {
	return domain.NewDate(2024, time.January, d)
}

func validRecord() domain.BookingRecord {
	return domain.BookingRecord{
		UserID:         "user-1",
		RoomID:         "room-1",
		CheckIn:        day(10),
		CheckOut:       day(13),
		Adults:         2,
		Guests:         2,
		FullName:       "Meera Rathore",
		Email:          "meera@example.com",
		Phone:          "+91 1234567890",
		TotalAmount:    decimal.NewFromInt(1),
		IdempotencyKey: "key-1",
	}
}

// ---------- Mocks ----------

type fakeRooms struct {
	mu        sync.Mutex
	rooms     []domain.Room
	err       error
	listCalls int
	lastCats  []domain.Category
	// When gate is set, listing signals entered and waits for gate to close.
	entered chan struct{}
	gate    chan struct{}
}

func (f *fakeRooms) ListByCategories(ctx context.Context, cats []domain.Category) ([]domain.Room, error) {
	if f.gate != nil {
		f.entered <- struct{}{}
		<-f.gate
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	f.lastCats = cats
	if f.err != nil {
		return nil, f.err
	}
	var out []domain.Room
	for _, r := range f.rooms {
		for _, c := range cats {
			if r.Category == c {
				out = append(out, r)
			}
		}
	}
	return out, nil
}

func (f *fakeRooms) GetByID(_ context.Context, id string) (*domain.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, r := range f.rooms {
		if r.ID == id {
			room := r
			return &room, nil
		}
	}
	return nil, domain.ErrNotFound
}

type fakeBookings struct {
	mu       sync.Mutex
	byID     map[string]*domain.Booking
	keys     map[string]string
	created  []domain.BookingRecord
	reserved []domain.Date
	err      error
	// onCreate runs before the insert, outside the lock.
	onCreate func()
}

func newFakeBookings() *fakeBookings {
	return &fakeBookings{byID: make(map[string]*domain.Booking), keys: make(map[string]string)}
}

// Create mirrors the transactional insert: the idempotency key and the
// overlap rule are checked atomically with the write.
func (f *fakeBookings) Create(_ context.Context, rec domain.BookingRecord) (*domain.Booking, bool, error) {
	if f.onCreate != nil {
		f.onCreate()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, false, f.err
	}
	if id, ok := f.keys[rec.IdempotencyKey]; ok && rec.IdempotencyKey != "" {
		return &domain.Booking{ID: id}, false, nil
	}
	for _, b := range f.byID {
		if b.RoomID == rec.RoomID && b.CheckIn.Before(rec.CheckOut) && rec.CheckIn.Before(b.CheckOut) {
			return nil, false, domain.FieldErrors{domain.FieldDates: domain.MsgDatesTaken}
		}
	}
	f.created = append(f.created, rec)
	b := &domain.Booking{
		ID:              "booking-" + strconv.Itoa(len(f.created)),
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
		Status:          domain.BookingPending,
		SpecialRequests: rec.SpecialRequests,
		CreatedAt:       time.Now(),
	}
	f.byID[b.ID] = b
	if rec.IdempotencyKey != "" {
		f.keys[rec.IdempotencyKey] = b.ID
	}
	return b, true, nil
}

func (f *fakeBookings) GetByID(_ context.Context, id string) (*domain.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (f *fakeBookings) ListByUser(_ context.Context, userID string) ([]domain.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Booking
	for _, b := range f.byID {
		if b.UserID == userID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeBookings) ReservedNights(_ context.Context, _ string, from domain.Date) ([]domain.Date, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Date
	for _, d := range f.reserved {
		if !d.Before(from) {
			out = append(out, d)
		}
	}
	return out, nil
}

// fakeIdempotency reads the keys fakeBookings binds on insert.
type fakeIdempotency struct {
	bookings *fakeBookings
}

func newFakeIdempotency(b *fakeBookings) *fakeIdempotency {
	return &fakeIdempotency{bookings: b}
}

func (f *fakeIdempotency) Lookup(_ context.Context, key string) (string, error) {
	f.bookings.mu.Lock()
	defer f.bookings.mu.Unlock()
	return f.bookings.keys[key], nil
}

func (f *fakeIdempotency) CleanupExpired(context.Context) (int64, error) { return 0, nil }

type fakePublisher struct {
	mu       sync.Mutex
	subjects []string
	payloads []any
	err      error
}

func (f *fakePublisher) Publish(_ context.Context, subject string, data any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subjects = append(f.subjects, subject)
	f.payloads = append(f.payloads, data)
	return f.err
}

type fakeUsers struct {
	mu      sync.Mutex
	byEmail map[string]*domain.User
	updated map[string]string
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byEmail: make(map[string]*domain.User), updated: make(map[string]string)}
}

func (f *fakeUsers) Create(_ context.Context, email, hash, name, phone string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byEmail[email]; ok {
		return nil, domain.ErrConflict
	}
	u := &domain.User{
		ID:           "user-" + strconv.Itoa(len(f.byEmail)+1),
		Email:        email,
		Name:         name,
		Phone:        phone,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}
	f.byEmail[email] = u
	return u, nil
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byEmail[email]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) FindByID(_ context.Context, id string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byEmail {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUsers) UpdatePasswordHash(_ context.Context, id, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byEmail {
		if u.ID == id {
			u.PasswordHash = hash
			f.updated[id] = hash
			return nil
		}
	}
	return domain.ErrNotFound
}

type fakeDenylist struct {
	mu      sync.Mutex
	revoked map[string]time.Time
}

func (f *fakeDenylist) Revoke(_ context.Context, id string, until time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.revoked == nil {
		f.revoked = make(map[string]time.Time)
	}
	f.revoked[id] = until
	return nil
}

func (f *fakeDenylist) IsRevoked(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.revoked[id]
	return ok, nil
}

// memStore keeps sessions as JSON so tests see the same round trip as redis.
type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]byte)}
}

func (m *memStore) Get(_ context.Context, id string, v any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.data[id]
	if !ok {
		return domain.ErrNotFound
	}
	return json.Unmarshal(b, v)
}

func (m *memStore) Put(_ context.Context, id string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[id] = b
	return nil
}

func (m *memStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, id)
	return nil
}

type fakeLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func (f *fakeLocker) Acquire(_ context.Context, key string, _ time.Duration) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.held == nil {
		f.held = make(map[string]bool)
	}
	if f.held[key] {
		return nil, cache.ErrLocked
	}
	f.held[key] = true
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.held, key)
	}, nil
}

type fakeLimiter struct {
	allow bool
	keys  []string
}

func (f *fakeLimiter) Allow(_ context.Context, key string, _ int, _ time.Duration) (bool, error) {
	f.keys = append(f.keys, key)
	return f.allow, nil
}

type fakeRelay struct {
	got []contact.Message
	err error
}

func (f *fakeRelay) Send(_ context.Context, msg contact.Message) error {
	f.got = append(f.got, msg)
	return f.err
}
