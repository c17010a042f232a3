package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/diagnosis/heritage-portal/internal/domain"
	"github.com/diagnosis/heritage-portal/internal/repository"
	"github.com/diagnosis/heritage-portal/pkg/logger"
	"golang.org/x/sync/singleflight"
)

// Redirect tells the client to navigate elsewhere instead of showing an error.
type Redirect struct {
	To string `json:"redirect"`
}

// BookingEntry is the outcome of starting a booking: either the room to
// book or where to send the guest when it does not exist.
type BookingEntry struct {
	Room     *domain.Room
	Redirect *Redirect
}

type CatalogService interface {
	ListRooms(ctx context.Context, categories []domain.Category) ([]domain.Room, error)
	GetRoom(ctx context.Context, id string) (*domain.Room, error)
	BeginBooking(ctx context.Context, roomID string) (BookingEntry, error)
}

type catalogService struct {
	rooms       repository.RoomRepository
	catalogPath string
	group       singleflight.Group
}

func NewCatalogService(rooms repository.RoomRepository, catalogPath string) CatalogService {
	if catalogPath == "" {
		catalogPath = "/rooms"
	}
	return &catalogService{rooms: rooms, catalogPath: catalogPath}
}

// ListRooms returns one room per requested category, keeping the first
// room the store returns for each. An empty set means every category.
func (s *catalogService) ListRooms(ctx context.Context, categories []domain.Category) ([]domain.Room, error) {
	if len(categories) == 0 {
		categories = domain.Categories
	}
	key := categoryKey(categories)

	// The query is shared by every caller waiting on key, so it must not
	// die with the first caller's request. The repository bounds it.
	shared := context.WithoutCancel(ctx)
	v, err, joined := s.group.Do(key, func() (any, error) {
		return s.rooms.ListByCategories(shared, categories)
	})
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	if joined {
		logger.DebugContext(ctx, "Room list shared with concurrent request", "categories", key)
	}
	return firstPerCategory(v.([]domain.Room)), nil
}

func (s *catalogService) GetRoom(ctx context.Context, id string) (*domain.Room, error) {
	room, err := s.rooms.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get room %s: %w", id, err)
	}
	return room, nil
}

func (s *catalogService) BeginBooking(ctx context.Context, roomID string) (BookingEntry, error) {
	room, err := s.rooms.GetByID(ctx, roomID)
	if errors.Is(err, domain.ErrNotFound) {
		logger.InfoContext(ctx, "Booking requested for unknown room", "room_id", roomID)
		return BookingEntry{Redirect: &Redirect{To: s.catalogPath}}, nil
	}
	if err != nil {
		return BookingEntry{}, fmt.Errorf("load room %s: %w", roomID, err)
	}
	return BookingEntry{Room: room}, nil
}

func firstPerCategory(rooms []domain.Room) []domain.Room {
	seen := make(map[domain.Category]bool, len(rooms))
	out := make([]domain.Room, 0, len(rooms))
	for _, r := range rooms {
		if seen[r.Category] {
			continue
		}
		seen[r.Category] = true
		out = append(out, r)
	}
	return out
}

func categoryKey(categories []domain.Category) string {
	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = string(c)
	}
	sort.Strings(names)
	return strings.Join(names, "|")
}
