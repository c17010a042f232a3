package service

import (
	"context"
	"errors"
	"testing"

	"github.com/diagnosis/heritage-portal/internal/domain"
)

func catalogRooms() []domain.Room {
	return []domain.Room{
		{ID: "d1", Category: domain.CategoryDeluxe, Name: "Jharokha Room"},
		{ID: "d2", Category: domain.CategoryDeluxe, Name: "Courtyard Room"},
		{ID: "s1", Category: domain.CategorySuite, Name: "Zenana Suite"},
		{ID: "r1", Category: domain.CategoryRoyalSuite, Name: "Darbar Suite"},
	}
}

func TestListRooms_FirstRoomPerCategory(t *testing.T) {
	rooms := &fakeRooms{rooms: catalogRooms()}
	svc := NewCatalogService(rooms, "")

	got, err := svc.ListRooms(context.Background(), []domain.Category{domain.CategoryDeluxe, domain.CategorySuite})
	if err != nil {
		t.Fatalf("ListRooms: %v", err)
	}
	if len(got) != 2 || got[0].ID != "d1" || got[1].ID != "s1" {
		t.Fatalf("rooms = %+v, want d1 and s1", got)
	}
}

func TestListRooms_EmptyFilterMeansAllCategories(t *testing.T) {
	rooms := &fakeRooms{rooms: catalogRooms()}
	svc := NewCatalogService(rooms, "")

	got, err := svc.ListRooms(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListRooms: %v", err)
	}
	if len(rooms.lastCats) != len(domain.Categories) {
		t.Errorf("queried %d categories, want %d", len(rooms.lastCats), len(domain.Categories))
	}
	if len(got) != 3 {
		t.Errorf("got %d rooms, want 3", len(got))
	}
}

func TestListRooms_SharedQueryOutlivesFirstCaller(t *testing.T) {
	rooms := &fakeRooms{rooms: catalogRooms(), entered: make(chan struct{}, 2), gate: make(chan struct{})}
	svc := NewCatalogService(rooms, "")
	cats := []domain.Category{domain.CategoryDeluxe}

	leaderCtx, cancel := context.WithCancel(context.Background())
	errs := make(chan error, 2)
	go func() {
		_, err := svc.ListRooms(leaderCtx, cats)
		errs <- err
	}()
	<-rooms.entered
	cancel()

	go func() {
		_, err := svc.ListRooms(context.Background(), cats)
		errs <- err
	}()
	close(rooms.gate)

	for range 2 {
		if err := <-errs; err != nil {
			t.Fatalf("ListRooms: %v", err)
		}
	}
}

func TestListRooms_StoreError(t *testing.T) {
	svc := NewCatalogService(&fakeRooms{err: domain.ErrUpstream}, "")
	if _, err := svc.ListRooms(context.Background(), nil); !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("err = %v, want ErrUpstream", err)
	}
}

func TestBeginBooking(t *testing.T) {
	svc := NewCatalogService(&fakeRooms{rooms: catalogRooms()}, "/rooms")

	entry, err := svc.BeginBooking(context.Background(), "s1")
	if err != nil {
		t.Fatalf("BeginBooking: %v", err)
	}
	if entry.Room == nil || entry.Room.ID != "s1" || entry.Redirect != nil {
		t.Fatalf("entry = %+v, want room s1", entry)
	}

	entry, err = svc.BeginBooking(context.Background(), "missing")
	if err != nil {
		t.Fatalf("BeginBooking(missing): %v", err)
	}
	if entry.Room != nil || entry.Redirect == nil || entry.Redirect.To != "/rooms" {
		t.Fatalf("entry = %+v, want redirect to /rooms", entry)
	}
}

func TestGetRoom_NotFound(t *testing.T) {
	svc := NewCatalogService(&fakeRooms{}, "")
	if _, err := svc.GetRoom(context.Background(), "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
