package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/diagnosis/heritage-portal/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type RoomRepository interface {
	ListByCategories(ctx context.Context, categories []domain.Category) ([]domain.Room, error)
	GetByID(ctx context.Context, id string) (*domain.Room, error)
}

type roomRepository struct {
	pool *pgxpool.Pool
}

func NewRoomRepository(pool *pgxpool.Pool) RoomRepository {
	return &roomRepository{pool: pool}
}

const roomCols = `id::text, category, name, description, size, occupancy,
rate::text, amenities, images, is_available`

func (r *roomRepository) ListByCategories(ctx context.Context, categories []domain.Category) ([]domain.Room, error) {
	const q = `SELECT ` + roomCols + `
		FROM rooms
		WHERE category = ANY($1)
		ORDER BY category ASC, created_at ASC`

	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = string(c)
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, names)
	if err != nil {
		return nil, upstream("query rooms", err)
	}
	defer rows.Close()

	rooms := make([]domain.Room, 0, len(categories))
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, upstream("read rooms", err)
	}
	return rooms, nil
}

func (r *roomRepository) GetByID(ctx context.Context, id string) (*domain.Room, error) {
	const q = `SELECT ` + roomCols + ` FROM rooms WHERE id::text = $1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	room, err := scanRoom(r.pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func scanRoom(row pgx.Row) (domain.Room, error) {
	var (
		room     domain.Room
		category string
		rate     string
	)
	err := row.Scan(
		&room.ID, &category, &room.Name, &room.Description, &room.Size, &room.Occupancy,
		&rate, &room.Amenities, &room.Images, &room.IsAvailable,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Room{}, err
		}
		return domain.Room{}, upstream("scan room", err)
	}
	if room.Category, err = domain.ParseCategory(category); err != nil {
		return domain.Room{}, fmt.Errorf("room %s: %w", room.ID, err)
	}
	if room.Rate, err = decimal.NewFromString(rate); err != nil {
		return domain.Room{}, fmt.Errorf("room %s rate: %w", room.ID, err)
	}
	return room, nil
}
