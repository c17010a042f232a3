package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// IdempotencyTTL bounds how long a submission key maps to its booking.
const IdempotencyTTL = 24 * time.Hour

type IdempotencyRepository interface {
	// Lookup returns the booking id stored for key, or "" when none.
	Lookup(ctx context.Context, key string) (string, error)
	CleanupExpired(ctx context.Context) (int64, error)
}

type idempotencyRepository struct {
	pool *pgxpool.Pool
}

func NewIdempotencyRepository(pool *pgxpool.Pool) IdempotencyRepository {
	return &idempotencyRepository{pool: pool}
}

func (r *idempotencyRepository) Lookup(ctx context.Context, key string) (string, error) {
	const q = `SELECT booking_id::text FROM booking_idempotency
		WHERE key_hash = $1 AND booking_id IS NOT NULL AND expires_at > now()`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var bookingID string
	err := r.pool.QueryRow(ctx, q, hashKey(key)).Scan(&bookingID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", upstream("lookup idempotency key", err)
	}
	return bookingID, nil
}

func (r *idempotencyRepository) CleanupExpired(ctx context.Context) (int64, error) {
	const q = `DELETE FROM booking_idempotency WHERE expires_at < now()`

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	ct, err := r.pool.Exec(ctx, q)
	if err != nil {
		return 0, upstream("cleanup idempotency keys", err)
	}
	return ct.RowsAffected(), nil
}

// claimKey reserves key inside tx. A live claim held by another transaction
// blocks until that transaction ends; when it committed, its booking id is
// returned as winner. Expired claims are taken over.
func claimKey(ctx context.Context, tx pgx.Tx, key string) (winner string, err error) {
	const claim = `INSERT INTO booking_idempotency (key_hash, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (key_hash) DO UPDATE
			SET booking_id = NULL, expires_at = EXCLUDED.expires_at
			WHERE booking_idempotency.expires_at < now()
		RETURNING key_hash`
	const held = `SELECT booking_id::text FROM booking_idempotency WHERE key_hash = $1`

	hash := hashKey(key)
	var got string
	err = tx.QueryRow(ctx, claim, hash, time.Now().Add(IdempotencyTTL)).Scan(&got)
	if err == nil {
		return "", nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", upstream("claim idempotency key", err)
	}

	var bookingID *string
	if err := tx.QueryRow(ctx, held, hash).Scan(&bookingID); err != nil {
		return "", upstream("read idempotency claim", err)
	}
	if bookingID == nil {
		return "", upstream("read idempotency claim", errors.New("claim has no booking"))
	}
	return *bookingID, nil
}

func bindKey(ctx context.Context, tx pgx.Tx, key, bookingID string) error {
	const q = `UPDATE booking_idempotency SET booking_id = $2::uuid WHERE key_hash = $1`
	if _, err := tx.Exec(ctx, q, hashKey(key), bookingID); err != nil {
		return upstream("bind idempotency key", err)
	}
	return nil
}
