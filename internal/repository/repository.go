// Package repository holds the Postgres-backed stores. Query failures are
// reported as domain.ErrUpstream so callers can tell them from bad input.
package repository

import (
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/diagnosis/heritage-portal/internal/domain"
)

const queryTimeout = 3 * time.Second

func upstream(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrUpstream, err)
}

func hashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%x", sum)
}
