// Package cache keeps short-lived portal state in Redis: wizard drafts,
// submission locks, revoked tokens and request counters.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/diagnosis/heritage-portal/internal/domain"
	"github.com/diagnosis/heritage-portal/pkg/config"
	"github.com/diagnosis/heritage-portal/pkg/logger"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func Connect(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// SessionStore saves JSON documents under a key prefix with a sliding TTL.
type SessionStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewSessionStore(client *redis.Client, prefix string, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, prefix: prefix, ttl: ttl}
}

// Get loads the document into v. A missing or expired key is ErrNotFound.
func (s *SessionStore) Get(ctx context.Context, id string, v any) error {
	data, err := s.client.Get(ctx, s.prefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get session %s: %w: %w", id, domain.ErrUpstream, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode session %s: %w", id, err)
	}
	return nil
}

func (s *SessionStore) Put(ctx context.Context, id string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", id, err)
	}
	if err := s.client.Set(ctx, s.prefix+id, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("put session %s: %w: %w", id, domain.ErrUpstream, err)
	}
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.prefix+id).Err(); err != nil {
		return fmt.Errorf("delete session %s: %w: %w", id, domain.ErrUpstream, err)
	}
	return nil
}

var ErrLocked = errors.New("resource is locked")

// Locker hands out Redis SET NX locks. Each lock carries a random token so
// only its holder can release it.
type Locker struct {
	client *redis.Client
	prefix string
}

func NewLocker(client *redis.Client, prefix string) *Locker {
	return &Locker{client: client, prefix: prefix}
}

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// Acquire takes the lock for ttl or returns ErrLocked. The returned func
// releases it and is safe to call after expiry.
func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.prefix+key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w: %w", key, domain.ErrUpstream, err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return func() {
		// Release with a fresh context so a cancelled request still unlocks.
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, l.client, []string{l.prefix + key}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
			logger.Warn("Failed to release lock", "key", key, "error", err)
		}
	}, nil
}

// Denylist records revoked token ids until their natural expiry.
type Denylist struct {
	client *redis.Client
}

func NewDenylist(client *redis.Client) *Denylist {
	return &Denylist{client: client}
}

const denyPrefix = "auth:deny:"

func (d *Denylist) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	if err := d.client.Set(ctx, denyPrefix+tokenID, 1, ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w: %w", domain.ErrUpstream, err)
	}
	return nil
}

func (d *Denylist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := d.client.Exists(ctx, denyPrefix+tokenID).Result()
	if err != nil {
		return false, fmt.Errorf("check token: %w: %w", domain.ErrUpstream, err)
	}
	return n > 0, nil
}

// RateLimiter counts requests per key in fixed windows.
type RateLimiter struct {
	client *redis.Client
	prefix string
}

func NewRateLimiter(client *redis.Client, prefix string) *RateLimiter {
	return &RateLimiter{client: client, prefix: prefix}
}

// Allow reports whether another request for key fits in the current
// window. Redis errors fail open.
func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	sum := sha256.Sum256([]byte(key))
	k := fmt.Sprintf("%s%x", r.prefix, sum)

	n, err := r.client.Incr(ctx, k).Result()
	if err != nil {
		logger.WarnContext(ctx, "Rate limit check failed, allowing request", "error", err)
		return true, nil
	}
	if n == 1 {
		if err := r.client.Expire(ctx, k, window).Err(); err != nil {
			logger.WarnContext(ctx, "Failed to set rate limit window", "error", err)
		}
	}
	return n <= int64(limit), nil
}
