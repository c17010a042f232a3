package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/diagnosis/heritage-portal/internal/domain"
	"github.com/diagnosis/heritage-portal/pkg/auth"
	"github.com/golang-jwt/jwt/v5"
)

type stubAuth struct {
	claims *auth.Claims
	err    error
	token  string
}

func (s *stubAuth) Authenticate(_ context.Context, token string) (*auth.Claims, error) {
	s.token = token
	return s.claims, s.err
}

func TestRequireUser(t *testing.T) {
	claims := &auth.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1", ID: "tok-1"}}

	tests := []struct {
		name   string
		header string
		auth   *stubAuth
		status int
	}{
		{"no header", "", &stubAuth{claims: claims}, http.StatusUnauthorized},
		{"not bearer", "Basic abc", &stubAuth{claims: claims}, http.StatusUnauthorized},
		{"revoked", "Bearer t", &stubAuth{err: domain.ErrUnauthorized}, http.StatusUnauthorized},
		{"denylist down", "Bearer t", &stubAuth{err: domain.ErrUpstream}, http.StatusBadGateway},
		{"ok", "Bearer t", &stubAuth{claims: claims}, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen *auth.Claims
			h := RequireUser(tt.auth)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = Claims(r)
				w.WriteHeader(http.StatusNoContent)
			}))

			req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if tt.status == http.StatusNoContent && (seen == nil || seen.UserID() != "user-1") {
				t.Fatalf("claims = %+v", seen)
			}
		})
	}
}

type countingLimiter struct {
	n    map[string]int
	keys []string
}

func (c *countingLimiter) Allow(_ context.Context, key string, limit int, _ time.Duration) (bool, error) {
	if c.n == nil {
		c.n = make(map[string]int)
	}
	c.n[key]++
	c.keys = append(c.keys, key)
	return c.n[key] <= limit, nil
}

func TestRateLimit(t *testing.T) {
	l := &countingLimiter{}
	h := RateLimit(l, RateLimitConfig{Requests: 2, Window: time.Minute, Prefix: "auth:"})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("codes = %v", codes)
	}
	if l.keys[0] != "auth:203.0.113.7" {
		t.Fatalf("key = %q", l.keys[0])
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:5555"
	if got := ClientIP(req); got != "192.0.2.1" {
		t.Errorf("RemoteAddr: %q", got)
	}
	req.Header.Set("X-Real-IP", "198.51.100.2")
	if got := ClientIP(req); got != "198.51.100.2" {
		t.Errorf("X-Real-IP: %q", got)
	}
}
