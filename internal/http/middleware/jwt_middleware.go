package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/diagnosis/heritage-portal/internal/domain"
	"github.com/diagnosis/heritage-portal/internal/http/response"
	"github.com/diagnosis/heritage-portal/pkg/auth"
	"github.com/diagnosis/heritage-portal/pkg/logger"
)

type ctxKey string

const CtxClaims ctxKey = "claims"

// Authenticator resolves a bearer token to its claims, rejecting revoked
// tokens.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*auth.Claims, error)
}

// RequireUser rejects requests without a valid, unrevoked bearer token and
// stores the claims on the context.
func RequireUser(a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := r.Header.Get("Authorization")
			if !strings.HasPrefix(authz, "Bearer ") {
				response.Unauthorized(w, "invalid authorization header")
				return
			}
			raw := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
			claims, err := a.Authenticate(r.Context(), raw)
			if errors.Is(err, domain.ErrUnauthorized) {
				response.Unauthorized(w, "invalid authorization token")
				return
			}
			if err != nil {
				response.FromError(r.Context(), w, err)
				return
			}
			ctx := context.WithValue(r.Context(), CtxClaims, claims)
			ctx = context.WithValue(ctx, logger.UserIDKey, claims.UserID())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Claims returns the signed-in user's claims, or nil outside RequireUser.
func Claims(r *http.Request) *auth.Claims {
	if c, ok := r.Context().Value(CtxClaims).(*auth.Claims); ok {
		return c
	}
	return nil
}
