// Package auth provides password hashing, bearer tokens and the per-request
// identity context.
package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"expensetracker/internal/core"
)

// Identity is the authenticated caller of a request. ExpiresAt is the expiry
// of the token the identity was read from.
type Identity struct {
	UserID    uuid.UUID
	Scopes    []core.RoleName
	ExpiresAt time.Time
}

// HasScope reports whether the identity was granted role.
func (id Identity) HasScope(role core.RoleName) bool {
	for _, s := range id.Scopes {
		if s == role {
			return true
		}
	}
	return false
}

type ContextKey string

const IdentityContextKey ContextKey = "identity"

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, IdentityContextKey, id)
}

// FromContext returns the identity stored by the middleware.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(IdentityContextKey).(Identity)
	return id, ok && id.UserID != uuid.Nil
}

// UserID returns the current user's id, failing fast when the request was
// not authenticated.
func UserID(ctx context.Context) (uuid.UUID, error) {
	id, ok := FromContext(ctx)
	if !ok {
		return uuid.Nil, core.ErrUnauthenticated()
	}
	return id.UserID, nil
}

// BearerToken extracts the token of an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Verifier resolves a bearer token into an identity.
type Verifier interface {
	Verify(token string) (Identity, error)
}

// Middleware authenticates requests with a bearer token. Requests without a
// valid token are passed to onFail.
func Middleware(v Verifier, onFail func(http.ResponseWriter, *http.Request, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				onFail(w, r, core.ErrUnauthenticated())
				return
			}
			id, err := v.Verify(token)
			if err != nil {
				onFail(w, r, core.ErrUnauthenticated())
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// RequireScope rejects authenticated requests lacking role.
func RequireScope(role core.RoleName, onFail func(http.ResponseWriter, *http.Request, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := FromContext(r.Context())
			if !ok {
				onFail(w, r, core.ErrUnauthenticated())
				return
			}
			if !id.HasScope(role) {
				onFail(w, r, core.ErrInsufficientScope())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
