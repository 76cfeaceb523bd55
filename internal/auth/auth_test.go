package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"expensetracker/internal/core"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestPasswordHasher(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	hash, err := h.Hash("pw123")
	require.NoError(t, err)
	assert.NotEqual(t, "pw123", hash)

	ok, err := h.Matches(hash, "pw123")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Matches(hash, "wrong")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = h.Matches("not-a-hash", "pw123")
	assert.Error(t, err)
}

func TestTokenIssueAndVerify(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, "", 600*time.Second)
	user := core.User{ID: uuid.New(), Username: "alice", Roles: []core.RoleName{core.RoleUser, core.RoleAdmin}}

	token, err := issuer.Issue(user)
	require.NoError(t, err)

	id, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, id.UserID)
	assert.True(t, id.HasScope(core.RoleAdmin))
	assert.True(t, id.HasScope(core.RoleUser))
	assert.WithinDuration(t, time.Now().Add(600*time.Second), id.ExpiresAt, 5*time.Second)

	var claims Claims
	_, _, err = jwt.NewParser().ParseUnverified(token, &claims)
	require.NoError(t, err)
	assert.Equal(t, DefaultIssuer, claims.Issuer)
	assert.Equal(t, "USER ADMIN", claims.Scope)
	assert.Equal(t, 600*time.Second, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
}

func TestTokenVerifyRejects(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, "", time.Minute)
	user := core.User{ID: uuid.New(), Roles: []core.RoleName{core.RoleUser}}

	t.Run("expired", func(t *testing.T) {
		past := NewTokenIssuer(testSecret, "", time.Minute)
		past.now = func() time.Time { return time.Now().Add(-time.Hour) }
		token, err := past.Issue(user)
		require.NoError(t, err)
		_, err = issuer.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewTokenIssuer("another-secret-another-secret!!", "", time.Minute)
		token, err := other.Issue(user)
		require.NoError(t, err)
		_, err = issuer.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewTokenIssuer(testSecret, "someone-else", time.Minute)
		token, err := other.Issue(user)
		require.NoError(t, err)
		_, err = issuer.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := issuer.Verify("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestMiddleware(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, "", time.Minute)
	user := core.User{ID: uuid.New(), Roles: []core.RoleName{core.RoleUser}}
	token, err := issuer.Issue(user)
	require.NoError(t, err)

	var failed error
	onFail := func(w http.ResponseWriter, r *http.Request, err error) {
		failed = err
		w.WriteHeader(http.StatusUnauthorized)
	}
	var seen uuid.UUID
	h := Middleware(issuer, onFail)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := UserID(r.Context())
		require.NoError(t, err)
		seen = id
	}))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid", "Bearer " + token, http.StatusOK},
		{"lowercase scheme", "bearer " + token, http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"basic scheme", "Basic abc", http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			failed, seen = nil, uuid.Nil
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			assert.Equal(t, tt.status, rr.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, user.ID, seen)
			} else {
				assert.True(t, core.IsKind(failed, core.KindUnauthenticated))
			}
		})
	}
}

func TestRequireScope(t *testing.T) {
	var failed error
	onFail := func(w http.ResponseWriter, r *http.Request, err error) {
		failed = err
		w.WriteHeader(http.StatusForbidden)
	}
	h := RequireScope(core.RoleAdmin, onFail)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithIdentity(req.Context(), Identity{UserID: uuid.New(), Scopes: []core.RoleName{core.RoleUser}}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.True(t, core.IsKind(failed, core.KindForbidden))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithIdentity(req.Context(), Identity{UserID: uuid.New(), Scopes: []core.RoleName{core.RoleAdmin}}))
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)

	_, err := UserID(httptest.NewRequest(http.MethodGet, "/", nil).Context())
	assert.True(t, core.IsKind(err, core.KindUnauthenticated))
}
