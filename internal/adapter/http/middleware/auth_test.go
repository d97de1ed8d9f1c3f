package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/infrastructure/auth"
)

type stubSessions struct {
	active map[string]bool
	err    error
}

func (s *stubSessions) Exists(ctx context.Context, userID, sessionID string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return s.active[userID+"/"+sessionID], nil
}

func issueToken(t *testing.T, manager *auth.JWTManager, user *domain.User, sessionID string) string {
	t.Helper()
	token, _, err := manager.Generate(user, sessionID)
	require.NoError(t, err)
	return token
}

func TestAuthenticatorAttachesPrincipal(t *testing.T) {
	manager := auth.NewJWTManager("secret", time.Minute)
	token := issueToken(t, manager, &domain.User{ID: "u1", Role: domain.RoleEmployee}, "s1")
	sessions := &stubSessions{active: map[string]bool{"u1/s1": true}}

	var got domain.Principal
	handler := NewAuthenticator(manager, sessions).Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = domain.PrincipalFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, domain.Principal{UserID: "u1", Role: domain.RoleEmployee, SessionID: "s1"}, got)
}

func TestAuthenticatorRejects(t *testing.T) {
	manager := auth.NewJWTManager("secret", time.Minute)
	token := issueToken(t, manager, &domain.User{ID: "u1", Role: domain.RoleUser}, "s1")

	tests := []struct {
		name     string
		header   string
		sessions *stubSessions
		status   int
	}{
		{"missing header", "", &stubSessions{}, http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", &stubSessions{}, http.StatusUnauthorized},
		{"garbage token", "Bearer nope", &stubSessions{}, http.StatusUnauthorized},
		{"revoked session", "Bearer " + token, &stubSessions{active: map[string]bool{}}, http.StatusUnauthorized},
		{"session store down", "Bearer " + token, &stubSessions{err: errors.New("redis down")}, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			handler := NewAuthenticator(manager, tt.sessions).Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatalf("next handler must not run")
			}))

			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.status, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
		})
	}
}

func TestAuthenticatorWithoutSessionStore(t *testing.T) {
	manager := auth.NewJWTManager("secret", time.Minute)
	token := issueToken(t, manager, &domain.User{ID: "u1", Role: domain.RoleUser}, "s1")

	called := false
	handler := NewAuthenticator(manager, nil).Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "bearer "+token)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.True(t, called)
}

func TestRequireRole(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mw := RequireRole(domain.RoleAdmin)(next)

	tests := []struct {
		name      string
		principal *domain.Principal
		status    int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"user", &domain.Principal{UserID: "u", Role: domain.RoleUser}, http.StatusForbidden},
		{"employee", &domain.Principal{UserID: "e", Role: domain.RoleEmployee}, http.StatusForbidden},
		{"admin", &domain.Principal{UserID: "a", Role: domain.RoleAdmin}, http.StatusNoContent},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/users", nil)
			if tt.principal != nil {
				req = req.WithContext(domain.WithPrincipal(req.Context(), *tt.principal))
			}
			rr := httptest.NewRecorder()
			mw.ServeHTTP(rr, req)
			assert.Equal(t, tt.status, rr.Code)
		})
	}
}
