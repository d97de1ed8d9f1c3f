package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/infrastructure/auth"
)

// TokenVerifier validates access tokens.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// SessionChecker reports whether a session is still active.
type SessionChecker interface {
	Exists(ctx context.Context, userID, sessionID string) (bool, error)
}

// Authenticator verifies bearer tokens and puts the caller's
// domain.Principal into the request context.
type Authenticator struct {
	tokens   TokenVerifier
	sessions SessionChecker
}

// NewAuthenticator creates an Authenticator. A nil sessions disables the
// revocation check.
func NewAuthenticator(tokens TokenVerifier, sessions SessionChecker) *Authenticator {
	return &Authenticator{tokens: tokens, sessions: sessions}
}

// Wrap rejects requests without a valid, unrevoked token.
func (a *Authenticator) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeJSONError(w, http.StatusUnauthorized, "missing or malformed authorization header")
			return
		}

		claims, err := a.tokens.Verify(token)
		if err != nil {
			msg := "invalid token"
			if errors.Is(err, domain.ErrExpiredToken) {
				msg = "token has expired"
			}
			writeJSONError(w, http.StatusUnauthorized, msg)
			return
		}

		if a.sessions != nil {
			active, err := a.sessions.Exists(r.Context(), claims.UserID, claims.SessionID())
			if err != nil {
				zerolog.Ctx(r.Context()).Error().Err(err).Str("user_id", claims.UserID).Msg("session lookup failed")
				writeJSONError(w, http.StatusServiceUnavailable, "session store unavailable")
				return
			}
			if !active {
				writeJSONError(w, http.StatusUnauthorized, domain.ErrSessionRevoked.Error())
				return
			}
		}

		ctx := domain.WithPrincipal(r.Context(), claims.Principal())
		if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
			ctx = l.With().Str("user_id", claims.UserID).Logger().WithContext(ctx)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole rejects authenticated callers whose role is not listed.
func RequireRole(roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := domain.PrincipalFromContext(r.Context())
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			for _, role := range roles {
				if p.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			writeJSONError(w, http.StatusForbidden, "insufficient permissions")
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}

	return parts[1], true
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
