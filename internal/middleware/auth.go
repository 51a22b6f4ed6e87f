package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sahar-erp/api/internal/auth"
	"github.com/sahar-erp/api/internal/enum"
	"github.com/sahar-erp/api/internal/session"
)

type contextKey string

const claimsKey contextKey = "claims"

// Headers set after a sliding refresh: a token valid for the extended session
// and its expiry. Clients replace their stored token with the new one.
const (
	AccessTokenHeader    = "X-Access-Token"
	SessionExpiresHeader = "X-Session-Expires-At"
)

// SessionValidator checks that the session behind a token is still open.
// Satisfied by *session.Manager.
type SessionValidator interface {
	Validate(ctx context.Context, id uuid.UUID) (session.Session, error)
	Touch(ctx context.Context, s session.Session) (session.Session, bool, error)
}

func Authenticate(jwtSecret string, sessions SessionValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing authorization header"})
				return
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid authorization format"})
				return
			}

			claims, err := auth.ValidateToken(jwtSecret, parts[1])
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
				return
			}

			sess, err := sessions.Validate(r.Context(), claims.SessionID)
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "session expired"})
				return
			}
			if sess, refreshed, err := sessions.Touch(r.Context(), sess); err != nil {
				slog.WarnContext(r.Context(), "refresh session", "session_id", claims.SessionID, "error", err)
			} else if refreshed {
				token, err := auth.GenerateToken(jwtSecret, claims.UserID, claims.SessionID, claims.Username, claims.Role, sess.ExpiresAt)
				if err != nil {
					slog.ErrorContext(r.Context(), "reissue token", "session_id", claims.SessionID, "error", err)
				} else {
					w.Header().Set(AccessTokenHeader, token)
					w.Header().Set(SessionExpiresHeader, sess.ExpiresAt.UTC().Format(time.RFC3339))
				}
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// RequireRole admits callers whose role ranks at least min (admin > manager > user).
func RequireRole(min string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := ClaimsFromContext(r.Context())
			if claims == nil {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
				return
			}

			if enum.RoleRank(claims.Role) < enum.RoleRank(min) {
				writeJSON(w, http.StatusForbidden, map[string]string{"error": "insufficient permissions"})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func ClaimsFromContext(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsKey).(*auth.Claims)
	return claims
}

// WithClaims returns a copy of ctx carrying claims.
func WithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
