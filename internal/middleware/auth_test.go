package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sahar-erp/api/internal/auth"
	"github.com/sahar-erp/api/internal/middleware"
	"github.com/sahar-erp/api/internal/session"
)

const testSecret = "test-secret"

func newSessions() *session.Manager {
	return session.NewManager(session.NewMemoryStore(), 24*time.Hour, time.Hour)
}

func login(t *testing.T, sessions *session.Manager, role string) (string, session.Session) {
	t.Helper()
	s, err := sessions.Init(context.Background(), uuid.New(), "sara", role)
	if err != nil {
		t.Fatalf("init session: %v", err)
	}
	token, err := auth.GenerateToken(testSecret, s.UserID, s.ID, s.Username, s.Role, s.ExpiresAt)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return token, s
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	sessions := newSessions()
	token, s := login(t, sessions, "user")

	handler := middleware.Authenticate(testSecret, sessions)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := middleware.ClaimsFromContext(r.Context())
		if claims == nil {
			t.Fatal("expected claims in context")
		}
		if claims.UserID != s.UserID {
			t.Errorf("user ID: got %v, want %v", claims.UserID, s.UserID)
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	handler := middleware.Authenticate(testSecret, newSessions())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	req := httptest.NewRequest("GET", "/", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	handler := middleware.Authenticate(testSecret, newSessions())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer invalid-token")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestAuthMiddleware_SessionTornDown(t *testing.T) {
	sessions := newSessions()
	token, s := login(t, sessions, "admin")
	if err := sessions.Teardown(context.Background(), s.ID); err != nil {
		t.Fatalf("teardown: %v", err)
	}

	handler := middleware.Authenticate(testSecret, sessions)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called after logout")
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		role string
		min  string
		want int
	}{
		{"user", "manager", http.StatusForbidden},
		{"manager", "manager", http.StatusOK},
		{"admin", "manager", http.StatusOK},
		{"manager", "admin", http.StatusForbidden},
		{"user", "user", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.role+"->"+tt.min, func(t *testing.T) {
			sessions := newSessions()
			token, _ := login(t, sessions, tt.role)

			inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})
			handler := middleware.Authenticate(testSecret, sessions)(middleware.RequireRole(tt.min)(inner))

			req := httptest.NewRequest("GET", "/", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.want {
				t.Errorf("status: got %d, want %d", rr.Code, tt.want)
			}
		})
	}
}

func TestRequireRole_NoClaims(t *testing.T) {
	handler := middleware.RequireRole("user")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

// slidingSessions refreshes every session it sees by a further day.
type slidingSessions struct {
	sessions map[uuid.UUID]session.Session
}

func (s *slidingSessions) Validate(_ context.Context, id uuid.UUID) (session.Session, error) {
	sess, ok := s.sessions[id]
	if !ok {
		return session.Session{}, session.ErrNotFound
	}
	return sess, nil
}

func (s *slidingSessions) Touch(_ context.Context, sess session.Session) (session.Session, bool, error) {
	sess.RefreshedAt = time.Now()
	sess.ExpiresAt = sess.ExpiresAt.Add(24 * time.Hour)
	s.sessions[sess.ID] = sess
	return sess, true, nil
}

func TestAuthMiddleware_RefreshReissuesToken(t *testing.T) {
	loginAt := time.Now().Add(-23 * time.Hour)
	sess := session.Session{
		ID:          uuid.New(),
		UserID:      uuid.New(),
		Username:    "sara",
		Role:        "user",
		IssuedAt:    loginAt,
		ExpiresAt:   loginAt.Add(24 * time.Hour),
		RefreshedAt: loginAt,
	}
	sessions := &slidingSessions{sessions: map[uuid.UUID]session.Session{sess.ID: sess}}
	token, err := auth.GenerateToken(testSecret, sess.UserID, sess.ID, sess.Username, sess.Role, sess.ExpiresAt)
	if err != nil {
		t.Fatal(err)
	}

	handler := middleware.Authenticate(testSecret, sessions)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	fresh := rr.Header().Get(middleware.AccessTokenHeader)
	if fresh == "" {
		t.Fatal("expected a reissued token")
	}
	advertised, err := time.Parse(time.RFC3339, rr.Header().Get(middleware.SessionExpiresHeader))
	if err != nil {
		t.Fatalf("parse expiry header: %v", err)
	}

	// Past the login token's expiry but before the advertised one.
	later := sess.ExpiresAt.Add(time.Hour)
	validAt := func(tok string) error {
		_, err := jwt.ParseWithClaims(tok, &auth.Claims{}, func(*jwt.Token) (interface{}, error) {
			return []byte(testSecret), nil
		}, jwt.WithTimeFunc(func() time.Time { return later }))
		return err
	}
	if err := validAt(token); err == nil {
		t.Error("login token should have expired")
	}
	if err := validAt(fresh); err != nil {
		t.Errorf("reissued token rejected after the original expiry: %v", err)
	}

	claims, err := auth.ValidateToken(testSecret, fresh)
	if err != nil {
		t.Fatal(err)
	}
	if !claims.ExpiresAt.Time.Equal(advertised) {
		t.Errorf("token expiry %v does not match advertised %v", claims.ExpiresAt.Time, advertised)
	}
	if claims.SessionID != sess.ID || claims.Role != sess.Role {
		t.Errorf("claims: got %+v", claims)
	}
}

func TestAuthMiddleware_NoRefreshNoNewToken(t *testing.T) {
	sessions := newSessions()
	token, _ := login(t, sessions, "user")

	handler := middleware.Authenticate(testSecret, sessions)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Header().Get(middleware.AccessTokenHeader) != "" || rr.Header().Get(middleware.SessionExpiresHeader) != "" {
		t.Error("fresh session should not be reissued")
	}
}
