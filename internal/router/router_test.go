package router_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sahar-erp/api/internal/auth"
	"github.com/sahar-erp/api/internal/config"
	"github.com/sahar-erp/api/internal/database"
	"github.com/sahar-erp/api/internal/enum"
	"github.com/sahar-erp/api/internal/router"
	"github.com/sahar-erp/api/internal/session"
	"github.com/sahar-erp/api/internal/ws"
)

const testSecret = "router-test-secret"

func setupRouter(t *testing.T) (http.Handler, *session.Manager) {
	t.Helper()
	sessions := session.NewManager(session.NewMemoryStore(), time.Hour, time.Hour)
	cfg := &config.Config{
		JWTSecret:   testSecret,
		CORSOrigins: []string{"http://localhost:3000"},
		Location:    time.UTC,
	}
	r := router.New(cfg, router.Deps{
		Queries:  database.New(nil),
		Hub:      ws.NewHub(),
		Sessions: sessions,
	})
	return r, sessions
}

func tokenFor(t *testing.T, sessions *session.Manager, role string) string {
	t.Helper()
	s, err := sessions.Init(context.Background(), uuid.New(), role+"-user", role)
	if err != nil {
		t.Fatalf("init session: %v", err)
	}
	token, err := auth.GenerateToken(testSecret, s.UserID, s.ID, s.Username, s.Role, s.ExpiresAt)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return token
}

func get(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestHealthAndMetricsArePublic(t *testing.T) {
	r, _ := setupRouter(t)

	if rr := get(r, "/health", ""); rr.Code != http.StatusOK {
		t.Errorf("health: got %d, want %d", rr.Code, http.StatusOK)
	}
	if rr := get(r, "/metrics", ""); rr.Code != http.StatusOK {
		t.Errorf("metrics: got %d, want %d", rr.Code, http.StatusOK)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	r, _ := setupRouter(t)

	for _, path := range []string{"/menu", "/kitchen/orders", "/inventory", "/reports/finance"} {
		if rr := get(r, path, ""); rr.Code != http.StatusUnauthorized {
			t.Errorf("%s: got %d, want %d", path, rr.Code, http.StatusUnauthorized)
		}
	}
}

func TestRoleGates(t *testing.T) {
	r, sessions := setupRouter(t)
	user := tokenFor(t, sessions, enum.RoleUser)
	manager := tokenFor(t, sessions, enum.RoleManager)

	tests := []struct {
		name  string
		path  string
		token string
	}{
		{"user on inventory", "/inventory", user},
		{"user on suppliers", "/suppliers", user},
		{"user on sales reports", "/reports/dashboard", user},
		{"manager on finance", "/reports/finance", manager},
		{"manager on expenses", "/expenses", manager},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rr := get(r, tt.path, tt.token); rr.Code != http.StatusForbidden {
				t.Errorf("got %d, want %d", rr.Code, http.StatusForbidden)
			}
		})
	}
}

func TestWebSocketRejectsClosedSession(t *testing.T) {
	r, sessions := setupRouter(t)
	token := tokenFor(t, sessions, enum.RoleUser)
	claims, err := auth.ValidateToken(testSecret, token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if err := sessions.Teardown(context.Background(), claims.SessionID); err != nil {
		t.Fatalf("teardown: %v", err)
	}

	rr := get(r, "/ws/"+ws.RoomKitchen+"?token="+token, "")
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestCORSExposesSessionHeaders(t *testing.T) {
	r, _ := setupRouter(t)

	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("allow origin: got %q", got)
	}
	if got := rr.Header().Get("Access-Control-Expose-Headers"); got == "" {
		t.Error("expected exposed headers")
	}
}
