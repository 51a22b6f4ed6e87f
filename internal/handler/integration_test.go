//go:build integration

package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sahar-erp/api/internal/config"
	"github.com/sahar-erp/api/internal/database"
	"github.com/sahar-erp/api/internal/enum"
	"github.com/sahar-erp/api/internal/router"
	"github.com/sahar-erp/api/internal/session"
	"github.com/sahar-erp/api/internal/ws"
	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/crypto/bcrypt"
)

// TestIntegrationCheckoutFlow drives the register from an empty cart to a
// paid order, a returning customer and the reports against a real PostgreSQL.
func TestIntegrationCheckoutFlow(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	connStr, cleanup := setupPostgresContainer(t, ctx)
	defer cleanup()

	if err := database.Migrate(connStr); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("create pool: %v", err)
	}
	defer pool.Close()

	cfg := &config.Config{
		JWTSecret:   "integration-test-secret",
		CORSOrigins: []string{"http://localhost:3000"},
		Location:    time.UTC,
	}
	queries := database.New(pool)
	hub := ws.NewHub()
	go hub.Run(ctx)

	r := router.New(cfg, router.Deps{
		Queries:  queries,
		Pool:     pool,
		Hub:      hub,
		Sessions: session.NewManager(session.NewMemoryStore(), time.Hour, time.Hour),
	})
	server := httptest.NewServer(r)
	defer server.Close()

	// --- 1. Bootstrap an admin and log in ---
	createAdmin(t, ctx, queries, "owner", "password123")
	var loginResp map[string]interface{}
	call(t, server, "POST", "/auth/login", "", nil, map[string]string{"username": "owner", "password": "password123"}, http.StatusOK, &loginResp)
	token := loginResp["access_token"].(string)

	// --- 2. Put an item on the menu ---
	var latte map[string]interface{}
	call(t, server, "POST", "/menu", token, nil, map[string]interface{}{
		"name_local": "Latte",
		"category":   "Coffee",
		"price":      "45",
		"cost":       "12",
	}, http.StatusCreated, &latte)
	menuID := int64(latte["id"].(float64))

	// --- 3. Build a cart: one plain latte, one with medium sugar ---
	call(t, server, "POST", "/pos/registers/front/cart/lines", token, nil, map[string]interface{}{"menu_item_id": menuID}, http.StatusCreated, nil)
	var cart map[string]interface{}
	call(t, server, "POST", "/pos/registers/front/cart/lines", token, nil, map[string]interface{}{"menu_item_id": menuID, "sugar": enum.SugarMedium}, http.StatusCreated, &cart)
	if cart["total"] != "90.00" {
		t.Fatalf("cart total: got %v, want 90.00", cart["total"])
	}

	// --- 4. Check out ---
	key := uuid.NewString()
	checkoutBody := map[string]string{"customer_name": "Sara", "phone": "01012345678", "payment_method": enum.PaymentMethodCash}
	var first map[string]interface{}
	call(t, server, "POST", "/pos/registers/front/checkout", token, map[string]string{"Idempotency-Key": key}, checkoutBody, http.StatusCreated, &first)
	order := first["order"].(map[string]interface{})
	if order["total_amount"] != "90.00" || order["is_paid"] != true || order["status"] != enum.OrderStatusNew {
		t.Fatalf("order: got %v", order)
	}
	orderID := int64(order["id"].(float64))

	var emptied map[string]interface{}
	call(t, server, "GET", "/pos/registers/front/cart", token, nil, nil, http.StatusOK, &emptied)
	if len(emptied["lines"].([]interface{})) != 0 {
		t.Fatalf("cart after checkout: got %v", emptied["lines"])
	}

	// --- 5. A retry of the same sale with the same key returns the same order ---
	call(t, server, "POST", "/pos/registers/back/cart/lines", token, nil, map[string]interface{}{"menu_item_id": menuID}, http.StatusCreated, nil)
	call(t, server, "POST", "/pos/registers/back/cart/lines", token, nil, map[string]interface{}{"menu_item_id": menuID, "sugar": enum.SugarMedium}, http.StatusCreated, nil)
	var replay map[string]interface{}
	resp := call(t, server, "POST", "/pos/registers/back/checkout", token, map[string]string{"Idempotency-Key": key}, checkoutBody, http.StatusOK, &replay)
	if resp.Header.Get("Idempotent-Replayed") != "true" {
		t.Error("expected replay header")
	}
	if got := int64(replay["order"].(map[string]interface{})["id"].(float64)); got != orderID {
		t.Fatalf("replayed order: got %d, want %d", got, orderID)
	}

	// A different cart under the same key is refused and kept for another try
	call(t, server, "POST", "/pos/registers/bar/cart/lines", token, nil, map[string]interface{}{"menu_item_id": menuID}, http.StatusCreated, nil)
	call(t, server, "POST", "/pos/registers/bar/checkout", token, map[string]string{"Idempotency-Key": key}, checkoutBody, http.StatusUnprocessableEntity, nil)
	var kept map[string]interface{}
	call(t, server, "GET", "/pos/registers/bar/cart", token, nil, nil, http.StatusOK, &kept)
	if len(kept["lines"].([]interface{})) != 1 {
		t.Fatalf("cart after refused key: got %v", kept["lines"])
	}

	// Lines are written once per order
	rows, err := queries.CreateOrderLines(ctx, database.CreateOrderLinesParams{
		OrderID:     orderID,
		MenuItemIDs: []int64{menuID},
		Quantities:  []int32{1},
		Prices:      []pgtype.Numeric{database.DecimalToNumeric(decimal.NewFromInt(45))},
	})
	if err != nil || rows != 0 {
		t.Fatalf("second line write: rows=%d err=%v, want 0 rows", rows, err)
	}

	// --- 6. The customer was recorded once ---
	var lookup map[string]interface{}
	call(t, server, "GET", "/customers/lookup?phone=01012345678", token, nil, nil, http.StatusOK, &lookup)
	customer := lookup["customer"].(map[string]interface{})
	if customer["total_orders"] != float64(1) || customer["total_spent"] != "90.00" {
		t.Fatalf("customer: got %v", customer)
	}

	// --- 7. The order reaches the kitchen and moves on ---
	var kitchen []map[string]interface{}
	call(t, server, "GET", "/kitchen/orders", token, nil, nil, http.StatusOK, &kitchen)
	if len(kitchen) != 1 || int64(kitchen[0]["id"].(float64)) != orderID {
		t.Fatalf("kitchen queue: got %v", kitchen)
	}
	call(t, server, "PATCH", fmt.Sprintf("/orders/%d/status", orderID), token, nil, map[string]string{"status": enum.OrderStatusPreparing}, http.StatusOK, nil)
	call(t, server, "PATCH", fmt.Sprintf("/orders/%d/status", orderID), token, nil, map[string]string{"status": enum.OrderStatusNew}, http.StatusConflict, nil)

	var detail map[string]interface{}
	call(t, server, "GET", fmt.Sprintf("/orders/%d", orderID), token, nil, nil, http.StatusOK, &detail)
	if got := len(detail["lines"].([]interface{})); got != 2 {
		t.Errorf("order lines: got %d, want 2", got)
	}

	// --- 8. Reports see the sale ---
	var dashboard map[string]interface{}
	call(t, server, "GET", "/reports/dashboard?period=today", token, nil, nil, http.StatusOK, &dashboard)
	if dashboard["revenue"] != "90.00" || dashboard["order_count"] != float64(1) {
		t.Errorf("dashboard: got %v", dashboard)
	}
	var finance map[string]interface{}
	call(t, server, "GET", "/reports/finance?period=today", token, nil, nil, http.StatusOK, &finance)
	if finance["cogs"] != "24.00" || finance["net_profit"] != "66.00" {
		t.Errorf("finance: got %v", finance)
	}

	// --- 9. Logging out closes the session ---
	call(t, server, "POST", "/auth/logout", token, nil, nil, http.StatusNoContent, nil)
	call(t, server, "GET", "/auth/me", token, nil, nil, http.StatusUnauthorized, nil)
}

// --- Setup helpers ---

func setupPostgresContainer(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("sahar_test"),
		tcpostgres.WithUsername("sahar"),
		tcpostgres.WithPassword("sahar"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("get connection string: %v", err)
	}

	cleanup := func() {
		if err := pgContainer.Terminate(context.Background()); err != nil {
			t.Logf("terminate container: %v", err)
		}
	}
	return connStr, cleanup
}

func createAdmin(t *testing.T, ctx context.Context, q *database.Queries, username, password string) {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if _, err := q.CreateUser(ctx, database.CreateUserParams{
		Username:       username,
		HashedPassword: string(hashed),
		FullName:       "Owner",
		Role:           enum.RoleAdmin,
	}); err != nil {
		t.Fatalf("create admin: %v", err)
	}
}

// --- HTTP helpers ---

// call sends a JSON request, checks the status and decodes the body into out
// when out is non-nil.
func call(t *testing.T, server *httptest.Server, method, path, token string, headers map[string]string, body interface{}, wantStatus int, out interface{}) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("marshal body: %v", err)
		}
	}
	req, err := http.NewRequest(method, server.URL+path, &buf)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		var errResp map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&errResp)
		t.Fatalf("%s %s: status %d, want %d, body: %v", method, path, resp.StatusCode, wantStatus, errResp)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return resp
}
