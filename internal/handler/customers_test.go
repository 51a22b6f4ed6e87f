package handler_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sahar-erp/api/internal/database"
	"github.com/sahar-erp/api/internal/handler"
	"github.com/sahar-erp/api/internal/service"
)

// --- Mock store ---

type mockCustomerStore struct {
	customers []database.Customer
	lastList  database.ListCustomersParams
}

func (m *mockCustomerStore) ListCustomers(_ context.Context, arg database.ListCustomersParams) ([]database.Customer, error) {
	m.lastList = arg
	return m.customers, nil
}

func (m *mockCustomerStore) GetCustomer(_ context.Context, id uuid.UUID) (database.Customer, error) {
	for _, c := range m.customers {
		if c.ID == id {
			return c, nil
		}
	}
	return database.Customer{}, pgx.ErrNoRows
}

type lookupFunc func(ctx context.Context, phone string) (service.CustomerLookup, error)

func (f lookupFunc) LookupByPhone(ctx context.Context, phone string) (service.CustomerLookup, error) {
	return f(ctx, phone)
}

func makeCustomer(phone, name, spent string, orders int32) database.Customer {
	return database.Customer{
		ID:           uuid.New(),
		Phone:        phone,
		Name:         name,
		TotalOrders:  orders,
		TotalSpent:   testNumeric(spent),
		FirstVisitAt: time.Now().Add(-48 * time.Hour),
		LastVisitAt:  time.Now(),
	}
}

func setupCustomerRouter(store *mockCustomerStore, lookup handler.CustomerLookuper) *chi.Mux {
	h := handler.NewCustomerHandler(store, lookup)
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	h.RegisterManagerRoutes(r)
	return r
}

// --- Tests ---

func TestCustomerLookup_Found(t *testing.T) {
	sara := makeCustomer("01012345678", "Sara", "75", 1)
	lookup := lookupFunc(func(_ context.Context, phone string) (service.CustomerLookup, error) {
		if phone != sara.Phone {
			t.Errorf("phone: got %q, want %q", phone, sara.Phone)
		}
		return service.CustomerLookup{Searched: true, Customer: &sara}, nil
	})
	r := setupCustomerRouter(&mockCustomerStore{}, lookup)

	rr := doJSON(t, r, "GET", "/customers/lookup?phone=01012345678", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d; body: %s", rr.Code, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp["searched"] != true {
		t.Errorf("searched: got %v, want true", resp["searched"])
	}
	c := resp["customer"].(map[string]interface{})
	if c["name"] != "Sara" || c["total_spent"] != "75.00" {
		t.Errorf("customer: got %v", c)
	}
}

func TestCustomerLookup_ShortPhoneNotSearched(t *testing.T) {
	lookup := lookupFunc(func(context.Context, string) (service.CustomerLookup, error) {
		return service.CustomerLookup{}, nil
	})
	r := setupCustomerRouter(&mockCustomerStore{}, lookup)

	rr := doJSON(t, r, "GET", "/customers/lookup?phone=0101", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}
	resp := decodeResponse(t, rr)
	if resp["searched"] != false {
		t.Errorf("searched: got %v, want false", resp["searched"])
	}
	if resp["customer"] != nil {
		t.Errorf("customer: got %v, want null", resp["customer"])
	}
}

func TestCustomerLookup_BackendError(t *testing.T) {
	lookup := lookupFunc(func(context.Context, string) (service.CustomerLookup, error) {
		return service.CustomerLookup{}, errors.New("connection reset")
	})
	r := setupCustomerRouter(&mockCustomerStore{}, lookup)

	rr := doJSON(t, r, "GET", "/customers/lookup?phone=01012345678", nil)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusInternalServerError)
	}
}

func TestCustomerList_Pagination(t *testing.T) {
	store := &mockCustomerStore{customers: []database.Customer{
		makeCustomer("01012345678", "Sara", "95", 2),
		makeCustomer("01098765432", "Omar", "30", 1),
	}}
	r := setupCustomerRouter(store, nil)

	rr := doJSON(t, r, "GET", "/customers?search=sa&limit=500&offset=10", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d; body: %s", rr.Code, rr.Body.String())
	}
	if got := len(decodeList(t, rr)); got != 2 {
		t.Errorf("customers: got %d, want 2", got)
	}
	if store.lastList.Limit != 100 {
		t.Errorf("limit: got %d, want capped 100", store.lastList.Limit)
	}
	if store.lastList.Offset != 10 {
		t.Errorf("offset: got %d, want 10", store.lastList.Offset)
	}
	if !store.lastList.Search.Valid || store.lastList.Search.String != "sa" {
		t.Errorf("search: got %+v", store.lastList.Search)
	}
}

func TestCustomerGet(t *testing.T) {
	sara := makeCustomer("01012345678", "Sara", "75", 1)
	r := setupCustomerRouter(&mockCustomerStore{customers: []database.Customer{sara}}, nil)

	rr := doJSON(t, r, "GET", "/customers/"+sara.ID.String(), nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d; body: %s", rr.Code, rr.Body.String())
	}
	if got := decodeResponse(t, rr)["total_orders"]; got != float64(1) {
		t.Errorf("total_orders: got %v, want 1", got)
	}

	rr = doJSON(t, r, "GET", "/customers/"+uuid.NewString(), nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("unknown id: got %d, want %d", rr.Code, http.StatusNotFound)
	}

	rr = doJSON(t, r, "GET", "/customers/not-a-uuid", nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("bad id: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}
