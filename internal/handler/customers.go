package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/sahar-erp/api/internal/database"
	"github.com/sahar-erp/api/internal/service"
)

// CustomerStore defines the database methods needed by customer handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type CustomerStore interface {
	ListCustomers(ctx context.Context, arg database.ListCustomersParams) ([]database.Customer, error)
	GetCustomer(ctx context.Context, id uuid.UUID) (database.Customer, error)
}

// CustomerLookuper finds a customer by phone as typed at the register.
// Satisfied by *service.CustomerDirectory.
type CustomerLookuper interface {
	LookupByPhone(ctx context.Context, phone string) (service.CustomerLookup, error)
}

// CustomerHandler handles customer endpoints.
type CustomerHandler struct {
	store     CustomerStore
	directory CustomerLookuper
}

func NewCustomerHandler(store CustomerStore, directory CustomerLookuper) *CustomerHandler {
	return &CustomerHandler{store: store, directory: directory}
}

// RegisterRoutes registers the register-side phone lookup.
func (h *CustomerHandler) RegisterRoutes(r chi.Router) {
	r.Get("/customers/lookup", h.Lookup)
}

// RegisterManagerRoutes registers the customer directory listing.
func (h *CustomerHandler) RegisterManagerRoutes(r chi.Router) {
	r.Get("/customers", h.List)
	r.Get("/customers/{id}", h.Get)
}

// --- Response types ---

type customerResponse struct {
	ID           uuid.UUID `json:"id"`
	Phone        string    `json:"phone"`
	Name         string    `json:"name"`
	TotalOrders  int32     `json:"total_orders"`
	TotalSpent   string    `json:"total_spent"`
	FirstVisitAt time.Time `json:"first_visit_at"`
	LastVisitAt  time.Time `json:"last_visit_at"`
}

type lookupResponse struct {
	Searched bool              `json:"searched"`
	Customer *customerResponse `json:"customer"`
}

func toCustomerResponse(c database.Customer) customerResponse {
	return customerResponse{
		ID:           c.ID,
		Phone:        c.Phone,
		Name:         c.Name,
		TotalOrders:  c.TotalOrders,
		TotalSpent:   database.NumericString(c.TotalSpent),
		FirstVisitAt: c.FirstVisitAt,
		LastVisitAt:  c.LastVisitAt,
	}
}

// --- Handlers ---

// Lookup searches by exact phone. Phones shorter than the minimum length are
// not searched and report searched=false.
func (h *CustomerHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	phone := r.URL.Query().Get("phone")

	res, err := h.directory.LookupByPhone(r.Context(), phone)
	if err != nil {
		slog.ErrorContext(r.Context(), "lookup customer", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := lookupResponse{Searched: res.Searched}
	if res.Customer != nil {
		c := toCustomerResponse(*res.Customer)
		resp.Customer = &c
	}
	writeJSON(w, http.StatusOK, resp)
}

// List returns customers ordered by total spent, with optional search.
func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r, 20, 100)

	var search pgtype.Text
	if s := strings.TrimSpace(r.URL.Query().Get("search")); s != "" {
		search = pgtype.Text{String: s, Valid: true}
	}

	customers, err := h.store.ListCustomers(r.Context(), database.ListCustomersParams{
		Search: search,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		slog.ErrorContext(r.Context(), "list customers", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]customerResponse, len(customers))
	for i, c := range customers {
		resp[i] = toCustomerResponse(c)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get returns a single customer by ID.
func (h *CustomerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid customer ID"})
		return
	}

	c, err := h.store.GetCustomer(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "customer not found"})
			return
		}
		slog.ErrorContext(r.Context(), "get customer", "customer_id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toCustomerResponse(c))
}

// --- Helpers ---

// parsePagination reads limit and offset, falling back to def and capping at max.
func parsePagination(r *http.Request, def, max int) (int32, int32) {
	limit := def
	if s := r.URL.Query().Get("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > max {
		limit = max
	}

	offset := 0
	if s := r.URL.Query().Get("offset"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 0 {
			offset = v
		}
	}
	return int32(limit), int32(offset)
}
