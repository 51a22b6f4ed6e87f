package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/sahar-erp/api/internal/database"
)

// SupplierStore defines the database methods needed by supplier handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type SupplierStore interface {
	ListSuppliers(ctx context.Context) ([]database.Supplier, error)
	CreateSupplier(ctx context.Context, arg database.CreateSupplierParams) (database.Supplier, error)
	UpdateSupplier(ctx context.Context, arg database.UpdateSupplierParams) (database.Supplier, error)
	DeleteSupplier(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

// SupplierHandler handles supplier endpoints.
type SupplierHandler struct {
	store SupplierStore
}

func NewSupplierHandler(store SupplierStore) *SupplierHandler {
	return &SupplierHandler{store: store}
}

// RegisterManagerRoutes registers supplier endpoints.
func (h *SupplierHandler) RegisterManagerRoutes(r chi.Router) {
	r.Get("/suppliers", h.List)
	r.Post("/suppliers", h.Create)
	r.Put("/suppliers/{id}", h.Update)
	r.Delete("/suppliers/{id}", h.Delete)
}

// --- Request / Response types ---

type supplierRequest struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Category string `json:"category"`
	Notes    string `json:"notes"`
}

type supplierResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Phone     *string   `json:"phone"`
	Category  *string   `json:"category"`
	Notes     *string   `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toSupplierResponse(s database.Supplier) supplierResponse {
	return supplierResponse{
		ID:        s.ID,
		Name:      s.Name,
		Phone:     textPtr(s.Phone),
		Category:  textPtr(s.Category),
		Notes:     textPtr(s.Notes),
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

// --- Handlers ---

// List returns suppliers by name.
func (h *SupplierHandler) List(w http.ResponseWriter, r *http.Request) {
	suppliers, err := h.store.ListSuppliers(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "list suppliers", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]supplierResponse, len(suppliers))
	for i, s := range suppliers {
		resp[i] = toSupplierResponse(s)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create adds a supplier.
func (h *SupplierHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeSupplier(w, r)
	if !ok {
		return
	}

	s, err := h.store.CreateSupplier(r.Context(), database.CreateSupplierParams{
		Name:     req.Name,
		Phone:    optionalText(req.Phone),
		Category: optionalText(req.Category),
		Notes:    optionalText(req.Notes),
	})
	if err != nil {
		slog.ErrorContext(r.Context(), "create supplier", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toSupplierResponse(s))
}

// Update replaces a supplier's details.
func (h *SupplierHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid supplier ID"})
		return
	}
	req, ok := decodeSupplier(w, r)
	if !ok {
		return
	}

	s, err := h.store.UpdateSupplier(r.Context(), database.UpdateSupplierParams{
		ID:       id,
		Name:     req.Name,
		Phone:    optionalText(req.Phone),
		Category: optionalText(req.Category),
		Notes:    optionalText(req.Notes),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "supplier not found"})
			return
		}
		slog.ErrorContext(r.Context(), "update supplier", "supplier_id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toSupplierResponse(s))
}

// Delete removes a supplier.
func (h *SupplierHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid supplier ID"})
		return
	}

	if _, err := h.store.DeleteSupplier(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "supplier not found"})
			return
		}
		slog.ErrorContext(r.Context(), "delete supplier", "supplier_id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- Helpers ---

func decodeSupplier(w http.ResponseWriter, r *http.Request) (supplierRequest, bool) {
	var req supplierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return req, false
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return req, false
	}
	return req, true
}

// optionalText maps a blank string to NULL.
func optionalText(s string) pgtype.Text {
	s = strings.TrimSpace(s)
	return pgtype.Text{String: s, Valid: s != ""}
}

func textPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	return &t.String
}
