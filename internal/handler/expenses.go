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
	"github.com/sahar-erp/api/internal/database"
	"github.com/sahar-erp/api/internal/middleware"
	"github.com/sahar-erp/api/internal/report"
	"github.com/shopspring/decimal"
)

// ExpenseStore defines the database methods needed by expense handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type ExpenseStore interface {
	ListExpensesSince(ctx context.Context, since time.Time) ([]database.Expense, error)
	CreateExpense(ctx context.Context, arg database.CreateExpenseParams) (database.Expense, error)
	DeleteExpense(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

// ExpenseHandler handles expense endpoints.
type ExpenseHandler struct {
	store ExpenseStore
	loc   *time.Location
	now   func() time.Time
}

func NewExpenseHandler(store ExpenseStore, loc *time.Location) *ExpenseHandler {
	if loc == nil {
		loc = time.Local
	}
	return &ExpenseHandler{store: store, loc: loc, now: time.Now}
}

// RegisterAdminRoutes registers expense endpoints.
func (h *ExpenseHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/expenses", h.List)
	r.Post("/expenses", h.Create)
	r.Delete("/expenses/{id}", h.Delete)
}

// --- Request / Response types ---

type createExpenseRequest struct {
	Amount      string `json:"amount"`
	Description string `json:"description"`
	Category    string `json:"category"`
	RecordedBy  string `json:"recorded_by"`
}

type expenseResponse struct {
	ID          uuid.UUID `json:"id"`
	Amount      string    `json:"amount"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	RecordedBy  string    `json:"recorded_by"`
	CreatedAt   time.Time `json:"created_at"`
}

func toExpenseResponse(e database.Expense) expenseResponse {
	return expenseResponse{
		ID:          e.ID,
		Amount:      database.NumericString(e.Amount),
		Description: e.Description,
		Category:    e.Category,
		RecordedBy:  e.RecordedBy,
		CreatedAt:   e.CreatedAt,
	}
}

// --- Handlers ---

// List returns expenses in the period (default today), newest first.
func (h *ExpenseHandler) List(w http.ResponseWriter, r *http.Request) {
	since, err := report.Since(r.URL.Query().Get("period"), h.now(), h.loc)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	expenses, err := h.store.ListExpensesSince(r.Context(), since)
	if err != nil {
		slog.ErrorContext(r.Context(), "list expenses", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]expenseResponse, len(expenses))
	for i, e := range expenses {
		resp[i] = toExpenseResponse(e)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create records an expense. recorded_by defaults to the caller.
func (h *ExpenseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil || !amount.IsPositive() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "amount must be positive"})
		return
	}
	req.Description = strings.TrimSpace(req.Description)
	if req.Description == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "description is required"})
		return
	}
	req.RecordedBy = strings.TrimSpace(req.RecordedBy)
	if req.RecordedBy == "" {
		if claims := middleware.ClaimsFromContext(r.Context()); claims != nil {
			req.RecordedBy = claims.Username
		}
	}
	if req.RecordedBy == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "recorded_by is required"})
		return
	}

	e, err := h.store.CreateExpense(r.Context(), database.CreateExpenseParams{
		Amount:      database.DecimalToNumeric(amount),
		Description: req.Description,
		Category:    strings.TrimSpace(req.Category),
		RecordedBy:  req.RecordedBy,
	})
	if err != nil {
		slog.ErrorContext(r.Context(), "create expense", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toExpenseResponse(e))
}

// Delete removes an expense.
func (h *ExpenseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid expense ID"})
		return
	}

	if _, err := h.store.DeleteExpense(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "expense not found"})
			return
		}
		slog.ErrorContext(r.Context(), "delete expense", "expense_id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
