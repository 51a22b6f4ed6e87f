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
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/sahar-erp/api/internal/database"
	"github.com/sahar-erp/api/internal/enum"
	"github.com/sahar-erp/api/internal/report"
	"github.com/shopspring/decimal"
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// InventoryStore defines the database methods needed to read inventory.
// Satisfied by *database.Queries; narrow interface for testability.
type InventoryStore interface {
	ListInventory(ctx context.Context) ([]database.ListInventoryRow, error)
	ListInventoryLog(ctx context.Context, arg database.ListInventoryLogParams) ([]database.ListInventoryLogRow, error)
}

// InventoryTxStore defines the database methods used inside a stock change
// transaction.
type InventoryTxStore interface {
	GetInventory(ctx context.Context, ingredientID int64) (database.Inventory, error)
	GetInventoryForUpdate(ctx context.Context, ingredientID int64) (database.Inventory, error)
	UpdateInventory(ctx context.Context, arg database.UpdateInventoryParams) (database.Inventory, error)
	AdjustInventoryStock(ctx context.Context, arg database.AdjustInventoryStockParams) (database.Inventory, error)
	CreateInventoryLog(ctx context.Context, arg database.CreateInventoryLogParams) (database.InventoryLog, error)
}

// NewInventoryStore creates an InventoryTxStore from a DBTX (pool or tx).
type NewInventoryStore func(db database.DBTX) InventoryTxStore

// InventoryHandler handles stock endpoints. Every stock change is written
// together with its inventory_log row.
type InventoryHandler struct {
	store    InventoryStore
	pool     TxBeginner
	newStore NewInventoryStore
	loc      *time.Location
	now      func() time.Time
}

func NewInventoryHandler(store InventoryStore, pool TxBeginner, newStore NewInventoryStore, loc *time.Location) *InventoryHandler {
	if loc == nil {
		loc = time.Local
	}
	return &InventoryHandler{store: store, pool: pool, newStore: newStore, loc: loc, now: time.Now}
}

// RegisterManagerRoutes registers inventory endpoints.
func (h *InventoryHandler) RegisterManagerRoutes(r chi.Router) {
	r.Get("/inventory", h.List)
	r.Get("/inventory/log", h.Log)
	r.Patch("/inventory/{ingredientID}", h.Update)
	r.Post("/inventory/{ingredientID}/adjust", h.Adjust)
}

// --- Request / Response types ---

type updateInventoryRequest struct {
	Stock       string `json:"stock"`
	MinLimit    string `json:"min_limit"`
	CostPerUnit string `json:"cost_per_unit"`
}

type adjustInventoryRequest struct {
	Delta string `json:"delta"`
}

type ingredientView struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Unit string `json:"unit"`
}

type inventoryResponse struct {
	IngredientID int64           `json:"ingredient_id"`
	Stock        string          `json:"stock"`
	MinLimit     string          `json:"min_limit"`
	CostPerUnit  string          `json:"cost_per_unit"`
	UpdatedAt    time.Time       `json:"updated_at"`
	Ingredient   *ingredientView `json:"ingredient,omitempty"`
}

type inventoryLogResponse struct {
	ID         int64          `json:"id"`
	Change     string         `json:"change"`
	Reason     string         `json:"reason"`
	CreatedAt  time.Time      `json:"created_at"`
	Ingredient ingredientView `json:"ingredient"`
}

func toInventoryResponse(inv database.Inventory) inventoryResponse {
	return inventoryResponse{
		IngredientID: inv.IngredientID,
		Stock:        numericPlain(inv.Stock),
		MinLimit:     numericPlain(inv.MinLimit),
		CostPerUnit:  database.NumericString(inv.CostPerUnit),
		UpdatedAt:    inv.UpdatedAt,
	}
}

func toInventoryRowResponse(row database.ListInventoryRow) inventoryResponse {
	return inventoryResponse{
		IngredientID: row.IngredientID,
		Stock:        numericPlain(row.Stock),
		MinLimit:     numericPlain(row.MinLimit),
		CostPerUnit:  database.NumericString(row.CostPerUnit),
		UpdatedAt:    row.UpdatedAt,
		Ingredient:   &ingredientView{ID: row.IngredientID, Name: row.IngredientName, Unit: row.IngredientUnit},
	}
}

// --- Handlers ---

// List returns stock for every ingredient. filter=low keeps only rows at or
// below their minimum limit.
func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := r.URL.Query().Get("filter")
	if filter != "" && filter != "low" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid filter: must be low"})
		return
	}

	rows, err := h.store.ListInventory(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "list inventory", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if filter == "low" {
		rows = report.LowStock(rows)
	}

	resp := make([]inventoryResponse, len(rows))
	for i, row := range rows {
		resp[i] = toInventoryRowResponse(row)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Log returns stock movements newest first. Query: period, limit.
func (h *InventoryHandler) Log(w http.ResponseWriter, r *http.Request) {
	var arg database.ListInventoryLogParams
	if s := r.URL.Query().Get("period"); s != "" {
		since, err := report.Since(s, h.now(), h.loc)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		arg.Since = pgtype.Timestamptz{Time: since, Valid: true}
	}
	arg.Limit, _ = parsePagination(r, 100, 500)

	logs, err := h.store.ListInventoryLog(r.Context(), arg)
	if err != nil {
		slog.ErrorContext(r.Context(), "list inventory log", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]inventoryLogResponse, len(logs))
	for i, l := range logs {
		resp[i] = inventoryLogResponse{
			ID:         l.ID,
			Change:     numericPlain(l.Change),
			Reason:     l.Reason,
			CreatedAt:  l.CreatedAt,
			Ingredient: ingredientView{ID: l.IngredientID, Name: l.IngredientName, Unit: l.IngredientUnit},
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Update replaces stock, minimum limit and unit cost. A stock change is
// logged as a manual edit.
func (h *InventoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "ingredientID", "ingredient")
	if !ok {
		return
	}

	var req updateInventoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	stock, err := decimal.NewFromString(strings.TrimSpace(req.Stock))
	if err != nil || stock.IsNegative() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "stock must be a non-negative number"})
		return
	}
	minLimit, err := parsePrice(req.MinLimit)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "min_limit must be a non-negative number"})
		return
	}
	cost, err := parsePrice(req.CostPerUnit)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "cost_per_unit must be a non-negative number"})
		return
	}

	tx, err := h.pool.Begin(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "begin tx for inventory update", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	defer tx.Rollback(r.Context())

	txStore := h.newStore(tx)

	current, err := txStore.GetInventoryForUpdate(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "inventory not found"})
			return
		}
		slog.ErrorContext(r.Context(), "get inventory", "ingredient_id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	before, err := database.NumericToDecimal(current.Stock)
	if err != nil {
		slog.ErrorContext(r.Context(), "convert stock", "ingredient_id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	updated, err := txStore.UpdateInventory(r.Context(), database.UpdateInventoryParams{
		IngredientID: id,
		Stock:        database.DecimalToNumeric(stock),
		MinLimit:     minLimit,
		CostPerUnit:  cost,
	})
	if err != nil {
		slog.ErrorContext(r.Context(), "update inventory", "ingredient_id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if change := stock.Sub(before); !change.IsZero() {
		if _, err := txStore.CreateInventoryLog(r.Context(), database.CreateInventoryLogParams{
			IngredientID: id,
			Change:       database.DecimalToNumeric(change),
			Reason:       enum.InventoryReasonManualEdit,
		}); err != nil {
			slog.ErrorContext(r.Context(), "log inventory edit", "ingredient_id", id, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
	}

	if err := tx.Commit(r.Context()); err != nil {
		slog.ErrorContext(r.Context(), "commit inventory update", "ingredient_id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toInventoryResponse(updated))
}

// Adjust adds delta to the stock. A change that would take stock below zero
// is refused.
func (h *InventoryHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "ingredientID", "ingredient")
	if !ok {
		return
	}

	var req adjustInventoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	delta, err := decimal.NewFromString(strings.TrimSpace(req.Delta))
	if err != nil || delta.IsZero() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "delta must be a non-zero number"})
		return
	}

	tx, err := h.pool.Begin(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "begin tx for inventory adjust", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	defer tx.Rollback(r.Context())

	txStore := h.newStore(tx)

	updated, err := txStore.AdjustInventoryStock(r.Context(), database.AdjustInventoryStockParams{
		IngredientID: id,
		Delta:        database.DecimalToNumeric(delta),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			h.adjustRefused(w, r, txStore, id)
			return
		}
		slog.ErrorContext(r.Context(), "adjust inventory", "ingredient_id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if _, err := txStore.CreateInventoryLog(r.Context(), database.CreateInventoryLogParams{
		IngredientID: id,
		Change:       database.DecimalToNumeric(delta),
		Reason:       enum.InventoryReasonQuickUpdate,
	}); err != nil {
		slog.ErrorContext(r.Context(), "log inventory adjust", "ingredient_id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if err := tx.Commit(r.Context()); err != nil {
		slog.ErrorContext(r.Context(), "commit inventory adjust", "ingredient_id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toInventoryResponse(updated))
}

// --- Helpers ---

// adjustRefused tells an unknown ingredient apart from a change that would
// go negative; the guarded update reports both as no rows.
func (h *InventoryHandler) adjustRefused(w http.ResponseWriter, r *http.Request, store InventoryTxStore, id int64) {
	if _, err := store.GetInventory(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "inventory not found"})
			return
		}
		slog.ErrorContext(r.Context(), "get inventory", "ingredient_id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": "stock cannot go below zero"})
}

// numericPlain renders a quantity without forcing two decimals.
func numericPlain(n pgtype.Numeric) string {
	d, err := database.NumericToDecimal(n)
	if err != nil {
		return "0"
	}
	return d.String()
}
