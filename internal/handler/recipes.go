package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/sahar-erp/api/internal/database"
	"github.com/shopspring/decimal"
)

// RecipeStore defines the database methods needed by recipe handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type RecipeStore interface {
	ListRecipes(ctx context.Context) ([]database.ListRecipesRow, error)
	CreateRecipe(ctx context.Context, arg database.CreateRecipeParams) (database.Recipe, error)
	UpdateRecipe(ctx context.Context, arg database.UpdateRecipeParams) (database.Recipe, error)
	DeleteRecipe(ctx context.Context, id int64) (int64, error)
}

// RecipeHandler handles recipe endpoints. A recipe row is the quantity of one
// ingredient used by one menu item.
type RecipeHandler struct {
	store RecipeStore
}

func NewRecipeHandler(store RecipeStore) *RecipeHandler {
	return &RecipeHandler{store: store}
}

// RegisterManagerRoutes registers recipe endpoints.
func (h *RecipeHandler) RegisterManagerRoutes(r chi.Router) {
	r.Get("/recipes", h.List)
	r.Post("/recipes", h.Create)
	r.Put("/recipes/{id}", h.Update)
	r.Delete("/recipes/{id}", h.Delete)
}

// --- Request / Response types ---

type recipeRequest struct {
	MenuItemID   int64  `json:"menu_item_id"`
	IngredientID int64  `json:"ingredient_id"`
	Quantity     string `json:"quantity"`
}

type recipeResponse struct {
	ID             int64  `json:"id"`
	MenuItemID     int64  `json:"menu_item_id"`
	IngredientID   int64  `json:"ingredient_id"`
	Quantity       string `json:"quantity"`
	MenuNameLocal  string `json:"menu_name_local,omitempty"`
	IngredientName string `json:"ingredient_name,omitempty"`
	IngredientUnit string `json:"ingredient_unit,omitempty"`
}

func toRecipeResponse(rc database.Recipe) recipeResponse {
	return recipeResponse{
		ID:           rc.ID,
		MenuItemID:   rc.MenuItemID,
		IngredientID: rc.IngredientID,
		Quantity:     numericPlain(rc.Quantity),
	}
}

// --- Handlers ---

// List returns every recipe row with menu and ingredient names.
func (h *RecipeHandler) List(w http.ResponseWriter, r *http.Request) {
	rows, err := h.store.ListRecipes(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "list recipes", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]recipeResponse, len(rows))
	for i, row := range rows {
		resp[i] = recipeResponse{
			ID:             row.ID,
			MenuItemID:     row.MenuItemID,
			IngredientID:   row.IngredientID,
			Quantity:       numericPlain(row.Quantity),
			MenuNameLocal:  row.MenuNameLocal,
			IngredientName: row.IngredientName,
			IngredientUnit: row.IngredientUnit,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create adds an ingredient to a menu item's recipe.
func (h *RecipeHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, qty, ok := decodeRecipe(w, r)
	if !ok {
		return
	}

	rc, err := h.store.CreateRecipe(r.Context(), database.CreateRecipeParams{
		MenuItemID:   req.MenuItemID,
		IngredientID: req.IngredientID,
		Quantity:     qty,
	})
	if err != nil {
		if h.writeConstraintError(w, err) {
			return
		}
		slog.ErrorContext(r.Context(), "create recipe", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toRecipeResponse(rc))
}

// Update replaces a recipe row.
func (h *RecipeHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id", "recipe")
	if !ok {
		return
	}
	req, qty, ok := decodeRecipe(w, r)
	if !ok {
		return
	}

	rc, err := h.store.UpdateRecipe(r.Context(), database.UpdateRecipeParams{
		ID:           id,
		MenuItemID:   req.MenuItemID,
		IngredientID: req.IngredientID,
		Quantity:     qty,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "recipe not found"})
			return
		}
		if h.writeConstraintError(w, err) {
			return
		}
		slog.ErrorContext(r.Context(), "update recipe", "recipe_id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toRecipeResponse(rc))
}

// Delete removes a recipe row.
func (h *RecipeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id", "recipe")
	if !ok {
		return
	}

	if _, err := h.store.DeleteRecipe(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "recipe not found"})
			return
		}
		slog.ErrorContext(r.Context(), "delete recipe", "recipe_id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- Helpers ---

func decodeRecipe(w http.ResponseWriter, r *http.Request) (recipeRequest, pgtype.Numeric, bool) {
	var req recipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return req, pgtype.Numeric{}, false
	}
	if req.MenuItemID <= 0 || req.IngredientID <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "menu_item_id and ingredient_id are required"})
		return req, pgtype.Numeric{}, false
	}
	qty, err := decimal.NewFromString(strings.TrimSpace(req.Quantity))
	if err != nil || !qty.IsPositive() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "quantity must be positive"})
		return req, pgtype.Numeric{}, false
	}
	return req, database.DecimalToNumeric(qty), true
}

func (h *RecipeHandler) writeConstraintError(w http.ResponseWriter, err error) bool {
	switch {
	case isUniqueViolation(err):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "ingredient already in this recipe"})
		return true
	case isForeignKeyViolation(err):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "menu item or ingredient does not exist"})
		return true
	}
	return false
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
