package handler_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sahar-erp/api/internal/database"
	"github.com/sahar-erp/api/internal/handler"
)

// mockRecipeStore enforces the unique (menu_item_id, ingredient_id) pair and
// the foreign keys the way Postgres reports them.
type mockRecipeStore struct {
	recipes     []database.Recipe
	menuItems   map[int64]string
	ingredients map[int64]string
	nextID      int64
}

func newMockRecipeStore() *mockRecipeStore {
	return &mockRecipeStore{
		menuItems:   map[int64]string{1: "Latte", 2: "Mocha"},
		ingredients: map[int64]string{1: "Milk", 2: "Coffee Beans"},
	}
}

func (m *mockRecipeStore) check(id, menuID, ingredientID int64) error {
	if _, ok := m.menuItems[menuID]; !ok {
		return &pgconn.PgError{Code: "23503"}
	}
	if _, ok := m.ingredients[ingredientID]; !ok {
		return &pgconn.PgError{Code: "23503"}
	}
	for _, rc := range m.recipes {
		if rc.ID != id && rc.MenuItemID == menuID && rc.IngredientID == ingredientID {
			return &pgconn.PgError{Code: "23505"}
		}
	}
	return nil
}

func (m *mockRecipeStore) ListRecipes(_ context.Context) ([]database.ListRecipesRow, error) {
	rows := make([]database.ListRecipesRow, len(m.recipes))
	for i, rc := range m.recipes {
		rows[i] = database.ListRecipesRow{
			ID:             rc.ID,
			MenuItemID:     rc.MenuItemID,
			IngredientID:   rc.IngredientID,
			Quantity:       rc.Quantity,
			MenuNameLocal:  m.menuItems[rc.MenuItemID],
			IngredientName: m.ingredients[rc.IngredientID],
			IngredientUnit: "g",
		}
	}
	return rows, nil
}

func (m *mockRecipeStore) CreateRecipe(_ context.Context, arg database.CreateRecipeParams) (database.Recipe, error) {
	if err := m.check(0, arg.MenuItemID, arg.IngredientID); err != nil {
		return database.Recipe{}, err
	}
	m.nextID++
	rc := database.Recipe{ID: m.nextID, MenuItemID: arg.MenuItemID, IngredientID: arg.IngredientID, Quantity: arg.Quantity}
	m.recipes = append(m.recipes, rc)
	return rc, nil
}

func (m *mockRecipeStore) UpdateRecipe(_ context.Context, arg database.UpdateRecipeParams) (database.Recipe, error) {
	for i, rc := range m.recipes {
		if rc.ID != arg.ID {
			continue
		}
		if err := m.check(arg.ID, arg.MenuItemID, arg.IngredientID); err != nil {
			return database.Recipe{}, err
		}
		rc.MenuItemID = arg.MenuItemID
		rc.IngredientID = arg.IngredientID
		rc.Quantity = arg.Quantity
		m.recipes[i] = rc
		return rc, nil
	}
	return database.Recipe{}, pgx.ErrNoRows
}

func (m *mockRecipeStore) DeleteRecipe(_ context.Context, id int64) (int64, error) {
	for i, rc := range m.recipes {
		if rc.ID == id {
			m.recipes = append(m.recipes[:i], m.recipes[i+1:]...)
			return id, nil
		}
	}
	return 0, pgx.ErrNoRows
}

func setupRecipeRouter(store *mockRecipeStore) *chi.Mux {
	h := handler.NewRecipeHandler(store)
	r := chi.NewRouter()
	h.RegisterManagerRoutes(r)
	return r
}

func recipeBody(menuID, ingredientID int64, qty string) map[string]interface{} {
	return map[string]interface{}{"menu_item_id": menuID, "ingredient_id": ingredientID, "quantity": qty}
}

func TestRecipeCreateAndList(t *testing.T) {
	store := newMockRecipeStore()
	r := setupRecipeRouter(store)

	rr := postJSON(t, r, "/recipes", recipeBody(1, 1, "0.2"))
	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d; body: %s", rr.Code, rr.Body.String())
	}
	if got := decodeResponse(t, rr)["quantity"]; got != "0.2" {
		t.Errorf("quantity: got %v, want 0.2", got)
	}

	list := decodeList(t, doJSON(t, r, "GET", "/recipes", nil))
	if len(list) != 1 {
		t.Fatalf("recipes: got %d, want 1", len(list))
	}
	if list[0]["menu_name_local"] != "Latte" || list[0]["ingredient_name"] != "Milk" {
		t.Errorf("names: got %v", list[0])
	}
}

func TestRecipeCreate_Errors(t *testing.T) {
	store := newMockRecipeStore()
	r := setupRecipeRouter(store)
	postJSON(t, r, "/recipes", recipeBody(1, 1, "0.2"))

	tests := []struct {
		name string
		body map[string]interface{}
		want int
	}{
		{"duplicate ingredient", recipeBody(1, 1, "0.3"), http.StatusConflict},
		{"unknown menu item", recipeBody(9, 1, "1"), http.StatusBadRequest},
		{"unknown ingredient", recipeBody(1, 9, "1"), http.StatusBadRequest},
		{"missing ids", recipeBody(0, 1, "1"), http.StatusBadRequest},
		{"zero quantity", recipeBody(2, 1, "0"), http.StatusBadRequest},
		{"bad quantity", recipeBody(2, 1, "some"), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := postJSON(t, r, "/recipes", tt.body)
			if rr.Code != tt.want {
				t.Errorf("status: got %d, want %d; body: %s", rr.Code, tt.want, rr.Body.String())
			}
		})
	}
	if len(store.recipes) != 1 {
		t.Errorf("recipes: got %d, want 1", len(store.recipes))
	}
}

func TestRecipeUpdate(t *testing.T) {
	store := newMockRecipeStore()
	r := setupRecipeRouter(store)
	postJSON(t, r, "/recipes", recipeBody(1, 1, "0.2"))
	postJSON(t, r, "/recipes", recipeBody(1, 2, "18"))

	rr := doJSON(t, r, "PUT", "/recipes/2", recipeBody(1, 2, "20"))
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d; body: %s", rr.Code, rr.Body.String())
	}
	if got := decodeResponse(t, rr)["quantity"]; got != "20" {
		t.Errorf("quantity: got %v, want 20", got)
	}

	rr = doJSON(t, r, "PUT", "/recipes/2", recipeBody(1, 1, "20"))
	if rr.Code != http.StatusConflict {
		t.Errorf("collide with row 1: got %d, want %d", rr.Code, http.StatusConflict)
	}

	rr = doJSON(t, r, "PUT", "/recipes/99", recipeBody(2, 2, "1"))
	if rr.Code != http.StatusNotFound {
		t.Errorf("unknown: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestRecipeDelete(t *testing.T) {
	store := newMockRecipeStore()
	r := setupRecipeRouter(store)
	postJSON(t, r, "/recipes", recipeBody(1, 1, "0.2"))

	rr := doJSON(t, r, "DELETE", "/recipes/1", nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusNoContent)
	}
	rr = doJSON(t, r, "DELETE", "/recipes/1", nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("second delete: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}
