package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createRecipe = `-- name: CreateRecipe :one
INSERT INTO recipes (menu_item_id, ingredient_id, quantity)
VALUES ($1, $2, $3)
RETURNING id, menu_item_id, ingredient_id, quantity
`

type CreateRecipeParams struct {
	MenuItemID   int64          `json:"menu_item_id"`
	IngredientID int64          `json:"ingredient_id"`
	Quantity     pgtype.Numeric `json:"quantity"`
}

func (q *Queries) CreateRecipe(ctx context.Context, arg CreateRecipeParams) (Recipe, error) {
	row := q.db.QueryRow(ctx, createRecipe, arg.MenuItemID, arg.IngredientID, arg.Quantity)
	var i Recipe
	err := row.Scan(
		&i.ID,
		&i.MenuItemID,
		&i.IngredientID,
		&i.Quantity,
	)
	return i, err
}

const deleteRecipe = `-- name: DeleteRecipe :one
DELETE FROM recipes
WHERE id = $1
RETURNING id
`

func (q *Queries) DeleteRecipe(ctx context.Context, id int64) (int64, error) {
	row := q.db.QueryRow(ctx, deleteRecipe, id)
	err := row.Scan(&id)
	return id, err
}

const listRecipes = `-- name: ListRecipes :many
SELECT r.id, r.menu_item_id, r.ingredient_id, r.quantity, m.name_local, ing.name, ing.unit
FROM recipes r
JOIN menu m ON m.id = r.menu_item_id
JOIN ingredients ing ON ing.id = r.ingredient_id
ORDER BY r.menu_item_id, ing.name
`

type ListRecipesRow struct {
	ID             int64          `json:"id"`
	MenuItemID     int64          `json:"menu_item_id"`
	IngredientID   int64          `json:"ingredient_id"`
	Quantity       pgtype.Numeric `json:"quantity"`
	MenuNameLocal  string         `json:"menu_name_local"`
	IngredientName string         `json:"ingredient_name"`
	IngredientUnit string         `json:"ingredient_unit"`
}

func (q *Queries) ListRecipes(ctx context.Context) ([]ListRecipesRow, error) {
	rows, err := q.db.Query(ctx, listRecipes)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []ListRecipesRow{}
	for rows.Next() {
		var i ListRecipesRow
		if err := rows.Scan(
			&i.ID,
			&i.MenuItemID,
			&i.IngredientID,
			&i.Quantity,
			&i.MenuNameLocal,
			&i.IngredientName,
			&i.IngredientUnit,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateRecipe = `-- name: UpdateRecipe :one
UPDATE recipes SET menu_item_id = $2, ingredient_id = $3, quantity = $4
WHERE id = $1
RETURNING id, menu_item_id, ingredient_id, quantity
`

type UpdateRecipeParams struct {
	ID           int64          `json:"id"`
	MenuItemID   int64          `json:"menu_item_id"`
	IngredientID int64          `json:"ingredient_id"`
	Quantity     pgtype.Numeric `json:"quantity"`
}

func (q *Queries) UpdateRecipe(ctx context.Context, arg UpdateRecipeParams) (Recipe, error) {
	row := q.db.QueryRow(ctx, updateRecipe,
		arg.ID,
		arg.MenuItemID,
		arg.IngredientID,
		arg.Quantity,
	)
	var i Recipe
	err := row.Scan(
		&i.ID,
		&i.MenuItemID,
		&i.IngredientID,
		&i.Quantity,
	)
	return i, err
}
