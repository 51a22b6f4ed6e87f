package database

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

const adjustInventoryStock = `-- name: AdjustInventoryStock :one
UPDATE inventory SET stock = stock + $2, updated_at = now()
WHERE ingredient_id = $1 AND stock + $2 >= 0
RETURNING ingredient_id, stock, min_limit, cost_per_unit, updated_at
`

type AdjustInventoryStockParams struct {
	IngredientID int64          `json:"ingredient_id"`
	Delta        pgtype.Numeric `json:"delta"`
}

// AdjustInventoryStock returns pgx.ErrNoRows when the ingredient is unknown or the result would be negative.
func (q *Queries) AdjustInventoryStock(ctx context.Context, arg AdjustInventoryStockParams) (Inventory, error) {
	row := q.db.QueryRow(ctx, adjustInventoryStock, arg.IngredientID, arg.Delta)
	var i Inventory
	err := row.Scan(
		&i.IngredientID,
		&i.Stock,
		&i.MinLimit,
		&i.CostPerUnit,
		&i.UpdatedAt,
	)
	return i, err
}

const createIngredient = `-- name: CreateIngredient :one
INSERT INTO ingredients (name, unit)
VALUES ($1, $2)
RETURNING id, name, unit
`

type CreateIngredientParams struct {
	Name string `json:"name"`
	Unit string `json:"unit"`
}

func (q *Queries) CreateIngredient(ctx context.Context, arg CreateIngredientParams) (Ingredient, error) {
	row := q.db.QueryRow(ctx, createIngredient, arg.Name, arg.Unit)
	var i Ingredient
	err := row.Scan(&i.ID, &i.Name, &i.Unit)
	return i, err
}

const createInventory = `-- name: CreateInventory :one
INSERT INTO inventory (ingredient_id, stock, min_limit, cost_per_unit)
VALUES ($1, $2, $3, $4)
RETURNING ingredient_id, stock, min_limit, cost_per_unit, updated_at
`

type CreateInventoryParams struct {
	IngredientID int64          `json:"ingredient_id"`
	Stock        pgtype.Numeric `json:"stock"`
	MinLimit     pgtype.Numeric `json:"min_limit"`
	CostPerUnit  pgtype.Numeric `json:"cost_per_unit"`
}

func (q *Queries) CreateInventory(ctx context.Context, arg CreateInventoryParams) (Inventory, error) {
	row := q.db.QueryRow(ctx, createInventory,
		arg.IngredientID,
		arg.Stock,
		arg.MinLimit,
		arg.CostPerUnit,
	)
	var i Inventory
	err := row.Scan(
		&i.IngredientID,
		&i.Stock,
		&i.MinLimit,
		&i.CostPerUnit,
		&i.UpdatedAt,
	)
	return i, err
}

const createInventoryLog = `-- name: CreateInventoryLog :one
INSERT INTO inventory_log (ingredient_id, change, reason)
VALUES ($1, $2, $3)
RETURNING id, ingredient_id, change, reason, created_at
`

type CreateInventoryLogParams struct {
	IngredientID int64          `json:"ingredient_id"`
	Change       pgtype.Numeric `json:"change"`
	Reason       string         `json:"reason"`
}

func (q *Queries) CreateInventoryLog(ctx context.Context, arg CreateInventoryLogParams) (InventoryLog, error) {
	row := q.db.QueryRow(ctx, createInventoryLog, arg.IngredientID, arg.Change, arg.Reason)
	var i InventoryLog
	err := row.Scan(
		&i.ID,
		&i.IngredientID,
		&i.Change,
		&i.Reason,
		&i.CreatedAt,
	)
	return i, err
}

const getInventory = `-- name: GetInventory :one
SELECT ingredient_id, stock, min_limit, cost_per_unit, updated_at FROM inventory
WHERE ingredient_id = $1
`

func (q *Queries) GetInventory(ctx context.Context, ingredientID int64) (Inventory, error) {
	row := q.db.QueryRow(ctx, getInventory, ingredientID)
	var i Inventory
	err := row.Scan(
		&i.IngredientID,
		&i.Stock,
		&i.MinLimit,
		&i.CostPerUnit,
		&i.UpdatedAt,
	)
	return i, err
}

const getInventoryForUpdate = `-- name: GetInventoryForUpdate :one
SELECT ingredient_id, stock, min_limit, cost_per_unit, updated_at FROM inventory
WHERE ingredient_id = $1
FOR NO KEY UPDATE
`

func (q *Queries) GetInventoryForUpdate(ctx context.Context, ingredientID int64) (Inventory, error) {
	row := q.db.QueryRow(ctx, getInventoryForUpdate, ingredientID)
	var i Inventory
	err := row.Scan(
		&i.IngredientID,
		&i.Stock,
		&i.MinLimit,
		&i.CostPerUnit,
		&i.UpdatedAt,
	)
	return i, err
}

const listIngredients = `-- name: ListIngredients :many
SELECT id, name, unit FROM ingredients
ORDER BY name
`

func (q *Queries) ListIngredients(ctx context.Context) ([]Ingredient, error) {
	rows, err := q.db.Query(ctx, listIngredients)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Ingredient{}
	for rows.Next() {
		var i Ingredient
		if err := rows.Scan(&i.ID, &i.Name, &i.Unit); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listInventory = `-- name: ListInventory :many
SELECT inv.ingredient_id, inv.stock, inv.min_limit, inv.cost_per_unit, inv.updated_at, ing.name, ing.unit
FROM inventory inv
JOIN ingredients ing ON ing.id = inv.ingredient_id
ORDER BY inv.ingredient_id
`

type ListInventoryRow struct {
	IngredientID   int64          `json:"ingredient_id"`
	Stock          pgtype.Numeric `json:"stock"`
	MinLimit       pgtype.Numeric `json:"min_limit"`
	CostPerUnit    pgtype.Numeric `json:"cost_per_unit"`
	UpdatedAt      time.Time      `json:"updated_at"`
	IngredientName string         `json:"ingredient_name"`
	IngredientUnit string         `json:"ingredient_unit"`
}

func (q *Queries) ListInventory(ctx context.Context) ([]ListInventoryRow, error) {
	rows, err := q.db.Query(ctx, listInventory)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []ListInventoryRow{}
	for rows.Next() {
		var i ListInventoryRow
		if err := rows.Scan(
			&i.IngredientID,
			&i.Stock,
			&i.MinLimit,
			&i.CostPerUnit,
			&i.UpdatedAt,
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

const listInventoryLog = `-- name: ListInventoryLog :many
SELECT l.id, l.ingredient_id, l.change, l.reason, l.created_at, ing.name, ing.unit
FROM inventory_log l
JOIN ingredients ing ON ing.id = l.ingredient_id
WHERE ($1::timestamptz IS NULL OR l.created_at >= $1::timestamptz)
ORDER BY l.created_at DESC
LIMIT $2
`

type ListInventoryLogParams struct {
	Since pgtype.Timestamptz `json:"since"`
	Limit int32              `json:"limit"`
}

type ListInventoryLogRow struct {
	ID             int64          `json:"id"`
	IngredientID   int64          `json:"ingredient_id"`
	Change         pgtype.Numeric `json:"change"`
	Reason         string         `json:"reason"`
	CreatedAt      time.Time      `json:"created_at"`
	IngredientName string         `json:"ingredient_name"`
	IngredientUnit string         `json:"ingredient_unit"`
}

func (q *Queries) ListInventoryLog(ctx context.Context, arg ListInventoryLogParams) ([]ListInventoryLogRow, error) {
	rows, err := q.db.Query(ctx, listInventoryLog, arg.Since, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []ListInventoryLogRow{}
	for rows.Next() {
		var i ListInventoryLogRow
		if err := rows.Scan(
			&i.ID,
			&i.IngredientID,
			&i.Change,
			&i.Reason,
			&i.CreatedAt,
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

const updateInventory = `-- name: UpdateInventory :one
UPDATE inventory SET stock = $2, min_limit = $3, cost_per_unit = $4, updated_at = now()
WHERE ingredient_id = $1
RETURNING ingredient_id, stock, min_limit, cost_per_unit, updated_at
`

type UpdateInventoryParams struct {
	IngredientID int64          `json:"ingredient_id"`
	Stock        pgtype.Numeric `json:"stock"`
	MinLimit     pgtype.Numeric `json:"min_limit"`
	CostPerUnit  pgtype.Numeric `json:"cost_per_unit"`
}

func (q *Queries) UpdateInventory(ctx context.Context, arg UpdateInventoryParams) (Inventory, error) {
	row := q.db.QueryRow(ctx, updateInventory,
		arg.IngredientID,
		arg.Stock,
		arg.MinLimit,
		arg.CostPerUnit,
	)
	var i Inventory
	err := row.Scan(
		&i.IngredientID,
		&i.Stock,
		&i.MinLimit,
		&i.CostPerUnit,
		&i.UpdatedAt,
	)
	return i, err
}
