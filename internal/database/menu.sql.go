package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createMenuItem = `-- name: CreateMenuItem :one
INSERT INTO menu (name_local, name_alt, category, price, discount_price, cost, is_available, is_featured, image_ref)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id, name_local, name_alt, category, price, discount_price, cost, is_available, is_featured, image_ref, created_at, updated_at
`

type CreateMenuItemParams struct {
	NameLocal     string         `json:"name_local"`
	NameAlt       pgtype.Text    `json:"name_alt"`
	Category      string         `json:"category"`
	Price         pgtype.Numeric `json:"price"`
	DiscountPrice pgtype.Numeric `json:"discount_price"`
	Cost          pgtype.Numeric `json:"cost"`
	IsAvailable   bool           `json:"is_available"`
	IsFeatured    bool           `json:"is_featured"`
	ImageRef      pgtype.Text    `json:"image_ref"`
}

func (q *Queries) CreateMenuItem(ctx context.Context, arg CreateMenuItemParams) (MenuItem, error) {
	row := q.db.QueryRow(ctx, createMenuItem,
		arg.NameLocal,
		arg.NameAlt,
		arg.Category,
		arg.Price,
		arg.DiscountPrice,
		arg.Cost,
		arg.IsAvailable,
		arg.IsFeatured,
		arg.ImageRef,
	)
	var i MenuItem
	err := row.Scan(
		&i.ID,
		&i.NameLocal,
		&i.NameAlt,
		&i.Category,
		&i.Price,
		&i.DiscountPrice,
		&i.Cost,
		&i.IsAvailable,
		&i.IsFeatured,
		&i.ImageRef,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getMenuItem = `-- name: GetMenuItem :one
SELECT id, name_local, name_alt, category, price, discount_price, cost, is_available, is_featured, image_ref, created_at, updated_at FROM menu
WHERE id = $1
`

func (q *Queries) GetMenuItem(ctx context.Context, id int64) (MenuItem, error) {
	row := q.db.QueryRow(ctx, getMenuItem, id)
	var i MenuItem
	err := row.Scan(
		&i.ID,
		&i.NameLocal,
		&i.NameAlt,
		&i.Category,
		&i.Price,
		&i.DiscountPrice,
		&i.Cost,
		&i.IsAvailable,
		&i.IsFeatured,
		&i.ImageRef,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listMenuItems = `-- name: ListMenuItems :many
SELECT id, name_local, name_alt, category, price, discount_price, cost, is_available, is_featured, image_ref, created_at, updated_at FROM menu
WHERE ($1::text IS NULL OR category = $1::text)
  AND ($2::text IS NULL OR name_local ILIKE '%' || $2::text || '%' OR name_alt ILIKE '%' || $2::text || '%')
  AND (NOT $3::bool OR is_available = true)
ORDER BY is_featured DESC, category, name_local
`

type ListMenuItemsParams struct {
	Category      pgtype.Text `json:"category"`
	Search        pgtype.Text `json:"search"`
	AvailableOnly bool        `json:"available_only"`
}

func (q *Queries) ListMenuItems(ctx context.Context, arg ListMenuItemsParams) ([]MenuItem, error) {
	rows, err := q.db.Query(ctx, listMenuItems, arg.Category, arg.Search, arg.AvailableOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []MenuItem{}
	for rows.Next() {
		var i MenuItem
		if err := rows.Scan(
			&i.ID,
			&i.NameLocal,
			&i.NameAlt,
			&i.Category,
			&i.Price,
			&i.DiscountPrice,
			&i.Cost,
			&i.IsAvailable,
			&i.IsFeatured,
			&i.ImageRef,
			&i.CreatedAt,
			&i.UpdatedAt,
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

const setMenuItemAvailability = `-- name: SetMenuItemAvailability :one
UPDATE menu SET is_available = $2, updated_at = now()
WHERE id = $1
RETURNING id, name_local, name_alt, category, price, discount_price, cost, is_available, is_featured, image_ref, created_at, updated_at
`

type SetMenuItemAvailabilityParams struct {
	ID          int64 `json:"id"`
	IsAvailable bool  `json:"is_available"`
}

func (q *Queries) SetMenuItemAvailability(ctx context.Context, arg SetMenuItemAvailabilityParams) (MenuItem, error) {
	row := q.db.QueryRow(ctx, setMenuItemAvailability, arg.ID, arg.IsAvailable)
	var i MenuItem
	err := row.Scan(
		&i.ID,
		&i.NameLocal,
		&i.NameAlt,
		&i.Category,
		&i.Price,
		&i.DiscountPrice,
		&i.Cost,
		&i.IsAvailable,
		&i.IsFeatured,
		&i.ImageRef,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const updateMenuItem = `-- name: UpdateMenuItem :one
UPDATE menu SET
    name_local = $2,
    name_alt = $3,
    category = $4,
    price = $5,
    discount_price = $6,
    cost = $7,
    is_available = $8,
    is_featured = $9,
    image_ref = $10,
    updated_at = now()
WHERE id = $1
RETURNING id, name_local, name_alt, category, price, discount_price, cost, is_available, is_featured, image_ref, created_at, updated_at
`

type UpdateMenuItemParams struct {
	ID            int64          `json:"id"`
	NameLocal     string         `json:"name_local"`
	NameAlt       pgtype.Text    `json:"name_alt"`
	Category      string         `json:"category"`
	Price         pgtype.Numeric `json:"price"`
	DiscountPrice pgtype.Numeric `json:"discount_price"`
	Cost          pgtype.Numeric `json:"cost"`
	IsAvailable   bool           `json:"is_available"`
	IsFeatured    bool           `json:"is_featured"`
	ImageRef      pgtype.Text    `json:"image_ref"`
}

func (q *Queries) UpdateMenuItem(ctx context.Context, arg UpdateMenuItemParams) (MenuItem, error) {
	row := q.db.QueryRow(ctx, updateMenuItem,
		arg.ID,
		arg.NameLocal,
		arg.NameAlt,
		arg.Category,
		arg.Price,
		arg.DiscountPrice,
		arg.Cost,
		arg.IsAvailable,
		arg.IsFeatured,
		arg.ImageRef,
	)
	var i MenuItem
	err := row.Scan(
		&i.ID,
		&i.NameLocal,
		&i.NameAlt,
		&i.Category,
		&i.Price,
		&i.DiscountPrice,
		&i.Cost,
		&i.IsAvailable,
		&i.IsFeatured,
		&i.ImageRef,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}
