package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createSupplier = `-- name: CreateSupplier :one
INSERT INTO suppliers (name, phone, category, notes)
VALUES ($1, $2, $3, $4)
RETURNING id, name, phone, category, notes, created_at, updated_at
`

type CreateSupplierParams struct {
	Name     string      `json:"name"`
	Phone    pgtype.Text `json:"phone"`
	Category pgtype.Text `json:"category"`
	Notes    pgtype.Text `json:"notes"`
}

func (q *Queries) CreateSupplier(ctx context.Context, arg CreateSupplierParams) (Supplier, error) {
	row := q.db.QueryRow(ctx, createSupplier,
		arg.Name,
		arg.Phone,
		arg.Category,
		arg.Notes,
	)
	var i Supplier
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Phone,
		&i.Category,
		&i.Notes,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const deleteSupplier = `-- name: DeleteSupplier :one
DELETE FROM suppliers
WHERE id = $1
RETURNING id
`

func (q *Queries) DeleteSupplier(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, deleteSupplier, id)
	err := row.Scan(&id)
	return id, err
}

const listSuppliers = `-- name: ListSuppliers :many
SELECT id, name, phone, category, notes, created_at, updated_at FROM suppliers
ORDER BY name
`

func (q *Queries) ListSuppliers(ctx context.Context) ([]Supplier, error) {
	rows, err := q.db.Query(ctx, listSuppliers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Supplier{}
	for rows.Next() {
		var i Supplier
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.Phone,
			&i.Category,
			&i.Notes,
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

const updateSupplier = `-- name: UpdateSupplier :one
UPDATE suppliers SET name = $2, phone = $3, category = $4, notes = $5, updated_at = now()
WHERE id = $1
RETURNING id, name, phone, category, notes, created_at, updated_at
`

type UpdateSupplierParams struct {
	ID       uuid.UUID   `json:"id"`
	Name     string      `json:"name"`
	Phone    pgtype.Text `json:"phone"`
	Category pgtype.Text `json:"category"`
	Notes    pgtype.Text `json:"notes"`
}

func (q *Queries) UpdateSupplier(ctx context.Context, arg UpdateSupplierParams) (Supplier, error) {
	row := q.db.QueryRow(ctx, updateSupplier,
		arg.ID,
		arg.Name,
		arg.Phone,
		arg.Category,
		arg.Notes,
	)
	var i Supplier
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Phone,
		&i.Category,
		&i.Notes,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}
