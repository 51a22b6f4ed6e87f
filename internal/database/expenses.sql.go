package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createExpense = `-- name: CreateExpense :one
INSERT INTO expenses (amount, description, category, recorded_by)
VALUES ($1, $2, $3, $4)
RETURNING id, amount, description, category, recorded_by, created_at
`

type CreateExpenseParams struct {
	Amount      pgtype.Numeric `json:"amount"`
	Description string         `json:"description"`
	Category    string         `json:"category"`
	RecordedBy  string         `json:"recorded_by"`
}

func (q *Queries) CreateExpense(ctx context.Context, arg CreateExpenseParams) (Expense, error) {
	row := q.db.QueryRow(ctx, createExpense,
		arg.Amount,
		arg.Description,
		arg.Category,
		arg.RecordedBy,
	)
	var i Expense
	err := row.Scan(
		&i.ID,
		&i.Amount,
		&i.Description,
		&i.Category,
		&i.RecordedBy,
		&i.CreatedAt,
	)
	return i, err
}

const deleteExpense = `-- name: DeleteExpense :one
DELETE FROM expenses
WHERE id = $1
RETURNING id
`

func (q *Queries) DeleteExpense(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, deleteExpense, id)
	err := row.Scan(&id)
	return id, err
}

const listExpensesSince = `-- name: ListExpensesSince :many
SELECT id, amount, description, category, recorded_by, created_at FROM expenses
WHERE created_at >= $1
ORDER BY created_at DESC
`

func (q *Queries) ListExpensesSince(ctx context.Context, since time.Time) ([]Expense, error) {
	rows, err := q.db.Query(ctx, listExpensesSince, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Expense{}
	for rows.Next() {
		var i Expense
		if err := rows.Scan(
			&i.ID,
			&i.Amount,
			&i.Description,
			&i.Category,
			&i.RecordedBy,
			&i.CreatedAt,
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
