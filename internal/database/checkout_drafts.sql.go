package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const finishCheckoutDraft = `-- name: FinishCheckoutDraft :exec
UPDATE checkout_drafts SET status = $2, last_error = $3, updated_at = now()
WHERE idempotency_key = $1
`

type FinishCheckoutDraftParams struct {
	IdempotencyKey uuid.UUID   `json:"idempotency_key"`
	Status         string      `json:"status"`
	LastError      pgtype.Text `json:"last_error"`
}

func (q *Queries) FinishCheckoutDraft(ctx context.Context, arg FinishCheckoutDraftParams) error {
	_, err := q.db.Exec(ctx, finishCheckoutDraft, arg.IdempotencyKey, arg.Status, arg.LastError)
	return err
}

const listStaleCheckoutDrafts = `-- name: ListStaleCheckoutDrafts :many
SELECT idempotency_key, register_id, payload, total_amount, customer_applied, order_id, status, last_error, created_at, updated_at FROM checkout_drafts
WHERE status = 'Started' AND updated_at < $1
ORDER BY created_at
LIMIT $2
`

type ListStaleCheckoutDraftsParams struct {
	Before time.Time `json:"before"`
	Limit  int32     `json:"limit"`
}

func (q *Queries) ListStaleCheckoutDrafts(ctx context.Context, arg ListStaleCheckoutDraftsParams) ([]CheckoutDraft, error) {
	rows, err := q.db.Query(ctx, listStaleCheckoutDrafts, arg.Before, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []CheckoutDraft{}
	for rows.Next() {
		var i CheckoutDraft
		if err := rows.Scan(
			&i.IdempotencyKey,
			&i.RegisterID,
			&i.Payload,
			&i.TotalAmount,
			&i.CustomerApplied,
			&i.OrderID,
			&i.Status,
			&i.LastError,
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

const markDraftCustomerApplied = `-- name: MarkDraftCustomerApplied :exec
UPDATE checkout_drafts SET customer_applied = true, updated_at = now()
WHERE idempotency_key = $1
`

func (q *Queries) MarkDraftCustomerApplied(ctx context.Context, idempotencyKey uuid.UUID) error {
	_, err := q.db.Exec(ctx, markDraftCustomerApplied, idempotencyKey)
	return err
}

const setDraftOrder = `-- name: SetDraftOrder :exec
UPDATE checkout_drafts SET order_id = $2, updated_at = now()
WHERE idempotency_key = $1
`

type SetDraftOrderParams struct {
	IdempotencyKey uuid.UUID   `json:"idempotency_key"`
	OrderID        pgtype.Int8 `json:"order_id"`
}

func (q *Queries) SetDraftOrder(ctx context.Context, arg SetDraftOrderParams) error {
	_, err := q.db.Exec(ctx, setDraftOrder, arg.IdempotencyKey, arg.OrderID)
	return err
}

const startCheckoutDraft = `-- name: StartCheckoutDraft :one
INSERT INTO checkout_drafts (idempotency_key, register_id, payload, total_amount)
VALUES ($1, $2, $3, $4)
ON CONFLICT (idempotency_key) DO UPDATE SET updated_at = now()
RETURNING idempotency_key, register_id, payload, total_amount, customer_applied, order_id, status, last_error, created_at, updated_at
`

type StartCheckoutDraftParams struct {
	IdempotencyKey uuid.UUID      `json:"idempotency_key"`
	RegisterID     string         `json:"register_id"`
	Payload        []byte         `json:"payload"`
	TotalAmount    pgtype.Numeric `json:"total_amount"`
}

// StartCheckoutDraft returns the existing draft unchanged (apart from updated_at) when the key is already known.
func (q *Queries) StartCheckoutDraft(ctx context.Context, arg StartCheckoutDraftParams) (CheckoutDraft, error) {
	row := q.db.QueryRow(ctx, startCheckoutDraft,
		arg.IdempotencyKey,
		arg.RegisterID,
		arg.Payload,
		arg.TotalAmount,
	)
	var i CheckoutDraft
	err := row.Scan(
		&i.IdempotencyKey,
		&i.RegisterID,
		&i.Payload,
		&i.TotalAmount,
		&i.CustomerApplied,
		&i.OrderID,
		&i.Status,
		&i.LastError,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}
