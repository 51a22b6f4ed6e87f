package database

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

const cancelWebOrder = `-- name: CancelWebOrder :one
UPDATE orders SET status = 'Cancelled', is_paid = true, updated_at = now()
WHERE order_id = $1 AND order_type = 'website' AND is_paid = false
RETURNING order_id, idempotency_key, customer_name, phone, total_amount, order_summary, status, payment_method, is_paid, order_type, created_at, updated_at
`

func (q *Queries) CancelWebOrder(ctx context.Context, orderID int64) (Order, error) {
	row := q.db.QueryRow(ctx, cancelWebOrder, orderID)
	var i Order
	err := row.Scan(
		&i.OrderID,
		&i.IdempotencyKey,
		&i.CustomerName,
		&i.Phone,
		&i.TotalAmount,
		&i.OrderSummary,
		&i.Status,
		&i.PaymentMethod,
		&i.IsPaid,
		&i.OrderType,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const confirmWebOrder = `-- name: ConfirmWebOrder :one
UPDATE orders SET status = 'New', is_paid = true, updated_at = now()
WHERE order_id = $1 AND order_type = 'website' AND is_paid = false
RETURNING order_id, idempotency_key, customer_name, phone, total_amount, order_summary, status, payment_method, is_paid, order_type, created_at, updated_at
`

func (q *Queries) ConfirmWebOrder(ctx context.Context, orderID int64) (Order, error) {
	row := q.db.QueryRow(ctx, confirmWebOrder, orderID)
	var i Order
	err := row.Scan(
		&i.OrderID,
		&i.IdempotencyKey,
		&i.CustomerName,
		&i.Phone,
		&i.TotalAmount,
		&i.OrderSummary,
		&i.Status,
		&i.PaymentMethod,
		&i.IsPaid,
		&i.OrderType,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createOrder = `-- name: CreateOrder :one
INSERT INTO orders (idempotency_key, customer_name, phone, total_amount, order_summary, status, payment_method, is_paid, order_type)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING order_id, idempotency_key, customer_name, phone, total_amount, order_summary, status, payment_method, is_paid, order_type, created_at, updated_at
`

type CreateOrderParams struct {
	IdempotencyKey pgtype.UUID    `json:"idempotency_key"`
	CustomerName   string         `json:"customer_name"`
	Phone          string         `json:"phone"`
	TotalAmount    pgtype.Numeric `json:"total_amount"`
	OrderSummary   string         `json:"order_summary"`
	Status         string         `json:"status"`
	PaymentMethod  string         `json:"payment_method"`
	IsPaid         bool           `json:"is_paid"`
	OrderType      string         `json:"order_type"`
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, createOrder,
		arg.IdempotencyKey,
		arg.CustomerName,
		arg.Phone,
		arg.TotalAmount,
		arg.OrderSummary,
		arg.Status,
		arg.PaymentMethod,
		arg.IsPaid,
		arg.OrderType,
	)
	var i Order
	err := row.Scan(
		&i.OrderID,
		&i.IdempotencyKey,
		&i.CustomerName,
		&i.Phone,
		&i.TotalAmount,
		&i.OrderSummary,
		&i.Status,
		&i.PaymentMethod,
		&i.IsPaid,
		&i.OrderType,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getOrder = `-- name: GetOrder :one
SELECT order_id, idempotency_key, customer_name, phone, total_amount, order_summary, status, payment_method, is_paid, order_type, created_at, updated_at FROM orders
WHERE order_id = $1
`

func (q *Queries) GetOrder(ctx context.Context, orderID int64) (Order, error) {
	row := q.db.QueryRow(ctx, getOrder, orderID)
	var i Order
	err := row.Scan(
		&i.OrderID,
		&i.IdempotencyKey,
		&i.CustomerName,
		&i.Phone,
		&i.TotalAmount,
		&i.OrderSummary,
		&i.Status,
		&i.PaymentMethod,
		&i.IsPaid,
		&i.OrderType,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getOrderByIdempotencyKey = `-- name: GetOrderByIdempotencyKey :one
SELECT order_id, idempotency_key, customer_name, phone, total_amount, order_summary, status, payment_method, is_paid, order_type, created_at, updated_at FROM orders
WHERE idempotency_key = $1
`

func (q *Queries) GetOrderByIdempotencyKey(ctx context.Context, idempotencyKey pgtype.UUID) (Order, error) {
	row := q.db.QueryRow(ctx, getOrderByIdempotencyKey, idempotencyKey)
	var i Order
	err := row.Scan(
		&i.OrderID,
		&i.IdempotencyKey,
		&i.CustomerName,
		&i.Phone,
		&i.TotalAmount,
		&i.OrderSummary,
		&i.Status,
		&i.PaymentMethod,
		&i.IsPaid,
		&i.OrderType,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listKitchenOrders = `-- name: ListKitchenOrders :many
SELECT order_id, idempotency_key, customer_name, phone, total_amount, order_summary, status, payment_method, is_paid, order_type, created_at, updated_at FROM orders
WHERE is_paid = true AND status NOT IN ('Cancelled', 'Delivered')
ORDER BY created_at ASC
`

func (q *Queries) ListKitchenOrders(ctx context.Context) ([]Order, error) {
	rows, err := q.db.Query(ctx, listKitchenOrders)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Order{}
	for rows.Next() {
		var i Order
		if err := rows.Scan(
			&i.OrderID,
			&i.IdempotencyKey,
			&i.CustomerName,
			&i.Phone,
			&i.TotalAmount,
			&i.OrderSummary,
			&i.Status,
			&i.PaymentMethod,
			&i.IsPaid,
			&i.OrderType,
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

const listOrders = `-- name: ListOrders :many
SELECT order_id, idempotency_key, customer_name, phone, total_amount, order_summary, status, payment_method, is_paid, order_type, created_at, updated_at FROM orders
WHERE ($1::text IS NULL OR status = $1::text)
  AND ($2::text IS NULL OR order_type = $2::text)
  AND ($3::timestamptz IS NULL OR created_at >= $3::timestamptz)
ORDER BY created_at DESC
LIMIT $4 OFFSET $5
`

type ListOrdersParams struct {
	Status    pgtype.Text        `json:"status"`
	OrderType pgtype.Text        `json:"order_type"`
	Since     pgtype.Timestamptz `json:"since"`
	Limit     int32              `json:"limit"`
	Offset    int32              `json:"offset"`
}

func (q *Queries) ListOrders(ctx context.Context, arg ListOrdersParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrders,
		arg.Status,
		arg.OrderType,
		arg.Since,
		arg.Limit,
		arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Order{}
	for rows.Next() {
		var i Order
		if err := rows.Scan(
			&i.OrderID,
			&i.IdempotencyKey,
			&i.CustomerName,
			&i.Phone,
			&i.TotalAmount,
			&i.OrderSummary,
			&i.Status,
			&i.PaymentMethod,
			&i.IsPaid,
			&i.OrderType,
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

const listPaidOrdersSince = `-- name: ListPaidOrdersSince :many
SELECT order_id, idempotency_key, customer_name, phone, total_amount, order_summary, status, payment_method, is_paid, order_type, created_at, updated_at FROM orders
WHERE is_paid = true AND status <> 'Cancelled' AND created_at >= $1
ORDER BY created_at DESC
`

func (q *Queries) ListPaidOrdersSince(ctx context.Context, since time.Time) ([]Order, error) {
	rows, err := q.db.Query(ctx, listPaidOrdersSince, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Order{}
	for rows.Next() {
		var i Order
		if err := rows.Scan(
			&i.OrderID,
			&i.IdempotencyKey,
			&i.CustomerName,
			&i.Phone,
			&i.TotalAmount,
			&i.OrderSummary,
			&i.Status,
			&i.PaymentMethod,
			&i.IsPaid,
			&i.OrderType,
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

const listWebOrders = `-- name: ListWebOrders :many
SELECT order_id, idempotency_key, customer_name, phone, total_amount, order_summary, status, payment_method, is_paid, order_type, created_at, updated_at FROM orders
WHERE order_type = 'website' AND is_paid = false
ORDER BY created_at DESC
`

func (q *Queries) ListWebOrders(ctx context.Context) ([]Order, error) {
	rows, err := q.db.Query(ctx, listWebOrders)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Order{}
	for rows.Next() {
		var i Order
		if err := rows.Scan(
			&i.OrderID,
			&i.IdempotencyKey,
			&i.CustomerName,
			&i.Phone,
			&i.TotalAmount,
			&i.OrderSummary,
			&i.Status,
			&i.PaymentMethod,
			&i.IsPaid,
			&i.OrderType,
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

const updateOrderStatus = `-- name: UpdateOrderStatus :one
UPDATE orders SET status = $3, updated_at = now()
WHERE order_id = $1 AND status = $2
RETURNING order_id, idempotency_key, customer_name, phone, total_amount, order_summary, status, payment_method, is_paid, order_type, created_at, updated_at
`

type UpdateOrderStatusParams struct {
	OrderID    int64  `json:"order_id"`
	FromStatus string `json:"from_status"`
	ToStatus   string `json:"to_status"`
}

func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error) {
	row := q.db.QueryRow(ctx, updateOrderStatus, arg.OrderID, arg.FromStatus, arg.ToStatus)
	var i Order
	err := row.Scan(
		&i.OrderID,
		&i.IdempotencyKey,
		&i.CustomerName,
		&i.Phone,
		&i.TotalAmount,
		&i.OrderSummary,
		&i.Status,
		&i.PaymentMethod,
		&i.IsPaid,
		&i.OrderType,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}
