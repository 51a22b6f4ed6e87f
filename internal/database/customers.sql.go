package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createCustomer = `-- name: CreateCustomer :one
INSERT INTO customers (phone, name, first_visit_at, last_visit_at, total_orders, total_spent)
VALUES ($1, $2, now(), now(), 1, $3)
RETURNING id, phone, name, first_visit_at, last_visit_at, total_orders, total_spent, created_at
`

type CreateCustomerParams struct {
	Phone      string         `json:"phone"`
	Name       string         `json:"name"`
	TotalSpent pgtype.Numeric `json:"total_spent"`
}

func (q *Queries) CreateCustomer(ctx context.Context, arg CreateCustomerParams) (Customer, error) {
	row := q.db.QueryRow(ctx, createCustomer, arg.Phone, arg.Name, arg.TotalSpent)
	var i Customer
	err := row.Scan(
		&i.ID,
		&i.Phone,
		&i.Name,
		&i.FirstVisitAt,
		&i.LastVisitAt,
		&i.TotalOrders,
		&i.TotalSpent,
		&i.CreatedAt,
	)
	return i, err
}

const getCustomer = `-- name: GetCustomer :one
SELECT id, phone, name, first_visit_at, last_visit_at, total_orders, total_spent, created_at FROM customers
WHERE id = $1
`

func (q *Queries) GetCustomer(ctx context.Context, id uuid.UUID) (Customer, error) {
	row := q.db.QueryRow(ctx, getCustomer, id)
	var i Customer
	err := row.Scan(
		&i.ID,
		&i.Phone,
		&i.Name,
		&i.FirstVisitAt,
		&i.LastVisitAt,
		&i.TotalOrders,
		&i.TotalSpent,
		&i.CreatedAt,
	)
	return i, err
}

const getCustomerByPhone = `-- name: GetCustomerByPhone :one
SELECT id, phone, name, first_visit_at, last_visit_at, total_orders, total_spent, created_at FROM customers
WHERE phone = $1
`

func (q *Queries) GetCustomerByPhone(ctx context.Context, phone string) (Customer, error) {
	row := q.db.QueryRow(ctx, getCustomerByPhone, phone)
	var i Customer
	err := row.Scan(
		&i.ID,
		&i.Phone,
		&i.Name,
		&i.FirstVisitAt,
		&i.LastVisitAt,
		&i.TotalOrders,
		&i.TotalSpent,
		&i.CreatedAt,
	)
	return i, err
}

const listCustomers = `-- name: ListCustomers :many
SELECT id, phone, name, first_visit_at, last_visit_at, total_orders, total_spent, created_at FROM customers
WHERE ($1::text IS NULL OR name ILIKE '%' || $1::text || '%' OR phone LIKE '%' || $1::text || '%')
ORDER BY total_spent DESC, name
LIMIT $2 OFFSET $3
`

type ListCustomersParams struct {
	Search pgtype.Text `json:"search"`
	Limit  int32       `json:"limit"`
	Offset int32       `json:"offset"`
}

func (q *Queries) ListCustomers(ctx context.Context, arg ListCustomersParams) ([]Customer, error) {
	rows, err := q.db.Query(ctx, listCustomers, arg.Search, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Customer{}
	for rows.Next() {
		var i Customer
		if err := rows.Scan(
			&i.ID,
			&i.Phone,
			&i.Name,
			&i.FirstVisitAt,
			&i.LastVisitAt,
			&i.TotalOrders,
			&i.TotalSpent,
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

const recordCustomerVisit = `-- name: RecordCustomerVisit :one
UPDATE customers SET
    total_orders = total_orders + 1,
    total_spent = total_spent + $2,
    last_visit_at = now()
WHERE id = $1
RETURNING id, phone, name, first_visit_at, last_visit_at, total_orders, total_spent, created_at
`

type RecordCustomerVisitParams struct {
	ID     uuid.UUID      `json:"id"`
	Amount pgtype.Numeric `json:"amount"`
}

func (q *Queries) RecordCustomerVisit(ctx context.Context, arg RecordCustomerVisitParams) (Customer, error) {
	row := q.db.QueryRow(ctx, recordCustomerVisit, arg.ID, arg.Amount)
	var i Customer
	err := row.Scan(
		&i.ID,
		&i.Phone,
		&i.Name,
		&i.FirstVisitAt,
		&i.LastVisitAt,
		&i.TotalOrders,
		&i.TotalSpent,
		&i.CreatedAt,
	)
	return i, err
}
