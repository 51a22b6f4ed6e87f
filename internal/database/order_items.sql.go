package database

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

const countOrderLines = `-- name: CountOrderLines :one
SELECT count(*) FROM order_items
WHERE order_id = $1
`

func (q *Queries) CountOrderLines(ctx context.Context, orderID int64) (int64, error) {
	row := q.db.QueryRow(ctx, countOrderLines, orderID)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const createOrderLines = `-- name: CreateOrderLines :execrows
WITH claimed AS (
    UPDATE orders SET lines_written = true
    WHERE order_id = $1 AND NOT lines_written
    RETURNING order_id
)
INSERT INTO order_items (order_id, menu_item_id, quantity, price_at_time)
SELECT claimed.order_id, l.menu_item_id, l.quantity, l.price_at_time
FROM claimed, unnest($2::bigint[], $3::int[], $4::numeric[]) AS l(menu_item_id, quantity, price_at_time)
`

type CreateOrderLinesParams struct {
	OrderID     int64            `json:"order_id"`
	MenuItemIDs []int64          `json:"menu_item_ids"`
	Quantities  []int32          `json:"quantities"`
	Prices      []pgtype.Numeric `json:"prices"`
}

// CreateOrderLines writes the lines of an order once. Later calls for the same
// order affect no rows.
func (q *Queries) CreateOrderLines(ctx context.Context, arg CreateOrderLinesParams) (int64, error) {
	result, err := q.db.Exec(ctx, createOrderLines,
		arg.OrderID,
		arg.MenuItemIDs,
		arg.Quantities,
		arg.Prices,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const listOrderLines = `-- name: ListOrderLines :many
SELECT oi.id, oi.order_id, oi.menu_item_id, oi.quantity, oi.price_at_time, m.name_local, m.name_alt
FROM order_items oi
JOIN menu m ON m.id = oi.menu_item_id
WHERE oi.order_id = $1
ORDER BY oi.id
`

type ListOrderLinesRow struct {
	ID          int64          `json:"id"`
	OrderID     int64          `json:"order_id"`
	MenuItemID  int64          `json:"menu_item_id"`
	Quantity    int32          `json:"quantity"`
	PriceAtTime pgtype.Numeric `json:"price_at_time"`
	NameLocal   string         `json:"name_local"`
	NameAlt     pgtype.Text    `json:"name_alt"`
}

func (q *Queries) ListOrderLines(ctx context.Context, orderID int64) ([]ListOrderLinesRow, error) {
	rows, err := q.db.Query(ctx, listOrderLines, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []ListOrderLinesRow{}
	for rows.Next() {
		var i ListOrderLinesRow
		if err := rows.Scan(
			&i.ID,
			&i.OrderID,
			&i.MenuItemID,
			&i.Quantity,
			&i.PriceAtTime,
			&i.NameLocal,
			&i.NameAlt,
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

const listOrderLinesSince = `-- name: ListOrderLinesSince :many
SELECT oi.order_id, oi.menu_item_id, oi.quantity, oi.price_at_time, m.name_local, m.name_alt, m.category, m.cost
FROM order_items oi
JOIN orders o ON o.order_id = oi.order_id
JOIN menu m ON m.id = oi.menu_item_id
WHERE o.is_paid = true AND o.status <> 'Cancelled' AND o.created_at >= $1
`

type ListOrderLinesSinceRow struct {
	OrderID     int64          `json:"order_id"`
	MenuItemID  int64          `json:"menu_item_id"`
	Quantity    int32          `json:"quantity"`
	PriceAtTime pgtype.Numeric `json:"price_at_time"`
	NameLocal   string         `json:"name_local"`
	NameAlt     pgtype.Text    `json:"name_alt"`
	Category    string         `json:"category"`
	Cost        pgtype.Numeric `json:"cost"`
}

func (q *Queries) ListOrderLinesSince(ctx context.Context, since time.Time) ([]ListOrderLinesSinceRow, error) {
	rows, err := q.db.Query(ctx, listOrderLinesSince, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []ListOrderLinesSinceRow{}
	for rows.Next() {
		var i ListOrderLinesSinceRow
		if err := rows.Scan(
			&i.OrderID,
			&i.MenuItemID,
			&i.Quantity,
			&i.PriceAtTime,
			&i.NameLocal,
			&i.NameAlt,
			&i.Category,
			&i.Cost,
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
