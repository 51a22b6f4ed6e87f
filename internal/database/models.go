package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type CheckoutDraft struct {
	IdempotencyKey  uuid.UUID      `json:"idempotency_key"`
	RegisterID      string         `json:"register_id"`
	Payload         []byte         `json:"payload"`
	TotalAmount     pgtype.Numeric `json:"total_amount"`
	CustomerApplied bool           `json:"customer_applied"`
	OrderID         pgtype.Int8    `json:"order_id"`
	Status          string         `json:"status"`
	LastError       pgtype.Text    `json:"last_error"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

type Customer struct {
	ID           uuid.UUID      `json:"id"`
	Phone        string         `json:"phone"`
	Name         string         `json:"name"`
	FirstVisitAt time.Time      `json:"first_visit_at"`
	LastVisitAt  time.Time      `json:"last_visit_at"`
	TotalOrders  int32          `json:"total_orders"`
	TotalSpent   pgtype.Numeric `json:"total_spent"`
	CreatedAt    time.Time      `json:"created_at"`
}

type Expense struct {
	ID          uuid.UUID      `json:"id"`
	Amount      pgtype.Numeric `json:"amount"`
	Description string         `json:"description"`
	Category    string         `json:"category"`
	RecordedBy  string         `json:"recorded_by"`
	CreatedAt   time.Time      `json:"created_at"`
}

type Ingredient struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Unit string `json:"unit"`
}

type Inventory struct {
	IngredientID int64          `json:"ingredient_id"`
	Stock        pgtype.Numeric `json:"stock"`
	MinLimit     pgtype.Numeric `json:"min_limit"`
	CostPerUnit  pgtype.Numeric `json:"cost_per_unit"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

type InventoryLog struct {
	ID           int64          `json:"id"`
	IngredientID int64          `json:"ingredient_id"`
	Change       pgtype.Numeric `json:"change"`
	Reason       string         `json:"reason"`
	CreatedAt    time.Time      `json:"created_at"`
}

type MenuItem struct {
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
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

type Order struct {
	OrderID        int64          `json:"order_id"`
	IdempotencyKey pgtype.UUID    `json:"idempotency_key"`
	CustomerName   string         `json:"customer_name"`
	Phone          string         `json:"phone"`
	TotalAmount    pgtype.Numeric `json:"total_amount"`
	OrderSummary   string         `json:"order_summary"`
	Status         string         `json:"status"`
	PaymentMethod  string         `json:"payment_method"`
	IsPaid         bool           `json:"is_paid"`
	OrderType      string         `json:"order_type"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

type OrderItem struct {
	ID          int64          `json:"id"`
	OrderID     int64          `json:"order_id"`
	MenuItemID  int64          `json:"menu_item_id"`
	Quantity    int32          `json:"quantity"`
	PriceAtTime pgtype.Numeric `json:"price_at_time"`
	CreatedAt   time.Time      `json:"created_at"`
}

type Recipe struct {
	ID           int64          `json:"id"`
	MenuItemID   int64          `json:"menu_item_id"`
	IngredientID int64          `json:"ingredient_id"`
	Quantity     pgtype.Numeric `json:"quantity"`
}

type Supplier struct {
	ID        uuid.UUID   `json:"id"`
	Name      string      `json:"name"`
	Phone     pgtype.Text `json:"phone"`
	Category  pgtype.Text `json:"category"`
	Notes     pgtype.Text `json:"notes"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

type User struct {
	ID             uuid.UUID `json:"id"`
	Username       string    `json:"username"`
	HashedPassword string    `json:"hashed_password"`
	FullName       string    `json:"full_name"`
	Role           string    `json:"role"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
