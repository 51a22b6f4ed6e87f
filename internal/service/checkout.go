package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/sahar-erp/api/internal/database"
	"github.com/sahar-erp/api/internal/enum"
	"github.com/sahar-erp/api/internal/events"
	"github.com/sahar-erp/api/internal/metrics"
	"github.com/sahar-erp/api/internal/pos"
	"github.com/shopspring/decimal"
)

// Errors returned by the checkout service.
var (
	ErrInvalidPaymentMethod = errors.New("invalid payment_method")
	ErrCheckoutFailed       = errors.New("checkout failed")
	ErrIdempotencyKeyReused = errors.New("idempotency key already used for a different checkout")
)

// CheckoutStore defines the DB methods the checkout saga needs.
// Satisfied by *database.Queries.
type CheckoutStore interface {
	StartCheckoutDraft(ctx context.Context, arg database.StartCheckoutDraftParams) (database.CheckoutDraft, error)
	MarkDraftCustomerApplied(ctx context.Context, idempotencyKey uuid.UUID) error
	SetDraftOrder(ctx context.Context, arg database.SetDraftOrderParams) error
	FinishCheckoutDraft(ctx context.Context, arg database.FinishCheckoutDraftParams) error
	GetOrder(ctx context.Context, orderID int64) (database.Order, error)
	GetOrderByIdempotencyKey(ctx context.Context, idempotencyKey pgtype.UUID) (database.Order, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	CountOrderLines(ctx context.Context, orderID int64) (int64, error)
	CreateOrderLines(ctx context.Context, arg database.CreateOrderLinesParams) (int64, error)
}

// CheckoutRequest is the validated input for checking out a register.
// A nil IdempotencyKey lets the register supply its own.
type CheckoutRequest struct {
	IdempotencyKey uuid.UUID
	CustomerName   string
	Phone          string
	PaymentMethod  string
}

// CheckoutResult describes a finished checkout. Skipped is set when the cart
// was empty and nothing was written; Replayed when the key had already
// completed and the stored order was returned.
type CheckoutResult struct {
	Skipped        bool
	Replayed       bool
	IdempotencyKey uuid.UUID
	Order          database.Order
	Lines          pos.Cart
}

// draftPayload is the cart snapshot stored with a checkout draft, enough for
// the reconciler to rebuild order lines.
type draftPayload struct {
	CustomerName  string   `json:"customer_name"`
	Phone         string   `json:"phone"`
	PaymentMethod string   `json:"payment_method"`
	Summary       string   `json:"summary"`
	Lines         pos.Cart `json:"lines"`
}

// CheckoutService turns a register's cart into a paid order.
type CheckoutService struct {
	store     CheckoutStore
	customers *CustomerDirectory
	publisher events.Publisher
}

func NewCheckoutService(store CheckoutStore, customers *CustomerDirectory, publisher events.Publisher) *CheckoutService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &CheckoutService{store: store, customers: customers, publisher: publisher}
}

// Checkout runs the checkout saga for reg. Every step is its own write; the
// draft row keyed by the idempotency key lets a retry resume where a failed
// attempt stopped without duplicating the customer visit, the order or its lines.
func (s *CheckoutService) Checkout(ctx context.Context, reg *pos.Register, req CheckoutRequest) (*CheckoutResult, error) {
	if !enum.ValidPaymentMethod(req.PaymentMethod) {
		metrics.RecordCheckout(metrics.CheckoutRejected)
		return nil, ErrInvalidPaymentMethod
	}

	attempt, err := reg.Begin(req.IdempotencyKey)
	if err != nil {
		metrics.RecordCheckout(metrics.CheckoutRejected)
		return nil, err
	}
	if len(attempt.Cart) == 0 {
		reg.Abort()
		metrics.RecordCheckout(metrics.CheckoutSkipped)
		return &CheckoutResult{Skipped: true, IdempotencyKey: attempt.IdempotencyKey, Lines: pos.Cart{}}, nil
	}

	result, err := s.run(ctx, attempt, req)
	if errors.Is(err, ErrIdempotencyKeyReused) {
		reg.Reject()
		metrics.RecordCheckout(metrics.CheckoutRejected)
		slog.WarnContext(ctx, "checkout key reused", "idempotency_key", attempt.IdempotencyKey, "register_id", attempt.RegisterID)
		return nil, err
	}
	if err != nil {
		reg.Fail()
		metrics.RecordCheckout(metrics.CheckoutFailed)
		s.recordFailure(ctx, attempt.IdempotencyKey, err)
		return nil, err
	}
	reg.Succeed()
	if result.Replayed {
		metrics.RecordCheckout(metrics.CheckoutReplayed)
		return result, nil
	}
	metrics.RecordCheckout(metrics.CheckoutSucceeded)
	s.publish(ctx, result.Order)
	return result, nil
}

func (s *CheckoutService) run(ctx context.Context, attempt pos.Attempt, req CheckoutRequest) (*CheckoutResult, error) {
	total := attempt.Cart.Total()
	payload := draftPayload{
		CustomerName:  strings.TrimSpace(req.CustomerName),
		Phone:         req.Phone,
		PaymentMethod: req.PaymentMethod,
		Summary:       attempt.Cart.Summary(),
		Lines:         attempt.Cart,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal draft payload: %w", err)
	}

	draft, err := s.store.StartCheckoutDraft(ctx, database.StartCheckoutDraftParams{
		IdempotencyKey: attempt.IdempotencyKey,
		RegisterID:     attempt.RegisterID,
		Payload:        raw,
		TotalAmount:    database.DecimalToNumeric(total),
	})
	if err != nil {
		return nil, fmt.Errorf("start checkout draft: %w", err)
	}
	if !draftMatches(draft, payload, total) {
		return nil, ErrIdempotencyKeyReused
	}

	if (draft.Status == enum.DraftStatusCompleted || draft.Status == enum.DraftStatusRepaired) && draft.OrderID.Valid {
		order, err := s.store.GetOrder(ctx, draft.OrderID.Int64)
		if err != nil {
			return nil, fmt.Errorf("get completed order: %w", err)
		}
		return &CheckoutResult{Replayed: true, IdempotencyKey: attempt.IdempotencyKey, Order: order, Lines: attempt.Cart}, nil
	}

	if !draft.CustomerApplied {
		s.applyCustomer(ctx, attempt.IdempotencyKey, payload, total)
	}

	order, err := s.ensureOrder(ctx, attempt.IdempotencyKey, payload, total)
	if err != nil {
		return nil, err
	}
	if !draft.OrderID.Valid || draft.OrderID.Int64 != order.OrderID {
		if err := s.store.SetDraftOrder(ctx, database.SetDraftOrderParams{
			IdempotencyKey: attempt.IdempotencyKey,
			OrderID:        pgtype.Int8{Int64: order.OrderID, Valid: true},
		}); err != nil {
			return nil, fmt.Errorf("link draft to order: %w", err)
		}
	}

	if _, err := ensureOrderLines(ctx, s.store, order.OrderID, attempt.Cart); err != nil {
		return nil, err
	}

	if err := s.store.FinishCheckoutDraft(ctx, database.FinishCheckoutDraftParams{
		IdempotencyKey: attempt.IdempotencyKey,
		Status:         enum.DraftStatusCompleted,
	}); err != nil {
		// The order and its lines exist; the reconciler will close the draft.
		slog.WarnContext(ctx, "finish checkout draft", "idempotency_key", attempt.IdempotencyKey, "error", err)
	}

	return &CheckoutResult{IdempotencyKey: attempt.IdempotencyKey, Order: order, Lines: attempt.Cart}, nil
}

// draftMatches reports whether an existing draft was written for the same
// customer, payment and cart lines as the current attempt.
func draftMatches(d database.CheckoutDraft, p draftPayload, total decimal.Decimal) bool {
	stored, err := database.NumericToDecimal(d.TotalAmount)
	if err != nil || !stored.Equal(total) {
		return false
	}
	var prev draftPayload
	if err := json.Unmarshal(d.Payload, &prev); err != nil {
		return false
	}
	if prev.CustomerName != p.CustomerName || prev.Phone != p.Phone || prev.PaymentMethod != p.PaymentMethod {
		return false
	}
	return slices.EqualFunc(prev.Lines, p.Lines, func(a, b pos.Line) bool {
		return a.MenuItemID == b.MenuItemID &&
			a.Quantity == b.Quantity &&
			a.UnitPrice.Equal(b.UnitPrice) &&
			a.Note == b.Note
	})
}

// applyCustomer updates the customer directory. Failures are logged and never
// stop the checkout.
func (s *CheckoutService) applyCustomer(ctx context.Context, key uuid.UUID, p draftPayload, total decimal.Decimal) {
	if s.customers == nil {
		return
	}
	lookup, err := s.customers.LookupByPhone(ctx, p.Phone)
	if err != nil {
		slog.WarnContext(ctx, "checkout customer lookup", "idempotency_key", key, "error", err)
		return
	}
	if _, err := s.customers.UpsertOnCheckout(ctx, lookup.Customer, p.CustomerName, p.Phone, total); err != nil {
		slog.WarnContext(ctx, "checkout customer upsert", "idempotency_key", key, "error", err)
		return
	}
	if err := s.store.MarkDraftCustomerApplied(ctx, key); err != nil {
		slog.WarnContext(ctx, "mark draft customer applied", "idempotency_key", key, "error", err)
	}
}

// ensureOrder returns the order already written for key or creates it.
func (s *CheckoutService) ensureOrder(ctx context.Context, key uuid.UUID, p draftPayload, total decimal.Decimal) (database.Order, error) {
	pgKey := pgtype.UUID{Bytes: key, Valid: true}
	order, err := s.store.GetOrderByIdempotencyKey(ctx, pgKey)
	if err == nil {
		return order, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return database.Order{}, fmt.Errorf("%w: find order: %w", ErrCheckoutFailed, err)
	}

	name := p.CustomerName
	if name == "" {
		name = enum.WalkInName
	}
	phone := p.Phone
	if phone == "" {
		phone = enum.WalkInPhone
	}
	order, err = s.store.CreateOrder(ctx, database.CreateOrderParams{
		IdempotencyKey: pgKey,
		CustomerName:   name,
		Phone:          phone,
		TotalAmount:    database.DecimalToNumeric(total),
		OrderSummary:   p.Summary,
		Status:         enum.OrderStatusNew,
		PaymentMethod:  p.PaymentMethod,
		IsPaid:         true,
		OrderType:      enum.OrderTypePOS,
	})
	if err == nil {
		return order, nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		order, err = s.store.GetOrderByIdempotencyKey(ctx, pgKey)
		if err == nil {
			return order, nil
		}
	}
	return database.Order{}, fmt.Errorf("%w: create order: %w", ErrCheckoutFailed, err)
}

// OrderLineStore is the subset of queries needed to write order lines.
type OrderLineStore interface {
	CountOrderLines(ctx context.Context, orderID int64) (int64, error)
	CreateOrderLines(ctx context.Context, arg database.CreateOrderLinesParams) (int64, error)
}

// ensureOrderLines writes one line per cart entry unless the order already has
// lines. written is false when another writer got there first.
func ensureOrderLines(ctx context.Context, store OrderLineStore, orderID int64, cart pos.Cart) (written bool, err error) {
	n, err := store.CountOrderLines(ctx, orderID)
	if err != nil {
		return false, fmt.Errorf("%w: count order lines: %w", ErrCheckoutFailed, err)
	}
	if n > 0 {
		return false, nil
	}
	arg := database.CreateOrderLinesParams{
		OrderID:     orderID,
		MenuItemIDs: make([]int64, len(cart)),
		Quantities:  make([]int32, len(cart)),
		Prices:      make([]pgtype.Numeric, len(cart)),
	}
	for i, l := range cart {
		arg.MenuItemIDs[i] = l.MenuItemID
		arg.Quantities[i] = l.Quantity
		arg.Prices[i] = database.DecimalToNumeric(l.UnitPrice)
	}
	rows, err := store.CreateOrderLines(ctx, arg)
	if err != nil {
		return false, fmt.Errorf("%w: create order lines: %w", ErrCheckoutFailed, err)
	}
	return rows > 0, nil
}

// recordFailure keeps the draft Started so a retry or the reconciler can finish it.
func (s *CheckoutService) recordFailure(ctx context.Context, key uuid.UUID, cause error) {
	slog.ErrorContext(ctx, "checkout failed", "idempotency_key", key, "error", cause)
	err := s.store.FinishCheckoutDraft(ctx, database.FinishCheckoutDraftParams{
		IdempotencyKey: key,
		Status:         enum.DraftStatusStarted,
		LastError:      pgtype.Text{String: cause.Error(), Valid: true},
	})
	if err != nil {
		slog.WarnContext(ctx, "record checkout failure", "idempotency_key", key, "error", err)
	}
}

func (s *CheckoutService) publish(ctx context.Context, order database.Order) {
	e, err := events.New(events.TypeOrderCreated, order)
	if err != nil {
		slog.ErrorContext(ctx, "build order event", "order_id", order.OrderID, "error", err)
		return
	}
	if err := s.publisher.Publish(ctx, e); err != nil {
		slog.WarnContext(ctx, "publish order event", "order_id", order.OrderID, "error", err)
	}
}
