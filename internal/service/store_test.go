package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/sahar-erp/api/internal/database"
	"github.com/sahar-erp/api/internal/enum"
)

// fakeStore is an in-memory stand-in for *database.Queries covering the
// customer, order and checkout draft queries. Fields ending in Err make the
// matching query fail.
type fakeStore struct {
	mu sync.Mutex

	customers map[string]database.Customer // by phone
	orders    map[int64]database.Order
	lines     map[int64][]database.OrderItem
	drafts    map[uuid.UUID]database.CheckoutDraft
	nextOrder int64
	nextLine  int64

	getCustomerErr    error
	createCustomerErr error
	createOrderErr    error
	createLinesErr    error
	startDraftErr     error

	// staleLineCount makes CountOrderLines report zero, as a reader racing
	// another writer would see it.
	staleLineCount bool

	createCustomerCalls int
	recordVisitCalls    int
	createOrderCalls    int
	createLinesCalls    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		customers: make(map[string]database.Customer),
		orders:    make(map[int64]database.Order),
		lines:     make(map[int64][]database.OrderItem),
		drafts:    make(map[uuid.UUID]database.CheckoutDraft),
	}
}

func uniqueViolation() error {
	return &pgconn.PgError{Code: "23505"}
}

func (f *fakeStore) GetCustomerByPhone(_ context.Context, phone string) (database.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getCustomerErr != nil {
		return database.Customer{}, f.getCustomerErr
	}
	c, ok := f.customers[phone]
	if !ok {
		return database.Customer{}, pgx.ErrNoRows
	}
	return c, nil
}

func (f *fakeStore) CreateCustomer(_ context.Context, arg database.CreateCustomerParams) (database.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCustomerCalls++
	if f.createCustomerErr != nil {
		return database.Customer{}, f.createCustomerErr
	}
	if _, ok := f.customers[arg.Phone]; ok {
		return database.Customer{}, uniqueViolation()
	}
	now := time.Now()
	c := database.Customer{
		ID:           uuid.New(),
		Phone:        arg.Phone,
		Name:         arg.Name,
		FirstVisitAt: now,
		LastVisitAt:  now,
		TotalOrders:  1,
		TotalSpent:   arg.TotalSpent,
		CreatedAt:    now,
	}
	f.customers[arg.Phone] = c
	return c, nil
}

func (f *fakeStore) RecordCustomerVisit(_ context.Context, arg database.RecordCustomerVisitParams) (database.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recordVisitCalls++
	for phone, c := range f.customers {
		if c.ID != arg.ID {
			continue
		}
		spent := mustDecimal(c.TotalSpent).Add(mustDecimal(arg.Amount))
		c.TotalOrders++
		c.TotalSpent = database.DecimalToNumeric(spent)
		c.LastVisitAt = time.Now()
		f.customers[phone] = c
		return c, nil
	}
	return database.Customer{}, pgx.ErrNoRows
}

func (f *fakeStore) StartCheckoutDraft(_ context.Context, arg database.StartCheckoutDraftParams) (database.CheckoutDraft, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startDraftErr != nil {
		return database.CheckoutDraft{}, f.startDraftErr
	}
	if d, ok := f.drafts[arg.IdempotencyKey]; ok {
		d.UpdatedAt = time.Now()
		f.drafts[arg.IdempotencyKey] = d
		return d, nil
	}
	now := time.Now()
	d := database.CheckoutDraft{
		IdempotencyKey: arg.IdempotencyKey,
		RegisterID:     arg.RegisterID,
		Payload:        arg.Payload,
		TotalAmount:    arg.TotalAmount,
		Status:         enum.DraftStatusStarted,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	f.drafts[arg.IdempotencyKey] = d
	return d, nil
}

func (f *fakeStore) MarkDraftCustomerApplied(_ context.Context, key uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	d := f.drafts[key]
	d.CustomerApplied = true
	f.drafts[key] = d
	return nil
}

func (f *fakeStore) SetDraftOrder(_ context.Context, arg database.SetDraftOrderParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	d := f.drafts[arg.IdempotencyKey]
	d.OrderID = arg.OrderID
	f.drafts[arg.IdempotencyKey] = d
	return nil
}

func (f *fakeStore) FinishCheckoutDraft(_ context.Context, arg database.FinishCheckoutDraftParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.drafts[arg.IdempotencyKey]
	if !ok {
		return nil
	}
	d.Status = arg.Status
	d.LastError = arg.LastError
	d.UpdatedAt = time.Now()
	f.drafts[arg.IdempotencyKey] = d
	return nil
}

func (f *fakeStore) ListStaleCheckoutDrafts(_ context.Context, arg database.ListStaleCheckoutDraftsParams) ([]database.CheckoutDraft, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []database.CheckoutDraft
	for _, d := range f.drafts {
		if d.Status == enum.DraftStatusStarted && d.UpdatedAt.Before(arg.Before) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeStore) GetOrder(_ context.Context, id int64) (database.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return database.Order{}, pgx.ErrNoRows
	}
	return o, nil
}

func (f *fakeStore) GetOrderByIdempotencyKey(_ context.Context, key pgtype.UUID) (database.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.IdempotencyKey == key {
			return o, nil
		}
	}
	return database.Order{}, pgx.ErrNoRows
}

func (f *fakeStore) CreateOrder(_ context.Context, arg database.CreateOrderParams) (database.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createOrderCalls++
	if f.createOrderErr != nil {
		return database.Order{}, f.createOrderErr
	}
	for _, o := range f.orders {
		if o.IdempotencyKey == arg.IdempotencyKey {
			return database.Order{}, uniqueViolation()
		}
	}
	f.nextOrder++
	now := time.Now()
	o := database.Order{
		OrderID:        f.nextOrder,
		IdempotencyKey: arg.IdempotencyKey,
		CustomerName:   arg.CustomerName,
		Phone:          arg.Phone,
		TotalAmount:    arg.TotalAmount,
		OrderSummary:   arg.OrderSummary,
		Status:         arg.Status,
		PaymentMethod:  arg.PaymentMethod,
		IsPaid:         arg.IsPaid,
		OrderType:      arg.OrderType,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	f.orders[o.OrderID] = o
	return o, nil
}

func (f *fakeStore) CountOrderLines(_ context.Context, orderID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.staleLineCount {
		return 0, nil
	}
	return int64(len(f.lines[orderID])), nil
}

func (f *fakeStore) CreateOrderLines(_ context.Context, arg database.CreateOrderLinesParams) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createLinesCalls++
	if f.createLinesErr != nil {
		return 0, f.createLinesErr
	}
	if len(arg.MenuItemIDs) != len(arg.Quantities) || len(arg.Quantities) != len(arg.Prices) {
		return 0, errors.New("mismatched line arrays")
	}
	if len(f.lines[arg.OrderID]) > 0 {
		return 0, nil
	}
	for i := range arg.MenuItemIDs {
		f.nextLine++
		f.lines[arg.OrderID] = append(f.lines[arg.OrderID], database.OrderItem{
			ID:          f.nextLine,
			OrderID:     arg.OrderID,
			MenuItemID:  arg.MenuItemIDs[i],
			Quantity:    arg.Quantities[i],
			PriceAtTime: arg.Prices[i],
		})
	}
	return int64(len(arg.MenuItemIDs)), nil
}

// ageDrafts pushes every draft's updated_at back by d.
func (f *fakeStore) ageDrafts(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k, dr := range f.drafts {
		dr.UpdatedAt = dr.UpdatedAt.Add(-d)
		f.drafts[k] = dr
	}
}
