package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sahar-erp/api/internal/database"
	"github.com/sahar-erp/api/internal/enum"
	"github.com/shopspring/decimal"
)

// MinPhoneLength is the shortest phone number the directory will search or store.
const MinPhoneLength = 11

// CustomerStore defines the DB methods the customer directory needs.
// Satisfied by *database.Queries.
type CustomerStore interface {
	GetCustomerByPhone(ctx context.Context, phone string) (database.Customer, error)
	CreateCustomer(ctx context.Context, arg database.CreateCustomerParams) (database.Customer, error)
	RecordCustomerVisit(ctx context.Context, arg database.RecordCustomerVisitParams) (database.Customer, error)
}

// CustomerLookup is the result of a phone search. Searched is false when the
// phone was too short to query; Customer is nil when nobody matched.
type CustomerLookup struct {
	Searched bool
	Customer *database.Customer
}

// CustomerDirectory finds and maintains customer records keyed by phone.
type CustomerDirectory struct {
	store CustomerStore
}

func NewCustomerDirectory(store CustomerStore) *CustomerDirectory {
	return &CustomerDirectory{store: store}
}

// LookupByPhone matches phone exactly as typed.
func (d *CustomerDirectory) LookupByPhone(ctx context.Context, phone string) (CustomerLookup, error) {
	if len(phone) < MinPhoneLength {
		return CustomerLookup{}, nil
	}
	c, err := d.store.GetCustomerByPhone(ctx, phone)
	if errors.Is(err, pgx.ErrNoRows) {
		return CustomerLookup{Searched: true}, nil
	}
	if err != nil {
		return CustomerLookup{}, fmt.Errorf("lookup customer: %w", err)
	}
	return CustomerLookup{Searched: true, Customer: &c}, nil
}

// UpsertOnCheckout records a visit worth total. A known customer has its
// counters incremented; an unknown phone of usable length creates a record.
// Short phones write nothing and return nil.
func (d *CustomerDirectory) UpsertOnCheckout(ctx context.Context, existing *database.Customer, name, phone string, total decimal.Decimal) (*database.Customer, error) {
	if existing != nil {
		return d.recordVisit(ctx, existing, total)
	}
	if len(phone) < MinPhoneLength {
		return nil, nil
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = enum.UnknownName
	}
	c, err := d.store.CreateCustomer(ctx, database.CreateCustomerParams{
		Phone:      phone,
		Name:       name,
		TotalSpent: database.DecimalToNumeric(total),
	})
	if err == nil {
		return &c, nil
	}
	// Another register created the same phone between lookup and insert.
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return nil, fmt.Errorf("create customer: %w", err)
	}
	c, err = d.store.GetCustomerByPhone(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("lookup customer after conflict: %w", err)
	}
	return d.recordVisit(ctx, &c, total)
}

func (d *CustomerDirectory) recordVisit(ctx context.Context, c *database.Customer, total decimal.Decimal) (*database.Customer, error) {
	updated, err := d.store.RecordCustomerVisit(ctx, database.RecordCustomerVisitParams{
		ID:     c.ID,
		Amount: database.DecimalToNumeric(total),
	})
	if err != nil {
		return nil, fmt.Errorf("record customer visit: %w", err)
	}
	return &updated, nil
}
