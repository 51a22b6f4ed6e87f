// Package report reduces order, expense and inventory rows into the figures
// shown on the back-office screens. Functions here do no I/O.
package report

import (
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/sahar-erp/api/internal/database"
	"github.com/shopspring/decimal"
)

var ErrInvalidPeriod = errors.New("invalid period: must be today, week or month")

const (
	PeriodToday = "today"
	PeriodWeek  = "week"
	PeriodMonth = "month"
)

// Since returns the inclusive lower bound for period relative to now.
// today starts at local midnight in loc; week and month count back from now.
// An empty period means today.
func Since(period string, now time.Time, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	now = now.In(loc)
	switch period {
	case "", PeriodToday:
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, loc), nil
	case PeriodWeek:
		return now.AddDate(0, 0, -7), nil
	case PeriodMonth:
		return now.AddDate(0, -1, 0), nil
	default:
		return time.Time{}, ErrInvalidPeriod
	}
}

// amount converts n for arithmetic. NULL and malformed values count as zero.
func amount(n pgtype.Numeric) decimal.Decimal {
	d, err := database.NumericToDecimal(n)
	if err != nil {
		return decimal.Zero
	}
	return d
}
