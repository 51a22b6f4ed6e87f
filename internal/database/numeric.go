package database

import (
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// NumericToDecimal converts a pgtype.Numeric to decimal.Decimal. NULL becomes zero.
func NumericToDecimal(n pgtype.Numeric) (decimal.Decimal, error) {
	if !n.Valid {
		return decimal.Zero, nil
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(val.(string))
}

// DecimalToNumeric converts a decimal.Decimal to a valid pgtype.Numeric.
func DecimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.String())
	return n
}

// NumericString renders n with two decimal places. NULL and malformed values render as "0.00".
func NumericString(n pgtype.Numeric) string {
	d, err := NumericToDecimal(n)
	if err != nil {
		return "0.00"
	}
	return d.StringFixed(2)
}
