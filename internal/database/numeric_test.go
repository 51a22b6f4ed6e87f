package database

import (
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

func TestNumericRoundTrip(t *testing.T) {
	in := decimal.RequireFromString("37.50")
	got, err := NumericToDecimal(DecimalToNumeric(in))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(in) {
		t.Errorf("got %s, want %s", got, in)
	}
}

func TestNumericToDecimal_Null(t *testing.T) {
	got, err := NumericToDecimal(pgtype.Numeric{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.IsZero() {
		t.Errorf("got %s, want 0", got)
	}
}

func TestNumericString(t *testing.T) {
	if got := NumericString(DecimalToNumeric(decimal.NewFromInt(75))); got != "75.00" {
		t.Errorf("got %q, want %q", got, "75.00")
	}
	if got := NumericString(pgtype.Numeric{}); got != "0.00" {
		t.Errorf("got %q, want %q", got, "0.00")
	}
}

func TestMigrateURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"postgres://u:p@localhost:5432/sahar?sslmode=disable", "pgx5://u:p@localhost:5432/sahar?sslmode=disable"},
		{"postgresql://localhost/sahar", "pgx5://localhost/sahar"},
		{"pgx5://localhost/sahar", "pgx5://localhost/sahar"},
	}
	for _, tt := range tests {
		if got := migrateURL(tt.in); got != tt.want {
			t.Errorf("migrateURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
