package report

import (
	"cmp"
	"errors"
	"slices"
	"strconv"
	"strings"

	"github.com/sahar-erp/api/internal/database"
	"github.com/shopspring/decimal"
)

var ErrInvalidSort = errors.New("invalid sort: must be total_used, times_used or name")

const (
	SortTotalUsed = "total_used"
	SortTimesUsed = "times_used"
	SortName      = "name"
)

// Usage bands by total quantity consumed.
const (
	UsageNone   = "none"
	UsageLow    = "low"
	UsageMedium = "medium"
	UsageHigh   = "high"
)

var (
	lowUsageCeiling    = decimal.NewFromInt(10)
	mediumUsageCeiling = decimal.NewFromInt(50)
)

// IngredientUsage is how much of an ingredient left the stock room.
type IngredientUsage struct {
	IngredientID int64
	Name         string
	Unit         string
	TotalUsed    decimal.Decimal
	TimesUsed    int
	Band         string
}

// UsageBand classifies a consumed quantity.
func UsageBand(used decimal.Decimal) string {
	switch {
	case used.IsZero():
		return UsageNone
	case used.LessThan(lowUsageCeiling):
		return UsageLow
	case used.LessThan(mediumUsageCeiling):
		return UsageMedium
	default:
		return UsageHigh
	}
}

// StockUsage totals the stock decreases in logs per ingredient. Every
// ingredient is listed, unused ones with zero. search matches name, unit or
// id case-insensitively.
func StockUsage(ingredients []database.Ingredient, logs []database.ListInventoryLogRow, sortBy, search string) ([]IngredientUsage, error) {
	if sortBy == "" {
		sortBy = SortTotalUsed
	}
	if sortBy != SortTotalUsed && sortBy != SortTimesUsed && sortBy != SortName {
		return nil, ErrInvalidSort
	}

	byID := make(map[int64]*IngredientUsage, len(ingredients))
	out := make([]*IngredientUsage, 0, len(ingredients))
	for _, ing := range ingredients {
		u := &IngredientUsage{IngredientID: ing.ID, Name: ing.Name, Unit: ing.Unit}
		byID[ing.ID] = u
		out = append(out, u)
	}
	for _, l := range logs {
		change := amount(l.Change)
		if !change.IsNegative() {
			continue
		}
		u, ok := byID[l.IngredientID]
		if !ok {
			u = &IngredientUsage{IngredientID: l.IngredientID, Name: l.IngredientName, Unit: l.IngredientUnit}
			byID[l.IngredientID] = u
			out = append(out, u)
		}
		u.TotalUsed = u.TotalUsed.Add(change.Neg())
		u.TimesUsed++
	}

	search = strings.ToLower(strings.TrimSpace(search))
	rows := make([]IngredientUsage, 0, len(out))
	for _, u := range out {
		if search != "" &&
			!strings.Contains(strings.ToLower(u.Name), search) &&
			!strings.Contains(strings.ToLower(u.Unit), search) &&
			!strings.Contains(strconv.FormatInt(u.IngredientID, 10), search) {
			continue
		}
		u.Band = UsageBand(u.TotalUsed)
		rows = append(rows, *u)
	}

	slices.SortStableFunc(rows, func(a, b IngredientUsage) int {
		switch sortBy {
		case SortTimesUsed:
			return cmp.Compare(b.TimesUsed, a.TimesUsed)
		case SortName:
			return cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		default:
			return b.TotalUsed.Cmp(a.TotalUsed)
		}
	})
	return rows, nil
}

// LowStock keeps the rows at or below their minimum limit.
func LowStock(rows []database.ListInventoryRow) []database.ListInventoryRow {
	out := []database.ListInventoryRow{}
	for _, r := range rows {
		if !amount(r.Stock).GreaterThan(amount(r.MinLimit)) {
			out = append(out, r)
		}
	}
	return out
}
