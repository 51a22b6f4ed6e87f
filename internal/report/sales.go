package report

import (
	"cmp"
	"slices"
	"time"

	"github.com/sahar-erp/api/internal/database"
	"github.com/sahar-erp/api/internal/enum"
	"github.com/shopspring/decimal"
)

const (
	DefaultBestSellerLimit = 20
	DefaultRecentOrders    = 5
)

// BestSeller is one menu item's sales over a period.
type BestSeller struct {
	MenuItemID int64
	NameLocal  string
	NameAlt    string
	Category   string
	Quantity   int64
	Revenue    decimal.Decimal
	LineCount  int
}

// BestSellers groups lines by menu item and returns the limit items with the
// highest quantity sold. limit <= 0 returns every item.
func BestSellers(lines []database.ListOrderLinesSinceRow, limit int) []BestSeller {
	byItem := make(map[int64]*BestSeller)
	var order []int64
	for _, l := range lines {
		b, ok := byItem[l.MenuItemID]
		if !ok {
			b = &BestSeller{
				MenuItemID: l.MenuItemID,
				NameLocal:  l.NameLocal,
				NameAlt:    l.NameAlt.String,
				Category:   l.Category,
			}
			byItem[l.MenuItemID] = b
			order = append(order, l.MenuItemID)
		}
		b.Quantity += int64(l.Quantity)
		b.Revenue = b.Revenue.Add(amount(l.PriceAtTime).Mul(decimal.NewFromInt32(l.Quantity)))
		b.LineCount++
	}

	out := make([]BestSeller, 0, len(order))
	for _, id := range order {
		out = append(out, *byItem[id])
	}
	slices.SortStableFunc(out, func(a, b BestSeller) int {
		return cmp.Compare(b.Quantity, a.Quantity)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Finance is the profit summary for a period.
type Finance struct {
	Income    decimal.Decimal
	COGS      decimal.Decimal
	Expenses  decimal.Decimal
	NetProfit decimal.Decimal
}

// BuildFinance sums income from orders, cost of goods from the menu cost of
// each line, and expenses. Net profit is income less expenses and COGS.
func BuildFinance(orders []database.Order, lines []database.ListOrderLinesSinceRow, expenses []database.Expense) Finance {
	var f Finance
	for _, o := range orders {
		f.Income = f.Income.Add(amount(o.TotalAmount))
	}
	for _, l := range lines {
		f.COGS = f.COGS.Add(amount(l.Cost).Mul(decimal.NewFromInt32(l.Quantity)))
	}
	for _, e := range expenses {
		f.Expenses = f.Expenses.Add(amount(e.Amount))
	}
	f.NetProfit = f.Income.Sub(f.Expenses.Add(f.COGS))
	return f
}

// PaymentMethodTotal is the takings for one payment method.
type PaymentMethodTotal struct {
	Method string
	Orders int
	Total  decimal.Decimal
}

// PaymentMethods groups orders by payment method, largest total first.
func PaymentMethods(orders []database.Order) []PaymentMethodTotal {
	byMethod := make(map[string]*PaymentMethodTotal)
	var out []PaymentMethodTotal
	for _, o := range orders {
		p, ok := byMethod[o.PaymentMethod]
		if !ok {
			p = &PaymentMethodTotal{Method: o.PaymentMethod}
			byMethod[o.PaymentMethod] = p
		}
		p.Orders++
		p.Total = p.Total.Add(amount(o.TotalAmount))
	}
	for _, p := range byMethod {
		out = append(out, *p)
	}
	slices.SortFunc(out, func(a, b PaymentMethodTotal) int {
		if c := b.Total.Cmp(a.Total); c != 0 {
			return c
		}
		return cmp.Compare(a.Method, b.Method)
	})
	return out
}

// HourlySales is the takings within one clock hour.
type HourlySales struct {
	Hour   int
	Orders int
	Total  decimal.Decimal
}

// Hourly buckets orders by the hour of day they were placed in loc. Only hours
// with sales are returned, busiest first; equal totals keep clock order.
func Hourly(orders []database.Order, loc *time.Location) []HourlySales {
	if loc == nil {
		loc = time.Local
	}
	var buckets [24]HourlySales
	for _, o := range orders {
		h := o.CreatedAt.In(loc).Hour()
		buckets[h].Orders++
		buckets[h].Total = buckets[h].Total.Add(amount(o.TotalAmount))
	}
	var out []HourlySales
	for h, b := range buckets {
		if b.Orders == 0 {
			continue
		}
		b.Hour = h
		out = append(out, b)
	}
	slices.SortStableFunc(out, func(a, b HourlySales) int {
		return b.Total.Cmp(a.Total)
	})
	return out
}

// Dashboard is the headline view of a period.
type Dashboard struct {
	Revenue      decimal.Decimal
	OrderCount   int
	AverageOrder decimal.Decimal
	CashOrders   int
	OtherOrders  int
	Recent       []database.Order
}

// BuildDashboard summarises orders, which are expected newest first. The
// average is rounded to a whole amount.
func BuildDashboard(orders []database.Order, recent int) Dashboard {
	var d Dashboard
	for _, o := range orders {
		d.Revenue = d.Revenue.Add(amount(o.TotalAmount))
		if o.PaymentMethod == enum.PaymentMethodCash {
			d.CashOrders++
		} else {
			d.OtherOrders++
		}
	}
	d.OrderCount = len(orders)
	if d.OrderCount > 0 {
		d.AverageOrder = d.Revenue.Div(decimal.NewFromInt(int64(d.OrderCount))).Round(0)
	}
	if recent <= 0 {
		recent = DefaultRecentOrders
	}
	d.Recent = orders[:min(recent, len(orders))]
	return d
}
